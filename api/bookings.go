package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skobelevn/aircheckin/internal/domain"
	"github.com/skobelevn/aircheckin/internal/service/bookings"
)

type BookingHandler struct {
	service bookings.BookingUseCase
}

type bookingResponse struct {
	Reference      string `json:"reference"`
	FlightID       int64  `json:"flight_id"`
	PassengerName  string `json:"passenger_name"`
	PassportNumber string `json:"passport_number"`
	Email          string `json:"email"`
	IsCheckedIn    bool   `json:"is_checked_in"`
	CheckedInAt    string `json:"checked_in_at,omitempty"`
}

func NewBookingHandler(service bookings.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.create)
	router.GET("/:reference", h.get)
}

func (h *BookingHandler) create(c *gin.Context) {
	var input bookings.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	booking, err := h.service.Create(c.Request.Context(), input)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, toBookingResponse(booking))
}

func (h *BookingHandler) get(c *gin.Context) {
	booking, err := h.service.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toBookingResponse(booking))
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		Reference:      b.Reference,
		FlightID:       b.FlightID,
		PassengerName:  b.PassengerName,
		PassportNumber: b.PassportNumber,
		Email:          b.Email,
		IsCheckedIn:    b.IsCheckedIn,
	}
	if b.IsCheckedIn {
		resp.CheckedInAt = b.CheckedInAt.Format(time.RFC3339)
	}
	return resp
}
