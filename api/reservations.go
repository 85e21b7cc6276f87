package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skobelevn/aircheckin/internal/reservation"
)

// ReservationUseCase is the soft-hold surface exposed over plain HTTP for
// agents that do not keep a websocket open. The holder identity comes in
// the request; websocket clients get theirs from the connection instead.
type ReservationUseCase interface {
	Reserve(ctx context.Context, flightID int64, seatNumber, bookingRef, holderID string) error
	Release(ctx context.Context, flightID int64, seatNumber string) error
}

type ReservationHandler struct {
	service ReservationUseCase
}

type reserveRequest struct {
	FlightID   int64  `json:"flight_id"`
	SeatNumber string `json:"seat_number"`
	BookingRef string `json:"booking_ref"`
	HolderID   string `json:"holder_id"`
}

type reserveResponse struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

type releaseRequest struct {
	FlightID   int64  `json:"flight_id"`
	SeatNumber string `json:"seat_number"`
}

func NewReservationHandler(service ReservationUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.reserve)
	router.POST("/release", h.release)
}

func (h *ReservationHandler) reserve(c *gin.Context) {
	var req reserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// without a holder identity, unrelated clients would collapse into
	// one holder and silently share each other's holds
	if req.HolderID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "holder_id is required"})
		return
	}

	err := h.service.Reserve(c.Request.Context(), req.FlightID, req.SeatNumber, req.BookingRef, req.HolderID)
	if err != nil {
		c.JSON(statusForReservationError(err), reserveResponse{Accepted: false, Reason: err.Error()})
		return
	}
	c.JSON(http.StatusOK, reserveResponse{Accepted: true})
}

func (h *ReservationHandler) release(c *gin.Context) {
	var req releaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Release(c.Request.Context(), req.FlightID, req.SeatNumber); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func statusForReservationError(err error) int {
	switch {
	case errors.Is(err, reservation.ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, reservation.ErrSeatAlreadyBooked), errors.Is(err, reservation.ErrSeatAlreadyReserved):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
