package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/skobelevn/aircheckin/internal/service/checkin"
)

type CheckInHandler struct {
	service checkin.CheckInUseCase
}

type assignSeatRequest struct {
	BookingID int64 `json:"booking_id"`
	SeatID    int64 `json:"seat_id"`
}

type assignSeatResponse struct {
	Outcome      string      `json:"outcome"`
	BoardingPass interface{} `json:"boarding_pass,omitempty"`
}

func NewCheckInHandler(service checkin.CheckInUseCase) *CheckInHandler {
	return &CheckInHandler{service: service}
}

func (h *CheckInHandler) Register(router *gin.RouterGroup) {
	router.POST("/", h.assignSeat)
}

func (h *CheckInHandler) assignSeat(c *gin.Context) {
	var req assignSeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.AssignSeat(c.Request.Context(), req.BookingID, req.SeatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := assignSeatResponse{Outcome: string(res.Outcome)}
	if res.BoardingPass != nil {
		resp.BoardingPass = res.BoardingPass
	}
	c.JSON(statusForOutcome(res.Outcome), resp)
}

func statusForOutcome(outcome checkin.Outcome) int {
	switch outcome {
	case checkin.OutcomeAssigned, checkin.OutcomeAlreadyCheckedIn:
		return http.StatusOK
	case checkin.OutcomeBookingNotFound, checkin.OutcomeSeatNotFound:
		return http.StatusNotFound
	case checkin.OutcomeSeatFlightMismatch:
		return http.StatusBadRequest
	case checkin.OutcomeSeatUnavailable:
		return http.StatusConflict
	case checkin.OutcomeCommitFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
