package checkin

import "github.com/skobelevn/aircheckin/internal/domain"

// Outcome classifies the result of an AssignSeat call. Expected
// concurrent-use results are values here, never errors; the error return
// of AssignSeat is reserved for storage faults.
type Outcome string

const (
	OutcomeAssigned           Outcome = "ASSIGNED"
	OutcomeBookingNotFound    Outcome = "BOOKING_NOT_FOUND"
	OutcomeSeatNotFound       Outcome = "SEAT_NOT_FOUND"
	OutcomeSeatFlightMismatch Outcome = "SEAT_FLIGHT_MISMATCH"
	OutcomeAlreadyCheckedIn   Outcome = "ALREADY_CHECKED_IN"
	OutcomeSeatUnavailable    Outcome = "SEAT_UNAVAILABLE"
	OutcomeCommitFailed       Outcome = "COMMIT_FAILED"
)

type AssignResult struct {
	Outcome      Outcome
	BoardingPass *domain.BoardingPass
}

func result(o Outcome) *AssignResult {
	return &AssignResult{Outcome: o}
}
