package domain

import "time"

type FlightStatus string

const (
	FlightStatusScheduled  FlightStatus = "SCHEDULED"
	FlightStatusCheckingIn FlightStatus = "CHECKING_IN"
	FlightStatusBoarding   FlightStatus = "BOARDING"
	FlightStatusGateClosed FlightStatus = "GATE_CLOSED"
	FlightStatusDeparted   FlightStatus = "DEPARTED"
	FlightStatusDelayed    FlightStatus = "DELAYED"
	FlightStatusCancelled  FlightStatus = "CANCELLED"
)

type Flight struct {
	ID            int64
	Number        string
	FromAirport   string
	ToAirport     string
	DepartureTime time.Time
	ArrivalTime   time.Time
	Status        FlightStatus
	SeatRows      int
	SeatColumns   int
	PriceCents    int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type SeatClass string

const (
	SeatClassEconomy  SeatClass = "ECONOMY"
	SeatClassBusiness SeatClass = "BUSINESS"
)

// Seat inventory is fixed at flight creation and never resized.
// IsBooked is the durable, authoritative state; only the check-in
// commit (and its compensation) may change it.
type Seat struct {
	ID         int64
	FlightID   int64
	Number     string
	Class      SeatClass
	PriceCents int64
	IsBooked   bool
	BookedBy   int64
}
