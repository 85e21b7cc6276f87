package domain

import "time"

// BoardingOffset is how long before departure boarding starts.
const BoardingOffset = 45 * time.Minute

type Booking struct {
	ID             int64
	FlightID       int64
	Reference      string
	PassengerName  string
	PassportNumber string
	Email          string
	SeatID         int64
	IsCheckedIn    bool
	CheckedInAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BoardingPass is derived from a checked-in booking; it is never stored.
type BoardingPass struct {
	PassengerName  string    `json:"passenger_name"`
	PassportNumber string    `json:"passport_number"`
	FlightNumber   string    `json:"flight_number"`
	FromAirport    string    `json:"from_airport"`
	ToAirport      string    `json:"to_airport"`
	SeatNumber     string    `json:"seat_number"`
	DepartureTime  time.Time `json:"departure_time"`
	BoardingTime   time.Time `json:"boarding_time"`
}

func NewBoardingPass(booking *Booking, flight *Flight, seat *Seat) *BoardingPass {
	return &BoardingPass{
		PassengerName:  booking.PassengerName,
		PassportNumber: booking.PassportNumber,
		FlightNumber:   flight.Number,
		FromAirport:    flight.FromAirport,
		ToAirport:      flight.ToAirport,
		SeatNumber:     seat.Number,
		DepartureTime:  flight.DepartureTime,
		BoardingTime:   flight.DepartureTime.Add(-BoardingOffset),
	}
}
