package flights

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/skobelevn/aircheckin/internal/domain"
	"github.com/skobelevn/aircheckin/internal/repository"
	"github.com/skobelevn/aircheckin/internal/reservation"
)

// businessRows is how many leading rows are business class on a new flight.
const businessRows = 2

var seatLetters = []string{"A", "B", "C", "D", "E", "F", "G", "H", "J", "K"}

type FlightUseCase interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
	UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) error
	SeatsWithHolds(ctx context.Context, flightID int64) ([]SeatWithHold, error)
}

type Cache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
	GetFlightSeats(ctx context.Context, flightID int64) ([]domain.Seat, error)
	SetFlightSeats(ctx context.Context, flightID int64, seats []domain.Seat) error
}

// HoldSource is the live soft-hold table; implemented by the reservation
// registry.
type HoldSource interface {
	Holds(flightID int64) map[string]reservation.HoldInfo
}

type SeatAvailability string

const (
	SeatAvailable SeatAvailability = "available"
	SeatHeld      SeatAvailability = "held"
	SeatBooked    SeatAvailability = "booked"
)

// SeatWithHold is a seat annotated with its effective availability: the
// durable booked flag merged with any live hold.
type SeatWithHold struct {
	domain.Seat
	Availability SeatAvailability
	HeldBooking  string
}

type CreateFlightInput struct {
	Number        string    `json:"number"`
	FromAirport   string    `json:"from_airport"`
	ToAirport     string    `json:"to_airport"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	SeatRows      int       `json:"seat_rows"`
	SeatColumns   int       `json:"seat_columns"`
	PriceCents    int64     `json:"price_cents"`
}

type FlightService struct {
	flights repository.FlightRepository
	seats   repository.SeatRepository
	holds   HoldSource
	cache   Cache
}

func NewFlightService(flights repository.FlightRepository, seats repository.SeatRepository, holds HoldSource, cache Cache) *FlightService {
	return &FlightService{flights: flights, seats: seats, holds: holds, cache: cache}
}

func (s *FlightService) List(ctx context.Context) ([]domain.Flight, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.flights.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.flights.GetByID(ctx, id)
}

// Create registers a flight and generates its full seat set. The seat
// inventory is fixed here and never resized afterward.
func (s *FlightService) Create(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	if input.SeatRows <= 0 || input.SeatColumns <= 0 {
		return nil, errors.New("seat layout must be positive")
	}
	if input.SeatColumns > len(seatLetters) {
		return nil, fmt.Errorf("at most %d seat columns supported", len(seatLetters))
	}

	flight := &domain.Flight{
		Number:        input.Number,
		FromAirport:   input.FromAirport,
		ToAirport:     input.ToAirport,
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
		SeatRows:      input.SeatRows,
		SeatColumns:   input.SeatColumns,
		PriceCents:    input.PriceCents,
	}
	if err := s.flights.Create(ctx, flight); err != nil {
		return nil, err
	}

	seats := make([]domain.Seat, 0, input.SeatRows*input.SeatColumns)
	for row := 1; row <= input.SeatRows; row++ {
		for col := 0; col < input.SeatColumns; col++ {
			seat := domain.Seat{
				Number:     fmt.Sprintf("%d%s", row, seatLetters[col]),
				Class:      domain.SeatClassEconomy,
				PriceCents: input.PriceCents,
			}
			if row <= businessRows {
				seat.Class = domain.SeatClassBusiness
				seat.PriceCents = input.PriceCents * 3
			}
			seats = append(seats, seat)
		}
	}
	if err := s.seats.CreateForFlight(ctx, flight.ID, seats); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}
	return flight, nil
}

func (s *FlightService) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) error {
	if err := s.flights.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}
	return nil
}

// SeatsWithHolds merges durable seat state with the active holds. The
// durable IsBooked flag wins over any stale hold, so a seat can never be
// shown held once its booking committed.
func (s *FlightService) SeatsWithHolds(ctx context.Context, flightID int64) ([]SeatWithHold, error) {
	var seats []domain.Seat
	if s.cache != nil {
		if cached, err := s.cache.GetFlightSeats(ctx, flightID); err == nil && cached != nil {
			seats = cached
		}
	}
	if seats == nil {
		var err error
		seats, err = s.seats.ListByFlight(ctx, flightID)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			_ = s.cache.SetFlightSeats(ctx, flightID, seats)
		}
	}

	var holds map[string]reservation.HoldInfo
	if s.holds != nil {
		holds = s.holds.Holds(flightID)
	}

	annotated := make([]SeatWithHold, 0, len(seats))
	for _, seat := range seats {
		sw := SeatWithHold{Seat: seat, Availability: SeatAvailable}
		if hold, ok := holds[seat.Number]; ok {
			sw.Availability = SeatHeld
			sw.HeldBooking = hold.BookingRef
		}
		if seat.IsBooked {
			sw.Availability = SeatBooked
			sw.HeldBooking = ""
		}
		annotated = append(annotated, sw)
	}
	return annotated, nil
}

var _ FlightUseCase = (*FlightService)(nil)
