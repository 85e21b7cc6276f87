package checkin

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/skobelevn/aircheckin/internal/domain"
	"github.com/skobelevn/aircheckin/internal/kafka"
	"github.com/skobelevn/aircheckin/internal/repository"
)

type CheckInUseCase interface {
	AssignSeat(ctx context.Context, bookingID, seatID int64) (*AssignResult, error)
}

// HoldConverter drops any soft hold on a freshly booked seat and announces
// the permanent assignment. Implemented by the reservation registry. Only
// ever called after the commit has succeeded and the flight lock has been
// released.
type HoldConverter interface {
	ConvertToBooked(flightID int64, seatNumber, bookingRef string)
}

type Cache interface {
	InvalidateFlightSeats(ctx context.Context, flightID int64) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

// CheckInService serializes permanent seat assignment per flight so that
// exactly one booking ever wins a seat.
type CheckInService struct {
	bookings           repository.BookingRepository
	seats              repository.SeatRepository
	flights            repository.FlightRepository
	holds              HoldConverter
	cache              Cache
	producer           Producer
	checkinTopic       string
	notificationsTopic string

	mu          sync.Mutex
	flightLocks map[int64]*sync.Mutex
}

type CheckInServiceOption func(*CheckInService)

func WithNotificationsTopic(topic string) CheckInServiceOption {
	return func(s *CheckInService) {
		s.notificationsTopic = topic
	}
}

func NewCheckInService(
	bookings repository.BookingRepository,
	seats repository.SeatRepository,
	flights repository.FlightRepository,
	holds HoldConverter,
	cache Cache,
	producer Producer,
	checkinTopic string,
	opts ...CheckInServiceOption,
) *CheckInService {
	service := &CheckInService{
		bookings:     bookings,
		seats:        seats,
		flights:      flights,
		holds:        holds,
		cache:        cache,
		producer:     producer,
		checkinTopic: checkinTopic,
		flightLocks:  make(map[int64]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// flightLock returns the mutex serializing assignments for one flight.
// A sync.Mutex parks the goroutine, not the OS thread, so repository I/O
// from other flights keeps flowing while one flight commits.
func (s *CheckInService) flightLock(flightID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.flightLocks[flightID]
	if !ok {
		lock = &sync.Mutex{}
		s.flightLocks[flightID] = lock
	}
	return lock
}

// AssignSeat durably and exclusively assigns the seat to the booking, or
// fails cleanly leaving both unchanged. First caller through the critical
// section wins; everyone else observes the booked seat and loses.
func (s *CheckInService) AssignSeat(ctx context.Context, bookingID, seatID int64) (*AssignResult, error) {
	// preconditions, outside any lock, no side effects
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result(OutcomeBookingNotFound), nil
		}
		return nil, err
	}
	if booking.IsCheckedIn {
		return s.alreadyCheckedIn(ctx, booking), nil
	}

	seat, err := s.seats.GetByID(ctx, seatID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return result(OutcomeSeatNotFound), nil
		}
		return nil, err
	}
	if seat.FlightID != booking.FlightID {
		log.Printf("checkin: seat %d belongs to flight %d, booking %d is for flight %d", seatID, seat.FlightID, bookingID, booking.FlightID)
		return result(OutcomeSeatFlightMismatch), nil
	}

	flight, err := s.flights.GetByID(ctx, booking.FlightID)
	if err != nil {
		return nil, err
	}

	res, err := s.commit(ctx, booking, seat)
	if err != nil {
		return nil, err
	}
	if res != nil {
		if res.Outcome == OutcomeAlreadyCheckedIn {
			// lost the race to another agent; derive the winning pass
			// now that the lock is gone
			return s.alreadyCheckedIn(ctx, booking), nil
		}
		return res, nil
	}

	// commit won; side effects happen outside the lock
	pass := domain.NewBoardingPass(booking, flight, seat)
	if s.holds != nil {
		s.holds.ConvertToBooked(flight.ID, seat.Number, booking.Reference)
	}
	if s.cache != nil {
		if err := s.cache.InvalidateFlightSeats(ctx, flight.ID); err != nil {
			log.Printf("checkin: invalidate seat cache for flight %d: %v", flight.ID, err)
		}
	}
	s.publish(ctx, booking, flight, seat, pass)

	return &AssignResult{Outcome: OutcomeAssigned, BoardingPass: pass}, nil
}

// commit runs the critical section. It returns (nil, nil) when this call
// won the seat; any non-nil result is a loss or a fault.
func (s *CheckInService) commit(ctx context.Context, booking *domain.Booking, seat *domain.Seat) (*AssignResult, error) {
	lock := s.flightLock(booking.FlightID)
	lock.Lock()
	defer lock.Unlock()

	// re-check under the lock: both reads may have gone stale
	current, err := s.seats.GetByID(ctx, seat.ID)
	if err != nil {
		return nil, err
	}
	if current.IsBooked {
		return result(OutcomeSeatUnavailable), nil
	}
	freshBooking, err := s.bookings.GetByID(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if freshBooking.IsCheckedIn {
		*booking = *freshBooking
		return result(OutcomeAlreadyCheckedIn), nil
	}

	booked, err := s.seats.MarkBooked(ctx, seat.ID, booking.ID)
	if err != nil {
		log.Printf("checkin: seat half of commit failed (booking %d, seat %d): %v", booking.ID, seat.ID, err)
		return result(OutcomeCommitFailed), nil
	}
	if !booked {
		return result(OutcomeSeatUnavailable), nil
	}

	booking.SeatID = seat.ID
	booking.IsCheckedIn = true
	booking.CheckedInAt = time.Now()
	updated, err := s.bookings.Update(ctx, booking)
	if err != nil || !updated {
		// the seat is durably booked but the booking is not: reverse the
		// seat half, best effort
		log.Printf("checkin: booking half of commit failed (booking %d, seat %d): %v", booking.ID, seat.ID, err)
		if _, compErr := s.seats.MarkUnbooked(ctx, seat.ID); compErr != nil {
			log.Printf("checkin: compensation failed, seat %d left booked without a checked-in booking %d: %v", seat.ID, booking.ID, compErr)
		}
		booking.SeatID = 0
		booking.IsCheckedIn = false
		booking.CheckedInAt = time.Time{}
		return result(OutcomeCommitFailed), nil
	}

	return nil, nil
}

// alreadyCheckedIn is idempotent: it rebuilds the boarding pass the
// booking already earned.
func (s *CheckInService) alreadyCheckedIn(ctx context.Context, booking *domain.Booking) *AssignResult {
	res := result(OutcomeAlreadyCheckedIn)
	if booking.SeatID == 0 {
		return res
	}
	seat, err := s.seats.GetByID(ctx, booking.SeatID)
	if err != nil {
		log.Printf("checkin: cannot derive boarding pass for booking %d: %v", booking.ID, err)
		return res
	}
	flight, err := s.flights.GetByID(ctx, booking.FlightID)
	if err != nil {
		log.Printf("checkin: cannot derive boarding pass for booking %d: %v", booking.ID, err)
		return res
	}
	res.BoardingPass = domain.NewBoardingPass(booking, flight, seat)
	return res
}

func (s *CheckInService) publish(ctx context.Context, booking *domain.Booking, flight *domain.Flight, seat *domain.Seat, pass *domain.BoardingPass) {
	if s.producer == nil || s.checkinTopic == "" {
		return
	}
	event := kafka.CheckInEvent{
		Type:           "passenger_checked_in",
		BookingRef:     booking.Reference,
		FlightID:       flight.ID,
		FlightNumber:   flight.Number,
		SeatNumber:     seat.Number,
		PassengerName:  booking.PassengerName,
		PassportNumber: booking.PassportNumber,
		Email:          booking.Email,
		FromAirport:    flight.FromAirport,
		ToAirport:      flight.ToAirport,
		DepartureTime:  flight.DepartureTime,
		BoardingTime:   pass.BoardingTime,
		CheckedInAt:    booking.CheckedInAt,
	}
	if err := s.producer.Publish(ctx, s.checkinTopic, booking.Reference, event); err != nil {
		log.Printf("checkin: publish check-in event for booking %s: %v", booking.Reference, err)
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, booking.Reference, event); err != nil {
			log.Printf("checkin: publish notification for booking %s: %v", booking.Reference, err)
		}
	}
}

var _ CheckInUseCase = (*CheckInService)(nil)
