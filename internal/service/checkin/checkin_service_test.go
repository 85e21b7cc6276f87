package checkin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/skobelevn/aircheckin/internal/domain"
	"github.com/skobelevn/aircheckin/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) Update(ctx context.Context, booking *domain.Booking) (bool, error) {
	args := m.Called(ctx, booking)
	return args.Bool(0), args.Error(1)
}

type MockSeatRepository struct {
	mock.Mock
}

func (m *MockSeatRepository) GetByID(ctx context.Context, id int64) (*domain.Seat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockSeatRepository) GetByNumber(ctx context.Context, flightID int64, number string) (*domain.Seat, error) {
	args := m.Called(ctx, flightID, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Seat), args.Error(1)
}

func (m *MockSeatRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockSeatRepository) MarkBooked(ctx context.Context, seatID, bookingID int64) (bool, error) {
	args := m.Called(ctx, seatID, bookingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatRepository) MarkUnbooked(ctx context.Context, seatID int64) (bool, error) {
	args := m.Called(ctx, seatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSeatRepository) CreateForFlight(ctx context.Context, flightID int64, seats []domain.Seat) error {
	args := m.Called(ctx, flightID, seats)
	return args.Error(0)
}

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type recordingHoldConverter struct {
	mu        sync.Mutex
	converted []string
}

func (r *recordingHoldConverter) ConvertToBooked(flightID int64, seatNumber, bookingRef string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converted = append(r.converted, seatNumber)
}

type recordingCache struct {
	mu          sync.Mutex
	invalidated []int64
}

func (r *recordingCache) InvalidateFlightSeats(ctx context.Context, flightID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, flightID)
	return nil
}

type recordingProducer struct {
	mu     sync.Mutex
	topics []string
}

func (r *recordingProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
	return nil
}

func TestCheckInService_AssignSeat_BookingNotFound(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockSeats := &MockSeatRepository{}
	mockFlights := &MockFlightRepository{}
	service := NewCheckInService(mockBookings, mockSeats, mockFlights, nil, nil, nil, "")

	ctx := context.Background()
	mockBookings.On("GetByID", ctx, int64(404)).Return(nil, pgx.ErrNoRows).Once()

	res, err := service.AssignSeat(ctx, 404, 1)

	assert.NoError(t, err)
	assert.Equal(t, OutcomeBookingNotFound, res.Outcome)
	assert.Nil(t, res.BoardingPass)
	mockBookings.AssertExpectations(t)
}

func TestCheckInService_AssignSeat_SeatNotFound(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockSeats := &MockSeatRepository{}
	mockFlights := &MockFlightRepository{}
	service := NewCheckInService(mockBookings, mockSeats, mockFlights, nil, nil, nil, "")

	ctx := context.Background()
	mockBookings.On("GetByID", ctx, int64(1)).Return(&domain.Booking{ID: 1, FlightID: 5}, nil).Once()
	mockSeats.On("GetByID", ctx, int64(404)).Return(nil, pgx.ErrNoRows).Once()

	res, err := service.AssignSeat(ctx, 1, 404)

	assert.NoError(t, err)
	assert.Equal(t, OutcomeSeatNotFound, res.Outcome)
	mockSeats.AssertExpectations(t)
}

func TestCheckInService_AssignSeat_SeatFlightMismatch(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockSeats := &MockSeatRepository{}
	mockFlights := &MockFlightRepository{}
	service := NewCheckInService(mockBookings, mockSeats, mockFlights, nil, nil, nil, "")

	ctx := context.Background()
	mockBookings.On("GetByID", ctx, int64(1)).Return(&domain.Booking{ID: 1, FlightID: 5}, nil).Once()
	mockSeats.On("GetByID", ctx, int64(2)).Return(&domain.Seat{ID: 2, FlightID: 6, Number: "1A"}, nil).Once()

	res, err := service.AssignSeat(ctx, 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, OutcomeSeatFlightMismatch, res.Outcome)
	mockSeats.AssertNotCalled(t, "MarkBooked", mock.Anything, mock.Anything, mock.Anything)
}

// A booking already checked in for seat Y gets back the pass for Y, not
// for the requested seat, and nothing is mutated.
func TestCheckInService_AssignSeat_AlreadyCheckedIn(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockSeats := &MockSeatRepository{}
	mockFlights := &MockFlightRepository{}
	service := NewCheckInService(mockBookings, mockSeats, mockFlights, nil, nil, nil, "")

	departure := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)
	booking := &domain.Booking{
		ID: 1, FlightID: 5, SeatID: 7,
		PassengerName: "Anna Petrova", PassportNumber: "700123456",
		IsCheckedIn: true, CheckedInAt: departure.Add(-2 * time.Hour),
	}
	flight := &domain.Flight{ID: 5, Number: "SU100", FromAirport: "SVO", ToAirport: "JFK", DepartureTime: departure}

	ctx := context.Background()
	mockBookings.On("GetByID", ctx, int64(1)).Return(booking, nil).Once()
	mockSeats.On("GetByID", ctx, int64(7)).Return(&domain.Seat{ID: 7, FlightID: 5, Number: "9C", IsBooked: true, BookedBy: 1}, nil).Once()
	mockFlights.On("GetByID", ctx, int64(5)).Return(flight, nil).Once()

	res, err := service.AssignSeat(ctx, 1, 99)

	assert.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyCheckedIn, res.Outcome)
	assert.NotNil(t, res.BoardingPass)
	assert.Equal(t, "9C", res.BoardingPass.SeatNumber)
	assert.Equal(t, departure.Add(-45*time.Minute), res.BoardingPass.BoardingTime)
	mockSeats.AssertNotCalled(t, "MarkBooked", mock.Anything, mock.Anything, mock.Anything)
	mockBookings.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

// When the booking half of the commit fails, the seat half is reversed and
// the caller is told to retry from scratch.
func TestCheckInService_AssignSeat_CommitFailedCompensates(t *testing.T) {
	mockBookings := &MockBookingRepository{}
	mockSeats := &MockSeatRepository{}
	mockFlights := &MockFlightRepository{}
	service := NewCheckInService(mockBookings, mockSeats, mockFlights, nil, nil, nil, "")

	booking := &domain.Booking{ID: 1, FlightID: 5, Reference: "X1"}
	seat := &domain.Seat{ID: 2, FlightID: 5, Number: "12A"}
	flight := &domain.Flight{ID: 5, Number: "SU100"}

	ctx := context.Background()
	mockBookings.On("GetByID", ctx, int64(1)).Return(booking, nil).Twice()
	mockSeats.On("GetByID", ctx, int64(2)).Return(seat, nil).Twice()
	mockFlights.On("GetByID", ctx, int64(5)).Return(flight, nil).Once()
	mockSeats.On("MarkBooked", ctx, int64(2), int64(1)).Return(true, nil).Once()
	mockBookings.On("Update", ctx, mock.AnythingOfType("*domain.Booking")).Return(false, errors.New("connection reset")).Once()
	mockSeats.On("MarkUnbooked", ctx, int64(2)).Return(true, nil).Once()

	res, err := service.AssignSeat(ctx, 1, 2)

	assert.NoError(t, err)
	assert.Equal(t, OutcomeCommitFailed, res.Outcome)
	assert.Nil(t, res.BoardingPass)
	mockSeats.AssertExpectations(t)
	mockBookings.AssertExpectations(t)
}

func seedFlight(t *testing.T, store *repository.MemoryStore) (*domain.Flight, []domain.Seat) {
	t.Helper()
	ctx := context.Background()

	flight := &domain.Flight{
		Number:        "SU100",
		FromAirport:   "SVO",
		ToAirport:     "JFK",
		DepartureTime: time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC),
	}
	assert.NoError(t, store.Flights().Create(ctx, flight))

	seats := []domain.Seat{
		{Number: "12A", Class: domain.SeatClassEconomy},
		{Number: "12B", Class: domain.SeatClassEconomy},
	}
	assert.NoError(t, store.Seats().CreateForFlight(ctx, flight.ID, seats))
	return flight, seats
}

func seedBooking(t *testing.T, store *repository.MemoryStore, flightID int64, ref string) *domain.Booking {
	t.Helper()
	booking := &domain.Booking{
		FlightID:       flightID,
		Reference:      ref,
		PassengerName:  "Anna Petrova",
		PassportNumber: "700123456",
		Email:          "anna@example.com",
	}
	assert.NoError(t, store.Bookings().Create(context.Background(), booking))
	return booking
}

func TestCheckInService_AssignSeat_Success(t *testing.T) {
	store := repository.NewMemoryStore()
	flight, seats := seedFlight(t, store)
	booking := seedBooking(t, store, flight.ID, "X1")

	holds := &recordingHoldConverter{}
	cache := &recordingCache{}
	producer := &recordingProducer{}
	service := NewCheckInService(store.Bookings(), store.Seats(), store.Flights(),
		holds, cache, producer, "checkin-events", WithNotificationsTopic("notifications"))

	ctx := context.Background()
	res, err := service.AssignSeat(ctx, booking.ID, seats[0].ID)

	assert.NoError(t, err)
	assert.Equal(t, OutcomeAssigned, res.Outcome)
	assert.NotNil(t, res.BoardingPass)
	assert.Equal(t, "12A", res.BoardingPass.SeatNumber)
	assert.Equal(t, "Anna Petrova", res.BoardingPass.PassengerName)
	assert.Equal(t, flight.DepartureTime.Add(-45*time.Minute), res.BoardingPass.BoardingTime)

	// durable state reflects the assignment on both sides
	seat, err := store.Seats().GetByID(ctx, seats[0].ID)
	assert.NoError(t, err)
	assert.True(t, seat.IsBooked)
	assert.Equal(t, booking.ID, seat.BookedBy)

	updated, err := store.Bookings().GetByID(ctx, booking.ID)
	assert.NoError(t, err)
	assert.True(t, updated.IsCheckedIn)
	assert.Equal(t, seats[0].ID, updated.SeatID)

	assert.Equal(t, []string{"12A"}, holds.converted)
	assert.Equal(t, []int64{flight.ID}, cache.invalidated)
	assert.Equal(t, []string{"checkin-events", "notifications"}, producer.topics)
}

// N concurrent check-ins for one seat: exactly one wins, everyone else is
// told the seat is gone, and seat/booking state never disagree.
func TestCheckInService_AssignSeat_ConcurrentSameSeat(t *testing.T) {
	store := repository.NewMemoryStore()
	flight, seats := seedFlight(t, store)

	const agents = 16
	bookings := make([]*domain.Booking, agents)
	for i := 0; i < agents; i++ {
		bookings[i] = seedBooking(t, store, flight.ID, uuidLike(i))
	}

	service := NewCheckInService(store.Bookings(), store.Seats(), store.Flights(), nil, nil, nil, "")

	var wg sync.WaitGroup
	results := make([]*AssignResult, agents)
	for i := 0; i < agents; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := service.AssignSeat(context.Background(), bookings[n].ID, seats[0].ID)
			assert.NoError(t, err)
			results[n] = res
		}(i)
	}
	wg.Wait()

	winners, losers := 0, 0
	var winner *domain.Booking
	for i, res := range results {
		switch res.Outcome {
		case OutcomeAssigned:
			winners++
			winner = bookings[i]
			assert.Equal(t, "12A", res.BoardingPass.SeatNumber)
		case OutcomeSeatUnavailable:
			losers++
		default:
			t.Fatalf("unexpected outcome %s", res.Outcome)
		}
	}
	assert.Equal(t, 1, winners)
	assert.Equal(t, agents-1, losers)

	ctx := context.Background()
	seat, err := store.Seats().GetByID(ctx, seats[0].ID)
	assert.NoError(t, err)
	assert.True(t, seat.IsBooked)
	assert.Equal(t, winner.ID, seat.BookedBy)

	// seat and booking flags agree for every participant
	for _, b := range bookings {
		current, err := store.Bookings().GetByID(ctx, b.ID)
		assert.NoError(t, err)
		assert.Equal(t, current.ID == winner.ID, current.IsCheckedIn)
	}
}

// Two concurrent check-ins for the same booking on different seats: one
// wins its seat, the other observes the booking already checked in and
// gets the winner's pass.
func TestCheckInService_AssignSeat_ConcurrentSameBooking(t *testing.T) {
	store := repository.NewMemoryStore()
	flight, seats := seedFlight(t, store)
	booking := seedBooking(t, store, flight.ID, "X1")

	service := NewCheckInService(store.Bookings(), store.Seats(), store.Flights(), nil, nil, nil, "")

	var wg sync.WaitGroup
	results := make([]*AssignResult, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := service.AssignSeat(context.Background(), booking.ID, seats[n].ID)
			assert.NoError(t, err)
			results[n] = res
		}(i)
	}
	wg.Wait()

	outcomes := map[Outcome]int{}
	for _, res := range results {
		outcomes[res.Outcome]++
		assert.NotNil(t, res.BoardingPass)
	}
	assert.Equal(t, 1, outcomes[OutcomeAssigned])
	assert.Equal(t, 1, outcomes[OutcomeAlreadyCheckedIn])

	// both calls report the same seat: the one that actually won
	assert.Equal(t, results[0].BoardingPass.SeatNumber, results[1].BoardingPass.SeatNumber)

	current, err := store.Bookings().GetByID(context.Background(), booking.ID)
	assert.NoError(t, err)
	assert.True(t, current.IsCheckedIn)

	// the losing seat stays free
	winningSeat := results[0].BoardingPass.SeatNumber
	for _, s := range seats {
		current, err := store.Seats().GetByID(context.Background(), s.ID)
		assert.NoError(t, err)
		assert.Equal(t, s.Number == winningSeat, current.IsBooked)
	}
}

func uuidLike(n int) string {
	return string(rune('a'+n%26)) + "-ref"
}
