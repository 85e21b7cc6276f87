package repository

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/skobelevn/aircheckin/internal/domain"
)

// In-memory variants of the repositories, guarded by a shared mutex.
// Injected in place of the pg implementations for tests and local runs;
// MarkBooked and Update are check-and-set under the mutex so they give
// the same atomicity the SQL versions get from conditional UPDATEs.

type MemoryStore struct {
	mu       sync.Mutex
	flights  map[int64]domain.Flight
	seats    map[int64]domain.Seat
	bookings map[int64]domain.Booking
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		flights:  make(map[int64]domain.Flight),
		seats:    make(map[int64]domain.Seat),
		bookings: make(map[int64]domain.Booking),
	}
}

func (m *MemoryStore) Seats() SeatRepository       { return (*MemorySeatRepository)(m) }
func (m *MemoryStore) Bookings() BookingRepository { return (*MemoryBookingRepository)(m) }
func (m *MemoryStore) Flights() FlightRepository   { return (*MemoryFlightRepository)(m) }

func (m *MemoryStore) nextIDLocked() int64 {
	m.nextID++
	return m.nextID
}

type MemorySeatRepository MemoryStore

func (r *MemorySeatRepository) GetByID(ctx context.Context, id int64) (*domain.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.seats[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (r *MemorySeatRepository) GetByNumber(ctx context.Context, flightID int64, number string) (*domain.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.seats {
		if s.FlightID == flightID && s.Number == number {
			return &s, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemorySeatRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seats := make([]domain.Seat, 0)
	for _, s := range r.seats {
		if s.FlightID == flightID {
			seats = append(seats, s)
		}
	}
	return seats, nil
}

func (r *MemorySeatRepository) MarkBooked(ctx context.Context, seatID, bookingID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.seats[seatID]
	if !ok || s.IsBooked {
		return false, nil
	}
	s.IsBooked = true
	s.BookedBy = bookingID
	r.seats[seatID] = s
	return true, nil
}

func (r *MemorySeatRepository) MarkUnbooked(ctx context.Context, seatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.seats[seatID]
	if !ok || !s.IsBooked {
		return false, nil
	}
	s.IsBooked = false
	s.BookedBy = 0
	r.seats[seatID] = s
	return true, nil
}

func (r *MemorySeatRepository) CreateForFlight(ctx context.Context, flightID int64, seats []domain.Seat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range seats {
		seats[i].ID = (*MemoryStore)(r).nextIDLocked()
		seats[i].FlightID = flightID
		r.seats[seats[i].ID] = seats[i]
	}
	return nil
}

type MemoryBookingRepository MemoryStore

func (r *MemoryBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &b, nil
}

func (r *MemoryBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if b.Reference == reference {
			return &b, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *MemoryBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	booking.ID = (*MemoryStore)(r).nextIDLocked()
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = booking.CreatedAt
	r.bookings[booking.ID] = *booking
	return nil
}

func (r *MemoryBookingRepository) Update(ctx context.Context, booking *domain.Booking) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bookings[booking.ID]; !ok {
		return false, nil
	}
	booking.UpdatedAt = time.Now()
	r.bookings[booking.ID] = *booking
	return true, nil
}

type MemoryFlightRepository MemoryStore

func (r *MemoryFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flights := make([]domain.Flight, 0, len(r.flights))
	for _, f := range r.flights {
		flights = append(flights, f)
	}
	return flights, nil
}

func (r *MemoryFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &f, nil
}

func (r *MemoryFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	flight.ID = (*MemoryStore)(r).nextIDLocked()
	flight.Status = domain.FlightStatusScheduled
	flight.CreatedAt = time.Now()
	flight.UpdatedAt = flight.CreatedAt
	r.flights[flight.ID] = *flight
	return nil
}

func (r *MemoryFlightRepository) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[id]
	if !ok {
		return pgx.ErrNoRows
	}
	f.Status = status
	f.UpdatedAt = time.Now()
	r.flights[id] = f
	return nil
}

var (
	_ SeatRepository    = (*MemorySeatRepository)(nil)
	_ BookingRepository = (*MemoryBookingRepository)(nil)
	_ FlightRepository  = (*MemoryFlightRepository)(nil)
)
