package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/skobelevn/aircheckin/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestMemoryStore_SeatLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	flight := &domain.Flight{Number: "SU100"}
	assert.NoError(t, store.Flights().Create(ctx, flight))

	seats := []domain.Seat{{Number: "1A"}, {Number: "1B"}}
	assert.NoError(t, store.Seats().CreateForFlight(ctx, flight.ID, seats))
	assert.NotZero(t, seats[0].ID)

	found, err := store.Seats().GetByNumber(ctx, flight.ID, "1A")
	assert.NoError(t, err)
	assert.Equal(t, seats[0].ID, found.ID)

	_, err = store.Seats().GetByNumber(ctx, flight.ID, "9Z")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	ok, err := store.Seats().MarkBooked(ctx, found.ID, 42)
	assert.NoError(t, err)
	assert.True(t, ok)

	// booking an already-booked seat must not succeed
	ok, err = store.Seats().MarkBooked(ctx, found.ID, 43)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.Seats().MarkUnbooked(ctx, found.ID)
	assert.NoError(t, err)
	assert.True(t, ok)

	freed, err := store.Seats().GetByID(ctx, found.ID)
	assert.NoError(t, err)
	assert.False(t, freed.IsBooked)
	assert.Zero(t, freed.BookedBy)
}

func TestMemoryStore_MarkBookedSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	flight := &domain.Flight{Number: "SU100"}
	assert.NoError(t, store.Flights().Create(ctx, flight))
	seats := []domain.Seat{{Number: "1A"}}
	assert.NoError(t, store.Seats().CreateForFlight(ctx, flight.ID, seats))

	const callers = 32
	var wg sync.WaitGroup
	wins := make([]bool, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ok, err := store.Seats().MarkBooked(ctx, seats[0].ID, int64(n+1))
			assert.NoError(t, err)
			wins[n] = ok
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, won := range wins {
		if won {
			winners++
		}
	}
	assert.Equal(t, 1, winners)
}

func TestMemoryStore_Bookings(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	booking := &domain.Booking{FlightID: 1, Reference: "X1", PassengerName: "Anna Petrova"}
	assert.NoError(t, store.Bookings().Create(ctx, booking))
	assert.NotZero(t, booking.ID)

	byRef, err := store.Bookings().GetByReference(ctx, "X1")
	assert.NoError(t, err)
	assert.Equal(t, booking.ID, byRef.ID)

	byRef.IsCheckedIn = true
	byRef.SeatID = 7
	ok, err := store.Bookings().Update(ctx, byRef)
	assert.NoError(t, err)
	assert.True(t, ok)

	reread, err := store.Bookings().GetByID(ctx, booking.ID)
	assert.NoError(t, err)
	assert.True(t, reread.IsCheckedIn)
	assert.Equal(t, int64(7), reread.SeatID)

	ok, err = store.Bookings().Update(ctx, &domain.Booking{ID: 999})
	assert.NoError(t, err)
	assert.False(t, ok)
}

// Mutating a returned value must not leak into the store.
func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	flight := &domain.Flight{Number: "SU100"}
	assert.NoError(t, store.Flights().Create(ctx, flight))
	assert.NoError(t, store.Seats().CreateForFlight(ctx, flight.ID, []domain.Seat{{Number: "1A"}}))

	seat, err := store.Seats().GetByNumber(ctx, flight.ID, "1A")
	assert.NoError(t, err)
	seat.IsBooked = true

	fresh, err := store.Seats().GetByID(ctx, seat.ID)
	assert.NoError(t, err)
	assert.False(t, fresh.IsBooked)
}
