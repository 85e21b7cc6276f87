package reservation

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/skobelevn/aircheckin/internal/repository"
)

var (
	ErrSeatNotFound        = errors.New("seat not found")
	ErrSeatAlreadyBooked   = errors.New("seat is already booked")
	ErrSeatAlreadyReserved = errors.New("seat is reserved by another passenger")
)

// Broadcaster fans hold-state transitions out to the subscribers of a
// flight. Failures are never broadcast; they go back to the requester.
type Broadcaster interface {
	BroadcastSeatReserved(flightID int64, seatNumber, bookingRef, holderID string)
	BroadcastReservationReleased(flightID int64, seatNumber string)
	BroadcastSeatBooked(flightID int64, seatNumber, bookingRef string)
}

// HoldInfo describes an active soft hold on a seat.
type HoldInfo struct {
	HolderID   string
	BookingRef string
	ReservedAt time.Time
}

// Registry keeps the process-wide table of soft holds: flight id -> seat
// number -> hold. Holds are throwaway state; a restart drops them all with
// no correctness impact because the durable IsBooked flag stays
// authoritative. The registry is constructed and injected explicitly, one
// per service instance.
type Registry struct {
	seats   repository.SeatRepository
	bc      Broadcaster
	holdTTL time.Duration

	mu    sync.RWMutex
	holds map[int64]map[string]HoldInfo
}

func NewRegistry(seats repository.SeatRepository, bc Broadcaster, holdTTL time.Duration) *Registry {
	return &Registry{
		seats:   seats,
		bc:      bc,
		holdTTL: holdTTL,
		holds:   make(map[int64]map[string]HoldInfo),
	}
}

// Reserve places a soft hold for holderID. Re-reserving a seat you already
// hold refreshes the timestamp and is not an error. The durable-state check
// runs before the table lock is taken; the mutex only ever guards map
// operations, never I/O.
func (r *Registry) Reserve(ctx context.Context, flightID int64, seatNumber, bookingRef, holderID string) error {
	seat, err := r.seats.GetByNumber(ctx, flightID, seatNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrSeatNotFound
		}
		return err
	}
	if seat.IsBooked {
		return ErrSeatAlreadyBooked
	}

	r.mu.Lock()
	flightHolds := r.holds[flightID]
	if flightHolds == nil {
		flightHolds = make(map[string]HoldInfo)
		r.holds[flightID] = flightHolds
	}
	if existing, ok := flightHolds[seatNumber]; ok && existing.HolderID != holderID {
		r.mu.Unlock()
		return ErrSeatAlreadyReserved
	}
	flightHolds[seatNumber] = HoldInfo{
		HolderID:   holderID,
		BookingRef: bookingRef,
		ReservedAt: time.Now(),
	}
	r.mu.Unlock()

	r.bc.BroadcastSeatReserved(flightID, seatNumber, bookingRef, holderID)
	return nil
}

// Release removes the hold if present. A missing hold is a no-op, not an
// error, and produces no broadcast.
func (r *Registry) Release(ctx context.Context, flightID int64, seatNumber string) error {
	r.mu.Lock()
	_, ok := r.holds[flightID][seatNumber]
	if ok {
		delete(r.holds[flightID], seatNumber)
		if len(r.holds[flightID]) == 0 {
			delete(r.holds, flightID)
		}
	}
	r.mu.Unlock()

	if ok {
		r.bc.BroadcastReservationReleased(flightID, seatNumber)
	}
	return nil
}

// Holds returns a snapshot of the active holds for a flight.
func (r *Registry) Holds(flightID int64) map[string]HoldInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]HoldInfo, len(r.holds[flightID]))
	for seat, h := range r.holds[flightID] {
		snapshot[seat] = h
	}
	return snapshot
}

// OnHolderDisconnected releases every hold owned by the holder across all
// flights, broadcasting each release. Safe to call concurrently with
// Reserve and Release for unrelated holders.
func (r *Registry) OnHolderDisconnected(holderID string) {
	type released struct {
		flightID   int64
		seatNumber string
	}

	r.mu.Lock()
	var dropped []released
	for flightID, flightHolds := range r.holds {
		for seatNumber, h := range flightHolds {
			if h.HolderID == holderID {
				delete(flightHolds, seatNumber)
				dropped = append(dropped, released{flightID, seatNumber})
			}
		}
		if len(flightHolds) == 0 {
			delete(r.holds, flightID)
		}
	}
	r.mu.Unlock()

	for _, d := range dropped {
		r.bc.BroadcastReservationReleased(d.flightID, d.seatNumber)
	}
	if len(dropped) > 0 {
		log.Printf("reservation: holder %s disconnected, released %d holds", holderID, len(dropped))
	}
}

// ConvertToBooked drops any hold on the seat and announces the permanent
// assignment. Called by the check-in service right after its commit so a
// hold never survives alongside IsBooked=true.
func (r *Registry) ConvertToBooked(flightID int64, seatNumber, bookingRef string) {
	r.mu.Lock()
	delete(r.holds[flightID], seatNumber)
	if len(r.holds[flightID]) == 0 {
		delete(r.holds, flightID)
	}
	r.mu.Unlock()

	r.bc.BroadcastSeatBooked(flightID, seatNumber, bookingRef)
}

// Run sweeps expired holds until the context is canceled. Disconnect
// cleanup already bounds hold lifetimes; the sweep is a backstop for
// sessions that linger without releasing, and its broadcasts are identical
// to an explicit release. A zero TTL disables it.
func (r *Registry) Run(ctx context.Context) {
	if r.holdTTL <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.expireStale(time.Now().Add(-r.holdTTL))
		case <-ctx.Done():
			return
		}
	}
}

func (r *Registry) expireStale(cutoff time.Time) {
	type released struct {
		flightID   int64
		seatNumber string
	}

	r.mu.Lock()
	var dropped []released
	for flightID, flightHolds := range r.holds {
		for seatNumber, h := range flightHolds {
			if h.ReservedAt.Before(cutoff) {
				delete(flightHolds, seatNumber)
				dropped = append(dropped, released{flightID, seatNumber})
			}
		}
		if len(flightHolds) == 0 {
			delete(r.holds, flightID)
		}
	}
	r.mu.Unlock()

	for _, d := range dropped {
		r.bc.BroadcastReservationReleased(d.flightID, d.seatNumber)
	}
	if len(dropped) > 0 {
		log.Printf("reservation: expired %d stale holds", len(dropped))
	}
}
