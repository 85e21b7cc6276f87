package repository

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skobelevn/aircheckin/internal/domain"
)

type BookingRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
	Create(ctx context.Context, booking *domain.Booking) error
	// Update persists seat assignment and check-in state; the bool reports
	// whether the row existed.
	Update(ctx context.Context, booking *domain.Booking) (bool, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, flight_id, reference, passenger_name, passport_number, email, COALESCE(seat_id, 0), is_checked_in, COALESCE(checked_in_at, 'epoch'::timestamptz), created_at, updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.FlightID, &b.Reference, &b.PassengerName, &b.PassportNumber, &b.Email, &b.SeatID, &b.IsCheckedIn, &b.CheckedInAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, reference))
}

func (r *PGBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return r.db.QueryRow(ctx, `INSERT INTO bookings (flight_id, reference, passenger_name, passport_number, email)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		booking.FlightID, booking.Reference, booking.PassengerName, booking.PassportNumber, booking.Email).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) Update(ctx context.Context, booking *domain.Booking) (bool, error) {
	seatID := sql.NullInt64{Int64: booking.SeatID, Valid: booking.SeatID != 0}
	checkedInAt := sql.NullTime{Time: booking.CheckedInAt, Valid: !booking.CheckedInAt.IsZero()}
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET seat_id=$2, is_checked_in=$3, checked_in_at=$4, updated_at=now() WHERE id=$1`,
		booking.ID, seatID, booking.IsCheckedIn, checkedInAt)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
