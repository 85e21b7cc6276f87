package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skobelevn/aircheckin/internal/domain"
)

type SeatRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Seat, error)
	GetByNumber(ctx context.Context, flightID int64, number string) (*domain.Seat, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error)
	// MarkBooked flips IsBooked only if the seat is currently free; the
	// bool reports whether the flip happened.
	MarkBooked(ctx context.Context, seatID, bookingID int64) (bool, error)
	MarkUnbooked(ctx context.Context, seatID int64) (bool, error)
	CreateForFlight(ctx context.Context, flightID int64, seats []domain.Seat) error
}

type PGSeatRepository struct {
	db *pgxpool.Pool
}

func NewSeatRepository(db *pgxpool.Pool) SeatRepository {
	return &PGSeatRepository{db: db}
}

const seatColumns = `id, flight_id, number, class, price_cents, is_booked, COALESCE(booked_by, 0)`

func (r *PGSeatRepository) GetByID(ctx context.Context, id int64) (*domain.Seat, error) {
	row := r.db.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE id=$1`, id)
	var s domain.Seat
	if err := row.Scan(&s.ID, &s.FlightID, &s.Number, &s.Class, &s.PriceCents, &s.IsBooked, &s.BookedBy); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGSeatRepository) GetByNumber(ctx context.Context, flightID int64, number string) (*domain.Seat, error) {
	row := r.db.QueryRow(ctx, `SELECT `+seatColumns+` FROM seats WHERE flight_id=$1 AND number=$2`, flightID, number)
	var s domain.Seat
	if err := row.Scan(&s.ID, &s.FlightID, &s.Number, &s.Class, &s.PriceCents, &s.IsBooked, &s.BookedBy); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PGSeatRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT `+seatColumns+` FROM seats WHERE flight_id=$1 ORDER BY id`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.Number, &s.Class, &s.PriceCents, &s.IsBooked, &s.BookedBy); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

func (r *PGSeatRepository) MarkBooked(ctx context.Context, seatID, bookingID int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE seats SET is_booked=true, booked_by=$2 WHERE id=$1 AND is_booked=false`, seatID, bookingID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGSeatRepository) MarkUnbooked(ctx context.Context, seatID int64) (bool, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE seats SET is_booked=false, booked_by=NULL WHERE id=$1 AND is_booked=true`, seatID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGSeatRepository) CreateForFlight(ctx context.Context, flightID int64, seats []domain.Seat) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := range seats {
		if err := tx.QueryRow(ctx, `INSERT INTO seats (flight_id, number, class, price_cents, is_booked)
			VALUES ($1, $2, $3, $4, false)
			RETURNING id`, flightID, seats[i].Number, seats[i].Class, seats[i].PriceCents).
			Scan(&seats[i].ID); err != nil {
			return err
		}
		seats[i].FlightID = flightID
	}

	return tx.Commit(ctx)
}

var _ SeatRepository = (*PGSeatRepository)(nil)
