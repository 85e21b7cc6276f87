package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skobelevn/aircheckin/internal/domain"
)

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	Create(ctx context.Context, flight *domain.Flight) error
	UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) error
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

const flightColumns = `id, number, from_airport, to_airport, departure_time, arrival_time, status, seat_rows, seat_columns, price_cents, created_at, updated_at`

func (r *PGFlightRepository) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.Number, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime, &f.Status, &f.SeatRows, &f.SeatColumns, &f.PriceCents, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.Number, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime, &f.Status, &f.SeatRows, &f.SeatColumns, &f.PriceCents, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	flight.Status = domain.FlightStatusScheduled
	return r.db.QueryRow(ctx, `INSERT INTO flights (number, from_airport, to_airport, departure_time, arrival_time, status, seat_rows, seat_columns, price_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		flight.Number, flight.FromAirport, flight.ToAirport, flight.DepartureTime, flight.ArrivalTime, flight.Status, flight.SeatRows, flight.SeatColumns, flight.PriceCents).
		Scan(&flight.ID, &flight.CreatedAt, &flight.UpdatedAt)
}

func (r *PGFlightRepository) UpdateStatus(ctx context.Context, id int64, status domain.FlightStatus) error {
	_, err := r.db.Exec(ctx, `UPDATE flights SET status=$2, updated_at=now() WHERE id=$1`, id, status)
	return err
}

var _ FlightRepository = (*PGFlightRepository)(nil)
