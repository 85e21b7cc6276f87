package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/skobelevn/aircheckin/config"
	"github.com/skobelevn/aircheckin/internal/domain"
)

type RedisCache struct {
	client   *redis.Client
	seatsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, seatsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		seatsTTL: seatsTTL,
	}
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.seatsTTL).Err()
}

func (c *RedisCache) GetFlightSeats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	data, err := c.client.Get(ctx, seatsKey(flightID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var seats []domain.Seat
	if err := json.Unmarshal(data, &seats); err != nil {
		return nil, err
	}
	return seats, nil
}

func (c *RedisCache) SetFlightSeats(ctx context.Context, flightID int64, seats []domain.Seat) error {
	payload, err := json.Marshal(seats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, seatsKey(flightID), payload, c.seatsTTL).Err()
}

// InvalidateFlights drops the cached flight list after a flight is
// created or changes status.
func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey()).Err()
}

// InvalidateFlightSeats drops the cached seat map after a durable seat
// mutation so the next read sees the committed state.
func (c *RedisCache) InvalidateFlightSeats(ctx context.Context, flightID int64) error {
	return c.client.Del(ctx, seatsKey(flightID)).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func seatsKey(flightID int64) string {
	return fmt.Sprintf("cache:flight:%d:seats", flightID)
}
