package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/skobelevn/aircheckin/config"
	"github.com/skobelevn/aircheckin/internal/bootstrap"
	"github.com/skobelevn/aircheckin/internal/cache"
	"github.com/skobelevn/aircheckin/internal/kafka"
	"github.com/skobelevn/aircheckin/internal/repository"
	"github.com/skobelevn/aircheckin/internal/reservation"
	"github.com/skobelevn/aircheckin/internal/service/bookings"
	"github.com/skobelevn/aircheckin/internal/service/checkin"
	"github.com/skobelevn/aircheckin/internal/service/flights"
	"github.com/skobelevn/aircheckin/internal/ws"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.CheckIn.SeatsCacheTTLSeconds)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	flightRepo := repository.NewFlightRepository(pool)
	seatRepo := repository.NewSeatRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)

	hub := ws.NewHub()
	go hub.Run()

	registry := reservation.NewRegistry(seatRepo, hub, time.Duration(cfg.CheckIn.HoldTTLMinutes)*time.Minute)
	go registry.Run(ctx)

	flightService := flights.NewFlightService(flightRepo, seatRepo, registry, redisCache)
	bookingService := bookings.NewBookingService(bookingRepo, flightRepo)
	checkInService := checkin.NewCheckInService(
		bookingRepo,
		seatRepo,
		flightRepo,
		registry,
		redisCache,
		producer,
		cfg.Kafka.CheckInTopic,
		checkin.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	handlers := bootstrap.Handlers{
		Flights:      flightService,
		Bookings:     bookingService,
		CheckIn:      checkInService,
		Reservations: registry,
		Hub:          hub,
		Commands:     registry,
	}

	if err := bootstrap.Run(ctx, cfg, handlers); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
