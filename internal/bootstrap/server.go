package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skobelevn/aircheckin/api"
	"github.com/skobelevn/aircheckin/config"
	"github.com/skobelevn/aircheckin/internal/service/bookings"
	"github.com/skobelevn/aircheckin/internal/service/checkin"
	"github.com/skobelevn/aircheckin/internal/service/flights"
	"github.com/skobelevn/aircheckin/internal/ws"
)

type Handlers struct {
	Flights      flights.FlightUseCase
	Bookings     bookings.BookingUseCase
	CheckIn      checkin.CheckInUseCase
	Reservations api.ReservationUseCase
	Hub          *ws.Hub
	Commands     ws.SeatCommands
}

// Run starts the HTTP server and blocks until the context is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, h Handlers) error {
	router := NewRouter(h)

	httpSrv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(h Handlers) *gin.Engine {
	router := gin.Default()

	api.NewFlightHandler(h.Flights).Register(router.Group("/flights"))
	api.NewBookingHandler(h.Bookings).Register(router.Group("/bookings"))
	api.NewCheckInHandler(h.CheckIn).Register(router.Group("/checkin"))
	api.NewReservationHandler(h.Reservations).Register(router.Group("/reservations"))
	api.NewWSHandler(h.Hub, h.Commands).Register(router.Group("/ws"))

	return router
}
