package bookings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/skobelevn/aircheckin/internal/domain"
	"github.com/skobelevn/aircheckin/internal/repository"
)

type BookingUseCase interface {
	Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	GetByReference(ctx context.Context, reference string) (*domain.Booking, error)
}

type CreateBookingInput struct {
	FlightID       int64  `json:"flight_id"`
	PassengerName  string `json:"passenger_name"`
	PassportNumber string `json:"passport_number"`
	Email          string `json:"email"`
}

type BookingService struct {
	bookings repository.BookingRepository
	flights  repository.FlightRepository
}

func NewBookingService(bookings repository.BookingRepository, flights repository.FlightRepository) *BookingService {
	return &BookingService{bookings: bookings, flights: flights}
}

// Create issues the booking reference a passenger uses for seat selection
// and check-in.
func (s *BookingService) Create(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if input.PassengerName == "" {
		return nil, errors.New("passenger name is required")
	}
	if input.PassportNumber == "" {
		return nil, errors.New("passport number is required")
	}

	if _, err := s.flights.GetByID(ctx, input.FlightID); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		FlightID:       input.FlightID,
		Reference:      uuid.NewString(),
		PassengerName:  input.PassengerName,
		PassportNumber: input.PassportNumber,
		Email:          input.Email,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *BookingService) GetByReference(ctx context.Context, reference string) (*domain.Booking, error) {
	return s.bookings.GetByReference(ctx, reference)
}

var _ BookingUseCase = (*BookingService)(nil)
