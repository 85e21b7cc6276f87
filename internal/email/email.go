package email

import (
	"context"
	"fmt"

	"github.com/skobelevn/aircheckin/internal/kafka"
)

type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.CheckInEvent) error {
	fmt.Printf("send boarding pass to %s: flight %s %s-%s seat %s, boarding at %s\n",
		event.Email, event.FlightNumber, event.FromAirport, event.ToAirport,
		event.SeatNumber, event.BoardingTime.Format("15:04"))
	return nil
}
