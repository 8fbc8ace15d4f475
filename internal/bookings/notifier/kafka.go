package notifier

import (
	"context"
	"fmt"

	"lodge/pkg/kafka"
	"lodge/pkg/middleware"
	"lodge/pkg/model"
)

const (
	EventTypeBookingReceived = "booking.received"
	EventSource              = "booking-api"
)

type publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// KafkaNotifier publishes every accepted booking as a booking.received event
// keyed by the guest's email.
type KafkaNotifier struct {
	producer publisher
}

func NewKafka(producer publisher) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

func (n *KafkaNotifier) Notify(ctx context.Context, record model.BookingRecord) error {
	msg := kafka.NewMessage().
		WithKey(record.Email).
		WithValue(record).
		WithEventType(EventTypeBookingReceived).
		WithSource(EventSource).
		WithCorrelationID(middleware.GetRequestID(ctx)).
		Build()

	if err := n.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish booking event: %w", err)
	}
	return nil
}
