package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/campportal/reservation-payments/internal/models"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

func NewPaymentEventReader(brokers []string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    TopicPaymentRecorded,
		GroupID:  "reservation-payments",
		MinBytes: 10e3,
		MaxBytes: 10e6,
	})
}

// ConsumePaymentEvents recomputes and publishes the summary of every
// reservation that receives a new payment record. It returns when ctx is done.
func (s *ReservationPayments) ConsumePaymentEvents(ctx context.Context, reader MessageReader) {
	s.logger.Info("Started consuming payment events", zap.String("topic", TopicPaymentRecorded))

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("Stopped consuming payment events")
				return
			}
			s.logger.Error("Error reading message from Kafka", zap.Error(err))
			continue
		}

		var event models.PaymentEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			s.logger.Error("Error unmarshaling event", zap.Error(err))
			continue
		}

		if err := s.handlePaymentEvent(ctx, event); err != nil {
			s.logger.Error("Error processing payment event",
				zap.Int64("reservation_id", event.ReservationID),
				zap.String("record_id", event.RecordID),
				zap.Error(err),
			)
		}
	}
}

func (s *ReservationPayments) handlePaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	s.logger.Info("Processing payment event",
		zap.Int64("reservation_id", event.ReservationID),
		zap.String("record_id", event.RecordID),
		zap.String("source", string(event.Source)),
	)

	payments, err := s.Summarize(ctx, event.ReservationID)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Warn("Payment event for unknown reservation", zap.Int64("reservation_id", event.ReservationID))
		return nil
	}
	if err != nil {
		return err
	}
	s.publish(ctx, TopicPaymentSummary, event.ReservationID, payments.Summary)
	return nil
}
