package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/campportal/reservation-payments/internal/engine"
	"github.com/campportal/reservation-payments/internal/models"
	"github.com/campportal/reservation-payments/internal/telemetry"
)

const itemLockTTL = 30 * time.Second

// ApplyAction performs a back-office action on one component of a
// reservation and returns the recomputed payment view.
func (s *ReservationPayments) ApplyAction(ctx context.Context, reservationID int64, id models.ComponentID, action models.ItemAction) (*models.ReservationPayments, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "ReservationPayments.ApplyAction")
	defer span.End()

	result := "error"
	defer func() { telemetry.ItemTransitions.WithLabelValues(string(action), result).Inc() }()

	if !action.IsValid() {
		result = "rejected"
		return nil, fmt.Errorf("%w: unknown action %q", models.ErrInvalidInput, action)
	}
	if !engine.Actionable(id) {
		result = "rejected"
		return nil, fmt.Errorf("%w: %s cannot be changed on its own", models.ErrInvalidComponent, id)
	}

	lockKey := fmt.Sprintf("reservation_item_lock:%d:%s", reservationID, id)
	locked, err := s.locker.Acquire(ctx, lockKey, itemLockTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", lockKey, err)
	}
	if !locked {
		result = "rejected"
		return nil, fmt.Errorf("%w: %s of reservation %d", models.ErrLocked, id, reservationID)
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.Warn("Failed to release item lock", zap.String("key", lockKey), zap.Error(err))
		}
	}()

	current, err := s.Summarize(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	item := findItem(current.Items, id)
	if item == nil {
		result = "rejected"
		return nil, fmt.Errorf("%w: %s is not part of reservation %d", models.ErrNotFound, id, reservationID)
	}

	from, to, err := engine.Transition(item.Status, action)
	if err != nil {
		result = "rejected"
		return nil, err
	}

	refund := decimal.Zero
	if to == models.LifecycleReturned {
		refund = item.Amount
	}

	rows, err := s.states.TransitionState(ctx, reservationID, id, from, to, refund)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		result = "rejected"
		return nil, fmt.Errorf("%w: %s of reservation %d changed concurrently", models.ErrInvalidTransition, id, reservationID)
	}
	result = "ok"

	s.logger.Info("Component state transition",
		zap.Int64("reservation_id", reservationID),
		zap.String("component_id", id.String()),
		zap.String("action", string(action)),
		zap.String("from_state", string(from)),
		zap.String("to_state", string(to)),
	)

	s.publish(ctx, TopicItemStateChanged, reservationID, models.StateChangedEvent{
		ReservationID: reservationID,
		ComponentID:   id,
		Action:        action,
		State:         to,
		PreviousState: from,
		Timestamp:     time.Now().UTC(),
	})

	updated, err := s.Summarize(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, TopicPaymentSummary, reservationID, updated.Summary)
	return updated, nil
}

// publish writes an event keyed by reservation. Failures are logged only.
func (s *ReservationPayments) publish(ctx context.Context, topic string, reservationID int64, v interface{}) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode event", zap.String("topic", topic), zap.Error(err))
		return
	}
	err = s.events.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(strconv.FormatInt(reservationID, 10)),
		Value: data,
	})
	if err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("topic", topic),
			zap.Int64("reservation_id", reservationID),
			zap.Error(err),
		)
	}
}

func findItem(items []models.PaymentItem, id models.ComponentID) *models.PaymentItem {
	for i := range items {
		if items[i].ID == id {
			return &items[i]
		}
	}
	return nil
}
