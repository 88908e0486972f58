package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/campportal/reservation-payments/internal/catalog"
	"github.com/campportal/reservation-payments/internal/engine"
	"github.com/campportal/reservation-payments/internal/interfaces"
	"github.com/campportal/reservation-payments/internal/models"
	"github.com/campportal/reservation-payments/internal/telemetry"
)

const (
	TopicPaymentRecorded    = "payment.recorded"
	TopicPaymentSummary     = "reservation.payment.summary"
	TopicItemStateChanged   = "reservation.item.state.changed"
	defaultBatchConcurrency = 8
)

// MessageWriter is the part of *kafka.Writer the service publishes through.
// The writer must not have a fixed topic; every message names its own.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Deps struct {
	Reservations interfaces.ReservationRepository
	Records      interfaces.PaymentRecordRepository
	States       interfaces.ComponentStateRepository
	Catalog      catalog.Source
	Engine       *engine.Engine
	Locker       Locker
	Events       MessageWriter
	Concurrency  int
	Logger       *zap.Logger
}

// ReservationPayments loads reservations with their payment records, runs the
// allocation engine on them and applies back-office item actions.
type ReservationPayments struct {
	reservations interfaces.ReservationRepository
	records      interfaces.PaymentRecordRepository
	states       interfaces.ComponentStateRepository
	catalog      catalog.Source
	engine       *engine.Engine
	locker       Locker
	events       MessageWriter
	concurrency  int
	logger       *zap.Logger
}

func NewReservationPayments(d Deps) *ReservationPayments {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Concurrency < 1 {
		d.Concurrency = defaultBatchConcurrency
	}
	return &ReservationPayments{
		reservations: d.Reservations,
		records:      d.Records,
		states:       d.States,
		catalog:      d.Catalog,
		engine:       d.Engine,
		locker:       d.Locker,
		events:       d.Events,
		concurrency:  d.Concurrency,
		logger:       d.Logger,
	}
}

// Summarize derives the payment view of a single reservation.
func (s *ReservationPayments) Summarize(ctx context.Context, reservationID int64) (*models.ReservationPayments, error) {
	return s.compute(ctx, catalog.NewBatch(s.catalog, s.logger), reservationID)
}

// BatchResult is the outcome for one reservation of a batch. Error is set
// instead of Payments when the reservation does not exist.
type BatchResult struct {
	ReservationID int64                       `json:"reservation_id"`
	Payments      *models.ReservationPayments `json:"payments,omitempty"`
	Error         string                      `json:"error,omitempty"`
}

// SummarizeBatch derives the payment views of many reservations in parallel.
// All reservations share one catalog memo, so each turnus is fetched once.
// Unknown reservations are reported per result; any other failure aborts the
// whole batch.
func (s *ReservationPayments) SummarizeBatch(ctx context.Context, reservationIDs []int64) ([]BatchResult, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "ReservationPayments.SummarizeBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(reservationIDs)))

	batch := catalog.NewBatch(s.catalog, s.logger)
	results := make([]BatchResult, len(reservationIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range reservationIDs {
		i, id := i, id
		g.Go(func() error {
			results[i].ReservationID = id
			p, err := s.compute(gctx, batch, id)
			switch {
			case errors.Is(err, models.ErrNotFound):
				results[i].Error = err.Error()
				return nil
			case err != nil:
				return err
			}
			results[i].Payments = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return results, nil
}

func (s *ReservationPayments) compute(ctx context.Context, batch *catalog.Batch, reservationID int64) (*models.ReservationPayments, error) {
	ctx, span := telemetry.Tracer.Start(ctx, "ReservationPayments.compute")
	defer span.End()
	span.SetAttributes(attribute.Int64("reservation.id", reservationID))

	in, err := s.load(ctx, batch, reservationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	out := s.engine.Compute(*in)
	telemetry.SummariesComputed.WithLabelValues(string(out.Summary.OverallStatus)).Inc()
	span.SetAttributes(
		attribute.String("summary.status", string(out.Summary.OverallStatus)),
		attribute.Int("summary.warnings", len(out.Summary.Warnings)),
	)
	if len(out.Summary.Warnings) > 0 {
		s.logger.Debug("Summary computed with warnings",
			zap.Int64("reservation_id", reservationID),
			zap.Strings("warnings", out.Summary.Warnings),
		)
	}
	return &out, nil
}

func (s *ReservationPayments) load(ctx context.Context, batch *catalog.Batch, reservationID int64) (*engine.Input, error) {
	res, err := s.reservations.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	resolution, err := batch.Resolve(ctx, *res)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog of reservation %d: %w", reservationID, err)
	}
	gateway, err := s.records.GatewayTransactions(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	manual, err := s.records.ManualPayments(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	states, err := s.states.ListStates(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	return &engine.Input{
		Reservation: *res,
		Catalog:     resolution.Entries,
		Missing:     resolution.Missing,
		Gateway:     gateway,
		Manual:      manual,
		States:      states,
	}, nil
}
