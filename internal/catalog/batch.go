package catalog

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/campportal/reservation-payments/internal/models"
	"github.com/campportal/reservation-payments/internal/telemetry"
)

// Batch memoizes catalog fetches per turnus for the lifetime of one batch of
// reservations. Each turnus is fetched at most once; afterwards the entry is
// read-only and shared by all goroutines of the batch.
type Batch struct {
	source Source
	logger *zap.Logger

	mu      sync.Mutex
	entries map[TurnusKey]*batchEntry
}

type batchEntry struct {
	once    sync.Once
	catalog *Catalog
	err     error
}

func NewBatch(source Source, logger *zap.Logger) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batch{
		source:  source,
		logger:  logger,
		entries: make(map[TurnusKey]*batchEntry),
	}
}

// Catalog returns the catalog of a turnus, fetching it on first use. A failed
// fetch is remembered for the rest of the batch.
func (b *Batch) Catalog(ctx context.Context, key TurnusKey) (*Catalog, error) {
	b.mu.Lock()
	e, ok := b.entries[key]
	if !ok {
		e = &batchEntry{}
		b.entries[key] = e
	}
	b.mu.Unlock()

	e.once.Do(func() {
		e.catalog, e.err = b.source.Fetch(ctx, key)
		if e.err != nil {
			telemetry.CatalogFetches.WithLabelValues("error").Inc()
			return
		}
		telemetry.CatalogFetches.WithLabelValues("ok").Inc()
		if e.catalog == nil {
			e.catalog = &Catalog{}
		}
	})
	return e.catalog, e.err
}

// Resolve fetches the turnus catalog and resolves the reservation's selection.
// Selected ids without any entry are logged and reported in Missing.
func (b *Batch) Resolve(ctx context.Context, res models.Reservation) (Resolution, error) {
	key := TurnusKey{CampID: res.CampID, PropertyID: res.PropertyID}
	c, err := b.Catalog(ctx, key)
	if err != nil {
		return Resolution{}, err
	}

	r := c.Resolve(res.Protections, res.Addons)
	for _, id := range r.Missing {
		telemetry.CatalogMissingEntries.WithLabelValues(string(id.Kind)).Inc()
		b.logger.Warn("Selected component has no catalog entry",
			zap.Int64("reservation_id", res.ID),
			zap.String("turnus", key.String()),
			zap.String("component", id.String()),
		)
	}
	return r, nil
}
