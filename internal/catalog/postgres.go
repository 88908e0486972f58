package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/campportal/reservation-payments/internal/models"
)

const (
	queryGeneralProtections = `SELECT id, name, price FROM protections`
	queryTurnusProtections  = `
		SELECT tp.protection_id, COALESCE(tp.name, p.name, ''), tp.price
		FROM turnus_protections tp
		LEFT JOIN protections p ON p.id = tp.protection_id
		WHERE tp.camp_id = $1 AND tp.property_id = $2`
	queryGeneralAddons = `SELECT id, name, price FROM addons`
	queryTurnusAddons  = `
		SELECT ta.addon_id, COALESCE(ta.name, a.name, ''), ta.price
		FROM turnus_addons ta
		LEFT JOIN addons a ON a.id = ta.addon_id
		WHERE ta.camp_id = $1 AND ta.property_id = $2`
)

// PostgresSource reads price lists straight from the booking database.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

func (s *PostgresSource) Fetch(ctx context.Context, key TurnusKey) (*Catalog, error) {
	var (
		c   Catalog
		err error
	)
	if c.TurnusProtections, err = s.load(ctx, queryTurnusProtections, key.CampID, key.PropertyID); err != nil {
		return nil, fmt.Errorf("load turnus protections %s: %w", key, err)
	}
	if c.GeneralProtections, err = s.load(ctx, queryGeneralProtections); err != nil {
		return nil, fmt.Errorf("load protections: %w", err)
	}
	if c.TurnusAddons, err = s.load(ctx, queryTurnusAddons, key.CampID, key.PropertyID); err != nil {
		return nil, fmt.Errorf("load turnus addons %s: %w", key, err)
	}
	if c.GeneralAddons, err = s.load(ctx, queryGeneralAddons); err != nil {
		return nil, fmt.Errorf("load addons: %w", err)
	}
	return &c, nil
}

func (s *PostgresSource) load(ctx context.Context, query string, args ...interface{}) (map[int64]models.CatalogEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]models.CatalogEntry)
	for rows.Next() {
		var e models.CatalogEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Price); err != nil {
			return nil, err
		}
		out[e.ID] = e
	}
	return out, rows.Err()
}
