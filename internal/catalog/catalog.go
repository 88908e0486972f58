// Package catalog resolves names and prices of protections and add-ons for a
// camp turnus, preferring turnus-specific overrides over the general catalog.
package catalog

import (
	"context"
	"fmt"

	"github.com/campportal/reservation-payments/internal/models"
)

// TurnusKey identifies the scheduled edition of a camp that prices apply to.
type TurnusKey struct {
	CampID     int64 `json:"camp_id"`
	PropertyID int64 `json:"property_id"`
}

func (k TurnusKey) String() string {
	return fmt.Sprintf("%d:%d", k.CampID, k.PropertyID)
}

// Catalog holds every price list relevant to one turnus.
type Catalog struct {
	TurnusProtections  map[int64]models.CatalogEntry `json:"turnus_protections"`
	GeneralProtections map[int64]models.CatalogEntry `json:"general_protections"`
	TurnusAddons       map[int64]models.CatalogEntry `json:"turnus_addons"`
	GeneralAddons      map[int64]models.CatalogEntry `json:"general_addons"`
}

// Source loads the catalog of a turnus from wherever it lives.
type Source interface {
	Fetch(ctx context.Context, key TurnusKey) (*Catalog, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, key TurnusKey) (*Catalog, error)

func (f SourceFunc) Fetch(ctx context.Context, key TurnusKey) (*Catalog, error) {
	return f(ctx, key)
}

// Resolution maps selected components to their entries. Selected ids with no
// entry anywhere are listed in Missing and left out of Entries.
type Resolution struct {
	Entries map[models.ComponentID]models.CatalogEntry
	Missing []models.ComponentID
}

// Resolve looks up the selected protections and add-ons.
func (c *Catalog) Resolve(protections, addons []int64) Resolution {
	r := Resolution{Entries: make(map[models.ComponentID]models.CatalogEntry, len(protections)+len(addons))}
	lookup := func(ids []int64, turnus, general map[int64]models.CatalogEntry, mk func(int64) models.ComponentID) {
		for _, ref := range ids {
			id := mk(ref)
			if _, done := r.Entries[id]; done {
				continue
			}
			if e, ok := turnus[ref]; ok {
				r.Entries[id] = e
				continue
			}
			if e, ok := general[ref]; ok {
				r.Entries[id] = e
				continue
			}
			if !models.ContainsComponent(r.Missing, id) {
				r.Missing = append(r.Missing, id)
			}
		}
	}
	lookup(protections, c.TurnusProtections, c.GeneralProtections, models.ProtectionComponent)
	lookup(addons, c.TurnusAddons, c.GeneralAddons, models.AddonComponent)
	return r
}
