// Package store defines the persistence contract shared by the CSV, GitHub
// mirror and database backends.
package store

import (
	"context"

	"github.com/jimdaga/carspot/internal/models"
)

// Store is the persistence contract consumed by the ledger. Two tables are
// persisted: spotter totals and the sighting history (newest first). Saves
// have full-replace semantics: every call writes the complete current table,
// never an append.
//
// A backend with no prior state returns empty slices, not an error; the
// ledger treats that as a first run and seeds zeroed totals for the
// configured spotters.
type Store interface {
	LoadTotals(ctx context.Context) ([]models.Spotter, error)
	LoadHistory(ctx context.Context) ([]models.Sighting, error)
	SaveTotals(ctx context.Context, rows []models.Spotter) error
	SaveHistory(ctx context.Context, rows []models.Sighting) error
	Close() error
}
