// Package gormstore persists the ledger tables in a relational database
// through GORM: Postgres for a served deployment, or an embedded SQLite
// file.
package gormstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jimdaga/carspot/internal/database"
	"github.com/jimdaga/carspot/internal/models"
	"gorm.io/gorm"
)

// totalsRow is the totals table schema owned by this backend.
type totalsRow struct {
	Name   string `gorm:"primaryKey;size:64"`
	Count  int    `gorm:"not null;default:0"`
	Streak int    `gorm:"not null;default:0"`
}

func (totalsRow) TableName() string { return "totals" }

// historyRow is the history table schema. Seq preserves the ledger's
// newest-first ordering across save/load: rows are inserted oldest first,
// so ordering by seq descending reproduces the in-memory sequence even when
// timestamps collide at second resolution.
type historyRow struct {
	Seq        uint      `gorm:"primaryKey;autoIncrement"`
	SightingID string    `gorm:"uniqueIndex;size:36"`
	Timestamp  time.Time `gorm:"not null;index"`
	Spotter    string    `gorm:"not null;size:64;index"`
	Latitude   *float64
	Longitude  *float64
}

func (historyRow) TableName() string { return "history" }

// Store is the relational Store backend.
type Store struct {
	db *gorm.DB
}

// Open connects to the database named by databaseURL and brings the schema
// up to date: embedded SQL migrations on Postgres, AutoMigrate on SQLite.
func Open(databaseURL string) (*Store, error) {
	db, err := database.Init(databaseURL)
	if err != nil {
		return nil, err
	}

	if database.IsPostgres(databaseURL) {
		if err := database.RunMigrations(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	} else {
		if err := db.AutoMigrate(&totalsRow{}, &historyRow{}); err != nil {
			return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
		}
	}

	return &Store{db: db}, nil
}

// NewWithDB wraps an already-opened connection. Used by tests.
func NewWithDB(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&totalsRow{}, &historyRow{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// LoadTotals reads the totals table. An empty table is a first run.
func (s *Store) LoadTotals(ctx context.Context) ([]models.Spotter, error) {
	var rows []totalsRow
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}

	out := make([]models.Spotter, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Spotter{Name: row.Name, Count: row.Count, Streak: row.Streak})
	}
	return out, nil
}

// LoadHistory reads the history table newest first.
func (s *Store) LoadHistory(ctx context.Context) ([]models.Sighting, error) {
	var rows []historyRow
	if err := s.db.WithContext(ctx).Order("seq DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	out := make([]models.Sighting, 0, len(rows))
	for _, row := range rows {
		out = append(out, models.Sighting{
			ID:        row.SightingID,
			Timestamp: row.Timestamp,
			Spotter:   row.Spotter,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
		})
	}
	return out, nil
}

// SaveTotals replaces the totals table with the given rows in one
// transaction.
func (s *Store) SaveTotals(ctx context.Context, rows []models.Spotter) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&totalsRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear totals: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		insert := make([]totalsRow, 0, len(rows))
		for _, row := range rows {
			insert = append(insert, totalsRow{Name: row.Name, Count: row.Count, Streak: row.Streak})
		}
		if err := tx.Create(&insert).Error; err != nil {
			return fmt.Errorf("failed to insert totals: %w", err)
		}
		return nil
	})
}

// SaveHistory replaces the history table. Rows arrive newest first and are
// inserted in reverse so seq ascends from oldest to newest.
func (s *Store) SaveHistory(ctx context.Context, rows []models.Sighting) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&historyRow{}).Error; err != nil {
			return fmt.Errorf("failed to clear history: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		insert := make([]historyRow, 0, len(rows))
		for i := len(rows) - 1; i >= 0; i-- {
			row := rows[i]
			insert = append(insert, historyRow{
				SightingID: row.ID,
				Timestamp:  row.Timestamp,
				Spotter:    row.Spotter,
				Latitude:   row.Latitude,
				Longitude:  row.Longitude,
			})
		}
		if err := tx.Create(&insert).Error; err != nil {
			return fmt.Errorf("failed to insert history: %w", err)
		}
		return nil
	})
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return database.Close(s.db)
}
