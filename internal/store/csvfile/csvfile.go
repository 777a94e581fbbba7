// Package csvfile persists the ledger tables as two CSV files on local
// disk, the original flat-file backend.
package csvfile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jimdaga/carspot/internal/models"
	"github.com/jimdaga/carspot/internal/store"
)

const (
	totalsFile  = "totals.csv"
	historyFile = "history.csv"
)

// Store reads and writes totals.csv and history.csv under a data directory.
type Store struct {
	totalsPath  string
	historyPath string
	logger      *slog.Logger
}

// New creates a CSV file store rooted at dataDir. The directory is created
// if missing.
func New(dataDir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{
		totalsPath:  filepath.Join(dataDir, totalsFile),
		historyPath: filepath.Join(dataDir, historyFile),
		logger:      logger,
	}, nil
}

// LoadTotals reads the totals table. A missing or unparseable file is a
// first run, not an error.
func (s *Store) LoadTotals(ctx context.Context) ([]models.Spotter, error) {
	data, err := os.ReadFile(s.totalsPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("Totals file unreadable, starting fresh", "path", s.totalsPath, "error", err.Error())
		}
		return nil, nil
	}

	rows, err := store.DecodeTotalsCSV(data)
	if err != nil {
		s.logger.Warn("Totals file corrupt, starting fresh", "path", s.totalsPath, "error", err.Error())
		return nil, nil
	}
	return rows, nil
}

// LoadHistory reads the history table, newest first. A missing or
// unparseable file yields an empty history.
func (s *Store) LoadHistory(ctx context.Context) ([]models.Sighting, error) {
	data, err := os.ReadFile(s.historyPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("History file unreadable, starting fresh", "path", s.historyPath, "error", err.Error())
		}
		return nil, nil
	}

	rows, err := store.DecodeHistoryCSV(data)
	if err != nil {
		s.logger.Warn("History file corrupt, starting fresh", "path", s.historyPath, "error", err.Error())
		return nil, nil
	}
	return rows, nil
}

// SaveTotals replaces the totals file with the full current table.
func (s *Store) SaveTotals(ctx context.Context, rows []models.Spotter) error {
	data, err := store.EncodeTotalsCSV(rows)
	if err != nil {
		return fmt.Errorf("failed to encode totals: %w", err)
	}
	if err := os.WriteFile(s.totalsPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write totals file: %w", err)
	}
	return nil
}

// SaveHistory replaces the history file with the full current table.
func (s *Store) SaveHistory(ctx context.Context, rows []models.Sighting) error {
	data, err := store.EncodeHistoryCSV(rows)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.WriteFile(s.historyPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *Store) Close() error { return nil }
