package githubfs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jimdaga/carspot/internal/models"
	"github.com/jimdaga/carspot/internal/store"
)

const (
	totalsPath  = "totals.csv"
	historyPath = "history.csv"
)

// Pusher hands a mirror write off for delivery. Implementations must return
// quickly: the asynq-backed queue enqueues a task, and the fallback pusher
// runs the HTTP call on its own goroutine. Durable delivery is best-effort
// either way — the in-memory ledger stays authoritative when a push fails.
type Pusher interface {
	PushFile(path string, content []byte) error
}

// Store persists the ledger tables as CSV files mirrored to a GitHub
// repository. Loads read through to the API synchronously at startup;
// saves are fire-and-forget through the Pusher.
type Store struct {
	client *Client
	pusher Pusher
	logger *slog.Logger
}

// New creates a GitHub-mirrored store. If pusher is nil, saves fall back to
// an inline goroutine push.
func New(client *Client, pusher Pusher, logger *slog.Logger) *Store {
	if pusher == nil {
		pusher = &goroutinePusher{client: client, logger: logger}
	}
	return &Store{client: client, pusher: pusher, logger: logger}
}

// LoadTotals fetches and decodes the mirrored totals table. A missing file,
// an unreachable API or a corrupt table all read as a first run.
func (s *Store) LoadTotals(ctx context.Context) ([]models.Spotter, error) {
	data, _, err := s.client.GetFile(ctx, totalsPath)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("Failed to fetch mirrored totals, starting fresh", "error", err.Error())
		}
		return nil, nil
	}

	rows, err := store.DecodeTotalsCSV(data)
	if err != nil {
		s.logger.Warn("Mirrored totals corrupt, starting fresh", "error", err.Error())
		return nil, nil
	}
	return rows, nil
}

// LoadHistory fetches and decodes the mirrored history table.
func (s *Store) LoadHistory(ctx context.Context) ([]models.Sighting, error) {
	data, _, err := s.client.GetFile(ctx, historyPath)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("Failed to fetch mirrored history, starting fresh", "error", err.Error())
		}
		return nil, nil
	}

	rows, err := store.DecodeHistoryCSV(data)
	if err != nil {
		s.logger.Warn("Mirrored history corrupt, starting fresh", "error", err.Error())
		return nil, nil
	}
	return rows, nil
}

// SaveTotals hands the full totals table to the pusher. A push that cannot
// even be scheduled is logged, never propagated: durability is best-effort
// on this backend.
func (s *Store) SaveTotals(ctx context.Context, rows []models.Spotter) error {
	data, err := store.EncodeTotalsCSV(rows)
	if err != nil {
		return err
	}
	if err := s.pusher.PushFile(totalsPath, data); err != nil {
		s.logger.Error("Failed to schedule totals push", "error", err.Error())
	}
	return nil
}

// SaveHistory hands the full history table to the pusher.
func (s *Store) SaveHistory(ctx context.Context, rows []models.Sighting) error {
	data, err := store.EncodeHistoryCSV(rows)
	if err != nil {
		return err
	}
	if err := s.pusher.PushFile(historyPath, data); err != nil {
		s.logger.Error("Failed to schedule history push", "error", err.Error())
	}
	return nil
}

// Close is a no-op; the pusher owns any queue connections.
func (s *Store) Close() error { return nil }

// goroutinePusher pushes directly to the contents API off the request path.
// Used when no Redis queue is configured.
type goroutinePusher struct {
	client *Client
	logger *slog.Logger
}

func (p *goroutinePusher) PushFile(path string, content []byte) error {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := p.client.PutFile(ctx, path, content, "Update "+path); err != nil {
			p.logger.Error("Mirror push failed", "path", path, "error", err.Error())
		}
	}()
	return nil
}
