// Package ledger holds the authoritative in-memory state for a car spotting
// session: per-spotter totals and streaks plus the ordered sighting history,
// and the mutations that keep the three mutually consistent.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jimdaga/carspot/internal/models"
	"github.com/jimdaga/carspot/internal/store"
)

var (
	// ErrUnknownSpotter is returned when a sighting names a spotter outside
	// the configured set.
	ErrUnknownSpotter = errors.New("unknown spotter")

	// ErrUnknownSighting is returned when a delete names a sighting id that
	// is not in the current history (already deleted, or never existed).
	ErrUnknownSighting = errors.New("unknown sighting")
)

// Coordinates is an optional geotag attached to a sighting at record time.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Ledger owns the session state. All mutations persist both tables through
// the configured store before returning; a failed save is logged and the
// in-memory state stays authoritative for the rest of the session.
//
// The mutex exists because gin serves requests concurrently; the product
// itself assumes a single interactive session.
type Ledger struct {
	mu       sync.Mutex
	order    []string
	spotters map[string]*models.Spotter
	history  []models.Sighting // newest first
	store    store.Store
	logger   *slog.Logger
	now      func() time.Time
}

// Snapshot is a consistent copy of the ledger state for one render pass.
type Snapshot struct {
	Spotters []models.Spotter  `json:"spotters"`
	History  []models.Sighting `json:"history"`
}

// New loads prior state from the store and returns a ready ledger. Missing
// or partial persisted state is treated as a first run: every configured
// spotter gets a zeroed totals row. Rows for spotters no longer configured
// are dropped.
func New(ctx context.Context, st store.Store, spotters []string, logger *slog.Logger) (*Ledger, error) {
	if len(spotters) == 0 {
		return nil, fmt.Errorf("at least one spotter is required")
	}

	l := &Ledger{
		order:    append([]string(nil), spotters...),
		spotters: make(map[string]*models.Spotter, len(spotters)),
		store:    st,
		logger:   logger,
		now:      time.Now,
	}

	for _, name := range l.order {
		if _, ok := l.spotters[name]; ok {
			return nil, fmt.Errorf("duplicate spotter name %q", name)
		}
		l.spotters[name] = &models.Spotter{Name: name}
	}

	totals, err := st.LoadTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load totals: %w", err)
	}
	for _, row := range totals {
		if sp, ok := l.spotters[row.Name]; ok {
			sp.Count = row.Count
			sp.Streak = row.Streak
		} else {
			logger.Warn("Dropping totals row for unconfigured spotter", "name", row.Name)
		}
	}

	history, err := st.LoadHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	for _, ev := range history {
		if _, ok := l.spotters[ev.Spotter]; !ok {
			logger.Warn("Dropping history entry for unconfigured spotter", "name", ev.Spotter)
			continue
		}
		if ev.ID == "" {
			// Legacy rows predate stable ids; assign one so deletes work.
			ev.ID = uuid.New().String()
		}
		l.history = append(l.history, ev)
	}

	return l, nil
}

// RecordSighting logs one sighting for the named spotter, incrementing their
// total, prepending the event to the history and recomputing streaks. The
// returned sighting carries the stable id a later delete must use.
func (l *Ledger) RecordSighting(ctx context.Context, name string, coords *Coordinates) (models.Sighting, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	sp, ok := l.spotters[name]
	if !ok {
		return models.Sighting{}, fmt.Errorf("%w: %q", ErrUnknownSpotter, name)
	}

	ev := models.Sighting{
		ID:        uuid.New().String(),
		Timestamp: l.now().Truncate(time.Second),
		Spotter:   name,
	}
	if coords != nil {
		lat, lon := coords.Latitude, coords.Longitude
		ev.Latitude = &lat
		ev.Longitude = &lon
	}

	sp.Count++
	l.history = append([]models.Sighting{ev}, l.history...)
	l.recomputeStreaks()
	l.persist(ctx)

	return ev, nil
}

// DeleteSighting removes the sighting with the given id, decrements the
// attributed spotter's total and recomputes streaks from the mutated
// history. Deleting a non-newest entry can change which run is current, so
// streaks are always recomputed from scratch rather than decremented.
func (l *Ledger) DeleteSighting(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i, ev := range l.history {
		if ev.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		// Stale id, e.g. a double-clicked delete button. Reject without
		// touching counts.
		return fmt.Errorf("%w: %q", ErrUnknownSighting, id)
	}

	sp := l.spotters[l.history[idx].Spotter]
	if sp.Count > 0 {
		// Clamp at zero: totals may have been hand-edited below the number
		// of surviving history rows.
		sp.Count--
	}

	l.history = append(l.history[:idx], l.history[idx+1:]...)
	l.recomputeStreaks()
	l.persist(ctx)

	return nil
}

// ResetAll zeroes every spotter's count and streak and clears the history.
// Idempotent.
func (l *Ledger) ResetAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, sp := range l.spotters {
		sp.Count = 0
		sp.Streak = 0
	}
	l.history = nil
	l.persist(ctx)

	return nil
}

// Snapshot returns a copy of the current state in the fixed spotter order.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	snap := Snapshot{
		Spotters: make([]models.Spotter, 0, len(l.order)),
		History:  append([]models.Sighting(nil), l.history...),
	}
	for _, name := range l.order {
		snap.Spotters = append(snap.Spotters, *l.spotters[name])
	}
	return snap
}

// recomputeStreaks sets the newest entry's spotter streak to the length of
// the maximal newest-first run attributed to them and forces every other
// streak to zero. At most one spotter holds a nonzero streak at any time:
// the streak is "the run ending at the most recent sighting", not the
// longest run anywhere in history.
func (l *Ledger) recomputeStreaks() {
	for _, sp := range l.spotters {
		sp.Streak = 0
	}
	if len(l.history) == 0 {
		return
	}

	leader := l.history[0].Spotter
	run := 0
	for _, ev := range l.history {
		if ev.Spotter != leader {
			break
		}
		run++
	}
	l.spotters[leader].Streak = run
}

// persist writes both tables through the store. Failures are logged, never
// propagated: the in-memory state is the source of truth for the session
// even when durability is not achieved.
func (l *Ledger) persist(ctx context.Context) {
	totals := make([]models.Spotter, 0, len(l.order))
	for _, name := range l.order {
		totals = append(totals, *l.spotters[name])
	}

	if err := l.store.SaveTotals(ctx, totals); err != nil {
		l.logger.Error("Failed to save totals", "error", err.Error())
	}
	if err := l.store.SaveHistory(ctx, append([]models.Sighting(nil), l.history...)); err != nil {
		l.logger.Error("Failed to save history", "error", err.Error())
	}
}
