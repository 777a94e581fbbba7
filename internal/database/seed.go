package database

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jimdaga/carspot/internal/models"
	"github.com/jimdaga/carspot/internal/store"
)

// SeedDemoData populates the store with a small demo ledger so a fresh dev
// environment has something to render. Idempotent: skips if any history
// already exists. Totals and streaks are written consistent with the seeded
// history.
func SeedDemoData(ctx context.Context, st store.Store, spotters []string, logger *slog.Logger) error {
	existing, err := st.LoadHistory(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		logger.Info("Demo data already exists, skipping")
		return nil
	}

	oslo := coords(59.913868, 10.752245)
	bergen := coords(60.391263, 5.322054)
	spots := []*[2]float64{oslo, bergen, nil}

	// Two sightings for the first spotter, one for the second. The second
	// spotter's sighting is newest, so they hold the streak.
	var sequence []string
	if len(spotters) > 1 {
		sequence = []string{spotters[0], spotters[0], spotters[1]}
	} else {
		sequence = []string{spotters[0], spotters[0]}
	}

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	var history []models.Sighting
	counts := make(map[string]int)
	for i, name := range sequence {
		ev := models.Sighting{
			ID:        uuid.New().String(),
			Timestamp: base.Add(time.Duration(i) * 10 * time.Minute),
			Spotter:   name,
		}
		if spot := spots[i%len(spots)]; spot != nil {
			ev.Latitude = &spot[0]
			ev.Longitude = &spot[1]
		}
		counts[name]++
		history = append([]models.Sighting{ev}, history...)
	}

	totals := make([]models.Spotter, 0, len(spotters))
	for _, name := range spotters {
		row := models.Spotter{Name: name, Count: counts[name]}
		totals = append(totals, row)
	}
	// The newest entry's spotter holds the streak.
	run := 0
	for _, ev := range history {
		if ev.Spotter != history[0].Spotter {
			break
		}
		run++
	}
	for i := range totals {
		if totals[i].Name == history[0].Spotter {
			totals[i].Streak = run
		}
	}

	if err := st.SaveTotals(ctx, totals); err != nil {
		return err
	}
	if err := st.SaveHistory(ctx, history); err != nil {
		return err
	}

	logger.Info("Seeded demo data", "sightings", len(history), "spotters", len(totals))
	return nil
}

func coords(lat, lon float64) *[2]float64 {
	return &[2]float64{lat, lon}
}
