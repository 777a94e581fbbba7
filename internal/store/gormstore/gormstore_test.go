package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jimdaga/carspot/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "carspot.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadEmptyTablesIsFirstRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	totals, err := s.LoadTotals(ctx)
	if err != nil {
		t.Fatalf("LoadTotals: %v", err)
	}
	if len(totals) != 0 {
		t.Errorf("expected empty totals, got %v", totals)
	}

	history, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("expected empty history, got %v", history)
	}
}

func TestTotalsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rows := []models.Spotter{
		{Name: "Anders", Count: 2, Streak: 0},
		{Name: "Live", Count: 0, Streak: 0},
		{Name: "Rico", Count: 7, Streak: 3},
	}
	if err := s.SaveTotals(ctx, rows); err != nil {
		t.Fatalf("SaveTotals: %v", err)
	}

	loaded, err := s.LoadTotals(ctx)
	if err != nil {
		t.Fatalf("LoadTotals: %v", err)
	}
	if len(loaded) != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), len(loaded))
	}
	for i, row := range rows {
		if loaded[i] != row {
			t.Errorf("row %d drifted: saved %+v, loaded %+v", i, row, loaded[i])
		}
	}
}

func TestHistoryOrderSurvivesTimestampCollisions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// Three sightings in the same second: order must come back from the
	// insert sequence, not the timestamp.
	when := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	lat, lon := 59.91, 10.75
	rows := []models.Sighting{
		{ID: "c", Timestamp: when, Spotter: "Live"},
		{ID: "b", Timestamp: when, Spotter: "Rico", Latitude: &lat, Longitude: &lon},
		{ID: "a", Timestamp: when, Spotter: "Rico"},
	}
	if err := s.SaveHistory(ctx, rows); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	loaded, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(loaded))
	}
	for i, want := range []string{"c", "b", "a"} {
		if loaded[i].ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, loaded[i].ID)
		}
	}
	if !loaded[1].HasLocation() {
		t.Fatalf("expected geotagged row to keep coordinates")
	}
	if *loaded[1].Latitude != lat || *loaded[1].Longitude != lon {
		t.Errorf("coordinates drifted")
	}
	if loaded[0].HasLocation() || loaded[2].HasLocation() {
		t.Errorf("expected untagged rows to stay untagged")
	}
}

func TestSaveReplacesWholeTable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SaveHistory(ctx, []models.Sighting{
		{ID: "old", Timestamp: time.Now().UTC(), Spotter: "Rico"},
	}); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}
	if err := s.SaveHistory(ctx, []models.Sighting{
		{ID: "new", Timestamp: time.Now().UTC(), Spotter: "Anders"},
	}); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	loaded, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "new" {
		t.Errorf("expected full-replace semantics, got %v", loaded)
	}

	if err := s.SaveHistory(ctx, nil); err != nil {
		t.Fatalf("SaveHistory(empty): %v", err)
	}
	loaded, err = s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected reset to clear the table, got %v", loaded)
	}
}
