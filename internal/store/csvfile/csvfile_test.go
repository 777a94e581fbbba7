package csvfile

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jimdaga/carspot/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestLoadMissingFilesIsFirstRun(t *testing.T) {
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

func TestLoadCorruptFileIsFirstRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := New(dir, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Unbalanced quotes make the file unparseable as CSV.
	if err := os.WriteFile(filepath.Join(dir, "totals.csv"), []byte("\"broken"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	totals, err := s.LoadTotals(ctx)
	if err != nil {
		t.Fatalf("LoadTotals: %v", err)
	}
	if len(totals) != 0 {
		t.Errorf("expected corrupt file to read as first run, got %v", totals)
	}
}

func TestTotalsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rows := []models.Spotter{
		{Name: "Rico", Count: 7, Streak: 3},
		{Name: "Anders", Count: 2},
		{Name: "Live", Count: 0},
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

	// Save-load-save again must not drift.
	if err := s.SaveTotals(ctx, loaded); err != nil {
		t.Fatalf("SaveTotals: %v", err)
	}
	again, err := s.LoadTotals(ctx)
	if err != nil {
		t.Fatalf("LoadTotals: %v", err)
	}
	for i := range loaded {
		if again[i] != loaded[i] {
			t.Errorf("row %d drifted on repeated save/load", i)
		}
	}
}

func TestHistoryRoundTripKeepsNullCoordinates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	lat, lon := 59.913868, 10.752245
	when := time.Date(2024, 6, 1, 12, 30, 5, 0, time.UTC)
	rows := []models.Sighting{
		{ID: "b", Timestamp: when.Add(time.Minute), Spotter: "Anders"},
		{ID: "a", Timestamp: when, Spotter: "Rico", Latitude: &lat, Longitude: &lon},
	}
	if err := s.SaveHistory(ctx, rows); err != nil {
		t.Fatalf("SaveHistory: %v", err)
	}

	loaded, err := s.LoadHistory(ctx)
	if err != nil {
		t.Fatalf("LoadHistory: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(loaded))
	}
	if loaded[0].ID != "b" || loaded[1].ID != "a" {
		t.Errorf("expected newest-first order preserved, got %s then %s", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].HasLocation() {
		t.Errorf("expected untagged row to stay untagged, got %+v", loaded[0])
	}
	if !loaded[1].HasLocation() {
		t.Fatalf("expected geotagged row to keep its fix")
	}
	if *loaded[1].Latitude != lat || *loaded[1].Longitude != lon {
		t.Errorf("coordinates drifted: got %f,%f", *loaded[1].Latitude, *loaded[1].Longitude)
	}
	if !loaded[1].Timestamp.Equal(when) {
		t.Errorf("timestamp drifted: got %v", loaded[1].Timestamp)
	}
}

func TestSaveReplacesWholeTable(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.SaveTotals(ctx, []models.Spotter{{Name: "Rico", Count: 5}}); err != nil {
		t.Fatalf("SaveTotals: %v", err)
	}
	if err := s.SaveTotals(ctx, []models.Spotter{{Name: "Anders", Count: 1}}); err != nil {
		t.Fatalf("SaveTotals: %v", err)
	}

	loaded, err := s.LoadTotals(ctx)
	if err != nil {
		t.Fatalf("LoadTotals: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Name != "Anders" {
		t.Errorf("expected full-replace semantics, got %v", loaded)
	}
}
