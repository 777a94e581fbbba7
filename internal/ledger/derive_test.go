package ledger

import (
	"context"
	"testing"

	"github.com/jimdaga/carspot/internal/models"
)

func ledgerWithCounts(t *testing.T, rico, anders, live int) *Ledger {
	t.Helper()
	st := &memStore{totals: []models.Spotter{
		{Name: "Rico", Count: rico},
		{Name: "Anders", Count: anders},
		{Name: "Live", Count: live},
	}}
	return newTestLedger(t, st)
}

func TestLeaderboardNoSightings(t *testing.T) {
	l := ledgerWithCounts(t, 0, 0, 0)

	lb := l.Leaderboard()
	if lb.State != LeaderboardEmpty {
		t.Errorf("expected state %q, got %q", LeaderboardEmpty, lb.State)
	}
	if lb.Message != "No sightings yet." {
		t.Errorf("unexpected message %q", lb.Message)
	}
}

func TestLeaderboardThreeWayTie(t *testing.T) {
	l := ledgerWithCounts(t, 5, 5, 5)

	lb := l.Leaderboard()
	if lb.State != LeaderboardTie {
		t.Fatalf("expected state %q, got %q", LeaderboardTie, lb.State)
	}
	if len(lb.Leaders) != 3 || lb.Count != 5 {
		t.Errorf("expected 3 leaders at 5, got %v at %d", lb.Leaders, lb.Count)
	}
	if lb.Message != "3-way tie at 5 cars" {
		t.Errorf("unexpected message %q", lb.Message)
	}
}

func TestLeaderboardTwoWayTie(t *testing.T) {
	l := ledgerWithCounts(t, 3, 3, 0)

	lb := l.Leaderboard()
	if lb.State != LeaderboardTie {
		t.Fatalf("expected state %q, got %q", LeaderboardTie, lb.State)
	}
	if len(lb.Leaders) != 2 || lb.Leaders[0] != "Rico" || lb.Leaders[1] != "Anders" {
		t.Errorf("expected leaders [Rico Anders], got %v", lb.Leaders)
	}
	if lb.Message != "Tie between Rico and Anders at 3 cars" {
		t.Errorf("unexpected message %q", lb.Message)
	}
}

func TestLeaderboardSoleLeader(t *testing.T) {
	l := ledgerWithCounts(t, 7, 3, 3)

	lb := l.Leaderboard()
	if lb.State != LeaderboardLeader {
		t.Fatalf("expected state %q, got %q", LeaderboardLeader, lb.State)
	}
	if len(lb.Leaders) != 1 || lb.Leaders[0] != "Rico" || lb.Count != 7 {
		t.Errorf("expected Rico at 7, got %v at %d", lb.Leaders, lb.Count)
	}
}

func TestStreakChampionFirstMaximumWins(t *testing.T) {
	st := &memStore{totals: []models.Spotter{
		{Name: "Rico", Streak: 2},
		{Name: "Anders", Streak: 2},
		{Name: "Live", Streak: 1},
	}}
	l := newTestLedger(t, st)

	champ := l.StreakChampion()
	if champ.Name != "Rico" || champ.Streak != 2 {
		t.Errorf("expected Rico at 2 (first maximum in fixed order), got %s at %d", champ.Name, champ.Streak)
	}
}

func TestStreakChampionEmptyLedger(t *testing.T) {
	l := newTestLedger(t, &memStore{})

	champ := l.StreakChampion()
	if champ.Name != "Rico" || champ.Streak != 0 {
		t.Errorf("expected first spotter at 0, got %s at %d", champ.Name, champ.Streak)
	}
}

func TestMapMarkersPlotAll(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, &memStore{})

	// Two sightings at the same spot must both be plotted.
	l.RecordSighting(ctx, "Rico", &Coordinates{Latitude: 59.91, Longitude: 10.75})
	l.RecordSighting(ctx, "Rico", &Coordinates{Latitude: 59.91, Longitude: 10.75})
	l.RecordSighting(ctx, "Anders", nil)
	l.RecordSighting(ctx, "Live", &Coordinates{Latitude: 60.39, Longitude: 5.32})

	markers := l.MapMarkers()
	if len(markers) != 3 {
		t.Fatalf("expected 3 markers, got %d", len(markers))
	}
	if markers[0].Spotter != "Live" || markers[0].Color != 3 {
		t.Errorf("expected newest marker for Live with color 3, got %s/%d", markers[0].Spotter, markers[0].Color)
	}
	if markers[1].Spotter != "Rico" || markers[1].Color != 1 {
		t.Errorf("expected Rico marker with color 1, got %s/%d", markers[1].Spotter, markers[1].Color)
	}
	if markers[1].Latitude != markers[2].Latitude || markers[1].Longitude != markers[2].Longitude {
		t.Errorf("expected repeated sightings at the same spot to both survive")
	}
}
