package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Leaderboard display states.
const (
	LeaderboardEmpty  = "empty"  // nobody has logged a sighting
	LeaderboardTie    = "tie"    // two or more spotters share the top count
	LeaderboardLeader = "leader" // a single spotter is ahead
)

// Leaderboard is the derived ranking shown on the dashboard card. It is
// recomputed on every read, never stored.
type Leaderboard struct {
	State   string   `json:"state"`
	Leaders []string `json:"leaders,omitempty"`
	Count   int      `json:"count"`
	Message string   `json:"message"`
}

// StreakChampion is the spotter currently holding the longest active run.
type StreakChampion struct {
	Name   string `json:"name"`
	Streak int    `json:"streak"`
}

// Marker is one plotted point on the sightings map. Every geotagged event
// becomes a marker (plot-all policy): deduplicating repeated sightings at
// the same spot would silently hide data. Color is a stable 1-based index
// into the fixed spotter order, used by the map layer's palette.
type Marker struct {
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Spotter   string    `json:"spotter"`
	Color     int       `json:"color"`
	Timestamp time.Time `json:"timestamp"`
}

// Leaderboard derives the ranking card state from the current totals.
// Tie-breaks are deterministic: leaders are reported in the fixed spotter
// order, never in map iteration order.
func (l *Ledger) Leaderboard() Leaderboard {
	l.mu.Lock()
	defer l.mu.Unlock()

	max := 0
	for _, name := range l.order {
		if c := l.spotters[name].Count; c > max {
			max = c
		}
	}

	if max == 0 {
		return Leaderboard{State: LeaderboardEmpty, Message: "No sightings yet."}
	}

	var leaders []string
	for _, name := range l.order {
		if l.spotters[name].Count == max {
			leaders = append(leaders, name)
		}
	}

	if len(leaders) == 1 {
		return Leaderboard{
			State:   LeaderboardLeader,
			Leaders: leaders,
			Count:   max,
			Message: fmt.Sprintf("%s leads with %d cars", leaders[0], max),
		}
	}

	var message string
	if len(leaders) == len(l.order) {
		message = fmt.Sprintf("%d-way tie at %d cars", len(leaders), max)
	} else {
		message = fmt.Sprintf("Tie between %s at %d cars", joinNames(leaders), max)
	}
	return Leaderboard{
		State:   LeaderboardTie,
		Leaders: leaders,
		Count:   max,
		Message: message,
	}
}

// StreakChampion returns the spotter with the longest active streak. Ties
// resolve to the first maximum in the fixed spotter order, which keeps the
// result deterministic. With an empty history all streaks are zero and the
// first configured spotter is reported with a streak of 0.
func (l *Ledger) StreakChampion() StreakChampion {
	l.mu.Lock()
	defer l.mu.Unlock()

	champion := StreakChampion{Name: l.order[0]}
	for _, name := range l.order {
		if s := l.spotters[name].Streak; s > champion.Streak {
			champion = StreakChampion{Name: name, Streak: s}
		}
	}
	return champion
}

// MapMarkers returns one marker per geotagged sighting, newest first.
func (l *Ledger) MapMarkers() []Marker {
	l.mu.Lock()
	defer l.mu.Unlock()

	colors := make(map[string]int, len(l.order))
	for i, name := range l.order {
		colors[name] = i + 1
	}

	markers := make([]Marker, 0, len(l.history))
	for _, ev := range l.history {
		if !ev.HasLocation() {
			continue
		}
		markers = append(markers, Marker{
			Latitude:  *ev.Latitude,
			Longitude: *ev.Longitude,
			Spotter:   ev.Spotter,
			Color:     colors[ev.Spotter],
			Timestamp: ev.Timestamp,
		})
	}
	return markers
}

func joinNames(names []string) string {
	if len(names) == 2 {
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
}
