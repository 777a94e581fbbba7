package server

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/carspot/internal/geocode"
	"github.com/jimdaga/carspot/internal/ledger"
	"github.com/jimdaga/carspot/internal/models"
)

// recentLimit is how many history entries the dashboard lists.
const recentLimit = 5

const sessionSpotterKey = "spotter"

// recentEntry is a history row decorated with its geocoded place name for
// display.
type recentEntry struct {
	models.Sighting
	Place string `json:"place"`
}

// statePayload is the full dashboard state returned by GET /api/state and
// embedded into the rendered page. Leaderboard and streak champion are
// derived on every read, never stored.
type statePayload struct {
	Spotters        []models.Spotter      `json:"spotters"`
	Leaderboard     ledger.Leaderboard    `json:"leaderboard"`
	StreakChampion  ledger.StreakChampion `json:"streak_champion"`
	Recent          []recentEntry         `json:"recent"`
	Markers         []ledger.Marker       `json:"markers"`
	SelectedSpotter string                `json:"selected_spotter"`
}

func buildState(ctx context.Context, l *ledger.Ledger, geo *geocode.Client, selected string) statePayload {
	snap := l.Snapshot()

	recent := make([]recentEntry, 0, recentLimit)
	for _, ev := range snap.History {
		if len(recent) == recentLimit {
			break
		}
		entry := recentEntry{Sighting: ev, Place: geocode.Unknown}
		if ev.HasLocation() {
			entry.Place = geo.ReverseGeocode(ctx, *ev.Latitude, *ev.Longitude)
		}
		recent = append(recent, entry)
	}

	return statePayload{
		Spotters:        snap.Spotters,
		Leaderboard:     l.Leaderboard(),
		StreakChampion:  l.StreakChampion(),
		Recent:          recent,
		Markers:         l.MapMarkers(),
		SelectedSpotter: selected,
	}
}

// StateHandler returns the dashboard state as JSON.
func StateHandler(l *ledger.Ledger, geo *geocode.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		selected, _ := sessions.Default(c).Get(sessionSpotterKey).(string)
		c.JSON(http.StatusOK, buildState(c.Request.Context(), l, geo, selected))
	}
}

// recordRequest is the payload for POST /api/sightings. Latitude and
// longitude are optional but must come as a pair: browser geolocation
// either delivers a full fix or nothing.
type recordRequest struct {
	Spotter   string   `json:"spotter" binding:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// RecordSightingHandler records one sighting and remembers the chosen
// spotter in the session so the sidebar preselects them next visit.
func RecordSightingHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req recordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var coords *ledger.Coordinates
		if req.Latitude != nil || req.Longitude != nil {
			if req.Latitude == nil || req.Longitude == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude must be provided together"})
				return
			}
			if !finite(*req.Latitude) || !finite(*req.Longitude) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates must be finite"})
				return
			}
			coords = &ledger.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
		}

		ev, err := l.RecordSighting(c.Request.Context(), req.Spotter, coords)
		if err != nil {
			if errors.Is(err, ledger.ErrUnknownSpotter) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record sighting"})
			return
		}

		session := sessions.Default(c)
		session.Set(sessionSpotterKey, req.Spotter)
		if err := session.Save(); err != nil {
			// Losing the preselection is cosmetic; the sighting is recorded.
			c.Error(err)
		}

		c.JSON(http.StatusCreated, ev)
	}
}

// DeleteSightingHandler deletes a sighting by its stable id.
func DeleteSightingHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := l.DeleteSighting(c.Request.Context(), id); err != nil {
			if errors.Is(err, ledger.ErrUnknownSighting) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete sighting"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// ResetHandler zeroes all counts and clears the history.
func ResetHandler(l *ledger.Ledger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := l.ResetAll(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset"})
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
