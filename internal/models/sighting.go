package models

import "time"

// Sighting is a single recorded car sighting attributed to one spotter,
// optionally geotagged. Sightings are immutable once created; they can only
// be deleted. The ID is assigned at creation and is stable across saves, so
// deletes address a sighting rather than a list position.
type Sighting struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Spotter   string    `json:"spotter"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
}

// HasLocation reports whether the sighting carries a usable coordinate pair.
// Latitude and longitude are independently nullable columns; a sighting is
// only mappable when both are present.
func (s Sighting) HasLocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}
