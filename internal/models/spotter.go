package models

// Spotter represents one participant's running totals: how many cars they
// have logged overall and the length of their current run of consecutive
// sightings.
type Spotter struct {
	Name   string `json:"name"`
	Count  int    `json:"count"`
	Streak int    `json:"streak"`
}
