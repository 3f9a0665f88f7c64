package models

import "time"

// Event is one scheduled appearance of the participant.
// It is independent of the calendar format it is eventually written to.
type Event struct {
	UID         string    // Content-derived identifier, stable while the source row is unchanged
	Start       time.Time // Start instant in UTC
	End         time.Time // End instant in UTC
	Stamp       time.Time // Export timestamp written as DTSTAMP
	Category    string    // Kind of call, e.g. "Opera" or "Próba"
	Description string    // Title of the piece
	Venue       string    // Stage or room as written in the schedule
	Location    string    // Venue after building disambiguation, as written to LOCATION
}

// Summary is the one-line title shown by calendar applications.
func (e Event) Summary() string {
	return e.Category + ": " + e.Description
}
