package ics

import (
	"errors"
	"fmt"
	"io"
	"os"
	"schedcal/internal/models"
	"strings"
	"time"

	goical "github.com/emersion/go-ical"
)

// ErrNoUID is returned for events that cannot be addressed on a server.
var ErrNoUID = errors.New("event has no UID")

// LoadFile reads the events of a calendar file written by Document.
func LoadFile(path string) ([]models.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calendar: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Load decodes a single VCALENDAR and returns its events in document order.
func Load(r io.Reader) ([]models.Event, error) {
	cal, err := goical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	var events []models.Event
	for i, ev := range cal.Events() {
		uid, err := ev.Props.Text(goical.PropUID)
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i+1, err)
		}
		if uid == "" {
			return nil, fmt.Errorf("event %d: %w", i+1, ErrNoUID)
		}

		start, err := ev.DateTimeStart(time.UTC)
		if err != nil {
			return nil, fmt.Errorf("event %s: invalid DTSTART: %w", uid, err)
		}
		end, err := ev.DateTimeEnd(time.UTC)
		if err != nil {
			return nil, fmt.Errorf("event %s: invalid DTEND: %w", uid, err)
		}
		stamp, err := ev.Props.DateTime(goical.PropDateTimeStamp, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("event %s: invalid DTSTAMP: %w", uid, err)
		}

		summary, _ := ev.Props.Text(goical.PropSummary)
		location, _ := ev.Props.Text(goical.PropLocation)
		category, description, _ := strings.Cut(summary, ": ")

		events = append(events, models.Event{
			UID:         uid,
			Start:       start.UTC(),
			End:         end.UTC(),
			Stamp:       stamp.UTC(),
			Category:    category,
			Description: description,
			Venue:       location,
			Location:    location,
		})
	}

	return events, nil
}
