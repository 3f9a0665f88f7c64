// Package converter runs one schedule to calendar conversion.
package converter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"schedcal/internal/config"
	"schedcal/internal/ics"
	"schedcal/internal/logger"
	"schedcal/internal/models"
	"schedcal/internal/schedule"
	"schedcal/internal/table"
	"time"

	"github.com/google/uuid"
)

// Result describes a finished conversion.
type Result struct {
	Events     []models.Event
	OutputPath string
}

// Converter orchestrates reading a schedule export, selecting one
// participant's performances and writing them as a calendar.
type Converter struct {
	logger  *logger.Logger
	cfg     *config.Config
	locale  *schedule.Locale
	loc     *time.Location
	locator ics.Locator
	now     func() time.Time
}

// New creates a Converter from a validated configuration.
func New(l *logger.Logger, cfg *config.Config) (*Converter, error) {
	if l == nil {
		l = logger.Discard()
	}
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	locale, err := schedule.NewLocale(cfg.Locale)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	return &Converter{
		logger:  l,
		cfg:     cfg,
		locale:  locale,
		loc:     loc,
		locator: ics.Locator{Building: cfg.Building, RoomKeyword: cfg.RoomKeyword},
		now:     time.Now,
	}, nil
}

// WithNow overrides the reference instant used for year resolution and DTSTAMP.
func (c *Converter) WithNow(now func() time.Time) *Converter {
	c.now = now
	return c
}

// OutputPath names the calendar written for input when no explicit path is given.
func (c *Converter) OutputPath(input string) string {
	return input + c.cfg.OutputSuffix
}

// Collect walks input and returns the events participant is marked on,
// with Location already resolved.
func (c *Converter) Collect(input, participant string) ([]models.Event, error) {
	return c.collect(c.logger, input, participant)
}

func (c *Converter) collect(l *logger.Logger, input, participant string) ([]models.Event, error) {
	rows, err := table.Open(input)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	name := c.locale.Participant(participant)
	walker := schedule.NewWalker(l, name, schedule.NewResolver(c.locale, c.loc), schedule.NewZone(c.loc)).
		WithNow(c.now)

	var events []models.Event
	_, err = walker.Walk(rows, func(e models.Event) error {
		e.Location = c.locator.Location(e.Venue)
		events = append(events, e)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return events, nil
}

// Run converts input for participant and writes the calendar to output, or
// to OutputPath(input) when output is empty. Nothing is written on failure.
func (c *Converter) Run(input, participant, output string) (*Result, error) {
	if output == "" {
		output = c.OutputPath(input)
	}

	l := c.logger.With("run", uuid.NewString())
	l.Info("Starting conversion.", "input", input, "participant", participant, "output", output)

	events, err := c.collect(l, input, participant)
	if err != nil {
		return nil, err
	}

	doc := ics.NewDocument(c.cfg.ProdID)
	for _, e := range events {
		doc.Add(e)
	}

	if err := writeAtomic(output, doc); err != nil {
		return nil, fmt.Errorf("failed to write calendar: %w", err)
	}

	l.Info("Conversion finished.", "events", doc.Len(), "output", output)
	return &Result{Events: events, OutputPath: output}, nil
}

// writeAtomic writes doc to a temporary file next to path and renames it
// into place, so readers never observe a partial calendar.
func writeAtomic(path string, doc *ics.Document) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".schedcal-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := doc.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
