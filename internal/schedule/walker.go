package schedule

import (
	"errors"
	"fmt"
	"io"
	"schedcal/internal/logger"
	"schedcal/internal/models"
	"strings"
	"time"
)

// Fixed column layout of the schedule export.
const (
	colDate        = 0
	colStart       = 3
	colEnd         = 4
	colVenue       = 5
	colCategory    = 6
	colDescription = 7

	headerRow = 1
)

// RowReader yields table rows until io.EOF. *csv.Reader satisfies it.
type RowReader interface {
	Read() ([]string, error)
}

// Walker interprets the schedule table for one participant.
type Walker struct {
	participant string
	resolver    *Resolver
	zone        *Zone
	logger      *logger.Logger
	now         func() time.Time
}

// NewWalker creates a walker. participant must already be normalized
// (see Locale.Participant).
func NewWalker(l *logger.Logger, participant string, resolver *Resolver, zone *Zone) *Walker {
	if l == nil {
		l = logger.Discard()
	}
	return &Walker{
		participant: participant,
		resolver:    resolver,
		zone:        zone,
		logger:      l,
		now:         time.Now,
	}
}

// WithNow sets the reference instant used for year resolution and DTSTAMP.
func (w *Walker) WithNow(now func() time.Time) *Walker {
	w.now = now
	return w
}

type phase int

const (
	awaitingFirstDate phase = iota
	inBody
)

// walkState is the state carried from row to row within one run.
type walkState struct {
	row    int
	column int
	phase  phase
	date   time.Time
}

// Walk reads every row and calls emit for each row the participant is
// marked on. It stops at the first error; events already passed to emit
// stay emitted. It returns the number of events emitted.
func (w *Walker) Walk(rows RowReader, emit func(models.Event) error) (int, error) {
	now := w.now()
	st := walkState{column: -1}
	count := 0

	for ; ; st.row++ {
		record, err := rows.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read row %d: %w", st.row+1, err)
		}

		if st.row < headerRow {
			continue
		}
		if st.row == headerRow {
			st.column = findColumn(record, w.participant)
			if st.column < 0 {
				return count, fmt.Errorf("%w: %q", ErrParticipantNotFound, w.participant)
			}
			w.logger.Info("Participant found in header row.", "participant", w.participant, "column", st.column)
			continue
		}

		event, err := w.step(&st, record, now)
		if err != nil {
			return count, err
		}
		if event == nil {
			continue
		}

		w.logger.Debug("Event recognized.", "row", st.row+1, "uid", event.UID, "start", event.Start)
		if err := emit(*event); err != nil {
			return count, fmt.Errorf("failed to emit event from row %d: %w", st.row+1, err)
		}
		count++
	}

	if st.column < 0 {
		return count, fmt.Errorf("%w: %q: table has no header row", ErrParticipantNotFound, w.participant)
	}
	return count, nil
}

// step advances the state by one body row and returns the event it describes, if any.
func (w *Walker) step(st *walkState, record []string, now time.Time) (*models.Event, error) {
	if cell := strings.TrimSpace(field(record, colDate)); cell != "" {
		date, err := w.resolver.Resolve(cell, now)
		if err != nil {
			return nil, atRow(err, st.row, "")
		}
		st.date = date
		st.phase = inBody
	}

	if st.phase != inBody {
		return nil, nil
	}

	marker := strings.TrimSpace(field(record, st.column))
	switch {
	case marker == "":
		return nil, nil
	case strings.EqualFold(marker, "X"):
		return w.buildEvent(st, record, now)
	default:
		return nil, fmt.Errorf("row %d, column %d: %w: %q", st.row+1, st.column, ErrMalformedMarker, marker)
	}
}

func (w *Walker) buildEvent(st *walkState, record []string, now time.Time) (*models.Event, error) {
	if len(record) <= colDescription {
		return nil, &ParseError{Row: st.row + 1, Field: "row", Value: strings.Join(record, ","), Err: errShortRow}
	}

	startText, endText := record[colStart], record[colEnd]

	start, err := w.zone.ToUTC(st.date, startText)
	if err != nil {
		return nil, atRow(err, st.row, "start time")
	}
	end, err := w.zone.ToUTC(st.date, endText)
	if err != nil {
		return nil, atRow(err, st.row, "end time")
	}
	if end.Before(start) {
		// Runs past midnight.
		end = w.zone.NextDay(end)
	}

	category, description := record[colCategory], record[colDescription]

	return &models.Event{
		UID:         BuildID(st.date, startText, endText, category, description),
		Start:       start,
		End:         end,
		Stamp:       w.zone.ExportStamp(now, start),
		Category:    category,
		Description: description,
		Venue:       record[colVenue],
	}, nil
}

// findColumn returns the first column whose cell equals name, or -1.
func findColumn(record []string, name string) int {
	for i, cell := range record {
		if cell == name {
			return i
		}
	}
	return -1
}

// field returns record[i], or "" when the row is too short.
func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return record[i]
}
