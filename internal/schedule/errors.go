package schedule

import (
	"errors"
	"fmt"
)

// Errors that abort a conversion run.
var (
	ErrParticipantNotFound = errors.New("participant not found in header row")
	ErrMalformedMarker     = errors.New("participation marker is neither empty nor X")
)

var (
	errDatePattern  = errors.New(`expected "<month> <day>."`)
	errUnknownMonth = errors.New("unknown month name")
	errNoSuchDay    = errors.New("day does not exist in month")
	errClock        = errors.New(`expected 24-hour "HH:MM"`)
	errShortRow     = errors.New("row has fewer than 8 fields")
)

// ParseError reports a cell whose text does not have the expected shape.
type ParseError struct {
	Row   int // 1-based input row, 0 if unknown
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("row %d: cannot parse %s %q: %v", e.Row, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("cannot parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// atRow attaches the input position to a ParseError; other errors pass through.
func atRow(err error, row int, field string) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Row = row + 1
		if field != "" {
			pe.Field = field
		}
	}
	return err
}
