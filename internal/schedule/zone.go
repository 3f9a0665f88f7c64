package schedule

import (
	"strings"
	"time"
	_ "time/tzdata"
)

// Zone converts wall-clock times of the schedule's single time zone to UTC.
type Zone struct {
	loc *time.Location
}

// NewZone returns a normalizer for loc.
func NewZone(loc *time.Location) *Zone {
	return &Zone{loc: loc}
}

// NextDay returns the instant one calendar day after t with the same
// wall-clock time in the zone, so a 24 or 25 hour day across an offset
// change keeps the clock reading.
func (z *Zone) NextDay(t time.Time) time.Time {
	return t.In(z.loc).AddDate(0, 0, 1).UTC()
}

// ToUTC reads clock ("HH:MM") on date as wall-clock time in the zone and
// returns the UTC instant. The offset is the one in force on that date.
func (z *Zone) ToUTC(date time.Time, clock string) (time.Time, error) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}

	y, mo, d := date.In(z.loc).Date()
	local := time.Date(y, mo, d, hour, minute, 0, 0, z.loc)
	literal := time.Date(y, mo, d, hour, minute, 0, 0, time.UTC)

	return literal.Add(shift(local, literal)).UTC(), nil
}

// ExportStamp returns the DTSTAMP value for an event starting at start: the
// wall-clock time of now in the zone, shifted by the offset in force at
// start. Runs in a different offset period than the event are off by the
// difference; calendar applications only use DTSTAMP for ordering revisions.
func (z *Zone) ExportStamp(now, start time.Time) time.Time {
	wall := now.In(z.loc)
	literal := time.Date(wall.Year(), wall.Month(), wall.Day(), wall.Hour(), wall.Minute(), 0, 0, time.UTC)

	local := start.In(z.loc)
	startLiteral := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), local.Minute(), 0, 0, time.UTC)

	return literal.Add(shift(local, startLiteral)).UTC()
}

// shift is the whole-minute difference between a zoned wall-clock reading
// and the UTC reading of the same digits.
func shift(local, literal time.Time) time.Duration {
	return local.Sub(literal).Round(time.Minute)
}

func parseClock(clock string) (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(clock))
	if err != nil {
		return 0, 0, &ParseError{Field: "time", Value: clock, Err: errClock}
	}
	return t.Hour(), t.Minute(), nil
}
