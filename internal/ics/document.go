// Package ics writes recognized performances as an iCalendar document and
// reads such documents back for publishing.
package ics

import (
	"io"
	"schedcal/internal/models"
	"strings"

	ical "github.com/arran4/golang-ical"
)

// Locator turns a schedule venue into a location map applications can find.
type Locator struct {
	// Building is prefixed when the venue names a room inside it.
	Building string
	// RoomKeyword marks venues that are rooms, e.g. "terem".
	RoomKeyword string
}

// Location returns "<building>, <venue>" for rooms and the venue otherwise.
func (l Locator) Location(venue string) string {
	if l.Building != "" && l.RoomKeyword != "" && strings.Contains(venue, l.RoomKeyword) {
		return l.Building + ", " + venue
	}
	return venue
}

// Document is the calendar produced by one conversion run.
type Document struct {
	cal   *ical.Calendar
	count int
}

// NewDocument starts an empty calendar identified by prodID.
func NewDocument(prodID string) *Document {
	cal := ical.NewCalendarFor("schedcal")
	cal.SetProductId(prodID)

	return &Document{cal: cal}
}

// Add appends one VEVENT. LOCATION is e.Location as resolved by the caller.
func (d *Document) Add(e models.Event) {
	ve := d.cal.AddEvent(e.UID)
	ve.SetDtStampTime(e.Stamp)
	ve.SetStartAt(e.Start)
	ve.SetEndAt(e.End)
	ve.SetSummary(e.Summary())
	ve.SetLocation(e.Location)
	d.count++
}

// Len returns the number of events added so far.
func (d *Document) Len() int {
	return d.count
}

// WriteTo serializes the calendar with CRLF line endings.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	if err := d.cal.SerializeTo(cw, ical.WithNewLineWindows); err != nil {
		return cw.n, err
	}
	return cw.n, cw.err
}

// countingWriter keeps the byte count and the first write error, which the
// serializer does not report for every line it writes.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
