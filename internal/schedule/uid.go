package schedule

import (
	"regexp"
	"time"
)

var nonAlnum = regexp.MustCompile(`[^0-9A-Za-z]+`)

// BuildID derives an event identifier from the row's content. The sheet has
// no row identity, so an unchanged row keeps its identifier across exports
// while any edit to these fields yields a new one.
func BuildID(date time.Time, start, end, category, description string) string {
	raw := date.Format("2006-01-02 15:04:05") + start + end + category + description
	return nonAlnum.ReplaceAllString(raw, "")
}
