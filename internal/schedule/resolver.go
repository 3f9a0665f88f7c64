package schedule

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// partialDatePattern matches "március 3." style cells.
var partialDatePattern = regexp.MustCompile(`^(\p{L}+)\s+(\d{1,2})\.$`)

// Resolver turns year-less dates into concrete dates.
type Resolver struct {
	locale *Locale
	loc    *time.Location
}

// NewResolver returns a resolver reading month names from locale and
// producing midnights in loc.
func NewResolver(locale *Locale, loc *time.Location) *Resolver {
	return &Resolver{locale: locale, loc: loc}
}

// Resolve picks the year for partial, either ref's year or the next one,
// whichever puts the date closer to ref. The schedule covers a few months
// that may straddle New Year, and the sheet never states the year.
func (r *Resolver) Resolve(partial string, ref time.Time) (time.Time, error) {
	month, day, err := r.parse(partial)
	if err != nil {
		return time.Time{}, err
	}

	year := ref.In(r.loc).Year()

	var best time.Time
	var bestDist time.Duration
	found := false
	for _, y := range []int{year, year + 1} {
		if day > daysIn(month, y) {
			continue
		}
		cand := time.Date(y, month, day, 0, 0, 0, 0, r.loc)
		dist := absDuration(cand.Sub(ref))
		// Ties go to the later candidate.
		if !found || dist <= bestDist {
			best, bestDist, found = cand, dist, true
		}
	}

	if !found {
		return time.Time{}, &ParseError{Field: "date", Value: partial, Err: errNoSuchDay}
	}
	return best, nil
}

func (r *Resolver) parse(partial string) (time.Month, int, error) {
	text := strings.TrimSpace(partial)

	m := partialDatePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, &ParseError{Field: "date", Value: partial, Err: errDatePattern}
	}

	month, ok := r.locale.Month(m[1])
	if !ok {
		return 0, 0, &ParseError{Field: "date", Value: partial, Err: errUnknownMonth}
	}

	day, _ := strconv.Atoi(m[2])
	if day < 1 || day > daysIn(month, 2000) {
		return 0, 0, &ParseError{Field: "date", Value: partial, Err: errNoSuchDay}
	}

	return month, day, nil
}

// daysIn returns the number of days in month of year.
func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
