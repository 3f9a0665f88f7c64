package schedule

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var monthNames = map[string][12]string{
	"hu": {"január", "február", "március", "április", "május", "június",
		"július", "augusztus", "szeptember", "október", "november", "december"},
	"en": {"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
}

var localeTags = map[string]language.Tag{
	"hu": language.Hungarian,
	"en": language.English,
}

// Locale knows how a schedule spells months and participant names.
type Locale struct {
	name   string
	tag    language.Tag
	months map[string]time.Month // keyed by case-folded name
}

// NewLocale returns the locale with the given short name ("hu" or "en").
func NewLocale(name string) (*Locale, error) {
	names, ok := monthNames[name]
	if !ok {
		return nil, fmt.Errorf("unsupported locale %q", name)
	}

	l := &Locale{
		name:   name,
		tag:    localeTags[name],
		months: make(map[string]time.Month, len(names)),
	}
	fold := cases.Fold()
	for i, n := range names {
		l.months[fold.String(n)] = time.Month(i + 1)
	}
	return l, nil
}

// Name returns the short locale name.
func (l *Locale) Name() string {
	return l.name
}

// Month looks up a month name case-insensitively.
func (l *Locale) Month(name string) (time.Month, bool) {
	m, ok := l.months[cases.Fold().String(name)]
	return m, ok
}

// Participant normalizes a participant name the way the header row writes
// it: trimmed and upper-cased with the locale's casing rules.
func (l *Locale) Participant(name string) string {
	return cases.Upper(l.tag).String(strings.TrimSpace(name))
}
