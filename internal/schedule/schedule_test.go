package schedule

import (
	"errors"
	"testing"
	"time"
)

func budapest(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Budapest")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return loc
}

func newLocale(t *testing.T, name string) *Locale {
	t.Helper()
	l, err := NewLocale(name)
	if err != nil {
		t.Fatalf("NewLocale(%q): %v", name, err)
	}
	return l
}

func TestNewLocale_Unsupported(t *testing.T) {
	if _, err := NewLocale("de"); err == nil {
		t.Error("expected error for unsupported locale")
	}
}

func TestLocale_Month(t *testing.T) {
	hu := newLocale(t, "hu")

	tests := []struct {
		in   string
		want time.Month
		ok   bool
	}{
		{"március", time.March, true},
		{"MÁRCIUS", time.March, true},
		{"Szeptember", time.September, true},
		{"marcius", 0, false},
		{"March", 0, false},
	}

	for _, tt := range tests {
		got, ok := hu.Month(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Month(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLocale_Participant(t *testing.T) {
	hu := newLocale(t, "hu")

	if got := hu.Participant("  kovács éva "); got != "KOVÁCS ÉVA" {
		t.Errorf("Participant = %q, want KOVÁCS ÉVA", got)
	}
}

func TestResolver_Resolve(t *testing.T) {
	loc := budapest(t)
	en := NewResolver(newLocale(t, "en"), loc)
	hu := NewResolver(newLocale(t, "hu"), loc)

	tests := []struct {
		name     string
		resolver *Resolver
		partial  string
		ref      time.Time
		want     time.Time
	}{
		{
			name:     "same year ahead",
			resolver: en,
			partial:  "March 3.",
			ref:      time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
			want:     time.Date(2025, 3, 3, 0, 0, 0, 0, loc),
		},
		{
			name:     "next year across new year",
			resolver: en,
			partial:  "January 5.",
			ref:      time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC),
			want:     time.Date(2026, 1, 5, 0, 0, 0, 0, loc),
		},
		{
			name:     "recent past stays in current year",
			resolver: en,
			partial:  "November 2.",
			ref:      time.Date(2025, 11, 20, 12, 0, 0, 0, time.UTC),
			want:     time.Date(2025, 11, 2, 0, 0, 0, 0, loc),
		},
		{
			name:     "hungarian month",
			resolver: hu,
			partial:  "március 3.",
			ref:      time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
			want:     time.Date(2025, 3, 3, 0, 0, 0, 0, loc),
		},
		{
			name:     "hungarian upper case with padding",
			resolver: hu,
			partial:  "  Október 12. ",
			ref:      time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC),
			want:     time.Date(2025, 10, 12, 0, 0, 0, 0, loc),
		},
		{
			name:     "leap day only exists next year",
			resolver: hu,
			partial:  "február 29.",
			ref:      time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC),
			want:     time.Date(2028, 2, 29, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.resolver.Resolve(tt.partial, tt.ref)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Resolve(%q) = %v, want %v", tt.partial, got, tt.want)
			}
		})
	}
}

func TestResolver_TieDoesNotFail(t *testing.T) {
	r := NewResolver(newLocale(t, "en"), time.UTC)
	// Exactly half way between 2025-03-03 and 2026-03-03.
	ref := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	got, err := r.Resolve("March 3.", ref)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Year() != 2025 && got.Year() != 2026 {
		t.Errorf("Resolve picked year %d", got.Year())
	}
}

func TestResolver_PicksNearestCandidate(t *testing.T) {
	loc := budapest(t)
	r := NewResolver(newLocale(t, "en"), loc)

	partials := []struct {
		text  string
		month time.Month
		day   int
	}{
		{"January 1.", time.January, 1},
		{"March 31.", time.March, 31},
		{"July 15.", time.July, 15},
		{"December 31.", time.December, 31},
	}

	for month := time.January; month <= time.December; month++ {
		ref := time.Date(2025, month, 14, 9, 30, 0, 0, time.UTC)
		for _, p := range partials {
			got, err := r.Resolve(p.text, ref)
			if err != nil {
				t.Fatalf("Resolve(%q, %v): %v", p.text, ref, err)
			}

			other := time.Date(2025, p.month, p.day, 0, 0, 0, 0, loc)
			if got.Year() == 2025 {
				other = time.Date(2026, p.month, p.day, 0, 0, 0, 0, loc)
			}
			if absDuration(got.Sub(ref)) > absDuration(other.Sub(ref)) {
				t.Errorf("Resolve(%q, %v) = %v, but %v is closer", p.text, ref, got, other)
			}
		}
	}
}

func TestResolver_Errors(t *testing.T) {
	r := NewResolver(newLocale(t, "hu"), budapest(t))
	ref := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		partial string
		cause   error
	}{
		{"március 3", errDatePattern},
		{"március3.", errDatePattern},
		{"2025-03-03", errDatePattern},
		{"Smarch 3.", errUnknownMonth},
		{"február 30.", errNoSuchDay},
		{"április 0.", errNoSuchDay},
		{"február 29.", errNoSuchDay}, // neither 2025 nor 2026 is a leap year
	}

	for _, tt := range tests {
		_, err := r.Resolve(tt.partial, ref)

		var pe *ParseError
		if !errors.As(err, &pe) {
			t.Errorf("Resolve(%q) error = %v, want *ParseError", tt.partial, err)
			continue
		}
		if !errors.Is(err, tt.cause) {
			t.Errorf("Resolve(%q) cause = %v, want %v", tt.partial, pe.Err, tt.cause)
		}
	}
}

func TestZone_ToUTC(t *testing.T) {
	loc := budapest(t)
	z := NewZone(loc)

	tests := []struct {
		name  string
		date  time.Time
		clock string
		want  time.Time
	}{
		{"winter uses standard offset", time.Date(2025, 1, 15, 0, 0, 0, 0, loc), "18:00", time.Date(2025, 1, 15, 17, 0, 0, 0, time.UTC)},
		{"summer uses daylight offset", time.Date(2025, 7, 15, 0, 0, 0, 0, loc), "18:00", time.Date(2025, 7, 15, 16, 0, 0, 0, time.UTC)},
		{"day before spring change", time.Date(2025, 3, 29, 0, 0, 0, 0, loc), "19:30", time.Date(2025, 3, 29, 18, 30, 0, 0, time.UTC)},
		{"day of spring change", time.Date(2025, 3, 30, 0, 0, 0, 0, loc), "19:30", time.Date(2025, 3, 30, 17, 30, 0, 0, time.UTC)},
		{"day before autumn change", time.Date(2025, 10, 25, 0, 0, 0, 0, loc), "10:00", time.Date(2025, 10, 25, 8, 0, 0, 0, time.UTC)},
		{"day of autumn change", time.Date(2025, 10, 26, 0, 0, 0, 0, loc), "10:00", time.Date(2025, 10, 26, 9, 0, 0, 0, time.UTC)},
		{"single digit hour", time.Date(2025, 1, 15, 0, 0, 0, 0, loc), " 9:05 ", time.Date(2025, 1, 15, 8, 5, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := z.ToUTC(tt.date, tt.clock)
			if err != nil {
				t.Fatalf("ToUTC: %v", err)
			}
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("ToUTC(%v, %q) = %v, want %v", tt.date, tt.clock, got, tt.want)
			}
		})
	}
}

func TestZone_ToUTC_Errors(t *testing.T) {
	loc := budapest(t)
	z := NewZone(loc)
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, loc)

	for _, clock := range []string{"", "18.00", "25:00", "6pm", "18:0", "18:00:00"} {
		_, err := z.ToUTC(date, clock)
		if !errors.Is(err, errClock) {
			t.Errorf("ToUTC(%q) error = %v, want clock parse error", clock, err)
		}
	}
}

func TestZone_NextDay(t *testing.T) {
	z := NewZone(budapest(t))

	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"plain winter day", time.Date(2025, 3, 3, 23, 0, 0, 0, time.UTC), time.Date(2025, 3, 4, 23, 0, 0, 0, time.UTC)},
		{"night into spring change", time.Date(2025, 3, 29, 23, 30, 0, 0, time.UTC), time.Date(2025, 3, 30, 22, 30, 0, 0, time.UTC)},
		{"night into autumn change", time.Date(2025, 10, 25, 22, 30, 0, 0, time.UTC), time.Date(2025, 10, 26, 23, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := z.NextDay(tt.in)
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("NextDay(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestZone_ExportStamp(t *testing.T) {
	z := NewZone(budapest(t))
	now := time.Date(2025, 1, 10, 12, 34, 56, 0, time.UTC) // 13:34 in Budapest

	winter := time.Date(2025, 2, 1, 17, 0, 0, 0, time.UTC)
	if got, want := z.ExportStamp(now, winter), time.Date(2025, 1, 10, 12, 34, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ExportStamp(winter event) = %v, want %v", got, want)
	}

	// The event date's offset is applied even though the run is in winter.
	summer := time.Date(2025, 7, 1, 16, 0, 0, 0, time.UTC)
	if got, want := z.ExportStamp(now, summer), time.Date(2025, 1, 10, 11, 34, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ExportStamp(summer event) = %v, want %v", got, want)
	}
}

func TestBuildID(t *testing.T) {
	loc := budapest(t)
	date := time.Date(2025, 3, 3, 0, 0, 0, 0, loc)

	tests := []struct {
		start, end, category, description string
		want                              string
	}{
		{"18:00", "21:00", "Opera", "Carmen", "2025030300000018002100OperaCarmen"},
		{"10:00", "13:00", "Próba", "Bánk bán", "2025030300000010001300PrbaBnkbn"},
		{" 9:00", "12:00", "Zenekari próba", "Verdi: Requiem", "202503030000009001200ZenekariprbaVerdiRequiem"},
	}

	for _, tt := range tests {
		got := BuildID(date, tt.start, tt.end, tt.category, tt.description)
		if got != tt.want {
			t.Errorf("BuildID(%q, %q) = %q, want %q", tt.category, tt.description, got, tt.want)
		}
		if again := BuildID(date, tt.start, tt.end, tt.category, tt.description); again != got {
			t.Errorf("BuildID is not deterministic: %q then %q", got, again)
		}
	}
}
