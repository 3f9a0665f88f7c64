package caldav

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"schedcal/internal/config"
	"schedcal/internal/logger"
	"schedcal/internal/models"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

type putRequest struct {
	path        string
	contentType string
	user        string
	pass        string
	userAgent   string
	body        []byte
}

// fakeServer accepts PUTs and remembers them. Paths listed in fail get a 500.
type fakeServer struct {
	mu   sync.Mutex
	puts []putRequest
	fail map[string]bool
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)
	user, pass, _ := r.BasicAuth()

	s.mu.Lock()
	s.puts = append(s.puts, putRequest{
		path:        r.URL.Path,
		contentType: r.Header.Get("Content-Type"),
		user:        user,
		pass:        pass,
		userAgent:   r.Header.Get("User-Agent"),
		body:        body,
	})
	fail := s.fail[r.URL.Path]
	s.mu.Unlock()

	if fail {
		http.Error(w, "storage full", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func testEvents() []models.Event {
	return []models.Event{
		{
			UID:         "2025030300000018002100OperaCarmen",
			Start:       time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC),
			End:         time.Date(2025, 3, 3, 20, 0, 0, 0, time.UTC),
			Stamp:       time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
			Category:    "Opera",
			Description: "Carmen",
			Location:    "Eiffel Műhelyház, Nagy terem",
		},
		{
			UID:         "2025030400000010001300PrbaTosca",
			Start:       time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC),
			End:         time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC),
			Stamp:       time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
			Category:    "Próba",
			Description: "Tosca",
		},
	}
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	cfg := config.CalDAVConfig{
		Endpoint:     srv.URL + "/",
		Username:     "jane",
		Password:     "secret",
		CalendarPath: "/calendars/jane/opera/",
	}
	c, err := NewClient(context.Background(), logger.Discard(), cfg, "-//schedcal//EN")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestPublish(t *testing.T) {
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	n, err := newTestClient(t, srv).Publish(context.Background(), testEvents())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if n != 2 {
		t.Errorf("published %d events, want 2", n)
	}
	if len(fake.puts) != 2 {
		t.Fatalf("server saw %d PUTs, want 2", len(fake.puts))
	}

	put := fake.puts[0]
	if put.path != "/calendars/jane/opera/2025030300000018002100OperaCarmen.ics" {
		t.Errorf("path = %q", put.path)
	}
	if !strings.HasPrefix(put.contentType, "text/calendar") {
		t.Errorf("Content-Type = %q", put.contentType)
	}
	if put.user != "jane" || put.pass != "secret" {
		t.Errorf("basic auth = %q/%q", put.user, put.pass)
	}
	if put.userAgent != "schedcal/1.0" {
		t.Errorf("User-Agent = %q", put.userAgent)
	}

	cal, err := ical.NewDecoder(bytes.NewReader(put.body)).Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	events := cal.Events()
	if len(events) != 1 {
		t.Fatalf("object holds %d events, want 1", len(events))
	}
	ev := events[0]
	if uid, _ := ev.Props.Text(ical.PropUID); uid != "2025030300000018002100OperaCarmen" {
		t.Errorf("UID = %q", uid)
	}
	if summary, _ := ev.Props.Text(ical.PropSummary); summary != "Opera: Carmen" {
		t.Errorf("SUMMARY = %q", summary)
	}
	if location, _ := ev.Props.Text(ical.PropLocation); location != "Eiffel Műhelyház, Nagy terem" {
		t.Errorf("LOCATION = %q", location)
	}
	start, err := ev.DateTimeStart(time.UTC)
	if err != nil || !start.Equal(time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC)) {
		t.Errorf("DTSTART = %v, %v", start, err)
	}

	second, err := ical.NewDecoder(bytes.NewReader(fake.puts[1].body)).Decode()
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if loc := second.Events()[0].Props.Get(ical.PropLocation); loc != nil {
		t.Errorf("event without location has LOCATION %q", loc.Value)
	}
}

func TestPublish_ContinuesAfterFailure(t *testing.T) {
	fake := &fakeServer{fail: map[string]bool{
		"/calendars/jane/opera/2025030300000018002100OperaCarmen.ics": true,
	}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	n, err := newTestClient(t, srv).Publish(context.Background(), testEvents())
	if err == nil {
		t.Fatal("Publish succeeded despite a failed PUT")
	}
	if n != 1 {
		t.Errorf("published %d events, want 1", n)
	}
	if len(fake.puts) != 2 {
		t.Errorf("server saw %d PUTs, want 2", len(fake.puts))
	}
}

func TestMatchCalendar(t *testing.T) {
	calendars := []caldav.Calendar{
		{Path: "/123/calendars/home/", Name: "Home"},
		{Path: "/123/calendars/opera/", Name: "Opera"},
	}

	got, err := matchCalendar(calendars, "Opera")
	if err != nil {
		t.Fatalf("matchCalendar: %v", err)
	}
	if got != "/123/calendars/opera/" {
		t.Errorf("path = %q", got)
	}

	if _, err := matchCalendar(calendars, "Work"); !errors.Is(err, ErrCalendarNotFound) {
		t.Errorf("matchCalendar error = %v, want ErrCalendarNotFound", err)
	}
}
