// Package caldav publishes converted events to a CalDAV calendar collection.
package caldav

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"schedcal/internal/config"
	"schedcal/internal/logger"
	"schedcal/internal/models"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav"
	"github.com/emersion/go-webdav/caldav"
)

// ErrCalendarNotFound is returned when discovery finds no calendar with the configured name.
var ErrCalendarNotFound = errors.New("calendar not found")

// customTransport handles adding Basic Auth and custom headers to requests.
type customTransport struct {
	Username  string
	Password  string
	Transport http.RoundTripper
}

// RoundTrip adds required headers and authentication to each request.
func (t *customTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Username != "" || t.Password != "" {
		req.SetBasicAuth(t.Username, t.Password)
	}
	req.Header.Set("User-Agent", "schedcal/1.0")
	return t.Transport.RoundTrip(req)
}

// Client writes calendar objects into one collection.
type Client struct {
	caldavClient *caldav.Client
	logger       *logger.Logger
	calendarPath string
	prodID       string
}

// NewClient connects to cfg.Endpoint. When cfg.CalendarPath is empty the
// collection is found by display name through principal discovery.
func NewClient(ctx context.Context, l *logger.Logger, cfg config.CalDAVConfig, prodID string) (*Client, error) {
	transport := &customTransport{
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: http.DefaultTransport,
	}
	var httpClient webdav.HTTPClient = &http.Client{Transport: transport}

	caldavClient, err := caldav.NewClient(httpClient, cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	c := &Client{
		caldavClient: caldavClient,
		logger:       l,
		calendarPath: cfg.CalendarPath,
		prodID:       prodID,
	}

	if c.calendarPath == "" {
		l.Info("Finding CalDAV calendar.", "calendar", cfg.Calendar)
		p, err := c.findCalendar(ctx, cfg.Calendar)
		if err != nil {
			return nil, fmt.Errorf("could not find calendar '%s': %w", cfg.Calendar, err)
		}
		c.calendarPath = p
	}
	l.Info("Using CalDAV calendar.", "path", c.calendarPath)

	return c, nil
}

// Publish writes every event as <uid>.ics. Re-publishing an unchanged
// event overwrites the same object. Failures are logged and counted and
// the remaining events are still attempted.
func (c *Client) Publish(ctx context.Context, events []models.Event) (int, error) {
	published := 0
	var errs []error

	for _, event := range events {
		if err := c.PutEvent(ctx, event); err != nil {
			c.logger.Error("Failed to publish event.", "uid", event.UID, "error", err)
			errs = append(errs, err)
			continue
		}
		published++
	}

	if len(errs) > 0 {
		return published, fmt.Errorf("%d of %d events failed to publish: %w", len(errs), len(events), errors.Join(errs...))
	}
	return published, nil
}

// PutEvent stores a single event.
func (c *Client) PutEvent(ctx context.Context, event models.Event) error {
	objectPath := path.Join(c.calendarPath, event.UID+".ics")
	c.logger.Debug("Publishing event.", "uid", event.UID, "path", objectPath)

	if _, err := c.caldavClient.PutCalendarObject(ctx, objectPath, c.toCalendar(event)); err != nil {
		return fmt.Errorf("failed to put %s: %w", objectPath, err)
	}
	return nil
}

// toCalendar wraps one event in its own VCALENDAR, as CalDAV stores one object per resource.
func (c *Client) toCalendar(event models.Event) *ical.Calendar {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.UID)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, event.Stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.Start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.End.UTC())
	ve.Props.SetText(ical.PropSummary, event.Summary())
	if event.Location != "" {
		ve.Props.SetText(ical.PropLocation, event.Location)
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, c.prodID)
	cal.Children = append(cal.Children, ve)
	return cal
}

// findCalendar discovers the user's calendars and returns the path of the one with the matching name.
func (c *Client) findCalendar(ctx context.Context, name string) (string, error) {
	principalPath, err := c.caldavClient.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}

	homeSetPath, err := c.caldavClient.FindCalendarHomeSet(ctx, principalPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}

	calendars, err := c.caldavClient.FindCalendars(ctx, homeSetPath)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}

	return matchCalendar(calendars, name)
}

func matchCalendar(calendars []caldav.Calendar, name string) (string, error) {
	for _, cal := range calendars {
		if cal.Name == name {
			return cal.Path, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrCalendarNotFound, name)
}
