package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"schedcal/internal/config"
	"schedcal/internal/logger"
	"schedcal/internal/models"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const (
	credentialsFile = "credentials.json"
)

// CalendarClient provides a client for interacting with the Google Calendar API.
type CalendarClient struct {
	service  *calendar.Service
	logger   *logger.Logger
	timeZone string
}

// CalendarInfo is one entry of the account's calendar list.
type CalendarInfo struct {
	ID      string
	Summary string
	Primary bool
}

// NewClient creates a new Google Calendar client.
// It loads the OAuth credentials and the token saved by the auth command
// for cfg.Account (token-<account>.json). Imported events are labelled
// with timeZone.
func NewClient(ctx context.Context, l *logger.Logger, cfg config.GoogleConfig, timeZone string) (*CalendarClient, error) {
	oauthConfig, err := getOAuthConfig(cfg.ClientID, cfg.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	tokenFile := TokenFile(cfg.Account)
	token, err := tokenFromFile(tokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token for account %s: %w. Please run the 'auth' command first", cfg.Account, err)
	}

	client := oauthConfig.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return newClient(l, service, timeZone), nil
}

func newClient(l *logger.Logger, service *calendar.Service, timeZone string) *CalendarClient {
	return &CalendarClient{service: service, logger: l, timeZone: timeZone}
}

// ImportEvents imports events into calendarID keyed by their iCalendar UID,
// so importing an unchanged event again updates it in place. Failures are
// logged and the remaining events are still attempted.
func (c *CalendarClient) ImportEvents(ctx context.Context, calendarID string, events []models.Event) (int, error) {
	imported := 0
	var errs []error

	for _, event := range events {
		c.logger.Debug("Importing event.", "uid", event.UID, "calendarID", calendarID)

		_, err := c.service.Events.Import(calendarID, c.toGoogleEvent(event)).Context(ctx).Do()
		if err != nil {
			c.logger.Error("Failed to import event.", "uid", event.UID, "error", err)
			errs = append(errs, fmt.Errorf("event %s: %w", event.UID, err))
			continue
		}
		imported++
	}

	c.logger.Info("Finished importing events into Google Calendar.", "imported", imported, "calendarID", calendarID)
	if len(errs) > 0 {
		return imported, fmt.Errorf("%d of %d events failed to import: %w", len(errs), len(events), errors.Join(errs...))
	}
	return imported, nil
}

// toGoogleEvent converts an internal Event model to the Calendar API representation.
func (c *CalendarClient) toGoogleEvent(event models.Event) *calendar.Event {
	return &calendar.Event{
		ICalUID:  event.UID,
		Summary:  event.Summary(),
		Location: event.Location,
		Start: &calendar.EventDateTime{
			DateTime: event.Start.UTC().Format(time.RFC3339),
			TimeZone: c.timeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: event.End.UTC().Format(time.RFC3339),
			TimeZone: c.timeZone,
		},
	}
}

// ListCalendars finds all calendars associated with the authenticated account.
func (c *CalendarClient) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}

	calendars := make([]CalendarInfo, 0, len(list.Items))
	for _, item := range list.Items {
		calendars = append(calendars, CalendarInfo{ID: item.Id, Summary: item.Summary, Primary: item.Primary})
	}
	return calendars, nil
}

// GetOAuthConfigForAuthFlow is used by the auth command to get the config for the web flow.
func GetOAuthConfigForAuthFlow(clientID, clientSecret string) (*oauth2.Config, error) {
	return getOAuthConfig(clientID, clientSecret)
}

// getOAuthConfig reads credentials and returns an OAuth2 config.
// It prioritizes explicit client credentials over a local credentials.json file.
func getOAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("credentials.json not found. Please set google.client_id and google.client_secret (or GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET) or place credentials.json in the working directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(b, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	oauthConfig.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return oauthConfig, nil
}

// TokenFile names the token file for an account.
func TokenFile(account string) string {
	return fmt.Sprintf("token-%s.json", account)
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(ctx context.Context, oauthConfig *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return oauthConfig.Exchange(ctx, authCode)
}

// SaveToken saves a token to a file path readable only by the owner.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
