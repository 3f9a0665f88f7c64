// Package config provides configuration loading for schedcal.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidTimezone   = errors.New("timezone must be a valid IANA zone name")
	ErrInvalidLocale     = errors.New("locale must be one of: hu, en")
	ErrMissingSuffix     = errors.New("output_suffix is required")
	ErrMissingProdID     = errors.New("prod_id is required")
	ErrMissingRoomWord   = errors.New("room_keyword is required when building is set")
	ErrInvalidLogLevel   = errors.New("log_level must be one of: debug, info, warn, error")
	ErrMissingCalDAV     = errors.New("caldav.endpoint and one of caldav.calendar or caldav.calendar_path are required")
	ErrMissingGoogleCal  = errors.New("google.calendar_id is required")
	ErrMissingGoogleAcct = errors.New("google.account is required")
)

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone every wall-clock time in the schedule is expressed in.
	Timezone string `yaml:"timezone"`

	// Locale selects the month names used in the date column ("hu" or "en").
	Locale string `yaml:"locale"`

	// ProdID is written as the PRODID of generated calendars.
	ProdID string `yaml:"prod_id"`

	// OutputSuffix is appended to the input path to name the output file.
	OutputSuffix string `yaml:"output_suffix"`

	// Building is prefixed to venues that contain RoomKeyword, so that map
	// applications can find rooms that are not on the main stage.
	Building    string `yaml:"building"`
	RoomKeyword string `yaml:"room_keyword"`

	LogLevel string `yaml:"log_level"`

	CalDAV CalDAVConfig `yaml:"caldav"`
	Google GoogleConfig `yaml:"google"`
}

// CalDAVConfig describes the collection `publish` writes to.
type CalDAVConfig struct {
	Endpoint string `yaml:"endpoint"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Calendar is the display name looked up through CalDAV discovery.
	Calendar string `yaml:"calendar"`
	// CalendarPath, if set, is used directly and skips discovery.
	CalendarPath string `yaml:"calendar_path"`
}

// GoogleConfig describes the Google calendar `import` writes to.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CalendarID   string `yaml:"calendar_id"`
	// Account names the token file, token-<account>.json.
	Account string `yaml:"account"`
}

// DefaultConfig returns the configuration matching the Hungarian State Opera's exports.
func DefaultConfig() *Config {
	return &Config{
		Timezone:     "Europe/Budapest",
		Locale:       "hu",
		ProdID:       "-//schedcal//EN",
		OutputSuffix: ".ics",
		Building:     "Eiffel Műhelyház",
		RoomKeyword:  "terem",
		LogLevel:     "info",
		CalDAV: CalDAVConfig{
			Endpoint: "https://caldav.icloud.com/",
		},
		Google: GoogleConfig{
			CalendarID: "primary",
			Account:    "default",
		},
	}
}

// Normalize fills in missing values with defaults so that partial files still work.
func (c *Config) Normalize() {
	def := DefaultConfig()

	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.Locale == "" {
		c.Locale = def.Locale
	}
	if c.ProdID == "" {
		c.ProdID = def.ProdID
	}
	if c.OutputSuffix == "" {
		c.OutputSuffix = def.OutputSuffix
	}
	if c.Building == "" && c.RoomKeyword == "" {
		c.Building = def.Building
		c.RoomKeyword = def.RoomKeyword
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.CalDAV.Endpoint == "" {
		c.CalDAV.Endpoint = def.CalDAV.Endpoint
	}
	if c.Google.CalendarID == "" {
		c.Google.CalendarID = def.Google.CalendarID
	}
	if c.Google.Account == "" {
		c.Google.Account = def.Google.Account
	}
}

// Validate checks the settings every conversion needs.
// Publishing targets are checked separately by ValidateCalDAV and ValidateGoogle.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil || c.Timezone == "" {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Timezone)
	}

	switch c.Locale {
	case "hu", "en":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLocale, c.Locale)
	}

	if c.OutputSuffix == "" {
		return ErrMissingSuffix
	}
	if c.ProdID == "" {
		return ErrMissingProdID
	}
	if c.Building != "" && c.RoomKeyword == "" {
		return ErrMissingRoomWord
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

// ValidateCalDAV checks the settings needed by the publish command.
func (c *Config) ValidateCalDAV() error {
	if c.CalDAV.Endpoint == "" || (c.CalDAV.Calendar == "" && c.CalDAV.CalendarPath == "") {
		return ErrMissingCalDAV
	}
	return nil
}

// ValidateGoogle checks the settings needed by the import command.
func (c *Config) ValidateGoogle() error {
	if c.Google.CalendarID == "" {
		return ErrMissingGoogleCal
	}
	if c.Google.Account == "" {
		return ErrMissingGoogleAcct
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, c.Timezone)
	}
	return loc, nil
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. An empty path yields the defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.ApplyEnv()
	cfg.Normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides values with any non-empty environment variables.
func (c *Config) ApplyEnv() {
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	override(&c.Timezone, "SCHEDCAL_TIMEZONE")
	override(&c.Locale, "SCHEDCAL_LOCALE")
	override(&c.Building, "SCHEDCAL_BUILDING")
	override(&c.RoomKeyword, "SCHEDCAL_ROOM_KEYWORD")
	override(&c.LogLevel, "LOG_LEVEL")

	override(&c.CalDAV.Endpoint, "CALDAV_ENDPOINT")
	override(&c.CalDAV.Username, "CALDAV_USERNAME")
	override(&c.CalDAV.Password, "CALDAV_PASSWORD")
	override(&c.CalDAV.Calendar, "CALDAV_CALENDAR")
	override(&c.CalDAV.CalendarPath, "CALDAV_CALENDAR_PATH")

	override(&c.Google.ClientID, "GOOGLE_CLIENT_ID")
	override(&c.Google.ClientSecret, "GOOGLE_CLIENT_SECRET")
	override(&c.Google.CalendarID, "GOOGLE_CALENDAR_ID")
	override(&c.Google.Account, "GOOGLE_ACCOUNT")
}
