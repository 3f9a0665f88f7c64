package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"schedcal/internal/config"
	"schedcal/internal/logger"
	"schedcal/internal/schedule"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

// Exit codes by error class.
const (
	exitFailure           = 1
	exitUsage             = 2
	exitInputNotFound     = 3
	exitParticipantAbsent = 4
	exitParse             = 5
	exitMalformedMarker   = 6
)

var (
	errUsage         = errors.New("invalid usage")
	errInputNotFound = errors.New("input file not found")
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := newApp(os.Stdin, os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(exitCode(err))
	}
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "schedcal",
		Usage:     "Convert a theatre schedule export into an iCalendar file for one participant.",
		ArgsUsage: "INPUT_FILE PARTICIPANT",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"SCHEDCAL_CONFIG"}, Usage: "Path to a YAML configuration file."},
			&cli.StringFlag{Name: "log-level", Usage: "Log level: debug, info, warn or error. Overrides the configuration."},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				_ = cli.ShowAppHelp(c)
				return fmt.Errorf("%w: expected INPUT_FILE and PARTICIPANT", errUsage)
			}
			return runConvert(c, "")
		},
		OnUsageError: onUsageError,
		Commands: []*cli.Command{
			convertCommand(),
			listCommand(),
			publishCommand(),
			authCommand(),
			importCommand(),
			calendarsCommand(),
		},
	}
}

// onUsageError classifies flag parsing failures as usage errors.
func onUsageError(c *cli.Context, err error, isSubcommand bool) error {
	return fmt.Errorf("%w: %v", errUsage, err)
}

// setup loads the configuration named by --config and builds the logger.
func setup(c *cli.Context) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	l := logger.NewWithWriter(c.App.ErrWriter, cfg.LogLevel)
	if c.IsSet("log-level") {
		l.SetLevel(c.String("log-level"))
	}
	slog.SetDefault(l.Slog())
	return cfg, l, nil
}

// requireFile reports a missing input file as errInputNotFound.
func requireFile(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", errInputNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", errInputNotFound, path)
	}
	return nil
}

func exitCode(err error) int {
	var parseErr *schedule.ParseError
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		return exitUsage
	case errors.Is(err, errInputNotFound):
		return exitInputNotFound
	case errors.Is(err, schedule.ErrParticipantNotFound):
		return exitParticipantAbsent
	case errors.As(err, &parseErr):
		return exitParse
	case errors.Is(err, schedule.ErrMalformedMarker):
		return exitMalformedMarker
	default:
		return exitFailure
	}
}
