package main

import (
	"bufio"
	"fmt"
	"schedcal/internal/caldav"
	"schedcal/internal/converter"
	"schedcal/internal/google"
	"schedcal/internal/ics"
	"schedcal/internal/report"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:         "convert",
		Usage:        "Write the performances PARTICIPANT is marked on as an iCalendar file.",
		ArgsUsage:    "INPUT_FILE PARTICIPANT",
		OnUsageError: onUsageError,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output path. Defaults to INPUT_FILE plus the configured suffix."},
			&cli.TimestampFlag{Name: "now", Layout: time.RFC3339, Usage: "Reference time for year resolution and DTSTAMP, e.g. 2025-02-01T10:00:00Z."},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				_ = cli.ShowSubcommandHelp(c)
				return fmt.Errorf("%w: expected INPUT_FILE and PARTICIPANT", errUsage)
			}
			return runConvert(c, c.String("output"))
		},
	}
}

func runConvert(c *cli.Context, output string) error {
	input, participant := c.Args().Get(0), c.Args().Get(1)
	if strings.TrimSpace(participant) == "" {
		return fmt.Errorf("%w: PARTICIPANT is empty", errUsage)
	}

	cfg, log, err := setup(c)
	if err != nil {
		return err
	}
	if err := requireFile(input); err != nil {
		return err
	}

	conv, err := converter.New(log, cfg)
	if err != nil {
		return err
	}
	if now := c.Timestamp("now"); now != nil {
		ref := *now
		conv.WithNow(func() time.Time { return ref })
	}

	res, err := conv.Run(input, participant, output)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "Written %d events to '%s'.\n", len(res.Events), res.OutputPath)
	return nil
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:         "list",
		Usage:        "Print the performances PARTICIPANT is marked on as a table.",
		ArgsUsage:    "INPUT_FILE PARTICIPANT",
		OnUsageError: onUsageError,
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				_ = cli.ShowSubcommandHelp(c)
				return fmt.Errorf("%w: expected INPUT_FILE and PARTICIPANT", errUsage)
			}
			input, participant := c.Args().Get(0), c.Args().Get(1)

			cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			if err := requireFile(input); err != nil {
				return err
			}

			conv, err := converter.New(log, cfg)
			if err != nil {
				return err
			}
			events, err := conv.Collect(input, participant)
			if err != nil {
				return err
			}

			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			return report.WriteTable(c.App.Writer, events, loc)
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:         "publish",
		Usage:        "Upload the events of a generated calendar to the configured CalDAV collection.",
		ArgsUsage:    "ICS_FILE",
		OnUsageError: onUsageError,
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				_ = cli.ShowSubcommandHelp(c)
				return fmt.Errorf("%w: expected ICS_FILE", errUsage)
			}
			path := c.Args().First()

			cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			if err := cfg.ValidateCalDAV(); err != nil {
				return err
			}
			if err := requireFile(path); err != nil {
				return err
			}

			events, err := ics.LoadFile(path)
			if err != nil {
				return err
			}
			log.Info("Loaded calendar.", "file", path, "events", len(events))

			client, err := caldav.NewClient(c.Context, log, cfg.CalDAV, cfg.ProdID)
			if err != nil {
				return fmt.Errorf("failed to create caldav client: %w", err)
			}

			n, err := client.Publish(c.Context, events)
			fmt.Fprintf(c.App.Writer, "Published %d of %d events.\n", n, len(events))
			return err
		},
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:         "auth",
		Usage:        "Authenticate with a Google account to get an API token.",
		OnUsageError: onUsageError,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "account", Usage: "Account name used for the token file. Defaults to google.account."},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			log.Info("Starting Google authentication flow.")

			account := cfg.Google.Account
			if c.IsSet("account") {
				account = c.String("account")
			}

			oauthConfig, err := google.GetOAuthConfigForAuthFlow(cfg.Google.ClientID, cfg.Google.ClientSecret)
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Fprintf(c.App.Writer, "Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Fprint(c.App.Writer, "Enter Authorization Code: ")
			reader := bufio.NewReader(c.App.Reader)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)
			if authCode == "" {
				return fmt.Errorf("%w: no authorization code entered", errUsage)
			}

			token, err := google.TokenFromWeb(c.Context, oauthConfig, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			tokenFile := google.TokenFile(account)
			if err := google.SaveToken(tokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			log.Info("Successfully authenticated and saved token.", "file", tokenFile)
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:         "import",
		Usage:        "Import the events of a generated calendar into Google Calendar.",
		ArgsUsage:    "ICS_FILE",
		OnUsageError: onUsageError,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "calendar", Usage: "Google calendar ID. Defaults to google.calendar_id."},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				_ = cli.ShowSubcommandHelp(c)
				return fmt.Errorf("%w: expected ICS_FILE", errUsage)
			}
			path := c.Args().First()

			cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			if c.IsSet("calendar") {
				cfg.Google.CalendarID = c.String("calendar")
			}
			if err := cfg.ValidateGoogle(); err != nil {
				return err
			}
			if err := requireFile(path); err != nil {
				return err
			}

			events, err := ics.LoadFile(path)
			if err != nil {
				return err
			}
			log.Info("Loaded calendar.", "file", path, "events", len(events))

			client, err := google.NewClient(c.Context, log, cfg.Google, cfg.Timezone)
			if err != nil {
				return fmt.Errorf("failed to create google client: %w", err)
			}

			n, err := client.ImportEvents(c.Context, cfg.Google.CalendarID, events)
			fmt.Fprintf(c.App.Writer, "Imported %d of %d events.\n", n, len(events))
			return err
		},
	}
}

func calendarsCommand() *cli.Command {
	return &cli.Command{
		Name:         "calendars",
		Usage:        "List the Google calendars of the authenticated account.",
		OnUsageError: onUsageError,
		Action: func(c *cli.Context) error {
			cfg, log, err := setup(c)
			if err != nil {
				return err
			}
			if err := cfg.ValidateGoogle(); err != nil {
				return err
			}

			client, err := google.NewClient(c.Context, log, cfg.Google, cfg.Timezone)
			if err != nil {
				return fmt.Errorf("failed to create google client: %w", err)
			}

			calendars, err := client.ListCalendars(c.Context)
			if err != nil {
				return err
			}
			for _, cal := range calendars {
				marker := " "
				if cal.Primary {
					marker = "*"
				}
				fmt.Fprintf(c.App.Writer, "%s %s\t%s\n", marker, cal.ID, cal.Summary)
			}
			return nil
		},
	}
}
