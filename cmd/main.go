package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cetldigest/internal/calendar"
	"cetldigest/internal/config"
	"cetldigest/internal/digest"
	"cetldigest/internal/eventbrite"
	"cetldigest/internal/mailer"
	"cetldigest/internal/runner"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "cetldigest",
		Usage: "Send the weekly CETL events digest email.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   config.DefaultPath,
				Usage:   "Path to the YAML config file.",
				EnvVars: []string{"CETLDIGEST_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			sendCommand(),
			previewCommand(),
			exportCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		if stage, ok := digest.StageOf(err); ok {
			slog.Error("Application failed", "stage", stage, "error", err)
		} else {
			slog.Error("Application failed", "error", err)
		}
		os.Exit(1)
	}
}

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:  "send",
		Usage: "Build the digest and email it.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "Log the email instead of sending it."},
			&cli.StringFlag{Name: "cron", Usage: "Keep running and send on this cron schedule (e.g. \"0 6 * * 1\")."},
			&cli.BoolFlag{Name: "scheduled", Usage: "Keep running and send on the schedule from the config file."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			if c.Bool("dry-run") {
				logger.Info("Performing a dry run. No email will be sent.")
				cfg.Mail.Provider = "log"
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			r, err := newRunner(ctx, logger, cfg)
			if err != nil {
				return err
			}

			spec := c.String("cron")
			if spec == "" && c.Bool("scheduled") {
				spec = cfg.Schedule
			}
			if spec != "" {
				return r.Schedule(ctx, spec)
			}

			logger.Info("Running a single digest run.")
			if err := r.Run(ctx); err != nil {
				return fmt.Errorf("digest run failed: %w", err)
			}
			return nil
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Build the digest and write the HTML body without sending it.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "Write the HTML to this file instead of stdout."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			cfg.Mail.Provider = "log"
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			r, err := newRunner(c.Context, logger, cfg)
			if err != nil {
				return err
			}
			out, err := r.Prepare(c.Context)
			if err != nil {
				return fmt.Errorf("failed to build digest: %w", err)
			}

			return writeOutput(c.String("out"), []byte(out.Body))
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write this week's events as an iCalendar file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Usage: "Write the .ics to this file instead of stdout."},
			&cli.BoolFlag{Name: "publish", Usage: "Also upload the file to the configured WebDAV collection."},
		},
		Action: func(c *cli.Context) error {
			cfg, logger, err := loadConfig(c)
			if err != nil {
				return err
			}
			cfg.Mail.Provider = "log"
			cfg.Mail.AttachCalendar = true
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			r, err := newRunner(c.Context, logger, cfg)
			if err != nil {
				return err
			}
			out, err := r.Prepare(c.Context)
			if err != nil {
				return fmt.Errorf("failed to build digest: %w", err)
			}

			if out.Calendar == nil {
				if len(out.Digest.Groups) == 0 {
					logger.Warn("No events in window, nothing to export.")
					return nil
				}
				return fmt.Errorf("failed to build calendar feed")
			}

			if c.Bool("publish") {
				pub, err := newPublisher(logger, cfg)
				if err != nil {
					return err
				}
				if pub == nil {
					return fmt.Errorf("calendar.publish_url is not set")
				}
				if err := pub.Publish(c.Context, cfg.Calendar.FileName, out.Calendar); err != nil {
					return err
				}
			}
			return writeOutput(c.String("out"), out.Calendar)
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := setupLogger(cfg.LogLevel)
	logger.Debug("Loaded configuration",
		"timezone", cfg.Timezone,
		"window_days", cfg.WindowDays,
		"provider", cfg.Mail.Provider,
		"organization_id", cfg.Eventbrite.OrganizationID,
		"organizer_id", cfg.Eventbrite.OrganizerID,
	)
	return cfg, logger, nil
}

func newRunner(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*runner.Runner, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	source := eventbrite.NewClient(ctx, logger, cfg.Eventbrite.BaseURL, cfg.Eventbrite.Token, loc)

	provider, err := mailer.New(ctx, logger, cfg.Mail.Provider, mailer.Options{
		SendGridAPIKey: cfg.Mail.SendGridAPIKey,
		SendGridHost:   cfg.Mail.SendGridHost,
		ResendAPIKey:   cfg.Mail.ResendAPIKey,
		SESRegion:      cfg.Mail.SESRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create mail provider: %w", err)
	}

	pub, err := newPublisher(logger, cfg)
	if err != nil {
		return nil, err
	}
	// A nil *Publisher must not become a non-nil interface.
	var publisher runner.Publisher
	if pub != nil {
		publisher = pub
	}

	r, err := runner.NewRunner(logger, cfg, source, provider, publisher)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	return r, nil
}

func newPublisher(logger *slog.Logger, cfg *config.Config) (*calendar.Publisher, error) {
	if cfg.Calendar.PublishURL == "" {
		return nil, nil
	}
	pub, err := calendar.NewPublisher(logger, cfg.Calendar.PublishURL, cfg.Calendar.Username, cfg.Calendar.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar publisher: %w", err)
	}
	return pub, nil
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
