package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPath        = "config.yaml"
	DefaultBoilerplate = "Workshops for all instructors of record, including Lecturers and graduate Teaching Assistants."
)

// EventbriteConfig describes where events are read from.
type EventbriteConfig struct {
	BaseURL        string `yaml:"base_url"`
	Token          string `yaml:"token"`
	OrganizationID string `yaml:"organization_id"`
	// OrganizerID scopes which events of the organization end up in the digest.
	OrganizerID string `yaml:"organizer_id"`
}

// MailConfig describes how the digest is delivered.
type MailConfig struct {
	// Provider is one of "sendgrid", "resend", "ses" or "log".
	Provider        string `yaml:"provider"`
	From            string `yaml:"from"`
	RecipientsFile  string `yaml:"recipients_file"`
	Department      string `yaml:"department"`
	SourceTag       string `yaml:"source_tag"`
	SubjectSpanDays int    `yaml:"subject_span_days"`

	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	SendGridHost   string `yaml:"sendgrid_host"`
	ResendAPIKey   string `yaml:"resend_api_key"`
	SESRegion      string `yaml:"ses_region"`

	// SkipEmptyBody gates the send on a non-blank body instead of only
	// warning after the message went out.
	SkipEmptyBody bool `yaml:"skip_empty_body"`
	// StrictDelivery makes a failed send fail the whole run.
	StrictDelivery bool `yaml:"strict_delivery"`
	AttachCalendar bool `yaml:"attach_calendar"`
}

// DigestConfig controls how the HTML body is assembled.
type DigestConfig struct {
	BannerURL   string `yaml:"banner_url"`
	Heading     string `yaml:"heading"`
	// Boilerplate is stripped from every description. Empty means the default.
	Boilerplate string `yaml:"boilerplate"`
	// ConflictPolicy is "last-wins" (default), "first-wins" or "error".
	ConflictPolicy string `yaml:"conflict_policy"`
}

// CalendarConfig holds the optional WebDAV target for the .ics feed.
type CalendarConfig struct {
	PublishURL string `yaml:"publish_url"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	FileName   string `yaml:"file_name"`
}

// Config is the top-level application configuration.
type Config struct {
	// Timezone is the IANA zone event times and the digest window are read in.
	Timezone   string `yaml:"timezone"`
	WindowDays int    `yaml:"window_days"`
	// Schedule is the cron expression used by "send --scheduled".
	Schedule string `yaml:"schedule"`
	LogLevel string `yaml:"log_level"`

	Eventbrite EventbriteConfig `yaml:"eventbrite"`
	Mail       MailConfig       `yaml:"mail"`
	Digest     DigestConfig     `yaml:"digest"`
	Calendar   CalendarConfig   `yaml:"calendar"`
}

// DefaultConfig returns the configuration used for the CETL weekly email.
func DefaultConfig() *Config {
	return &Config{
		Timezone:   "America/Los_Angeles",
		WindowDays: 7,
		Schedule:   "0 6 * * 1",
		LogLevel:   "info",
		Eventbrite: EventbriteConfig{
			BaseURL:        "https://www.eventbriteapi.com/v3",
			OrganizationID: "58546560081",
			OrganizerID:    "3741604165",
		},
		Mail: MailConfig{
			Provider:        "sendgrid",
			From:            "cetltech@calstatela.edu",
			RecipientsFile:  "recipients.txt",
			Department:      "CETL",
			SourceTag:       "FDMS",
			SubjectSpanDays: 4,
			SendGridHost:    "https://api.sendgrid.com",
			SESRegion:       "us-east-1",
		},
		Digest: DigestConfig{
			BannerURL:      "https://fdms.online/images/cetl_banner.png",
			Heading:        "This week at CETL",
			Boilerplate:    DefaultBoilerplate,
			ConflictPolicy: "last-wins",
		},
		Calendar: CalendarConfig{
			FileName: "cetl-week.ics",
		},
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled config files still behave.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.WindowDays <= 0 {
		c.WindowDays = d.WindowDays
	}
	if c.Schedule == "" {
		c.Schedule = d.Schedule
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}

	if c.Eventbrite.BaseURL == "" {
		c.Eventbrite.BaseURL = d.Eventbrite.BaseURL
	}
	c.Eventbrite.BaseURL = strings.TrimSuffix(c.Eventbrite.BaseURL, "/")
	if c.Eventbrite.OrganizationID == "" {
		c.Eventbrite.OrganizationID = d.Eventbrite.OrganizationID
	}
	if c.Eventbrite.OrganizerID == "" {
		c.Eventbrite.OrganizerID = d.Eventbrite.OrganizerID
	}

	c.Mail.Provider = strings.ToLower(strings.TrimSpace(c.Mail.Provider))
	if c.Mail.Provider == "" {
		c.Mail.Provider = d.Mail.Provider
	}
	if c.Mail.From == "" {
		c.Mail.From = d.Mail.From
	}
	if c.Mail.RecipientsFile == "" {
		c.Mail.RecipientsFile = d.Mail.RecipientsFile
	}
	if c.Mail.Department == "" {
		c.Mail.Department = d.Mail.Department
	}
	if c.Mail.SourceTag == "" {
		c.Mail.SourceTag = d.Mail.SourceTag
	}
	if c.Mail.SubjectSpanDays <= 0 {
		c.Mail.SubjectSpanDays = d.Mail.SubjectSpanDays
	}
	if c.Mail.SendGridHost == "" {
		c.Mail.SendGridHost = d.Mail.SendGridHost
	}
	if c.Mail.SESRegion == "" {
		c.Mail.SESRegion = d.Mail.SESRegion
	}

	if c.Digest.BannerURL == "" {
		c.Digest.BannerURL = d.Digest.BannerURL
	}
	if c.Digest.Heading == "" {
		c.Digest.Heading = d.Digest.Heading
	}
	if c.Digest.Boilerplate == "" {
		c.Digest.Boilerplate = d.Digest.Boilerplate
	}
	if c.Digest.ConflictPolicy == "" {
		c.Digest.ConflictPolicy = d.Digest.ConflictPolicy
	}

	if c.Calendar.FileName == "" {
		c.Calendar.FileName = d.Calendar.FileName
	}
}

// Load reads the YAML config at path. A missing file yields the defaults.
// Environment overrides are applied after the file is read.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, fs.ErrNotExist):
			// No file: run on defaults plus environment.
		default:
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)
	cfg.Normalize()
	return cfg, nil
}

// ApplyEnv overrides secrets and a few settings from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("EVENTBRITE_TOKEN", &c.Eventbrite.Token)
	set("SENDGRID_API_KEY", &c.Mail.SendGridAPIKey)
	set("RESEND_API_KEY", &c.Mail.ResendAPIKey)
	set("AWS_REGION", &c.Mail.SESRegion)
	set("MAIL_PROVIDER", &c.Mail.Provider)
	set("RECIPIENTS_FILE", &c.Mail.RecipientsFile)
	set("CALDAV_USERNAME", &c.Calendar.Username)
	set("CALDAV_PASSWORD", &c.Calendar.Password)
	set("LOG_LEVEL", &c.LogLevel)
	set("TZ_NAME", &c.Timezone)
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks that everything needed for a run is present.
func (c *Config) Validate() error {
	var errs []error
	if c.Eventbrite.Token == "" {
		errs = append(errs, errors.New("eventbrite token is not set (EVENTBRITE_TOKEN)"))
	}
	if c.Eventbrite.OrganizationID == "" {
		errs = append(errs, errors.New("eventbrite organization_id is not set"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	switch c.Mail.Provider {
	case "sendgrid":
		if c.Mail.SendGridAPIKey == "" {
			errs = append(errs, errors.New("sendgrid api key is not set (SENDGRID_API_KEY)"))
		}
	case "resend":
		if c.Mail.ResendAPIKey == "" {
			errs = append(errs, errors.New("resend api key is not set (RESEND_API_KEY)"))
		}
	case "ses", "log":
	default:
		errs = append(errs, fmt.Errorf("unknown mail provider %q", c.Mail.Provider))
	}
	return errors.Join(errs...)
}
