// Package config builds the processor configuration: defaults, then an
// optional JSON file, then environment variables (a .env file is honoured),
// then command-line flags. Secrets are only ever read from the environment.
//
// The resulting Config is built once at startup and treated as read-only by
// every component that receives it.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the processor.
type Config struct {
	// DatabaseDSN is a SQLite file path or a postgres:// URL.
	DatabaseDSN    string
	APIBaseURL     string
	WebhookURL     string
	RequestTimeout time.Duration

	AWSRegion      string
	S3Bucket       string
	S3BaseEndpoint string

	SMTPHost   string
	SMTPPort   int
	SMTPSender string

	LogLevel string
	LogFile  string

	// One-shot actions requested on the command line.
	EventsFile      string
	UploadFile      string
	NotifyRecipient string

	// Secrets. Populated from the environment only.
	APIKey             string
	WebhookSecret      string
	SMTPPassword       string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSSessionToken    string
	ProtectionKey      string
}

// LoadDefaults populates Config with the built-in defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "app_data.db"
	c.APIBaseURL = "https://api.production-service.com/v1"
	c.WebhookURL = "https://internal-webhook.company.com/process"
	c.RequestTimeout = 5 * time.Second
	c.AWSRegion = "us-east-1"
	c.S3Bucket = "company-sensitive-data"
	c.SMTPHost = "smtp.gmail.com"
	c.SMTPPort = 587
	c.SMTPSender = "notifications@company.com"
	c.LogLevel = "debug"
}

// Validate rejects settings no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database location is empty"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
		errs = append(errs, fmt.Errorf("smtp port out of range: %d", c.SMTPPort))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, the JSON file named by -c/-config,
// the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg); err != nil {
		return nil, err
	}

	// a missing .env file is normal; variables already set in the process win
	_ = godotenv.Load()
	if err := parseEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
