package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/dataprocessor/internal/flagx"
	"github.com/dmitrijs2005/dataprocessor/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. It carries no
// secret fields: credentials are accepted from the environment only.
// Absent fields keep the value set by earlier layers.
type JsonConfig struct {
	DatabaseDSN    *string         `json:"database_dsn"`
	APIBaseURL     *string         `json:"api_base_url"`
	WebhookURL     *string         `json:"webhook_url"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	AWSRegion      *string         `json:"aws_region"`
	S3Bucket       *string         `json:"s3_bucket"`
	S3BaseEndpoint *string         `json:"s3_base_endpoint"`
	SMTPHost       *string         `json:"smtp_host"`
	SMTPPort       *int            `json:"smtp_port"`
	SMTPSender     *string         `json:"smtp_sender"`
	LogLevel       *string         `json:"log_level"`
	LogFile        *string         `json:"log_file"`
}

// parseJson overlays the file named by -c/-config, if any, on config.
func parseJson(config *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}
	return loadJSONFile(config, path)
}

func loadJSONFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.APIBaseURL, c.APIBaseURL)
	setString(&config.WebhookURL, c.WebhookURL)
	setString(&config.AWSRegion, c.AWSRegion)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.SMTPHost, c.SMTPHost)
	setString(&config.SMTPSender, c.SMTPSender)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFile, c.LogFile)
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	if c.SMTPPort != nil {
		config.SMTPPort = *c.SMTPPort
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
