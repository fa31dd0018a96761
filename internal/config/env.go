package config

import (
	"fmt"
	"strconv"
	"time"
)

// Environment variable names.
const (
	EnvDatabasePath       = "APP_DB_PATH"
	EnvAPIBaseURL         = "PROCESSOR_API_BASE_URL"
	EnvWebhookURL         = "PROCESSOR_WEBHOOK_ENDPOINT"
	EnvRequestTimeout     = "PROCESSOR_REQUEST_TIMEOUT"
	EnvAWSRegion          = "AWS_REGION"
	EnvS3Bucket           = "S3_BUCKET"
	EnvS3BaseEndpoint     = "S3_BASE_ENDPOINT"
	EnvSMTPServer         = "SMTP_SERVER"
	EnvSMTPPort           = "SMTP_PORT"
	EnvSMTPSender         = "SMTP_SENDER"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFile            = "LOG_FILE"
	EnvAPIKey             = "PROCESSOR_API_KEY"
	EnvWebhookSecret      = "PROCESSOR_WEBHOOK_SECRET"
	EnvSMTPPassword       = "SMTP_PASSWORD"
	EnvAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvAWSSessionToken    = "AWS_SESSION_TOKEN"
	EnvProtectionKey      = "APP_DATA_PROTECTION_KEY"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// parseEnv overlays environment values on config. Unset variables leave the
// current value alone; set-but-empty secrets stay empty so that callers treat
// them as missing.
func parseEnv(config *Config, lookup LookupFunc) error {
	strs := map[string]*string{
		EnvDatabasePath:       &config.DatabaseDSN,
		EnvAPIBaseURL:         &config.APIBaseURL,
		EnvWebhookURL:         &config.WebhookURL,
		EnvAWSRegion:          &config.AWSRegion,
		EnvS3Bucket:           &config.S3Bucket,
		EnvS3BaseEndpoint:     &config.S3BaseEndpoint,
		EnvSMTPServer:         &config.SMTPHost,
		EnvSMTPSender:         &config.SMTPSender,
		EnvLogLevel:           &config.LogLevel,
		EnvLogFile:            &config.LogFile,
		EnvAPIKey:             &config.APIKey,
		EnvWebhookSecret:      &config.WebhookSecret,
		EnvSMTPPassword:       &config.SMTPPassword,
		EnvAWSAccessKeyID:     &config.AWSAccessKeyID,
		EnvAWSSecretAccessKey: &config.AWSSecretAccessKey,
		EnvAWSSessionToken:    &config.AWSSessionToken,
		EnvProtectionKey:      &config.ProtectionKey,
	}
	for name, dst := range strs {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}

	if v, ok := lookup(EnvRequestTimeout); ok && v != "" {
		seconds, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRequestTimeout, err)
		}
		config.RequestTimeout = time.Duration(seconds * float64(time.Second))
	}

	if v, ok := lookup(EnvSMTPPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvSMTPPort, err)
		}
		config.SMTPPort = port
	}

	return nil
}
