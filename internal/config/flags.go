package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/dataprocessor/internal/flagx"
)

// parseFlags overlays command-line flags on config.
//
// Supported flags:
//
//	-d string     database location (SQLite path or postgres:// URL)
//	-a string     processing API base URL
//	-w string     webhook URL
//	-t float      request timeout, seconds
//	-g string     AWS region
//	-b string     S3 bucket
//	-e string     S3 base endpoint (S3-compatible stores)
//	-s string     SMTP host
//	-p int        SMTP port
//	-f string     SMTP sender address
//	-l string     log level
//	-L string     log file (rotated)
//	-i string     JSON-lines file of inbound events to process
//	-upload path  file to upload to the bucket
//	-notify addr  recipient of a completion email
//
// Only the flags above are taken from args; anything else is ignored so other
// flag consumers (-c) can share the command line.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-d", "-a", "-w", "-t", "-g", "-b", "-e", "-s", "-p", "-f", "-l", "-L", "-i", "-upload", "-notify",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database location")
	fs.StringVar(&config.APIBaseURL, "a", config.APIBaseURL, "processing API base URL")
	fs.StringVar(&config.WebhookURL, "w", config.WebhookURL, "webhook URL")
	timeout := fs.Float64("t", config.RequestTimeout.Seconds(), "request timeout (in seconds)")

	fs.StringVar(&config.AWSRegion, "g", config.AWSRegion, "AWS region")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	fs.StringVar(&config.SMTPHost, "s", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "p", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPSender, "f", config.SMTPSender, "SMTP sender")

	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFile, "L", config.LogFile, "log file")

	fs.StringVar(&config.EventsFile, "i", config.EventsFile, "events file (JSON lines)")
	fs.StringVar(&config.UploadFile, "upload", config.UploadFile, "file to upload")
	fs.StringVar(&config.NotifyRecipient, "notify", config.NotifyRecipient, "notification recipient")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.RequestTimeout = time.Duration(*timeout * float64(time.Second))
	return nil
}
