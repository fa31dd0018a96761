// Package processor wires the record store, the outbound collaborators and the
// event processor into the batch run started by cmd/processor.
package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/dataprocessor/internal/apiclient"
	"github.com/dmitrijs2005/dataprocessor/internal/common"
	"github.com/dmitrijs2005/dataprocessor/internal/config"
	"github.com/dmitrijs2005/dataprocessor/internal/cryptox"
	"github.com/dmitrijs2005/dataprocessor/internal/events"
	"github.com/dmitrijs2005/dataprocessor/internal/logging"
	"github.com/dmitrijs2005/dataprocessor/internal/netx"
	"github.com/dmitrijs2005/dataprocessor/internal/notify"
	"github.com/dmitrijs2005/dataprocessor/internal/objectstore"
	"github.com/dmitrijs2005/dataprocessor/internal/store"
	"github.com/dmitrijs2005/dataprocessor/internal/webhook"
)

// probeRecordID is the record looked up at the start of every run.
const probeRecordID = 1

type App struct {
	config    *config.Config
	logger    logging.Logger
	logCloser io.Closer

	protector  *cryptox.Protector
	httpClient *http.Client
	api        *apiclient.Client
	relay      *webhook.Client
	notifier   *notify.Notifier
}

type Option func(*App)

// WithLogger replaces the logger built from the configuration.
func WithLogger(l logging.Logger) Option {
	return func(app *App) {
		app.logger = l
	}
}

// WithHTTPClient replaces the client used for the processing API and the
// webhook.
func WithHTTPClient(c *http.Client) Option {
	return func(app *App) {
		app.httpClient = c
	}
}

func NewApp(c *config.Config, opts ...Option) (*App, error) {
	app := &App{config: c, logCloser: io.NopCloser(nil)}
	for _, opt := range opts {
		opt(app)
	}

	if app.logger == nil {
		logger, closer, err := logging.New(logging.Options{Level: c.LogLevel, File: c.LogFile})
		if err != nil {
			return nil, fmt.Errorf("logger init error: %w", err)
		}
		app.logger, app.logCloser = logger, closer
	}
	if app.httpClient == nil {
		app.httpClient = netx.NewHTTPClient(c.RequestTimeout, nil)
	}

	app.protector = cryptox.NewProtector([]byte(c.ProtectionKey))
	app.api = apiclient.New(c.APIBaseURL, c.APIKey, app.httpClient, app.logger)
	app.relay = webhook.New(c.WebhookURL, []byte(c.WebhookSecret), app.httpClient, app.logger)
	app.notifier = notify.New(notify.Options{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Sender:   c.SMTPSender,
		Password: c.SMTPPassword,
		Timeout:  c.RequestTimeout,
	}, app.logger)

	app.logger.Debug(context.Background(), "processor initialised",
		"api_key_set", c.APIKey != "",
		"webhook_secret_set", c.WebhookSecret != "",
		"protection_key_set", app.protector.Keyed(),
	)

	return app, nil
}

// Close releases the log file, if any.
func (app *App) Close() error {
	return app.logCloser.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) (stop func()) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	done := make(chan struct{})
	go func() {
		select {
		case <-sigs:
			cancelFunc()
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// Run performs one batch: probe a record, call the processing API, then
// handle the optional event file, upload and notification. Steps that fail
// are logged and do not stop later steps; their errors are joined in the
// return value. Steps skipped for missing configuration are not failures.
// A store that cannot be opened ends the run immediately.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	stop := app.initSignalHandler(cancelFunc)
	defer stop()

	app.logger.Info(ctx, "Starting data processing...")

	st, err := store.Open(ctx, app.config.DatabaseDSN, app.protector, app.logger)
	if err != nil {
		app.logger.Error(ctx, "store unavailable", "error", err)
		return err
	}
	defer st.Close()

	var errs []error
	record := func(step string, err error) {
		if err == nil || errors.Is(err, common.ErrConfigurationMissing) {
			return
		}
		errs = append(errs, fmt.Errorf("%s: %w", step, err))
	}

	record("fetch record", app.probeRecord(ctx, st))
	record("processing API", app.callAPI(ctx))

	var summary *events.Summary
	if app.config.EventsFile != "" {
		s, err := app.processEvents(ctx, st)
		record("events", err)
		summary = s
	}

	uploaded := false
	if app.config.UploadFile != "" {
		err := app.upload(ctx)
		record("upload", err)
		uploaded = err == nil
	}

	if app.config.NotifyRecipient != "" {
		record("notify", app.notify(ctx, summary, uploaded))
	}

	app.logger.Info(ctx, "Processing complete", "failed_steps", len(errs))
	return errors.Join(errs...)
}

func (app *App) probeRecord(ctx context.Context, st *store.Store) error {
	_, err := st.FetchByID(ctx, probeRecordID)
	switch {
	case err == nil:
		app.logger.Info(ctx, "record found", "user_id", probeRecordID)
		return nil
	case errors.Is(err, common.ErrorNotFound):
		app.logger.Info(ctx, "record not found", "user_id", probeRecordID)
		return nil
	default:
		app.logger.Error(ctx, "record lookup failed", "user_id", probeRecordID, "error", err)
		return err
	}
}

func (app *App) callAPI(ctx context.Context) error {
	result, err := app.api.Process(ctx, map[string]any{"test": "data"})
	if err != nil {
		return err
	}
	app.logger.Debug(ctx, "processing API result received", "fields", len(result))
	return nil
}

func (app *App) processEvents(ctx context.Context, st *store.Store) (*events.Summary, error) {
	f, err := os.Open(app.config.EventsFile)
	if err != nil {
		app.logger.Error(ctx, "cannot open events file", "error", err)
		return nil, err
	}
	defer f.Close()

	p := events.NewProcessor(st, app.relay, app.logger)
	summary, err := p.ProcessStream(ctx, f, func(line int, res events.Result) {
		app.logger.Info(ctx, "event handled",
			"line", line,
			"status", string(res.Status),
			"reason", res.Reason,
			"webhook_response", res.WebhookResponse,
		)
	})

	app.logger.Info(ctx, "events file processed",
		"processed", summary.Processed,
		"ignored", summary.Ignored,
		"failed", summary.Failed,
	)
	if err != nil {
		return &summary, err
	}
	if summary.Failed > 0 {
		return &summary, fmt.Errorf("%d of %d events failed", summary.Failed,
			summary.Processed+summary.Ignored+summary.Failed)
	}
	return &summary, nil
}

func (app *App) upload(ctx context.Context) error {
	c := app.config
	u, err := objectstore.New(ctx, objectstore.Options{
		Region:          c.AWSRegion,
		BaseEndpoint:    c.S3BaseEndpoint,
		AccessKeyID:     c.AWSAccessKeyID,
		SecretAccessKey: c.AWSSecretAccessKey,
		SessionToken:    c.AWSSessionToken,
	}, app.logger)
	if err != nil {
		app.logger.Error(ctx, "object store unavailable", "bucket", c.S3Bucket, "error", err)
		return err
	}
	return u.Upload(ctx, c.UploadFile, c.S3Bucket)
}

func (app *App) notify(ctx context.Context, summary *events.Summary, uploaded bool) error {
	body := "Data processing run finished.\n"
	if summary != nil {
		body += fmt.Sprintf("Events: %d processed, %d ignored, %d failed.\n",
			summary.Processed, summary.Ignored, summary.Failed)
	}
	if app.config.UploadFile != "" {
		if uploaded {
			body += fmt.Sprintf("Upload to bucket %s succeeded.\n", app.config.S3Bucket)
		} else {
			body += fmt.Sprintf("Upload to bucket %s failed.\n", app.config.S3Bucket)
		}
	}
	return app.notifier.Send(ctx, app.config.NotifyRecipient, "Data processing complete", body)
}
