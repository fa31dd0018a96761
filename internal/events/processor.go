package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/dataprocessor/internal/logging"
	"github.com/go-playground/validator/v10"
)

// Deleter removes a record by id and reports how many rows went away.
type Deleter interface {
	DeleteByID(ctx context.Context, id int64) (int64, error)
}

// Relayer forwards the raw event to the webhook and returns its HTTP status.
type Relayer interface {
	Relay(ctx context.Context, body []byte) (int, error)
}

type Processor struct {
	store    Deleter
	webhook  Relayer
	validate *validator.Validate
	logger   logging.Logger
}

func NewProcessor(store Deleter, webhook Relayer, logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Processor{
		store:    store,
		webhook:  webhook,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Process handles an already decoded event. The relayed body is payload
// encoded as JSON.
func (p *Processor) Process(ctx context.Context, payload map[string]any) Result {
	return p.handle(ctx, payload, func() ([]byte, error) {
		return json.Marshal(payload)
	})
}

// ProcessJSON decodes body and handles it; the original bytes are what gets
// relayed.
func (p *Processor) ProcessJSON(ctx context.Context, body []byte) Result {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]any
	err := dec.Decode(&payload)
	if err == nil {
		// the body must be exactly one JSON value
		if extra := dec.Decode(&struct{}{}); extra != io.EOF {
			err = errors.New("trailing data after event object")
		}
	}
	if err != nil {
		p.logger.Warn(ctx, "malformed event payload")
		return Result{Status: StatusError, Message: fmt.Sprintf("malformed payload: %v", err)}
	}
	return p.handle(ctx, payload, func() ([]byte, error) {
		return body, nil
	})
}

func (p *Processor) check(ctx context.Context, payload map[string]any) (envelope, Result, bool) {
	var env envelope

	action, _ := payload["action"].(string)
	env.Action = action
	if err := p.validate.Struct(env); err != nil {
		p.logger.Warn(ctx, "event ignored", "reason", ReasonInvalidAction)
		return env, ignored(ReasonInvalidAction), false
	}

	id, ok := parseUserID(payload["user_id"])
	if !ok {
		p.logger.Warn(ctx, "event ignored", "reason", ReasonInvalidUserID, "action", env.Action)
		return env, ignored(ReasonInvalidUserID), false
	}
	env.UserID = id

	return env, Result{}, true
}

func (p *Processor) handle(ctx context.Context, payload map[string]any, encode func() ([]byte, error)) Result {
	env, res, ok := p.check(ctx, payload)
	if !ok {
		return res
	}

	res = Result{Action: env.Action, UserID: env.UserID}
	log := p.logger.With("action", env.Action, "user_id", env.UserID)

	if env.Action == ActionDeleteUser {
		res.Effect.Attempted = true
		n, err := p.store.DeleteByID(ctx, env.UserID)
		if err != nil {
			res.Effect.Err = err
			res.Status = StatusError
			res.Message = err.Error()
			log.Error(ctx, "event effect failed, relay skipped", "error", err)
			return res
		}
		res.RowsDeleted = n
		log.Info(ctx, "user deleted via event", "rows", n)
	}

	res.Relay.Attempted = true
	status, err := p.relay(ctx, encode)
	res.WebhookResponse = status
	if err != nil {
		res.Relay.Err = err
		res.Status = StatusError
		res.Message = err.Error()
		log.Error(ctx, "event relay failed", "error", err, "effect_applied", res.Effect.Succeeded())
		return res
	}

	res.Status = StatusProcessed
	log.Info(ctx, "event processed", "webhook_status", status)
	return res
}

func (p *Processor) relay(ctx context.Context, encode func() ([]byte, error)) (int, error) {
	body, err := encode()
	if err != nil {
		return 0, fmt.Errorf("encode event: %w", err)
	}
	return p.webhook.Relay(ctx, body)
}
