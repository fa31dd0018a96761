// Package webhook forwards processed events to the internal webhook endpoint.
package webhook

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/dataprocessor/internal/common"
	"github.com/dmitrijs2005/dataprocessor/internal/logging"
	"github.com/dmitrijs2005/dataprocessor/internal/netx"
	"github.com/google/uuid"
)

// DefaultTokenTTL is how long a relay token stays valid after signing.
const DefaultTokenTTL = time.Minute

type Client struct {
	endpoint string
	secret   []byte
	ttl      time.Duration
	http     *http.Client
	logger   logging.Logger
	now      func() time.Time
}

func New(endpoint string, secret []byte, httpClient *http.Client, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{
		endpoint: endpoint,
		secret:   append([]byte(nil), secret...),
		ttl:      DefaultTokenTTL,
		http:     httpClient,
		logger:   logger,
		now:      time.Now,
	}
}

// Relay posts body verbatim to the webhook endpoint with a signed bearer
// token. It returns the response status whenever a response arrived; a non-2xx
// status is reported as common.ErrRemoteRejection. Nothing is retried.
func (c *Client) Relay(ctx context.Context, body []byte) (int, error) {
	if len(c.secret) == 0 {
		c.logger.Warn(ctx, "webhook secret not configured, relay not attempted")
		return 0, fmt.Errorf("webhook relay: %w", common.ErrConfigurationMissing)
	}

	target, err := netx.RequireHTTPS(c.endpoint)
	if err != nil {
		return 0, fmt.Errorf("webhook relay: %w", err)
	}

	token, err := signToken(body, c.secret, c.now(), c.ttl)
	if err != nil {
		return 0, fmt.Errorf("webhook relay: sign token: %w", err)
	}

	requestID := uuid.NewString()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	header.Set(common.RequestIDHeaderName, requestID)

	log := c.logger.With("request_id", requestID, "host", target.Host)

	resp, err := netx.PostJSON(ctx, c.http, target.String(), body, header)
	if err != nil {
		log.Error(ctx, "webhook relay failed", "error", err)
		return 0, fmt.Errorf("webhook relay: %w", err)
	}
	if !resp.OK() {
		log.Error(ctx, "webhook rejected event", "status", resp.StatusCode)
		return resp.StatusCode, fmt.Errorf("webhook relay: %w: status %d", common.ErrRemoteRejection, resp.StatusCode)
	}

	log.Info(ctx, "event relayed", "status", resp.StatusCode)
	return resp.StatusCode, nil
}
