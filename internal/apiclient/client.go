// Package apiclient talks to the external processing API.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/dataprocessor/internal/common"
	"github.com/dmitrijs2005/dataprocessor/internal/logging"
	"github.com/dmitrijs2005/dataprocessor/internal/netx"
	"github.com/google/uuid"
)

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  logging.Logger
}

// New builds a client for baseURL. An empty apiKey is allowed; Process then
// reports common.ErrConfigurationMissing without calling out.
func New(baseURL, apiKey string, httpClient *http.Client, logger logging.Logger) *Client {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Client{baseURL: baseURL, apiKey: apiKey, http: httpClient, logger: logger}
}

// Process posts data as JSON to {base}/process and returns the decoded JSON
// object from a 2xx response.
func (c *Client) Process(ctx context.Context, data any) (map[string]any, error) {
	if c.apiKey == "" {
		c.logger.Warn(ctx, "processing API key not configured, skipping call")
		return nil, fmt.Errorf("processing API: %w", common.ErrConfigurationMissing)
	}

	base, err := netx.RequireHTTPS(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("processing API: %w", err)
	}
	target := base.JoinPath("process")

	body, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("processing API: encode request: %w", err)
	}

	requestID := uuid.NewString()
	header := http.Header{}
	header.Set("Authorization", "Bearer "+c.apiKey)
	header.Set(common.RequestIDHeaderName, requestID)

	log := c.logger.With("request_id", requestID, "endpoint", endpoint(target))

	resp, err := netx.PostJSON(ctx, c.http, target.String(), body, header)
	if err != nil {
		log.Error(ctx, "processing API call failed", "error", err)
		return nil, fmt.Errorf("processing API: %w", err)
	}
	if !resp.OK() {
		log.Error(ctx, "processing API rejected request", "status", resp.StatusCode)
		return nil, fmt.Errorf("processing API: %w: status %d", common.ErrRemoteRejection, resp.StatusCode)
	}

	result := map[string]any{}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		log.Error(ctx, "processing API returned malformed body", "status", resp.StatusCode)
		return nil, fmt.Errorf("processing API: %w: decode response: %w", common.ErrRemoteRejection, err)
	}

	log.Info(ctx, "processing API call succeeded", "status", resp.StatusCode)
	return result, nil
}

// endpoint is the loggable form of u, without user info or query.
func endpoint(u *url.URL) string {
	return u.Scheme + "://" + u.Host + u.EscapedPath()
}
