// Package netx holds the outbound HTTP plumbing shared by the processing API
// client and the webhook relay.
package netx

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/dataprocessor/internal/common"
)

// maxResponseBody caps how much of a response body is read into memory.
const maxResponseBody = 1 << 20

// NewHTTPClient returns a client that always verifies server certificates,
// refuses anything below TLS 1.2, does not follow redirects and gives up after
// timeout. A nil roots pool means the system pool.
func NewHTTPClient(timeout time.Duration, roots *x509.CertPool) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    roots,
	}

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// RequireHTTPS parses raw and rejects anything that is not an absolute https
// URL with a host.
func RequireHTTPS(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInsecureEndpoint, err)
	}
	if !strings.EqualFold(u.Scheme, "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an https URL", common.ErrInsecureEndpoint, u.Redacted())
	}
	return u, nil
}

// Response is what PostJSON hands back from a completed exchange.
type Response struct {
	StatusCode int
	Body       []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// PostJSON sends body to target with the given extra headers. Only failures to
// complete the exchange are errors; the caller decides what a status means.
// Transport failures match common.ErrConnectivity.
func PostJSON(ctx context.Context, client *http.Client, target string, body []byte, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", common.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrConnectivity, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", common.ErrConnectivity, err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: b}, nil
}
