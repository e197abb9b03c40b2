// Package arr talks to Sonarr and Radarr instances over their v3 REST
// APIs and aggregates availability answers across any number of
// configured instances.
package arr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/config"
)

// Error kinds for upstream calls. All of them are non-fatal to a
// sweep: a failing instance simply contributes nothing.
var (
	// ErrUnreachable covers connection failures and timeouts.
	ErrUnreachable = errors.New("upstream unreachable")
	// ErrUnauthorized covers rejected API keys (401/403).
	ErrUnauthorized = errors.New("upstream rejected api key")
	// ErrBadGateway covers all other non-2xx statuses.
	ErrBadGateway = errors.New("upstream returned error status")
	// ErrMalformedResponse covers bodies that do not parse as the
	// expected JSON; the wrapped message carries a body snippet so an
	// operator can spot a wrong base URL.
	ErrMalformedResponse = errors.New("upstream returned malformed body")
)

const maxResponseSize = 32 * 1024 * 1024 // full Radarr catalogs can be large

// Client issues authenticated GET requests against Sonarr/Radarr
// instances. It is stateless; the instance is passed per call.
type Client struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates an upstream API client with the given per-call
// timeout.
func NewClient(timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// NormalizeBaseURL forces a scheme and strips trailing slashes.
func NormalizeBaseURL(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "http://" + s
	}
	return strings.TrimRight(s, "/")
}

// Get performs an authenticated GET against one instance and decodes
// the JSON body into out.
func (c *Client) Get(ctx context.Context, inst config.Instance, path string, query url.Values, out interface{}) error {
	base := NormalizeBaseURL(inst.BaseURL)
	if base == "" || inst.APIKey == "" {
		return fmt.Errorf("instance %q: missing base url or api key: %w", inst.Name, ErrUnreachable)
	}

	endpoint := base + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("instance %q: invalid request: %w", inst.Name, err)
	}
	req.Header.Set("X-Api-Key", inst.APIKey)
	req.Header.Set("User-Agent", "subscribarr/1.0")

	c.logger.WithFields(logrus.Fields{
		"instance": inst.Name,
		"kind":     inst.Kind,
		"path":     path,
	}).Debug("Upstream request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("instance %q: %v: %w", inst.Name, err, ErrUnreachable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("instance %q: reading body: %v: %w", inst.Name, err, ErrUnreachable)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("instance %q: status %d: %w", inst.Name, resp.StatusCode, ErrUnauthorized)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("instance %q: status %d: %w", inst.Name, resp.StatusCode, ErrBadGateway)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("instance %q: %v (body starts %q): %w", inst.Name, err, bodySnippet(body), ErrMalformedResponse)
	}
	return nil
}

// bodySnippet returns the first part of a response body for error
// diagnostics.
func bodySnippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		s = s[:max] + "..."
	}
	return s
}
