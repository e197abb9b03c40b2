package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/models"
)

// RelayNotifier fans one notification out to opaque target URLs.
// Availability is a normal runtime state: a deployment without a
// relay backend simply reports false and the dispatcher falls back.
type RelayNotifier interface {
	Available() bool
	Notify(ctx context.Context, title, body string, urls []string) bool
}

// HTTPRelay posts {url, title, body} JSON to each target URL. All
// targets must accept for the fan-out to count as delivered.
type HTTPRelay struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewHTTPRelay(logger *logrus.Logger) *HTTPRelay {
	return &HTTPRelay{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (r *HTTPRelay) Available() bool { return true }

func (r *HTTPRelay) Notify(ctx context.Context, title, body string, urls []string) bool {
	if len(urls) == 0 {
		return false
	}
	ok := true
	for _, target := range urls {
		if !r.notifyOne(ctx, target, title, body) {
			ok = false
		}
	}
	return ok
}

func (r *HTTPRelay) notifyOne(ctx context.Context, target, title, body string) bool {
	payload, err := json.Marshal(map[string]string{
		"title": title,
		"body":  body,
	})
	if err != nil {
		return false
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		r.logger.WithError(err).WithField("url", target).Warn("Invalid relay target")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		r.logger.WithError(err).WithField("url", target).Warn("Relay send failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.logger.WithFields(logrus.Fields{
			"url":    target,
			"status": resp.StatusCode,
		}).Warn("Relay send rejected")
		return false
	}
	return true
}

// RelaySender adapts a RelayNotifier to the dispatcher's channel
// contract, merging per-user target URLs with the site defaults.
type RelaySender struct {
	relay       RelayNotifier
	defaultURLs []string
	logger      *logrus.Logger
}

func NewRelaySender(relay RelayNotifier, defaultURLs []string, logger *logrus.Logger) *RelaySender {
	return &RelaySender{relay: relay, defaultURLs: defaultURLs, logger: logger}
}

func (s *RelaySender) Send(ctx context.Context, user *models.User, msg Message) bool {
	if s.relay == nil || !s.relay.Available() {
		s.logger.WithField("user", user.Name).Debug("Relay backend unavailable, skipping")
		return false
	}
	urls := make([]string, 0, len(user.AppriseURLs)+len(s.defaultURLs))
	urls = append(urls, user.AppriseURLs...)
	urls = append(urls, s.defaultURLs...)
	if len(urls) == 0 {
		s.logger.WithField("user", user.Name).Debug("No relay targets configured, skipping")
		return false
	}

	body := msg.Body
	if msg.ClickURL != "" {
		body += "\n\n" + msg.ClickURL
	}
	if !s.relay.Notify(ctx, msg.Subject, body, urls) {
		s.logger.WithField("user", user.Name).Warn("Relay fan-out failed")
		return false
	}
	s.logger.WithFields(logrus.Fields{
		"user":    user.Name,
		"targets": len(urls),
	}).Info("Sent relay notification")
	return true
}
