package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/config"
	"github.com/subscribarr/subscribarr/internal/models"
)

// NtfySender posts to an ntfy topic: raw body, title and click URL in
// headers.
type NtfySender struct {
	cfg        config.Ntfy
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewNtfySender(cfg config.Ntfy, logger *logrus.Logger) *NtfySender {
	return &NtfySender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (s *NtfySender) topicFor(user *models.User) string {
	if user.NtfyTopic != "" {
		return user.NtfyTopic
	}
	return s.cfg.DefaultTopic
}

// Send delivers the message. A missing server URL or topic makes the
// channel not applicable, reported as failure so the caller falls
// back.
func (s *NtfySender) Send(ctx context.Context, user *models.User, msg Message) bool {
	topic := s.topicFor(user)
	if s.cfg.ServerURL == "" || topic == "" {
		s.logger.WithField("user", user.Name).Debug("Ntfy not configured, skipping")
		return false
	}

	endpoint := strings.TrimRight(s.cfg.ServerURL, "/") + "/" + topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(msg.Body))
	if err != nil {
		s.logger.WithError(err).Error("Failed to build ntfy request")
		return false
	}
	req.Header.Set("Title", msg.Subject)
	if msg.ClickURL != "" {
		req.Header.Set("Click", msg.ClickURL)
	}
	if s.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.Token)
	} else if s.cfg.User != "" {
		req.SetBasicAuth(s.cfg.User, s.cfg.Password)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.WithError(err).WithField("topic", topic).Warn("Ntfy send failed")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.WithFields(logrus.Fields{
			"topic":  topic,
			"status": resp.StatusCode,
		}).Warn("Ntfy send rejected")
		return false
	}

	s.logger.WithFields(logrus.Fields{
		"user":  user.Name,
		"topic": topic,
	}).Info("Sent ntfy notification")
	return true
}
