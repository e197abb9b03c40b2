// Package notify delivers user notifications over ntfy topics,
// generic relay URLs and SMTP, with email as the channel of last
// resort.
package notify

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/config"
	"github.com/subscribarr/subscribarr/internal/models"
)

// Message is one notification to deliver.
type Message struct {
	Subject  string
	Body     string
	HTMLBody string
	ClickURL string
}

// channelSender delivers over one channel. A not-applicable channel
// (missing topic, no relay URLs, no address) reports delivery failure
// so the dispatcher moves on.
type channelSender interface {
	Send(ctx context.Context, user *models.User, msg Message) bool
}

// Dispatcher routes a message to the user's preferred channel and
// falls back to email when that fails. It never writes ledger
// records; committing is the caller's job.
type Dispatcher struct {
	ntfy   channelSender
	relay  channelSender
	email  channelSender
	logger *logrus.Logger
}

// NewDispatcher wires the channel senders from configuration.
func NewDispatcher(cfg *config.Config, relay RelayNotifier, logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		ntfy:   NewNtfySender(cfg.Ntfy, logger),
		relay:  NewRelaySender(relay, cfg.Apprise.DefaultURLs, logger),
		email:  NewEmailSender(cfg.Mail, logger),
		logger: logger,
	}
}

// Dispatch sends the message, preferring the user's configured
// channel. Email delivery is terminal in both directions: it is the
// fallback for every other channel and has no fallback of its own.
func (d *Dispatcher) Dispatch(ctx context.Context, user *models.User, msg Message) bool {
	preferred := d.senderFor(user.NotificationChannel)

	if preferred != d.email {
		if preferred.Send(ctx, user, msg) {
			return true
		}
		d.logger.WithFields(logrus.Fields{
			"user":    user.Name,
			"channel": string(user.NotificationChannel),
		}).Warn("Preferred channel failed, falling back to email")
	}
	return d.email.Send(ctx, user, msg)
}

func (d *Dispatcher) senderFor(channel models.Channel) channelSender {
	switch channel {
	case models.ChannelNtfy:
		return d.ntfy
	case models.ChannelApprise:
		return d.relay
	default:
		return d.email
	}
}
