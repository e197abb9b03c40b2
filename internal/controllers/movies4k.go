package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/models"
	"github.com/subscribarr/subscribarr/internal/notify"
	"github.com/subscribarr/subscribarr/internal/services/arr"
)

// Movie4KController fires one-shot alerts when a 4K file appears.
type Movie4KController struct {
	db       *models.Database
	avail    *arr.Availability
	notifier Notifier
	logger   *logrus.Logger
	now      func() time.Time
}

// NewMovie4KController creates a 4K sweep controller.
func NewMovie4KController(db *models.Database, avail *arr.Availability, notifier Notifier, logger *logrus.Logger) *Movie4KController {
	return &Movie4KController{db: db, avail: avail, notifier: notifier, logger: logger, now: time.Now}
}

// Check4K sweeps 4K subscriptions. The ledger entry is reserved before
// dispatch and the subscription is removed as soon as a 4K file
// exists: the alert is consumed exactly once even when delivery fails.
func (c *Movie4KController) Check4K(ctx context.Context) (int, error) {
	c.logger.Info("Starting 4K availability sweep")

	subs, err := c.db.GetMovie4KSubscriptions()
	if err != nil {
		return 0, fmt.Errorf("loading 4K subscriptions: %w", err)
	}

	users := make(map[uint64]*models.User)
	sent := 0
	for _, sub := range subs {
		user := userFor(c.db, users, sub.UserID, c.logger)
		if user == nil {
			continue
		}

		if !c.avail.HasFile4K(ctx, sub.TMDBID) {
			continue
		}

		reserved, err := c.db.Reserve4K(&models.Sent4KNotification{
			UserID: user.ID,
			TMDBID: sub.TMDBID,
			Title:  sub.Title,
			SentAt: c.now(),
		})
		if err != nil {
			c.logger.WithError(err).Error("Failed to reserve 4K ledger entry")
			continue
		}

		// 4K exists, so the subscription is fulfilled regardless of
		// whether delivery below succeeds.
		if err := c.db.DeleteMovie4KSubscription(sub.ID); err != nil {
			c.logger.WithError(err).Error("Failed to delete fulfilled 4K subscription")
		}

		if !reserved {
			continue
		}

		msg := notify.Message{
			Subject: fmt.Sprintf("4K available: %s", sub.Title),
			Body:    fmt.Sprintf("%s is now available in 4K.", sub.Title),
		}
		if !c.notifier.Dispatch(ctx, user, msg) {
			c.logger.WithFields(logrus.Fields{
				"user":  user.Name,
				"movie": sub.Title,
			}).Warn("4K notification failed, alert consumed anyway")
			continue
		}
		c.logger.WithFields(logrus.Fields{
			"user":  user.Name,
			"movie": sub.Title,
		}).Info("Sent 4K notification")
		sent++
	}

	c.logger.WithField("sent", sent).Info("4K sweep finished")
	return sent, nil
}
