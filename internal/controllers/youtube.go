package controllers

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/models"
	"github.com/subscribarr/subscribarr/internal/notify"
	"github.com/subscribarr/subscribarr/internal/services/youtube"
)

// FeedSource resolves and fetches video feeds. Satisfied by
// *youtube.Client.
type FeedSource interface {
	FeedURL(ctx context.Context, kind, targetID string) (string, error)
	FeedEntries(ctx context.Context, feedURL string) ([]youtube.Entry, error)
}

// YouTubeController sweeps channel and playlist feeds for new videos.
type YouTubeController struct {
	db       *models.Database
	feeds    FeedSource
	notifier Notifier
	logger   *logrus.Logger
	now      func() time.Time
}

// NewYouTubeController creates a feed sweep controller.
func NewYouTubeController(db *models.Database, feeds FeedSource, notifier Notifier, logger *logrus.Logger) *YouTubeController {
	return &YouTubeController{db: db, feeds: feeds, notifier: notifier, logger: logger, now: time.Now}
}

// CheckFeeds sweeps all video subscriptions.
func (c *YouTubeController) CheckFeeds(ctx context.Context) (int, error) {
	return c.CheckFeedsSince(ctx, time.Time{})
}

// CheckFeedsSince sweeps all video subscriptions, additionally
// ignoring videos published before since (when non-zero). Videos
// published before the subscription was created are always ignored.
// Each video's ledger entry is reserved before dispatch and released
// again on delivery failure so it is retried on the next sweep.
func (c *YouTubeController) CheckFeedsSince(ctx context.Context, since time.Time) (int, error) {
	c.logger.Info("Starting video feed sweep")

	subs, err := c.db.GetYouTubeSubscriptions()
	if err != nil {
		return 0, fmt.Errorf("loading video subscriptions: %w", err)
	}

	users := make(map[uint64]*models.User)
	sent := 0
	for _, sub := range subs {
		user := userFor(c.db, users, sub.UserID, c.logger)
		if user == nil {
			continue
		}

		feedURL, err := c.feeds.FeedURL(ctx, string(sub.Kind), sub.TargetID)
		if err != nil {
			c.logger.WithError(err).WithField("target", sub.TargetID).Warn("Cannot build feed URL, subscription skipped")
			continue
		}
		entries, err := c.feeds.FeedEntries(ctx, feedURL)
		if err != nil {
			c.logger.WithError(err).WithField("target", sub.TargetID).Warn("Feed fetch failed, subscription skipped")
			continue
		}

		cutoff := dayStart(sub.CreatedAt)
		for _, entry := range entries {
			if entry.Published == nil || entry.Published.Before(cutoff) {
				continue
			}
			if !since.IsZero() && entry.Published.Before(since) {
				continue
			}
			if c.notifyVideo(ctx, user, sub, entry) {
				sent++
			}
		}
	}

	c.logger.WithField("sent", sent).Info("Video feed sweep finished")
	return sent, nil
}

func (c *YouTubeController) notifyVideo(ctx context.Context, user *models.User, sub *models.YouTubeSubscription, entry youtube.Entry) bool {
	reserved, err := c.db.ReserveYouTube(&models.SentYouTubeNotification{
		UserID:       user.ID,
		VideoID:      entry.VideoID,
		PublishedDay: entry.Published.Format(models.DayFormat),
		Title:        entry.Title,
		ChannelTitle: entry.ChannelTitle,
		SentAt:       c.now(),
	})
	if err != nil {
		c.logger.WithError(err).Error("Failed to reserve video ledger entry")
		return false
	}
	if !reserved {
		return false
	}

	source := entry.ChannelTitle
	if source == "" {
		source = sub.Title
	}
	msg := notify.Message{
		Subject:  fmt.Sprintf("New video: %s", source),
		Body:     fmt.Sprintf("%s\n%s", entry.Title, entry.URL),
		ClickURL: entry.URL,
	}
	if !c.notifier.Dispatch(ctx, user, msg) {
		if err := c.db.ReleaseYouTube(user.ID, entry.VideoID); err != nil {
			c.logger.WithError(err).Error("Failed to release video ledger entry")
		}
		c.logger.WithFields(logrus.Fields{
			"user":  user.Name,
			"video": entry.VideoID,
		}).Warn("Video notification failed, retrying next sweep")
		return false
	}
	c.logger.WithFields(logrus.Fields{
		"user":  user.Name,
		"video": entry.VideoID,
		"title": entry.Title,
	}).Info("Sent video notification")
	return true
}
