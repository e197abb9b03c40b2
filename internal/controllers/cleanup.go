package controllers

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/models"
	"github.com/subscribarr/subscribarr/internal/services/arr"
)

// CleanupController removes subscriptions whose underlying condition
// has permanently resolved.
type CleanupController struct {
	db     *models.Database
	avail  *arr.Availability
	logger *logrus.Logger
}

// NewCleanupController creates a cleanup controller.
func NewCleanupController(db *models.Database, avail *arr.Availability, logger *logrus.Logger) *CleanupController {
	return &CleanupController{db: db, avail: avail, logger: logger}
}

// CleanupStale removes movie subscriptions whose file exists, 4K
// subscriptions whose 4K file exists and series subscriptions whose
// series has ended on any instance. Returns the number removed.
func (c *CleanupController) CleanupStale(ctx context.Context) (int, error) {
	c.logger.Info("Starting stale subscription cleanup")
	removed := 0

	movieSubs, err := c.db.GetMovieSubscriptions()
	if err != nil {
		return removed, fmt.Errorf("loading movie subscriptions: %w", err)
	}
	for _, sub := range movieSubs {
		if !c.avail.MovieHasFile(ctx, sub.MovieID) {
			continue
		}
		if err := c.db.DeleteMovieSubscription(sub.ID); err != nil {
			c.logger.WithError(err).Error("Failed to delete movie subscription")
			continue
		}
		c.logger.WithFields(logrus.Fields{
			"movie": sub.Title,
			"user":  sub.UserID,
		}).Info("Removed fulfilled movie subscription")
		removed++
	}

	subs4k, err := c.db.GetMovie4KSubscriptions()
	if err != nil {
		return removed, fmt.Errorf("loading 4K subscriptions: %w", err)
	}
	for _, sub := range subs4k {
		if !c.avail.HasFile4K(ctx, sub.TMDBID) {
			continue
		}
		if err := c.db.DeleteMovie4KSubscription(sub.ID); err != nil {
			c.logger.WithError(err).Error("Failed to delete 4K subscription")
			continue
		}
		c.logger.WithFields(logrus.Fields{
			"movie": sub.Title,
			"user":  sub.UserID,
		}).Info("Removed fulfilled 4K subscription")
		removed++
	}

	seriesSubs, err := c.db.GetSeriesSubscriptions()
	if err != nil {
		return removed, fmt.Errorf("loading series subscriptions: %w", err)
	}
	for _, sub := range seriesSubs {
		if !c.avail.SeriesEnded(ctx, sub.SeriesID) {
			continue
		}
		if err := c.db.DeleteSeriesSubscription(sub.ID); err != nil {
			c.logger.WithError(err).Error("Failed to delete series subscription")
			continue
		}
		c.logger.WithFields(logrus.Fields{
			"series": sub.Title,
			"user":   sub.UserID,
		}).Info("Removed ended series subscription")
		removed++
	}

	c.logger.WithField("removed", removed).Info("Cleanup finished")
	return removed, nil
}
