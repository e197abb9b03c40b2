// Package controllers orchestrates the scheduled sweeps: detect,
// dedup, dispatch, commit.
package controllers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/models"
	"github.com/subscribarr/subscribarr/internal/notify"
)

// Notifier dispatches one message to a user. Satisfied by
// *notify.Dispatcher.
type Notifier interface {
	Dispatch(ctx context.Context, user *models.User, msg notify.Message) bool
}

// userFor loads a user through a per-sweep cache. A missing or broken
// user record skips the subscription, never the sweep.
func userFor(db *models.Database, cache map[uint64]*models.User, userID uint64, logger *logrus.Logger) *models.User {
	if u, ok := cache[userID]; ok {
		return u
	}
	u, err := db.GetUserByID(userID)
	if err != nil {
		logger.WithError(err).WithField("user_id", userID).Warn("Subscription references unknown user, skipped")
		cache[userID] = nil
		return nil
	}
	cache[userID] = u
	return u
}

// dayStart truncates a time to the start of its calendar day.
func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
