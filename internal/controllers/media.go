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

// MediaController runs the daily availability sweep over series and
// movie subscriptions.
type MediaController struct {
	db            *models.Database
	calendar      *arr.Calendar
	avail         *arr.Availability
	notifier      Notifier
	lookaheadDays int
	logger        *logrus.Logger
	now           func() time.Time
}

// NewMediaController creates a media sweep controller.
func NewMediaController(db *models.Database, calendar *arr.Calendar, avail *arr.Availability, notifier Notifier, lookaheadDays int, logger *logrus.Logger) *MediaController {
	if lookaheadDays < 1 {
		lookaheadDays = 1
	}
	return &MediaController{
		db:            db,
		calendar:      calendar,
		avail:         avail,
		notifier:      notifier,
		lookaheadDays: lookaheadDays,
		logger:        logger,
		now:           time.Now,
	}
}

// CheckNewMedia runs one sweep over series and movie subscriptions
// and returns the number of notifications sent. A single item's
// failure never aborts the rest of the sweep.
func (c *MediaController) CheckNewMedia(ctx context.Context) (int, error) {
	c.logger.Info("Starting media availability sweep")

	seriesSent, err := c.checkSeries(ctx)
	if err != nil {
		return seriesSent, err
	}
	movieSent, err := c.checkMovies(ctx)
	sent := seriesSent + movieSent

	c.logger.WithField("sent", sent).Info("Media sweep finished")
	return sent, err
}

func (c *MediaController) checkSeries(ctx context.Context) (int, error) {
	subs, err := c.db.GetSeriesSubscriptions()
	if err != nil {
		return 0, fmt.Errorf("loading series subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return 0, nil
	}

	episodes, err := c.calendar.SeriesCalendar(ctx, c.lookaheadDays)
	if err != nil {
		c.logger.WithError(err).Error("All series instances failed, skipping series sweep")
		return 0, nil
	}

	bySeries := make(map[int][]arr.EpisodeEntry)
	for _, ep := range episodes {
		bySeries[ep.SeriesID] = append(bySeries[ep.SeriesID], ep)
	}

	users := make(map[uint64]*models.User)
	sent := 0
	for _, sub := range subs {
		eps := bySeries[sub.SeriesID]
		if len(eps) == 0 {
			continue
		}
		user := userFor(c.db, users, sub.UserID, c.logger)
		if user == nil {
			continue
		}
		for _, ep := range eps {
			if c.notifyEpisode(ctx, user, sub, ep) {
				sent++
			}
		}
	}
	return sent, nil
}

func (c *MediaController) notifyEpisode(ctx context.Context, user *models.User, sub *models.SeriesSubscription, ep arr.EpisodeEntry) bool {
	// Key dedup to the air day so an episode lingering in the
	// lookahead window does not re-notify on later sweep days.
	day := c.now().Format(models.DayFormat)
	if ep.AirDateUTC != nil {
		day = ep.AirDateUTC.Format(models.DayFormat)
	}

	done, err := c.db.AlreadyNotified(user.ID, models.MediaKindSeries, ep.EpisodeID, day)
	if err != nil {
		c.logger.WithError(err).Error("Ledger check failed")
		return false
	}
	if done {
		return false
	}
	if !c.avail.EpisodeHasFile(ctx, ep.SeriesID, ep.SeasonNumber, ep.EpisodeNumber) {
		return false
	}

	if !c.notifier.Dispatch(ctx, user, episodeMessage(sub, ep)) {
		c.logger.WithFields(logrus.Fields{
			"user":    user.Name,
			"series":  sub.Title,
			"episode": ep.EpisodeID,
		}).Warn("Episode notification failed, retrying next sweep")
		return false
	}

	if err := c.db.RecordNotification(&models.SentNotification{
		UserID:    user.ID,
		MediaID:   ep.EpisodeID,
		MediaKind: models.MediaKindSeries,
		Day:       day,
		Title:     sub.Title,
		SentAt:    c.now(),
	}); err != nil {
		c.logger.WithError(err).Error("Failed to commit ledger entry")
	}
	c.logger.WithFields(logrus.Fields{
		"user":    user.Name,
		"series":  sub.Title,
		"season":  ep.SeasonNumber,
		"episode": ep.EpisodeNumber,
	}).Info("Sent episode notification")
	return true
}

func (c *MediaController) checkMovies(ctx context.Context) (int, error) {
	subs, err := c.db.GetMovieSubscriptions()
	if err != nil {
		return 0, fmt.Errorf("loading movie subscriptions: %w", err)
	}

	users := make(map[uint64]*models.User)
	day := c.now().Format(models.DayFormat)
	sent := 0
	for _, sub := range subs {
		user := userFor(c.db, users, sub.UserID, c.logger)
		if user == nil {
			continue
		}

		done, err := c.db.AlreadyNotified(user.ID, models.MediaKindMovie, sub.MovieID, day)
		if err != nil {
			c.logger.WithError(err).Error("Ledger check failed")
			continue
		}
		if done {
			continue
		}

		movie, ok := c.avail.MovieWithFile(ctx, sub.MovieID)
		if !ok {
			continue
		}

		if !c.notifier.Dispatch(ctx, user, movieMessage(sub, movie, c.now())) {
			c.logger.WithFields(logrus.Fields{
				"user":  user.Name,
				"movie": sub.Title,
			}).Warn("Movie notification failed, retrying next sweep")
			continue
		}

		if err := c.db.RecordNotification(&models.SentNotification{
			UserID:    user.ID,
			MediaID:   sub.MovieID,
			MediaKind: models.MediaKindMovie,
			Day:       day,
			Title:     sub.Title,
			SentAt:    c.now(),
		}); err != nil {
			c.logger.WithError(err).Error("Failed to commit ledger entry")
		}
		// The condition has resolved for good; the subscription is done.
		if err := c.db.DeleteMovieSubscription(sub.ID); err != nil {
			c.logger.WithError(err).Error("Failed to delete fulfilled movie subscription")
		}
		c.logger.WithFields(logrus.Fields{
			"user":  user.Name,
			"movie": sub.Title,
		}).Info("Sent movie notification")
		sent++
	}
	return sent, nil
}

func episodeMessage(sub *models.SeriesSubscription, ep arr.EpisodeEntry) notify.Message {
	code := fmt.Sprintf("S%02dE%02d", ep.SeasonNumber, ep.EpisodeNumber)
	subject := fmt.Sprintf("New episode: %s %s", sub.Title, code)

	body := fmt.Sprintf("%s %s \"%s\" is now available.", sub.Title, code, ep.Title)
	if ep.Network != "" {
		body += fmt.Sprintf("\nNetwork: %s", ep.Network)
	}

	var html string
	if sub.Poster != "" {
		html = fmt.Sprintf(`<p><img src=%q alt="poster" width="120"></p>`, sub.Poster)
	}
	html += fmt.Sprintf("<p><strong>%s %s</strong> &quot;%s&quot; is now available.</p>", sub.Title, code, ep.Title)
	if sub.Overview != "" {
		html += fmt.Sprintf("<p>%s</p>", sub.Overview)
	}

	return notify.Message{Subject: subject, Body: body, HTMLBody: html}
}

func movieMessage(sub *models.MovieSubscription, movie *arr.Movie, now time.Time) notify.Message {
	subject := fmt.Sprintf("Movie available: %s", sub.Title)
	if kind := releaseKind(movie, now); kind != "" {
		subject += fmt.Sprintf(" (%s)", kind)
	}

	body := fmt.Sprintf("%s is now available for watching.", sub.Title)

	var html string
	if sub.Poster != "" {
		html = fmt.Sprintf(`<p><img src=%q alt="poster" width="120"></p>`, sub.Poster)
	}
	html += fmt.Sprintf("<p><strong>%s</strong> is now available for watching.</p>", sub.Title)
	if sub.Overview != "" {
		html += fmt.Sprintf("<p>%s</p>", sub.Overview)
	}

	return notify.Message{Subject: subject, Body: body, HTMLBody: html}
}

// releaseKind names the most recent release date that has already
// passed, which is the kind of copy a just-appeared file most likely
// is.
func releaseKind(movie *arr.Movie, now time.Time) string {
	type release struct {
		label string
		at    *time.Time
	}
	releases := []release{
		{"Digital", movie.DigitalRelease},
		{"Disc", movie.PhysicalRelease},
		{"Theatrical", movie.InCinemas},
	}

	best := ""
	var bestAt time.Time
	for _, r := range releases {
		if r.at == nil || r.at.After(now) {
			continue
		}
		if best == "" || r.at.After(bestAt) {
			best = r.label
			bestAt = *r.at
		}
	}
	return best
}
