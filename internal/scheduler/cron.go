package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/controllers"
)

// Scheduler manages the recurring sweeps in daemon mode.
type Scheduler struct {
	cron        *cron.Cron
	mediaCtrl   *controllers.MediaController
	movie4kCtrl *controllers.Movie4KController
	youtubeCtrl *controllers.YouTubeController
	cleanupCtrl *controllers.CleanupController
	logger      *logrus.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(
	mediaCtrl *controllers.MediaController,
	movie4kCtrl *controllers.Movie4KController,
	youtubeCtrl *controllers.YouTubeController,
	cleanupCtrl *controllers.CleanupController,
	logger *logrus.Logger,
) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		mediaCtrl:   mediaCtrl,
		movie4kCtrl: movie4kCtrl,
		youtubeCtrl: youtubeCtrl,
		cleanupCtrl: cleanupCtrl,
		logger:      logger,
	}
}

// Start registers the sweep schedule and starts the cron loop.
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	// Every 30 minutes: series and movie availability sweep
	_, err := s.cron.AddFunc("*/30 * * * *", func() {
		s.runMedia()
	})
	if err != nil {
		return fmt.Errorf("failed to add media job: %w", err)
	}

	// Every hour: video feed sweep
	_, err = s.cron.AddFunc("0 * * * *", func() {
		s.runYouTube()
	})
	if err != nil {
		return fmt.Errorf("failed to add youtube job: %w", err)
	}

	// Every 6 hours: 4K availability sweep
	_, err = s.cron.AddFunc("0 */6 * * *", func() {
		s.runMovies4K()
	})
	if err != nil {
		return fmt.Errorf("failed to add 4k job: %w", err)
	}

	// Daily: stale subscription cleanup
	_, err = s.cron.AddFunc("0 4 * * *", func() {
		s.runCleanup()
	})
	if err != nil {
		return fmt.Errorf("failed to add cleanup job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started")

	// Run an initial sweep immediately so a fresh start does not sit
	// idle until the first tick.
	go func() {
		s.runMedia()
		s.runYouTube()
	}()

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runMedia() {
	s.logger.Info("Running scheduled media sweep")
	sent, err := s.mediaCtrl.CheckNewMedia(context.Background())
	if err != nil {
		s.logger.WithError(err).Error("Media sweep failed")
		return
	}
	s.logger.WithField("sent", sent).Info("Media sweep completed")
}

func (s *Scheduler) runYouTube() {
	s.logger.Info("Running scheduled video feed sweep")
	sent, err := s.youtubeCtrl.CheckFeeds(context.Background())
	if err != nil {
		s.logger.WithError(err).Error("Video feed sweep failed")
		return
	}
	s.logger.WithField("sent", sent).Info("Video feed sweep completed")
}

func (s *Scheduler) runMovies4K() {
	s.logger.Info("Running scheduled 4K sweep")
	sent, err := s.movie4kCtrl.Check4K(context.Background())
	if err != nil {
		s.logger.WithError(err).Error("4K sweep failed")
		return
	}
	s.logger.WithField("sent", sent).Info("4K sweep completed")
}

func (s *Scheduler) runCleanup() {
	s.logger.Info("Running scheduled cleanup")
	removed, err := s.cleanupCtrl.CleanupStale(context.Background())
	if err != nil {
		s.logger.WithError(err).Error("Cleanup failed")
		return
	}
	s.logger.WithField("removed", removed).Info("Cleanup completed")
}
