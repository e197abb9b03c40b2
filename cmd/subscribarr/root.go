package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/subscribarr/subscribarr/internal/cache"
	"github.com/subscribarr/subscribarr/internal/config"
	"github.com/subscribarr/subscribarr/internal/controllers"
	"github.com/subscribarr/subscribarr/internal/models"
	"github.com/subscribarr/subscribarr/internal/notify"
	"github.com/subscribarr/subscribarr/internal/services/arr"
	"github.com/subscribarr/subscribarr/internal/services/youtube"
	"github.com/subscribarr/subscribarr/internal/utils"
)

// app bundles everything a command needs. Built once per invocation.
type app struct {
	cfg        *config.Config
	logger     *logrus.Logger
	db         *models.Database
	dispatcher *notify.Dispatcher
	calendar   *arr.Calendar
	avail      *arr.Availability
	feeds      *youtube.Client

	mediaCtrl   *controllers.MediaController
	movie4kCtrl *controllers.Movie4KController
	youtubeCtrl *controllers.YouTubeController
	cleanupCtrl *controllers.CleanupController
}

func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := utils.NewLogger(cfg.LogLevel)

	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	results := cache.New()
	arrClient := arr.NewClient(cfg.UpstreamTimeout, logger)
	calendar := arr.NewCalendar(arrClient, results, cfg, logger)
	avail := arr.NewAvailability(arrClient, results, cfg, logger)
	feeds := youtube.NewClient(results, cfg.FeedTTL, cfg.UpstreamTimeout, logger)

	dispatcher := notify.NewDispatcher(&cfg, notify.NewHTTPRelay(logger), logger)

	return &app{
		cfg:         &cfg,
		logger:      logger,
		db:          db,
		dispatcher:  dispatcher,
		calendar:    calendar,
		avail:       avail,
		feeds:       feeds,
		mediaCtrl:   controllers.NewMediaController(db, calendar, avail, dispatcher, cfg.LookaheadDays, logger),
		movie4kCtrl: controllers.NewMovie4KController(db, avail, dispatcher, logger),
		youtubeCtrl: controllers.NewYouTubeController(db, feeds, dispatcher, logger),
		cleanupCtrl: controllers.NewCleanupController(db, avail, logger),
	}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Failed to close database")
	}
}

// withApp wraps a command body with app construction and teardown.
func withApp(run func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()
		return run(cmd, a)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "subscribarr",
		Short:         "Availability notifications for Sonarr, Radarr and YouTube subscriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newDaemonCommand())
	rootCmd.AddCommand(newCheckMediaCommand())
	rootCmd.AddCommand(newCheck4KCommand())
	rootCmd.AddCommand(newCheckYouTubeCommand())
	rootCmd.AddCommand(newCleanupCommand())
	rootCmd.AddCommand(newTestNotifyCommand())

	return rootCmd
}
