package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/subscribarr/subscribarr/internal/api"
	"github.com/subscribarr/subscribarr/internal/models"
	"github.com/subscribarr/subscribarr/internal/notify"
	"github.com/subscribarr/subscribarr/internal/scheduler"
)

// The check commands exit 0 on best-effort completion: item failures
// are logged by the sweep, not propagated.

func newCheckMediaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-media",
		Short: "Run one series and movie availability sweep",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			sent, err := a.mediaCtrl.CheckNewMedia(cmd.Context())
			if err != nil {
				a.logger.WithError(err).Error("Media sweep failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Media sweep done, %d notification(s) sent\n", sent)
			return nil
		}),
	}
}

func newCheck4KCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check-4k",
		Short: "Run one 4K availability sweep",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			sent, err := a.movie4kCtrl.Check4K(cmd.Context())
			if err != nil {
				a.logger.WithError(err).Error("4K sweep failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "4K sweep done, %d notification(s) sent\n", sent)
			return nil
		}),
	}
}

func newCheckYouTubeCommand() *cobra.Command {
	var sinceFlag string

	cmd := &cobra.Command{
		Use:   "check-youtube",
		Short: "Run one video feed sweep",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			var since time.Time
			if sinceFlag != "" {
				var err error
				since, err = time.Parse(models.DayFormat, sinceFlag)
				if err != nil {
					return fmt.Errorf("invalid --since value %q, expected YYYY-MM-DD: %w", sinceFlag, err)
				}
			}
			sent, err := a.youtubeCtrl.CheckFeedsSince(cmd.Context(), since)
			if err != nil {
				a.logger.WithError(err).Error("Video feed sweep failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Video feed sweep done, %d notification(s) sent\n", sent)
			return nil
		}),
	}
	cmd.Flags().StringVar(&sinceFlag, "since", "", "Ignore videos published before this day (YYYY-MM-DD)")
	return cmd
}

func newCleanupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove subscriptions whose condition has permanently resolved",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			removed, err := a.cleanupCtrl.CleanupStale(cmd.Context())
			if err != nil {
				a.logger.WithError(err).Error("Cleanup failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleanup done, %d subscription(s) removed\n", removed)
			return nil
		}),
	}
}

func newTestNotifyCommand() *cobra.Command {
	var toFlag string
	var channelFlag string

	cmd := &cobra.Command{
		Use:   "test-notify",
		Short: "Send a test notification",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			user := &models.User{
				Name:                "test",
				Email:               toFlag,
				NotificationChannel: models.Channel(channelFlag),
			}
			msg := notify.Message{
				Subject:  "Subscribarr test notification",
				Body:     "If you can read this, notification delivery works.",
				HTMLBody: "<p>If you can read this, notification delivery works.</p>",
			}
			if !a.dispatcher.Dispatch(cmd.Context(), user, msg) {
				return fmt.Errorf("test notification could not be delivered")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test notification sent")
			return nil
		}),
	}
	cmd.Flags().StringVar(&toFlag, "to", "", "Email address for the test message")
	cmd.Flags().StringVar(&channelFlag, "channel", "email", "Channel to test (email, ntfy, apprise)")
	return cmd
}

func newDaemonCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the scheduler and HTTP server",
		RunE: withApp(func(cmd *cobra.Command, a *app) error {
			sched := scheduler.NewScheduler(a.mediaCtrl, a.movie4kCtrl, a.youtubeCtrl, a.cleanupCtrl, a.logger)
			if err := sched.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			defer sched.Stop()

			server := api.NewServer(a.cfg, a.db, a.calendar, a.feeds, a.logger)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			serverErrChan := make(chan error, 1)
			go func() {
				if err := server.Start(ctx); err != nil {
					serverErrChan <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			a.logger.Info("Subscribarr is running")

			select {
			case err := <-serverErrChan:
				return fmt.Errorf("server error: %w", err)
			case sig := <-sigChan:
				a.logger.WithField("signal", sig).Info("Received shutdown signal")
				cancel()
				if err := server.Shutdown(context.Background()); err != nil {
					a.logger.WithError(err).Error("Error during server shutdown")
				}
			}

			a.logger.Info("Subscribarr stopped")
			return nil
		}),
	}
}
