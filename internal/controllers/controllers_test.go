package controllers

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/cache"
	"github.com/subscribarr/subscribarr/internal/config"
	"github.com/subscribarr/subscribarr/internal/models"
	"github.com/subscribarr/subscribarr/internal/notify"
	"github.com/subscribarr/subscribarr/internal/services/arr"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestDB(t *testing.T) *models.Database {
	t.Helper()
	db, err := models.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestUser(t *testing.T, db *models.Database) *models.User {
	t.Helper()
	user := &models.User{
		Name:                "alice",
		Email:               "alice@example.test",
		NotificationChannel: models.ChannelEmail,
	}
	if err := db.CreateUser(user); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	return user
}

// stubNotifier records dispatches and answers with a scripted result.
type stubNotifier struct {
	result bool
	calls  int
	msgs   []notify.Message
}

func (s *stubNotifier) Dispatch(ctx context.Context, user *models.User, msg notify.Message) bool {
	s.calls++
	s.msgs = append(s.msgs, msg)
	return s.result
}

func sweepConfig(instances ...config.Instance) config.Config {
	return config.Config{
		Instances:       instances,
		UpstreamTimeout: 2 * time.Second,
		CatalogTTL:      time.Minute,
		ProbeTTL:        time.Minute,
	}
}

// newArrPair builds a calendar and availability aggregator sharing one
// cache over the given instances.
func newArrPair(cfg config.Config) (*arr.Calendar, *arr.Availability) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	client := arr.NewClient(cfg.UpstreamTimeout, logger)
	c := cache.New()
	return arr.NewCalendar(client, c, cfg, logger), arr.NewAvailability(client, c, cfg, logger)
}
