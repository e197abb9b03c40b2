package controllers

import (
	"context"
	"testing"
	"time"

	"github.com/subscribarr/subscribarr/internal/models"
	"github.com/subscribarr/subscribarr/internal/services/youtube"
)

type stubFeeds struct {
	entries []youtube.Entry
}

func (s *stubFeeds) FeedURL(ctx context.Context, kind, targetID string) (string, error) {
	return "https://feeds.test/" + kind + "/" + targetID, nil
}

func (s *stubFeeds) FeedEntries(ctx context.Context, feedURL string) ([]youtube.Entry, error) {
	return s.entries, nil
}

func newYouTubeFixture(t *testing.T, published time.Time) (*models.Database, *models.User, *stubFeeds) {
	t.Helper()
	db := newTestDB(t)
	user := newTestUser(t, db)
	if err := db.CreateYouTubeSubscription(&models.YouTubeSubscription{
		UserID:   user.ID,
		Kind:     models.YouTubeChannel,
		TargetID: "UCxyz",
		Title:    "Some Channel",
	}); err != nil {
		t.Fatal(err)
	}
	feeds := &stubFeeds{entries: []youtube.Entry{{
		VideoID:      "abc123",
		Title:        "First Video",
		URL:          "https://www.youtube.com/watch?v=abc123",
		Published:    &published,
		ChannelTitle: "Some Channel",
	}}}
	return db, user, feeds
}

func TestCheckFeedsReleasesReservationOnFailure(t *testing.T) {
	db, _, feeds := newYouTubeFixture(t, time.Now())

	notifier := &stubNotifier{result: false}
	ctrl := NewYouTubeController(db, feeds, notifier, testLogger())

	sent, err := ctrl.CheckFeeds(context.Background())
	if err != nil || sent != 0 {
		t.Fatalf("failed sweep sent=%d err=%v", sent, err)
	}
	if notifier.calls != 1 {
		t.Fatalf("dispatches = %d", notifier.calls)
	}

	// The rollback makes the video eligible again.
	notifier.result = true
	sent, err = ctrl.CheckFeeds(context.Background())
	if err != nil || sent != 1 {
		t.Fatalf("retry sweep sent=%d err=%v, want 1/nil", sent, err)
	}

	// Delivered once; a third run stays quiet.
	sent, err = ctrl.CheckFeeds(context.Background())
	if err != nil || sent != 0 {
		t.Fatalf("third sweep sent=%d err=%v, want 0/nil", sent, err)
	}
}

func TestCheckFeedsIgnoresVideosBeforeSubscription(t *testing.T) {
	db, _, feeds := newYouTubeFixture(t, time.Now().Add(-48*time.Hour))

	notifier := &stubNotifier{result: true}
	ctrl := NewYouTubeController(db, feeds, notifier, testLogger())

	sent, err := ctrl.CheckFeeds(context.Background())
	if err != nil || sent != 0 || notifier.calls != 0 {
		t.Fatalf("sent=%d calls=%d err=%v, want all zero", sent, notifier.calls, err)
	}
}

func TestCheckFeedsSinceGate(t *testing.T) {
	db, _, feeds := newYouTubeFixture(t, time.Now())

	notifier := &stubNotifier{result: true}
	ctrl := NewYouTubeController(db, feeds, notifier, testLogger())

	sent, err := ctrl.CheckFeedsSince(context.Background(), time.Now().Add(time.Hour))
	if err != nil || sent != 0 {
		t.Fatalf("gated sweep sent=%d err=%v, want 0/nil", sent, err)
	}
}

func TestCheckFeedsSendsClickURL(t *testing.T) {
	db, _, feeds := newYouTubeFixture(t, time.Now())

	notifier := &stubNotifier{result: true}
	ctrl := NewYouTubeController(db, feeds, notifier, testLogger())

	if _, err := ctrl.CheckFeeds(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(notifier.msgs) != 1 {
		t.Fatalf("messages = %d", len(notifier.msgs))
	}
	msg := notifier.msgs[0]
	if msg.ClickURL != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("click url = %q", msg.ClickURL)
	}
	if msg.Subject != "New video: Some Channel" {
		t.Errorf("subject = %q", msg.Subject)
	}
}
