package models

import (
	"path/filepath"
	"testing"
)

func testDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordNotificationUniquePerDay(t *testing.T) {
	db := testDB(t)

	rec := &SentNotification{UserID: 1, MediaID: 42, MediaKind: MediaKindMovie, Day: "2026-08-29", Title: "Heat"}
	if err := db.RecordNotification(rec); err != nil {
		t.Fatalf("first commit: %v", err)
	}

	done, err := db.AlreadyNotified(1, MediaKindMovie, 42, "2026-08-29")
	if err != nil || !done {
		t.Fatalf("AlreadyNotified = %v, %v", done, err)
	}

	// A duplicate commit is "already committed", not an error.
	if err := db.RecordNotification(rec); err != nil {
		t.Fatalf("duplicate commit must be tolerated: %v", err)
	}
	if n, _ := db.CountNotifications(); n != 1 {
		t.Fatalf("ledger entries = %d, want 1", n)
	}

	// Different day, kind or user each mean a distinct entry.
	if done, _ := db.AlreadyNotified(1, MediaKindMovie, 42, "2026-08-30"); done {
		t.Error("next day must not be marked notified")
	}
	if done, _ := db.AlreadyNotified(1, MediaKindSeries, 42, "2026-08-29"); done {
		t.Error("different kind must not be marked notified")
	}
	if done, _ := db.AlreadyNotified(2, MediaKindMovie, 42, "2026-08-29"); done {
		t.Error("different user must not be marked notified")
	}
}

func TestReserve4KSingleWinner(t *testing.T) {
	db := testDB(t)

	first, err := db.Reserve4K(&Sent4KNotification{UserID: 1, TMDBID: 603, Title: "The Matrix"})
	if err != nil || !first {
		t.Fatalf("first reservation = %v, %v", first, err)
	}
	second, err := db.Reserve4K(&Sent4KNotification{UserID: 1, TMDBID: 603, Title: "The Matrix"})
	if err != nil {
		t.Fatalf("second reservation: %v", err)
	}
	if second {
		t.Fatal("second reservation must lose")
	}
	if done, _ := db.Already4KNotified(1, 603); !done {
		t.Fatal("reservation must be visible")
	}
}

func TestReserveAndReleaseYouTube(t *testing.T) {
	db := testDB(t)

	rec := &SentYouTubeNotification{UserID: 1, VideoID: "abc123", PublishedDay: "2026-08-29", Title: "First Video"}
	if ok, err := db.ReserveYouTube(rec); err != nil || !ok {
		t.Fatalf("reserve = %v, %v", ok, err)
	}
	if ok, _ := db.ReserveYouTube(rec); ok {
		t.Fatal("duplicate reservation must lose")
	}

	if err := db.ReleaseYouTube(1, "abc123"); err != nil {
		t.Fatalf("release: %v", err)
	}
	// Releasing twice is harmless.
	if err := db.ReleaseYouTube(1, "abc123"); err != nil {
		t.Fatalf("double release: %v", err)
	}
	if ok, err := db.ReserveYouTube(rec); err != nil || !ok {
		t.Fatalf("reservation after release = %v, %v", ok, err)
	}
}

func TestPurgeNotifications(t *testing.T) {
	db := testDB(t)

	if err := db.RecordNotification(&SentNotification{UserID: 1, MediaID: 1, MediaKind: MediaKindSeries, Day: "2026-08-29"}); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Reserve4K(&Sent4KNotification{UserID: 1, TMDBID: 603}); err != nil {
		t.Fatal(err)
	}
	if err := db.PurgeNotifications(); err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n, _ := db.CountNotifications(); n != 0 {
		t.Fatalf("ledger entries after purge = %d", n)
	}
	if done, _ := db.Already4KNotified(1, 603); done {
		t.Fatal("4K ledger must be purged")
	}
}

func TestUserCRUD(t *testing.T) {
	db := testDB(t)

	user := &User{Name: "alice", Email: "alice@example.test", NotificationChannel: ChannelNtfy, NtfyTopic: "alice-media"}
	if err := db.CreateUser(user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("create must assign an id")
	}

	got, err := db.GetUserByName("alice")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got.ID != user.ID || got.NtfyTopic != "alice-media" {
		t.Errorf("got %+v", got)
	}

	got.Email = "new@example.test"
	if err := db.UpdateUser(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	byID, err := db.GetUserByID(user.ID)
	if err != nil || byID.Email != "new@example.test" {
		t.Fatalf("get by id after update: %+v, %v", byID, err)
	}
}
