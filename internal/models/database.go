package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// Database wraps the bolthold store.
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// User operations

// CreateUser creates a new user record
func (db *Database) CreateUser(user *User) error {
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), user)
}

// UpdateUser updates an existing user record
func (db *Database) UpdateUser(user *User) error {
	user.UpdatedAt = time.Now()
	return db.store.Update(user.ID, user)
}

// GetUserByID retrieves a user by ID
func (db *Database) GetUserByID(id uint64) (*User, error) {
	var user User
	if err := db.store.Get(id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByName retrieves a user by name
func (db *Database) GetUserByName(name string) (*User, error) {
	var user User
	if err := db.store.FindOne(&user, bolthold.Where("Name").Eq(name).Index("Name")); err != nil {
		return nil, err
	}
	return &user, nil
}

// Subscription operations

// CreateSeriesSubscription creates a new series subscription
func (db *Database) CreateSeriesSubscription(sub *SeriesSubscription) error {
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), sub)
}

// GetSeriesSubscriptions retrieves all series subscriptions
func (db *Database) GetSeriesSubscriptions() ([]*SeriesSubscription, error) {
	var subs []*SeriesSubscription
	err := db.store.Find(&subs, nil)
	return subs, err
}

// DeleteSeriesSubscription deletes a series subscription by ID
func (db *Database) DeleteSeriesSubscription(id uint64) error {
	return db.store.Delete(id, &SeriesSubscription{})
}

// CreateMovieSubscription creates a new movie subscription
func (db *Database) CreateMovieSubscription(sub *MovieSubscription) error {
	sub.CreatedAt = time.Now()
	sub.UpdatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), sub)
}

// GetMovieSubscriptions retrieves all movie subscriptions
func (db *Database) GetMovieSubscriptions() ([]*MovieSubscription, error) {
	var subs []*MovieSubscription
	err := db.store.Find(&subs, nil)
	return subs, err
}

// DeleteMovieSubscription deletes a movie subscription by ID
func (db *Database) DeleteMovieSubscription(id uint64) error {
	return db.store.Delete(id, &MovieSubscription{})
}

// CreateMovie4KSubscription creates a new 4K movie subscription
func (db *Database) CreateMovie4KSubscription(sub *Movie4KSubscription) error {
	sub.CreatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), sub)
}

// GetMovie4KSubscriptions retrieves all 4K movie subscriptions
func (db *Database) GetMovie4KSubscriptions() ([]*Movie4KSubscription, error) {
	var subs []*Movie4KSubscription
	err := db.store.Find(&subs, nil)
	return subs, err
}

// DeleteMovie4KSubscription deletes a 4K movie subscription by ID
func (db *Database) DeleteMovie4KSubscription(id uint64) error {
	return db.store.Delete(id, &Movie4KSubscription{})
}

// CreateYouTubeSubscription creates a new YouTube subscription
func (db *Database) CreateYouTubeSubscription(sub *YouTubeSubscription) error {
	sub.CreatedAt = time.Now()
	return db.store.Insert(bolthold.NextSequence(), sub)
}

// GetYouTubeSubscriptions retrieves all YouTube subscriptions
func (db *Database) GetYouTubeSubscriptions() ([]*YouTubeSubscription, error) {
	var subs []*YouTubeSubscription
	err := db.store.Find(&subs, nil)
	return subs, err
}

// DeleteYouTubeSubscription deletes a YouTube subscription by ID
func (db *Database) DeleteYouTubeSubscription(id uint64) error {
	return db.store.Delete(id, &YouTubeSubscription{})
}

// Dedup ledger operations
//
// Ledger records use explicit composite keys so the store's key
// uniqueness is the safety net when two sweeps race: exactly one
// insert wins, the loser sees bolthold.ErrKeyExists.

func notificationKey(userID uint64, kind MediaKind, mediaID int, day string) string {
	return fmt.Sprintf("%d|%s|%d|%s", userID, kind, mediaID, day)
}

func notification4KKey(userID uint64, tmdbID int) string {
	return fmt.Sprintf("%d|%d", userID, tmdbID)
}

func notificationYouTubeKey(userID uint64, videoID string) string {
	return fmt.Sprintf("%d|%s", userID, videoID)
}

// AlreadyNotified reports whether a daily notification was already
// sent for (user, kind, media id, day).
func (db *Database) AlreadyNotified(userID uint64, kind MediaKind, mediaID int, day string) (bool, error) {
	var rec SentNotification
	err := db.store.Get(notificationKey(userID, kind, mediaID, day), &rec)
	if errors.Is(err, bolthold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecordNotification commits a daily notification to the ledger. A
// concurrent duplicate insert is treated as already committed, not an
// error.
func (db *Database) RecordNotification(rec *SentNotification) error {
	rec.SentAt = time.Now()
	err := db.store.Insert(notificationKey(rec.UserID, rec.MediaKind, rec.MediaID, rec.Day), rec)
	if errors.Is(err, bolthold.ErrKeyExists) {
		return nil
	}
	return err
}

// Already4KNotified reports whether the one-shot 4K alert for (user,
// tmdb id) was already consumed.
func (db *Database) Already4KNotified(userID uint64, tmdbID int) (bool, error) {
	var rec Sent4KNotification
	err := db.store.Get(notification4KKey(userID, tmdbID), &rec)
	if errors.Is(err, bolthold.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Reserve4K writes the 4K ledger record before dispatch. Returns false
// when the record already exists, meaning another sweep consumed the
// subscription first.
func (db *Database) Reserve4K(rec *Sent4KNotification) (bool, error) {
	rec.SentAt = time.Now()
	err := db.store.Insert(notification4KKey(rec.UserID, rec.TMDBID), rec)
	if errors.Is(err, bolthold.ErrKeyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReserveYouTube writes the per-video ledger record before dispatch.
// Returns false when the video was already handled for this user.
func (db *Database) ReserveYouTube(rec *SentYouTubeNotification) (bool, error) {
	rec.SentAt = time.Now()
	err := db.store.Insert(notificationYouTubeKey(rec.UserID, rec.VideoID), rec)
	if errors.Is(err, bolthold.ErrKeyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReleaseYouTube rolls a YouTube reservation back after a failed
// dispatch so the video is retried on the next sweep.
func (db *Database) ReleaseYouTube(userID uint64, videoID string) error {
	err := db.store.Delete(notificationYouTubeKey(userID, videoID), &SentYouTubeNotification{})
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil
	}
	return err
}

// CountNotifications returns the number of daily ledger entries.
func (db *Database) CountNotifications() (int, error) {
	return db.store.Count(&SentNotification{}, nil)
}

// PurgeNotifications removes all ledger entries. Admin reset tooling
// only; normal operation never deletes committed records.
func (db *Database) PurgeNotifications() error {
	if err := db.store.DeleteMatching(&SentNotification{}, nil); err != nil {
		return err
	}
	if err := db.store.DeleteMatching(&Sent4KNotification{}, nil); err != nil {
		return err
	}
	return db.store.DeleteMatching(&SentYouTubeNotification{}, nil)
}
