package models

import "time"

// SeriesSubscription tracks a user's interest in new episodes of a
// Sonarr series. Display fields are cached at subscribe time.
type SeriesSubscription struct {
	ID       uint64 `boltholdKey:"ID"`
	UserID   uint64 `boltholdIndex:"UserID"`
	SeriesID int    `boltholdIndex:"SeriesID"`

	Title    string
	Poster   string
	Overview string
	Genres   []string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MovieSubscription tracks a user's interest in a Radarr movie
// becoming available.
type MovieSubscription struct {
	ID      uint64 `boltholdKey:"ID"`
	UserID  uint64 `boltholdIndex:"UserID"`
	MovieID int    `boltholdIndex:"MovieID"`
	TMDBID  int

	Title       string
	Poster      string
	Overview    string
	Genres      []string
	ReleaseDate *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Movie4KSubscription is a one-shot subscription that fires once a 4K
// file for the movie shows up on any Radarr instance.
type Movie4KSubscription struct {
	ID     uint64 `boltholdKey:"ID"`
	UserID uint64 `boltholdIndex:"UserID"`
	TMDBID int    `boltholdIndex:"TMDBID"`

	Title string

	CreatedAt time.Time
}

// YouTubeSubscription tracks a channel or playlist feed.
type YouTubeSubscription struct {
	ID       uint64 `boltholdKey:"ID"`
	UserID   uint64 `boltholdIndex:"UserID"`
	Kind     YouTubeKind
	TargetID string `boltholdIndex:"TargetID"` // channelId or playlistId

	Title string

	CreatedAt time.Time
}
