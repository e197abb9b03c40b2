package models

import "time"

// SentNotification records a delivered daily media notification.
// Uniqueness on (user, kind, media id, day) is enforced through the
// store key; at most one notification per user per item per calendar
// day.
type SentNotification struct {
	UserID    uint64 `boltholdIndex:"UserID"`
	MediaID   int
	MediaKind MediaKind
	Day       string // DayFormat
	Title     string
	SentAt    time.Time
}

// Sent4KNotification records a consumed 4K one-shot alert. It is
// written before dispatch so the subscription fires exactly once even
// when delivery fails.
type Sent4KNotification struct {
	UserID uint64 `boltholdIndex:"UserID"`
	TMDBID int
	Title  string
	SentAt time.Time
}

// SentYouTubeNotification records a delivered video alert, keyed per
// (user, video). Reserved before dispatch and released again when
// delivery fails so the video is retried on the next sweep.
type SentYouTubeNotification struct {
	UserID       uint64 `boltholdIndex:"UserID"`
	VideoID      string
	PublishedDay string
	Title        string
	ChannelTitle string
	SentAt       time.Time
}
