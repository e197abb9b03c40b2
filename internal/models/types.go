package models

// MediaKind identifies the kind of media a subscription or sent
// notification refers to.
type MediaKind string

const (
	MediaKindSeries  MediaKind = "series"
	MediaKindMovie   MediaKind = "movie"
	MediaKindMovie4K MediaKind = "movie4k"
	MediaKindYouTube MediaKind = "youtube"
)

// Channel is a user's preferred notification channel.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelNtfy    Channel = "ntfy"
	ChannelApprise Channel = "apprise"
)

// YouTubeKind distinguishes channel and playlist subscriptions.
type YouTubeKind string

const (
	YouTubeChannel  YouTubeKind = "channel"
	YouTubePlaylist YouTubeKind = "playlist"
)

// DayFormat is the calendar-day layout used for dedup ledger keys.
const DayFormat = "2006-01-02"
