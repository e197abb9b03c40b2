package arr

import (
	"strings"
	"time"
)

// Image is one artwork entry on a series or movie record.
type Image struct {
	CoverType string `json:"coverType"`
	URL       string `json:"url"`
	RemoteURL string `json:"remoteUrl"`
}

// Series is a Sonarr series record. Fields the upstream omits or
// renames simply decode to zero values.
type Series struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Status   string   `json:"status"` // "continuing", "ended", "upcoming"
	Overview string   `json:"overview"`
	Genres   []string `json:"genres"`
	Images   []Image  `json:"images"`
	TVDBID   int      `json:"tvdbId"`
	IMDBID   string   `json:"imdbId"`
	Network  string   `json:"network"`
}

// Episode is a Sonarr episode record, as returned by the calendar and
// episode endpoints.
type Episode struct {
	ID            int        `json:"id"`
	SeriesID      int        `json:"seriesId"`
	SeasonNumber  int        `json:"seasonNumber"`
	EpisodeNumber int        `json:"episodeNumber"`
	Title         string     `json:"title"`
	AirDateUTC    *time.Time `json:"airDateUtc"`
	HasFile       bool       `json:"hasFile"`
	Series        *Series    `json:"series"` // present with includeSeries=true
}

// Movie is a Radarr movie record.
type Movie struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Year            int        `json:"year"`
	TMDBID          int        `json:"tmdbId"`
	IMDBID          string     `json:"imdbId"`
	Overview        string     `json:"overview"`
	Genres          []string   `json:"genres"`
	Images          []Image    `json:"images"`
	InCinemas       *time.Time `json:"inCinemas"`
	PhysicalRelease *time.Time `json:"physicalRelease"`
	DigitalRelease  *time.Time `json:"digitalRelease"`
	HasFile         bool       `json:"hasFile"`
	IsAvailable     bool       `json:"isAvailable"`
}

// CalendarMovie wraps a calendar entry that may nest the movie record.
type CalendarMovie struct {
	Movie
	Nested *Movie `json:"movie"`
}

// MovieFile is one media file attached to a Radarr movie.
type MovieFile struct {
	ID        int `json:"id"`
	MovieID   int `json:"movieId"`
	Quality   struct {
		Quality struct {
			Name       string `json:"name"`
			Resolution int    `json:"resolution"`
		} `json:"quality"`
	} `json:"quality"`
	MediaInfo struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"mediaInfo"`
}

// PosterURL picks the poster artwork from an image list, preferring
// the upstream's remote URL and falling back to the instance-relative
// path made absolute.
func PosterURL(base string, images []Image) string {
	for _, img := range images {
		if !strings.EqualFold(img.CoverType, "poster") {
			continue
		}
		if img.RemoteURL != "" {
			return img.RemoteURL
		}
		if img.URL != "" {
			return absURL(base, img.URL)
		}
	}
	return ""
}

func absURL(base, p string) string {
	if p == "" {
		return ""
	}
	if p[0] == '/' {
		return NormalizeBaseURL(base) + p
	}
	return p
}
