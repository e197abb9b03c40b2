package arr

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/cache"
	"github.com/subscribarr/subscribarr/internal/config"
)

// EpisodeEntry is one upcoming episode in the merged calendar view.
// Entries are produced fresh each sweep and never persisted.
type EpisodeEntry struct {
	SeriesID       int        `json:"seriesId"`
	SeriesTitle    string     `json:"seriesTitle"`
	SeriesStatus   string     `json:"seriesStatus"`
	SeriesPoster   string     `json:"seriesPoster"`
	SeriesOverview string     `json:"seriesOverview"`
	SeriesGenres   []string   `json:"seriesGenres"`
	EpisodeID      int        `json:"episodeId"`
	SeasonNumber   int        `json:"seasonNumber"`
	EpisodeNumber  int        `json:"episodeNumber"`
	Title          string     `json:"title"`
	AirDateUTC     *time.Time `json:"airDateUtc"`
	TVDBID         int        `json:"tvdbId"`
	IMDBID         string     `json:"imdbId"`
	Network        string     `json:"network"`
}

// MovieEntry is one upcoming movie release in the merged calendar view.
type MovieEntry struct {
	MovieID         int        `json:"movieId"`
	Title           string     `json:"title"`
	Year            int        `json:"year"`
	TMDBID          int        `json:"tmdbId"`
	IMDBID          string     `json:"imdbId"`
	PosterURL       string     `json:"posterUrl"`
	Overview        string     `json:"overview"`
	InCinemas       *time.Time `json:"inCinemas"`
	PhysicalRelease *time.Time `json:"physicalRelease"`
	DigitalRelease  *time.Time `json:"digitalRelease"`
	HasFile         bool       `json:"hasFile"`
	IsAvailable     bool       `json:"isAvailable"`
}

// SeriesGroup bundles the calendar episodes of one series.
type SeriesGroup struct {
	SeriesID       int            `json:"seriesId"`
	SeriesTitle    string         `json:"seriesTitle"`
	SeriesPoster   string         `json:"seriesPoster"`
	SeriesOverview string         `json:"seriesOverview"`
	SeriesGenres   []string       `json:"seriesGenres"`
	Episodes       []EpisodeEntry `json:"episodes"`
}

// Calendar merges forward-looking release calendars across all enabled
// instances of both kinds.
type Calendar struct {
	client *Client
	cache  *cache.Cache
	cfg    config.Config
	logger *logrus.Logger
	now    func() time.Time
}

// NewCalendar creates a calendar merger.
func NewCalendar(client *Client, c *cache.Cache, cfg config.Config, logger *logrus.Logger) *Calendar {
	return &Calendar{client: client, cache: c, cfg: cfg, logger: logger, now: time.Now}
}

// SeriesCalendar returns continuing-series episodes airing within the
// next `days` days across all enabled Sonarr instances. Instances are
// assumed to hold non-overlapping catalogs, so results are merged by
// concatenation. The returned error is non-nil only when every
// configured instance failed.
func (m *Calendar) SeriesCalendar(ctx context.Context, days int) ([]EpisodeEntry, error) {
	if days < 1 {
		days = 1
	}
	start := m.now()
	end := start.AddDate(0, 0, days)

	instances := m.cfg.EnabledInstances("sonarr")
	var out []EpisodeEntry
	var firstErr error
	failures := 0
	for _, inst := range instances {
		inst := inst
		key := instKey(inst, "calendar", start.UTC().Format("2006-01-02"), days)
		episodes, err := cache.GetOrCompute(m.cache, key, m.cfg.CatalogTTL, func() ([]Episode, error) {
			return m.client.SonarrCalendar(ctx, inst, start, end)
		})
		if err != nil {
			failures++
			if firstErr == nil {
				firstErr = err
			}
			m.logger.WithError(err).WithField("instance", inst.Name).Warn("Sonarr calendar fetch failed, instance skipped")
			continue
		}
		for _, ep := range episodes {
			if ep.Series == nil || !strings.EqualFold(ep.Series.Status, "continuing") {
				continue
			}
			out = append(out, EpisodeEntry{
				SeriesID:       ep.Series.ID,
				SeriesTitle:    ep.Series.Title,
				SeriesStatus:   strings.ToLower(ep.Series.Status),
				SeriesPoster:   PosterURL(inst.BaseURL, ep.Series.Images),
				SeriesOverview: ep.Series.Overview,
				SeriesGenres:   ep.Series.Genres,
				EpisodeID:      ep.ID,
				SeasonNumber:   ep.SeasonNumber,
				EpisodeNumber:  ep.EpisodeNumber,
				Title:          ep.Title,
				AirDateUTC:     ep.AirDateUTC,
				TVDBID:         ep.Series.TVDBID,
				IMDBID:         ep.Series.IMDBID,
				Network:        ep.Series.Network,
			})
		}
	}
	if len(instances) > 0 && failures == len(instances) {
		return nil, firstErr
	}
	return out, nil
}

// MovieCalendar returns still-pending movie releases within the next
// `days` days across all enabled Radarr instances. A movie is pending
// while its earliest announced release date lies strictly in the
// future; already-released availability is confirmed separately.
func (m *Calendar) MovieCalendar(ctx context.Context, days int) ([]MovieEntry, error) {
	if days < 1 {
		days = 1
	}
	start := m.now()
	end := start.AddDate(0, 0, days)

	instances := m.cfg.EnabledInstances("radarr")
	var out []MovieEntry
	var firstErr error
	failures := 0
	for _, inst := range instances {
		inst := inst
		key := instKey(inst, "calendar", start.UTC().Format("2006-01-02"), days)
		movies, err := cache.GetOrCompute(m.cache, key, m.cfg.CatalogTTL, func() ([]Movie, error) {
			return m.client.RadarrCalendar(ctx, inst, start, end)
		})
		if err != nil {
			failures++
			if firstErr == nil {
				firstErr = err
			}
			m.logger.WithError(err).WithField("instance", inst.Name).Warn("Radarr calendar fetch failed, instance skipped")
			continue
		}
		for _, movie := range movies {
			earliest := earliestRelease(movie)
			if earliest == nil || !earliest.After(start) {
				continue
			}
			out = append(out, MovieEntry{
				MovieID:         movie.ID,
				Title:           movie.Title,
				Year:            movie.Year,
				TMDBID:          movie.TMDBID,
				IMDBID:          movie.IMDBID,
				PosterURL:       PosterURL(inst.BaseURL, movie.Images),
				Overview:        movie.Overview,
				InCinemas:       movie.InCinemas,
				PhysicalRelease: movie.PhysicalRelease,
				DigitalRelease:  movie.DigitalRelease,
				HasFile:         movie.HasFile,
				IsAvailable:     movie.IsAvailable,
			})
		}
	}
	if len(instances) > 0 && failures == len(instances) {
		return nil, firstErr
	}
	return out, nil
}

// GroupBySeries groups episode entries by series and sorts episodes
// within each group by air time ascending, unknown air times last.
func GroupBySeries(entries []EpisodeEntry) []SeriesGroup {
	byID := make(map[int]*SeriesGroup)
	var order []int
	for _, e := range entries {
		g, ok := byID[e.SeriesID]
		if !ok {
			g = &SeriesGroup{
				SeriesID:       e.SeriesID,
				SeriesTitle:    e.SeriesTitle,
				SeriesPoster:   e.SeriesPoster,
				SeriesOverview: e.SeriesOverview,
				SeriesGenres:   e.SeriesGenres,
			}
			byID[e.SeriesID] = g
			order = append(order, e.SeriesID)
		}
		if g.SeriesPoster == "" {
			g.SeriesPoster = e.SeriesPoster
		}
		if g.SeriesOverview == "" {
			g.SeriesOverview = e.SeriesOverview
		}
		g.Episodes = append(g.Episodes, e)
	}

	groups := make([]SeriesGroup, 0, len(order))
	for _, id := range order {
		g := byID[id]
		sort.SliceStable(g.Episodes, func(i, j int) bool {
			a, b := g.Episodes[i].AirDateUTC, g.Episodes[j].AirDateUTC
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
		groups = append(groups, *g)
	}
	return groups
}

func earliestRelease(m Movie) *time.Time {
	var earliest *time.Time
	for _, d := range []*time.Time{m.InCinemas, m.PhysicalRelease, m.DigitalRelease} {
		if d == nil {
			continue
		}
		if earliest == nil || d.Before(*earliest) {
			earliest = d
		}
	}
	return earliest
}
