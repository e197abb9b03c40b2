package arr

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/cache"
	"github.com/subscribarr/subscribarr/internal/config"
)

// UHDMinWidth is the horizontal resolution above which a file counts
// as 4K. It sits a few pixels under true UHD (3840) to absorb encoder
// metadata variance.
const UHDMinWidth = 3800

var uhdLabelTokens = []string{"2160", "4k", "uhd"}

// Availability answers "has a downloadable file" and "has a 4K file"
// questions across all enabled instances. Per-item probes are cached
// briefly; full catalog pulls are cached longer.
type Availability struct {
	client *Client
	cache  *cache.Cache
	cfg    config.Config
	logger *logrus.Logger
}

// NewAvailability creates an availability aggregator.
func NewAvailability(client *Client, c *cache.Cache, cfg config.Config, logger *logrus.Logger) *Availability {
	return &Availability{client: client, cache: c, cfg: cfg, logger: logger}
}

func instKey(inst config.Instance, op string, args ...interface{}) string {
	key := fmt.Sprintf("%s:%s:%s:%s", inst.Kind, inst.Name, inst.BaseURL, op)
	for _, a := range args {
		key += fmt.Sprintf(":%v", a)
	}
	return key
}

// MovieHasFile reports whether any enabled Radarr instance has a file
// for the movie. Instances are asked in priority order; the first hit
// wins.
func (a *Availability) MovieHasFile(ctx context.Context, movieID int) bool {
	_, ok := a.MovieWithFile(ctx, movieID)
	return ok
}

// MovieWithFile returns the probed movie record from the first
// instance that holds a file for it, so callers can inspect release
// dates of the copy that actually exists.
func (a *Availability) MovieWithFile(ctx context.Context, movieID int) (*Movie, bool) {
	for _, inst := range a.cfg.EnabledInstances("radarr") {
		inst := inst
		movie, err := cache.GetOrCompute(a.cache, instKey(inst, "movie", movieID), a.cfg.ProbeTTL, func() (*Movie, error) {
			return a.client.RadarrMovie(ctx, inst, movieID)
		})
		if err != nil {
			a.logger.WithError(err).WithField("instance", inst.Name).Debug("Movie probe failed, instance skipped")
			continue
		}
		if movie.HasFile {
			return movie, true
		}
	}
	return nil, false
}

// EpisodeHasFile reports whether any enabled Sonarr instance has a
// file for the given episode.
func (a *Availability) EpisodeHasFile(ctx context.Context, seriesID, season, episode int) bool {
	for _, inst := range a.cfg.EnabledInstances("sonarr") {
		inst := inst
		episodes, err := cache.GetOrCompute(a.cache, instKey(inst, "episodes", seriesID), a.cfg.ProbeTTL, func() ([]Episode, error) {
			return a.client.SonarrEpisodes(ctx, inst, seriesID)
		})
		if err != nil {
			a.logger.WithError(err).WithField("instance", inst.Name).Debug("Episode probe failed, instance skipped")
			continue
		}
		for _, ep := range episodes {
			if ep.SeasonNumber == season && ep.EpisodeNumber == episode && ep.HasFile {
				return true
			}
		}
	}
	return false
}

// HasFile4K reports whether any enabled Radarr instance holds a 4K
// file for the movie identified by TMDB id. With no configured
// instances it is always false; it never errors.
func (a *Availability) HasFile4K(ctx context.Context, tmdbID int) bool {
	for _, inst := range a.cfg.EnabledInstances("radarr") {
		if a.instanceHas4K(ctx, inst, tmdbID) {
			return true
		}
	}
	return false
}

func (a *Availability) instanceHas4K(ctx context.Context, inst config.Instance, tmdbID int) bool {
	movie := a.resolveTMDB(ctx, inst, tmdbID)
	if movie == nil || movie.ID == 0 {
		// Not in this instance's library; a lookup hit without a
		// library id has no files either way.
		return false
	}
	if !movie.HasFile {
		return false
	}

	files, err := cache.GetOrCompute(a.cache, instKey(inst, "moviefiles", movie.ID), a.cfg.ProbeTTL, func() ([]MovieFile, error) {
		return a.client.RadarrMovieFiles(ctx, inst, movie.ID)
	})
	if err != nil {
		a.logger.WithError(err).WithField("instance", inst.Name).Debug("Movie file probe failed, instance skipped")
		return false
	}
	for _, f := range files {
		if Is4KFile(f) {
			return true
		}
	}
	return false
}

// resolveTMDB maps a TMDB id to this instance's movie record, first
// through the cached full catalog, then through a direct lookup for
// movies not yet imported. A miss returns nil.
func (a *Availability) resolveTMDB(ctx context.Context, inst config.Instance, tmdbID int) *Movie {
	catalog, err := cache.GetOrCompute(a.cache, instKey(inst, "movies"), a.cfg.CatalogTTL, func() ([]Movie, error) {
		return a.client.RadarrMovies(ctx, inst)
	})
	if err != nil {
		a.logger.WithError(err).WithField("instance", inst.Name).Debug("Catalog pull failed, instance skipped")
		return nil
	}
	for i := range catalog {
		if catalog[i].TMDBID == tmdbID {
			return &catalog[i]
		}
	}

	movie, err := cache.GetOrCompute(a.cache, instKey(inst, "lookup", tmdbID), a.cfg.ProbeTTL, func() (*Movie, error) {
		return a.client.RadarrLookupTMDB(ctx, inst, tmdbID)
	})
	if err != nil {
		a.logger.WithError(err).WithField("instance", inst.Name).Debug("TMDB lookup failed, instance skipped")
		return nil
	}
	return movie
}

// SeriesEnded reports whether the series is marked ended on any
// enabled Sonarr instance.
func (a *Availability) SeriesEnded(ctx context.Context, seriesID int) bool {
	for _, inst := range a.cfg.EnabledInstances("sonarr") {
		inst := inst
		series, err := cache.GetOrCompute(a.cache, instKey(inst, "series", seriesID), a.cfg.ProbeTTL, func() (*Series, error) {
			return a.client.SonarrSeries(ctx, inst, seriesID)
		})
		if err != nil {
			a.logger.WithError(err).WithField("instance", inst.Name).Debug("Series probe failed, instance skipped")
			continue
		}
		if strings.EqualFold(series.Status, "ended") {
			return true
		}
	}
	return false
}

// Is4KFile applies the 4K heuristic: a file counts as 4K when its
// horizontal resolution reaches UHDMinWidth or its quality label
// carries a recognizable UHD marker. The two signals are ORed because
// upstream metadata quality varies.
func Is4KFile(f MovieFile) bool {
	if f.MediaInfo.Width >= UHDMinWidth {
		return true
	}
	label := strings.ToLower(f.Quality.Quality.Name)
	for _, token := range uhdLabelTokens {
		if strings.Contains(label, token) {
			return true
		}
	}
	return false
}
