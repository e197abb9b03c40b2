package arr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/subscribarr/subscribarr/internal/config"
)

// RadarrCalendar fetches monitored movies with releases in [start, end).
func (c *Client) RadarrCalendar(ctx context.Context, inst config.Instance, start, end time.Time) ([]Movie, error) {
	query := url.Values{}
	query.Set("start", start.UTC().Format("2006-01-02"))
	query.Set("end", end.UTC().Format("2006-01-02"))
	query.Set("unmonitored", "false")

	var entries []CalendarMovie
	if err := c.Get(ctx, inst, "/api/v3/calendar", query, &entries); err != nil {
		return nil, err
	}

	// Depending on version the calendar returns the movie inline or
	// nested under "movie".
	movies := make([]Movie, 0, len(entries))
	for _, e := range entries {
		if e.Nested != nil && e.Nested.ID != 0 {
			movies = append(movies, *e.Nested)
			continue
		}
		movies = append(movies, e.Movie)
	}
	return movies, nil
}

// RadarrMovie fetches one movie by its instance-local id.
func (c *Client) RadarrMovie(ctx context.Context, inst config.Instance, movieID int) (*Movie, error) {
	var movie Movie
	path := fmt.Sprintf("/api/v3/movie/%d", movieID)
	if err := c.Get(ctx, inst, path, nil, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// RadarrMovies fetches the instance's full movie catalog.
func (c *Client) RadarrMovies(ctx context.Context, inst config.Instance) ([]Movie, error) {
	var movies []Movie
	if err := c.Get(ctx, inst, "/api/v3/movie", nil, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// RadarrLookupTMDB resolves a TMDB id to a movie record even when the
// movie is not yet in the instance's library.
func (c *Client) RadarrLookupTMDB(ctx context.Context, inst config.Instance, tmdbID int) (*Movie, error) {
	query := url.Values{}
	query.Set("tmdbId", strconv.Itoa(tmdbID))

	var movie Movie
	if err := c.Get(ctx, inst, "/api/v3/movie/lookup/tmdb", query, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// RadarrMovieFiles fetches the media files attached to a movie.
func (c *Client) RadarrMovieFiles(ctx context.Context, inst config.Instance, movieID int) ([]MovieFile, error) {
	query := url.Values{}
	query.Set("movieId", strconv.Itoa(movieID))

	var files []MovieFile
	if err := c.Get(ctx, inst, "/api/v3/moviefile", query, &files); err != nil {
		return nil, err
	}
	return files, nil
}
