package arr

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/subscribarr/subscribarr/internal/config"
)

// SonarrCalendar fetches monitored episodes airing in [start, end).
func (c *Client) SonarrCalendar(ctx context.Context, inst config.Instance, start, end time.Time) ([]Episode, error) {
	query := url.Values{}
	query.Set("start", start.UTC().Format("2006-01-02"))
	query.Set("end", end.UTC().Format("2006-01-02"))
	query.Set("unmonitored", "false")
	query.Set("includeSeries", "true")

	var episodes []Episode
	if err := c.Get(ctx, inst, "/api/v3/calendar", query, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// SonarrSeries fetches one series by its instance-local id.
func (c *Client) SonarrSeries(ctx context.Context, inst config.Instance, seriesID int) (*Series, error) {
	var series Series
	path := fmt.Sprintf("/api/v3/series/%d", seriesID)
	if err := c.Get(ctx, inst, path, nil, &series); err != nil {
		return nil, err
	}
	return &series, nil
}

// SonarrEpisodes fetches all episodes of a series.
func (c *Client) SonarrEpisodes(ctx context.Context, inst config.Instance, seriesID int) ([]Episode, error) {
	query := url.Values{}
	query.Set("seriesId", strconv.Itoa(seriesID))

	var episodes []Episode
	if err := c.Get(ctx, inst, "/api/v3/episode", query, &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}
