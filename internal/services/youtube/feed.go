// Package youtube consumes the public syndication feeds YouTube
// publishes per channel and playlist. No API key is involved.
package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/cache"
)

const (
	userAgent    = "subscribarr/1.0 (youtube)"
	maxFeedSize  = 4 * 1024 * 1024
	KindChannel  = "channel"
	KindPlaylist = "playlist"
)

// Entry is one video from a feed.
type Entry struct {
	VideoID      string
	Title        string
	URL          string
	Published    *time.Time
	ChannelTitle string
	Thumbnail    string
}

// Client fetches and parses feeds. Feed bodies are cached so many
// subscribers of the same channel share one fetch per sweep.
type Client struct {
	httpClient *http.Client
	cache      *cache.Cache
	feedTTL    time.Duration
	logger     *logrus.Logger
}

// NewClient creates a feed client.
func NewClient(c *cache.Cache, feedTTL, timeout time.Duration, logger *logrus.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cache:      c,
		feedTTL:    feedTTL,
		logger:     logger,
	}
}

var channelIDPattern = regexp.MustCompile(`"channelId"\s*:\s*"(UC[^"]+?)"`)

// ResolveHandle maps an @handle to its UC channel id by scraping the
// channel page.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	h := strings.TrimPrefix(strings.TrimSpace(handle), "/")
	if !strings.HasPrefix(h, "@") {
		return "", fmt.Errorf("not a handle: %q", handle)
	}
	body, err := c.fetch(ctx, "https://www.youtube.com/"+h)
	if err != nil {
		return "", fmt.Errorf("resolving handle %q: %w", handle, err)
	}
	m := channelIDPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("no channel id found for handle %q", handle)
	}
	return string(m[1]), nil
}

// FeedURL builds the syndication feed URL for a channel or playlist
// target, resolving @handles to channel ids on the fly.
func (c *Client) FeedURL(ctx context.Context, kind, targetID string) (string, error) {
	tid := strings.TrimSpace(targetID)
	if tid == "" {
		return "", fmt.Errorf("empty target id")
	}
	if strings.HasPrefix(tid, "@") || strings.HasPrefix(tid, "/@") {
		cid, err := c.ResolveHandle(ctx, tid)
		if err != nil {
			return "", err
		}
		tid = cid
	}
	// Channel ids start with UC; playlists with PL or UU (uploads).
	if kind == KindChannel || strings.HasPrefix(tid, "UC") {
		if !strings.HasPrefix(tid, "UC") {
			return "", fmt.Errorf("invalid channel id %q", targetID)
		}
		return "https://www.youtube.com/feeds/videos.xml?channel_id=" + url.QueryEscape(tid), nil
	}
	if kind == KindPlaylist || strings.HasPrefix(tid, "PL") || strings.HasPrefix(tid, "UU") {
		return "https://www.youtube.com/feeds/videos.xml?playlist_id=" + url.QueryEscape(tid), nil
	}
	return "", fmt.Errorf("cannot build feed url for %s %q", kind, targetID)
}

// Atom-with-media-extension feed shape; match by local element names.
type atomFeed struct {
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Title     string `xml:"title"`
	VideoID   string `xml:"videoId"`
	Published string `xml:"published"`
	Link      struct {
		Href string `xml:"href,attr"`
	} `xml:"link"`
	Author struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Group struct {
		Thumbnail struct {
			URL string `xml:"url,attr"`
		} `xml:"thumbnail"`
	} `xml:"group"`
}

// FeedEntries fetches and parses the feed, cached per feed URL.
func (c *Client) FeedEntries(ctx context.Context, feedURL string) ([]Entry, error) {
	return cache.GetOrCompute(c.cache, "ytfeed:"+feedURL, c.feedTTL, func() ([]Entry, error) {
		body, err := c.fetch(ctx, feedURL)
		if err != nil {
			return nil, fmt.Errorf("fetching feed: %w", err)
		}
		return parseFeed(body)
	})
}

func parseFeed(body []byte) ([]Entry, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		videoID := e.VideoID
		href := e.Link.Href
		if videoID == "" && href != "" {
			if u, err := url.Parse(href); err == nil {
				videoID = u.Query().Get("v")
			}
		}
		if videoID == "" {
			continue
		}
		if href == "" {
			href = "https://www.youtube.com/watch?v=" + videoID
		}

		var published *time.Time
		if e.Published != "" {
			if ts, err := time.Parse(time.RFC3339, e.Published); err == nil {
				published = &ts
			}
		}

		entries = append(entries, Entry{
			VideoID:      videoID,
			Title:        e.Title,
			URL:          href,
			Published:    published,
			ChannelTitle: e.Author.Name,
			Thumbnail:    e.Group.Thumbnail.URL,
		})
	}
	return entries, nil
}

// fetch GETs a URL with one bounded retry; YouTube occasionally drops
// the first request.
func (c *Client) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d from %s", resp.StatusCode, rawURL)
		}
		body, err = io.ReadAll(io.LimitReader(resp.Body, maxFeedSize))
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return body, nil
}
