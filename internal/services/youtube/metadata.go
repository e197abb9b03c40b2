package youtube

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/subscribarr/subscribarr/internal/cache"
)

// Metadata is the display information for a channel or playlist,
// scraped from its public page.
type Metadata struct {
	Title string `json:"title"`
	Image string `json:"image"`
	URL   string `json:"url"`
}

var (
	ogTagPattern = regexp.MustCompile(`<meta[^>]+(?:property|name)=["']og:(title|image|url)["'][^>]+content=["']([^"']*)["']`)
	// content attribute sometimes precedes the property attribute
	ogTagReversedPattern = regexp.MustCompile(`<meta[^>]+content=["']([^"']*)["'][^>]+(?:property|name)=["']og:(title|image|url)["']`)
	titleTagPattern      = regexp.MustCompile(`<title>([^<]+)</title>`)
)

func pageURL(kind, targetID string) string {
	if kind == KindPlaylist {
		return "https://www.youtube.com/playlist?list=" + targetID
	}
	if strings.HasPrefix(targetID, "@") {
		return "https://www.youtube.com/" + targetID
	}
	return "https://www.youtube.com/channel/" + targetID
}

// Lookup scrapes the target page for Open Graph tags and falls back
// to the feed itself when the page yields nothing usable. Results are
// cached with the feed TTL.
func (c *Client) Lookup(ctx context.Context, kind, targetID string) (Metadata, error) {
	key := fmt.Sprintf("ytmeta:%s:%s", kind, targetID)
	return cache.GetOrCompute(c.cache, key, c.feedTTL, func() (Metadata, error) {
		meta := Metadata{URL: pageURL(kind, targetID)}

		if body, err := c.fetch(ctx, meta.URL); err == nil {
			og := parseOpenGraph(body)
			meta.Title = og["title"]
			meta.Image = og["image"]
			if og["url"] != "" {
				meta.URL = og["url"]
			}
			if meta.Title == "" {
				if m := titleTagPattern.FindSubmatch(body); m != nil {
					meta.Title = strings.TrimSuffix(strings.TrimSpace(html.UnescapeString(string(m[1]))), " - YouTube")
				}
			}
		} else {
			c.logger.WithError(err).WithField("target", targetID).Debug("metadata page fetch failed")
		}

		if meta.Title == "" || meta.Image == "" {
			c.fillFromFeed(ctx, kind, targetID, &meta)
		}
		if meta.Title == "" {
			if kind == KindPlaylist {
				meta.Title = "Playlist: " + targetID
			} else {
				meta.Title = "Channel: " + targetID
			}
		}
		return meta, nil
	})
}

// fillFromFeed uses the newest feed entry to plug gaps the page scrape
// left open.
func (c *Client) fillFromFeed(ctx context.Context, kind, targetID string, meta *Metadata) {
	feedURL, err := c.FeedURL(ctx, kind, targetID)
	if err != nil {
		return
	}
	entries, err := c.FeedEntries(ctx, feedURL)
	if err != nil || len(entries) == 0 {
		return
	}
	if meta.Title == "" && entries[0].ChannelTitle != "" {
		meta.Title = entries[0].ChannelTitle
	}
	if meta.Image == "" {
		meta.Image = entries[0].Thumbnail
	}
}

func parseOpenGraph(body []byte) map[string]string {
	og := make(map[string]string)

	var limited []byte
	if len(body) > 256*1024 {
		limited = body[:256*1024]
	} else {
		limited = body
	}

	for _, m := range ogTagPattern.FindAllSubmatch(limited, -1) {
		prop, content := string(m[1]), html.UnescapeString(string(m[2]))
		if og[prop] == "" {
			og[prop] = content
		}
	}
	for _, m := range ogTagReversedPattern.FindAllSubmatch(limited, -1) {
		content, prop := html.UnescapeString(string(m[1])), string(m[2])
		if og[prop] == "" {
			og[prop] = content
		}
	}
	return og
}
