package arr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/subscribarr/subscribarr/internal/cache"
	"github.com/subscribarr/subscribarr/internal/config"
)

func movieFile(width int, label string) MovieFile {
	var f MovieFile
	f.MediaInfo.Width = width
	f.Quality.Quality.Name = label
	return f
}

func TestIs4KFile(t *testing.T) {
	cases := []struct {
		name string
		file MovieFile
		want bool
	}{
		{"full uhd width", movieFile(3840, "Bluray-1080p"), true},
		{"slightly cropped uhd width", movieFile(3832, ""), true},
		{"below threshold", movieFile(3700, "Bluray-1080p"), false},
		{"label 2160p", movieFile(1920, "WEBDL-2160p"), true},
		{"label 4k", movieFile(0, "Remux 4K"), true},
		{"label uhd uppercase", movieFile(0, "UHD BluRay"), true},
		{"no signals", movieFile(1920, "WEBDL-1080p"), false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Is4KFile(c.file); got != c.want {
				t.Errorf("Is4KFile(%+v) = %v, want %v", c.file, got, c.want)
			}
		})
	}
}

// fakeRadarr serves a minimal Radarr API: a catalog, per-movie records
// and movie files.
func fakeRadarr(t *testing.T, movies []Movie, filesByMovie map[int][]MovieFile) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/movie", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(movies)
	})
	mux.HandleFunc("/api/v3/moviefile", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.URL.Query().Get("movieId"))
		if files, ok := filesByMovie[id]; ok {
			json.NewEncoder(w).Encode(files)
			return
		}
		json.NewEncoder(w).Encode([]MovieFile{})
	})
	mux.HandleFunc("/api/v3/movie/lookup/tmdb", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Movie{})
	})
	return httptest.NewServer(mux)
}

func availabilityConfig(instances ...config.Instance) config.Config {
	return config.Config{
		Instances:       instances,
		UpstreamTimeout: 2 * time.Second,
		CatalogTTL:      time.Minute,
		ProbeTTL:        time.Minute,
	}
}

func TestHasFile4KAcrossInstances(t *testing.T) {
	// Instance A knows the movie but only in 1080p; instance B, lower
	// priority, has the 4K file. The aggregate answer must be true.
	movieA := Movie{ID: 11, TMDBID: 603, Title: "The Matrix", HasFile: true}
	srvA := fakeRadarr(t, []Movie{movieA}, map[int][]MovieFile{
		11: {movieFile(1920, "Bluray-1080p")},
	})
	defer srvA.Close()

	movieB := Movie{ID: 42, TMDBID: 603, Title: "The Matrix", HasFile: true}
	srvB := fakeRadarr(t, []Movie{movieB}, map[int][]MovieFile{
		42: {movieFile(3840, "Remux-2160p")},
	})
	defer srvB.Close()

	cfg := availabilityConfig(
		config.Instance{Kind: "radarr", Name: "a", BaseURL: srvA.URL, APIKey: "k", Enabled: true, Order: 0},
		config.Instance{Kind: "radarr", Name: "b", BaseURL: srvB.URL, APIKey: "k", Enabled: true, Order: 1},
	)
	avail := NewAvailability(NewClient(cfg.UpstreamTimeout, testLogger()), cache.New(), cfg, testLogger())

	if !avail.HasFile4K(context.Background(), 603) {
		t.Fatal("expected 4K availability from lower-priority instance")
	}
	// Monotonic for an immutable dataset: asking again must not flap.
	if !avail.HasFile4K(context.Background(), 603) {
		t.Fatal("expected repeated query to stay true")
	}
}

func TestHasFile4KNoInstances(t *testing.T) {
	cfg := availabilityConfig()
	avail := NewAvailability(NewClient(time.Second, testLogger()), cache.New(), cfg, testLogger())
	if avail.HasFile4K(context.Background(), 603) {
		t.Error("expected false with no configured instances")
	}
}

func TestHasFile4KSkipsUnreachableInstance(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	dead.Close()

	movie := Movie{ID: 9, TMDBID: 550, HasFile: true}
	srv := fakeRadarr(t, []Movie{movie}, map[int][]MovieFile{
		9: {movieFile(3840, "Remux-2160p")},
	})
	defer srv.Close()

	cfg := availabilityConfig(
		config.Instance{Kind: "radarr", Name: "down", BaseURL: dead.URL, APIKey: "k", Enabled: true, Order: 0},
		config.Instance{Kind: "radarr", Name: "up", BaseURL: srv.URL, APIKey: "k", Enabled: true, Order: 1},
	)
	avail := NewAvailability(NewClient(500*time.Millisecond, testLogger()), cache.New(), cfg, testLogger())

	if !avail.HasFile4K(context.Background(), 550) {
		t.Error("expected unreachable instance to be skipped, not to veto the answer")
	}
}

func TestMovieHasFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/movie/42", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Movie{ID: 42, HasFile: true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := availabilityConfig(
		config.Instance{Kind: "radarr", Name: "main", BaseURL: srv.URL, APIKey: "k", Enabled: true},
	)
	avail := NewAvailability(NewClient(time.Second, testLogger()), cache.New(), cfg, testLogger())

	if !avail.MovieHasFile(context.Background(), 42) {
		t.Error("expected hasFile to be reported")
	}
	if avail.MovieHasFile(context.Background(), 43) {
		t.Error("expected missing movie to report false")
	}
}

func TestEpisodeHasFile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/episode", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Episode{
			{SeriesID: 5, SeasonNumber: 1, EpisodeNumber: 1, HasFile: false},
			{SeriesID: 5, SeasonNumber: 1, EpisodeNumber: 2, HasFile: true},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := availabilityConfig(
		config.Instance{Kind: "sonarr", Name: "main", BaseURL: srv.URL, APIKey: "k", Enabled: true},
	)
	avail := NewAvailability(NewClient(time.Second, testLogger()), cache.New(), cfg, testLogger())

	if avail.EpisodeHasFile(context.Background(), 5, 1, 1) {
		t.Error("episode without file reported as available")
	}
	if !avail.EpisodeHasFile(context.Background(), 5, 1, 2) {
		t.Error("episode with file not reported")
	}
}
