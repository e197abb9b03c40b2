package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/subscribarr/subscribarr/internal/config"
	"github.com/subscribarr/subscribarr/internal/models"
	"github.com/subscribarr/subscribarr/internal/services/arr"
)

// fakeRadarr4K serves a catalog with one 4K movie under tmdb id 603.
func fakeRadarr4K(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/movie", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]arr.Movie{{ID: 7, TMDBID: 603, Title: "The Matrix", HasFile: true}})
	})
	mux.HandleFunc("/api/v3/moviefile", func(w http.ResponseWriter, r *http.Request) {
		var f arr.MovieFile
		f.MovieID = 7
		f.MediaInfo.Width = 3840
		f.Quality.Quality.Name = "Remux-2160p"
		json.NewEncoder(w).Encode([]arr.MovieFile{f})
	})
	return httptest.NewServer(mux)
}

func TestCheck4KConsumesAlertEvenWhenDeliveryFails(t *testing.T) {
	srv := fakeRadarr4K(t)
	defer srv.Close()

	cfg := sweepConfig(config.Instance{Kind: "radarr", Name: "main", BaseURL: srv.URL, APIKey: "k", Enabled: true})
	_, avail := newArrPair(cfg)

	db := newTestDB(t)
	user := newTestUser(t, db)
	if err := db.CreateMovie4KSubscription(&models.Movie4KSubscription{UserID: user.ID, TMDBID: 603, Title: "The Matrix"}); err != nil {
		t.Fatal(err)
	}

	notifier := &stubNotifier{result: false}
	ctrl := NewMovie4KController(db, avail, notifier, testLogger())

	sent, err := ctrl.Check4K(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent != 0 || notifier.calls != 1 {
		t.Fatalf("sent=%d calls=%d, want 0/1", sent, notifier.calls)
	}
	if subs, _ := db.GetMovie4KSubscriptions(); len(subs) != 0 {
		t.Fatal("subscription must be consumed once 4K exists")
	}
	if done, _ := db.Already4KNotified(user.ID, 603); !done {
		t.Fatal("ledger must keep the reservation after failed delivery")
	}

	// Nothing left to fire on a second run.
	sent, err = ctrl.Check4K(context.Background())
	if err != nil || sent != 0 || notifier.calls != 1 {
		t.Fatalf("second sweep sent=%d calls=%d err=%v", sent, notifier.calls, err)
	}
}

func TestCheck4KNotifies(t *testing.T) {
	srv := fakeRadarr4K(t)
	defer srv.Close()

	cfg := sweepConfig(config.Instance{Kind: "radarr", Name: "main", BaseURL: srv.URL, APIKey: "k", Enabled: true})
	_, avail := newArrPair(cfg)

	db := newTestDB(t)
	user := newTestUser(t, db)
	if err := db.CreateMovie4KSubscription(&models.Movie4KSubscription{UserID: user.ID, TMDBID: 603, Title: "The Matrix"}); err != nil {
		t.Fatal(err)
	}

	notifier := &stubNotifier{result: true}
	ctrl := NewMovie4KController(db, avail, notifier, testLogger())

	sent, err := ctrl.Check4K(context.Background())
	if err != nil || sent != 1 {
		t.Fatalf("sweep sent=%d err=%v, want 1/nil", sent, err)
	}
	if len(notifier.msgs) != 1 {
		t.Fatalf("messages = %d", len(notifier.msgs))
	}
	if got := notifier.msgs[0].Subject; got != "4K available: The Matrix" {
		t.Errorf("subject = %q", got)
	}
}

func TestCheck4KNoFileKeepsSubscription(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/movie", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]arr.Movie{{ID: 7, TMDBID: 603, HasFile: false}})
	})
	mux.HandleFunc("/api/v3/movie/lookup/tmdb", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(arr.Movie{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := sweepConfig(config.Instance{Kind: "radarr", Name: "main", BaseURL: srv.URL, APIKey: "k", Enabled: true})
	_, avail := newArrPair(cfg)

	db := newTestDB(t)
	user := newTestUser(t, db)
	if err := db.CreateMovie4KSubscription(&models.Movie4KSubscription{UserID: user.ID, TMDBID: 603, Title: "The Matrix"}); err != nil {
		t.Fatal(err)
	}

	notifier := &stubNotifier{result: true}
	ctrl := NewMovie4KController(db, avail, notifier, testLogger())
	sent, err := ctrl.Check4K(context.Background())
	if err != nil || sent != 0 || notifier.calls != 0 {
		t.Fatalf("sent=%d calls=%d err=%v, want all zero", sent, notifier.calls, err)
	}
	if subs, _ := db.GetMovie4KSubscriptions(); len(subs) != 1 {
		t.Fatal("subscription must remain while no 4K file exists")
	}
}
