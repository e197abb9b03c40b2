package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/models"
)

// StatusHandler reports subscription and ledger counts.
type StatusHandler struct {
	db     *models.Database
	logger *logrus.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(db *models.Database, logger *logrus.Logger) *StatusHandler {
	return &StatusHandler{
		db:     db,
		logger: logger,
	}
}

// StatusResponse represents the status response
type StatusResponse struct {
	SeriesSubscriptions  int `json:"series_subscriptions"`
	MovieSubscriptions   int `json:"movie_subscriptions"`
	Movie4KSubscriptions int `json:"movie_4k_subscriptions"`
	YouTubeSubscriptions int `json:"youtube_subscriptions"`
	SentNotifications    int `json:"sent_notifications"`
}

// ServeHTTP handles the status endpoint
func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var response StatusResponse

	if subs, err := h.db.GetSeriesSubscriptions(); err == nil {
		response.SeriesSubscriptions = len(subs)
	} else {
		h.logger.WithError(err).Error("Failed to count series subscriptions")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if subs, err := h.db.GetMovieSubscriptions(); err == nil {
		response.MovieSubscriptions = len(subs)
	}
	if subs, err := h.db.GetMovie4KSubscriptions(); err == nil {
		response.Movie4KSubscriptions = len(subs)
	}
	if subs, err := h.db.GetYouTubeSubscriptions(); err == nil {
		response.YouTubeSubscriptions = len(subs)
	}
	if n, err := h.db.CountNotifications(); err == nil {
		response.SentNotifications = n
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
