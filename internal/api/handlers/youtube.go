package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/services/youtube"
)

// YouTubeMetadataHandler serves display metadata for a channel or
// playlist, used when creating a subscription.
type YouTubeMetadataHandler struct {
	feeds  *youtube.Client
	logger *logrus.Logger
}

// NewYouTubeMetadataHandler creates a new metadata handler
func NewYouTubeMetadataHandler(feeds *youtube.Client, logger *logrus.Logger) *YouTubeMetadataHandler {
	return &YouTubeMetadataHandler{feeds: feeds, logger: logger}
}

// ServeHTTP handles GET /api/youtube/metadata?kind=&id=
func (h *YouTubeMetadataHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind != youtube.KindChannel && kind != youtube.KindPlaylist {
		http.Error(w, "kind must be channel or playlist", http.StatusBadRequest)
		return
	}
	targetID := r.URL.Query().Get("id")
	if targetID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	meta, err := h.feeds.Lookup(r.Context(), kind, targetID)
	if err != nil {
		h.logger.WithError(err).WithField("target", targetID).Error("Metadata lookup failed")
		http.Error(w, "Upstream service unavailable", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(meta)
}
