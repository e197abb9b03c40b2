package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/subscribarr/subscribarr/internal/services/arr"
)

const (
	defaultCalendarDays = 7
	maxCalendarDays     = 365
)

// CalendarHandler serves the merged upcoming-release calendars.
type CalendarHandler struct {
	calendar *arr.Calendar
	logger   *logrus.Logger
}

// NewCalendarHandler creates a new calendar handler
func NewCalendarHandler(calendar *arr.Calendar, logger *logrus.Logger) *CalendarHandler {
	return &CalendarHandler{calendar: calendar, logger: logger}
}

// days parses and clamps the window query parameter.
func days(r *http.Request) int {
	d, err := strconv.Atoi(r.URL.Query().Get("days"))
	if err != nil {
		return defaultCalendarDays
	}
	if d < 1 {
		return 1
	}
	if d > maxCalendarDays {
		return maxCalendarDays
	}
	return d
}

// Series handles GET /api/calendar/series
func (h *CalendarHandler) Series(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	episodes, err := h.calendar.SeriesCalendar(r.Context(), days(r))
	if err != nil {
		h.logger.WithError(err).Error("Series calendar unavailable")
		http.Error(w, "Upstream services unavailable", http.StatusBadGateway)
		return
	}

	groups := arr.GroupBySeries(episodes)
	if groups == nil {
		groups = []arr.SeriesGroup{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(groups)
}

// Movies handles GET /api/calendar/movies
func (h *CalendarHandler) Movies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	movies, err := h.calendar.MovieCalendar(r.Context(), days(r))
	if err != nil {
		h.logger.WithError(err).Error("Movie calendar unavailable")
		http.Error(w, "Upstream services unavailable", http.StatusBadGateway)
		return
	}
	if movies == nil {
		movies = []arr.MovieEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(movies)
}
