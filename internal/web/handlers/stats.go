package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/patrikzak/attendo/internal/database"
)

// StatsHandler serves the dashboard statistics.
type StatsHandler struct {
	store database.AttendanceStore
	now   func() time.Time
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(store database.AttendanceStore) *StatsHandler {
	return &StatsHandler{store: store, now: time.Now}
}

// Today handles GET /api/v1/statistics/today.
func (h *StatsHandler) Today(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	stats, err := h.store.TodayStats(r.Context(), now.Format("2006-01-02"), now.Format("15:04:05"))
	if err != nil {
		log.Printf("failed to load today stats: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load statistics")
		return
	}
	respondSuccess(w, stats, "ok")
}
