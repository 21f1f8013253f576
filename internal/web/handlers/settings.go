package handlers

import (
	"log"
	"net/http"

	"github.com/patrikzak/attendo/internal/attendance"
	"github.com/patrikzak/attendo/internal/database"
)

// SettingsHandler serves the attendance policy administration.
type SettingsHandler struct {
	store database.PolicyStore
}

// NewSettingsHandler creates a settings handler.
func NewSettingsHandler(store database.PolicyStore) *SettingsHandler {
	return &SettingsHandler{store: store}
}

// Get handles GET /api/v1/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.store.LoadSettings(r.Context())
	if err != nil {
		log.Printf("failed to load settings: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respondSuccess(w, settings, "ok")
}

// Update handles PUT /api/v1/settings. Partial updates are
// allowed; omitted fields keep their stored value.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var upd database.SettingsUpdate
	if err := decodeJSON(r, &upd); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	for _, t := range []*string{upd.WorkStartTime, upd.WorkEndTime} {
		if t == nil {
			continue
		}
		if _, err := attendance.ParseClock(*t); err != nil {
			respondError(w, http.StatusBadRequest, "work times must be HH:MM")
			return
		}
	}
	if upd.LateThreshold != nil && *upd.LateThreshold < 0 {
		respondError(w, http.StatusBadRequest, "lateThreshold must not be negative")
		return
	}
	if upd.EarlyThreshold != nil && *upd.EarlyThreshold < 0 {
		respondError(w, http.StatusBadRequest, "earlyThreshold must not be negative")
		return
	}
	if upd.RecognitionThreshold != nil && (*upd.RecognitionThreshold < 0 || *upd.RecognitionThreshold > 1) {
		respondError(w, http.StatusBadRequest, "recognitionThreshold must be between 0 and 1")
		return
	}

	if err := h.store.SaveSettings(r.Context(), upd); err != nil {
		log.Printf("failed to save settings: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	settings, err := h.store.LoadSettings(r.Context())
	if err != nil {
		log.Printf("failed to reload settings: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to load settings")
		return
	}
	respondSuccess(w, settings, "settings updated")
}
