package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/patrikzak/attendo/internal/database"
)

func TestSettingsHandler_Get(t *testing.T) {
	handler := NewSettingsHandler(newTestStore())

	recorder := httptest.NewRecorder()
	handler.Get(recorder, httptest.NewRequest("GET", "/api/v1/settings", nil))

	assertStatusCode(t, recorder, http.StatusOK)

	var settings database.Settings
	parseEnvelope(t, recorder, &settings)
	if settings.WorkStartTime != "09:00" || settings.RecognitionThreshold != 0.5 {
		t.Errorf("unexpected settings: %+v", settings)
	}
}

func TestSettingsHandler_Update(t *testing.T) {
	handler := NewSettingsHandler(newTestStore())

	req := jsonRequest(t, "PUT", "/api/v1/settings", map[string]any{
		"workStartTime": "08:30",
		"lateThreshold": 5,
	})
	recorder := httptest.NewRecorder()
	handler.Update(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var settings database.Settings
	parseEnvelope(t, recorder, &settings)
	if settings.WorkStartTime != "08:30" || settings.LateThreshold != 5 {
		t.Errorf("unexpected settings: %+v", settings)
	}
	if settings.WorkEndTime != "18:00" {
		t.Errorf("partial update must keep work end, got %s", settings.WorkEndTime)
	}
}

func TestSettingsHandler_UpdateValidation(t *testing.T) {
	handler := NewSettingsHandler(newTestStore())

	tests := []struct {
		name string
		body map[string]any
	}{
		{"bad time", map[string]any{"workStartTime": "9am"}},
		{"negative tolerance", map[string]any{"lateThreshold": -1}},
		{"threshold above one", map[string]any{"recognitionThreshold": 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			handler.Update(recorder, jsonRequest(t, "PUT", "/api/v1/settings", tt.body))
			assertStatusCode(t, recorder, http.StatusBadRequest)
		})
	}
}
