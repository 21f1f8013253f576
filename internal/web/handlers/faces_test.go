package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/patrikzak/attendo/internal/quality"
)

func TestFacesHandler_Detect(t *testing.T) {
	store := newTestStore()
	handler := NewFacesHandler(newTestRecognizer(t, store), store)

	req := jsonRequest(t, "POST", "/api/v1/face/detect", map[string]string{
		"image": testImageDataURL(t, 3),
	})
	recorder := httptest.NewRecorder()
	handler.Detect(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp faceDetectResponse
	parseEnvelope(t, recorder, &resp)
	if resp.FacesCount != 1 || len(resp.Faces) != 1 {
		t.Errorf("expected one face box, got %+v", resp)
	}
}

func TestFacesHandler_Quality(t *testing.T) {
	store := newTestStore()
	handler := NewFacesHandler(newTestRecognizer(t, store), store)

	req := jsonRequest(t, "POST", "/api/v1/face/quality", map[string]string{
		"image": testImageDataURL(t, 3),
	})
	recorder := httptest.NewRecorder()
	handler.Quality(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var report quality.Report
	parseEnvelope(t, recorder, &report)
	if report.Face == nil {
		t.Error("expected a face location in the report")
	}
}

func TestFacesHandler_DetectInvalidImage(t *testing.T) {
	store := newTestStore()
	handler := NewFacesHandler(newTestRecognizer(t, store), store)

	req := jsonRequest(t, "POST", "/api/v1/face/detect", map[string]string{
		"image": "data:image/png;base64,not-base64!!",
	})
	recorder := httptest.NewRecorder()
	handler.Detect(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
}

func TestFacesHandler_Register(t *testing.T) {
	store := newTestStore()
	handler := NewFacesHandler(newTestRecognizer(t, store), store)

	req := jsonRequest(t, "POST", "/api/v1/face/register", map[string]any{
		"employeeId": "E001",
		"imageUrls":  []string{testImageDataURL(t, 3), testImageDataURL(t, 5)},
	})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	entries, err := store.LoadGallery(req.Context())
	if err != nil || len(entries) != 1 {
		t.Fatalf("expected one gallery entry, got %v, %v", entries, err)
	}
	if entries[0].EmployeeID != "E001" {
		t.Errorf("enrolled %s, want E001", entries[0].EmployeeID)
	}
}

func TestFacesHandler_RegisterUnknownEmployee(t *testing.T) {
	store := newTestStore()
	handler := NewFacesHandler(newTestRecognizer(t, store), store)

	req := jsonRequest(t, "POST", "/api/v1/face/register", map[string]any{
		"employeeId": "missing",
		"imageUrls":  []string{testImageDataURL(t, 3)},
	})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusNotFound)
}

func TestFacesHandler_RegisterNoPhotos(t *testing.T) {
	store := newTestStore()
	handler := NewFacesHandler(newTestRecognizer(t, store), store)

	req := jsonRequest(t, "POST", "/api/v1/face/register", map[string]any{
		"employeeId": "E001",
		"imageUrls":  []string{},
	})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)
}

func TestFacesHandler_Delete(t *testing.T) {
	store := newTestStore()
	rec := newTestRecognizer(t, store)
	handler := NewFacesHandler(rec, store)

	// Enroll first so there is something to withdraw.
	register := jsonRequest(t, "POST", "/api/v1/face/register", map[string]any{
		"employeeId": "E001",
		"imageUrls":  []string{testImageDataURL(t, 3)},
	})
	recorder := httptest.NewRecorder()
	handler.Register(recorder, register)
	assertStatusCode(t, recorder, http.StatusOK)

	req := requestWithChiParams(
		httptest.NewRequest("DELETE", "/api/v1/face/E001", nil),
		map[string]string{"employeeId": "E001"},
	)
	recorder = httptest.NewRecorder()
	handler.Delete(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	entries, err := store.LoadGallery(req.Context())
	if err != nil || len(entries) != 0 {
		t.Errorf("expected empty gallery, got %v, %v", entries, err)
	}
}
