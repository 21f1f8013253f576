package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/patrikzak/attendo/internal/database"
	"github.com/patrikzak/attendo/internal/database/mock"
	"github.com/patrikzak/attendo/internal/detect"
	"github.com/patrikzak/attendo/internal/recognizer"
)

// newTestStore creates a mock store with one employee.
func newTestStore() *mock.MockStore {
	store := mock.NewMockStore()
	store.AddEmployee(database.Employee{
		ID: 1, EmployeeID: "E001", Name: "Alice", Department: "Engineering",
	})
	return store
}

// newTestRecognizer creates a recognizer over the store with a fixed
// single-face locator.
func newTestRecognizer(t *testing.T, store *mock.MockStore) *recognizer.Recognizer {
	t.Helper()
	locator := detect.Static([]detect.Location{
		{Top: 10, Right: 90, Bottom: 90, Left: 10, Confidence: 0.99},
	})
	return recognizer.New(store, locator, t.TempDir())
}

// testImageDataURL renders a deterministic test image as a base64 data URL.
func testImageDataURL(t *testing.T, seed uint8) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x*int(seed)+y) % 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// jsonRequest creates a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseJSONResponse decodes a recorded JSON response body.
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(recorder.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// parseEnvelope decodes the response envelope and returns its data field
// re-decoded into dst.
func parseEnvelope(t *testing.T, recorder *httptest.ResponseRecorder, dst any) apiResponse {
	t.Helper()
	var raw struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	parseJSONResponse(t, recorder, &raw)
	if dst != nil && raw.Data != nil {
		if err := json.Unmarshal(raw.Data, dst); err != nil {
			t.Fatalf("failed to decode response data: %v", err)
		}
	}
	return apiResponse{Code: raw.Code, Message: raw.Message}
}

// assertStatusCode fails the test if the recorded status differs.
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, want int) {
	t.Helper()
	if recorder.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", recorder.Code, want, recorder.Body.String())
	}
}
