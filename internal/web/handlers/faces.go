package handlers

import (
	"image"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/patrikzak/attendo/internal/database"
	"github.com/patrikzak/attendo/internal/detect"
	"github.com/patrikzak/attendo/internal/imaging"
	"github.com/patrikzak/attendo/internal/recognizer"
)

// FacesHandler serves face quality checks, enrollment and withdrawal.
type FacesHandler struct {
	rec   *recognizer.Recognizer
	store database.EmployeeReader
}

// NewFacesHandler creates a faces handler.
func NewFacesHandler(rec *recognizer.Recognizer, store database.EmployeeReader) *FacesHandler {
	return &FacesHandler{rec: rec, store: store}
}

type faceDetectRequest struct {
	Image string `json:"image"` // base64 data URL
}

type faceDetectResponse struct {
	FacesCount int               `json:"facesCount"`
	Faces      []detect.Location `json:"faces"`
}

// decodeImageRequest reads the single-image JSON body shared by the detect
// and quality endpoints. Writes the error response itself on failure.
func decodeImageRequest(w http.ResponseWriter, r *http.Request) (image.Image, bool) {
	var req faceDetectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return nil, false
	}

	img, err := imaging.DecodeDataURL(req.Image)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid image data")
		return nil, false
	}
	return img, true
}

// Detect handles POST /api/v1/face/detect: returns the located face boxes
// for the camera preview, no recognition and no scoring.
func (h *FacesHandler) Detect(w http.ResponseWriter, r *http.Request) {
	img, ok := decodeImageRequest(w, r)
	if !ok {
		return
	}

	faces, err := h.rec.DetectFaces(r.Context(), img)
	if err != nil {
		log.Printf("failed to detect faces: %v", err)
		respondError(w, http.StatusInternalServerError, "face detection failed")
		return
	}
	respondSuccess(w, faceDetectResponse{FacesCount: len(faces), Faces: faces}, "ok")
}

// Quality handles POST /api/v1/face/quality: quality-scores a single photo
// before enrollment.
func (h *FacesHandler) Quality(w http.ResponseWriter, r *http.Request) {
	img, ok := decodeImageRequest(w, r)
	if !ok {
		return
	}

	report, err := h.rec.CheckQuality(r.Context(), img)
	if err != nil {
		log.Printf("failed to score image quality: %v", err)
		respondError(w, http.StatusInternalServerError, "quality check failed")
		return
	}
	respondSuccess(w, report, "ok")
}

type faceRegisterRequest struct {
	EmployeeID string   `json:"employeeId"`
	ImageURLs  []string `json:"imageUrls"` // base64 data URLs
}

// Register handles POST /api/v1/face/register: enrolls an employee from
// one or more photos.
func (h *FacesHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req faceRegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if req.EmployeeID == "" {
		respondError(w, http.StatusBadRequest, "employeeId is required")
		return
	}

	emp, err := h.store.Get(r.Context(), req.EmployeeID)
	if err != nil {
		log.Printf("failed to load employee %s: %v", sanitizeForLog(req.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "enrollment failed")
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	var images []image.Image
	for _, url := range req.ImageURLs {
		img, err := imaging.DecodeDataURL(url)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid image data")
			return
		}
		images = append(images, img)
	}

	result, err := h.rec.Enroll(r.Context(), req.EmployeeID, images)
	if err != nil {
		log.Printf("failed to enroll %s: %v", sanitizeForLog(req.EmployeeID), err)
		respondError(w, http.StatusInternalServerError, "enrollment failed")
		return
	}
	if !result.Success {
		respondError(w, http.StatusUnprocessableEntity, result.Message)
		return
	}
	respondSuccess(w, result, result.Message)
}

// Delete handles DELETE /api/v1/face/{employeeId}: withdraws biometric
// data while keeping the employee record.
func (h *FacesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeId")

	emp, err := h.store.Get(r.Context(), employeeID)
	if err != nil {
		log.Printf("failed to load employee %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to delete face data")
		return
	}
	if emp == nil {
		respondError(w, http.StatusNotFound, "employee not found")
		return
	}

	if err := h.rec.Withdraw(r.Context(), employeeID); err != nil {
		log.Printf("failed to withdraw face data for %s: %v", sanitizeForLog(employeeID), err)
		respondError(w, http.StatusInternalServerError, "failed to delete face data")
		return
	}
	respondSuccess(w, nil, "face data deleted")
}
