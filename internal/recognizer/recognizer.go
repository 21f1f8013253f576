// Package recognizer ties face detection, descriptor extraction and the
// gallery scan into the enrollment and recognition flows.
package recognizer

import (
	"context"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/patrikzak/attendo/internal/database"
	"github.com/patrikzak/attendo/internal/descriptor"
	"github.com/patrikzak/attendo/internal/detect"
	"github.com/patrikzak/attendo/internal/gallery"
	"github.com/patrikzak/attendo/internal/imaging"
	"github.com/patrikzak/attendo/internal/quality"
)

// Outcome tags a recognition attempt. Everything except OutcomeOK is a
// declined operation, not an error.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeNoFace        Outcome = "no_face"
	OutcomeMultipleFaces Outcome = "multiple_faces"
	OutcomeNoRegistered  Outcome = "no_registered"
	OutcomeNotRecognized Outcome = "not_recognized"
)

// Result is the outcome of one recognition attempt. Match is set only
// when Outcome is OutcomeOK.
type Result struct {
	Outcome    Outcome
	Match      *gallery.Match
	Similarity float64
}

// EnrollResult reports how many of the submitted photos contributed to
// the stored descriptor. Warning is set when the descriptor nearly
// collides with another identity's; the enrollment still succeeds.
type EnrollResult struct {
	Success    bool   `json:"success"`
	ValidCount int    `json:"validPhotos"`
	TotalCount int    `json:"totalPhotos"`
	Message    string `json:"message"`
	ImageRef   string `json:"faceImage,omitempty"`
	Warning    string `json:"warning,omitempty"`
}

// nearDuplicateFloor is the similarity above which a freshly enrolled
// descriptor is reported as suspiciously close to another identity.
const nearDuplicateFloor = 0.98

// Recognizer serves enrollment, withdrawal and recognition against the
// stored gallery.
type Recognizer struct {
	store    database.EmployeeWriter
	locator  detect.Locator
	facesDir string
	locks    *database.KeyedMutex
}

// New creates a recognizer. Enrolled representative images are written
// under facesDir.
func New(store database.EmployeeWriter, locator detect.Locator, facesDir string) *Recognizer {
	return &Recognizer{
		store:    store,
		locator:  locator,
		facesDir: facesDir,
		locks:    database.NewKeyedMutex(),
	}
}

// Recognize identifies the person on the image against the enrolled
// gallery using the given similarity threshold.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image, threshold float64) (*Result, error) {
	faces, err := r.locator.Locate(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to locate faces: %w", err)
	}
	if len(faces) == 0 {
		return &Result{Outcome: OutcomeNoFace}, nil
	}
	if len(faces) > 1 {
		return &Result{Outcome: OutcomeMultipleFaces}, nil
	}

	entries, err := r.store.LoadGallery(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load gallery: %w", err)
	}
	if len(entries) == 0 {
		return &Result{Outcome: OutcomeNoRegistered}, nil
	}

	desc, ok := descriptor.Extract(ctx, img, &faces[0], r.locator)
	if !ok {
		return &Result{Outcome: OutcomeNotRecognized}, nil
	}

	match, found := gallery.BestMatch(desc, entries, threshold)
	if !found {
		return &Result{Outcome: OutcomeNotRecognized}, nil
	}

	return &Result{
		Outcome:    OutcomeOK,
		Match:      &match,
		Similarity: match.Similarity,
	}, nil
}

// Enroll builds one stored descriptor for the employee from the submitted
// photos: the element-wise mean of every photo that yields a usable
// descriptor. Re-enrollment replaces the previous descriptor and image.
func (r *Recognizer) Enroll(ctx context.Context, employeeID string, images []image.Image) (*EnrollResult, error) {
	unlock := r.locks.Lock(employeeID)
	defer unlock()

	if len(images) == 0 {
		return &EnrollResult{Message: "no photos provided"}, nil
	}

	var descriptors []descriptor.Descriptor
	var firstValid image.Image
	for _, img := range images {
		faces, err := r.locator.Locate(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("failed to locate faces: %w", err)
		}
		if len(faces) == 0 {
			continue
		}

		desc, ok := descriptor.Extract(ctx, img, &faces[0], r.locator)
		if !ok {
			continue
		}
		descriptors = append(descriptors, desc)
		if firstValid == nil {
			firstValid = img
		}
	}

	if len(descriptors) == 0 {
		return &EnrollResult{
			TotalCount: len(images),
			Message:    "no valid faces detected",
		}, nil
	}

	stored := descriptor.Mean(descriptors)

	entries, err := r.store.LoadGallery(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load gallery: %w", err)
	}
	var warning string
	if dup, sim, found := gallery.NewDedupeIndex(entries).NearDuplicate(stored, employeeID, nearDuplicateFloor); found {
		warning = fmt.Sprintf("face is suspiciously similar (%.3f) to employee %s", sim, dup.EmployeeID)
		log.Printf("enrollment for %s: %s", employeeID, warning)
	}

	imageRef, err := r.saveRepresentative(employeeID, firstValid)
	if err != nil {
		return nil, err
	}

	if err := r.store.SaveDescriptor(ctx, employeeID, stored, imageRef); err != nil {
		return nil, fmt.Errorf("failed to save descriptor: %w", err)
	}

	return &EnrollResult{
		Success:    true,
		ValidCount: len(descriptors),
		TotalCount: len(images),
		Message:    fmt.Sprintf("enrolled from %d of %d photos", len(descriptors), len(images)),
		ImageRef:   imageRef,
		Warning:    warning,
	}, nil
}

// DetectFaces returns the located face boxes without any recognition.
// Serves the camera preview overlay.
func (r *Recognizer) DetectFaces(ctx context.Context, img image.Image) ([]detect.Location, error) {
	faces, err := r.locator.Locate(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to locate faces: %w", err)
	}
	return faces, nil
}

// CheckQuality evaluates a single image for enrollment suitability.
func (r *Recognizer) CheckQuality(ctx context.Context, img image.Image) (*quality.Report, error) {
	faces, err := r.locator.Locate(ctx, img)
	if err != nil {
		return nil, fmt.Errorf("failed to locate faces: %w", err)
	}
	report := quality.Score(img, faces)
	return &report, nil
}

// Withdraw removes the employee's biometric data: the stored descriptor
// and the representative image. The employee record persists.
func (r *Recognizer) Withdraw(ctx context.Context, employeeID string) error {
	unlock := r.locks.Lock(employeeID)
	defer unlock()

	emp, err := r.store.Get(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to load employee: %w", err)
	}
	if emp == nil {
		return fmt.Errorf("employee %s not found", employeeID)
	}

	if err := r.store.ClearDescriptor(ctx, employeeID); err != nil {
		return fmt.Errorf("failed to clear descriptor: %w", err)
	}

	if emp.FaceImage != "" {
		path := filepath.Join(r.facesDir, filepath.Base(emp.FaceImage))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to remove face image %s: %v", path, err)
		}
	}
	return nil
}

// saveRepresentative writes the first valid enrollment photo to disk and
// returns its file name.
func (r *Recognizer) saveRepresentative(employeeID string, img image.Image) (string, error) {
	name := fmt.Sprintf("%s_%s.jpg", employeeID, strings.Split(uuid.NewString(), "-")[0])
	if err := imaging.SaveJPEG(filepath.Join(r.facesDir, name), img); err != nil {
		return "", fmt.Errorf("failed to save face image: %w", err)
	}
	return name, nil
}
