// Package quality evaluates a photo for detectability and matchability
// defects before it is used for enrollment or recognition.
package quality

import (
	"image"
	"math"

	"github.com/patrikzak/attendo/internal/detect"
	"github.com/patrikzak/attendo/internal/imaging"
)

// Issue messages reported to the caller. The no-face and multiple-faces
// issues veto validity regardless of the numeric score.
const (
	IssueNoFace        = "no face detected"
	IssueMultipleFaces = "multiple faces detected"
	IssueFaceTooSmall  = "face too small, move closer to the camera"
	IssueFaceTooLarge  = "face too large, move away from the camera"
	IssueOffCenter     = "move the face to the center of the frame"
	IssueTooDark       = "image too dark, improve the lighting"
	IssueTooBright     = "image too bright, avoid direct light"
	IssueBlurred       = "image blurred, hold the camera steady"
)

// Thresholds and penalties of the scoring model. Penalties apply
// independently and stack; the score floors at 0.
const (
	minFaceRatio       = 0.05
	maxFaceRatio       = 0.8
	maxCenterOffset    = 0.3
	minMeanIntensity   = 50
	maxMeanIntensity   = 200
	minSharpness       = 100
	passingScore       = 60
	penaltyMultiple    = 30
	penaltyTooSmall    = 20
	penaltyTooLarge    = 10
	penaltyOffCenter   = 15
	penaltyTooDark     = 20
	penaltyTooBright   = 15
	penaltyBlurred     = 20
)

// Report is the outcome of a quality check.
type Report struct {
	Valid      bool             `json:"valid"`
	Score      int              `json:"score"`
	Issues     []string         `json:"issues"`
	Face       *detect.Location `json:"face_location,omitempty"`
	Confidence float64          `json:"confidence,omitempty"`
}

// Score evaluates an image given the faces the locator found in it.
// Starts at 100 and subtracts a penalty per detected defect; every
// applicable issue is reported, none is exclusive.
func Score(img image.Image, faces []detect.Location) Report {
	if len(faces) == 0 {
		return Report{Valid: false, Score: 0, Issues: []string{IssueNoFace}}
	}

	score := 100
	var issues []string

	if len(faces) > 1 {
		issues = append(issues, IssueMultipleFaces)
		score -= penaltyMultiple
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	face := faces[0]

	faceRatio := float64(face.Area()) / float64(w*h)
	if faceRatio < minFaceRatio {
		issues = append(issues, IssueFaceTooSmall)
		score -= penaltyTooSmall
	} else if faceRatio > maxFaceRatio {
		issues = append(issues, IssueFaceTooLarge)
		score -= penaltyTooLarge
	}

	// Horizontal and vertical offsets are penalized separately and can
	// both fire on a face stuck in a corner.
	cx, cy := face.Center()
	if math.Abs(cx/float64(w)-0.5) > maxCenterOffset {
		issues = append(issues, IssueOffCenter)
		score -= penaltyOffCenter
	}
	if math.Abs(cy/float64(h)-0.5) > maxCenterOffset {
		issues = append(issues, IssueOffCenter)
		score -= penaltyOffCenter
	}

	gray := imaging.Grayscale(img)

	brightness := imaging.MeanIntensity(gray)
	if brightness < minMeanIntensity {
		issues = append(issues, IssueTooDark)
		score -= penaltyTooDark
	} else if brightness > maxMeanIntensity {
		issues = append(issues, IssueTooBright)
		score -= penaltyTooBright
	}

	if imaging.LaplacianVariance(gray) < minSharpness {
		issues = append(issues, IssueBlurred)
		score -= penaltyBlurred
	}

	score = max(0, score)

	return Report{
		Valid:      score >= passingScore && len(faces) == 1,
		Score:      score,
		Issues:     issues,
		Face:       &face,
		Confidence: face.Confidence,
	}
}
