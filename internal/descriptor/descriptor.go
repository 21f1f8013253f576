// Package descriptor turns a located face region into a fixed-length
// comparable vector and compares such vectors. The descriptor is a grid of
// local intensity histograms: deliberately simple and interpretable, not a
// deep-learning embedding.
package descriptor

import (
	"context"
	"encoding/json"
	"image"

	"golang.org/x/image/draw"

	"github.com/patrikzak/attendo/internal/detect"
	"github.com/patrikzak/attendo/internal/imaging"
)

const (
	// CanonicalSize is the side of the square every face crop is resized to.
	CanonicalSize = 128
	// GridCells is the number of cells per axis of the sampling grid.
	GridCells = 8
	// CellSize is the side of one grid cell in canonical pixels.
	CellSize = CanonicalSize / GridCells
	// HistBins is the number of intensity bins per cell histogram.
	HistBins = 16
	// Length is the total descriptor length.
	Length = GridCells * GridCells * HistBins

	// cropPadding extends the detected box on each side before cropping.
	cropPadding = 10
	// minCropSize rejects degenerate face crops.
	minCropSize = 10
	// histEpsilon keeps the histogram normalization defined on uniform cells.
	histEpsilon = 1e-7
)

// Descriptor is a fixed-length vector of per-cell intensity histograms,
// each cell block normalized to sum to 1.
type Descriptor []float32

// Encode serializes a descriptor as a JSON float array. The same textual
// form a pgvector column scans out as, so stored descriptors round-trip
// through Decode regardless of which side produced them.
func (d Descriptor) Encode() []byte {
	data, err := json.Marshal([]float32(d))
	if err != nil {
		// A float slice cannot fail to marshal.
		panic("descriptor encode: " + err.Error())
	}
	return data
}

// Decode deserializes a stored descriptor. Corrupt input yields an error;
// callers treat such gallery entries as skippable, not fatal.
func Decode(data []byte) (Descriptor, error) {
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, err
	}
	return Descriptor(vec), nil
}

// Extract computes the descriptor for the face at loc. When loc is nil the
// locator runs and the first reported face is used. Returns false when no
// face is found or the crop is too small to carry a signal.
//
// The crop is padded by 10px clamped to the image, converted to grayscale
// and resized to 128x128 without preserving aspect ratio.
func Extract(ctx context.Context, img image.Image, loc *detect.Location, locator detect.Locator) (Descriptor, bool) {
	bounds := img.Bounds()

	if loc == nil {
		if locator == nil {
			return nil, false
		}
		faces, err := locator.Locate(ctx, img)
		if err != nil || len(faces) == 0 {
			return nil, false
		}
		loc = &faces[0]
	}

	crop := image.Rect(
		max(bounds.Min.X, bounds.Min.X+loc.Left-cropPadding),
		max(bounds.Min.Y, bounds.Min.Y+loc.Top-cropPadding),
		min(bounds.Max.X, bounds.Min.X+loc.Right+cropPadding),
		min(bounds.Max.Y, bounds.Min.Y+loc.Bottom+cropPadding),
	)
	if crop.Dx() < minCropSize || crop.Dy() < minCropSize {
		return nil, false
	}

	face := imaging.Crop(img, crop)
	gray := imaging.Grayscale(face)

	canonical := image.NewGray(image.Rect(0, 0, CanonicalSize, CanonicalSize))
	draw.BiLinear.Scale(canonical, canonical.Bounds(), gray, gray.Bounds(), draw.Src, nil)

	return fromCanonical(canonical), true
}

// fromCanonical computes the histogram grid over a 128x128 grayscale image.
// Cells are concatenated in row-major order; each cell histogram is
// normalized independently.
func fromCanonical(img *image.Gray) Descriptor {
	desc := make(Descriptor, 0, Length)

	for row := range GridCells {
		for col := range GridCells {
			var hist [HistBins]float32
			var total float32

			for y := row * CellSize; y < (row+1)*CellSize; y++ {
				for x := col * CellSize; x < (col+1)*CellSize; x++ {
					bin := int(img.GrayAt(x, y).Y) * HistBins / 256
					hist[bin]++
					total++
				}
			}

			norm := total + histEpsilon
			for i := range hist {
				hist[i] /= norm
			}
			desc = append(desc, hist[:]...)
		}
	}

	return desc
}
