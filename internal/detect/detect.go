// Package detect defines the face locator contract. Detection itself runs in
// an external sidecar; this package only carries its results and a client.
package detect

import (
	"context"
	"image"
)

// Location is a detected face bounding box in pixel coordinates, with the
// detector's own confidence value.
type Location struct {
	Top        int     `json:"top"`
	Right      int     `json:"right"`
	Bottom     int     `json:"bottom"`
	Left       int     `json:"left"`
	Confidence float64 `json:"confidence"`
}

// Width returns the box width in pixels.
func (l Location) Width() int {
	return l.Right - l.Left
}

// Height returns the box height in pixels.
func (l Location) Height() int {
	return l.Bottom - l.Top
}

// Area returns the box area in pixels.
func (l Location) Area() int {
	return l.Width() * l.Height()
}

// Center returns the box center in pixel coordinates.
func (l Location) Center() (float64, float64) {
	return float64(l.Left+l.Right) / 2, float64(l.Top+l.Bottom) / 2
}

// Locator finds faces in a decoded image. Implementations must return boxes
// in their own priority order; callers use the first element wherever a
// single face is needed.
type Locator interface {
	Locate(ctx context.Context, img image.Image) ([]Location, error)
}

// Static is a Locator returning a fixed set of locations for every image.
// Used in tests and wherever detection already happened upstream.
type Static []Location

// Locate returns the fixed locations.
func (s Static) Locate(_ context.Context, _ image.Image) ([]Location, error) {
	return []Location(s), nil
}
