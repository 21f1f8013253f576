// Package imaging handles the image edge of the service: decoding uploads,
// grayscale conversion and storing representative face crops. The matching
// core receives decoded images only.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
)

// jpegQuality matches the quality the original uploads were stored with.
const jpegQuality = 90

// DecodeDataURL decodes a base64 image payload into a decoded image.
// Accepts both bare base64 and data URLs ("data:image/jpeg;base64,...").
func DecodeDataURL(s string) (image.Image, error) {
	if i := strings.IndexByte(s, ','); i >= 0 {
		s = s[i+1:]
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return img, nil
}

// EncodeJPEG encodes an image as JPEG bytes.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveJPEG writes an image as a JPEG file, creating parent directories.
func SaveJPEG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := EncodeJPEG(img)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}

// Grayscale converts an image to 8-bit grayscale using the ITU-R BT.601
// luma formula.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			luma := 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
			gray.SetGray(x, y, color.Gray{Y: uint8(luma + 0.5)})
		}
	}

	return gray
}

// Crop copies the given rectangle of an image into a new RGBA image.
// The rectangle must already be clamped to the source bounds.
func Crop(img image.Image, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// MeanIntensity returns the mean pixel value (0-255) of a grayscale image.
func MeanIntensity(g *image.Gray) float64 {
	bounds := g.Bounds()
	total := bounds.Dx() * bounds.Dy()
	if total == 0 {
		return 0
	}

	var sum float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			sum += float64(g.GrayAt(x, y).Y)
		}
	}
	return sum / float64(total)
}

// LaplacianVariance returns the variance of the 4-neighbour Laplacian
// response. Low values indicate a blurred image; sharp images typically
// score in the hundreds.
func LaplacianVariance(g *image.Gray) float64 {
	bounds := g.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	responses := make([]float64, 0, (w-2)*(h-2))
	var sum float64
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(g.GrayAt(x, y).Y)
			lap := float64(g.GrayAt(x-1, y).Y) +
				float64(g.GrayAt(x+1, y).Y) +
				float64(g.GrayAt(x, y-1).Y) +
				float64(g.GrayAt(x, y+1).Y) -
				4*center
			responses = append(responses, lap)
			sum += lap
		}
	}

	mean := sum / float64(len(responses))
	var variance float64
	for _, v := range responses {
		d := v - mean
		variance += d * d
	}
	return variance / float64(len(responses))
}
