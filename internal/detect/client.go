package detect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/patrikzak/attendo/internal/imaging"
)

const defaultDetectorURL = "http://localhost:8500"

// Client talks to the face detector sidecar over HTTP. The sidecar's
// algorithm (cascade classifier, neural detector) is its own business;
// the contract is an image in, prioritized bounding boxes out.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a detector client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultDetectorURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// detectResponse represents the response from the detector sidecar.
type detectResponse struct {
	FacesCount int `json:"faces_count"`
	Faces      []struct {
		BBox     []float64 `json:"bbox"` // [x1, y1, x2, y2]
		DetScore float64   `json:"det_score"`
	} `json:"faces"`
}

// Locate posts the image to the sidecar and returns the detected boxes in
// the detector's priority order.
func (c *Client) Locate(ctx context.Context, img image.Image) ([]Location, error) {
	imageData, err := imaging.EncodeJPEG(img)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("detector error (status %d): %s", resp.StatusCode, string(body))
	}

	var detResp detectResponse
	if err := json.Unmarshal(body, &detResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	locations := make([]Location, 0, len(detResp.Faces))
	for _, f := range detResp.Faces {
		if len(f.BBox) != 4 {
			continue
		}
		locations = append(locations, Location{
			Left:       int(f.BBox[0]),
			Top:        int(f.BBox[1]),
			Right:      int(f.BBox[2]),
			Bottom:     int(f.BBox[3]),
			Confidence: f.DetScore,
		})
	}

	return locations, nil
}
