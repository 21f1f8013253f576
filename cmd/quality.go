package cmd

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/patrikzak/attendo/internal/config"
	"github.com/patrikzak/attendo/internal/detect"
	"github.com/patrikzak/attendo/internal/quality"
)

var qualityCmd = &cobra.Command{
	Use:   "quality <photo>",
	Short: "Check whether a photo is suitable for enrollment",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuality,
}

func init() {
	rootCmd.AddCommand(qualityCmd)
}

func runQuality(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", args[0], err)
	}

	locator := detect.NewClient(cfg.Detector.URL)
	faces, err := locator.Locate(context.Background(), img)
	if err != nil {
		return fmt.Errorf("face detection failed: %w", err)
	}

	report := quality.Score(img, faces)
	if report.Valid {
		fmt.Printf("OK, score %d/100\n", report.Score)
	} else {
		fmt.Printf("Not suitable, score %d/100\n", report.Score)
	}
	for _, issue := range report.Issues {
		fmt.Printf("  - %s\n", issue)
	}
	return nil
}
