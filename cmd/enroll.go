package cmd

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/patrikzak/attendo/internal/config"
	"github.com/patrikzak/attendo/internal/detect"
	"github.com/patrikzak/attendo/internal/recognizer"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll <employee-id> <photo>...",
	Short: "Enroll an employee from face photos",
	Long: `Enroll an employee by computing a face descriptor from one or more
photos. Photos without exactly one detectable face are skipped; the
descriptor is averaged over the valid ones. The employee must already
exist (create it via the API or the web UI first).`,
	Args: cobra.MinimumNArgs(2),
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func loadPhotos(paths []string) ([]image.Image, error) {
	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetDescription("Loading photos"),
		progressbar.OptionShowCount(),
	)

	images := make([]image.Image, 0, len(paths))
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		images = append(images, img)
		_ = bar.Add(1)
	}
	fmt.Println()
	return images, nil
}

func runEnroll(cmd *cobra.Command, args []string) error {
	employeeID := args[0]
	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	emp, err := store.Get(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to look up employee: %w", err)
	}
	if emp == nil {
		return fmt.Errorf("employee %s not found", employeeID)
	}

	images, err := loadPhotos(args[1:])
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Storage.FacesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create faces directory: %w", err)
	}

	rec := recognizer.New(store, detect.NewClient(cfg.Detector.URL), cfg.Storage.FacesDir)
	result, err := rec.Enroll(ctx, employeeID, images)
	if err != nil {
		return fmt.Errorf("enrollment failed: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("enrollment failed: %s", result.Message)
	}

	fmt.Printf("Enrolled %s (%s) from %d/%d photos\n", emp.Name, employeeID, result.ValidCount, result.TotalCount)
	return nil
}
