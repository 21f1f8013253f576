package cmd

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/spf13/cobra"

	"github.com/patrikzak/attendo/internal/attendance"
	"github.com/patrikzak/attendo/internal/config"
	"github.com/patrikzak/attendo/internal/detect"
	"github.com/patrikzak/attendo/internal/recognizer"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <photo>",
	Short: "Recognize a face against enrolled employees",
	Long: `Recognize the face in a photo against all enrolled employees and
print the best match. Does not record attendance; use the check-in API
for that.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)

	recognizeCmd.Flags().Float64("threshold", 0, "Similarity threshold (defaults to the stored setting)")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", args[0], err)
	}

	ctx := context.Background()
	threshold := mustGetFloat64(cmd, "threshold")
	if threshold == 0 {
		settings, err := store.LoadSettings(ctx)
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		policy, err := attendance.PolicyFromSettings(settings)
		if err != nil {
			return fmt.Errorf("failed to parse settings: %w", err)
		}
		threshold = policy.RecognitionThreshold
	}

	rec := recognizer.New(store, detect.NewClient(cfg.Detector.URL), cfg.Storage.FacesDir)
	result, err := rec.Recognize(ctx, img, threshold)
	if err != nil {
		return fmt.Errorf("recognition failed: %w", err)
	}

	switch result.Outcome {
	case recognizer.OutcomeOK:
		emp, err := store.Get(ctx, result.Match.Entry.EmployeeID)
		if err != nil {
			return fmt.Errorf("failed to look up employee: %w", err)
		}
		name := result.Match.Entry.EmployeeID
		if emp != nil {
			name = fmt.Sprintf("%s (%s)", emp.Name, emp.EmployeeID)
		}
		fmt.Printf("Matched %s with similarity %.4f\n", name, result.Similarity)
	case recognizer.OutcomeNoFace:
		fmt.Println("No face detected in the photo")
	case recognizer.OutcomeMultipleFaces:
		fmt.Println("Multiple faces detected, use a photo with a single face")
	case recognizer.OutcomeNoRegistered:
		fmt.Println("No enrolled employees to match against")
	case recognizer.OutcomeNotRecognized:
		fmt.Printf("No match above threshold %.2f\n", threshold)
	}
	return nil
}
