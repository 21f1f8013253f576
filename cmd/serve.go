package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/patrikzak/attendo/internal/config"
	"github.com/patrikzak/attendo/internal/database/postgres"
	"github.com/patrikzak/attendo/internal/detect"
	"github.com/patrikzak/attendo/internal/recognizer"
	"github.com/patrikzak/attendo/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance web server",
	Long: `Start the Attendo web server.
The server exposes the REST API for employee management, face enrollment,
attendance check-in/check-out, statistics and exports, plus the static
face image directory.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides SERVER_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides SERVER_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if port := mustGetInt(cmd, "port"); port != 0 {
		cfg.Server.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Server.Host = host
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := os.MkdirAll(cfg.Storage.FacesDir, 0o755); err != nil {
		return fmt.Errorf("failed to create faces directory: %w", err)
	}

	locator := detect.NewClient(cfg.Detector.URL)
	rec := recognizer.New(store, locator, cfg.Storage.FacesDir)
	server := web.NewServer(cfg, store, rec)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Attendo on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}

// openStore connects to PostgreSQL, runs pending migrations and seeds
// the default attendance policy.
func openStore(cfg *config.Config) (*postgres.Store, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	fmt.Println("Connecting to PostgreSQL database...")
	store, err := postgres.Initialize(&cfg.Database, cfg.Defaults.Policy)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	return store, nil
}
