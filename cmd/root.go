package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "attendo",
	Short: "Face recognition attendance system",
	Long: `Attendo is a face recognition attendance system. It enrolls employees
from face photos, recognizes them from camera captures, and records
check-in/check-out events with a configurable late/early policy.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
