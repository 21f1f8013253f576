package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Detector DetectorConfig
	Storage  StorageConfig
	Defaults DefaultsConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DetectorConfig struct {
	URL string // face detector sidecar, defaults to http://localhost:8500
}

type StorageConfig struct {
	FacesDir string // directory for representative face images (default ./data/faces)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// DefaultsConfig holds the factory attendance policy, loaded from the
// embedded defaults.yaml. It seeds the settings table on first migration
// and never overrides values an administrator has saved.
type DefaultsConfig struct {
	Policy PolicyDefaults `yaml:"policy"`
}

type PolicyDefaults struct {
	WorkStart             string  `yaml:"work_start"`
	WorkEnd               string  `yaml:"work_end"`
	LateToleranceMinutes  int     `yaml:"late_tolerance_minutes"`
	EarlyToleranceMinutes int     `yaml:"early_tolerance_minutes"`
	RecognitionThreshold  float64 `yaml:"recognition_threshold"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envString reads an environment variable with a fallback.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var defaults DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// Embedded file, cannot happen with a correct build.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Server: ServerConfig{
			Host: envString("SERVER_HOST", "0.0.0.0"),
			Port: envInt("SERVER_PORT", 8081),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Detector: DetectorConfig{
			URL: envString("DETECTOR_URL", "http://localhost:8500"),
		},
		Storage: StorageConfig{
			FacesDir: envString("FACES_DIR", "./data/faces"),
		},
		Defaults: defaults,
	}
}
