/**
 * Configuration for the land-record OCR worker
 *
 * Loads configuration from environment variables (optionally seeded from .env).
 * The resulting Config is passed explicitly into every pipeline constructor.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds worker configuration
type Config struct {
	// Recognition configuration
	Languages   []string // exactly two: regional script first, Latin second
	UseAngleCls bool

	// Rasterization
	RasterDPI int

	// Normalization
	DenoiseEnabled       bool
	DenoiseStrength      float64
	RotationEnabled      bool
	RotationThresholdDeg float64
	ResizeEnabled        bool
	ResizeWidth          int

	// Field extraction
	RulesFile string

	// Output
	OutputTextPath string // side-artifact location for the flattened text
	TempDir        string // preview images are written here

	// Timeouts
	ProcessingTimeout int // milliseconds

	// Queue configuration
	RedisURL          string
	QueueName         string
	WorkerConcurrency int
	HealthInterval    int // seconds between worker health log lines, 0 disables

	// Record storage
	DatabaseURL string
	SQLitePath  string
}

// Default returns the configuration used when no environment overrides exist
func Default() *Config {
	return &Config{
		Languages:            []string{"tam", "eng"},
		UseAngleCls:          true,
		RasterDPI:            220,
		DenoiseEnabled:       true,
		DenoiseStrength:      10,
		RotationEnabled:      true,
		RotationThresholdDeg: 1,
		ResizeEnabled:        false,
		ResizeWidth:          2000,
		OutputTextPath:       "output.txt",
		TempDir:              os.TempDir(),
		ProcessingTimeout:    300000, // 5 minutes
		RedisURL:             "redis://localhost:6379",
		QueueName:            "landrecord",
		WorkerConcurrency:    2,
		HealthInterval:       60,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	def := Default()

	cfg := &Config{
		Languages:            getEnvAsListOrDefault("OCR_LANGUAGES", def.Languages),
		UseAngleCls:          getEnvAsBoolOrDefault("OCR_USE_ANGLE_CLS", def.UseAngleCls),
		RasterDPI:            getEnvAsIntOrDefault("RASTER_DPI", def.RasterDPI),
		DenoiseEnabled:       getEnvAsBoolOrDefault("DENOISE_ENABLED", def.DenoiseEnabled),
		DenoiseStrength:      getEnvAsFloatOrDefault("DENOISE_STRENGTH", def.DenoiseStrength),
		RotationEnabled:      getEnvAsBoolOrDefault("ROTATION_ENABLED", def.RotationEnabled),
		RotationThresholdDeg: getEnvAsFloatOrDefault("ROTATION_THRESHOLD_DEG", def.RotationThresholdDeg),
		ResizeEnabled:        getEnvAsBoolOrDefault("RESIZE_ENABLED", def.ResizeEnabled),
		ResizeWidth:          getEnvAsIntOrDefault("RESIZE_WIDTH", def.ResizeWidth),
		RulesFile:            getEnvOrDefault("RULES_FILE", ""),
		OutputTextPath:       getEnvOrDefault("OUTPUT_TEXT_PATH", def.OutputTextPath),
		TempDir:              getEnvOrDefault("TEMP_DIR", def.TempDir),
		ProcessingTimeout:    getEnvAsIntOrDefault("PROCESSING_TIMEOUT", def.ProcessingTimeout),
		RedisURL:             getEnvOrDefault("REDIS_URL", def.RedisURL),
		QueueName:            getEnvOrDefault("QUEUE_NAME", def.QueueName),
		WorkerConcurrency:    getEnvAsIntOrDefault("WORKER_CONCURRENCY", def.WorkerConcurrency),
		HealthInterval:       getEnvAsIntOrDefault("HEALTH_INTERVAL", def.HealthInterval),
		DatabaseURL:          getEnvOrDefault("DATABASE_URL", ""),
		SQLitePath:           getEnvOrDefault("SQLITE_PATH", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if len(c.Languages) != 2 {
		return fmt.Errorf("OCR_LANGUAGES must name exactly two languages, got %d", len(c.Languages))
	}

	if c.RasterDPI < 72 || c.RasterDPI > 600 {
		return fmt.Errorf("RASTER_DPI must be between 72 and 600, got %d", c.RasterDPI)
	}

	if c.DenoiseStrength <= 0 {
		return fmt.Errorf("DENOISE_STRENGTH must be positive, got %v", c.DenoiseStrength)
	}

	if c.RotationThresholdDeg < 0 {
		return fmt.Errorf("ROTATION_THRESHOLD_DEG must not be negative, got %v", c.RotationThresholdDeg)
	}

	if c.ResizeEnabled && c.ResizeWidth < 100 {
		return fmt.Errorf("RESIZE_WIDTH must be at least 100 when resizing is enabled, got %d", c.ResizeWidth)
	}

	if c.ProcessingTimeout <= 0 {
		return fmt.Errorf("PROCESSING_TIMEOUT must be positive, got %d", c.ProcessingTimeout)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.HealthInterval < 0 {
		return fmt.Errorf("HEALTH_INTERVAL must not be negative, got %d", c.HealthInterval)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsFloatOrDefault gets environment variable as float64 or returns default
func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsBoolOrDefault gets environment variable as bool or returns default
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsListOrDefault splits a comma separated variable, dropping empty items
func getEnvAsListOrDefault(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return append([]string(nil), defaultValue...)
	}

	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
