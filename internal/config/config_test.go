package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"tam", "eng"}, cfg.Languages)
	assert.Equal(t, 220, cfg.RasterDPI)
	assert.True(t, cfg.DenoiseEnabled)
	assert.False(t, cfg.ResizeEnabled)
	assert.Equal(t, 1.0, cfg.RotationThresholdDeg)
	assert.Equal(t, "output.txt", cfg.OutputTextPath)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("OCR_LANGUAGES", "tam, eng ")
	t.Setenv("RASTER_DPI", "300")
	t.Setenv("DENOISE_ENABLED", "false")
	t.Setenv("ROTATION_THRESHOLD_DEG", "2.5")
	t.Setenv("OUTPUT_TEXT_PATH", "/tmp/out.txt")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"tam", "eng"}, cfg.Languages)
	assert.Equal(t, 300, cfg.RasterDPI)
	assert.False(t, cfg.DenoiseEnabled)
	assert.Equal(t, 2.5, cfg.RotationThresholdDeg)
	assert.Equal(t, "/tmp/out.txt", cfg.OutputTextPath)
}

func TestLoadConfig_MalformedNumberFallsBack(t *testing.T) {
	t.Setenv("RASTER_DPI", "lots")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 220, cfg.RasterDPI)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "one language",
			mutate:  func(c *Config) { c.Languages = []string{"tam"} },
			wantErr: "exactly two",
		},
		{
			name:    "three languages",
			mutate:  func(c *Config) { c.Languages = []string{"tam", "eng", "hin"} },
			wantErr: "exactly two",
		},
		{
			name:    "dpi too low",
			mutate:  func(c *Config) { c.RasterDPI = 10 },
			wantErr: "RASTER_DPI",
		},
		{
			name:    "non-positive denoise strength",
			mutate:  func(c *Config) { c.DenoiseStrength = 0 },
			wantErr: "DENOISE_STRENGTH",
		},
		{
			name:    "resize enabled with tiny width",
			mutate:  func(c *Config) { c.ResizeEnabled = true; c.ResizeWidth = 5 },
			wantErr: "RESIZE_WIDTH",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.WorkerConcurrency = 0 },
			wantErr: "WORKER_CONCURRENCY",
		},
		{
			name:    "negative health interval",
			mutate:  func(c *Config) { c.HealthInterval = -1 },
			wantErr: "HEALTH_INTERVAL",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}

	assert.NoError(t, Default().Validate())
}
