package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadDefaults(t *testing.T) {
	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, defaultBaseURL, config.Source.BaseURL)
	assert.Equal(t, 10*time.Minute, config.Source.PageGranularity.Duration())
	assert.Equal(t, 4, config.Planner.MaxTransfers)
	assert.Equal(t, 300*time.Second, config.Planner.TransferBuffer.Duration())
	assert.Equal(t, 5.0, config.Footpaths.WalkingSpeed)
	assert.Equal(t, 3.0, config.Footpaths.SearchRadius)
	assert.Equal(t, 30*time.Minute, config.Liveboard.DefaultWindow.Duration())
	assert.Equal(t, time.Hour, config.Liveboard.ArrivalLookback.Duration())
	assert.Equal(t, StationBackendMemory, config.Stations.Backend)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
source:
  base_url: https://example.org/connections
  page_granularity: PT5M
planner:
  max_transfers: 2
  transfer_buffer: 4m
liveboard:
  default_window: PT3H
  arrival_lookback: PT2H
`)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.org/connections", config.Source.BaseURL)
	assert.Equal(t, 5*time.Minute, config.Source.PageGranularity.Duration())
	assert.Equal(t, 2, config.Planner.MaxTransfers)
	assert.Equal(t, 4*time.Minute, config.Planner.TransferBuffer.Duration())
	assert.Equal(t, 3*time.Hour, config.Liveboard.DefaultWindow.Duration())
	assert.Equal(t, 2*time.Hour, config.Liveboard.ArrivalLookback.Duration())

	// untouched sections keep their defaults
	assert.Equal(t, 250, config.Planner.MaxPages)
	assert.Equal(t, 5, config.Footpaths.MaxResults)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("TRAVIGO_LC_BASE_URL", "https://override.example.org/lc")
	t.Setenv("TRAVIGO_LC_MAX_TRANSFERS", "1")
	t.Setenv("TRAVIGO_LC_USE_REDIS", "YES")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://override.example.org/lc", config.Source.BaseURL)
	assert.Equal(t, 1, config.Planner.MaxTransfers)
	assert.True(t, config.Cache.UseRedis)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "bad url",
			content: "source:\n  base_url: not a url\n",
		},
		{
			name:    "negative radius",
			content: "footpaths:\n  search_radius: -1\n",
		},
		{
			name:    "bad duration",
			content: "planner:\n  transfer_buffer: soon\n",
		},
		{
			name:    "unknown station backend",
			content: "stations:\n  backend: sqlite\n",
		},
		{
			name:    "stomp without destination",
			content: "events:\n  stomp_address: localhost:61613\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw      string
		expected time.Duration
	}{
		{"PT10M", 10 * time.Minute},
		{"PT1H30M", 90 * time.Minute},
		{"P1D", 24 * time.Hour},
		{"45s", 45 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			parsed, err := ParseDuration(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, parsed)
		})
	}
}
