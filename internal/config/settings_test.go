package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dashboard.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSettings_MissingFileReturnsDefaults(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultSettings(), s)
	assert.Equal(t, "WA Heavy Vehicle Traffic Dashboard", s.Title)
	assert.Equal(t, domain.DefaultBreakpoints, s.Tiers)
	assert.Equal(t, domain.DefaultTierColors, s.Colors)
}

func TestLoadSettings_FullFile(t *testing.T) {
	path := writeSettings(t, `
title: Pilbara Freight Monitor
map:
  center_lat: -22.0
  center_lon: 118.5
  zoom: 7
tiers:
  medium_min: 500
  high_min: 2500
colors:
  low: "#00aa00"
  medium: "#ffaa00"
  high: "#cc0000"
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "Pilbara Freight Monitor", s.Title)
	assert.Equal(t, MapSettings{CenterLat: -22.0, CenterLon: 118.5, Zoom: 7}, s.Map)
	assert.Equal(t, domain.TierBreakpoints{MediumMin: 500, HighMin: 2500}, s.Tiers)
	assert.Equal(t, domain.TierColors{Low: "#00aa00", Medium: "#ffaa00", High: "#cc0000"}, s.Colors)
}

func TestLoadSettings_PartialFileKeepsDefaults(t *testing.T) {
	path := writeSettings(t, `
title: Custom Title
tiers:
  medium_min: 2000
`)

	s, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "Custom Title", s.Title)
	assert.Equal(t, 2000.0, s.Tiers.MediumMin)
	assert.Equal(t, 5000.0, s.Tiers.HighMin)
	assert.Equal(t, DefaultSettings().Map, s.Map)
	assert.Equal(t, domain.DefaultTierColors, s.Colors)
}

func TestLoadSettings_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		errorHas string
	}{
		{"unparseable yaml", "title: [unclosed", "parse settings"},
		{"zoom out of range", "map:\n  zoom: 25\n", "Zoom"},
		{"latitude out of range", "map:\n  center_lat: -120\n  zoom: 6\n", "CenterLat"},
		{"reversed tier breakpoints", "tiers:\n  medium_min: 5000\n  high_min: 1000\n", "medium_min < high_min"},
		{"equal tier breakpoints", "tiers:\n  medium_min: 1000\n  high_min: 1000\n", "medium_min < high_min"},
		{"empty tier color", `colors: {low: ""}`, "tier colors"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadSettings(writeSettings(t, tt.content))

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorHas)
		})
	}
}
