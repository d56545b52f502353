package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Settings are the dashboard presentation options read from the YAML
// settings file. Fields absent from the file keep their defaults.
type Settings struct {
	Title  string                 `yaml:"title"`
	Map    MapSettings            `yaml:"map"`
	Tiers  domain.TierBreakpoints `yaml:"tiers"`
	Colors domain.TierColors      `yaml:"colors"`
}

// MapSettings position the map on first load.
type MapSettings struct {
	CenterLat float64 `yaml:"center_lat" validate:"gte=-90,lte=90"`
	CenterLon float64 `yaml:"center_lon" validate:"gte=-180,lte=180"`
	Zoom      int     `yaml:"zoom" validate:"gt=0,lte=19"`
}

// DefaultSettings returns the settings used when no file is present: a
// Perth-centered map with the default tier scheme.
func DefaultSettings() Settings {
	return Settings{
		Title:  "WA Heavy Vehicle Traffic Dashboard",
		Map:    MapSettings{CenterLat: -31.95, CenterLon: 115.86, Zoom: 6},
		Tiers:  domain.DefaultBreakpoints,
		Colors: domain.DefaultTierColors,
	}
}

// LoadSettings reads the dashboard settings file. A missing file returns
// the defaults; a present but invalid file is an error naming the field.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}
	if err := validator.New().Struct(s); err != nil {
		return Settings{}, fmt.Errorf("validate settings: %w", err)
	}
	if !s.Tiers.Valid() {
		return Settings{}, errors.New("settings: tier breakpoints must satisfy 0 <= medium_min < high_min")
	}
	if s.Colors.Low == "" || s.Colors.Medium == "" || s.Colors.High == "" {
		return Settings{}, errors.New("settings: tier colors must not be empty")
	}
	return s, nil
}
