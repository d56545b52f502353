package dataset

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// overlayFiles maps overlay names to the GeoJSON files under the routes
// directory.
var overlayFiles = map[string]string{
	"rail":      "key_freight_route_rail.geojson",
	"road":      "key_freight_route_road.geojson",
	"secondary": "secondary_route.geojson",
}

// OverlayNames returns the known overlay names, ascending.
func OverlayNames() []string {
	names := make([]string, 0, len(overlayFiles))
	for name := range overlayFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadOverlays reads the freight route overlay files from dir. Each file
// must be a GeoJSON FeatureCollection and is served verbatim. Missing or
// invalid files are skipped with a warning so a partial set still renders.
func LoadOverlays(dir string, logger *slog.Logger) map[string][]byte {
	overlays := make(map[string][]byte, len(overlayFiles))
	for name, filename := range overlayFiles {
		path := filepath.Join(dir, filename)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("route overlay unavailable", "overlay", name, "path", path, "error", err)
			continue
		}

		var probe struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &probe); err != nil || probe.Type != "FeatureCollection" {
			logger.Warn("route overlay is not a FeatureCollection", "overlay", name, "path", path)
			continue
		}
		overlays[name] = data
	}
	return overlays
}
