package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
)

// LoadStations reads the hydrogen refuelling stations CSV. Columns are
// resolved by header name so column order is free. Rows without a name or
// plausible coordinates are dropped and logged; capacity fields that fail
// to parse fall back to zero. The caller treats an error as a degraded
// layer, not a fatal condition.
func LoadStations(path string, logger *slog.Logger) ([]domain.RefuellingStation, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open stations file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read stations header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"name", "Lat", "Long"} {
		if _, ok := col[required]; !ok {
			return nil, 0, fmt.Errorf("stations file missing column %q", required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var (
		stations []domain.RefuellingStation
		dropped  int
	)
	for line := 2; ; line++ {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			dropped++
			logger.Warn("dropping unreadable station row", "line", line, "error", err)
			continue
		}

		name := field(row, "name")
		lat, errLat := strconv.ParseFloat(field(row, "Lat"), 64)
		lon, errLon := strconv.ParseFloat(field(row, "Long"), 64)

		var reason string
		switch {
		case name == "":
			reason = "missing name"
		case errLat != nil || errLon != nil:
			reason = "unparseable coordinates"
		case lat < -90 || lat > 90 || lon < -180 || lon > 180:
			reason = "coordinates out of bounds"
		}
		if reason != "" {
			dropped++
			logger.Warn("dropping station row", "line", line, "reason", reason)
			continue
		}

		stations = append(stations, domain.RefuellingStation{
			Name:            name,
			CityState:       field(row, "city_state"),
			Operator:        field(row, "operator"),
			Opened:          field(row, "Start"),
			Geo:             domain.Geo{Lat: lat, Lon: lon},
			StorageKg:       parseFloatOrZero(field(row, "storage_capacity_kg")),
			DailyCapacityKg: parseFloatOrZero(field(row, "dispensing_daily_capacity")),
			UsageCase:       field(row, "usage_case"),
		})
	}
	return stations, dropped, nil
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
