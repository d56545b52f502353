// Package dataset loads the dashboard's input files: the aggregated site
// statistics JSON, the hydrogen refuelling stations CSV, and the freight
// route overlay GeoJSON files. Site statistics are required; the other
// layers degrade when absent.
package dataset

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
)

// StatisticsFile is the site_statistics.json shape, shared between this
// loader and the genstats writer.
type StatisticsFile struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Source      string            `json:"source"`
	Statistics  []StatisticsEntry `json:"statistics"`
}

// StatisticsEntry is one site with its per-class counts. Class fields are
// pointers so an absent count can be told apart from an explicit zero.
type StatisticsEntry struct {
	Site    SiteRecord `json:"site"`
	Class3  *float64   `json:"Class3,omitempty"`
	Class4  *float64   `json:"Class4,omitempty"`
	Class5  *float64   `json:"Class5,omitempty"`
	Class6  *float64   `json:"Class6,omitempty"`
	Class7  *float64   `json:"Class7,omitempty"`
	Class8  *float64   `json:"Class8,omitempty"`
	Class9  *float64   `json:"Class9,omitempty"`
	Class10 *float64   `json:"Class10,omitempty"`
}

// SiteRecord is the site identity block inside a statistics entry.
type SiteRecord struct {
	SiteNumber   int      `json:"siteNumber"`
	RoadName     string   `json:"roadname"`
	LocationDesc string   `json:"locationDesc"`
	RoadDir      string   `json:"roadDir"`
	Location     *LatLong `json:"location"`
}

// LatLong is the coordinate pair as stored in the statistics file.
type LatLong struct {
	Lat  float64 `json:"lat"`
	Long float64 `json:"long"`
}

// Table is a loaded site statistics dataset. It is treated as read-only
// shared state: sites keep file order, and the filter bounds and site
// index are derived once at construction.
type Table struct {
	Sites       []domain.TrafficSite
	Bounds      domain.FilterBounds
	Dropped     int
	Source      string
	Path        string
	GeneratedAt time.Time
	LoadedAt    time.Time

	index map[int]int
}

// NewTable builds a table from already-validated sites, deriving the
// filter bounds and the site-number index.
func NewTable(sites []domain.TrafficSite) *Table {
	t := &Table{
		Sites:    sites,
		LoadedAt: domain.Now(),
		index:    make(map[int]int, len(sites)),
	}
	for i, s := range sites {
		t.index[s.SiteNumber] = i
		if s.TotalVolume > t.Bounds.MaxVolume {
			t.Bounds.MaxVolume = s.TotalVolume
		}
		if s.HeavyPercent > t.Bounds.MaxHeavyPct {
			t.Bounds.MaxHeavyPct = s.HeavyPercent
		}
	}
	return t
}

// SiteByNumber returns the site with the given survey site number.
func (t *Table) SiteByNumber(n int) (domain.TrafficSite, bool) {
	i, ok := t.index[n]
	if !ok {
		return domain.TrafficSite{}, false
	}
	return t.Sites[i], true
}

// LoadSites reads and validates the site statistics file. Malformed rows
// are dropped and logged with their index and reason; an unreadable or
// unparseable file is an error.
func LoadSites(path string, logger *slog.Logger) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read site statistics: %w", err)
	}

	var file StatisticsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse site statistics: %w", err)
	}

	var (
		sites   []domain.TrafficSite
		dropped int
		seen    = make(map[int]bool, len(file.Statistics))
	)
	for i, entry := range file.Statistics {
		site, reason := entry.toSite()
		if reason == "" && seen[site.SiteNumber] {
			reason = "duplicate site number"
		}
		if reason != "" {
			dropped++
			logger.Warn("dropping malformed site record",
				"index", i,
				"site_number", entry.Site.SiteNumber,
				"reason", reason,
			)
			continue
		}
		seen[site.SiteNumber] = true
		sites = append(sites, site)
	}

	table := NewTable(sites)
	table.Dropped = dropped
	table.Source = file.Source
	table.Path = path
	table.GeneratedAt = file.GeneratedAt
	return table, nil
}

// WriteStatistics writes a statistics file the way genstats produces it,
// creating parent directories as needed.
func WriteStatistics(path string, file StatisticsFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal site statistics: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write site statistics: %w", err)
	}
	return nil
}

// toSite validates one statistics entry and converts it to a TrafficSite.
// A non-empty reason means the row is malformed and must be dropped.
func (e StatisticsEntry) toSite() (domain.TrafficSite, string) {
	if e.Site.SiteNumber <= 0 {
		return domain.TrafficSite{}, "missing or non-positive site number"
	}
	if e.Site.Location == nil {
		return domain.TrafficSite{}, "missing coordinates"
	}
	if e.Site.Location.Lat < -90 || e.Site.Location.Lat > 90 ||
		e.Site.Location.Long < -180 || e.Site.Location.Long > 180 {
		return domain.TrafficSite{}, "coordinates out of bounds"
	}

	counts, present, negative := e.classCounts()
	if negative {
		return domain.TrafficSite{}, "negative class count"
	}
	if !present {
		return domain.TrafficSite{}, "no class counts"
	}

	site := domain.TrafficSite{
		SiteNumber:   e.Site.SiteNumber,
		RoadName:     e.Site.RoadName,
		LocationDesc: e.Site.LocationDesc,
		RoadDir:      e.Site.RoadDir,
		Geo:          domain.Geo{Lat: e.Site.Location.Lat, Lon: e.Site.Location.Long},
		Classes:      counts,
	}
	return site.WithDerived(), ""
}

// classCounts collects the per-class fields, reporting whether any count
// was present at all and whether any was negative.
func (e StatisticsEntry) classCounts() (c domain.ClassCounts, present, negative bool) {
	assign := func(dst, src *float64) {
		if src == nil {
			return
		}
		present = true
		if *src < 0 {
			negative = true
			return
		}
		*dst = *src
	}
	assign(&c.Class3, e.Class3)
	assign(&c.Class4, e.Class4)
	assign(&c.Class5, e.Class5)
	assign(&c.Class6, e.Class6)
	assign(&c.Class7, e.Class7)
	assign(&c.Class8, e.Class8)
	assign(&c.Class9, e.Class9)
	assign(&c.Class10, e.Class10)
	return c, present, negative
}
