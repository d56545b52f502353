// Command validate performs end-to-end integrity checks on a dashboard
// dataset: the aggregated site_statistics.json against the raw survey CSV
// it was generated from, the derived volume fields, and the auxiliary
// station and route overlay files.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -csv data/raw/mrwa_classified_survey.csv \
//	  -json data/site_statistics.json \
//	  -stations data/hydrogen_refuelling_stations.csv \
//	  -routes-dir data/routes
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/freightlens/truck-traffic-dashboard/internal/dataset"
	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
)

// Western Australia bounding box, generous enough for offshore sites.
const (
	waLatMin = -36.0
	waLatMax = -13.0
	waLonMin = 112.0
	waLonMax = 130.0
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "", "raw MRWA classified survey CSV")
	jsonPath := flag.String("json", "", "path to site_statistics.json")
	stationsPath := flag.String("stations", "", "hydrogen refuelling stations CSV (optional)")
	routesDir := flag.String("routes-dir", "", "route overlay GeoJSON directory (optional)")
	flag.Parse()

	if *csvPath == "" || *jsonPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*csvPath, *jsonPath, *stationsPath, *routesDir); code != 0 {
		os.Exit(code)
	}
}

func run(csvPath, jsonPath, stationsPath, routesDir string) int {
	fmt.Println("=== Traffic Dataset Integrity Validation ===")
	fmt.Println()

	raw, err := aggregateRawCSV(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load raw CSV: %v\n", err)
		return 1
	}

	file, err := loadStatistics(jsonPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load statistics JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateParity(raw, file),
		validateSchema(file),
		validateDerivedFields(jsonPath),
		validateAuxiliaryFiles(stationsPath, routesDir),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d raw sites, %d statistics entries\n", len(raw), len(file.Statistics))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// rawSite is the per-site aggregation recomputed from the raw survey CSV,
// independently of genstats.
type rawSite struct {
	counts domain.ClassCounts
}

func aggregateRawCSV(path string) (map[int]*rawSite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return aggregateRaw(f)
}

func aggregateRaw(r io.Reader) (map[int]*rawSite, error) {
	rows, err := readCSV(r)
	if err != nil {
		return nil, err
	}

	sites := map[int]*rawSite{}
	for _, row := range rows {
		siteNo, err := strconv.Atoi(row["SITE_NO"])
		if err != nil || siteNo <= 0 {
			continue
		}
		class, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(strings.ToLower(row["VEHICLE_CLASS"]), "class")))
		if err != nil || !domain.ValidClass(class) {
			continue
		}
		volume, err := strconv.ParseFloat(row["VOLUME"], 64)
		if err != nil || volume < 0 {
			continue
		}
		lat, latErr := strconv.ParseFloat(row["LAT"], 64)
		lon, lonErr := strconv.ParseFloat(row["LONG"], 64)
		if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}

		s, ok := sites[siteNo]
		if !ok {
			s = &rawSite{}
			sites[siteNo] = s
		}
		s.counts.AddClass(class, volume)
	}
	return sites, nil
}

func loadStatistics(path string) (dataset.StatisticsFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return dataset.StatisticsFile{}, err
	}
	var file dataset.StatisticsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return dataset.StatisticsFile{}, err
	}
	return file, nil
}

// ── Phase 1: CSV Parity ──
// Every site aggregated from the raw CSV must appear in the statistics
// JSON with matching per-class totals.

func validateParity(raw map[int]*rawSite, file dataset.StatisticsFile) *phase {
	p := &phase{name: "Phase 1: CSV Parity (JSON vs raw)"}

	byNumber := map[int]dataset.StatisticsEntry{}
	for _, entry := range file.Statistics {
		byNumber[entry.Site.SiteNumber] = entry
	}

	if len(raw) != len(byNumber) {
		p.errorf("site count: raw CSV has %d, JSON has %d", len(raw), len(byNumber))
	}

	for siteNo, r := range raw {
		entry, ok := byNumber[siteNo]
		if !ok {
			p.errorf("site %d: aggregated from CSV but missing from JSON", siteNo)
			continue
		}
		for _, class := range domain.ClassNumbers {
			want := r.counts.ForClass(class)
			got := classValue(entry, class)
			if !floatEq(want, got) {
				p.errorf("site %d: Class%d: raw CSV sums to %g, JSON has %g", siteNo, class, want, got)
			}
		}
	}
	return p
}

// ── Phase 2: Schema Alignment ──
// Statistics entries must be loadable: positive site numbers, plausible
// WA coordinates, non-negative counts.

func validateSchema(file dataset.StatisticsFile) *phase {
	p := &phase{name: "Phase 2: Schema Alignment (entries)"}

	seen := map[int]bool{}
	for i, entry := range file.Statistics {
		if entry.Site.SiteNumber <= 0 {
			p.errorf("entry %d: non-positive site number %d", i, entry.Site.SiteNumber)
		} else if seen[entry.Site.SiteNumber] {
			p.errorf("entry %d: duplicate site number %d", i, entry.Site.SiteNumber)
		}
		seen[entry.Site.SiteNumber] = true

		if entry.Site.RoadName == "" {
			p.errorf("entry %d (site %d): empty road name", i, entry.Site.SiteNumber)
		}

		loc := entry.Site.Location
		if loc == nil {
			p.errorf("entry %d (site %d): missing coordinates", i, entry.Site.SiteNumber)
		} else if loc.Lat < waLatMin || loc.Lat > waLatMax || loc.Long < waLonMin || loc.Long > waLonMax {
			p.errorf("entry %d (site %d): coordinates (%g, %g) outside Western Australia",
				i, entry.Site.SiteNumber, loc.Lat, loc.Long)
		}

		var present bool
		for _, class := range domain.ClassNumbers {
			v := classPtr(entry, class)
			if v == nil {
				continue
			}
			present = true
			if *v < 0 {
				p.errorf("entry %d (site %d): negative Class%d count %g", i, entry.Site.SiteNumber, class, *v)
			}
		}
		if !present {
			p.errorf("entry %d (site %d): no class counts", i, entry.Site.SiteNumber)
		}
	}
	return p
}

// ── Phase 3: Derived Fields ──
// Run the real loader, then recompute each site's aggregates from its
// class counts and compare.

func validateDerivedFields(jsonPath string) *phase {
	p := &phase{name: "Phase 3: Derived Fields (loader output)"}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	table, err := dataset.LoadSites(jsonPath, logger)
	if err != nil {
		p.errorf("loader rejected the file: %v", err)
		return p
	}
	if table.Dropped > 0 {
		p.errorf("loader dropped %d entries", table.Dropped)
	}

	for _, site := range table.Sites {
		if !floatEq(site.TotalVolume, site.Classes.Total()) {
			p.errorf("site %d: total volume %g != recomputed %g", site.SiteNumber, site.TotalVolume, site.Classes.Total())
		}
		if !floatEq(site.MediumTrucks, site.Classes.Medium()) {
			p.errorf("site %d: medium trucks %g != recomputed %g", site.SiteNumber, site.MediumTrucks, site.Classes.Medium())
		}
		if !floatEq(site.HeavyTrucks, site.Classes.Heavy()) {
			p.errorf("site %d: heavy trucks %g != recomputed %g", site.SiteNumber, site.HeavyTrucks, site.Classes.Heavy())
		}
		if !floatEq(site.HeavyPercent, site.Classes.HeavyPercent()) {
			p.errorf("site %d: heavy percent %g != recomputed %g", site.SiteNumber, site.HeavyPercent, site.Classes.HeavyPercent())
		}
	}
	return p
}

// ── Phase 4: Auxiliary Files ──
// Stations CSV and route overlays are optional layers; when paths are
// given they must parse cleanly.

func validateAuxiliaryFiles(stationsPath, routesDir string) *phase {
	p := &phase{name: "Phase 4: Auxiliary Files (stations, routes)"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if stationsPath != "" {
		stations, dropped, err := dataset.LoadStations(stationsPath, logger)
		switch {
		case err != nil:
			p.errorf("stations: %v", err)
		case dropped > 0:
			p.errorf("stations: %d rows dropped", dropped)
		case len(stations) == 0:
			p.errorf("stations: file parsed but holds no stations")
		}
	}

	if routesDir != "" {
		overlays := dataset.LoadOverlays(routesDir, logger)
		for _, name := range dataset.OverlayNames() {
			data, ok := overlays[name]
			if !ok {
				p.errorf("overlay %q: missing or not a FeatureCollection", name)
				continue
			}
			var probe struct {
				Features []json.RawMessage `json:"features"`
			}
			if err := json.Unmarshal(data, &probe); err != nil {
				p.errorf("overlay %q: %v", name, err)
			} else if len(probe.Features) == 0 {
				p.errorf("overlay %q: FeatureCollection has no features", name)
			}
		}
	}
	return p
}

// ── Helpers ──

func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	all, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	header := all[0]
	rows := make([]map[string]string, 0, len(all)-1)
	for _, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[strings.TrimSpace(h)] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, fields)
	}
	return rows, nil
}

func classValue(entry dataset.StatisticsEntry, class int) float64 {
	if v := classPtr(entry, class); v != nil {
		return *v
	}
	return 0
}

func classPtr(entry dataset.StatisticsEntry, class int) *float64 {
	switch class {
	case 3:
		return entry.Class3
	case 4:
		return entry.Class4
	case 5:
		return entry.Class5
	case 6:
		return entry.Class6
	case 7:
		return entry.Class7
	case 8:
		return entry.Class8
	case 9:
		return entry.Class9
	case 10:
		return entry.Class10
	default:
		return nil
	}
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
