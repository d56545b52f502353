// Command genstats aggregates a raw Main Roads WA classified traffic survey
// export into the site_statistics.json file the dashboard serves. The raw
// export is long form, one row per site per vehicle class; genstats sums the
// volumes per site, drops malformed rows, and prints a breakdown for
// updating test assertions.
//
// Usage:
//
//	go run ./cmd/genstats \
//	  -csv data/raw/mrwa_classified_survey.csv \
//	  -out data/site_statistics.json
//
// With -publish it also announces the new dataset on the Kafka refresh
// topic so running dashboards reload without a restart.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/freightlens/truck-traffic-dashboard/internal/adapter/kafka"
	"github.com/freightlens/truck-traffic-dashboard/internal/config"
	"github.com/freightlens/truck-traffic-dashboard/internal/dataset"
	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
)

// requiredColumns are the raw export columns genstats reads. Column order
// in the file is free; the header decides.
var requiredColumns = []string{"SITE_NO", "ROAD_NAME", "LOCATION_DESC", "RDIR", "LAT", "LONG", "VEHICLE_CLASS", "VOLUME"}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "raw MRWA classified survey CSV")
	outPath := flag.String("out", "data/site_statistics.json", "output path for site_statistics.json")
	source := flag.String("source", "", "source label stored in the output (defaults to the CSV filename)")
	publish := flag.Bool("publish", false, "publish a refresh notice to Kafka after writing")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers for -publish")
	topic := flag.String("topic", "traffic-dataset-refresh", "Kafka refresh topic for -publish")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -csv")
	}
	if *source == "" {
		*source = filepath.Base(*csvPath)
	}

	agg, err := aggregateCSV(*csvPath)
	if err != nil {
		return fmt.Errorf("aggregating %s: %w", *csvPath, err)
	}

	generatedAt := domain.Now().UTC().Truncate(time.Second)
	file := dataset.StatisticsFile{
		GeneratedAt: generatedAt,
		Source:      *source,
		Statistics:  agg.entries(),
	}
	if err := dataset.WriteStatistics(*outPath, file); err != nil {
		return err
	}
	log.Printf("wrote %s: %d sites from %d rows", *outPath, len(file.Statistics), agg.rows)

	printStats(agg)

	if *publish {
		if err := publishRefresh(*brokers, *topic, *outPath, *source, generatedAt, len(file.Statistics)); err != nil {
			return fmt.Errorf("publishing refresh notice: %w", err)
		}
		log.Printf("published refresh notice to %s", *topic)
	}
	return nil
}

// aggregate collects per-site class sums in first-seen file order.
type aggregate struct {
	order []int
	sites map[int]*siteAgg

	rows         int
	dropped      map[string]int
	outsideClass int
}

type siteAgg struct {
	record dataset.SiteRecord
	counts domain.ClassCounts
}

func aggregateCSV(path string) (*aggregate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing column %s", col)
		}
	}

	agg := &aggregate{
		sites:   map[int]*siteAgg{},
		dropped: map[string]int{},
	}
	for _, row := range rows[1:] {
		agg.rows++
		agg.consume(row, colIdx)
	}
	return agg, nil
}

func (a *aggregate) consume(row []string, colIdx map[string]int) {
	siteNo, err := strconv.Atoi(get(row, colIdx, "SITE_NO"))
	if err != nil || siteNo <= 0 {
		a.dropped["missing or non-positive site number"]++
		return
	}

	lat, latErr := strconv.ParseFloat(get(row, colIdx, "LAT"), 64)
	lon, lonErr := strconv.ParseFloat(get(row, colIdx, "LONG"), 64)
	if latErr != nil || lonErr != nil {
		a.dropped["unparseable coordinates"]++
		return
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		a.dropped["coordinates out of bounds"]++
		return
	}

	class, err := parseClass(get(row, colIdx, "VEHICLE_CLASS"))
	if err != nil {
		a.dropped["unparseable vehicle class"]++
		return
	}
	if !domain.ValidClass(class) {
		// Classes 1-2 (short vehicles) and 11+ are in the raw export but
		// not in the dashboard's scope.
		a.outsideClass++
		return
	}

	volume, err := strconv.ParseFloat(get(row, colIdx, "VOLUME"), 64)
	if err != nil {
		a.dropped["unparseable volume"]++
		return
	}
	if volume < 0 {
		a.dropped["negative volume"]++
		return
	}

	s, ok := a.sites[siteNo]
	if !ok {
		// First row for a site wins its identity fields.
		s = &siteAgg{record: dataset.SiteRecord{
			SiteNumber:   siteNo,
			RoadName:     get(row, colIdx, "ROAD_NAME"),
			LocationDesc: get(row, colIdx, "LOCATION_DESC"),
			RoadDir:      get(row, colIdx, "RDIR"),
			Location:     &dataset.LatLong{Lat: lat, Long: lon},
		}}
		a.sites[siteNo] = s
		a.order = append(a.order, siteNo)
	}
	s.counts.AddClass(class, volume)
}

// entries converts the aggregation to statistics entries in first-seen
// order, emitting only the classes a site actually has.
func (a *aggregate) entries() []dataset.StatisticsEntry {
	entries := make([]dataset.StatisticsEntry, 0, len(a.order))
	for _, siteNo := range a.order {
		s := a.sites[siteNo]
		entry := dataset.StatisticsEntry{Site: s.record}
		assignClass(&entry, s.counts)
		entries = append(entries, entry)
	}
	return entries
}

func (a *aggregate) droppedTotal() int {
	var n int
	for _, c := range a.dropped {
		n += c
	}
	return n
}

func assignClass(entry *dataset.StatisticsEntry, c domain.ClassCounts) {
	set := func(dst **float64, v float64) {
		if v > 0 {
			value := v
			*dst = &value
		}
	}
	set(&entry.Class3, c.Class3)
	set(&entry.Class4, c.Class4)
	set(&entry.Class5, c.Class5)
	set(&entry.Class6, c.Class6)
	set(&entry.Class7, c.Class7)
	set(&entry.Class8, c.Class8)
	set(&entry.Class9, c.Class9)
	set(&entry.Class10, c.Class10)
}

// parseClass accepts both bare class numbers and the "Class 9" spelling
// some exports use.
func parseClass(s string) (int, error) {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "class"); ok {
		s = strings.TrimSpace(rest)
	}
	return strconv.Atoi(s)
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func printStats(a *aggregate) {
	sites := make([]domain.TrafficSite, 0, len(a.order))
	roads := map[string]bool{}
	for _, siteNo := range a.order {
		s := a.sites[siteNo]
		roads[s.record.RoadName] = true
		sites = append(sites, domain.TrafficSite{
			SiteNumber: siteNo,
			RoadName:   s.record.RoadName,
			Classes:    s.counts,
		}.WithDerived())
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d, sites: %d, roads: %d\n", a.rows, len(sites), len(roads))
	fmt.Printf("Rows outside classes 3-10: %d\n", a.outsideClass)
	fmt.Printf("Dropped: %d\n", a.droppedTotal())

	reasons := make([]string, 0, len(a.dropped))
	for r := range a.dropped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)
	for _, r := range reasons {
		fmt.Printf("  %s: %d\n", r, a.dropped[r])
	}

	tiers := map[domain.VolumeTier]int{}
	for _, s := range sites {
		tiers[domain.DefaultBreakpoints.TierFor(s.TotalVolume)]++
	}
	fmt.Printf("Tiers: low=%d, medium=%d, high=%d\n",
		tiers[domain.TierLow], tiers[domain.TierMedium], tiers[domain.TierHigh])

	for _, th := range []domain.Thresholds{
		{MinVolume: 500},
		{MinVolume: 1000, MinHeavyPct: 5},
		{MinVolume: 2000, MinHeavyPct: 20},
	} {
		matched := domain.FilterSites(sites, th)
		fmt.Printf("Filter (vol>=%.0f, heavy>=%.0f%%): %d sites\n",
			th.MinVolume, th.MinHeavyPct, len(matched))
	}
}

func publishRefresh(brokers, topic, outPath, source string, generatedAt time.Time, siteCount int) error {
	cfg := &config.Config{
		KafkaBrokers:      strings.Split(brokers, ","),
		KafkaRefreshTopic: topic,
	}
	publisher := kafka.NewPublisher(cfg, slog.Default())
	defer publisher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return publisher.PublishRefresh(ctx, domain.RefreshNotice{
		DatasetPath: outPath,
		GeneratedAt: generatedAt,
		SiteCount:   siteCount,
		Source:      source,
	})
}
