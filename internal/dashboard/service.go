// Package dashboard wires the loaded dataset, the site filter, and the
// trip planner behind a single service used by the HTTP API.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/freightlens/truck-traffic-dashboard/internal/charts"
	"github.com/freightlens/truck-traffic-dashboard/internal/config"
	"github.com/freightlens/truck-traffic-dashboard/internal/dataset"
	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/freightlens/truck-traffic-dashboard/internal/export"
	"github.com/freightlens/truck-traffic-dashboard/internal/observability"
)

var (
	// ErrNotLoaded reports that no dataset has been loaded yet.
	ErrNotLoaded = errors.New("dataset has not been loaded yet")

	// ErrRoutingDisabled reports that no route planner is configured.
	ErrRoutingDisabled = errors.New("trip routing is not configured")

	// ErrSiteNotFound composes with a site number.
	ErrSiteNotFound = errors.New("no traffic site with site number")

	// ErrDestinationNotFound reports an unresolvable trip destination.
	ErrDestinationNotFound = errors.New("destination could not be resolved")

	// ErrNoRoute reports that no road route connects site and destination.
	ErrNoRoute = errors.New("no road route between site and destination")
)

// Snapshot is one immutable view of the loaded data files. Reloads swap
// the whole snapshot so readers never see a half-loaded state.
type Snapshot struct {
	Table           *dataset.Table
	Stations        []domain.RefuellingStation
	StationsDropped int
	Overlays        map[string][]byte
}

// FilterResult is one filter evaluation over the loaded table.
type FilterResult struct {
	Sites      []domain.TrafficSite
	Thresholds domain.Thresholds
	Clamped    bool
	Total      int
	Bounds     domain.FilterBounds
}

// TripFuelResult is a resolved trip with its fuel estimate.
type TripFuelResult struct {
	Site        domain.TrafficSite
	Destination domain.GeocodeResult
	Leg         domain.RouteLeg
	Estimate    domain.TripFuelEstimate
}

// Service answers dashboard queries against the current snapshot.
type Service struct {
	cfg      *config.Config
	settings config.Settings
	planner  domain.RoutePlanner
	logger   *slog.Logger
	metrics  *observability.Metrics
	current  atomic.Pointer[Snapshot]
}

// New creates a Service. A nil planner disables trip routing; every
// other query keeps working.
func New(cfg *config.Config, settings config.Settings, planner domain.RoutePlanner, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		cfg:      cfg,
		settings: settings,
		planner:  planner,
		logger:   logger,
		metrics:  metrics,
	}
}

// Reload loads the data files and swaps the current snapshot. The site
// statistics file is required; a failed reload keeps the previous
// snapshot. Stations and route overlays only degrade with a warning.
func (s *Service) Reload(_ context.Context) error {
	table, err := dataset.LoadSites(s.cfg.DatasetPath, s.logger)
	if err != nil {
		s.metrics.ReloadErrors.Inc()
		return fmt.Errorf("load site statistics: %w", err)
	}

	stations, stationsDropped, err := dataset.LoadStations(s.cfg.StationsPath, s.logger)
	if err != nil {
		s.logger.Warn("refuelling stations unavailable", "path", s.cfg.StationsPath, "error", err)
		stations, stationsDropped = nil, 0
	}

	overlays := dataset.LoadOverlays(s.cfg.RoutesDir, s.logger)

	s.current.Store(&Snapshot{
		Table:           table,
		Stations:        stations,
		StationsDropped: stationsDropped,
		Overlays:        overlays,
	})

	s.metrics.SitesLoaded.Set(float64(len(table.Sites)))
	s.metrics.RowsDropped.Set(float64(table.Dropped))
	s.metrics.DatasetReloads.Inc()

	s.logger.Info("dataset loaded",
		"path", table.Path,
		"source", table.Source,
		"sites", len(table.Sites),
		"dropped", table.Dropped,
		"stations", len(stations),
		"overlays", len(overlays),
	)
	return nil
}

// CheckReadiness returns nil once a dataset snapshot is available, or an
// error describing why the service is not yet ready.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return ErrNotLoaded
	}
	return nil
}

// Snapshot returns the current data snapshot, or nil before the first
// successful load.
func (s *Service) Snapshot() *Snapshot {
	return s.current.Load()
}

// Settings returns the dashboard presentation settings.
func (s *Service) Settings() config.Settings {
	return s.settings
}

// RoutingEnabled reports whether trip fuel estimates are available.
func (s *Service) RoutingEnabled() bool {
	return s.planner != nil
}

// RefreshEnabled reports whether the Kafka dataset refresh subscriber is
// configured.
func (s *Service) RefreshEnabled() bool {
	return s.cfg.RefreshEnabled()
}

// FilterSites evaluates the thresholds against the loaded table. With
// clamp set, out-of-range thresholds are pulled back to the observed
// bounds; without it they are rejected with an InvalidFilterRangeError.
// An empty result is a valid outcome, not an error.
func (s *Service) FilterSites(th domain.Thresholds, clamp bool) (FilterResult, error) {
	snap := s.current.Load()
	if snap == nil {
		return FilterResult{}, ErrNotLoaded
	}
	start := time.Now()

	bounds := snap.Table.Bounds
	var clamped bool
	if clamp {
		th, clamped = domain.ClampThresholds(th, bounds)
	} else if err := domain.ValidateThresholds(th, bounds); err != nil {
		s.metrics.FilterRequests.WithLabelValues("rejected").Inc()
		return FilterResult{}, err
	}

	matched := domain.FilterSites(snap.Table.Sites, th)
	s.metrics.FilterDuration.Observe(time.Since(start).Seconds())

	outcome := "ok"
	if clamped {
		outcome = "clamped"
	}
	s.metrics.FilterRequests.WithLabelValues(outcome).Inc()

	return FilterResult{
		Sites:      matched,
		Thresholds: th,
		Clamped:    clamped,
		Total:      len(snap.Table.Sites),
		Bounds:     bounds,
	}, nil
}

// Summary aggregates the filtered sites for the chart and table views.
func (s *Service) Summary(th domain.Thresholds, clamp bool) (domain.Summary, error) {
	res, err := s.FilterSites(th, clamp)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(res.Sites, res.Total, s.settings.Tiers), nil
}

// Export writes the filtered sites to w in the given format.
func (s *Service) Export(w io.Writer, th domain.Thresholds, clamp bool, format export.Format) error {
	res, err := s.FilterSites(th, clamp)
	if err != nil {
		return err
	}
	if err := export.Write(w, res.Sites, s.settings.Tiers, format); err != nil {
		return err
	}
	s.metrics.ExportRequests.WithLabelValues(string(format)).Inc()
	return nil
}

// ClassVolumesChart renders the per-class volume bar chart for the
// filtered sites. charts.ErrNoData passes through when nothing matches.
func (s *Service) ClassVolumesChart(th domain.Thresholds, clamp bool) ([]byte, error) {
	res, err := s.FilterSites(th, clamp)
	if err != nil {
		return nil, err
	}
	return s.renderChart("class_volumes", func() ([]byte, error) {
		return charts.ClassVolumes(domain.Summarize(res.Sites, res.Total, s.settings.Tiers))
	})
}

// TierShareChart renders the volume tier pie chart for the filtered
// sites.
func (s *Service) TierShareChart(th domain.Thresholds, clamp bool) ([]byte, error) {
	res, err := s.FilterSites(th, clamp)
	if err != nil {
		return nil, err
	}
	return s.renderChart("tier_share", func() ([]byte, error) {
		return charts.TierShare(domain.Summarize(res.Sites, res.Total, s.settings.Tiers), s.settings.Colors)
	})
}

func (s *Service) renderChart(kind string, render func() ([]byte, error)) ([]byte, error) {
	start := time.Now()
	png, err := render()
	if err != nil {
		return nil, err
	}
	s.metrics.ChartRenders.WithLabelValues(kind).Inc()
	s.metrics.ChartRenderDuration.Observe(time.Since(start).Seconds())
	return png, nil
}

// TripFuel resolves a destination, measures the drive from the site, and
// estimates diesel and hydrogen consumption for the vehicle class.
func (s *Service) TripFuel(ctx context.Context, siteNumber int, destination string, class int) (TripFuelResult, error) {
	if s.planner == nil {
		return TripFuelResult{}, ErrRoutingDisabled
	}
	snap := s.current.Load()
	if snap == nil {
		return TripFuelResult{}, ErrNotLoaded
	}

	site, ok := snap.Table.SiteByNumber(siteNumber)
	if !ok {
		return TripFuelResult{}, fmt.Errorf("%w %d", ErrSiteNotFound, siteNumber)
	}

	dest, err := s.planner.Geocode(ctx, destination)
	if err != nil {
		return TripFuelResult{}, fmt.Errorf("resolve destination: %w", err)
	}
	if dest.FormattedAddress == "" {
		return TripFuelResult{}, fmt.Errorf("%w: %q", ErrDestinationNotFound, destination)
	}

	leg, err := s.planner.DriveDistance(ctx, site.Geo, dest.Geo)
	if err != nil {
		return TripFuelResult{}, fmt.Errorf("measure drive distance: %w", err)
	}
	if leg.DistanceMeters == 0 {
		return TripFuelResult{}, ErrNoRoute
	}

	estimate, err := domain.EstimateTripFuel(float64(leg.DistanceMeters)/1000, class)
	if err != nil {
		return TripFuelResult{}, err
	}

	return TripFuelResult{
		Site:        site,
		Destination: dest,
		Leg:         leg,
		Estimate:    estimate,
	}, nil
}
