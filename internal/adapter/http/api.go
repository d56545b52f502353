package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/freightlens/truck-traffic-dashboard/internal/charts"
	"github.com/freightlens/truck-traffic-dashboard/internal/dashboard"
	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/freightlens/truck-traffic-dashboard/internal/export"
)

// api holds the JSON API handlers.
type api struct {
	svc    *dashboard.Service
	logger *slog.Logger
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/meta", a.handleMeta)
	mux.HandleFunc("GET /api/sites", a.handleSites)
	mux.HandleFunc("GET /api/summary", a.handleSummary)
	mux.HandleFunc("GET /api/stations", a.handleStations)
	mux.HandleFunc("GET /api/overlays/{name}", a.handleOverlay)
	mux.HandleFunc("GET /api/charts/class-volumes.png", a.handleClassVolumesChart)
	mux.HandleFunc("GET /api/charts/tier-share.png", a.handleTierShareChart)
	mux.HandleFunc("GET /api/export", a.handleExport)
	mux.HandleFunc("GET /api/trip-fuel", a.handleTripFuel)
}

// --- response shapes ---

type mapView struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	Zoom      int     `json:"zoom"`
}

type datasetView struct {
	Source      string    `json:"source"`
	GeneratedAt time.Time `json:"generated_at"`
	LoadedAt    time.Time `json:"loaded_at"`
	Sites       int       `json:"sites"`
	Dropped     int       `json:"dropped"`
}

type metaResponse struct {
	Title          string                 `json:"title"`
	Map            mapView                `json:"map"`
	Tiers          domain.TierBreakpoints `json:"tiers"`
	Colors         domain.TierColors      `json:"colors"`
	Bounds         domain.FilterBounds    `json:"bounds"`
	Dataset        datasetView            `json:"dataset"`
	ClassLabels    map[int]string         `json:"class_labels"`
	FuelClasses    []int                  `json:"fuel_classes"`
	Overlays       []string               `json:"overlays"`
	Stations       int                    `json:"stations"`
	RoutingEnabled bool                   `json:"routing_enabled"`
	RefreshEnabled bool                   `json:"refresh_enabled"`
}

type siteView struct {
	SiteNumber    int                `json:"site_number"`
	RoadName      string             `json:"road_name"`
	LocationDesc  string             `json:"location_desc"`
	RoadDir       string             `json:"road_dir"`
	Geo           domain.Geo         `json:"geo"`
	Classes       domain.ClassCounts `json:"classes"`
	TotalVolume   float64            `json:"total_volume"`
	MediumTrucks  float64            `json:"medium_trucks"`
	HeavyTrucks   float64            `json:"heavy_trucks"`
	HeavyPercent  float64            `json:"heavy_pct"`
	Tier          domain.VolumeTier  `json:"tier"`
	Color         string             `json:"color"`
	SelectedCount *float64           `json:"selected_count,omitempty"`
}

type sitesResponse struct {
	Matched    int                 `json:"matched"`
	Total      int                 `json:"total"`
	Thresholds domain.Thresholds   `json:"thresholds"`
	Bounds     domain.FilterBounds `json:"bounds"`
	Clamped    bool                `json:"clamped"`
	Message    string              `json:"message,omitempty"`
	Sites      []siteView          `json:"sites"`
}

type stationsResponse struct {
	Count    int                        `json:"count"`
	Dropped  int                        `json:"dropped"`
	Stations []domain.RefuellingStation `json:"stations"`
}

type tripFuelResponse struct {
	SiteNumber      int        `json:"site_number"`
	RoadName        string     `json:"road_name"`
	Destination     string     `json:"destination"`
	DestinationGeo  domain.Geo `json:"destination_geo"`
	VehicleClass    int        `json:"vehicle_class"`
	ClassLabel      string     `json:"class_label"`
	DistanceKm      float64    `json:"distance_km"`
	DurationSeconds int        `json:"duration_seconds"`
	DieselLitres    float64    `json:"diesel_litres"`
	HydrogenKg      float64    `json:"hydrogen_kg"`
}

// --- handlers ---

func (a *api) handleMeta(w http.ResponseWriter, _ *http.Request) {
	snap := a.svc.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, dashboard.ErrNotLoaded.Error())
		return
	}

	settings := a.svc.Settings()
	overlays := make([]string, 0, len(snap.Overlays))
	for name := range snap.Overlays {
		overlays = append(overlays, name)
	}
	sort.Strings(overlays)

	labels := make(map[int]string, len(domain.ClassNumbers))
	for _, n := range domain.ClassNumbers {
		labels[n] = domain.ClassLabels[n]
	}

	writeJSON(w, http.StatusOK, metaResponse{
		Title: settings.Title,
		Map: mapView{
			CenterLat: settings.Map.CenterLat,
			CenterLon: settings.Map.CenterLon,
			Zoom:      settings.Map.Zoom,
		},
		Tiers:  settings.Tiers,
		Colors: settings.Colors,
		Bounds: snap.Table.Bounds,
		Dataset: datasetView{
			Source:      snap.Table.Source,
			GeneratedAt: snap.Table.GeneratedAt,
			LoadedAt:    snap.Table.LoadedAt,
			Sites:       len(snap.Table.Sites),
			Dropped:     snap.Table.Dropped,
		},
		ClassLabels:    labels,
		FuelClasses:    domain.FuelClasses(),
		Overlays:       overlays,
		Stations:       len(snap.Stations),
		RoutingEnabled: a.svc.RoutingEnabled(),
		RefreshEnabled: a.svc.RefreshEnabled(),
	})
}

func (a *api) handleSites(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	th, err := parseThresholds(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	classes, err := parseClasses(q.Get("classes"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := a.svc.FilterSites(th, parseClamp(q))
	if err != nil {
		a.writeFilterError(w, err)
		return
	}

	settings := a.svc.Settings()
	sites := make([]siteView, 0, len(res.Sites))
	for _, s := range res.Sites {
		tier := settings.Tiers.TierFor(s.TotalVolume)
		view := siteView{
			SiteNumber:   s.SiteNumber,
			RoadName:     s.RoadName,
			LocationDesc: s.LocationDesc,
			RoadDir:      s.RoadDir,
			Geo:          s.Geo,
			Classes:      s.Classes,
			TotalVolume:  s.TotalVolume,
			MediumTrucks: s.MediumTrucks,
			HeavyTrucks:  s.HeavyTrucks,
			HeavyPercent: s.HeavyPercent,
			Tier:         tier,
			Color:        settings.Colors.ColorFor(tier),
		}
		if len(classes) > 0 {
			count := s.Classes.Combined(classes)
			view.SelectedCount = &count
		}
		sites = append(sites, view)
	}

	resp := sitesResponse{
		Matched:    len(sites),
		Total:      res.Total,
		Thresholds: res.Thresholds,
		Bounds:     res.Bounds,
		Clamped:    res.Clamped,
		Sites:      sites,
	}
	if res.Clamped {
		resp.Message = "thresholds were clamped to the observed data range"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) handleSummary(w http.ResponseWriter, r *http.Request) {
	th, err := parseThresholds(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sum, err := a.svc.Summary(th, parseClamp(r.URL.Query()))
	if err != nil {
		a.writeFilterError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func (a *api) handleStations(w http.ResponseWriter, _ *http.Request) {
	snap := a.svc.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, dashboard.ErrNotLoaded.Error())
		return
	}

	stations := snap.Stations
	if stations == nil {
		stations = []domain.RefuellingStation{}
	}
	writeJSON(w, http.StatusOK, stationsResponse{
		Count:    len(stations),
		Dropped:  snap.StationsDropped,
		Stations: stations,
	})
}

func (a *api) handleOverlay(w http.ResponseWriter, r *http.Request) {
	snap := a.svc.Snapshot()
	if snap == nil {
		writeError(w, http.StatusServiceUnavailable, dashboard.ErrNotLoaded.Error())
		return
	}

	name := r.PathValue("name")
	data, ok := snap.Overlays[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no overlay %q", name))
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write(data)
}

func (a *api) handleClassVolumesChart(w http.ResponseWriter, r *http.Request) {
	a.serveChart(w, r, a.svc.ClassVolumesChart)
}

func (a *api) handleTierShareChart(w http.ResponseWriter, r *http.Request) {
	a.serveChart(w, r, a.svc.TierShareChart)
}

func (a *api) serveChart(w http.ResponseWriter, r *http.Request, render func(domain.Thresholds, bool) ([]byte, error)) {
	th, err := parseThresholds(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	png, err := render(th, parseClamp(r.URL.Query()))
	switch {
	case errors.Is(err, charts.ErrNoData):
		w.WriteHeader(http.StatusNoContent)
	case err != nil:
		a.writeFilterError(w, err)
	default:
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

func (a *api) handleExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	th, err := parseThresholds(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Render into a buffer first so a failed filter still gets a JSON
	// error response instead of a truncated download.
	var buf bytes.Buffer
	if err := a.svc.Export(&buf, th, parseClamp(q), format); err != nil {
		a.writeFilterError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	_, _ = w.Write(buf.Bytes())
}

func (a *api) handleTripFuel(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	siteNumber, err := strconv.Atoi(q.Get("site"))
	if err != nil || siteNumber <= 0 {
		writeError(w, http.StatusBadRequest, "site must be a positive site number")
		return
	}
	destination := strings.TrimSpace(q.Get("destination"))
	if destination == "" {
		writeError(w, http.StatusBadRequest, "destination is required")
		return
	}
	class, err := strconv.Atoi(q.Get("class"))
	if err != nil || !domain.ValidClass(class) {
		writeError(w, http.StatusBadRequest, "class must be a vehicle class between 3 and 10")
		return
	}

	res, err := a.svc.TripFuel(r.Context(), siteNumber, destination, class)
	if err != nil {
		a.writeTripFuelError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tripFuelResponse{
		SiteNumber:      res.Site.SiteNumber,
		RoadName:        res.Site.RoadName,
		Destination:     res.Destination.FormattedAddress,
		DestinationGeo:  res.Destination.Geo,
		VehicleClass:    class,
		ClassLabel:      domain.ClassLabels[class],
		DistanceKm:      res.Estimate.DistanceKm,
		DurationSeconds: res.Leg.DurationSeconds,
		DieselLitres:    res.Estimate.DieselLitres,
		HydrogenKg:      res.Estimate.HydrogenKg,
	})
}

// --- error mapping ---

func (a *api) writeFilterError(w http.ResponseWriter, err error) {
	var rangeErr *domain.InvalidFilterRangeError
	switch {
	case errors.Is(err, dashboard.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &rangeErr):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": rangeErr.Error(),
			"range": rangeErr,
		})
	default:
		a.logger.Error("filter request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (a *api) writeTripFuelError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, dashboard.ErrRoutingDisabled), errors.Is(err, dashboard.ErrNotLoaded):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, dashboard.ErrSiteNotFound),
		errors.Is(err, dashboard.ErrDestinationNotFound),
		errors.Is(err, dashboard.ErrNoRoute):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrNoFuelRate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.Error("trip fuel request failed", "error", err)
		writeError(w, http.StatusBadGateway, "routing provider unavailable")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- query parsing ---

// parseThresholds reads min_volume and min_heavy_pct, defaulting both to
// zero so an unfiltered view is the natural starting state.
func parseThresholds(q url.Values) (domain.Thresholds, error) {
	var th domain.Thresholds
	if v := q.Get("min_volume"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return th, errors.New("min_volume must be a number")
		}
		th.MinVolume = f
	}
	if v := q.Get("min_heavy_pct"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return th, errors.New("min_heavy_pct must be a number")
		}
		th.MinHeavyPct = f
	}
	return th, nil
}

// parseClamp defaults to clamping: the UI pulls out-of-range thresholds
// back to the data bounds and tells the user. clamp=false turns an
// out-of-range threshold into a 400 instead.
func parseClamp(q url.Values) bool {
	return q.Get("clamp") != "false"
}

func parseClasses(raw string) ([]int, error) {
	if raw == "" {
		return nil, nil
	}
	parts := strings.Split(raw, ",")
	classes := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || !domain.ValidClass(n) {
			return nil, fmt.Errorf("classes must list vehicle classes 3-10, got %q", strings.TrimSpace(p))
		}
		classes = append(classes, n)
	}
	return classes, nil
}
