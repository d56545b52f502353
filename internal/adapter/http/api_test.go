package http_test

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type stubPlanner struct {
	geocodeResult domain.GeocodeResult
	geocodeErr    error
	leg           domain.RouteLeg
	legErr        error
}

func (m *stubPlanner) Geocode(_ context.Context, _ string) (domain.GeocodeResult, error) {
	return m.geocodeResult, m.geocodeErr
}

func (m *stubPlanner) DriveDistance(_ context.Context, _, _ domain.Geo) (domain.RouteLeg, error) {
	return m.leg, m.legErr
}

// --- response shapes ---

type siteJSON struct {
	SiteNumber    int      `json:"site_number"`
	RoadName      string   `json:"road_name"`
	TotalVolume   float64  `json:"total_volume"`
	HeavyPct      float64  `json:"heavy_pct"`
	Tier          string   `json:"tier"`
	Color         string   `json:"color"`
	SelectedCount *float64 `json:"selected_count"`
}

type sitesJSON struct {
	Matched    int                 `json:"matched"`
	Total      int                 `json:"total"`
	Thresholds domain.Thresholds   `json:"thresholds"`
	Bounds     domain.FilterBounds `json:"bounds"`
	Clamped    bool                `json:"clamped"`
	Message    string              `json:"message"`
	Sites      []siteJSON          `json:"sites"`
}

// --- meta ---

func TestMetaDescribesDataset(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/meta")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Title string `json:"title"`
		Map   struct {
			CenterLat float64 `json:"center_lat"`
			Zoom      int     `json:"zoom"`
		} `json:"map"`
		Bounds  domain.FilterBounds `json:"bounds"`
		Dataset struct {
			Source  string `json:"source"`
			Sites   int    `json:"sites"`
			Dropped int    `json:"dropped"`
		} `json:"dataset"`
		ClassLabels    map[string]string `json:"class_labels"`
		FuelClasses    []int             `json:"fuel_classes"`
		Overlays       []string          `json:"overlays"`
		Stations       int               `json:"stations"`
		RoutingEnabled bool              `json:"routing_enabled"`
		RefreshEnabled bool              `json:"refresh_enabled"`
	}
	decodeBody(t, rec, &body)

	assert.Equal(t, "WA Heavy Vehicle Traffic Dashboard", body.Title)
	assert.InDelta(t, -31.95, body.Map.CenterLat, 1e-9)
	assert.Equal(t, 6, body.Map.Zoom)
	assert.Equal(t, domain.FilterBounds{MaxVolume: 400, MaxHeavyPct: 20}, body.Bounds)
	assert.Equal(t, "mrwa_traffic_digest_2025.csv", body.Dataset.Source)
	assert.Equal(t, 3, body.Dataset.Sites)
	assert.Equal(t, 0, body.Dataset.Dropped)
	assert.Equal(t, "Six Axle Articulated", body.ClassLabels["9"])
	assert.Equal(t, []int{4, 5, 7, 8, 9, 10}, body.FuelClasses)
	assert.Equal(t, []string{"rail"}, body.Overlays)
	assert.Equal(t, 1, body.Stations)
	assert.False(t, body.RoutingEnabled, "no planner configured")
	assert.False(t, body.RefreshEnabled, "no brokers configured")
}

// --- sites ---

func TestSitesDefaultReturnsAll(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/sites")

	require.Equal(t, http.StatusOK, rec.Code)

	var body sitesJSON
	decodeBody(t, rec, &body)

	require.Equal(t, 3, body.Matched)
	assert.Equal(t, 3, body.Total)
	assert.False(t, body.Clamped)

	numbers := make([]int, 0, len(body.Sites))
	for _, s := range body.Sites {
		numbers = append(numbers, s.SiteNumber)
	}
	assert.Equal(t, []int{1001, 1002, 1003}, numbers, "dataset order is preserved")

	first := body.Sites[0]
	assert.Equal(t, "Great Eastern Hwy", first.RoadName)
	assert.InDelta(t, 50, first.TotalVolume, 1e-9)
	assert.InDelta(t, 5, first.HeavyPct, 1e-9)
	assert.Equal(t, "low", first.Tier)
	assert.Equal(t, "#2ca02c", first.Color)
	assert.Nil(t, first.SelectedCount)
}

func TestSitesThresholdsNarrowTheMatch(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/sites?min_volume=100&min_heavy_pct=10")

	require.Equal(t, http.StatusOK, rec.Code)

	var body sitesJSON
	decodeBody(t, rec, &body)

	require.Equal(t, 1, body.Matched)
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, 1002, body.Sites[0].SiteNumber)
}

func TestSitesClampPullsThresholdBack(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/sites?min_volume=1000")

	require.Equal(t, http.StatusOK, rec.Code)

	var body sitesJSON
	decodeBody(t, rec, &body)

	assert.True(t, body.Clamped)
	assert.NotEmpty(t, body.Message)
	assert.InDelta(t, 400, body.Thresholds.MinVolume, 1e-9, "clamped to the max observed volume")
	require.Equal(t, 1, body.Matched)
	assert.Equal(t, 1003, body.Sites[0].SiteNumber)
}

func TestSitesRejectOutOfRangeWithoutClamp(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/sites?min_volume=1000&clamp=false")

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var body struct {
		Error string `json:"error"`
		Range struct {
			Field string  `json:"field"`
			Value float64 `json:"value"`
			Max   float64 `json:"max"`
		} `json:"range"`
	}
	decodeBody(t, rec, &body)

	assert.NotEmpty(t, body.Error)
	assert.Equal(t, "min_volume", body.Range.Field)
	assert.InDelta(t, 1000, body.Range.Value, 1e-9)
	assert.InDelta(t, 400, body.Range.Max, 1e-9)
}

func TestSitesEmptyMatchIsNotAnError(t *testing.T) {
	// Both thresholds are within bounds but no site satisfies both.
	rec := get(t, newTestServer(t, nil), "/api/sites?min_volume=400&min_heavy_pct=20")

	require.Equal(t, http.StatusOK, rec.Code)

	var body sitesJSON
	decodeBody(t, rec, &body)

	assert.Equal(t, 0, body.Matched)
	assert.False(t, body.Clamped)
	assert.Contains(t, rec.Body.String(), `"sites":[]`, "empty match serializes as an empty array")
}

func TestSitesMalformedThresholdIs400(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/sites?min_volume=lots")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "min_volume must be a number")
}

func TestSitesSelectedClassCounts(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/sites?classes=3,9")

	require.Equal(t, http.StatusOK, rec.Code)

	var body sitesJSON
	decodeBody(t, rec, &body)

	require.Equal(t, 3, body.Matched)
	require.NotNil(t, body.Sites[0].SelectedCount)
	assert.InDelta(t, 47.5, *body.Sites[0].SelectedCount, 1e-9)
	require.NotNil(t, body.Sites[1].SelectedCount)
	assert.InDelta(t, 200, *body.Sites[1].SelectedCount, 1e-9, "class 3 plus class 9 at site 1002")
}

func TestSitesUnknownClassIs400(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/sites?classes=3,11")

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "vehicle classes 3-10")
}

// --- summary, stations, overlays ---

func TestSummaryAggregatesMatchedSites(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/summary")

	require.Equal(t, http.StatusOK, rec.Code)

	var sum domain.Summary
	decodeBody(t, rec, &sum)

	assert.Equal(t, 3, sum.Matched)
	assert.InDelta(t, 650, sum.TotalVolume, 1e-9)
	assert.InDelta(t, 62.5, sum.HeavyTrucks, 1e-9)
	assert.InDelta(t, 9.62, sum.HeavyPercent, 1e-9)
	assert.Equal(t, 3, sum.TierCounts[domain.TierLow])
}

func TestStationsListsLoadedStations(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/stations")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count    int `json:"count"`
		Stations []struct {
			Name      string `json:"name"`
			CityState string `json:"city_state"`
		} `json:"stations"`
	}
	decodeBody(t, rec, &body)

	require.Equal(t, 1, body.Count)
	assert.Equal(t, "Kwinana Hydrogen Hub", body.Stations[0].Name)
	assert.Equal(t, "Kwinana, WA", body.Stations[0].CityState)
}

func TestOverlayServedVerbatim(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/overlays/rail")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))
	assert.Equal(t, railOverlay, rec.Body.String())
}

func TestOverlayUnknownIs404(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/overlays/tramways")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- charts ---

func TestChartsRenderPNG(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, target := range []string{"/api/charts/class-volumes.png", "/api/charts/tier-share.png"} {
		rec := get(t, srv, target)

		require.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG\r\n\x1a\n"), "%s should be a PNG", target)
	}
}

func TestChartsNoMatchesIs204(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/charts/class-volumes.png?min_volume=400&min_heavy_pct=20")

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

// --- export ---

func TestExportFilteredCSV(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/export?min_volume=100&min_heavy_pct=10&format=csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="traffic_data.csv"`, rec.Header().Get("Content-Disposition"))

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2, "header plus exactly one matching site")
	assert.True(t, strings.HasPrefix(lines[0], "site_number,"))
	assert.True(t, strings.HasPrefix(lines[1], "1002,"))
}

func TestExportEmptyMatchStillHasHeader(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/export?min_volume=400&min_heavy_pct=20&format=csv")

	require.Equal(t, http.StatusOK, rec.Code)

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "site_number,"))
}

func TestExportUnknownFormatIs400(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/export?format=xlsx")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported export format")
}

// --- trip fuel ---

func TestTripFuelEstimate(t *testing.T) {
	planner := &stubPlanner{
		geocodeResult: domain.GeocodeResult{
			Geo:              domain.Geo{Lat: -33.327, Lon: 115.640},
			FormattedAddress: "Bunbury WA, Australia",
		},
		leg: domain.RouteLeg{DistanceMeters: 150000, DurationSeconds: 5400},
	}
	rec := get(t, newTestServer(t, planner), "/api/trip-fuel?site=1002&destination=Bunbury&class=9")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SiteNumber      int     `json:"site_number"`
		RoadName        string  `json:"road_name"`
		Destination     string  `json:"destination"`
		VehicleClass    int     `json:"vehicle_class"`
		ClassLabel      string  `json:"class_label"`
		DistanceKm      float64 `json:"distance_km"`
		DurationSeconds int     `json:"duration_seconds"`
		DieselLitres    float64 `json:"diesel_litres"`
		HydrogenKg      float64 `json:"hydrogen_kg"`
	}
	decodeBody(t, rec, &body)

	assert.Equal(t, 1002, body.SiteNumber)
	assert.Equal(t, "Tonkin Hwy", body.RoadName)
	assert.Equal(t, "Bunbury WA, Australia", body.Destination)
	assert.Equal(t, 9, body.VehicleClass)
	assert.Equal(t, "Six Axle Articulated", body.ClassLabel)
	assert.InDelta(t, 150.0, body.DistanceKm, 1e-9)
	assert.Equal(t, 5400, body.DurationSeconds)
	assert.InDelta(t, 57.214935, body.DieselLitres, 1e-9)
	assert.InDelta(t, 57.214935*45.0/120.0, body.HydrogenKg, 1e-9)
}

func TestTripFuelRoutingDisabledIs503(t *testing.T) {
	rec := get(t, newTestServer(t, nil), "/api/trip-fuel?site=1002&destination=Bunbury&class=9")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "not configured")
}

func TestTripFuelUnknownSiteIs404(t *testing.T) {
	planner := &stubPlanner{
		geocodeResult: domain.GeocodeResult{Geo: domain.Geo{Lat: -33.3, Lon: 115.6}, FormattedAddress: "Bunbury WA"},
		leg:           domain.RouteLeg{DistanceMeters: 1000, DurationSeconds: 60},
	}
	rec := get(t, newTestServer(t, planner), "/api/trip-fuel?site=9999&destination=Bunbury&class=9")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTripFuelUnresolvableDestinationIs404(t *testing.T) {
	planner := &stubPlanner{} // empty geocode result
	rec := get(t, newTestServer(t, planner), "/api/trip-fuel?site=1002&destination=Nowhereville&class=9")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTripFuelClassWithoutRateIs400(t *testing.T) {
	planner := &stubPlanner{
		geocodeResult: domain.GeocodeResult{Geo: domain.Geo{Lat: -33.3, Lon: 115.6}, FormattedAddress: "Bunbury WA"},
		leg:           domain.RouteLeg{DistanceMeters: 1000, DurationSeconds: 60},
	}
	rec := get(t, newTestServer(t, planner), "/api/trip-fuel?site=1002&destination=Bunbury&class=6")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no fuel consumption rate")
}

func TestTripFuelBadParamsAre400(t *testing.T) {
	srv := newTestServer(t, &stubPlanner{})

	for name, target := range map[string]string{
		"missing site":        "/api/trip-fuel?destination=Bunbury&class=9",
		"missing destination": "/api/trip-fuel?site=1002&class=9",
		"class out of range":  "/api/trip-fuel?site=1002&destination=Bunbury&class=2",
	} {
		rec := get(t, srv, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}
