package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/freightlens/truck-traffic-dashboard/internal/observability"
)

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Client implements domain.RoutePlanner using the Google Maps Geocoding
// and Distance Matrix APIs.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Google Maps routing client.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://maps.googleapis.com/maps/api",
		logger:  logger,
		metrics: metrics,
	}
}

// Geocode resolves a free-text destination to coordinates. A destination
// Google cannot resolve returns an empty result, not an error.
func (c *Client) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	params := url.Values{
		"address": {address},
		"region":  {"au"},
		"key":     {c.apiKey},
	}

	var gr geocodeResponse
	if err := c.get(ctx, c.baseURL+"/geocode/json?"+params.Encode(), "geocode", &gr); err != nil {
		return domain.GeocodeResult{}, err
	}

	switch gr.Status {
	case statusOK:
	case statusZeroResults:
		return domain.GeocodeResult{}, nil
	default:
		return domain.GeocodeResult{}, fmt.Errorf("geocode status %s: %s", gr.Status, gr.ErrorMessage)
	}
	if len(gr.Results) == 0 {
		return domain.GeocodeResult{}, nil
	}

	r := gr.Results[0]
	return domain.GeocodeResult{
		Geo:              domain.Geo{Lat: r.Geometry.Location.Lat, Lon: r.Geometry.Location.Lng},
		FormattedAddress: r.FormattedAddress,
	}, nil
}

// DriveDistance returns the road distance between two points. A pair with
// no drivable route returns an empty leg, not an error.
func (c *Client) DriveDistance(ctx context.Context, origin, dest domain.Geo) (domain.RouteLeg, error) {
	params := url.Values{
		"origins":      {fmt.Sprintf("%.6f,%.6f", origin.Lat, origin.Lon)},
		"destinations": {fmt.Sprintf("%.6f,%.6f", dest.Lat, dest.Lon)},
		"mode":         {"driving"},
		"key":          {c.apiKey},
	}

	var mr matrixResponse
	if err := c.get(ctx, c.baseURL+"/distancematrix/json?"+params.Encode(), "distance", &mr); err != nil {
		return domain.RouteLeg{}, err
	}

	if mr.Status != statusOK {
		return domain.RouteLeg{}, fmt.Errorf("distance matrix status %s: %s", mr.Status, mr.ErrorMessage)
	}
	if len(mr.Rows) == 0 || len(mr.Rows[0].Elements) == 0 {
		return domain.RouteLeg{}, nil
	}

	el := mr.Rows[0].Elements[0]
	if el.Status != statusOK {
		// NOT_FOUND and ZERO_RESULTS mean no road route exists.
		return domain.RouteLeg{}, nil
	}
	return domain.RouteLeg{
		DistanceMeters:  el.Distance.Value,
		DurationSeconds: el.Duration.Value,
	}, nil
}

func (c *Client) get(ctx context.Context, fullURL, method string, out any) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RoutingRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("%s request: %w", method, err)
	}
	defer resp.Body.Close()
	c.metrics.RoutingAPIDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.metrics.RoutingRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("google maps API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.RoutingRequests.WithLabelValues(method, "error").Inc()
		return fmt.Errorf("decode response: %w", err)
	}

	c.metrics.RoutingRequests.WithLabelValues(method, "ok").Inc()
	return nil
}

// Google Maps API response types.

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string   `json:"formatted_address"`
	Geometry         geometry `json:"geometry"`
}

type geometry struct {
	Location latLng `json:"location"`
}

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type matrixResponse struct {
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
	Rows         []matrixRow `json:"rows"`
}

type matrixRow struct {
	Elements []matrixElement `json:"elements"`
}

type matrixElement struct {
	Status   string      `json:"status"`
	Distance metricValue `json:"distance"`
	Duration metricValue `json:"duration"`
}

type metricValue struct {
	Value int    `json:"value"`
	Text  string `json:"text"`
}
