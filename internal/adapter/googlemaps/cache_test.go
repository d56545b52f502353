package googlemaps

import (
	"context"
	"testing"

	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingPlanner struct {
	geocodeCalls  int
	distanceCalls int
	geocodeResult domain.GeocodeResult
	leg           domain.RouteLeg
}

func (m *countingPlanner) Geocode(_ context.Context, _ string) (domain.GeocodeResult, error) {
	m.geocodeCalls++
	return m.geocodeResult, nil
}

func (m *countingPlanner) DriveDistance(_ context.Context, _, _ domain.Geo) (domain.RouteLeg, error) {
	m.distanceCalls++
	return m.leg, nil
}

// --- CachedPlanner tests ---

func TestCachedPlanner_GeocodeCacheHit(t *testing.T) {
	inner := &countingPlanner{
		geocodeResult: domain.GeocodeResult{
			Geo:              domain.Geo{Lat: -33.327, Lon: 115.641},
			FormattedAddress: "Bunbury WA, Australia",
		},
	}
	cached := NewCachedPlanner(inner, 10, testMetrics())

	r1, err := cached.Geocode(context.Background(), "Bunbury WA")
	require.NoError(t, err)
	assert.Equal(t, "Bunbury WA, Australia", r1.FormattedAddress)

	r2, err := cached.Geocode(context.Background(), "Bunbury WA")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.geocodeCalls, "should only call inner once")
}

func TestCachedPlanner_DriveDistanceCacheHit(t *testing.T) {
	inner := &countingPlanner{
		leg: domain.RouteLeg{DistanceMeters: 172000, DurationSeconds: 7020},
	}
	cached := NewCachedPlanner(inner, 10, testMetrics())

	origin := domain.Geo{Lat: -31.95, Lon: 115.86}
	dest := domain.Geo{Lat: -33.327, Lon: 115.641}

	l1, err := cached.DriveDistance(context.Background(), origin, dest)
	require.NoError(t, err)

	l2, err := cached.DriveDistance(context.Background(), origin, dest)
	require.NoError(t, err)
	assert.Equal(t, l1, l2)

	assert.Equal(t, 1, inner.distanceCalls, "should only call inner once")
}

func TestCachedPlanner_DifferentKeysMiss(t *testing.T) {
	inner := &countingPlanner{
		geocodeResult: domain.GeocodeResult{FormattedAddress: "somewhere"},
	}
	cached := NewCachedPlanner(inner, 10, testMetrics())

	_, _ = cached.Geocode(context.Background(), "Bunbury WA")
	_, _ = cached.Geocode(context.Background(), "Geraldton WA")

	assert.Equal(t, 2, inner.geocodeCalls)
}

func TestCachedPlanner_EmptyGeocodeNotCached(t *testing.T) {
	inner := &countingPlanner{}
	cached := NewCachedPlanner(inner, 10, testMetrics())

	_, _ = cached.Geocode(context.Background(), "unresolvable")
	_, _ = cached.Geocode(context.Background(), "unresolvable")

	assert.Equal(t, 2, inner.geocodeCalls, "empty results should be retried")
}

func TestCachedPlanner_EmptyLegNotCached(t *testing.T) {
	inner := &countingPlanner{}
	cached := NewCachedPlanner(inner, 10, testMetrics())

	origin := domain.Geo{Lat: -31.95, Lon: 115.86}
	dest := domain.Geo{Lat: -20.31, Lon: 118.60}

	_, _ = cached.DriveDistance(context.Background(), origin, dest)
	_, _ = cached.DriveDistance(context.Background(), origin, dest)

	assert.Equal(t, 2, inner.distanceCalls, "missing routes should be retried")
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache[string](3)

	c.put("a", "A")
	c.put("b", "B")

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", v)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[string](2)

	c.put("a", "A")
	c.put("b", "B")
	c.put("c", "C") // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	v, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", v)

	v, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", v)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache[string](2)

	c.put("a", "A")
	c.put("b", "B")

	// Access "a" to promote it
	c.get("a")

	// Inserting "c" should evict "b" (LRU), not "a"
	c.put("c", "C")

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[string](2)

	c.put("a", "A1")
	c.put("a", "A2")

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", v)
}
