package googlemaps

import (
	"context"
	"fmt"
	"sync"

	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/freightlens/truck-traffic-dashboard/internal/observability"
)

// CachedPlanner wraps a RoutePlanner with in-memory LRU caches. Site
// coordinates never change between dataset reloads and destinations
// repeat heavily, so most lookups never reach the Google Maps API.
type CachedPlanner struct {
	inner    domain.RoutePlanner
	geocodes *lruCache[domain.GeocodeResult]
	routes   *lruCache[domain.RouteLeg]
	metrics  *observability.Metrics
}

// NewCachedPlanner creates a cache decorator around a route planner.
// Each lookup kind gets its own cache of maxEntries entries.
func NewCachedPlanner(inner domain.RoutePlanner, maxEntries int, metrics *observability.Metrics) *CachedPlanner {
	return &CachedPlanner{
		inner:    inner,
		geocodes: newLRUCache[domain.GeocodeResult](maxEntries),
		routes:   newLRUCache[domain.RouteLeg](maxEntries),
		metrics:  metrics,
	}
}

func (c *CachedPlanner) Geocode(ctx context.Context, address string) (domain.GeocodeResult, error) {
	if result, ok := c.geocodes.get(address); ok {
		c.metrics.RoutingCache.WithLabelValues("geocode", "hit").Inc()
		return result, nil
	}
	c.metrics.RoutingCache.WithLabelValues("geocode", "miss").Inc()

	result, err := c.inner.Geocode(ctx, address)
	if err != nil {
		return result, err
	}
	// Only cache resolved destinations so transient "not found" responses
	// can be retried.
	if result.FormattedAddress != "" {
		c.geocodes.put(address, result)
	}
	return result, nil
}

func (c *CachedPlanner) DriveDistance(ctx context.Context, origin, dest domain.Geo) (domain.RouteLeg, error) {
	key := fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", origin.Lat, origin.Lon, dest.Lat, dest.Lon)
	if leg, ok := c.routes.get(key); ok {
		c.metrics.RoutingCache.WithLabelValues("distance", "hit").Inc()
		return leg, nil
	}
	c.metrics.RoutingCache.WithLabelValues("distance", "miss").Inc()

	leg, err := c.inner.DriveDistance(ctx, origin, dest)
	if err != nil {
		return leg, err
	}
	if leg.DistanceMeters > 0 {
		c.routes.put(key, leg)
	}
	return leg, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
