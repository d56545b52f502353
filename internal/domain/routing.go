package domain

import "context"

// GeocodeResult is a destination resolved by the routing provider.
type GeocodeResult struct {
	Geo              Geo
	FormattedAddress string
}

// RouteLeg is a driving distance and duration between two points.
type RouteLeg struct {
	DistanceMeters  int
	DurationSeconds int
}

// RoutePlanner resolves destinations and road distances for trip fuel
// estimates.
type RoutePlanner interface {
	// Geocode resolves a free-text destination to coordinates.
	Geocode(ctx context.Context, address string) (GeocodeResult, error)

	// DriveDistance returns the road distance and duration between two
	// coordinate pairs.
	DriveDistance(ctx context.Context, origin, dest Geo) (RouteLeg, error)
}
