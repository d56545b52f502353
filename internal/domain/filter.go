package domain

import "fmt"

// Thresholds are the minimum total volume and heavy-vehicle share a site
// must meet to pass the dashboard filter.
type Thresholds struct {
	MinVolume   float64 `json:"min_volume"`
	MinHeavyPct float64 `json:"min_heavy_pct"`
}

// FilterBounds are the observed dataset maxima thresholds are validated
// against. Precomputed when the dataset loads.
type FilterBounds struct {
	MaxVolume   float64 `json:"max_volume"`
	MaxHeavyPct float64 `json:"max_heavy_pct"`
}

// InvalidFilterRangeError reports a threshold outside the range the loaded
// dataset supports: negative, or above the observed maximum for its measure.
type InvalidFilterRangeError struct {
	Field string  `json:"field"` // "min_volume" or "min_heavy_pct"
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

func (e *InvalidFilterRangeError) Error() string {
	return fmt.Sprintf("%s %g outside valid range [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}

// FilterSites returns the sites whose total volume and heavy-vehicle percent
// both meet the thresholds, preserving input order. The input slice is never
// modified, and equal calls return equal results. Thresholds beyond the
// dataset's observed maxima are accepted and simply match nothing; an empty
// result is a valid result. Use [ValidateThresholds] or [ClampThresholds]
// at the boundary when out-of-range input should be reported instead.
func FilterSites(sites []TrafficSite, th Thresholds) []TrafficSite {
	matched := make([]TrafficSite, 0, len(sites))
	for _, s := range sites {
		if s.TotalVolume >= th.MinVolume && s.HeavyPercent >= th.MinHeavyPct {
			matched = append(matched, s)
		}
	}
	return matched
}

// ValidateThresholds checks both thresholds against the dataset bounds and
// returns an *InvalidFilterRangeError for the first one that is negative or
// above its observed maximum. Returns nil when both are in range.
func ValidateThresholds(th Thresholds, bounds FilterBounds) error {
	if th.MinVolume < 0 || th.MinVolume > bounds.MaxVolume {
		return &InvalidFilterRangeError{Field: "min_volume", Value: th.MinVolume, Max: bounds.MaxVolume}
	}
	if th.MinHeavyPct < 0 || th.MinHeavyPct > bounds.MaxHeavyPct {
		return &InvalidFilterRangeError{Field: "min_heavy_pct", Value: th.MinHeavyPct, Max: bounds.MaxHeavyPct}
	}
	return nil
}

// ClampThresholds snaps each threshold into [0, observed max] and reports
// whether either value changed.
func ClampThresholds(th Thresholds, bounds FilterBounds) (Thresholds, bool) {
	clamped := Thresholds{
		MinVolume:   clampRange(th.MinVolume, 0, bounds.MaxVolume),
		MinHeavyPct: clampRange(th.MinHeavyPct, 0, bounds.MaxHeavyPct),
	}
	return clamped, clamped != th
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
