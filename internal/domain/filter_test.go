package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trafficFixture returns the three-site table used across the filter tests:
// volumes 50/200/10 with heavy shares 5/20/1 percent.
func trafficFixture() []TrafficSite {
	return []TrafficSite{
		{SiteNumber: 1, RoadName: "Great Northern Hwy", TotalVolume: 50, HeavyPercent: 5},
		{SiteNumber: 2, RoadName: "Tonkin Hwy", TotalVolume: 200, HeavyPercent: 20},
		{SiteNumber: 3, RoadName: "Albany Hwy", TotalVolume: 10, HeavyPercent: 1},
	}
}

// varietyFixture is a larger table with duplicates and extremes for the
// filter property tests.
func varietyFixture() []TrafficSite {
	return []TrafficSite{
		{SiteNumber: 101, TotalVolume: 0, HeavyPercent: 0},
		{SiteNumber: 102, TotalVolume: 25, HeavyPercent: 80},
		{SiteNumber: 103, TotalVolume: 50, HeavyPercent: 5},
		{SiteNumber: 104, TotalVolume: 200, HeavyPercent: 20},
		{SiteNumber: 105, TotalVolume: 200, HeavyPercent: 20},
		{SiteNumber: 106, TotalVolume: 1250, HeavyPercent: 42.5},
		{SiteNumber: 107, TotalVolume: 5000, HeavyPercent: 12.25},
		{SiteNumber: 108, TotalVolume: 9800, HeavyPercent: 33.33},
	}
}

func TestFilterSites(t *testing.T) {
	sites := trafficFixture()

	t.Run("both thresholds", func(t *testing.T) {
		matched := FilterSites(sites, Thresholds{MinVolume: 100, MinHeavyPct: 10})

		require.Len(t, matched, 1)
		assert.Equal(t, 2, matched[0].SiteNumber)
	})

	t.Run("zero thresholds return every site", func(t *testing.T) {
		matched := FilterSites(sites, Thresholds{})

		assert.Equal(t, sites, matched)
	})

	t.Run("threshold above observed max matches nothing", func(t *testing.T) {
		matched := FilterSites(sites, Thresholds{MinVolume: 1000})

		assert.NotNil(t, matched)
		assert.Empty(t, matched)
	})

	t.Run("volume threshold only", func(t *testing.T) {
		matched := FilterSites(sites, Thresholds{MinVolume: 50})

		require.Len(t, matched, 2)
		assert.Equal(t, 1, matched[0].SiteNumber)
		assert.Equal(t, 2, matched[1].SiteNumber)
	})

	t.Run("heavy percent threshold only", func(t *testing.T) {
		matched := FilterSites(sites, Thresholds{MinHeavyPct: 5})

		require.Len(t, matched, 2)
		assert.Equal(t, 1, matched[0].SiteNumber)
		assert.Equal(t, 2, matched[1].SiteNumber)
	})

	t.Run("threshold equal to a site's value matches it", func(t *testing.T) {
		matched := FilterSites(sites, Thresholds{MinVolume: 200, MinHeavyPct: 20})

		require.Len(t, matched, 1)
		assert.Equal(t, 2, matched[0].SiteNumber)
	})

	t.Run("input is not modified", func(t *testing.T) {
		before := trafficFixture()
		FilterSites(sites, Thresholds{MinVolume: 100, MinHeavyPct: 10})

		assert.Equal(t, before, sites)
	})

	t.Run("empty input", func(t *testing.T) {
		matched := FilterSites(nil, Thresholds{MinVolume: 100})

		assert.Empty(t, matched)
	})
}

// thresholdGrid covers in-range, boundary, and beyond-observed-max values
// for the property tests below.
var thresholdGrid = []Thresholds{
	{MinVolume: 0, MinHeavyPct: 0},
	{MinVolume: 25, MinHeavyPct: 0},
	{MinVolume: 0, MinHeavyPct: 5},
	{MinVolume: 50, MinHeavyPct: 5},
	{MinVolume: 100, MinHeavyPct: 10},
	{MinVolume: 200, MinHeavyPct: 20},
	{MinVolume: 1250, MinHeavyPct: 42.5},
	{MinVolume: 5000, MinHeavyPct: 12.25},
	{MinVolume: 20000, MinHeavyPct: 0},
	{MinVolume: 0, MinHeavyPct: 200},
}

// assertOrderedSubsequence checks that sub contains a subset of full's
// sites in full's order.
func assertOrderedSubsequence(t *testing.T, sub, full []TrafficSite) {
	t.Helper()

	i := 0
	for _, s := range full {
		if i < len(sub) && sub[i].SiteNumber == s.SiteNumber {
			i++
		}
	}
	assert.Equal(t, len(sub), i, "filtered sites must appear in input order")
}

func TestFilterSitesProperties(t *testing.T) {
	sites := varietyFixture()

	t.Run("result is an ordered subsequence of the input", func(t *testing.T) {
		for _, th := range thresholdGrid {
			assertOrderedSubsequence(t, FilterSites(sites, th), sites)
		}
	})

	t.Run("every returned site satisfies both thresholds", func(t *testing.T) {
		for _, th := range thresholdGrid {
			for _, s := range FilterSites(sites, th) {
				assert.GreaterOrEqual(t, s.TotalVolume, th.MinVolume)
				assert.GreaterOrEqual(t, s.HeavyPercent, th.MinHeavyPct)
			}
		}
	})

	t.Run("every excluded site violates a threshold", func(t *testing.T) {
		for _, th := range thresholdGrid {
			matched := make(map[int]bool)
			for _, s := range FilterSites(sites, th) {
				matched[s.SiteNumber] = true
			}
			for _, s := range sites {
				if matched[s.SiteNumber] {
					continue
				}
				assert.True(t, s.TotalVolume < th.MinVolume || s.HeavyPercent < th.MinHeavyPct,
					"site %d excluded without violating a threshold", s.SiteNumber)
			}
		}
	})

	t.Run("filtering twice changes nothing", func(t *testing.T) {
		for _, th := range thresholdGrid {
			once := FilterSites(sites, th)
			twice := FilterSites(once, th)
			assert.Equal(t, once, twice)
		}
	})

	t.Run("raising a threshold never grows the result", func(t *testing.T) {
		for _, th := range thresholdGrid {
			base := FilterSites(sites, th)

			higherVolume := FilterSites(sites, Thresholds{MinVolume: th.MinVolume + 100, MinHeavyPct: th.MinHeavyPct})
			assert.LessOrEqual(t, len(higherVolume), len(base))
			assertOrderedSubsequence(t, higherVolume, base)

			higherPct := FilterSites(sites, Thresholds{MinVolume: th.MinVolume, MinHeavyPct: th.MinHeavyPct + 5})
			assert.LessOrEqual(t, len(higherPct), len(base))
			assertOrderedSubsequence(t, higherPct, base)
		}
	})
}

func TestValidateThresholds(t *testing.T) {
	bounds := FilterBounds{MaxVolume: 9800, MaxHeavyPct: 80}

	tests := []struct {
		name  string
		th    Thresholds
		field string // empty means valid
	}{
		{"zero thresholds", Thresholds{}, ""},
		{"in range", Thresholds{MinVolume: 100, MinHeavyPct: 10}, ""},
		{"at the maxima", Thresholds{MinVolume: 9800, MinHeavyPct: 80}, ""},
		{"negative volume", Thresholds{MinVolume: -1}, "min_volume"},
		{"volume above max", Thresholds{MinVolume: 9801}, "min_volume"},
		{"negative heavy percent", Thresholds{MinHeavyPct: -0.5}, "min_heavy_pct"},
		{"heavy percent above max", Thresholds{MinHeavyPct: 80.5}, "min_heavy_pct"},
		{"both invalid reports volume first", Thresholds{MinVolume: -1, MinHeavyPct: -1}, "min_volume"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateThresholds(tt.th, bounds)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}

			var rangeErr *InvalidFilterRangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, tt.field, rangeErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("error carries the valid range", func(t *testing.T) {
		err := ValidateThresholds(Thresholds{MinVolume: 10000}, bounds)

		var rangeErr *InvalidFilterRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, 10000.0, rangeErr.Value)
		assert.Equal(t, 0.0, rangeErr.Min)
		assert.Equal(t, 9800.0, rangeErr.Max)
	})
}

func TestClampThresholds(t *testing.T) {
	bounds := FilterBounds{MaxVolume: 200, MaxHeavyPct: 20}

	tests := []struct {
		name     string
		th       Thresholds
		expected Thresholds
		changed  bool
	}{
		{"in range untouched", Thresholds{MinVolume: 100, MinHeavyPct: 10}, Thresholds{MinVolume: 100, MinHeavyPct: 10}, false},
		{"zero untouched", Thresholds{}, Thresholds{}, false},
		{"negative snaps to zero", Thresholds{MinVolume: -50, MinHeavyPct: -1}, Thresholds{}, true},
		{"above max snaps down", Thresholds{MinVolume: 1000, MinHeavyPct: 99}, Thresholds{MinVolume: 200, MinHeavyPct: 20}, true},
		{"one of two clamped", Thresholds{MinVolume: 150, MinHeavyPct: 21}, Thresholds{MinVolume: 150, MinHeavyPct: 20}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clamped, changed := ClampThresholds(tt.th, bounds)

			assert.Equal(t, tt.expected, clamped)
			assert.Equal(t, tt.changed, changed)
		})
	}

	t.Run("clamped thresholds always validate", func(t *testing.T) {
		for _, th := range thresholdGrid {
			clamped, _ := ClampThresholds(th, bounds)
			assert.NoError(t, ValidateThresholds(clamped, bounds))
		}
	})
}
