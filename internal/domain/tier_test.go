package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierFor(t *testing.T) {
	tests := []struct {
		name     string
		volume   float64
		expected VolumeTier
	}{
		{"zero volume", 0, TierLow},
		{"just below medium cutoff", 999.99, TierLow},
		{"exactly at medium cutoff", 1000, TierMedium},
		{"between cutoffs", 3200, TierMedium},
		{"just below high cutoff", 4999.99, TierMedium},
		{"exactly at high cutoff", 5000, TierHigh},
		{"far above high cutoff", 125000, TierHigh},
		{"negative volume", -5, TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DefaultBreakpoints.TierFor(tt.volume))
		})
	}
}

func TestTierForCustomBreakpoints(t *testing.T) {
	b := TierBreakpoints{MediumMin: 10, HighMin: 20}

	assert.Equal(t, TierLow, b.TierFor(9.99))
	assert.Equal(t, TierMedium, b.TierFor(10))
	assert.Equal(t, TierHigh, b.TierFor(20))
}

func TestTierBreakpointsValid(t *testing.T) {
	tests := []struct {
		name     string
		b        TierBreakpoints
		expected bool
	}{
		{"defaults", DefaultBreakpoints, true},
		{"zero medium cutoff", TierBreakpoints{MediumMin: 0, HighMin: 100}, true},
		{"equal cutoffs", TierBreakpoints{MediumMin: 100, HighMin: 100}, false},
		{"reversed cutoffs", TierBreakpoints{MediumMin: 5000, HighMin: 1000}, false},
		{"negative medium cutoff", TierBreakpoints{MediumMin: -1, HighMin: 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.b.Valid())
		})
	}
}

func TestTierColors(t *testing.T) {
	assert.Equal(t, "#2ca02c", DefaultTierColors.ColorFor(TierLow))
	assert.Equal(t, "#ff7f0e", DefaultTierColors.ColorFor(TierMedium))
	assert.Equal(t, "#d62728", DefaultTierColors.ColorFor(TierHigh))
}
