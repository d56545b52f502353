package domain

// VolumeTier buckets a site's total volume for map marker coloring.
type VolumeTier string

const (
	TierLow    VolumeTier = "low"
	TierMedium VolumeTier = "medium"
	TierHigh   VolumeTier = "high"
)

// TierBreakpoints are the fixed volume cutoffs between tiers. A volume
// below MediumMin is low, below HighMin is medium, anything else is high,
// so a volume equal to a breakpoint lands in the higher tier.
type TierBreakpoints struct {
	MediumMin float64 `json:"medium_min" yaml:"medium_min"`
	HighMin   float64 `json:"high_min" yaml:"high_min"`
}

// DefaultBreakpoints are the cutoffs used when the settings file does not
// override them: medium from 1,000 vehicles/day, high from 5,000.
var DefaultBreakpoints = TierBreakpoints{MediumMin: 1000, HighMin: 5000}

// Valid reports whether the breakpoints are ordered: 0 ≤ MediumMin < HighMin.
func (b TierBreakpoints) Valid() bool {
	return b.MediumMin >= 0 && b.MediumMin < b.HighMin
}

// TierFor maps a total volume to its tier. Every volume maps to exactly
// one tier.
func (b TierBreakpoints) TierFor(volume float64) VolumeTier {
	switch {
	case volume < b.MediumMin:
		return TierLow
	case volume < b.HighMin:
		return TierMedium
	default:
		return TierHigh
	}
}

// TierColors maps each tier to its map marker color.
type TierColors struct {
	Low    string `json:"low" yaml:"low"`
	Medium string `json:"medium" yaml:"medium"`
	High   string `json:"high" yaml:"high"`
}

// DefaultTierColors is the green/orange/red palette used when the settings
// file does not override it.
var DefaultTierColors = TierColors{Low: "#2ca02c", Medium: "#ff7f0e", High: "#d62728"}

// ColorFor returns the marker color for a tier.
func (c TierColors) ColorFor(t VolumeTier) string {
	switch t {
	case TierLow:
		return c.Low
	case TierMedium:
		return c.Medium
	default:
		return c.High
	}
}
