package domain

// ClassTotal is the combined count for one vehicle class across a set of
// sites.
type ClassTotal struct {
	Class int     `json:"class"`
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

// Summary aggregates a filtered set of sites for the info panel and charts.
type Summary struct {
	Matched      int                `json:"matched"`
	TotalSites   int                `json:"total_sites"`
	TotalVolume  float64            `json:"total_volume"`
	MediumTrucks float64            `json:"medium_trucks"`
	HeavyTrucks  float64            `json:"heavy_trucks"`
	HeavyPercent float64            `json:"heavy_percent"`
	ClassTotals  []ClassTotal       `json:"class_totals"`
	TierCounts   map[VolumeTier]int `json:"tier_counts"`
}

// Summarize computes per-class totals, aggregate volumes, and tier counts
// across the given sites. totalSites is the size of the unfiltered table
// the sites were drawn from. ClassTotals always covers classes 3-10 in
// order, zero totals included, so charts keep a stable axis.
func Summarize(sites []TrafficSite, totalSites int, breakpoints TierBreakpoints) Summary {
	s := Summary{
		Matched:    len(sites),
		TotalSites: totalSites,
		TierCounts: map[VolumeTier]int{TierLow: 0, TierMedium: 0, TierHigh: 0},
	}

	byClass := make(map[int]float64, len(ClassNumbers))
	for _, site := range sites {
		for _, n := range ClassNumbers {
			byClass[n] += site.Classes.ForClass(n)
		}
		s.TotalVolume += site.TotalVolume
		s.MediumTrucks += site.MediumTrucks
		s.HeavyTrucks += site.HeavyTrucks
		s.TierCounts[breakpoints.TierFor(site.TotalVolume)]++
	}

	s.ClassTotals = make([]ClassTotal, 0, len(ClassNumbers))
	for _, n := range ClassNumbers {
		s.ClassTotals = append(s.ClassTotals, ClassTotal{
			Class: n,
			Label: ClassLabels[n],
			Total: byClass[n],
		})
	}

	if s.TotalVolume > 0 {
		s.HeavyPercent = round2(s.HeavyTrucks / s.TotalVolume * 100)
	}
	return s
}
