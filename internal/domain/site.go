package domain

import "math"

// ClassNumbers lists the Austroads vehicle classes carried by the survey
// extracts, ascending. Classes 1-2 (short vehicles) are not surveyed.
var ClassNumbers = []int{3, 4, 5, 6, 7, 8, 9, 10}

// ClassLabels maps each class number to its Austroads vehicle type label.
var ClassLabels = map[int]string{
	3:  "Two Axle Truck or Bus",
	4:  "Three Axle Truck or Bus",
	5:  "Four Axle Truck",
	6:  "Three Axle Articulated",
	7:  "Four Axle Articulated",
	8:  "Five Axle Articulated",
	9:  "Six Axle Articulated",
	10: "B-Double",
}

// ValidClass reports whether n is a vehicle class carried by the dataset.
func ValidClass(n int) bool {
	return n >= 3 && n <= 10
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ClassCounts holds the per-class daily vehicle counts for one site.
type ClassCounts struct {
	Class3  float64 `json:"class_3"`
	Class4  float64 `json:"class_4"`
	Class5  float64 `json:"class_5"`
	Class6  float64 `json:"class_6"`
	Class7  float64 `json:"class_7"`
	Class8  float64 `json:"class_8"`
	Class9  float64 `json:"class_9"`
	Class10 float64 `json:"class_10"`
}

// ForClass returns the count for a single class, 0 for classes outside 3-10.
func (c ClassCounts) ForClass(n int) float64 {
	switch n {
	case 3:
		return c.Class3
	case 4:
		return c.Class4
	case 5:
		return c.Class5
	case 6:
		return c.Class6
	case 7:
		return c.Class7
	case 8:
		return c.Class8
	case 9:
		return c.Class9
	case 10:
		return c.Class10
	default:
		return 0
	}
}

// AddClass adds v to the count for class n. Classes outside 3-10 are
// ignored.
func (c *ClassCounts) AddClass(n int, v float64) {
	switch n {
	case 3:
		c.Class3 += v
	case 4:
		c.Class4 += v
	case 5:
		c.Class5 += v
	case 6:
		c.Class6 += v
	case 7:
		c.Class7 += v
	case 8:
		c.Class8 += v
	case 9:
		c.Class9 += v
	case 10:
		c.Class10 += v
	}
}

// Total returns the combined count across all classes.
func (c ClassCounts) Total() float64 {
	return c.Class3 + c.Class4 + c.Class5 + c.Class6 + c.Class7 + c.Class8 + c.Class9 + c.Class10
}

// Medium returns the combined count for the rigid-truck classes 3-5.
func (c ClassCounts) Medium() float64 {
	return c.Class3 + c.Class4 + c.Class5
}

// Heavy returns the combined count for the articulated classes 6-10.
func (c ClassCounts) Heavy() float64 {
	return c.Class6 + c.Class7 + c.Class8 + c.Class9 + c.Class10
}

// HeavyPercent returns heavy vehicles as a percentage of the total count,
// rounded to two decimals. Returns 0 when the total is 0.
func (c ClassCounts) HeavyPercent() float64 {
	total := c.Total()
	if total == 0 {
		return 0
	}
	return round2(c.Heavy() / total * 100)
}

// Combined returns the sum of the counts for the selected classes. Classes
// outside 3-10 contribute nothing.
func (c ClassCounts) Combined(classes []int) float64 {
	var sum float64
	for _, n := range classes {
		sum += c.ForClass(n)
	}
	return sum
}

// TrafficSite is one survey site with its per-class counts and the volume
// aggregates derived from them.
type TrafficSite struct {
	SiteNumber   int         `json:"site_number"`
	RoadName     string      `json:"road_name"`
	LocationDesc string      `json:"location_desc,omitempty"`
	RoadDir      string      `json:"road_dir,omitempty"`
	Geo          Geo         `json:"geo"`
	Classes      ClassCounts `json:"classes"`

	// Derived from Classes at load time.
	TotalVolume  float64 `json:"total_volume"`
	MediumTrucks float64 `json:"medium_trucks"`
	HeavyTrucks  float64 `json:"heavy_trucks"`
	HeavyPercent float64 `json:"heavy_percent"`
}

// WithDerived returns a copy of the site with the volume aggregates
// recomputed from its class counts.
func (s TrafficSite) WithDerived() TrafficSite {
	s.TotalVolume = s.Classes.Total()
	s.MediumTrucks = s.Classes.Medium()
	s.HeavyTrucks = s.Classes.Heavy()
	s.HeavyPercent = s.Classes.HeavyPercent()
	return s
}

// round2 rounds to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
