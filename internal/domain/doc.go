// Package domain models Main Roads Western Australia heavy-vehicle traffic
// survey data.
//
// # Data Source
//
// Site statistics originate from Main Roads WA traffic survey exports,
// published as long-form CSV (one row per site, direction, and vehicle
// class). cmd/genstats aggregates those rows per site and class into
// site_statistics.json, which the dashboard loads at startup and serves
// read-only.
//
// # Vehicle Classification
//
// Counts follow the Austroads 1994 vehicle classification. Classes 1-2
// (short vehicles) are excluded from the survey extracts; the dashboard
// carries classes 3-10:
//
//	Class 3   Two Axle Truck or Bus    rigid
//	Class 4   Three Axle Truck or Bus  rigid
//	Class 5   Four Axle Truck          rigid
//	Class 6   Three Axle Articulated   articulated
//	Class 7   Four Axle Articulated    articulated
//	Class 8   Five Axle Articulated    articulated
//	Class 9   Six Axle Articulated     articulated
//	Class 10  B-Double                 combination
//
// Counts are annual average daily traffic and may be fractional.
//
// # Derived Volumes
//
// Each site carries four aggregates computed once at load time:
//
//	TotalVolume  = sum of classes 3-10
//	MediumTrucks = sum of classes 3-5 (rigid trucks)
//	HeavyTrucks  = sum of classes 6-10 (articulated and combination)
//	HeavyPercent = HeavyTrucks / TotalVolume × 100, rounded to two
//	               decimals, 0 when TotalVolume is 0
//
// TotalVolume and HeavyPercent are the two measures the dashboard filter
// operates on. See [FilterSites].
//
// # Volume Tiers
//
// Map markers are colored by bucketing TotalVolume against fixed
// breakpoints (configurable, defaults below). A volume equal to a
// breakpoint lands in the higher tier:
//
//	low     < 1,000 vehicles/day    green
//	medium  < 5,000 vehicles/day    orange
//	high    ≥ 5,000 vehicles/day    red
//
// Fixed breakpoints make a site's color a function of its own volume alone,
// stable across dataset revisions. See [TierBreakpoints.TierFor].
//
// # Fuel Estimation
//
// Trip fuel estimates apply per-class diesel consumption rates (L/100km)
// to a road distance obtained from the routing provider. Classes 3 and 6
// have no published rate and are rejected. The hydrogen-equivalent mass
// assumes 45 MJ per litre of diesel against 120 MJ per kilogram of
// hydrogen. See [EstimateTripFuel].
package domain
