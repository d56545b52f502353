package domain

import (
	"errors"
	"fmt"
	"sort"
)

// fuelRates holds diesel consumption in litres per 100 km by vehicle class,
// from the Australian Trucking Association operating-cost survey. Classes 3
// and 6 have no published rate.
var fuelRates = map[int]float64{
	4:  12.45859,
	5:  23.22869,
	7:  27.24712,
	8:  30.44964,
	9:  38.14329,
	10: 41.48179,
}

// hydrogenKgPerDieselLitre converts diesel litres to the hydrogen mass with
// the same energy content, assuming 45 MJ per litre of diesel and 120 MJ
// per kilogram of hydrogen.
const hydrogenKgPerDieselLitre = 45.0 / 120.0

// ErrNoFuelRate is returned when a trip estimate is requested for a vehicle
// class without a published consumption rate.
var ErrNoFuelRate = errors.New("no fuel consumption rate for vehicle class")

// FuelClasses returns the vehicle classes with a published consumption
// rate, ascending.
func FuelClasses() []int {
	classes := make([]int, 0, len(fuelRates))
	for n := range fuelRates {
		classes = append(classes, n)
	}
	sort.Ints(classes)
	return classes
}

// FuelRate returns the diesel consumption rate (L/100km) for a vehicle
// class. ok is false when the class has no published rate.
func FuelRate(class int) (rate float64, ok bool) {
	rate, ok = fuelRates[class]
	return rate, ok
}

// TripFuelEstimate is the fuel consumption for one trip.
type TripFuelEstimate struct {
	DistanceKm   float64 `json:"distance_km"`
	DieselLitres float64 `json:"diesel_litres"`
	HydrogenKg   float64 `json:"hydrogen_kg"`
}

// EstimateTripFuel computes diesel litres (distance/100 × class rate) and
// the hydrogen-equivalent mass for a trip of the given road distance.
// Returns ErrNoFuelRate when the class has no published rate.
func EstimateTripFuel(distanceKm float64, class int) (TripFuelEstimate, error) {
	rate, ok := fuelRates[class]
	if !ok {
		return TripFuelEstimate{}, fmt.Errorf("%w %d", ErrNoFuelRate, class)
	}
	litres := distanceKm / 100 * rate
	return TripFuelEstimate{
		DistanceKm:   distanceKm,
		DieselLitres: litres,
		HydrogenKg:   litres * hydrogenKgPerDieselLitre,
	}, nil
}
