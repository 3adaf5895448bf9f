// Package reward computes points and CO2 savings for eco actions, donations and orders.
package reward

import "math"

const (
	maxRideKm      = 50.0
	maxRidePoints  = 280.0
	co2PerKm       = 0.21
	earthRadiusMtr = 6371e3
)

// BikePoints converts a ride distance into points. Distances are clamped to 50 km and the
// result to 280 points. The 5-10 km band is steeper than the tail, so 9.9 km earns more than 10 km.
func BikePoints(distanceKm float64) int64 {
	d := math.Min(distanceKm, maxRideKm)

	var points float64
	switch {
	case d >= 10:
		points = 80 + (d-10)*5
	case d >= 5:
		points = 35 + (d-5)*11
	case d >= 3:
		points = 18 + (d-3)*8.5
	case d >= 1:
		points = 6 + (d-1)*6
	}
	if points > maxRidePoints {
		points = maxRidePoints
	}
	return int64(math.Floor(points))
}

// BikeCarbonSave returns kg of CO2 saved, rounded to two decimals.
func BikeCarbonSave(distanceKm float64) float64 {
	if distanceKm <= 0 {
		return 0
	}
	return round2(math.Min(distanceKm, maxRideKm) * co2PerKm)
}

// Distance is the haversine distance between two coordinates in metres.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }
	p1, p2 := toRad(lat1), toRad(lat2)
	dp := toRad(lat2 - lat1)
	dl := toRad(lng2 - lng1)

	a := math.Pow(math.Sin(dp/2), 2) + math.Cos(p1)*math.Cos(p2)*math.Pow(math.Sin(dl/2), 2)
	return earthRadiusMtr * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// ActionPoints prices a catalogue eco action (e.g. bottles recycled).
func ActionPoints(quantity, pointUnit float64) int64 {
	if quantity <= 0 || pointUnit <= 0 {
		return 0
	}
	return int64(math.Floor(quantity * pointUnit))
}

// ActionCarbon is the CO2 counterpart of ActionPoints.
func ActionCarbon(quantity, carbonUnit float64) float64 {
	if quantity <= 0 || carbonUnit <= 0 {
		return 0
	}
	return round2(quantity * carbonUnit)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
