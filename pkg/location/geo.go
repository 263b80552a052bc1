package location

import "math"

// EarthRadiusMiles is the mean Earth radius used by DistanceTo.
const EarthRadiusMiles = 3959.0

// DistanceTo returns the great-circle distance in miles between p and other
// using the haversine formula. Coordinates are not range checked here.
func (p Point) DistanceTo(other Point) float64 {
	dLat := toRadians(other.Lat - p.Lat)
	dLon := toRadians(other.Lon - p.Lon)
	lat1 := toRadians(p.Lat)
	lat2 := toRadians(other.Lat)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
