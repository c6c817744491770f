package geo

import (
	"math"

	"service-dispatch/internal/domain"
)

// EarthRadiusMeters is the mean spherical Earth radius used by Distance.
const EarthRadiusMeters = 6371000.0

// Unreachable is returned when a coordinate is missing or invalid (NaN included),
// so the candidate sorts last.
var Unreachable = math.Inf(1)

// Distance returns the haversine great-circle distance between a and b in meters.
func Distance(a, b *domain.Location) float64 {
	if a == nil || b == nil || !a.Valid() || !b.Valid() {
		return Unreachable
	}
	phi1 := radians(a.Latitude)
	phi2 := radians(b.Latitude)
	dPhi := radians(b.Latitude - a.Latitude)
	dLambda := radians(b.Longitude - a.Longitude)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusMeters * c
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
