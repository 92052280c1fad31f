package geospatial

import "math"

// EarthRadiusMeters is the IUGG mean radius.
const EarthRadiusMeters = 6_371_008.8

// Haversine returns the great-circle distance in meters between two WGS 84
// coordinates given in degrees. Antipodal rounding is clamped so the result
// never exceeds half the circumference.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	h := hav(phi2-phi1) + math.Cos(phi1)*math.Cos(phi2)*hav(radians(lon2-lon1))
	h = math.Min(math.Max(h, 0), 1)
	return 2 * EarthRadiusMeters * math.Asin(math.Sqrt(h))
}

func hav(theta float64) float64 {
	s := math.Sin(theta / 2)
	return s * s
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }
