// Package geo holds the small amount of spherical geometry the gateway
// needs: facility distances are never provider-supplied, they are
// computed locally from the query point.
package geo

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371

// HaversineKm returns the great-circle distance in kilometers between
// two coordinate pairs.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// FormatDistance renders a distance in km as "123 m" below one
// kilometer and "N.N km" otherwise.
func FormatDistance(km float64) string {
	if km < 1 {
		return fmt.Sprintf("%.0f m", km*1000)
	}
	return fmt.Sprintf("%.1f km", km)
}
