package geo

import (
	"math"
	"sort"
)

const earthRadiusKm = 6371.0

// Distance returns the great-circle distance in kilometers between two
// WGS84 coordinates.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Locatable is anything that exposes a coordinate pair.
type Locatable interface {
	Coordinates() (lat, lon float64)
}

// SortByDistance orders items nearest-first relative to the given origin.
// The sort is stable so equally distant items keep their original order.
func SortByDistance[T Locatable](items []T, lat, lon float64) {
	sort.SliceStable(items, func(i, j int) bool {
		iLat, iLon := items[i].Coordinates()
		jLat, jLon := items[j].Coordinates()
		return Distance(lat, lon, iLat, iLon) < Distance(lat, lon, jLat, jLon)
	})
}
