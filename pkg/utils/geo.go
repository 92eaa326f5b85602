package utils

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// NYCBounds covers the five boroughs with a small margin
var NYCBounds = orb.Bound{
	Min: orb.Point{-74.3, 40.5},
	Max: orb.Point{-73.7, 41.0},
}

// GreatCircleDistanceKM returns the haversine distance in kilometers.
// orb uses an earth radius of 6378137 m, the same sphere the models were trained on.
func GreatCircleDistanceKM(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2}) / 1000
}

// BearingDegrees returns the initial compass bearing from point 1 to point 2 in [0, 360)
func BearingDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	b := geo.Bearing(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
	b = math.Mod(b+360, 360)
	if b == 360 {
		return 0
	}
	return b
}

// DirectionDegrees returns the signed angle of the (dlon, dlat) vector in degrees, (-180, 180]
func DirectionDegrees(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Atan2(lat2-lat1, lon2-lon1) * 180 / math.Pi
}

// Midpoint returns the arithmetic midpoint of two coordinates as (lat, lon)
func Midpoint(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	c := orb.MultiPoint{{lon1, lat1}, {lon2, lat2}}.Bound().Center()
	return c.Lat(), c.Lon()
}

// WithinBounds reports whether the coordinate lies inside the bound (edges included)
func WithinBounds(lat, lon float64, b orb.Bound) bool {
	return b.Contains(orb.Point{lon, lat})
}

// RoundTo rounds a float to specified decimal places
func RoundTo(value float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(value*factor) / factor
}
