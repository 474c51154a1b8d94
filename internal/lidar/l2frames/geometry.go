package l2frames

import (
	"math"

	"github.com/golang/geo/r3"
)

// SphericalToCartesian converts distance (meters), azimuth (degrees) and
// elevation (degrees) into Cartesian sensor-frame coordinates.
// Coordinate convention: X=right, Y=forward, Z=up.
func SphericalToCartesian(distance, azimuthDeg, elevationDeg float64) r3.Vector {
	azimuthRad := azimuthDeg * math.Pi / 180.0
	elevationRad := elevationDeg * math.Pi / 180.0

	cosElevation := math.Cos(elevationRad)
	return r3.Vector{
		X: distance * cosElevation * math.Sin(azimuthRad),
		Y: distance * cosElevation * math.Cos(azimuthRad),
		Z: distance * math.Sin(elevationRad),
	}
}

// AzimuthOf returns the azimuth in degrees [0, 360) of a sensor-frame point,
// inverting SphericalToCartesian's convention.
func AzimuthOf(v r3.Vector) float64 {
	az := math.Atan2(v.X, v.Y) * 180 / math.Pi
	if az < 0 {
		az += 360
	}
	return az
}
