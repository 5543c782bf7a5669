package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadiusM is the mean Earth radius used for every distance and area in this module.
const EarthRadiusM = 6371000.0

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// HaversineKm returns the great-circle distance between two coordinates in kilometers.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	return DistanceM(lat1, lng1, lat2, lng2) / 1000
}

// DistanceM returns the great-circle distance between two coordinates in meters.
func DistanceM(lat1, lng1, lat2, lng2 float64) float64 {
	if lat1 == lat2 && lng1 == lng2 {
		return 0
	}

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// PointDistanceM is DistanceM for orb points (X = longitude, Y = latitude).
func PointDistanceM(a, b orb.Point) float64 {
	return DistanceM(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// PathLengthM sums the great-circle distance between consecutive points.
func PathLengthM(line orb.LineString) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += PointDistanceM(line[i-1], line[i])
	}
	return total
}

// ClosedRing returns the points as a ring whose last point repeats the first.
func ClosedRing(line orb.LineString) orb.Ring {
	ring := make(orb.Ring, len(line), len(line)+1)
	copy(ring, line)
	if len(ring) > 0 && !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring
}
