package geo

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// SphericalAreaM2 computes the enclosed area of a polygon with the spherical
// shoelace approximation:
//
//	|Σ (lon2 − lon1)(2 + sin lat1 + sin lat2)| · R² / 2
//
// wrapping the last point back to the first. It is accurate at walking scale
// (sub-kilometer) and is not a true geodesic polygon area.
func SphericalAreaM2(points []orb.Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		cur := points[i]
		next := points[(i+1)%n]
		sum += toRad(next.Lon()-cur.Lon()) *
			(2 + math.Sin(toRad(cur.Lat())) + math.Sin(toRad(next.Lat())))
	}
	return math.Abs(sum) * EarthRadiusM * EarthRadiusM / 2
}

// GeodesicAreaM2 measures the same polygon as an s2 loop on the unit sphere.
// Orientation does not matter; the loop is normalized to the smaller side.
// A repeated closing vertex is ignored.
func GeodesicAreaM2(points []orb.Point) float64 {
	if len(points) > 1 && points[0] == points[len(points)-1] {
		points = points[:len(points)-1]
	}
	if len(points) < 3 {
		return 0
	}

	vertices := make([]s2.Point, 0, len(points))
	for _, p := range points {
		vertices = append(vertices, s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon())))
	}
	loop := s2.LoopFromPoints(vertices)
	loop.Normalize()
	return loop.Area() * EarthRadiusM * EarthRadiusM
}
