package geo

import "github.com/paulmach/orb"

// CCW reports whether p, q, r turn counter-clockwise, with X = longitude and
// Y = latitude. Collinear points are not counter-clockwise.
func CCW(p, q, r orb.Point) bool {
	return (r[1]-p[1])*(q[0]-p[0])-(q[1]-p[1])*(r[0]-p[0]) > 0
}

// SegmentsCross reports whether segment ab crosses segment cd.
func SegmentsCross(a, b, c, d orb.Point) bool {
	return CCW(a, c, d) != CCW(b, c, d) && CCW(a, b, c) != CCW(a, b, d)
}
