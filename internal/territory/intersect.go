package territory

import "backend-territory/internal/shared/geo"

// junctionSpan is how many segments at each end of the path form the closing
// junction. Segments on opposite sides of the junction are never compared,
// otherwise the legitimate return to the start reads as a crossing.
const junctionSpan = 2

// SelfIntersects reports whether any two non-adjacent segments of path cross
// (a figure-8). Longitude is X and latitude is Y. Paths with fewer than four
// points cannot cross and are not evaluated.
func SelfIntersects(path []LocationSample) bool {
	if len(path) < 4 {
		return false
	}
	pts := Points(path)
	segments := len(pts) - 1
	if segments < 2 {
		return false
	}

	for i := 0; i < segments; i++ {
		for j := i + 2; j < segments; j++ {
			if i < junctionSpan && j >= segments-junctionSpan {
				continue
			}
			if geo.SegmentsCross(pts[i], pts[i+1], pts[j], pts[j+1]) {
				return true
			}
		}
	}
	return false
}
