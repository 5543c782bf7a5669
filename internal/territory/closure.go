package territory

// ClosureDetector decides when the walk has come back to its start.
type ClosureDetector struct {
	MinimumPathPoints      int
	ClosureThresholdMeters float64
}

// Check returns whether path is closed and the current gap between its last
// and first fix. Paths shorter than MinimumPathPoints never close.
func (d ClosureDetector) Check(path []LocationSample) (bool, float64) {
	if len(path) == 0 {
		return false, 0
	}
	gap := path[len(path)-1].DistanceTo(path[0])
	if len(path) < d.MinimumPathPoints {
		return false, gap
	}
	return gap <= d.ClosureThresholdMeters, gap
}
