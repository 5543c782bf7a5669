package territory

// SampleFilter drops fixes that have not moved far enough from the last
// accepted one. This is what keeps GPS jitter at rest out of the path.
type SampleFilter struct {
	MinimumDistanceMeters float64
}

// Accept reports whether s should continue down the pipeline. With no
// previous sample the fix becomes the start point and is always accepted.
func (f SampleFilter) Accept(last *LocationSample, s LocationSample) (bool, float64) {
	if last == nil {
		return true, 0
	}
	d := last.DistanceTo(s)
	return d >= f.MinimumDistanceMeters, d
}
