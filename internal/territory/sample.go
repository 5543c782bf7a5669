package territory

import (
	"time"

	"backend-territory/internal/shared/geo"

	"github.com/paulmach/orb"
)

// LocationSample is one fix reported by the platform location service.
type LocationSample struct {
	TimestampMillis          int64   `json:"timestamp_ms"`
	Latitude                 float64 `json:"lat"`
	Longitude                float64 `json:"lng"`
	HorizontalAccuracyMeters float64 `json:"accuracy_m"`
}

func (s LocationSample) Time() time.Time {
	return time.UnixMilli(s.TimestampMillis)
}

// Point returns the sample as an orb point (X = longitude, Y = latitude).
func (s LocationSample) Point() orb.Point {
	return orb.Point{s.Longitude, s.Latitude}
}

// DistanceTo returns the great-circle distance to other in meters.
func (s LocationSample) DistanceTo(other LocationSample) float64 {
	return geo.DistanceM(s.Latitude, s.Longitude, other.Latitude, other.Longitude)
}

// Path is the ordered boundary of the candidate polygon. It only grows until Reset.
type Path struct {
	samples []LocationSample
}

func (p *Path) Append(s LocationSample) {
	p.samples = append(p.samples, s)
}

func (p *Path) Len() int {
	return len(p.samples)
}

func (p *Path) First() (LocationSample, bool) {
	if len(p.samples) == 0 {
		return LocationSample{}, false
	}
	return p.samples[0], true
}

func (p *Path) Last() (LocationSample, bool) {
	if len(p.samples) == 0 {
		return LocationSample{}, false
	}
	return p.samples[len(p.samples)-1], true
}

// Snapshot returns a copy that later appends cannot disturb.
func (p *Path) Snapshot() []LocationSample {
	out := make([]LocationSample, len(p.samples))
	copy(out, p.samples)
	return out
}

func (p *Path) Reset() {
	p.samples = nil
}

// Points converts samples to an orb line string.
func Points(samples []LocationSample) orb.LineString {
	line := make(orb.LineString, len(samples))
	for i, s := range samples {
		line[i] = s.Point()
	}
	return line
}
