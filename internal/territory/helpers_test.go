package territory

import (
	"math"
	"sync"

	"backend-territory/internal/shared/geo"
)

const (
	baseLat = 52.52
	baseLng = 13.405
)

var metersPerDegree = geo.EarthRadiusM * math.Pi / 180

// fix builds a sample east/north meters away from the base point, tSec
// seconds after the epoch used by the tests.
func fix(east, north, tSec, accuracy float64) LocationSample {
	return LocationSample{
		TimestampMillis:          1_700_000_000_000 + int64(tSec*1000),
		Latitude:                 baseLat + north/metersPerDegree,
		Longitude:                baseLng + east/(metersPerDegree*math.Cos(baseLat*math.Pi/180)),
		HorizontalAccuracyMeters: accuracy,
	}
}

// octagon is a closed walk of 11 fixes, each 10 m from the previous one.
// The last fix repeats the first.
func octagon() []LocationSample {
	d := 10 / math.Sqrt2
	corners := [][2]float64{
		{0, 0}, {10, 0}, {20, 0},
		{20 + d, d}, {20 + d, 10 + d},
		{20, 10 + 2*d}, {10, 10 + 2*d}, {0, 10 + 2*d},
		{-d, 10 + d}, {-d, d},
		{0, 0},
	}
	out := make([]LocationSample, len(corners))
	for i, c := range corners {
		out[i] = fix(c[0], c[1], float64(i*10), 5)
	}
	return out
}

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) Emit(ev Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []EventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

func (l *eventLog) count(kind EventKind) int {
	n := 0
	for _, k := range l.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}
