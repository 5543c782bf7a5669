package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversineKm(t *testing.T) {
	// Jakarta (-6.2, 106.816) to Bandung (-6.9175, 107.6191) ~ 115-120 km
	d := HaversineKm(-6.2, 106.816, -6.9175, 107.6191)
	if d < 100 || d > 140 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestDistanceMSamePoint(t *testing.T) {
	if d := DistanceM(1.5, 2.5, 1.5, 2.5); d != 0 {
		t.Fatalf("expected zero distance, got %v", d)
	}
}

func TestDistanceMOneMilliDegree(t *testing.T) {
	// 0.001 degree of latitude is ~111.19 m on a 6371 km sphere.
	d := DistanceM(0, 0, 0.001, 0)
	if math.Abs(d-111.19) > 0.1 {
		t.Fatalf("unexpected distance: %v", d)
	}
}

func TestPathLengthM(t *testing.T) {
	line := orb.LineString{{0, 0}, {0, 0.001}, {0.001, 0.001}}
	got := PathLengthM(line)
	if math.Abs(got-222.39) > 0.2 {
		t.Fatalf("unexpected length: %v", got)
	}
	if PathLengthM(orb.LineString{{1, 1}}) != 0 {
		t.Fatalf("expected zero length for one point")
	}
}

func TestClosedRing(t *testing.T) {
	line := orb.LineString{{0, 0}, {1, 0}, {1, 1}}
	ring := ClosedRing(line)
	if len(ring) != 4 || ring[3] != ring[0] {
		t.Fatalf("expected closed ring, got %v", ring)
	}
	if len(line) != 3 {
		t.Fatalf("input mutated")
	}

	again := ClosedRing(orb.LineString(ring))
	if len(again) != 4 {
		t.Fatalf("closed ring should not grow, got %d", len(again))
	}
}

func TestSphericalAreaSquareAtEquator(t *testing.T) {
	square := []orb.Point{{0, 0}, {0.001, 0}, {0.001, 0.001}, {0, 0.001}}
	side := DistanceM(0, 0, 0.001, 0)
	want := side * side

	got := SphericalAreaM2(square)
	if math.Abs(got-want)/want > 0.05 {
		t.Fatalf("area %v not within 5%% of %v", got, want)
	}

	reversed := []orb.Point{square[3], square[2], square[1], square[0]}
	if math.Abs(SphericalAreaM2(reversed)-got) > 1e-6 {
		t.Fatalf("area should not depend on winding")
	}
}

func TestSphericalAreaDegenerate(t *testing.T) {
	if SphericalAreaM2([]orb.Point{{0, 0}, {1, 1}}) != 0 {
		t.Fatalf("expected zero area for two points")
	}
}

func TestGeodesicAreaAgreesAtWalkingScale(t *testing.T) {
	square := []orb.Point{{13.4, 52.5}, {13.4015, 52.5}, {13.4015, 52.501}, {13.4, 52.501}}
	shoelace := SphericalAreaM2(square)
	geodesic := GeodesicAreaM2(square)
	if math.Abs(shoelace-geodesic)/geodesic > 0.01 {
		t.Fatalf("shoelace %v diverges from geodesic %v", shoelace, geodesic)
	}

	closed := append(append([]orb.Point{}, square...), square[0])
	if math.Abs(GeodesicAreaM2(closed)-geodesic) > 1e-6 {
		t.Fatalf("closing vertex changed the area")
	}

	clockwise := []orb.Point{square[0], square[3], square[2], square[1]}
	if math.Abs(GeodesicAreaM2(clockwise)-geodesic) > 1e-3 {
		t.Fatalf("clockwise loop should normalize to the same area")
	}
}

func TestSegmentsCross(t *testing.T) {
	if !SegmentsCross(orb.Point{0, 0}, orb.Point{2, 2}, orb.Point{0, 2}, orb.Point{2, 0}) {
		t.Fatalf("expected X segments to cross")
	}
	if SegmentsCross(orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{0, 1}, orb.Point{1, 1}) {
		t.Fatalf("parallel segments should not cross")
	}
	if SegmentsCross(orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{2, 2}, orb.Point{3, 0}) {
		t.Fatalf("disjoint segments should not cross")
	}
}

func TestCCW(t *testing.T) {
	if !CCW(orb.Point{0, 0}, orb.Point{1, 0}, orb.Point{1, 1}) {
		t.Fatalf("expected counter-clockwise turn")
	}
	if CCW(orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{1, 0}) {
		t.Fatalf("expected clockwise turn")
	}
	if CCW(orb.Point{0, 0}, orb.Point{1, 1}, orb.Point{2, 2}) {
		t.Fatalf("collinear points are not counter-clockwise")
	}
}
