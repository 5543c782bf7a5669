package territory

import "backend-territory/internal/shared/geo"

// Measurements are the geometric facts about one path.
//
// AreaSquareMeters uses the spherical shoelace approximation, which is what
// validation is judged on. GeodesicAreaSquareMeters is the s2 spherical
// polygon area of the same vertices; it is reported so the two can be
// compared and never decides pass or fail.
type Measurements struct {
	PointCount               int     `json:"point_count"`
	PathLengthMeters         float64 `json:"path_length_m"`
	AreaSquareMeters         float64 `json:"area_m2"`
	GeodesicAreaSquareMeters float64 `json:"geodesic_area_m2"`
}

func Measure(path []LocationSample) Measurements {
	pts := Points(path)
	return Measurements{
		PointCount:               len(path),
		PathLengthMeters:         geo.PathLengthM(pts),
		AreaSquareMeters:         geo.SphericalAreaM2(pts),
		GeodesicAreaSquareMeters: geo.GeodesicAreaM2(pts),
	}
}
