package territory

// Metrics are the inputs the validator judges.
type Metrics struct {
	PointCount       int
	PathLengthMeters float64
	SelfIntersects   bool
	AreaSquareMeters float64
}

// ValidationResult is produced once per closure.
type ValidationResult struct {
	Passed  bool     `json:"passed"`
	Failure *Failure `json:"failure,omitempty"`
	Area    float64  `json:"area_m2"`

	PointCount               int     `json:"point_count"`
	PathLengthMeters         float64 `json:"path_length_m"`
	GeodesicAreaSquareMeters float64 `json:"geodesic_area_m2"`
	SelfIntersects           bool    `json:"self_intersects"`
}

type Validator struct {
	MinimumPathPoints          int
	MinimumTotalDistanceMeters float64
	MinimumAreaSquareMeters    float64
}

func NewValidator(cfg Config) Validator {
	return Validator{
		MinimumPathPoints:          cfg.MinimumPathPoints,
		MinimumTotalDistanceMeters: cfg.MinimumTotalDistanceMeters,
		MinimumAreaSquareMeters:    cfg.MinimumAreaSquareMeters,
	}
}

// Validate applies the checks in order; the first failure wins.
func (v Validator) Validate(m Metrics) ValidationResult {
	res := ValidationResult{
		Area:             m.AreaSquareMeters,
		PointCount:       m.PointCount,
		PathLengthMeters: m.PathLengthMeters,
		SelfIntersects:   m.SelfIntersects,
	}

	switch {
	case m.PointCount < v.MinimumPathPoints:
		res.Failure = newFailure(FailureTooFewPoints, float64(m.PointCount), float64(v.MinimumPathPoints))
	case m.PathLengthMeters < v.MinimumTotalDistanceMeters:
		res.Failure = newFailure(FailureDistanceTooShort, m.PathLengthMeters, v.MinimumTotalDistanceMeters)
	case m.SelfIntersects:
		res.Failure = newFailure(FailureSelfIntersecting, 1, 0)
	case m.AreaSquareMeters < v.MinimumAreaSquareMeters:
		res.Failure = newFailure(FailureAreaTooSmall, m.AreaSquareMeters, v.MinimumAreaSquareMeters)
	default:
		res.Passed = true
	}
	return res
}

// Evaluate runs geometry, intersection and validation over a closed path.
func Evaluate(path []LocationSample, cfg Config) ValidationResult {
	m := Measure(path)
	res := NewValidator(cfg).Validate(Metrics{
		PointCount:       m.PointCount,
		PathLengthMeters: m.PathLengthMeters,
		SelfIntersects:   SelfIntersects(path),
		AreaSquareMeters: m.AreaSquareMeters,
	})
	res.GeodesicAreaSquareMeters = m.GeodesicAreaSquareMeters
	return res
}
