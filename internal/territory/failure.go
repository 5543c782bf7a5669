package territory

import "fmt"

// FailureKind names why a session or a closed path was refused.
type FailureKind string

const (
	FailureTooFewPoints       FailureKind = "too_few_points"
	FailureDistanceTooShort   FailureKind = "distance_too_short"
	FailureSelfIntersecting   FailureKind = "self_intersecting"
	FailureAreaTooSmall       FailureKind = "area_too_small"
	FailureSustainedOverspeed FailureKind = "sustained_overspeed"
)

// Failure carries the metric that failed and the threshold it was held to.
type Failure struct {
	Kind      FailureKind `json:"kind"`
	Value     float64     `json:"value"`
	Threshold float64     `json:"threshold"`
	Message   string      `json:"message"`
}

func (f *Failure) Error() string {
	return f.Message
}

func newFailure(kind FailureKind, value, threshold float64) *Failure {
	f := &Failure{Kind: kind, Value: value, Threshold: threshold}
	switch kind {
	case FailureTooFewPoints:
		f.Message = fmt.Sprintf("path has %d points, need at least %d", int(value), int(threshold))
	case FailureDistanceTooShort:
		f.Message = fmt.Sprintf("walked %.1fm, need at least %.0fm", value, threshold)
	case FailureSelfIntersecting:
		f.Message = "path crosses itself"
	case FailureAreaTooSmall:
		f.Message = fmt.Sprintf("enclosed area is %.1fm², need at least %.0fm²", value, threshold)
	case FailureSustainedOverspeed:
		f.Message = fmt.Sprintf("moved at %.1fkm/h for too long, limit is %.0fkm/h", value, threshold)
	default:
		f.Message = string(kind)
	}
	return f
}

// RejectReason explains why a fix was dropped without ending the session.
type RejectReason string

const (
	RejectNone            RejectReason = ""
	RejectNotTracking     RejectReason = "not_tracking"
	RejectTooClose        RejectReason = "too_close"
	RejectInaccurate      RejectReason = "inaccurate"
	RejectStaleTimestamp  RejectReason = "stale_timestamp"
	RejectJump            RejectReason = "gps_jump"
	RejectOverspeed       RejectReason = "overspeed"
	RejectUnreliableSpeed RejectReason = "unreliable_speed"
)
