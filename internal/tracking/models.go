package tracking

import (
	"time"

	"backend-territory/internal/territory"
)

type Session struct {
	ID             string           `json:"id"`
	UserID         string           `json:"user_id"`
	StartedAt      time.Time        `json:"started_at"`
	EndedAt        *time.Time       `json:"ended_at,omitempty"`
	Status         territory.Status `json:"status"`
	TotalDistanceM float64          `json:"total_distance_m"`
	AreaM2         float64          `json:"area_m2"`
	FailureReason  string           `json:"failure_reason,omitempty"`
	ClaimID        string           `json:"claim_id,omitempty"`
}

// State is what clients poll: the persisted session plus the live engine view.
type State struct {
	Session  Session            `json:"session"`
	Snapshot territory.Snapshot `json:"snapshot"`
}

type SampleResponse struct {
	territory.Outcome
	ClaimID string `json:"claim_id,omitempty"`
}

type TrackPoint struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Generation uint64    `json:"generation"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	AccuracyM  float64   `json:"accuracy_m"`
	RecordedAt time.Time `json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

type Summary struct {
	SessionID       string           `json:"session_id"`
	Status          territory.Status `json:"status"`
	PointCount      int              `json:"point_count"`
	DistanceM       float64          `json:"distance_m"`
	AreaM2          float64          `json:"area_m2"`
	DurationSec     int64            `json:"duration_sec"`
	AverageSpeedKmh float64          `json:"average_speed_kmh"`
	FailureReason   string           `json:"failure_reason,omitempty"`
}
