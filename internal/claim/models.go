package claim

import (
	"time"

	"github.com/paulmach/orb"
)

// Claim is a validated closed walk stored as territory.
type Claim struct {
	ID             string      `json:"id"`
	SessionID      string      `json:"session_id"`
	Generation     uint64      `json:"generation"`
	UserID         string      `json:"user_id"`
	Boundary       orb.Polygon `json:"boundary"`
	AreaM2         float64     `json:"area_m2"`
	GeodesicAreaM2 float64     `json:"geodesic_area_m2"`
	PerimeterM     float64     `json:"perimeter_m"`
	PointCount     int         `json:"point_count"`
	CreatedAt      time.Time   `json:"created_at"`
}
