package tracking

import (
	"context"
	"errors"
	"time"

	"backend-territory/internal/territory"

	"github.com/jackc/pgx/v5"
)

// Summary reads the persisted record, so it also works for sessions that
// are no longer live on this instance.
func (s *Service) Summary(ctx context.Context, sessionID string) (Summary, error) {
	var (
		startedAt time.Time
		endedAt   time.Time
		status    string
		summary   Summary
	)
	row := s.db.QueryRow(ctx, `
		SELECT id, started_at, COALESCE(ended_at, now()), status, COALESCE(total_distance_m,0), COALESCE(area_m2,0), COALESCE(failure_reason,'')
		FROM track_sessions WHERE id=$1
	`, sessionID)
	err := row.Scan(&summary.SessionID, &startedAt, &endedAt, &status, &summary.DistanceM, &summary.AreaM2, &summary.FailureReason)
	if errors.Is(err, pgx.ErrNoRows) {
		return Summary{}, ErrSessionNotFound
	}
	if err != nil {
		return Summary{}, err
	}
	summary.Status = territory.Status(status)

	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM track_points WHERE session_id=$1`, sessionID).Scan(&summary.PointCount); err != nil {
		return Summary{}, err
	}

	duration := endedAt.Sub(startedAt)
	summary.DurationSec = int64(duration.Seconds())
	if duration.Seconds() > 0 {
		summary.AverageSpeedKmh = summary.DistanceM / duration.Seconds() * 3.6
	}
	return summary, nil
}

// Points lists every stored fix of the session, oldest generation first.
func (s *Service) Points(ctx context.Context, sessionID string) ([]TrackPoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, generation, ST_Y(location::geometry), ST_X(location::geometry), accuracy_m, recorded_at, created_at
		FROM track_points WHERE session_id=$1
		ORDER BY generation, recorded_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := []TrackPoint{}
	for rows.Next() {
		var (
			p   TrackPoint
			gen int64
		)
		if err := rows.Scan(&p.ID, &p.SessionID, &gen, &p.Lat, &p.Lng, &p.AccuracyM, &p.RecordedAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Generation = uint64(gen)
		points = append(points, p)
	}
	return points, rows.Err()
}
