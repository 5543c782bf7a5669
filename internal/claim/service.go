package claim

import (
	"context"
	"errors"
	"fmt"

	"backend-territory/internal/db"
	"backend-territory/internal/shared/geo"
	"backend-territory/internal/territory"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
)

var (
	ErrClaimNotValidated = errors.New("claim: path has not passed validation")
	ErrClaimNotFound     = errors.New("claim: not found")
	ErrClaimExists       = errors.New("claim: generation already claimed")
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

// Create stores the candidate's boundary. A session generation can be
// claimed once; a second attempt returns ErrClaimExists.
func (s *Service) Create(ctx context.Context, userID, sessionID string, c territory.Candidate) (Claim, error) {
	if !c.Result.Passed {
		return Claim{}, ErrClaimNotValidated
	}

	cl := Claim{
		ID:             uuid.NewString(),
		SessionID:      sessionID,
		Generation:     c.Generation,
		UserID:         userID,
		Boundary:       orb.Polygon{geo.ClosedRing(territory.Points(c.Path))},
		AreaM2:         c.Result.Area,
		GeodesicAreaM2: c.Result.GeodesicAreaSquareMeters,
		PerimeterM:     c.Result.PathLengthMeters,
		PointCount:     c.Result.PointCount,
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO claims (id, session_id, generation, user_id, boundary, area_m2, geodesic_area_m2, perimeter_m, point_count)
		VALUES ($1,$2,$3,$4,ST_GeogFromText($5),$6,$7,$8,$9)
		ON CONFLICT (session_id, generation) DO NOTHING
		RETURNING created_at
	`, cl.ID, cl.SessionID, int64(cl.Generation), cl.UserID, wkt.MarshalString(cl.Boundary), cl.AreaM2, cl.GeodesicAreaM2, cl.PerimeterM, cl.PointCount)
	if err := row.Scan(&cl.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Claim{}, ErrClaimExists
		}
		return Claim{}, fmt.Errorf("insert claim: %w", err)
	}
	return cl, nil
}

const selectClaim = `
	SELECT id, session_id, generation, user_id, ST_AsText(boundary), area_m2, geodesic_area_m2, perimeter_m, point_count, created_at
	FROM claims`

func (s *Service) Get(ctx context.Context, id string) (Claim, error) {
	row := s.db.QueryRow(ctx, selectClaim+` WHERE id=$1`, id)
	cl, err := scanClaim(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Claim{}, ErrClaimNotFound
	}
	return cl, err
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]Claim, error) {
	return s.queryClaims(ctx, selectClaim+` WHERE user_id=$1 ORDER BY created_at DESC`, userID)
}

// Nearby lists claims whose boundary lies within radiusKm of the point.
func (s *Service) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]Claim, error) {
	return s.queryClaims(ctx, selectClaim+`
	WHERE ST_DWithin(boundary, ST_SetSRID(ST_MakePoint($1,$2), 4326)::geography, $3)
	ORDER BY created_at DESC`, lng, lat, radiusKm*1000)
}

func (s *Service) queryClaims(ctx context.Context, sql string, args ...any) ([]Claim, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	claims := []Claim{}
	for rows.Next() {
		cl, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		claims = append(claims, cl)
	}
	return claims, rows.Err()
}

func scanClaim(row pgx.Row) (Claim, error) {
	var (
		cl         Claim
		generation int64
		boundary   string
	)
	if err := row.Scan(&cl.ID, &cl.SessionID, &generation, &cl.UserID, &boundary, &cl.AreaM2, &cl.GeodesicAreaM2, &cl.PerimeterM, &cl.PointCount, &cl.CreatedAt); err != nil {
		return Claim{}, err
	}
	poly, err := wkt.UnmarshalPolygon(boundary)
	if err != nil {
		return Claim{}, fmt.Errorf("decode boundary of claim %s: %w", cl.ID, err)
	}
	cl.Generation = uint64(generation)
	cl.Boundary = poly
	return cl, nil
}
