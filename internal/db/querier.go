package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier represents the minimal database operations used by services.
// Both *pgxpool.Pool and pgxmock pools satisfy this interface.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Schema creates the tables the territory services read and write.
const Schema = `
CREATE EXTENSION IF NOT EXISTS postgis;

CREATE TABLE IF NOT EXISTS track_sessions (
	id               UUID PRIMARY KEY,
	user_id          TEXT NOT NULL,
	started_at       TIMESTAMPTZ NOT NULL,
	ended_at         TIMESTAMPTZ,
	status           TEXT NOT NULL,
	total_distance_m DOUBLE PRECISION,
	area_m2          DOUBLE PRECISION,
	failure_reason   TEXT
);

CREATE TABLE IF NOT EXISTS track_points (
	id           BIGSERIAL PRIMARY KEY,
	session_id   UUID NOT NULL REFERENCES track_sessions(id) ON DELETE CASCADE,
	generation   BIGINT NOT NULL,
	location     GEOGRAPHY(POINT, 4326) NOT NULL,
	accuracy_m   DOUBLE PRECISION NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS claims (
	id               UUID PRIMARY KEY,
	session_id       UUID NOT NULL REFERENCES track_sessions(id),
	generation       BIGINT NOT NULL,
	user_id          TEXT NOT NULL,
	boundary         GEOGRAPHY(POLYGON, 4326) NOT NULL,
	area_m2          DOUBLE PRECISION NOT NULL,
	geodesic_area_m2 DOUBLE PRECISION NOT NULL,
	perimeter_m      DOUBLE PRECISION NOT NULL,
	point_count      INT NOT NULL,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (session_id, generation)
);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, q Querier) error {
	_, err := q.Exec(ctx, Schema)
	return err
}
