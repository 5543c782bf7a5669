package tracking

import (
	"errors"
	"io"
	"log"
	"math"
	"testing"
	"time"

	"backend-territory/internal/claim"
	"backend-territory/internal/shared/geo"
	"backend-territory/internal/stream"
	"backend-territory/internal/territory"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/redis/go-redis/v9"
)

var errTrack = errors.New("track error")

const (
	baseLat = 52.52
	baseLng = 13.405
)

var metersPerDegree = geo.EarthRadiusM * math.Pi / 180

func fix(east, north, tSec float64) territory.LocationSample {
	return territory.LocationSample{
		TimestampMillis:          1_700_000_000_000 + int64(tSec*1000),
		Latitude:                 baseLat + north/metersPerDegree,
		Longitude:                baseLng + east/(metersPerDegree*math.Cos(baseLat*math.Pi/180)),
		HorizontalAccuracyMeters: 5,
	}
}

// loop is a closed walk whose tenth fix lands 10 m from the first.
func loop() []territory.LocationSample {
	d := 10 / math.Sqrt2
	corners := [][2]float64{
		{0, 0}, {10, 0}, {20, 0},
		{20 + d, d}, {20 + d, 10 + d},
		{20, 10 + 2*d}, {10, 10 + 2*d}, {0, 10 + 2*d},
		{-d, 10 + d}, {-d, d},
	}
	out := make([]territory.LocationSample, len(corners))
	for i, c := range corners {
		out[i] = fix(c[0], c[1], float64(i*10))
	}
	return out
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func newTestService(mock pgxmock.PgxPoolIface, hub *stream.Hub, cache *redis.Client) *Service {
	return newServiceWith(mock, hub, cache, Options{})
}

func newServiceWith(mock pgxmock.PgxPoolIface, hub *stream.Hub, cache *redis.Client, opts Options) *Service {
	opts.Logger = log.New(io.Discard, "", 0)
	return NewService(mock, hub, claim.NewService(mock), cache, opts)
}

func expectStart(mock pgxmock.PgxPoolIface) {
	expectStartAs(mock, "user-1")
}

func expectStartAs(mock pgxmock.PgxPoolIface, userID string) {
	mock.ExpectQuery(`INSERT INTO track_sessions`).
		WithArgs(pgxmock.AnyArg(), userID, pgxmock.AnyArg(), "tracking").
		WillReturnRows(pgxmock.NewRows([]string{"started_at"}).AddRow(time.Now()))
}

func expectClaim(mock pgxmock.PgxPoolIface, sessionID string, err error) {
	q := mock.ExpectQuery(`INSERT INTO claims`).
		WithArgs(pgxmock.AnyArg(), sessionID, int64(1), "user-1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), 10)
	if err != nil {
		q.WillReturnError(err)
		return
	}
	q.WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))
}

func expectPoint(mock pgxmock.PgxPoolIface, sessionID string, generation int64) {
	mock.ExpectExec(`INSERT INTO track_points`).
		WithArgs(sessionID, generation, pgxmock.AnyArg(), pgxmock.AnyArg(), 5.0, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
}

func expectStatus(mock pgxmock.PgxPoolIface, sessionID string, status territory.Status, failure string) {
	mock.ExpectExec(`UPDATE track_sessions`).
		WithArgs(sessionID, string(status), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), failure).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
}
