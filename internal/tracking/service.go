package tracking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"backend-territory/internal/claim"
	"backend-territory/internal/db"
	"backend-territory/internal/stream"
	"backend-territory/internal/territory"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrSessionNotFound = errors.New("tracking: session not found")
	ErrNotTracking     = errors.New("tracking: session is not tracking")
	ErrForbidden       = errors.New("tracking: session belongs to another user")
)

const defaultSnapshotTTL = time.Hour

type Options struct {
	Engine      territory.Config
	SnapshotTTL time.Duration
	Logger      *log.Logger
	// VerboseEvents also logs every accepted sample.
	VerboseEvents bool
	// ManualTick leaves the overspeed countdown to clients calling Tick.
	// Run then only settles and evicts sessions.
	ManualTick bool
}

// Service owns the live sessions of this instance. Each session runs its own
// claiming engine; the database holds the durable record and Redis a short
// lived copy of the last state for clients polling another instance.
type Service struct {
	db     db.Querier
	hub    *stream.Hub
	claims *claim.Service
	cache  *redis.Client
	opts   Options
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

type liveSession struct {
	engine *territory.Engine

	mu         sync.Mutex
	session    Session
	generation uint64
	claimed    map[uint64]string
	settledAt  time.Time
	lastActive time.Time
}

func NewService(db db.Querier, hub *stream.Hub, claims *claim.Service, cache *redis.Client, opts Options) *Service {
	if opts.SnapshotTTL <= 0 {
		opts.SnapshotTTL = defaultSnapshotTTL
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Engine == (territory.Config{}) {
		opts.Engine = territory.DefaultConfig()
	}
	return &Service{
		db:       db,
		hub:      hub,
		claims:   claims,
		cache:    cache,
		opts:     opts,
		now:      time.Now,
		sessions: map[string]*liveSession{},
	}
}

func (s *Service) StartSession(ctx context.Context, userID string) (Session, error) {
	session := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartedAt: s.now(),
		Status:    territory.StatusTracking,
	}

	logSink := territory.NewLogSink(s.opts.Logger, "session "+session.ID+" ")
	logSink.Verbose = s.opts.VerboseEvents
	sinks := territory.MultiSink{logSink}
	if s.hub != nil {
		sinks = append(sinks, s.hub.Sink(session.ID))
	}
	engine, err := territory.NewEngine(s.opts.Engine, territory.WithSink(sinks), territory.WithClock(s.now))
	if err != nil {
		return Session{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO track_sessions (id, user_id, started_at, status)
		VALUES ($1,$2,$3,$4)
		RETURNING started_at
	`, session.ID, session.UserID, session.StartedAt, string(session.Status))
	if err := row.Scan(&session.StartedAt); err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}

	engine.StartTracking()
	ls := &liveSession{
		engine:     engine,
		session:    session,
		generation: engine.Generation(),
		claimed:    map[uint64]string{},
		lastActive: s.now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = ls
	s.mu.Unlock()

	s.cacheState(ctx, ls.state())
	return session, nil
}

// AddSample feeds one fix to the session's engine. Accepted fixes are
// stored; a passed closure is saved as a claim before it returns.
func (s *Service) AddSample(ctx context.Context, sessionID string, sample territory.LocationSample) (SampleResponse, error) {
	ls, err := s.live(sessionID)
	if err != nil {
		return SampleResponse{}, err
	}

	s.touch(ls)
	out := ls.engine.HandleSample(sample)
	resp := SampleResponse{Outcome: out}
	if out.Reason == territory.RejectNotTracking {
		if err := s.settle(ctx, ls); err != nil {
			return resp, err
		}
		return resp, ErrNotTracking
	}

	if out.Accepted {
		_, err := s.db.Exec(ctx, `
			INSERT INTO track_points (session_id, generation, location, accuracy_m, recorded_at)
			VALUES ($1, $2, ST_SetSRID(ST_MakePoint($3,$4), 4326)::geography, $5, $6)
		`, sessionID, int64(out.Generation), sample.Longitude, sample.Latitude, sample.HorizontalAccuracyMeters, sample.Time())
		if err != nil {
			return resp, fmt.Errorf("insert track point: %w", err)
		}
	}

	if err := s.settle(ctx, ls); err != nil {
		return resp, err
	}
	if out.Closed {
		ls.mu.Lock()
		resp.ClaimID = ls.session.ClaimID
		ls.mu.Unlock()
	}
	return resp, nil
}

// Tick advances the session's overspeed countdown by one second.
func (s *Service) Tick(ctx context.Context, sessionID string, now time.Time) (State, error) {
	ls, err := s.live(sessionID)
	if err != nil {
		return State{}, err
	}
	s.touch(ls)
	ls.engine.Tick(now)
	if err := s.settle(ctx, ls); err != nil {
		return State{}, err
	}
	return ls.state(), nil
}

// ManualTick reports whether clients drive the countdown through Tick.
func (s *Service) ManualTick() bool {
	return s.opts.ManualTick
}

// TickAll ticks every tracking session unless ticking is manual, stops
// sessions idle for longer than the snapshot TTL, retries unsaved status
// changes and claims, and evicts sessions that have been settled for longer
// than the snapshot TTL.
func (s *Service) TickAll(ctx context.Context, now time.Time) {
	s.mu.RLock()
	live := make(map[string]*liveSession, len(s.sessions))
	for id, ls := range s.sessions {
		live[id] = ls
	}
	s.mu.RUnlock()

	for id, ls := range live {
		if ls.engine.Status() == territory.StatusTracking {
			ls.mu.Lock()
			lastActive := ls.lastActive
			ls.mu.Unlock()
			switch {
			case now.Sub(lastActive) > s.opts.SnapshotTTL:
				s.opts.Logger.Printf("session %s idle since %s, stopping", id, lastActive.Format(time.RFC3339))
				ls.engine.StopTracking()
			case !s.opts.ManualTick:
				ls.engine.Tick(now)
			}
		}

		if s.unsettled(ls) {
			if err := s.settle(ctx, ls); err != nil {
				s.opts.Logger.Printf("settle session %s: %v", id, err)
				continue
			}
		}

		if ls.engine.Status() == territory.StatusTracking {
			continue
		}
		ls.mu.Lock()
		expired := !ls.settledAt.IsZero() && now.Sub(ls.settledAt) > s.opts.SnapshotTTL
		ls.mu.Unlock()
		if expired {
			s.mu.Lock()
			delete(s.sessions, id)
			s.mu.Unlock()
		}
	}
}

// Run drives TickAll until ctx is done. A non-positive interval sweeps once
// a second.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.TickAll(ctx, now)
		}
	}
}

// StopSession is idempotent; stopping a finished session changes nothing.
func (s *Service) StopSession(ctx context.Context, sessionID string) (State, error) {
	ls, err := s.live(sessionID)
	if err != nil {
		return State{}, err
	}
	s.touch(ls)
	ls.engine.StopTracking()
	if err := s.settle(ctx, ls); err != nil {
		return State{}, err
	}
	return ls.state(), nil
}

// RestartSession discards the current walk and starts a new generation on
// the same session.
func (s *Service) RestartSession(ctx context.Context, sessionID string) (State, error) {
	ls, err := s.live(sessionID)
	if err != nil {
		return State{}, err
	}
	s.touch(ls)
	ls.engine.StartTracking()
	ls.mu.Lock()
	ls.session.ClaimID = ""
	ls.mu.Unlock()
	if err := s.settle(ctx, ls); err != nil {
		return State{}, err
	}
	return ls.state(), nil
}

// State returns the live state, or the cached copy written by whichever
// instance last handled the session.
func (s *Service) State(ctx context.Context, sessionID string) (State, error) {
	if ls, err := s.live(sessionID); err == nil {
		return ls.state(), nil
	}
	if s.cache == nil {
		return State{}, ErrSessionNotFound
	}

	raw, err := s.cache.Get(ctx, cacheKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, ErrSessionNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("read cached state: %w", err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, fmt.Errorf("decode cached state: %w", err)
	}
	return st, nil
}

func (s *Service) Path(sessionID string) ([]territory.LocationSample, error) {
	ls, err := s.live(sessionID)
	if err != nil {
		return nil, err
	}
	return ls.engine.CurrentPath(), nil
}

func (s *Service) Validation(sessionID string) (territory.ValidationResult, bool, error) {
	ls, err := s.live(sessionID)
	if err != nil {
		return territory.ValidationResult{}, false, err
	}
	v, ok := ls.engine.CurrentValidation()
	return v, ok, nil
}

func (s *Service) Warning(sessionID string) (territory.SpeedWarning, bool, error) {
	ls, err := s.live(sessionID)
	if err != nil {
		return territory.SpeedWarning{}, false, err
	}
	w, ok := ls.engine.CurrentSpeedWarning()
	return w, ok, nil
}

// Authorize checks that userID owns the live session.
func (s *Service) Authorize(sessionID, userID string) error {
	ls, err := s.live(sessionID)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if userID == "" || ls.session.UserID != userID {
		return ErrForbidden
	}
	return nil
}

func (s *Service) touch(ls *liveSession) {
	ls.mu.Lock()
	ls.lastActive = s.now()
	ls.mu.Unlock()
}

// unsettled reports whether the engine is ahead of what the database holds:
// a status or generation change not yet written, or a passed closure
// without a saved claim.
func (s *Service) unsettled(ls *liveSession) bool {
	snap := ls.engine.Snapshot()
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if snap.Status != ls.session.Status || snap.Generation != ls.generation {
		return true
	}
	if s.claims == nil || snap.Status != territory.StatusClosed {
		return false
	}
	if snap.Validation == nil || !snap.Validation.Passed {
		return false
	}
	_, done := ls.claimed[snap.Generation]
	return !done
}

func (s *Service) live(sessionID string) (*liveSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ls, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ls, nil
}

// settle writes engine transitions to the database and saves the claim of
// a passed closure. A failed write is retried on the next call.
func (s *Service) settle(ctx context.Context, ls *liveSession) error {
	snap := ls.engine.Snapshot()

	ls.mu.Lock()
	defer ls.mu.Unlock()

	if snap.Status != ls.session.Status || snap.Generation != ls.generation {
		if err := s.persistStatus(ctx, ls, snap); err != nil {
			return err
		}
	}
	if snap.Status == territory.StatusClosed {
		if err := s.claimOnce(ctx, ls); err != nil {
			return err
		}
	}

	s.cacheState(ctx, State{Session: ls.session, Snapshot: snap})
	return nil
}

func (s *Service) persistStatus(ctx context.Context, ls *liveSession, snap territory.Snapshot) error {
	var endedAt *time.Time
	if snap.Status != territory.StatusTracking {
		t := s.now()
		endedAt = &t
	}

	area := 0.0
	failure := ""
	if v := snap.Validation; v != nil {
		area = v.Area
		if v.Failure != nil {
			failure = string(v.Failure.Kind)
		}
	}
	if snap.Abort != nil {
		failure = string(snap.Abort.Kind)
	}

	_, err := s.db.Exec(ctx, `
		UPDATE track_sessions
		SET status=$2, ended_at=$3, total_distance_m=$4, area_m2=$5, failure_reason=NULLIF($6,'')
		WHERE id=$1
	`, ls.session.ID, string(snap.Status), endedAt, snap.PathLengthMeters, area, failure)
	if err != nil {
		return fmt.Errorf("update session %s: %w", ls.session.ID, err)
	}

	ls.session.Status = snap.Status
	ls.session.EndedAt = endedAt
	ls.session.TotalDistanceM = snap.PathLengthMeters
	ls.session.AreaM2 = area
	ls.session.FailureReason = failure
	ls.generation = snap.Generation
	ls.settledAt = s.now()
	return nil
}

func (s *Service) claimOnce(ctx context.Context, ls *liveSession) error {
	if s.claims == nil {
		return nil
	}
	cand, ok := ls.engine.ClaimCandidate()
	if !ok {
		return nil
	}
	if _, done := ls.claimed[cand.Generation]; done {
		return nil
	}

	cl, err := s.claims.Create(ctx, ls.session.UserID, ls.session.ID, cand)
	if errors.Is(err, claim.ErrClaimExists) {
		ls.claimed[cand.Generation] = ""
		return nil
	}
	if err != nil {
		return err
	}
	ls.claimed[cand.Generation] = cl.ID
	ls.session.ClaimID = cl.ID
	ls.settledAt = s.now()
	s.opts.Logger.Printf("session %s gen=%d claimed %s area=%.1fm²", ls.session.ID, cand.Generation, cl.ID, cl.AreaM2)
	return nil
}

func (ls *liveSession) state() State {
	snap := ls.engine.Snapshot()
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return State{Session: ls.session, Snapshot: snap}
}

func (s *Service) cacheState(ctx context.Context, st State) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(st)
	if err != nil {
		s.opts.Logger.Printf("encode state %s: %v", st.Session.ID, err)
		return
	}
	if err := s.cache.Set(ctx, cacheKey(st.Session.ID), payload, s.opts.SnapshotTTL).Err(); err != nil {
		s.opts.Logger.Printf("cache state %s: %v", st.Session.ID, err)
	}
}

func cacheKey(sessionID string) string {
	return "territory:session:" + sessionID + ":state"
}
