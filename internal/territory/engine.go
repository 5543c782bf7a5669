package territory

import (
	"sync"
	"time"
)

type Status string

const (
	StatusIdle     Status = "idle"
	StatusTracking Status = "tracking"
	StatusClosed   Status = "closed"
	StatusFailed   Status = "failed"
	StatusStopped  Status = "stopped"
)

// Outcome is the result of handing one fix to the engine. Generation is the
// walk the fix was handled in, read under the same lock.
type Outcome struct {
	Generation uint64            `json:"generation"`
	Accepted   bool              `json:"accepted"`
	Reason     RejectReason      `json:"reason,omitempty"`
	SpeedKmh   float64           `json:"speed_kmh,omitempty"`
	Closed     bool              `json:"closed"`
	Validation *ValidationResult `json:"validation,omitempty"`
}

// Snapshot is a consistent copy of the tracking session.
type Snapshot struct {
	Status           Status            `json:"status"`
	IsTracking       bool              `json:"is_tracking"`
	IsClosed         bool              `json:"is_closed"`
	Generation       uint64            `json:"generation"`
	Path             []LocationSample  `json:"path"`
	PathLengthMeters float64           `json:"path_length_m"`
	Speed            SpeedState        `json:"speed"`
	Warning          *SpeedWarning     `json:"warning,omitempty"`
	LastAccepted     *LocationSample   `json:"last_accepted,omitempty"`
	Validation       *ValidationResult `json:"validation,omitempty"`
	Abort            *Failure          `json:"abort,omitempty"`
}

// Candidate is a validated closed path that may be uploaded as a claim.
type Candidate struct {
	Generation uint64
	Path       []LocationSample
	Result     ValidationResult
	ClosedAt   time.Time
}

type Option func(*Engine)

func WithSink(sink EventSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// Engine turns a stream of fixes into a validated closed polygon. It is safe
// for concurrent use: location delivery and the 1 Hz tick may arrive on
// different goroutines and are serialized on one mutex. Events are queued
// while the lock is held and delivered after it is released.
type Engine struct {
	mu sync.Mutex

	cfg       Config
	now       func() time.Time
	sink      EventSink
	filter    SampleFilter
	guard     *SpeedGuard
	closure   ClosureDetector
	validator Validator

	status     Status
	generation uint64
	seq        uint64
	path       Path
	pathLength float64
	validation *ValidationResult
	abort      *Failure
	closedAt   time.Time

	pending []Event
}

func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:       cfg,
		now:       time.Now,
		sink:      Discard,
		filter:    SampleFilter{MinimumDistanceMeters: cfg.MinimumDistanceMeters},
		guard:     NewSpeedGuard(cfg),
		closure:   ClosureDetector{MinimumPathPoints: cfg.MinimumPathPoints, ClosureThresholdMeters: cfg.ClosureThresholdMeters},
		validator: NewValidator(cfg),
		status:    StatusIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// StartTracking discards any previous session and begins accepting fixes.
func (e *Engine) StartTracking() {
	e.mu.Lock()
	e.path.Reset()
	e.pathLength = 0
	e.guard.Reset()
	e.validation = nil
	e.abort = nil
	e.closedAt = time.Time{}
	e.generation++
	e.status = StatusTracking
	e.record(Event{Kind: EventTrackingStarted})
	e.unlockAndEmit()
}

// StopTracking halts acceptance and cancels the countdown. Calling it again,
// or after the session already closed or failed, changes nothing.
func (e *Engine) StopTracking() {
	e.mu.Lock()
	if e.status == StatusTracking {
		e.status = StatusStopped
		e.guard.CancelCountdown()
		e.record(Event{Kind: EventTrackingStopped, PointCount: e.path.Len(), PathLengthMeters: e.pathLength})
	}
	e.unlockAndEmit()
}

// HandleSample runs one fix through filter, speed guard, recorder and
// closure detection. On closure the path is validated before it returns.
func (e *Engine) HandleSample(s LocationSample) Outcome {
	e.mu.Lock()
	out := e.handleSample(s)
	out.Generation = e.generation
	e.unlockAndEmit()
	return out
}

func (e *Engine) handleSample(s LocationSample) Outcome {
	if e.status != StatusTracking {
		return Outcome{Reason: RejectNotTracking}
	}

	var last *LocationSample
	if l, ok := e.path.Last(); ok {
		last = &l
	}
	ok, dist := e.filter.Accept(last, s)
	if !ok {
		return Outcome{Reason: RejectTooClose}
	}

	a := e.guard.Evaluate(last, s)
	if !a.Verdict.Records() {
		out := Outcome{Reason: a.Verdict.rejectReason(), SpeedKmh: a.SpeedKmh}
		if a.WarningStarted {
			w, _ := e.guard.Warning()
			e.record(Event{Kind: EventSpeedWarning, SpeedKmh: a.SpeedKmh, SecondsRemaining: w.SecondsRemaining, Message: w.Message})
		} else {
			e.record(Event{Kind: EventSampleRejected, Reason: out.Reason, SpeedKmh: a.SpeedKmh})
		}
		return out
	}
	if a.Verdict == VerdictRecovered {
		e.record(Event{Kind: EventSpeedWarningCleared, SpeedKmh: a.SpeedKmh})
	}

	e.path.Append(s)
	e.pathLength += dist
	e.record(Event{Kind: EventSampleAccepted, SpeedKmh: a.SpeedKmh, PointCount: e.path.Len(), PathLengthMeters: e.pathLength})

	out := Outcome{Accepted: true, SpeedKmh: a.SpeedKmh}
	if closed, _ := e.closure.Check(e.path.samples); closed {
		e.close()
		out.Closed = true
		v := *e.validation
		out.Validation = &v
	}
	return out
}

// close evaluates the path. It runs under the lock, so a concurrent stop
// sees either no validation or the complete one.
func (e *Engine) close() {
	snapshot := e.path.Snapshot()
	m := Measure(snapshot)
	res := e.validator.Validate(Metrics{
		PointCount:       m.PointCount,
		PathLengthMeters: m.PathLengthMeters,
		SelfIntersects:   SelfIntersects(snapshot),
		AreaSquareMeters: m.AreaSquareMeters,
	})
	res.GeodesicAreaSquareMeters = m.GeodesicAreaSquareMeters

	e.validation = &res
	e.status = StatusClosed
	e.closedAt = e.now()
	e.guard.CancelCountdown()

	e.record(Event{Kind: EventPathClosed, PointCount: m.PointCount, PathLengthMeters: m.PathLengthMeters})
	v := res
	e.record(Event{Kind: EventValidated, Validation: &v, PointCount: m.PointCount, PathLengthMeters: m.PathLengthMeters})
}

// Tick is the 1 Hz scheduler hook. It only does work while a speed warning
// is counting down; reaching zero aborts the session.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	e.tick(now)
	e.unlockAndEmit()
}

func (e *Engine) tick(now time.Time) {
	if e.status != StatusTracking || !e.guard.State().WarningActive {
		return
	}

	if !e.guard.Tick() {
		w, _ := e.guard.Warning()
		e.record(Event{Kind: EventCountdown, At: now, SecondsRemaining: w.SecondsRemaining, SpeedKmh: w.SpeedKmh, Message: w.Message})
		return
	}

	e.abort = newFailure(FailureSustainedOverspeed, e.guard.AverageOverspeedKmh(), e.cfg.SpeedLimitKmh)
	e.status = StatusFailed
	e.guard.CancelCountdown()
	f := *e.abort
	e.record(Event{Kind: EventSessionAborted, At: now, Failure: &f, SpeedKmh: f.Value})
}

// CurrentPath returns a read-only copy of the path for rendering.
func (e *Engine) CurrentPath() []LocationSample {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path.Snapshot()
}

// CurrentValidation is only available after closure.
func (e *Engine) CurrentValidation() (ValidationResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.validation == nil {
		return ValidationResult{}, false
	}
	return *e.validation, true
}

func (e *Engine) CurrentSpeedWarning() (SpeedWarning, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusTracking {
		return SpeedWarning{}, false
	}
	return e.guard.Warning()
}

// Abort returns the terminal failure of a session stopped by the speed guard.
func (e *Engine) Abort() (Failure, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.abort == nil {
		return Failure{}, false
	}
	return *e.abort, true
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// PathLengthMeters is the live length of the recorded path.
func (e *Engine) PathLengthMeters() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pathLength
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Status:           e.status,
		IsTracking:       e.status == StatusTracking,
		IsClosed:         e.status == StatusClosed,
		Generation:       e.generation,
		Path:             e.path.Snapshot(),
		PathLengthMeters: e.pathLength,
		Speed:            e.guard.State(),
	}
	if w, ok := e.guard.Warning(); ok && snap.IsTracking {
		snap.Warning = &w
	}
	if l, ok := e.path.Last(); ok {
		snap.LastAccepted = &l
	}
	if e.validation != nil {
		v := *e.validation
		snap.Validation = &v
	}
	if e.abort != nil {
		f := *e.abort
		snap.Abort = &f
	}
	return snap
}

// ClaimCandidate returns the closed path only when it passed validation in
// the current generation. Anything else is never offered for upload.
func (e *Engine) ClaimCandidate() (Candidate, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusClosed || e.validation == nil || !e.validation.Passed {
		return Candidate{}, false
	}
	return Candidate{
		Generation: e.generation,
		Path:       e.path.Snapshot(),
		Result:     *e.validation,
		ClosedAt:   e.closedAt,
	}, true
}

func (e *Engine) record(ev Event) {
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	e.seq++
	ev.Seq = e.seq
	ev.Generation = e.generation
	e.pending = append(e.pending, ev)
}

func (e *Engine) unlockAndEmit() {
	events := e.pending
	e.pending = nil
	sink := e.sink
	e.mu.Unlock()

	for _, ev := range events {
		sink.Emit(ev)
	}
}
