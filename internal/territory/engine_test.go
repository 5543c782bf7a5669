package territory

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *eventLog) {
	t.Helper()
	events := &eventLog{}
	clock := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]Option{WithSink(events), WithClock(func() time.Time { return clock })}, opts...)
	e, err := NewEngine(DefaultConfig(), opts...)
	require.NoError(t, err)
	return e, events
}

// warmUp feeds three walking-pace fixes heading east, ending at 20 m, t=20s.
func warmUp(t *testing.T, e *Engine) {
	t.Helper()
	for i := 0; i < 3; i++ {
		out := e.HandleSample(fix(float64(i*10), 0, float64(i*10), 5))
		require.True(t, out.Accepted, "warmup fix %d: %+v", i, out)
	}
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClosureThresholdMeters = 0
	_, err := NewEngine(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestEngineIgnoresSamplesWhenNotTracking(t *testing.T) {
	e, _ := newTestEngine(t)
	out := e.HandleSample(fix(0, 0, 0, 5))
	assert.False(t, out.Accepted)
	assert.Equal(t, RejectNotTracking, out.Reason)
	assert.Empty(t, e.CurrentPath())
}

func TestWarmupAcceptsPoorFixes(t *testing.T) {
	e, _ := newTestEngine(t)
	e.StartTracking()

	out := e.HandleSample(fix(0, 0, 0, 500))
	assert.True(t, out.Accepted)
	out = e.HandleSample(fix(500, 0, 1, 500))
	assert.True(t, out.Accepted, "speed is not evaluated during warmup")
	assert.Equal(t, 2, e.Snapshot().Speed.AcceptedSampleCount)
}

func TestRecoverableRejections(t *testing.T) {
	e, events := newTestEngine(t)
	e.StartTracking()
	warmUp(t, e)

	out := e.HandleSample(fix(22, 0, 21, 5))
	assert.Equal(t, RejectTooClose, out.Reason)

	out = e.HandleSample(fix(30, 0, 30, 80))
	assert.Equal(t, RejectInaccurate, out.Reason)

	out = e.HandleSample(fix(30, 0, 30, -1))
	assert.Equal(t, RejectInaccurate, out.Reason)

	out = e.HandleSample(fix(30, 0, 20, 5))
	assert.Equal(t, RejectStaleTimestamp, out.Reason)

	out = e.HandleSample(fix(1020, 0, 23, 5))
	assert.Equal(t, RejectJump, out.Reason)
	assert.Greater(t, out.SpeedKmh, 80.0)

	out = e.HandleSample(fix(53.33, 0, 23, 30))
	assert.Equal(t, RejectUnreliableSpeed, out.Reason)

	snap := e.Snapshot()
	assert.Len(t, snap.Path, 3, "rejected fixes are never recorded")
	assert.Equal(t, StatusTracking, snap.Status)
	assert.Nil(t, snap.Warning)
	assert.Equal(t, 0, events.count(EventSpeedWarning))
	assert.Equal(t, 5, events.count(EventSampleRejected), "too-close fixes are dropped silently")
}

func TestSpeedWarningClearsOnNormalSample(t *testing.T) {
	e, events := newTestEngine(t)
	e.StartTracking()
	warmUp(t, e)

	// 33.3 m in 3 s is 40 km/h.
	out := e.HandleSample(fix(53.33, 0, 23, 5))
	assert.False(t, out.Accepted)
	assert.Equal(t, RejectOverspeed, out.Reason)
	assert.InDelta(t, 40, out.SpeedKmh, 0.1)

	w, ok := e.CurrentSpeedWarning()
	require.True(t, ok)
	assert.Equal(t, 10, w.SecondsRemaining)
	assert.NotEmpty(t, w.Message)

	e.Tick(time.Now())
	e.Tick(time.Now())
	w, _ = e.CurrentSpeedWarning()
	assert.Equal(t, 8, w.SecondsRemaining)

	out = e.HandleSample(fix(30, 0, 30, 5))
	assert.True(t, out.Accepted)

	_, ok = e.CurrentSpeedWarning()
	assert.False(t, ok)
	assert.Equal(t, 1, events.count(EventSpeedWarningCleared))

	for i := 0; i < 20; i++ {
		e.Tick(time.Now())
	}
	assert.Equal(t, StatusTracking, e.Status())
	assert.Len(t, e.CurrentPath(), 4)
}

func TestSustainedOverspeedAbortsAtTenthTick(t *testing.T) {
	e, events := newTestEngine(t)
	e.StartTracking()
	warmUp(t, e)

	require.Equal(t, RejectOverspeed, e.HandleSample(fix(53.33, 0, 23, 5)).Reason)
	// Measured from the last accepted fix at 20 m, t=20s: still 40 km/h.
	require.Equal(t, RejectOverspeed, e.HandleSample(fix(86.67, 0, 26, 5)).Reason)

	w, _ := e.CurrentSpeedWarning()
	require.Equal(t, 10, w.SecondsRemaining, "a second overspeed fix does not restart the countdown")

	for i := 1; i <= 9; i++ {
		e.Tick(time.Now())
		require.Equal(t, StatusTracking, e.Status(), "tick %d", i)
	}
	e.Tick(time.Now())

	require.Equal(t, StatusFailed, e.Status())
	f, ok := e.Abort()
	require.True(t, ok)
	assert.Equal(t, FailureSustainedOverspeed, f.Kind)
	assert.InDelta(t, 40, f.Value, 0.1)
	assert.Equal(t, 30.0, f.Threshold)

	assert.Equal(t, 9, events.count(EventCountdown))
	assert.Equal(t, 1, events.count(EventSessionAborted))

	out := e.HandleSample(fix(30, 0, 40, 5))
	assert.Equal(t, RejectNotTracking, out.Reason)
	_, ok = e.ClaimCandidate()
	assert.False(t, ok)
}

func TestEngineClosesAndValidatesOctagon(t *testing.T) {
	e, events := newTestEngine(t)
	e.StartTracking()

	var closing Outcome
	for i, s := range octagon() {
		out := e.HandleSample(s)
		if out.Closed {
			closing = out
			require.Equal(t, 9, i, "closure fires once ten fixes are within range of the start")
			break
		}
		require.True(t, out.Accepted, "fix %d: %+v", i, out)
	}

	require.True(t, closing.Closed)
	require.NotNil(t, closing.Validation)
	assert.True(t, closing.Validation.Passed, "failure: %+v", closing.Validation.Failure)

	res, ok := e.CurrentValidation()
	require.True(t, ok)
	assert.Equal(t, 10, res.PointCount)
	assert.InDelta(t, 90, res.PathLengthMeters, 0.5)
	assert.InDelta(t, 724, res.Area, 10)
	assert.InDelta(t, res.Area, res.GeodesicAreaSquareMeters, 5)
	assert.InDelta(t, e.PathLengthMeters(), res.PathLengthMeters, 1e-6)

	snap := e.Snapshot()
	assert.True(t, snap.IsClosed)
	assert.False(t, snap.IsTracking)

	cand, ok := e.ClaimCandidate()
	require.True(t, ok)
	assert.Equal(t, uint64(1), cand.Generation)
	assert.Len(t, cand.Path, 10)

	assert.Equal(t, RejectNotTracking, e.HandleSample(octagon()[10]).Reason)
	assert.Equal(t, 1, events.count(EventPathClosed))
	assert.Equal(t, 1, events.count(EventValidated))
}

func TestValidationUnavailableBeforeClosure(t *testing.T) {
	e, _ := newTestEngine(t)
	e.StartTracking()
	warmUp(t, e)
	_, ok := e.CurrentValidation()
	assert.False(t, ok)
	_, ok = e.ClaimCandidate()
	assert.False(t, ok)
}

func TestStopTrackingIsIdempotent(t *testing.T) {
	e, events := newTestEngine(t)
	e.StartTracking()
	warmUp(t, e)
	require.Equal(t, RejectOverspeed, e.HandleSample(fix(53.33, 0, 23, 5)).Reason)

	e.StopTracking()
	once := e.Snapshot()
	e.StopTracking()
	twice := e.Snapshot()

	assert.Equal(t, once, twice)
	assert.Equal(t, StatusStopped, twice.Status)
	assert.Equal(t, 1, events.count(EventTrackingStopped))

	_, ok := e.CurrentSpeedWarning()
	assert.False(t, ok, "stop cancels the countdown")
	for i := 0; i < 15; i++ {
		e.Tick(time.Now())
	}
	assert.Equal(t, StatusStopped, e.Status())
	_, ok = e.Abort()
	assert.False(t, ok)

	assert.Equal(t, RejectNotTracking, e.HandleSample(fix(30, 0, 30, 5)).Reason)
}

func TestStopAfterClosureKeepsValidation(t *testing.T) {
	e, _ := newTestEngine(t)
	e.StartTracking()
	for _, s := range octagon()[:10] {
		e.HandleSample(s)
	}
	require.Equal(t, StatusClosed, e.Status())

	e.StopTracking()
	assert.Equal(t, StatusClosed, e.Status())
	_, ok := e.CurrentValidation()
	assert.True(t, ok)
}

func TestStartTrackingResetsSession(t *testing.T) {
	e, _ := newTestEngine(t)
	e.StartTracking()
	for _, s := range octagon()[:10] {
		e.HandleSample(s)
	}
	_, ok := e.ClaimCandidate()
	require.True(t, ok)

	e.StartTracking()
	snap := e.Snapshot()
	assert.Equal(t, uint64(2), snap.Generation)
	assert.Empty(t, snap.Path)
	assert.Equal(t, SpeedState{}, snap.Speed)
	assert.Nil(t, snap.Validation)
	assert.Zero(t, snap.PathLengthMeters)
	_, ok = e.ClaimCandidate()
	assert.False(t, ok, "a restarted session never offers the previous claim")
}

func TestPathGrowsMonotonically(t *testing.T) {
	e, _ := newTestEngine(t)
	e.StartTracking()

	samples := []LocationSample{
		fix(0, 0, 0, 5), fix(10, 0, 10, 5), fix(12, 0, 11, 5), fix(20, 0, 20, 5),
		fix(500, 0, 21, 5), fix(30, 0, 30, 90), fix(30, 0, 30, 5), fix(40, 0, 40, 5),
	}
	prev := 0
	for _, s := range samples {
		e.HandleSample(s)
		n := len(e.CurrentPath())
		require.GreaterOrEqual(t, n, prev)
		prev = n
	}
	assert.Equal(t, 5, prev)
}

func TestSinkMayCallBackIntoEngine(t *testing.T) {
	var e *Engine
	var seen []int
	sink := SinkFunc(func(ev Event) {
		if ev.Kind == EventSampleAccepted {
			seen = append(seen, len(e.CurrentPath()))
		}
	})
	e, err := NewEngine(DefaultConfig(), WithSink(sink))
	require.NoError(t, err)

	e.StartTracking()
	e.HandleSample(fix(0, 0, 0, 5))
	e.HandleSample(fix(10, 0, 10, 5))
	assert.Equal(t, []int{1, 2}, seen)
}

func TestEventsCarryGeneration(t *testing.T) {
	e, events := newTestEngine(t)
	e.StartTracking()
	e.HandleSample(fix(0, 0, 0, 5))
	e.StartTracking()
	e.HandleSample(fix(0, 0, 0, 5))

	events.mu.Lock()
	defer events.mu.Unlock()
	require.Len(t, events.events, 4)
	assert.Equal(t, uint64(1), events.events[1].Generation)
	assert.Equal(t, uint64(2), events.events[3].Generation)
	assert.False(t, events.events[0].At.IsZero())
}

func TestOutcomeCarriesGeneration(t *testing.T) {
	e, _ := newTestEngine(t)
	assert.Equal(t, uint64(0), e.HandleSample(fix(0, 0, 0, 5)).Generation)

	e.StartTracking()
	assert.Equal(t, uint64(1), e.HandleSample(fix(0, 0, 0, 5)).Generation)
	e.StartTracking()
	out := e.HandleSample(fix(0, 0, 0, 5))
	assert.True(t, out.Accepted)
	assert.Equal(t, uint64(2), out.Generation)
}

func TestEventSeqOrdersConcurrentEmitters(t *testing.T) {
	e, events := newTestEngine(t)
	e.StartTracking()
	warmUp(t, e)
	// 100 m in 10 s starts a countdown the ticker goroutine drives
	e.HandleSample(fix(120, 0, 30, 5))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			e.Tick(time.Now())
		}
	}()
	for i := 1; i <= 5; i++ {
		e.HandleSample(fix(20+float64(i*10), 0, 30+float64(i*10), 5))
	}
	wg.Wait()

	events.mu.Lock()
	defer events.mu.Unlock()
	seen := map[uint64]bool{}
	for _, ev := range events.events {
		require.False(t, seen[ev.Seq], "duplicate seq %d", ev.Seq)
		seen[ev.Seq] = true
	}
	for i := 1; i <= len(events.events); i++ {
		assert.True(t, seen[uint64(i)], "missing seq %d", i)
	}
}

func TestConcurrentSamplesAndTicks(t *testing.T) {
	e, _ := newTestEngine(t)
	e.StartTracking()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				e.Tick(time.Now())
				_ = e.Snapshot()
			}
		}
	}()

	for i := 0; i < 50; i++ {
		e.HandleSample(fix(float64(i*10), 0, float64(i*10), 5))
	}
	close(stop)
	wg.Wait()

	assert.Len(t, e.CurrentPath(), 50)
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(log.New(&buf, "", 0), "[territory] ")
	e, err := NewEngine(DefaultConfig(), WithSink(sink))
	require.NoError(t, err)

	e.StartTracking()
	warmUp(t, e)
	e.HandleSample(fix(53.33, 0, 23, 5))
	for i := 0; i < 10; i++ {
		e.Tick(time.Now())
	}

	out := buf.String()
	assert.True(t, strings.Contains(out, "[territory] tracking_started"))
	assert.True(t, strings.Contains(out, "speed_warning"))
	assert.True(t, strings.Contains(out, "session_aborted gen=1 reason=sustained_overspeed"))
	assert.False(t, strings.Contains(out, "sample_accepted"), "accepted samples are quiet unless verbose")
}
