package territory

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Verdict is the speed guard's classification of a candidate fix.
type Verdict int

const (
	VerdictAccept Verdict = iota
	VerdictWarmup
	VerdictRecovered
	VerdictInaccurate
	VerdictStaleTimestamp
	VerdictJump
	VerdictOverspeed
	VerdictUnreliable
)

// Records reports whether the fix should be appended to the path.
func (v Verdict) Records() bool {
	return v == VerdictAccept || v == VerdictWarmup || v == VerdictRecovered
}

func (v Verdict) rejectReason() RejectReason {
	switch v {
	case VerdictInaccurate:
		return RejectInaccurate
	case VerdictStaleTimestamp:
		return RejectStaleTimestamp
	case VerdictJump:
		return RejectJump
	case VerdictOverspeed:
		return RejectOverspeed
	case VerdictUnreliable:
		return RejectUnreliableSpeed
	}
	return RejectNone
}

func (v Verdict) String() string {
	switch v {
	case VerdictAccept:
		return "accept"
	case VerdictWarmup:
		return "warmup"
	case VerdictRecovered:
		return "recovered"
	case VerdictInaccurate:
		return "inaccurate"
	case VerdictStaleTimestamp:
		return "stale_timestamp"
	case VerdictJump:
		return "jump"
	case VerdictOverspeed:
		return "overspeed"
	case VerdictUnreliable:
		return "unreliable"
	}
	return fmt.Sprintf("verdict(%d)", int(v))
}

// Assessment is the outcome of evaluating one fix.
type Assessment struct {
	Verdict        Verdict
	SpeedKmh       float64
	DistanceMeters float64
	// WarningStarted is set on the fix that opened a countdown.
	WarningStarted bool
}

type SpeedState struct {
	WarningActive             bool `json:"warning_active"`
	CountdownSecondsRemaining int  `json:"countdown_seconds_remaining"`
	AcceptedSampleCount       int  `json:"accepted_sample_count"`
}

// SpeedWarning is what the UI shows while a countdown runs.
type SpeedWarning struct {
	Message          string  `json:"message"`
	SecondsRemaining int     `json:"seconds_remaining"`
	SpeedKmh         float64 `json:"speed_kmh"`
}

// SpeedGuard blocks vehicle-assisted claiming. Fixes right after acquisition
// pass unchecked; afterwards poor accuracy, teleports and overspeed are
// dropped, and overspeed seen with reliable accuracy starts a countdown that
// only a return to walking pace cancels.
type SpeedGuard struct {
	cfg        Config
	state      SpeedState
	message    string
	overspeeds []float64
}

func NewSpeedGuard(cfg Config) *SpeedGuard {
	return &SpeedGuard{cfg: cfg}
}

// Evaluate classifies s against prev, the last accepted fix.
func (g *SpeedGuard) Evaluate(prev *LocationSample, s LocationSample) Assessment {
	if prev == nil || g.state.AcceptedSampleCount < g.cfg.WarmupPointCount {
		g.state.AcceptedSampleCount++
		a := Assessment{Verdict: VerdictWarmup}
		if prev != nil {
			a.DistanceMeters = prev.DistanceTo(s)
		}
		return a
	}

	if s.HorizontalAccuracyMeters < 0 || s.HorizontalAccuracyMeters > g.cfg.AccuracyCeilingMeters {
		return Assessment{Verdict: VerdictInaccurate}
	}

	dist := prev.DistanceTo(s)
	elapsed := float64(s.TimestampMillis-prev.TimestampMillis) / 1000
	if elapsed <= 0 {
		return Assessment{Verdict: VerdictStaleTimestamp, DistanceMeters: dist}
	}
	speed := dist / elapsed * 3.6
	a := Assessment{SpeedKmh: speed, DistanceMeters: dist}

	switch {
	case speed > g.cfg.JumpThresholdKmh:
		a.Verdict = VerdictJump
	case speed > g.cfg.SpeedLimitKmh && s.HorizontalAccuracyMeters <= g.cfg.ReliableAccuracyMeters:
		a.Verdict = VerdictOverspeed
		if !g.state.WarningActive {
			g.state.WarningActive = true
			g.state.CountdownSecondsRemaining = g.cfg.CountdownSeconds
			g.overspeeds = g.overspeeds[:0]
			a.WarningStarted = true
		}
		g.overspeeds = append(g.overspeeds, speed)
		g.message = fmt.Sprintf("Moving at %.0f km/h. Slow down below %.0f km/h or this claim will be cancelled.", speed, g.cfg.SpeedLimitKmh)
	case speed > g.cfg.SpeedLimitKmh:
		a.Verdict = VerdictUnreliable
	case g.state.WarningActive:
		g.clearWarning()
		g.state.AcceptedSampleCount++
		a.Verdict = VerdictRecovered
	default:
		g.state.AcceptedSampleCount++
		a.Verdict = VerdictAccept
	}
	return a
}

// Tick advances the countdown by one second and reports whether it ran out.
func (g *SpeedGuard) Tick() bool {
	if !g.state.WarningActive {
		return false
	}
	if g.state.CountdownSecondsRemaining > 0 {
		g.state.CountdownSecondsRemaining--
	}
	return g.state.CountdownSecondsRemaining == 0
}

func (g *SpeedGuard) Warning() (SpeedWarning, bool) {
	if !g.state.WarningActive {
		return SpeedWarning{}, false
	}
	w := SpeedWarning{Message: g.message, SecondsRemaining: g.state.CountdownSecondsRemaining}
	if n := len(g.overspeeds); n > 0 {
		w.SpeedKmh = g.overspeeds[n-1]
	}
	return w, true
}

// AverageOverspeedKmh is the mean of the overspeed readings behind the
// current warning.
func (g *SpeedGuard) AverageOverspeedKmh() float64 {
	if len(g.overspeeds) == 0 {
		return 0
	}
	return stat.Mean(g.overspeeds, nil)
}

// CancelCountdown clears a running warning without touching the sample count.
func (g *SpeedGuard) CancelCountdown() {
	g.clearWarning()
}

func (g *SpeedGuard) State() SpeedState {
	return g.state
}

func (g *SpeedGuard) Reset() {
	g.state = SpeedState{}
	g.clearWarning()
}

func (g *SpeedGuard) clearWarning() {
	g.state.WarningActive = false
	g.state.CountdownSecondsRemaining = 0
	g.message = ""
	g.overspeeds = g.overspeeds[:0]
}
