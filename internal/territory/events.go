package territory

import (
	"log"
	"time"
)

type EventKind string

const (
	EventTrackingStarted     EventKind = "tracking_started"
	EventTrackingStopped     EventKind = "tracking_stopped"
	EventSampleAccepted      EventKind = "sample_accepted"
	EventSampleRejected      EventKind = "sample_rejected"
	EventSpeedWarning        EventKind = "speed_warning"
	EventSpeedWarningCleared EventKind = "speed_warning_cleared"
	EventCountdown           EventKind = "countdown"
	EventSessionAborted      EventKind = "session_aborted"
	EventPathClosed          EventKind = "path_closed"
	EventValidated           EventKind = "validated"
)

// Event is a state change or diagnostic emitted by an Engine. Seq increases
// by one per event over the engine's lifetime. Events recorded on different
// goroutines may reach a sink out of order; consumers order them by Seq.
type Event struct {
	Seq              uint64            `json:"seq"`
	Kind             EventKind         `json:"kind"`
	At               time.Time         `json:"at"`
	Generation       uint64            `json:"generation"`
	Reason           RejectReason      `json:"reason,omitempty"`
	SpeedKmh         float64           `json:"speed_kmh,omitempty"`
	SecondsRemaining int               `json:"seconds_remaining,omitempty"`
	PointCount       int               `json:"point_count,omitempty"`
	PathLengthMeters float64           `json:"path_length_m,omitempty"`
	Message          string            `json:"message,omitempty"`
	Validation       *ValidationResult `json:"validation,omitempty"`
	Failure          *Failure          `json:"failure,omitempty"`
}

type EventSink interface {
	Emit(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

// MultiSink fans an event out to every sink in order.
type MultiSink []EventSink

func (m MultiSink) Emit(ev Event) {
	for _, s := range m {
		if s != nil {
			s.Emit(ev)
		}
	}
}

var Discard EventSink = SinkFunc(func(Event) {})

// LogSink writes events as single log lines. Accepted samples are skipped
// unless Verbose is set.
type LogSink struct {
	Logger  *log.Logger
	Prefix  string
	Verbose bool
}

func NewLogSink(logger *log.Logger, prefix string) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{Logger: logger, Prefix: prefix}
}

func (l *LogSink) Emit(ev Event) {
	switch ev.Kind {
	case EventSampleAccepted:
		if l.Verbose {
			l.Logger.Printf("%s%s gen=%d points=%d length=%.1fm", l.Prefix, ev.Kind, ev.Generation, ev.PointCount, ev.PathLengthMeters)
		}
	case EventSampleRejected:
		l.Logger.Printf("%s%s gen=%d reason=%s speed=%.1fkm/h", l.Prefix, ev.Kind, ev.Generation, ev.Reason, ev.SpeedKmh)
	case EventSpeedWarning, EventCountdown:
		l.Logger.Printf("%s%s gen=%d remaining=%ds speed=%.1fkm/h", l.Prefix, ev.Kind, ev.Generation, ev.SecondsRemaining, ev.SpeedKmh)
	case EventValidated:
		if ev.Validation != nil && ev.Validation.Failure != nil {
			l.Logger.Printf("%s%s gen=%d passed=false reason=%s: %s", l.Prefix, ev.Kind, ev.Generation, ev.Validation.Failure.Kind, ev.Validation.Failure.Message)
			return
		}
		if ev.Validation != nil {
			l.Logger.Printf("%s%s gen=%d passed=true area=%.1fm²", l.Prefix, ev.Kind, ev.Generation, ev.Validation.Area)
		}
	case EventSessionAborted:
		if ev.Failure != nil {
			l.Logger.Printf("%s%s gen=%d reason=%s: %s", l.Prefix, ev.Kind, ev.Generation, ev.Failure.Kind, ev.Failure.Message)
		}
	default:
		l.Logger.Printf("%s%s gen=%d points=%d", l.Prefix, ev.Kind, ev.Generation, ev.PointCount)
	}
}
