package territory

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid territory config")

// Config holds every threshold of the claiming pipeline.
type Config struct {
	// Sample filter
	MinimumDistanceMeters float64 // jitter floor between accepted fixes

	// Speed guard
	WarmupPointCount       int     // fixes accepted without speed checks after acquisition
	AccuracyCeilingMeters  float64 // fixes worse than this are dropped
	ReliableAccuracyMeters float64 // only fixes this good can raise an overspeed warning
	JumpThresholdKmh       float64 // above this the fix is a teleport artifact
	SpeedLimitKmh          float64 // on-foot ceiling
	CountdownSeconds       int     // grace period before an overspeed abort

	// Closure and validation
	MinimumPathPoints          int
	ClosureThresholdMeters     float64
	MinimumTotalDistanceMeters float64
	MinimumAreaSquareMeters    float64
}

// DefaultConfig returns thresholds tuned for on-foot play.
func DefaultConfig() Config {
	return Config{
		MinimumDistanceMeters:      5,
		WarmupPointCount:           3,
		AccuracyCeilingMeters:      50,
		ReliableAccuracyMeters:     20,
		JumpThresholdKmh:           80,
		SpeedLimitKmh:              30,
		CountdownSeconds:           10,
		MinimumPathPoints:          10,
		ClosureThresholdMeters:     30,
		MinimumTotalDistanceMeters: 50,
		MinimumAreaSquareMeters:    100,
	}
}

func (c Config) Validate() error {
	positive := map[string]float64{
		"minimum distance":       c.MinimumDistanceMeters,
		"accuracy ceiling":       c.AccuracyCeilingMeters,
		"reliable accuracy":      c.ReliableAccuracyMeters,
		"jump threshold":         c.JumpThresholdKmh,
		"speed limit":            c.SpeedLimitKmh,
		"countdown":              float64(c.CountdownSeconds),
		"closure threshold":      c.ClosureThresholdMeters,
		"minimum total distance": c.MinimumTotalDistanceMeters,
		"minimum area":           c.MinimumAreaSquareMeters,
	}
	for name, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, name)
		}
	}
	if c.WarmupPointCount < 0 {
		return fmt.Errorf("%w: warmup point count must not be negative", ErrInvalidConfig)
	}
	if c.MinimumPathPoints < 4 {
		return fmt.Errorf("%w: minimum path points must be at least 4", ErrInvalidConfig)
	}
	if c.ReliableAccuracyMeters > c.AccuracyCeilingMeters {
		return fmt.Errorf("%w: reliable accuracy %.0fm exceeds ceiling %.0fm", ErrInvalidConfig, c.ReliableAccuracyMeters, c.AccuracyCeilingMeters)
	}
	if c.SpeedLimitKmh >= c.JumpThresholdKmh {
		return fmt.Errorf("%w: speed limit %.0fkm/h must be below jump threshold %.0fkm/h", ErrInvalidConfig, c.SpeedLimitKmh, c.JumpThresholdKmh)
	}
	return nil
}
