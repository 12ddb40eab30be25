package module

import (
	"time"
)

// RoundsMetrics encapsulates the metrics collectors for the round
// lifecycle engine.
type RoundsMetrics interface {
	// RoundTicked reports a completed forward tick and its duration.
	RoundTicked(height uint64, duration time.Duration)

	// RoundBackwardTicked reports a completed backward tick.
	RoundBackwardTicked(height uint64)

	// RoundFinished reports a settled round.
	RoundFinished(round uint64)
}
