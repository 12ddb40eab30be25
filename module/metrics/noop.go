package metrics

import (
	"time"
)

// NoopCollector is a metrics sink for tests and tools.
type NoopCollector struct{}

func NewNoopCollector() *NoopCollector {
	return &NoopCollector{}
}

func (nc *NoopCollector) RoundTicked(height uint64, duration time.Duration) {}

func (nc *NoopCollector) RoundBackwardTicked(height uint64) {}

func (nc *NoopCollector) RoundFinished(round uint64) {}
