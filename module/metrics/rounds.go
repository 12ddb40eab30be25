package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/emberchain/ember-go/module"
)

const (
	namespaceRounds = "ember"
	subsystemRounds = "rounds"
)

// RoundsCollector tracks the progress of the round lifecycle engine.
type RoundsCollector struct {
	tickDuration   prometheus.Histogram
	tickedHeight   prometheus.Gauge
	backwardTicks  prometheus.Counter
	finishedRounds prometheus.Counter
}

var _ module.RoundsMetrics = (*RoundsCollector)(nil)

func NewRoundsCollector(registerer prometheus.Registerer) *RoundsCollector {
	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespaceRounds,
		Subsystem: subsystemRounds,
		Name:      "tick_duration_seconds",
		Help:      "duration of one forward tick of the round engine in seconds",
	})
	tickedHeight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespaceRounds,
		Subsystem: subsystemRounds,
		Name:      "ticked_height",
		Help:      "the last height processed by the round engine",
	})
	backwardTicks := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespaceRounds,
		Subsystem: subsystemRounds,
		Name:      "backward_ticks_total",
		Help:      "the number of blocks reverted by the round engine",
	})
	finishedRounds := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespaceRounds,
		Subsystem: subsystemRounds,
		Name:      "finished_rounds_total",
		Help:      "the number of rounds settled by the round engine",
	})
	registerer.MustRegister(tickDuration, tickedHeight, backwardTicks, finishedRounds)
	return &RoundsCollector{
		tickDuration:   tickDuration,
		tickedHeight:   tickedHeight,
		backwardTicks:  backwardTicks,
		finishedRounds: finishedRounds,
	}
}

func (rc *RoundsCollector) RoundTicked(height uint64, duration time.Duration) {
	rc.tickedHeight.Set(float64(height))
	rc.tickDuration.Observe(duration.Seconds())
}

func (rc *RoundsCollector) RoundBackwardTicked(height uint64) {
	rc.tickedHeight.Set(float64(height))
	rc.backwardTicks.Inc()
}

func (rc *RoundsCollector) RoundFinished(round uint64) {
	rc.finishedRounds.Inc()
}
