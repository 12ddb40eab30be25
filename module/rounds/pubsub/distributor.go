// Package pubsub distributes round lifecycle events to subscribers.
package pubsub

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/emberchain/ember-go/model/ember"
	"github.com/emberchain/ember-go/module/rounds"
)

type OnFinishRoundConsumer = func(round uint64)
type OnRoundChangedConsumer = func(round uint64)

// Distributor fans round lifecycle events out to all subscribed
// consumers. Fan-out is synchronous; consumers are contractually
// non-blocking. A panicking consumer is recovered and logged so that it
// cannot unwind the engine.
type Distributor struct {
	log                   zerolog.Logger
	finishRoundConsumers  []OnFinishRoundConsumer
	roundChangedConsumers []OnRoundChangedConsumer
	consumers             []rounds.Consumer
	lock                  sync.RWMutex
}

var _ rounds.Consumer = (*Distributor)(nil)

func NewDistributor(log zerolog.Logger) *Distributor {
	return &Distributor{
		log: log.With().Str("component", "rounds_distributor").Logger(),
	}
}

func (d *Distributor) AddOnFinishRoundConsumer(consumer OnFinishRoundConsumer) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.finishRoundConsumers = append(d.finishRoundConsumers, consumer)
}

func (d *Distributor) AddOnRoundChangedConsumer(consumer OnRoundChangedConsumer) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.roundChangedConsumers = append(d.roundChangedConsumers, consumer)
}

func (d *Distributor) AddConsumer(consumer rounds.Consumer) {
	d.lock.Lock()
	defer d.lock.Unlock()
	d.consumers = append(d.consumers, consumer)
}

func (d *Distributor) OnFinishRound(round uint64) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.finishRoundConsumers {
		d.deliver(func() { consumer(round) })
	}
	for _, consumer := range d.consumers {
		consumer := consumer
		d.deliver(func() { consumer.OnFinishRound(round) })
	}
}

func (d *Distributor) OnRoundBackwardTick(block *ember.Block) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.consumers {
		consumer := consumer
		d.deliver(func() { consumer.OnRoundBackwardTick(block) })
	}
}

func (d *Distributor) OnRoundChanged(round uint64) {
	d.lock.RLock()
	defer d.lock.RUnlock()
	for _, consumer := range d.roundChangedConsumers {
		d.deliver(func() { consumer(round) })
	}
	for _, consumer := range d.consumers {
		consumer := consumer
		d.deliver(func() { consumer.OnRoundChanged(round) })
	}
}

// deliver invokes one consumer callback, recovering a panic so that a
// faulty consumer cannot abort the block pipeline.
func (d *Distributor) deliver(call func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error().Interface("panic", r).Msg("round event consumer panicked")
		}
	}()
	call()
}
