package pubsub

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/emberchain/ember-go/model/ember"
	"github.com/emberchain/ember-go/module/rounds"
)

type countingConsumer struct {
	rounds.NoopConsumer
	finished int
	reverted int
	changed  int
}

func (c *countingConsumer) OnFinishRound(round uint64) {
	c.finished++
}

func (c *countingConsumer) OnRoundBackwardTick(block *ember.Block) {
	c.reverted++
}

func (c *countingConsumer) OnRoundChanged(round uint64) {
	c.changed++
}

func TestDistributorFanOut(t *testing.T) {
	distributor := NewDistributor(zerolog.Nop())

	consumer := &countingConsumer{}
	distributor.AddConsumer(consumer)

	var finishedRounds []uint64
	distributor.AddOnFinishRoundConsumer(func(round uint64) {
		finishedRounds = append(finishedRounds, round)
	})
	var changedRounds []uint64
	distributor.AddOnRoundChangedConsumer(func(round uint64) {
		changedRounds = append(changedRounds, round)
	})

	distributor.OnFinishRound(4)
	distributor.OnRoundBackwardTick(&ember.Block{Height: 404})
	distributor.OnRoundChanged(5)

	assert.Equal(t, 1, consumer.finished)
	assert.Equal(t, 1, consumer.reverted)
	assert.Equal(t, 1, consumer.changed)
	assert.Equal(t, []uint64{4}, finishedRounds)
	assert.Equal(t, []uint64{5}, changedRounds)
}

func TestDistributorRecoversPanickingConsumer(t *testing.T) {
	distributor := NewDistributor(zerolog.Nop())

	distributor.AddOnFinishRoundConsumer(func(round uint64) {
		panic("faulty consumer")
	})
	survivor := &countingConsumer{}
	distributor.AddConsumer(survivor)

	assert.NotPanics(t, func() {
		distributor.OnFinishRound(1)
	})
	assert.Equal(t, 1, survivor.finished)
}
