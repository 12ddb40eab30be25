package rounds

import (
	"github.com/emberchain/ember-go/model/ember"
)

// Consumer defines the set of events emitted by the round lifecycle.
// Consumer implementations must be non-blocking: delivery is
// best-effort and a consumer can never interfere with the commit of the
// transaction that produced the event.
type Consumer interface {

	// OnFinishRound is called after all settlement operations of the
	// round have been queued into the transaction. The transaction may
	// still be aborted by the caller.
	OnFinishRound(round uint64)

	// OnRoundBackwardTick is called when a block's round-level effects
	// are about to be reverted.
	OnRoundBackwardTick(block *ember.Block)

	// OnRoundChanged is called after the transaction settling the round
	// has committed. It feeds the external real-time channel.
	OnRoundChanged(round uint64)
}

// NoopConsumer ignores all events. Embed it to implement a subset of
// the Consumer interface.
type NoopConsumer struct{}

func (NoopConsumer) OnFinishRound(round uint64) {}

func (NoopConsumer) OnRoundBackwardTick(block *ember.Block) {}

func (NoopConsumer) OnRoundChanged(round uint64) {}

// DelegatesProvider returns the ordered slate of public keys authorized
// to forge the slots of the round containing the given height.
type DelegatesProvider interface {
	GenerateList(height uint64) (ember.PublicKeyList, error)
}
