package storage

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/emberchain/ember-go/model/ember"
)

// RoundSummary aggregates the persisted blocks of one round in
// height-ascending order: the sum of their fees, the reward of every
// slot, and the generator of every slot.
type RoundSummary struct {
	Fees      int64
	Rewards   []int64
	Delegates ember.PublicKeyList
}

// Blocks is the persistent storage for block rows, restricted to the
// fields the round lifecycle reads and writes.
type Blocks interface {

	// Store persists the block and indexes its height by ID.
	// Error returns:
	//   - ErrAlreadyExists if a block is already stored at the height
	Store(block *ember.Block) error

	// ByHeight returns the block stored at the given height.
	// Error returns:
	//   - ErrNotFound if no block is stored at the height
	ByHeight(height uint64) (*ember.Block, error)

	// ByID returns the block with the given ID.
	// Error returns:
	//   - ErrNotFound if no block with the ID is stored
	ByID(blockID ember.Identifier) (*ember.Block, error)

	// SumRound reads the persisted blocks of the given round of n
	// heights inside the supplied transaction, in height-ascending
	// order. Heights not yet persisted are skipped, so a partially
	// mined round (the genesis round in particular) sums only what
	// exists. Every block's reward is checked against the milestone
	// schedule of the chain constants.
	// Error returns:
	//   - ErrDataMismatch if a stored reward diverges from the schedule
	SumRound(n uint64, round uint64, txn *badger.Txn) (*RoundSummary, error)

	// MarkBlockIDOp returns a deferred operation stamping the given
	// height with the block id that caused the round transition,
	// enabling idempotent replay detection.
	MarkBlockIDOp(height uint64, blockID ember.Identifier) func(*badger.Txn) error

	// RoundStamp returns the id of the block that last caused a round
	// transition at the given height.
	// Error returns:
	//   - ErrNotFound if the height was never ticked
	RoundStamp(height uint64) (ember.Identifier, error)

	// TruncateFromOp returns a deferred operation dropping every block
	// at or above the given height. Used only in snapshot mode.
	TruncateFromOp(height uint64) func(*badger.Txn) error
}
