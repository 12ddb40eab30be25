package badger

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v2"

	"github.com/emberchain/ember-go/config"
	"github.com/emberchain/ember-go/consensus/rounds"
	"github.com/emberchain/ember-go/model/ember"
	"github.com/emberchain/ember-go/storage"
	"github.com/emberchain/ember-go/storage/badger/operation"
)

// Blocks is the badger-backed block store. It holds the chain constants
// so that round sums can check every persisted reward against the
// milestone schedule.
type Blocks struct {
	db  *badger.DB
	cfg config.Config
}

var _ storage.Blocks = (*Blocks)(nil)

func NewBlocks(db *badger.DB, cfg config.Config) *Blocks {
	return &Blocks{db: db, cfg: cfg}
}

func (b *Blocks) Store(block *ember.Block) error {
	return b.db.Update(func(tx *badger.Txn) error {
		err := operation.InsertBlock(block)(tx)
		if err != nil {
			return fmt.Errorf("could not insert block %d: %w", block.Height, err)
		}
		err = operation.IndexBlockHeight(block.ID, block.Height)(tx)
		if err != nil {
			return fmt.Errorf("could not index block %d: %w", block.Height, err)
		}
		return nil
	})
}

func (b *Blocks) ByHeight(height uint64) (*ember.Block, error) {
	var block ember.Block
	err := b.db.View(operation.RetrieveBlock(height, &block))
	if err != nil {
		return nil, fmt.Errorf("could not retrieve block %d: %w", height, err)
	}
	return &block, nil
}

func (b *Blocks) ByID(blockID ember.Identifier) (*ember.Block, error) {
	var block ember.Block
	err := b.db.View(func(tx *badger.Txn) error {
		var height uint64
		err := operation.LookupBlockHeight(blockID, &height)(tx)
		if err != nil {
			return fmt.Errorf("could not look up block %s: %w", blockID, err)
		}
		return operation.RetrieveBlock(height, &block)(tx)
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

// SumRound reads the round's persisted blocks in height-ascending order
// inside the supplied transaction. Missing heights are skipped, so the
// genesis round sums only the blocks that exist at the time of the
// call. Every block's reward is checked against the milestone schedule
// and fee accumulation is checked; a mismatch or overflow is fatal.
func (b *Blocks) SumRound(n uint64, round uint64, txn *badger.Txn) (*storage.RoundSummary, error) {
	summary := &storage.RoundSummary{}

	first := rounds.FirstInRound(round, n)
	last := rounds.LastInRound(round, n)
	for height := first; height <= last; height++ {
		var block ember.Block
		err := operation.RetrieveBlock(height, &block)(txn)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("could not read block %d of round %d: %w", height, round, err)
		}

		if expected := b.cfg.RewardAt(height); block.Reward != expected {
			return nil, fmt.Errorf("block %d carries reward %d, schedule prescribes %d: %w",
				height, block.Reward, expected, storage.ErrDataMismatch)
		}

		fees := summary.Fees + block.TotalFee
		if fees < summary.Fees {
			return nil, fmt.Errorf("fee sum of round %d at height %d: %w", round, height, ember.ErrOverflow)
		}
		summary.Fees = fees
		summary.Rewards = append(summary.Rewards, block.Reward)
		summary.Delegates = append(summary.Delegates, block.GeneratorPublicKey)
	}

	return summary, nil
}

func (b *Blocks) MarkBlockIDOp(height uint64, blockID ember.Identifier) func(*badger.Txn) error {
	return operation.StampRound(height, blockID)
}

func (b *Blocks) RoundStamp(height uint64) (ember.Identifier, error) {
	var blockID ember.Identifier
	err := b.db.View(operation.RetrieveRoundStamp(height, &blockID))
	if err != nil {
		return ember.ZeroID, fmt.Errorf("could not retrieve round stamp %d: %w", height, err)
	}
	return blockID, nil
}

// TruncateFromOp drops every block at or above the given height,
// together with its ID index entry. Heights are walked upward until the
// first gap; block storage is contiguous.
func (b *Blocks) TruncateFromOp(height uint64) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		for h := height; ; h++ {
			var block ember.Block
			err := operation.RetrieveBlock(h, &block)(tx)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("could not read block %d for truncation: %w", h, err)
			}
			err = operation.RemoveBlock(h)(tx)
			if err != nil {
				return fmt.Errorf("could not remove block %d: %w", h, err)
			}
			err = operation.RemoveBlockIndex(block.ID)(tx)
			if err != nil {
				return fmt.Errorf("could not remove block index %s: %w", block.ID, err)
			}
		}
	}
}
