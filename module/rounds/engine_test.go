package rounds_test

import (
	"testing"

	"github.com/dgraph-io/badger/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberchain/ember-go/config"
	"github.com/emberchain/ember-go/model/ember"
	"github.com/emberchain/ember-go/module/appstate"
	"github.com/emberchain/ember-go/module/metrics"
	"github.com/emberchain/ember-go/module/rounds"
	"github.com/emberchain/ember-go/storage"
	bstorage "github.com/emberchain/ember-go/storage/badger"
	"github.com/emberchain/ember-go/storage/badger/transaction"
	"github.com/emberchain/ember-go/utils/unittest"
)

// fixedSlate authorizes a fixed list of delegates for every round, so
// scenarios control exactly who is expected to forge.
type fixedSlate struct {
	list ember.PublicKeyList
}

func (f fixedSlate) GenerateList(height uint64) (ember.PublicKeyList, error) {
	return f.list, nil
}

// eventRecorder collects the emitted lifecycle events.
type eventRecorder struct {
	rounds.NoopConsumer
	finished []uint64
	reverted []uint64
	changed  []uint64
}

func (r *eventRecorder) OnFinishRound(round uint64) {
	r.finished = append(r.finished, round)
}

func (r *eventRecorder) OnRoundBackwardTick(block *ember.Block) {
	r.reverted = append(r.reverted, block.Height)
}

func (r *eventRecorder) OnRoundChanged(round uint64) {
	r.changed = append(r.changed, round)
}

// harness wires a round engine against real badger stores with a fixed
// delegate table: delegate i is the authorized forger of slot i.
type harness struct {
	cfg       config.Config
	state     *appstate.State
	accounts  *bstorage.Accounts
	blocks    *bstorage.Blocks
	engine    *rounds.Engine
	events    *eventRecorder
	delegates []*ember.Delegate
	db        *badger.DB
}

const (
	testFunds   = int64(100_000_000_000)
	testTopVote = int64(99_890_000_000 - 1)
	testReward  = int64(1_500_000_000)
)

func newHarness(t *testing.T, db *badger.DB, n int) *harness {
	cfg := config.Default()
	cfg.ActiveDelegates = uint64(n)
	cfg.RewardSchedule = []config.RewardMilestone{
		{Height: 1, Reward: 0},
		{Height: 2, Reward: testReward},
	}

	table := unittest.DelegateTableFixture(n, testFunds, testTopVote)
	accounts := bstorage.NewAccounts(db)
	for _, delegate := range table {
		require.NoError(t, accounts.Save(delegate))
	}

	state := appstate.New()
	blocks := bstorage.NewBlocks(db, cfg)
	events := &eventRecorder{}
	engine := rounds.New(
		zerolog.Nop(),
		metrics.NewNoopCollector(),
		cfg,
		state,
		accounts,
		blocks,
		fixedSlate{list: ember.DelegateList(table).PublicKeys()},
		events,
	)
	return &harness{
		cfg:       cfg,
		state:     state,
		accounts:  accounts,
		blocks:    blocks,
		engine:    engine,
		events:    events,
		delegates: table,
		db:        db,
	}
}

func (h *harness) mine(t *testing.T, block *ember.Block) {
	require.NoError(t, h.blocks.Store(block))
	err := transaction.Update(h.db, func(tx *transaction.Tx) error {
		return h.engine.Tick(block, tx)
	})
	require.NoError(t, err)
}

func (h *harness) revert(t *testing.T, block *ember.Block, previous *ember.Block) {
	err := transaction.Update(h.db, func(tx *transaction.Tx) error {
		return h.engine.BackwardTick(block, previous, tx)
	})
	require.NoError(t, err)
}

// mineRound mines all slots of the given round in order, delegate i
// forging slot i. The total fee is put entirely on the first block of
// the round.
func (h *harness) mineRound(t *testing.T, round uint64, totalFees int64) []*ember.Block {
	n := h.cfg.ActiveDelegates
	first := (round-1)*n + 1
	blocks := make([]*ember.Block, 0, n)
	for slot := uint64(0); slot < n; slot++ {
		fee := int64(0)
		if slot == 0 {
			fee = totalFees
		}
		block := unittest.BlockFixture(first+slot, h.delegates[slot].PublicKey,
			unittest.WithTotalFee(fee),
			unittest.WithReward(testReward),
		)
		h.mine(t, block)
		blocks = append(blocks, block)
	}
	return blocks
}

// snapshot captures the full delegate table keyed by address.
func (h *harness) snapshot(t *testing.T) map[string]ember.Delegate {
	list, err := h.accounts.Delegates(storage.DelegateFilter{})
	require.NoError(t, err)
	table := make(map[string]ember.Delegate, len(list))
	for _, delegate := range list {
		table[delegate.Address] = *delegate
	}
	return table
}

func requireSameState(t *testing.T, expected, actual map[string]ember.Delegate) {
	if diff := cmp.Diff(expected, actual, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("delegate tables differ (-expected +actual):\n%s", diff)
	}
}

// Round-end settlement: every delegate ends with its reward plus the
// even fee share, the last forger additionally receives the remainder.
func TestRoundEndBalances(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 101)

		totalFees := int64(10_000_000)
		h.mineRound(t, 2, totalFees)

		perShare := int64(99009)
		remainder := int64(91)
		require.Equal(t, totalFees, perShare*101+remainder)

		table := h.snapshot(t)
		for i, delegate := range h.delegates {
			account := table[delegate.Address]
			expected := testFunds + testReward + perShare
			if i == 100 {
				expected += remainder
			}
			assert.Equal(t, expected, account.Balance, "delegate %d", i+1)
			assert.Equal(t, expected, account.UBalance, "delegate %d", i+1)
			assert.Equal(t, uint32(1), account.ProducedBlocks, "delegate %d", i+1)
			assert.Equal(t, uint32(0), account.MissedBlocks, "delegate %d", i+1)
			assert.Equal(t, testReward, account.Rewards, "delegate %d", i+1)
			assert.Equal(t, []uint64{2}, account.Rounds, "delegate %d", i+1)
		}
	})
}

// Ranks follow vote order: genesisDelegate i keeps vote topVote-(i-1)
// and rank i after the round settles.
func TestRankAfterRoundEnd(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 101)
		h.mineRound(t, 2, 10_000_000)

		list, err := h.accounts.Delegates(storage.DelegateFilter{})
		require.NoError(t, err)
		require.Len(t, list, 101)
		for i, delegate := range list {
			assert.Equal(t, uint32(i+1), delegate.Rank)
			assert.Equal(t, int64(99_890_000_000)-int64(i+1), delegate.Vote)
		}
	})
}

// Conservation: the settlement credits sum to exactly the round's fees
// plus rewards.
func TestRoundEndConservation(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		before := h.snapshot(t)
		h.mineRound(t, 2, 10_000_007)

		var delta int64
		for address, account := range h.snapshot(t) {
			delta += account.Balance - before[address].Balance
		}
		assert.Equal(t, int64(10_000_007)+5*testReward, delta)
	})
}

// Rollback idempotence: reverting the round-closing block restores the
// delegate table bit for bit.
func TestTickBackwardTickRestoresState(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		n := h.cfg.ActiveDelegates
		blocks := make([]*ember.Block, 0, n)
		for slot := uint64(0); slot < n-1; slot++ {
			block := unittest.BlockFixture(n+1+slot, h.delegates[slot].PublicKey,
				unittest.WithTotalFee(1000), unittest.WithReward(testReward))
			h.mine(t, block)
			blocks = append(blocks, block)
		}
		preTick := h.snapshot(t)

		last := unittest.BlockFixture(2*n, h.delegates[n-1].PublicKey,
			unittest.WithTotalFee(1000), unittest.WithReward(testReward))
		h.mine(t, last)
		h.revert(t, last, blocks[len(blocks)-1])

		requireSameState(t, preTick, h.snapshot(t))
	})
}

// End + delete + end: re-applying a reverted round-closing block yields
// the same state as applying it once.
func TestTickRevertTickIsIdempotent(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		n := h.cfg.ActiveDelegates
		var previous *ember.Block
		for slot := uint64(0); slot < n-1; slot++ {
			block := unittest.BlockFixture(n+1+slot, h.delegates[slot].PublicKey,
				unittest.WithTotalFee(77), unittest.WithReward(testReward))
			h.mine(t, block)
			previous = block
		}

		last := unittest.BlockFixture(2*n, h.delegates[n-1].PublicKey,
			unittest.WithTotalFee(77), unittest.WithReward(testReward))
		h.mine(t, last)
		single := h.snapshot(t)

		h.revert(t, last, previous)
		err := transaction.Update(h.db, func(tx *transaction.Tx) error {
			return h.engine.Tick(last, tx)
		})
		require.NoError(t, err)

		requireSameState(t, single, h.snapshot(t))
	})
}

// End + 2 delete + 2 mine: reverting past the round boundary and mining
// back equals the single-shot application.
func TestDoubleRevertRemine(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		n := h.cfg.ActiveDelegates
		var blocks []*ember.Block
		for slot := uint64(0); slot < n; slot++ {
			block := unittest.BlockFixture(n+1+slot, h.delegates[slot].PublicKey,
				unittest.WithTotalFee(123), unittest.WithReward(testReward))
			h.mine(t, block)
			blocks = append(blocks, block)
		}
		single := h.snapshot(t)

		last, beforeLast := blocks[n-1], blocks[n-2]
		h.revert(t, last, beforeLast)
		h.revert(t, beforeLast, blocks[n-3])

		for _, block := range []*ember.Block{beforeLast, last} {
			err := transaction.Update(h.db, func(tx *transaction.Tx) error {
				return h.engine.Tick(block, tx)
			})
			require.NoError(t, err)
		}

		requireSameState(t, single, h.snapshot(t))
	})
}

// Full-round symmetry: mining a complete round and reverting every
// block restores the pre-round state.
func TestFullRoundRollbackSymmetry(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		preRound := h.snapshot(t)
		blocks := h.mineRound(t, 2, 999_983)

		for i := len(blocks) - 1; i >= 0; i-- {
			previous := unittest.BlockFixture(blocks[i].Height-1, h.delegates[0].PublicKey)
			if i > 0 {
				previous = blocks[i-1]
			}
			h.revert(t, blocks[i], previous)
		}

		requireSameState(t, preRound, h.snapshot(t))
	})
}

// Outsiders: slate members that forged no slot get a missed block;
// reverting the round end takes it back.
func TestOutsiders(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		// delegate 0 forges the last slot in place of delegate 4
		n := h.cfg.ActiveDelegates
		var blocks []*ember.Block
		for slot := uint64(0); slot < n; slot++ {
			forger := h.delegates[slot]
			if slot == n-1 {
				forger = h.delegates[0]
			}
			block := unittest.BlockFixture(n+1+slot, forger.PublicKey, unittest.WithReward(testReward))
			h.mine(t, block)
			blocks = append(blocks, block)
		}

		outsider, err := h.accounts.ByPublicKey(h.delegates[n-1].PublicKey)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), outsider.MissedBlocks)
		assert.Equal(t, uint32(0), outsider.ProducedBlocks)

		forger, err := h.accounts.ByPublicKey(h.delegates[0].PublicKey)
		require.NoError(t, err)
		assert.Equal(t, uint32(2), forger.ProducedBlocks)

		h.revert(t, blocks[n-1], blocks[n-2])
		outsider, err = h.accounts.ByPublicKey(h.delegates[n-1].PublicKey)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), outsider.MissedBlocks)
	})
}

// The genesis height settles alone, with no fees, no rewards and no
// outsiders.
func TestGenesisTick(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		genesis := unittest.BlockFixture(1, h.delegates[0].PublicKey)
		before := h.snapshot(t)
		h.mine(t, genesis)

		table := h.snapshot(t)
		account := table[h.delegates[0].Address]
		assert.Equal(t, uint32(1), account.ProducedBlocks)
		assert.Equal(t, before[h.delegates[0].Address].Balance, account.Balance)
		for _, delegate := range h.delegates[1:] {
			assert.Equal(t, uint32(0), table[delegate.Address].MissedBlocks)
		}
		assert.Equal(t, []uint64{1}, h.events.finished)
	})
}

// Lifecycle events fire in order: finishRound only at the round end,
// roundChanged only after the settling transaction committed.
func TestLifecycleEvents(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		blocks := h.mineRound(t, 2, 1000)
		assert.Equal(t, []uint64{2}, h.events.finished)
		assert.Equal(t, []uint64{3}, h.events.changed)

		h.revert(t, blocks[4], blocks[3])
		assert.Equal(t, []uint64{10}, h.events.reverted)

		h.engine.OnBlockchainReady()
		assert.True(t, h.state.RoundsLoaded())
		require.NoError(t, h.engine.Cleanup())
		assert.False(t, h.state.RoundsLoaded())
	})
}

// An aborted transaction leaves no trace: the engine queues ops but the
// caller still owns the commit decision.
func TestAbortedTransactionHasNoEffect(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		for slot := uint64(0); slot < 4; slot++ {
			block := unittest.BlockFixture(6+slot, h.delegates[slot].PublicKey, unittest.WithReward(testReward))
			h.mine(t, block)
		}
		before := h.snapshot(t)

		last := unittest.BlockFixture(10, h.delegates[4].PublicKey, unittest.WithReward(testReward))
		require.NoError(t, h.blocks.Store(last))

		abort := assert.AnError
		err := transaction.Update(h.db, func(tx *transaction.Tx) error {
			err := h.engine.Tick(last, tx)
			require.NoError(t, err)
			return abort
		})
		require.ErrorIs(t, err, abort)

		// the finishRound event fired, but no state change survived and
		// no roundChanged notification was delivered
		requireSameState(t, before, h.snapshot(t))
		assert.Equal(t, []uint64{2}, h.events.finished)
		assert.Empty(t, h.events.changed)
		assert.False(t, h.state.RoundsTicking())
	})
}

// Overlapping ticks are rejected and do not clear the foreign flag.
func TestOverlappingTickRejected(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)
		h.state.SetRoundsTicking(true)

		block := unittest.BlockFixture(6, h.delegates[0].PublicKey)
		require.NoError(t, h.blocks.Store(block))
		err := transaction.Update(h.db, func(tx *transaction.Tx) error {
			return h.engine.Tick(block, tx)
		})
		require.Error(t, err)
		assert.True(t, rounds.IsInvariantViolationError(err))
		assert.True(t, h.state.RoundsTicking())
	})
}

// The ticking flag clears on the error path.
func TestTickingFlagClearsOnError(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		// the block's generator has no account, so the merge must fail
		block := unittest.BlockFixture(6, unittest.PublicKeyFixture())
		require.NoError(t, h.blocks.Store(block))
		err := transaction.Update(h.db, func(tx *transaction.Tx) error {
			return h.engine.Tick(block, tx)
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.False(t, h.state.RoundsTicking())
	})
}

// A block whose reward contradicts the milestone schedule must not
// settle: the sum escalates to an invariant violation.
func TestRewardMismatchHaltsSettlement(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)

		for slot := uint64(0); slot < 4; slot++ {
			block := unittest.BlockFixture(6+slot, h.delegates[slot].PublicKey, unittest.WithReward(testReward))
			h.mine(t, block)
		}
		before := h.snapshot(t)

		forged := unittest.BlockFixture(10, h.delegates[4].PublicKey, unittest.WithReward(testReward+1))
		require.NoError(t, h.blocks.Store(forged))
		err := transaction.Update(h.db, func(tx *transaction.Tx) error {
			return h.engine.Tick(forged, tx)
		})
		require.Error(t, err)
		assert.True(t, rounds.IsInvariantViolationError(err))
		assert.ErrorIs(t, err, storage.ErrDataMismatch)
		assert.False(t, h.state.RoundsTicking())

		requireSameState(t, before, h.snapshot(t))
	})
}

// Snapshot mode truncates the blocks above the settled round boundary.
func TestSnapshotTruncation(t *testing.T) {
	unittest.RunWithBadgerDB(t, func(db *badger.DB) {
		h := newHarness(t, db, 5)
		h.state.SetRoundsSnapshot(2)

		for slot := uint64(0); slot < 4; slot++ {
			block := unittest.BlockFixture(6+slot, h.delegates[slot].PublicKey, unittest.WithReward(testReward))
			h.mine(t, block)
		}

		// a stray block above the boundary is dropped by the settlement
		stray := unittest.BlockFixture(11, h.delegates[0].PublicKey)
		require.NoError(t, h.blocks.Store(stray))

		last := unittest.BlockFixture(10, h.delegates[4].PublicKey, unittest.WithReward(testReward))
		h.mine(t, last)

		_, err := h.blocks.ByHeight(11)
		require.ErrorIs(t, err, storage.ErrNotFound)
		kept, err := h.blocks.ByHeight(10)
		require.NoError(t, err)
		assert.Equal(t, last.ID, kept.ID)
	})
}
