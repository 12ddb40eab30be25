// Package rounds implements the round lifecycle engine: the forward and
// backward application of each block's round-level effects, including
// the settlement of fees and rewards at round boundaries.
//
// The engine emits typed database operations into the caller-supplied
// transaction and never commits itself; the block pipeline owns
// atomicity. Every transition is exactly reversible: applying a block's
// backward tick restores the persisted delegate state byte-for-byte.
package rounds

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v2"
	"github.com/rs/zerolog"

	roundmath "github.com/emberchain/ember-go/consensus/rounds"
	"github.com/emberchain/ember-go/config"
	"github.com/emberchain/ember-go/model/ember"
	"github.com/emberchain/ember-go/module"
	"github.com/emberchain/ember-go/module/appstate"
	"github.com/emberchain/ember-go/storage"
	"github.com/emberchain/ember-go/storage/badger/transaction"
)

// Engine drives the round lifecycle. The surrounding block pipeline
// serializes block application, so at most one tick is in flight; the
// ticking flag makes that assumption checkable.
type Engine struct {
	log       zerolog.Logger
	metrics   module.RoundsMetrics
	cfg       config.Config
	state     *appstate.State
	accounts  storage.Accounts
	blocks    storage.Blocks
	delegates DelegatesProvider
	consumer  Consumer
}

func New(
	log zerolog.Logger,
	metrics module.RoundsMetrics,
	cfg config.Config,
	state *appstate.State,
	accounts storage.Accounts,
	blocks storage.Blocks,
	delegates DelegatesProvider,
	consumer Consumer,
) *Engine {
	return &Engine{
		log:       log.With().Str("engine", "rounds").Logger(),
		metrics:   metrics,
		cfg:       cfg,
		state:     state,
		accounts:  accounts,
		blocks:    blocks,
		delegates: delegates,
		consumer:  consumer,
	}
}

// Tick applies the round-level effects of the given block inside the
// supplied transaction: the generator merge for every block, plus the
// full round settlement when the block closes a round. The finishRound
// event fires after all operations have been queued; the caller may
// still abort the transaction.
func (e *Engine) Tick(block *ember.Block, tx *transaction.Tx) error {
	started := time.Now()

	if !e.state.CompareAndSwapTicking(false, true) {
		return NewInvariantViolationErrorf("tick at height %d overlaps a tick in flight", block.Height)
	}
	defer e.state.SetRoundsTicking(false)

	ctx, err := e.buildContext(block, false, tx.DBTxn)
	if err != nil {
		return fmt.Errorf("could not build round context at height %d: %w", block.Height, err)
	}

	ops, err := ctx.Ops(e.state.RoundsSnapshot())
	if err != nil {
		return fmt.Errorf("could not build round ops at height %d: %w", block.Height, err)
	}

	err = e.execute(ops, tx.DBTxn)
	if err != nil {
		return fmt.Errorf("could not execute round ops at height %d: %w", block.Height, err)
	}

	if ctx.FinishRound {
		e.consumer.OnFinishRound(ctx.Round)
		e.metrics.RoundFinished(ctx.Round)

		next := roundmath.RoundOf(block.Height+1, e.cfg.ActiveDelegates)
		tx.OnSucceed(func() {
			e.consumer.OnRoundChanged(next)
		})
	}

	e.metrics.RoundTicked(block.Height, time.Since(started))
	e.log.Debug().
		Uint64("height", block.Height).
		Uint64("round", ctx.Round).
		Bool("finish_round", ctx.FinishRound).
		Int("ops", len(ops)).
		Msg("round tick applied")
	return nil
}

// BackwardTick reverts the round-level effects of the given block
// inside the supplied transaction. The block passed in is the one being
// reverted; after the transaction commits, the persisted delegate state
// equals the state at previous.Height.
func (e *Engine) BackwardTick(block *ember.Block, previous *ember.Block, tx *transaction.Tx) error {
	e.consumer.OnRoundBackwardTick(block)

	if previous.Height+1 != block.Height {
		return NewInvariantViolationErrorf(
			"backward tick of height %d against previous height %d", block.Height, previous.Height)
	}

	if !e.state.CompareAndSwapTicking(false, true) {
		return NewInvariantViolationErrorf("backward tick at height %d overlaps a tick in flight", block.Height)
	}
	defer e.state.SetRoundsTicking(false)

	ctx, err := e.buildContext(block, true, tx.DBTxn)
	if err != nil {
		return fmt.Errorf("could not build round context at height %d: %w", block.Height, err)
	}

	ops, err := ctx.Ops(0)
	if err != nil {
		return fmt.Errorf("could not build round ops at height %d: %w", block.Height, err)
	}

	err = e.execute(ops, tx.DBTxn)
	if err != nil {
		return fmt.Errorf("could not execute round ops at height %d: %w", block.Height, err)
	}

	e.metrics.RoundBackwardTicked(previous.Height)
	e.log.Debug().
		Uint64("height", block.Height).
		Uint64("round", ctx.Round).
		Bool("finish_round", ctx.FinishRound).
		Msg("round tick reverted")
	return nil
}

// OnBlockchainReady marks the round subsystem loaded. Called once by
// the pipeline bootstrap after the chain state is available.
func (e *Engine) OnBlockchainReady() {
	e.state.SetRoundsLoaded(true)
	e.log.Info().Msg("round lifecycle loaded")
}

// Cleanup releases the engine. It only clears the loaded flag; the
// stores are owned by the caller.
func (e *Engine) Cleanup() error {
	e.state.SetRoundsLoaded(false)
	return nil
}

// buildContext assembles the tick context: round arithmetic for every
// block, plus the round aggregation and the resolved outsiders when the
// block closes a round.
func (e *Engine) buildContext(block *ember.Block, backwards bool, txn *badger.Txn) (*Context, error) {
	n := e.cfg.ActiveDelegates
	round := roundmath.RoundOf(block.Height, n)

	ctx := &Context{
		Round:       round,
		Backwards:   backwards,
		FinishRound: roundmath.IsRoundEnd(block.Height, n),
		DPoSV2:      e.cfg.DPoSV2FirstHeight > 0 && block.Height >= e.cfg.DPoSV2FirstHeight,
		N:           n,
		Block:       block,
		AddressOf:   e.accounts.GenerateAddress,
	}
	if !ctx.FinishRound {
		return ctx, nil
	}

	summary, err := e.blocks.SumRound(n, round, txn)
	if errors.Is(err, storage.ErrDataMismatch) {
		return nil, NewInvariantViolationErrorf("round %d sum contradicts the chain constants: %w", round, err)
	}
	if err != nil {
		return nil, fmt.Errorf("could not sum round %d: %w", round, err)
	}

	// the genesis height settles alone: only the genesis block itself
	// participates, with no fees and no reward
	if block.Height == 1 && len(summary.Delegates) != 1 {
		summary = &storage.RoundSummary{
			Fees:      0,
			Rewards:   []int64{0},
			Delegates: ember.PublicKeyList{block.GeneratorPublicKey},
		}
	}

	ctx.RoundFees = summary.Fees
	ctx.RoundRewards = summary.Rewards
	ctx.RoundDelegates = summary.Delegates

	ctx.RoundOutsiders, err = e.outsiders(block, summary.Delegates)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

// outsiders resolves the addresses of the slate members that did not
// forge any slot of the round. The genesis settlement has no outsiders.
func (e *Engine) outsiders(block *ember.Block, generators ember.PublicKeyList) ([]string, error) {
	if block.Height == 1 {
		return nil, nil
	}

	slate, err := e.delegates.GenerateList(block.Height)
	if err != nil {
		return nil, fmt.Errorf("could not generate slate for height %d: %w", block.Height, err)
	}

	forged := generators.Lookup()
	var outsiders []string
	for _, expected := range slate {
		if _, ok := forged[expected.Hex()]; ok {
			continue
		}
		outsiders = append(outsiders, e.accounts.GenerateAddress(expected))
	}
	return outsiders, nil
}

// execute runs the typed ops in emission order inside the transaction.
// An overflow surfacing from the account merge indicates corrupt state
// and is escalated to an invariant violation.
func (e *Engine) execute(ops []Op, txn *badger.Txn) error {
	for i, op := range ops {
		var err error
		switch op.Kind {
		case OpMergeAccount:
			err = e.accounts.MergeOp(op.Address, op.Diff)(txn)
		case OpMarkBlockID:
			err = e.blocks.MarkBlockIDOp(op.Height, op.BlockID)(txn)
		case OpTruncateBlocks:
			err = e.blocks.TruncateFromOp(op.Height)(txn)
		default:
			return NewInvariantViolationErrorf("unknown op kind %d at index %d", op.Kind, i)
		}
		if errors.Is(err, ember.ErrOverflow) {
			return NewInvariantViolationErrorf("op %d (%s) on %s: %w", i, op.Kind, op.Address, err)
		}
		if err != nil {
			return fmt.Errorf("op %d (%s) failed: %w", i, op.Kind, err)
		}
	}
	return nil
}
