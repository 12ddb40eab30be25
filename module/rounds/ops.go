package rounds

import (
	"fmt"

	roundmath "github.com/emberchain/ember-go/consensus/rounds"
	"github.com/emberchain/ember-go/model/ember"
)

// OpKind discriminates the closed set of database operations a tick can
// emit.
type OpKind uint8

const (
	// OpMergeAccount applies an additive diff to a delegate account row.
	OpMergeAccount OpKind = iota + 1
	// OpMarkBlockID stamps a height with the block id that caused the
	// round transition.
	OpMarkBlockID
	// OpTruncateBlocks drops all blocks at or above a height. Emitted
	// only in snapshot mode.
	OpTruncateBlocks
)

// Op is one typed database operation of a tick. Ops are data, not
// closures, so tests can introspect a batch before it executes and the
// executor can handle the op set exhaustively.
type Op struct {
	Kind    OpKind
	Address string            // OpMergeAccount
	Diff    ember.AccountDiff // OpMergeAccount
	Height  uint64            // OpMarkBlockID: stamped height; OpTruncateBlocks: first dropped height
	BlockID ember.Identifier  // OpMarkBlockID
}

// Context carries everything needed to build the ordered operation
// sequence of one tick: the block being applied or reverted, the round
// aggregation when the round settles, and the resolved outsiders.
type Context struct {
	Round       uint64
	Backwards   bool
	FinishRound bool
	DPoSV2      bool
	N           uint64
	Block       *ember.Block

	// settlement inputs, populated only when FinishRound
	RoundFees      int64
	RoundRewards   []int64
	RoundDelegates ember.PublicKeyList
	RoundOutsiders []string

	// AddressOf resolves a public key to its account address.
	AddressOf func(ember.PublicKey) string
}

// Ops builds the ordered operation sequence of the tick:
// the generator merge, then the settlement (or its exact reversal),
// then the block id stamp, then — only when the settled round equals
// the active snapshot round — the block truncation.
func (c *Context) Ops(snapshotRound uint64) ([]Op, error) {
	ops := []Op{c.mergeBlockGenerator()}

	if c.FinishRound {
		var settlement []Op
		var err error
		if c.Backwards {
			settlement, err = c.undo()
		} else {
			settlement, err = c.apply()
		}
		if err != nil {
			return nil, err
		}
		ops = append(ops, settlement...)
	}

	ops = append(ops, Op{
		Kind:    OpMarkBlockID,
		Height:  c.Block.Height,
		BlockID: c.Block.ID,
	})

	if snapshotRound != 0 && c.Round == snapshotRound && c.FinishRound && !c.Backwards {
		ops = append(ops, Op{
			Kind:   OpTruncateBlocks,
			Height: roundmath.LastInRound(c.Round, c.N) + 1,
		})
	}

	return ops, nil
}

// mergeBlockGenerator credits the block's generator with one produced
// block and accumulates the block's fee and reward into the cumulative
// counters. Balances are untouched here; they settle at round end.
func (c *Context) mergeBlockGenerator() Op {
	round := c.Round
	diff := ember.AccountDiff{
		ProducedBlocks: 1,
		Fees:           c.Block.TotalFee,
		Rewards:        c.Block.Reward,
		PushRound:      &round,
	}
	if c.Backwards {
		diff = diff.Negated()
	}
	return Op{
		Kind:    OpMergeAccount,
		Address: c.AddressOf(c.Block.GeneratorPublicKey),
		Diff:    diff,
	}
}

// apply settles the round forward: every forging delegate receives its
// fee share plus the reward of its slot, the last forger additionally
// receives the fee remainder, and every outsider's missed counter
// increments.
func (c *Context) apply() ([]Op, error) {
	shares, err := c.slotShares()
	if err != nil {
		return nil, err
	}

	ops := make([]Op, 0, len(shares)+len(c.RoundOutsiders))
	for i, delegate := range c.RoundDelegates {
		ops = append(ops, Op{
			Kind:    OpMergeAccount,
			Address: c.AddressOf(delegate),
			Diff: ember.AccountDiff{
				Balance:  shares[i],
				UBalance: shares[i],
			},
		})
	}
	for _, outsider := range c.RoundOutsiders {
		ops = append(ops, Op{
			Kind:    OpMergeAccount,
			Address: outsider,
			Diff:    ember.AccountDiff{MissedBlocks: 1},
		})
	}
	return ops, nil
}

// undo emits the exact negation of apply in reverse order: outsider
// decrements first, then the per-slot credits in reversed index order,
// so that any intermediate read of persisted state is valid.
func (c *Context) undo() ([]Op, error) {
	forward, err := c.apply()
	if err != nil {
		return nil, err
	}
	reversed := make([]Op, 0, len(forward))
	for i := len(forward) - 1; i >= 0; i-- {
		op := forward[i]
		op.Diff = op.Diff.Negated()
		reversed = append(reversed, op)
	}
	return reversed, nil
}

// slotShares computes the settlement amount of every forging slot:
// floor(roundFees / N) plus the slot's reward, with the fee remainder
// added to the last slot.
func (c *Context) slotShares() ([]int64, error) {
	if len(c.RoundRewards) != len(c.RoundDelegates) {
		return nil, NewInvariantViolationErrorf(
			"round %d has %d rewards for %d delegates", c.Round, len(c.RoundRewards), len(c.RoundDelegates))
	}

	perDelegate, remainder := roundmath.SplitFees(c.RoundFees, int64(c.N))

	shares := make([]int64, len(c.RoundDelegates))
	for i := range c.RoundDelegates {
		share, err := ember.AddInt64(perDelegate, c.RoundRewards[i])
		if err != nil {
			return nil, NewInvariantViolationErrorf("share of slot %d in round %d: %w", i, c.Round, err)
		}
		if i == len(c.RoundDelegates)-1 {
			share, err = ember.AddInt64(share, remainder)
			if err != nil {
				return nil, NewInvariantViolationErrorf("remainder of round %d: %w", c.Round, err)
			}
		}
		shares[i] = share
	}
	return shares, nil
}

func (k OpKind) String() string {
	switch k {
	case OpMergeAccount:
		return "merge_account"
	case OpMarkBlockID:
		return "mark_block_id"
	case OpTruncateBlocks:
		return "truncate_blocks"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}
