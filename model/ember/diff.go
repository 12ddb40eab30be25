package ember

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow is returned when applying a diff would overflow a
// monetary amount or underflow a counter. It indicates corrupt state
// and is fatal to the enclosing transition.
var ErrOverflow = errors.New("arithmetic overflow applying account diff")

// AccountDiff is a set of additive deltas against a delegate account.
// Every transition of the round lifecycle is expressed as a diff so
// that its exact negation undoes it.
type AccountDiff struct {
	Balance        int64
	UBalance       int64
	Vote           int64
	VotesWeight    int64
	Fees           int64
	Rewards        int64
	ProducedBlocks int32
	MissedBlocks   int32

	// PushRound appends the given round id to the account's audit
	// trail; PopRound removes it again. A pop asserts that the tail of
	// the trail equals the given round.
	PushRound *uint64
	PopRound  *uint64
}

// Negated returns the diff that exactly reverts this one.
func (d AccountDiff) Negated() AccountDiff {
	neg := AccountDiff{
		Balance:        -d.Balance,
		UBalance:       -d.UBalance,
		Vote:           -d.Vote,
		VotesWeight:    -d.VotesWeight,
		Fees:           -d.Fees,
		Rewards:        -d.Rewards,
		ProducedBlocks: -d.ProducedBlocks,
		MissedBlocks:   -d.MissedBlocks,
	}
	neg.PushRound, neg.PopRound = d.PopRound, d.PushRound
	return neg
}

// Apply mutates the delegate in place. All additions are checked; any
// overflow, counter underflow or audit trail mismatch returns an error
// wrapping ErrOverflow respectively a plain description, and leaves the
// caller to discard the mutated copy.
func (d AccountDiff) Apply(delegate *Delegate) error {
	var err error
	if delegate.Balance, err = AddInt64(delegate.Balance, d.Balance); err != nil {
		return fmt.Errorf("balance of %s: %w", delegate.Address, err)
	}
	if delegate.UBalance, err = AddInt64(delegate.UBalance, d.UBalance); err != nil {
		return fmt.Errorf("unconfirmed balance of %s: %w", delegate.Address, err)
	}
	if delegate.Vote, err = AddInt64(delegate.Vote, d.Vote); err != nil {
		return fmt.Errorf("vote of %s: %w", delegate.Address, err)
	}
	if delegate.VotesWeight, err = AddInt64(delegate.VotesWeight, d.VotesWeight); err != nil {
		return fmt.Errorf("votes weight of %s: %w", delegate.Address, err)
	}
	if delegate.Fees, err = AddInt64(delegate.Fees, d.Fees); err != nil {
		return fmt.Errorf("fees of %s: %w", delegate.Address, err)
	}
	if delegate.Rewards, err = AddInt64(delegate.Rewards, d.Rewards); err != nil {
		return fmt.Errorf("rewards of %s: %w", delegate.Address, err)
	}
	if delegate.ProducedBlocks, err = addCounter(delegate.ProducedBlocks, d.ProducedBlocks); err != nil {
		return fmt.Errorf("produced blocks of %s: %w", delegate.Address, err)
	}
	if delegate.MissedBlocks, err = addCounter(delegate.MissedBlocks, d.MissedBlocks); err != nil {
		return fmt.Errorf("missed blocks of %s: %w", delegate.Address, err)
	}
	if d.PushRound != nil {
		delegate.Rounds = append(delegate.Rounds, *d.PushRound)
	}
	if d.PopRound != nil {
		n := len(delegate.Rounds)
		if n == 0 || delegate.Rounds[n-1] != *d.PopRound {
			return fmt.Errorf("round audit trail of %s does not end in round %d", delegate.Address, *d.PopRound)
		}
		delegate.Rounds = delegate.Rounds[:n-1]
	}
	return nil
}

// AddInt64 returns a + b, or an error wrapping ErrOverflow if the sum
// does not fit in an int64.
func AddInt64(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("%d + %d: %w", a, b, ErrOverflow)
	}
	return sum, nil
}

func addCounter(a uint32, b int32) (uint32, error) {
	if b >= 0 {
		if uint64(a)+uint64(b) > math.MaxUint32 {
			return 0, fmt.Errorf("%d + %d: %w", a, b, ErrOverflow)
		}
		return a + uint32(b), nil
	}
	dec := uint32(-int64(b))
	if dec > a {
		return 0, fmt.Errorf("%d - %d: %w", a, dec, ErrOverflow)
	}
	return a - dec, nil
}
