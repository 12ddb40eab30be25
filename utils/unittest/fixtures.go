package unittest

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/emberchain/ember-go/model/ember"
)

func IdentifierFixture() ember.Identifier {
	var id ember.Identifier
	_, _ = crand.Read(id[:])
	return id
}

func PublicKeyFixture() ember.PublicKey {
	var pk ember.PublicKey
	_, _ = crand.Read(pk[:])
	return pk
}

// PublicKeyForIndex returns a deterministic public key for the given
// delegate index, so that repeated fixture tables are comparable.
func PublicKeyForIndex(index int) ember.PublicKey {
	var pk ember.PublicKey
	binary.BigEndian.PutUint64(pk[24:], uint64(index+1))
	return pk
}

// DelegateFixture returns a delegate account with sensible defaults,
// modified by any number of options.
func DelegateFixture(options ...func(*ember.Delegate)) *ember.Delegate {
	delegate := &ember.Delegate{
		PublicKey:   PublicKeyFixture(),
		Username:    "delegate",
		Balance:     100_000_000_000,
		UBalance:    100_000_000_000,
		Vote:        1,
		VotesWeight: 1,
	}
	for _, option := range options {
		option(delegate)
	}
	return delegate
}

// DelegateTableFixture returns n delegate accounts named
// genesisDelegate1..n with votes offset by one satoshi each, the first
// highest. All start from the same funds.
func DelegateTableFixture(n int, funds int64, topVote int64) []*ember.Delegate {
	delegates := make([]*ember.Delegate, 0, n)
	for i := 0; i < n; i++ {
		index := i
		delegates = append(delegates, DelegateFixture(func(delegate *ember.Delegate) {
			delegate.PublicKey = PublicKeyForIndex(index)
			delegate.Username = fmt.Sprintf("genesisDelegate%d", index+1)
			delegate.Balance = funds
			delegate.UBalance = funds
			delegate.Vote = topVote - int64(index)
			delegate.VotesWeight = topVote - int64(index)
		}))
	}
	return delegates
}

// BlockFixture returns a block at the given height forged by the given
// delegate, modified by any number of options.
func BlockFixture(height uint64, generator ember.PublicKey, options ...func(*ember.Block)) *ember.Block {
	block := &ember.Block{
		Height:             height,
		ID:                 IdentifierFixture(),
		PayloadHash:        IdentifierFixture(),
		Timestamp:          height * 30,
		GeneratorPublicKey: generator,
	}
	for _, option := range options {
		option(block)
	}
	return block
}

func WithTotalFee(fee int64) func(*ember.Block) {
	return func(block *ember.Block) {
		block.TotalFee = fee
	}
}

func WithReward(reward int64) func(*ember.Block) {
	return func(block *ember.Block) {
		block.Reward = reward
	}
}

func WithPreviousID(previousID ember.Identifier) func(*ember.Block) {
	return func(block *ember.Block) {
		block.PreviousID = previousID
	}
}
