package storage

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/emberchain/ember-go/model/ember"
)

// DelegateFilter restricts the delegate accounts returned by
// Accounts.Delegates.
type DelegateFilter struct {
	// VotersOnly keeps accounts with Vote > 0.
	VotersOnly bool
	// WeightedOnly keeps accounts with VotesWeight > 0.
	WeightedOnly bool
	// ExcludeBanned drops banned accounts.
	ExcludeBanned bool
}

// Accounts is the persistent storage for delegate accounts. The round
// lifecycle never creates or deletes accounts; registration is owned by
// the transaction pipeline.
type Accounts interface {

	// Save persists a new delegate account and indexes its address by
	// public key.
	// Error returns:
	//   - ErrAlreadyExists if the address is already registered
	Save(delegate *ember.Delegate) error

	// ByAddress returns the delegate with the given address.
	// Error returns:
	//   - ErrNotFound if the address is not registered
	ByAddress(address string) (*ember.Delegate, error)

	// ByPublicKey returns the delegate with the given public key.
	// Error returns:
	//   - ErrNotFound if the public key is not registered
	ByPublicKey(publicKey ember.PublicKey) (*ember.Delegate, error)

	// Delegates returns the accounts passing the filter, ordered by
	// vote descending with ascending public key as tie-break, with
	// ranks assigned 1..len.
	Delegates(filter DelegateFilter) (ember.DelegateList, error)

	// MergeOp returns a deferred operation applying the diff to the
	// account row inside a transaction. Diffs are queued, never applied
	// eagerly; the enclosing transaction is the unit of atomicity.
	// Error returns of the deferred operation:
	//   - ErrNotFound if the address is not registered
	//   - ember.ErrOverflow on monetary overflow or counter underflow
	MergeOp(address string, diff ember.AccountDiff) func(*badger.Txn) error

	// GenerateAddress derives the account address for a public key.
	// Pure; the same key always maps to the same address.
	GenerateAddress(publicKey ember.PublicKey) string
}
