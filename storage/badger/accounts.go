// Package badger implements the persistent stores of the round
// lifecycle on top of a badger key-value database.
package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/dgraph-io/badger/v2"
	"golang.org/x/crypto/sha3"

	"github.com/emberchain/ember-go/model/ember"
	"github.com/emberchain/ember-go/storage"
	"github.com/emberchain/ember-go/storage/badger/operation"
)

// Accounts is the badger-backed delegate account store.
type Accounts struct {
	db *badger.DB
}

var _ storage.Accounts = (*Accounts)(nil)

func NewAccounts(db *badger.DB) *Accounts {
	return &Accounts{db: db}
}

func (a *Accounts) Save(delegate *ember.Delegate) error {
	if delegate.Address == "" {
		delegate.Address = a.GenerateAddress(delegate.PublicKey)
	}
	return a.db.Update(func(tx *badger.Txn) error {
		err := operation.InsertDelegate(delegate)(tx)
		if err != nil {
			return fmt.Errorf("could not insert delegate %s: %w", delegate.Address, err)
		}
		err = operation.IndexDelegateAddress(delegate.PublicKey, delegate.Address)(tx)
		if err != nil {
			return fmt.Errorf("could not index delegate %s: %w", delegate.Address, err)
		}
		return nil
	})
}

func (a *Accounts) ByAddress(address string) (*ember.Delegate, error) {
	var delegate ember.Delegate
	err := a.db.View(operation.RetrieveDelegate(address, &delegate))
	if err != nil {
		return nil, fmt.Errorf("could not retrieve delegate %s: %w", address, err)
	}
	return &delegate, nil
}

func (a *Accounts) ByPublicKey(publicKey ember.PublicKey) (*ember.Delegate, error) {
	var delegate ember.Delegate
	err := a.db.View(func(tx *badger.Txn) error {
		var address string
		err := operation.LookupDelegateAddress(publicKey, &address)(tx)
		if err != nil {
			return fmt.Errorf("could not look up delegate %s: %w", publicKey, err)
		}
		return operation.RetrieveDelegate(address, &delegate)(tx)
	})
	if err != nil {
		return nil, err
	}
	return &delegate, nil
}

func (a *Accounts) Delegates(filter storage.DelegateFilter) (ember.DelegateList, error) {
	delegates, err := a.listDelegates(filter)
	if err != nil {
		return nil, err
	}
	return delegates.Sort(), nil
}

func (a *Accounts) listDelegates(filter storage.DelegateFilter) (ember.DelegateList, error) {
	var delegates ember.DelegateList
	var row *ember.Delegate
	err := a.db.View(operation.TraverseDelegates(
		func() interface{} {
			row = new(ember.Delegate)
			return row
		},
		func() error {
			if filter.VotersOnly && row.Vote <= 0 {
				return nil
			}
			if filter.WeightedOnly && row.VotesWeight <= 0 {
				return nil
			}
			if filter.ExcludeBanned && row.Banned {
				return nil
			}
			delegates = append(delegates, row)
			return nil
		},
	))
	if err != nil {
		return nil, fmt.Errorf("could not traverse delegates: %w", err)
	}
	return delegates, nil
}

// MergeOp returns the deferred read-modify-write applying the diff to
// the stored account row. The diff is applied with checked arithmetic;
// any overflow aborts the enclosing transaction.
func (a *Accounts) MergeOp(address string, diff ember.AccountDiff) func(*badger.Txn) error {
	return func(tx *badger.Txn) error {
		var delegate ember.Delegate
		err := operation.RetrieveDelegate(address, &delegate)(tx)
		if err != nil {
			return fmt.Errorf("could not retrieve delegate %s for merge: %w", address, err)
		}
		err = diff.Apply(&delegate)
		if err != nil {
			return fmt.Errorf("could not apply diff: %w", err)
		}
		err = operation.UpdateDelegate(&delegate)(tx)
		if err != nil {
			return fmt.Errorf("could not update delegate %s: %w", address, err)
		}
		return nil
	}
}

// GenerateAddress derives the account address from the public key: the
// first eight bytes of the key's SHA3-256 digest, read big-endian,
// rendered in decimal with the chain suffix.
func (a *Accounts) GenerateAddress(publicKey ember.PublicKey) string {
	digest := sha3.Sum256(publicKey[:])
	return fmt.Sprintf("%dE", binary.BigEndian.Uint64(digest[:8]))
}
