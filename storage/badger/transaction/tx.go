// Package transaction wraps a badger transaction with callbacks that
// run if and only if the transaction commits successfully. Database
// operations and the side effects depending on their durability are
// declared together, while the commit decision stays with the caller.
package transaction

import (
	"github.com/dgraph-io/badger/v2"
)

// Tx wraps a badger transaction and a list of callbacks executed after
// the transaction has committed successfully.
type Tx struct {
	DBTxn     *badger.Txn
	callbacks []func()
}

// OnSucceed adds a callback to be executed after the transaction has
// committed successfully. Callbacks run in the order they were added.
func (b *Tx) OnSucceed(callback func()) {
	b.callbacks = append(b.callbacks, callback)
}

// Update creates a badger transaction, passes it to the given function,
// and commits it if the function succeeds. Success callbacks run after
// the commit; on any error the transaction is discarded and no callback
// runs.
func Update(db *badger.DB, f func(*Tx) error) error {
	dbTxn := db.NewTransaction(true)
	defer dbTxn.Discard()

	tx := &Tx{DBTxn: dbTxn}
	err := f(tx)
	if err != nil {
		return err
	}

	err = dbTxn.Commit()
	if err != nil {
		return err
	}

	for _, callback := range tx.callbacks {
		callback()
	}
	return nil
}

// View creates a read-only badger transaction and passes it to the
// given function.
func View(db *badger.DB, f func(*Tx) error) error {
	dbTxn := db.NewTransaction(false)
	defer dbTxn.Discard()

	tx := &Tx{DBTxn: dbTxn}
	return f(tx)
}
