package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/emberchain/ember-go/model/ember"
)

func InsertDelegate(delegate *ember.Delegate) func(*badger.Txn) error {
	return insert(makePrefix(codeDelegate, delegate.Address), delegate)
}

func UpdateDelegate(delegate *ember.Delegate) func(*badger.Txn) error {
	return update(makePrefix(codeDelegate, delegate.Address), delegate)
}

func RetrieveDelegate(address string, delegate *ember.Delegate) func(*badger.Txn) error {
	return retrieve(makePrefix(codeDelegate, address), delegate)
}

// IndexDelegateAddress indexes a delegate's address by its public key.
func IndexDelegateAddress(publicKey ember.PublicKey, address string) func(*badger.Txn) error {
	return insert(makePrefix(codeDelegateAddress, publicKey), address)
}

// LookupDelegateAddress retrieves a delegate's address by public key.
func LookupDelegateAddress(publicKey ember.PublicKey, address *string) func(*badger.Txn) error {
	return retrieve(makePrefix(codeDelegateAddress, publicKey), address)
}

// TraverseDelegates iterates all delegate account rows, invoking the
// handler for each decoded row.
func TraverseDelegates(create createFunc, handle handleFunc) func(*badger.Txn) error {
	return iterate(makePrefix(codeDelegate), func() (createFunc, handleFunc) {
		return create, handle
	})
}
