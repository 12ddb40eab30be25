package operation

import (
	"github.com/dgraph-io/badger/v2"

	"github.com/emberchain/ember-go/model/ember"
)

func InsertBlock(block *ember.Block) func(*badger.Txn) error {
	return insert(makePrefix(codeBlock, block.Height), block)
}

func RetrieveBlock(height uint64, block *ember.Block) func(*badger.Txn) error {
	return retrieve(makePrefix(codeBlock, height), block)
}

func RemoveBlock(height uint64) func(*badger.Txn) error {
	return remove(makePrefix(codeBlock, height))
}

// IndexBlockHeight indexes the block's height by its ID.
func IndexBlockHeight(blockID ember.Identifier, height uint64) func(*badger.Txn) error {
	return insert(makePrefix(codeBlockIndex, blockID), height)
}

// LookupBlockHeight retrieves a block height by the block's ID.
func LookupBlockHeight(blockID ember.Identifier, height *uint64) func(*badger.Txn) error {
	return retrieve(makePrefix(codeBlockIndex, blockID), height)
}

func RemoveBlockIndex(blockID ember.Identifier) func(*badger.Txn) error {
	return remove(makePrefix(codeBlockIndex, blockID))
}

// StampRound records the id of the block that caused the round
// transition at the given height. Replays of the same transition
// overwrite the stamp with the same value.
func StampRound(height uint64, blockID ember.Identifier) func(*badger.Txn) error {
	return upsert(makePrefix(codeRoundStamp, height), blockID)
}

// RetrieveRoundStamp retrieves the id of the block that last caused a
// round transition at the given height.
func RetrieveRoundStamp(height uint64, blockID *ember.Identifier) func(*badger.Txn) error {
	return retrieve(makePrefix(codeRoundStamp, height), blockID)
}
