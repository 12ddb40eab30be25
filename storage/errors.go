package storage

import (
	"errors"
)

var (
	// ErrNotFound is returned when a requested entity does not exist.
	// Note: badger.ErrKeyNotFound is the error returned by the badger
	// API; modules in storage/badger and storage/badger/operation both
	// translate it into ErrNotFound.
	ErrNotFound = errors.New("key not found")

	// ErrAlreadyExists is returned when inserting an entity under a key
	// that is already populated.
	ErrAlreadyExists = errors.New("key already exists")

	// ErrDataMismatch is returned when stored data contradicts the
	// chain constants, e.g. a block reward diverging from the milestone
	// schedule.
	ErrDataMismatch = errors.New("data for key is different")
)
