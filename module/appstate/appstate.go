// Package appstate exposes the small shared flags other subsystems read
// to observe the round lifecycle. Writers are fixed by convention: only
// the round engine writes the ticking flag, only the pipeline bootstrap
// writes the loaded flag, and only the snapshot command writes the
// snapshot round.
package appstate

import (
	"go.uber.org/atomic"
)

// State is the thread-visible flag set of the round lifecycle.
type State struct {
	roundsLoaded   atomic.Bool
	roundsTicking  atomic.Bool
	roundsSnapshot atomic.Uint64
}

func New() *State {
	return &State{}
}

// RoundsLoaded reports whether the round subsystem finished loading.
func (s *State) RoundsLoaded() bool {
	return s.roundsLoaded.Load()
}

func (s *State) SetRoundsLoaded(loaded bool) {
	s.roundsLoaded.Store(loaded)
}

// RoundsTicking reports whether a tick is currently in flight.
func (s *State) RoundsTicking() bool {
	return s.roundsTicking.Load()
}

// CompareAndSwapTicking atomically flips the ticking flag from old to
// new, reporting whether the swap happened.
func (s *State) CompareAndSwapTicking(old, new bool) bool {
	return s.roundsTicking.CompareAndSwap(old, new)
}

func (s *State) SetRoundsTicking(ticking bool) {
	s.roundsTicking.Store(ticking)
}

// RoundsSnapshot returns the snapshot target round, zero when snapshot
// mode is off.
func (s *State) RoundsSnapshot() uint64 {
	return s.roundsSnapshot.Load()
}

func (s *State) SetRoundsSnapshot(round uint64) {
	s.roundsSnapshot.Store(round)
}
