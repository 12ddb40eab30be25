// Package rounds provides the pure arithmetic partitioning the block
// height line into fixed-size rounds of n active delegates.
//
// Heights are 1-based. Round r covers heights (r-1)*n+1 .. r*n. Height 1
// carries the genesis block and additionally counts as its own
// round-finishing event, so callers observe two settlements for round 1.
package rounds

// RoundOf returns the round the given height belongs to.
func RoundOf(height uint64, n uint64) uint64 {
	return (height + n - 1) / n
}

// FirstInRound returns the first height of the given round.
func FirstInRound(round uint64, n uint64) uint64 {
	return (round-1)*n + 1
}

// LastInRound returns the last height of the given round.
func LastInRound(round uint64, n uint64) uint64 {
	return round * n
}

// IsRoundEnd reports whether settling happens at the given height:
// either the next height starts a new round, or the height is the
// genesis height.
func IsRoundEnd(height uint64, n uint64) bool {
	return RoundOf(height, n) != RoundOf(height+1, n) || height == 1
}

// SplitFees divides the round's total fees evenly across n delegates.
// The remainder that does not divide evenly is awarded to the round's
// last forger so that no satoshi is created or destroyed.
func SplitFees(totalFees int64, n int64) (perDelegate int64, remainder int64) {
	perDelegate = totalFees / n
	remainder = totalFees - perDelegate*n
	return
}
