// Package random provides the deterministic pseudo-random generators
// used by delegate slate generation. All nodes derive the same byte
// stream from the same seed, so every consumer of this package must be
// fed consensus-visible seed material only.
package random

import (
	"encoding/binary"
	"fmt"
)

// Rand is a deterministic pseudo random number generator.
type Rand interface {
	// Read fills the input slice with random bytes.
	Read([]byte)

	// UintN returns a random number in [0, n).
	UintN(uint64) uint64

	// Permutation returns a permutation of the set [0,n-1].
	Permutation(n int) ([]int, error)

	// Shuffle permutes an ordered data structure of size n in place.
	Shuffle(n int, swap func(i, j int)) error
}

// randCore provides the raw byte stream of a PRG. All other Rand
// methods are derived from it.
type randCore interface {
	Read([]byte)
}

// genericPRG implements the Rand methods on top of an embedded randCore.
type genericPRG struct {
	randCore
}

// UintN returns an uint64 pseudo-random number in [0,n-1].
func (p *genericPRG) UintN(n uint64) uint64 {
	buf := make([]byte, 8)
	p.Read(buf)
	return binary.LittleEndian.Uint64(buf) % n
}

// Permutation returns a permutation of the set [0,n-1].
//
// It implements Fisher-Yates Shuffle (inside-out variant) using `p` as
// a random source. O(n) space and O(n) time.
func (p *genericPRG) Permutation(n int) ([]int, error) {
	if n < 0 {
		return nil, fmt.Errorf("population size cannot be negative")
	}
	items := make([]int, n)
	for i := 0; i < n; i++ {
		j := p.UintN(uint64(i + 1))
		items[i] = items[j]
		items[j] = i
	}
	return items, nil
}

// Shuffle permutes the underlying structure in place.
//
// It implements Fisher-Yates Shuffle using `p` as a source of randoms.
// O(1) space and O(n) time.
func (p *genericPRG) Shuffle(n int, swap func(i, j int)) error {
	if n < 0 {
		return fmt.Errorf("population size cannot be negative")
	}
	for i := n - 1; i > 0; i-- {
		j := p.UintN(uint64(i + 1))
		swap(i, int(j))
	}
	return nil
}
