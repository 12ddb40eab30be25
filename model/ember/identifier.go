package ember

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Identifier is the 32-byte hash identifying a block.
type Identifier [32]byte

// ZeroID is the lowest value in the 32-byte ID space.
var ZeroID = Identifier{}

// HashToID converts a raw hash to an Identifier. Inputs shorter than 32
// bytes are zero-padded on the right.
func HashToID(hash []byte) Identifier {
	var id Identifier
	copy(id[:], hash)
	return id
}

// MakeID returns the SHA3-256 hash of the input bytes as an Identifier.
func MakeID(data []byte) Identifier {
	return Identifier(sha3.Sum256(data))
}

func (id Identifier) String() string {
	return hex.EncodeToString(id[:])
}

// HexStringToIdentifier parses a hex string into an Identifier.
func HexStringToIdentifier(s string) (Identifier, error) {
	var id Identifier
	n, err := hex.Decode(id[:], []byte(s))
	if err != nil {
		return id, err
	}
	if n != len(id) {
		return id, fmt.Errorf("malformed identifier: expected %d bytes, got %d", len(id), n)
	}
	return id, nil
}
