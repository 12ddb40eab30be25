package ember

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// PublicKey is the 32-byte forging key identifying a delegate account.
type PublicKey [32]byte

func (pk PublicKey) Hex() string {
	return hex.EncodeToString(pk[:])
}

func (pk PublicKey) String() string {
	return pk.Hex()
}

// Less orders public keys byte-lexicographically. It is the tie-break
// for delegates with equal vote.
func (pk PublicKey) Less(other PublicKey) bool {
	return bytes.Compare(pk[:], other[:]) < 0
}

// HexStringToPublicKey parses a hex string into a PublicKey.
func HexStringToPublicKey(s string) (PublicKey, error) {
	var pk PublicKey
	n, err := hex.Decode(pk[:], []byte(s))
	if err != nil {
		return pk, err
	}
	if n != len(pk) {
		return pk, fmt.Errorf("malformed public key: expected %d bytes, got %d", len(pk), n)
	}
	return pk, nil
}

// PublicKeyList is a slice of public keys with some convenience methods.
type PublicKeyList []PublicKey

// Lookup returns a set representation of the list, keyed by hex encoding.
func (l PublicKeyList) Lookup() map[string]struct{} {
	lookup := make(map[string]struct{}, len(l))
	for _, pk := range l {
		lookup[pk.Hex()] = struct{}{}
	}
	return lookup
}
