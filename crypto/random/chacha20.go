package random

import (
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// Chacha20SeedLen is the seed length required by NewChacha20PRG.
const Chacha20SeedLen = chacha20.KeySize

// Chacha20CustomizerMaxLen is the maximum length of the customizer
// accepted by NewChacha20PRG.
const Chacha20CustomizerMaxLen = chacha20.NonceSize

// chachaPRG is a PRG whose byte stream is the ChaCha20 key stream under
// a fixed key (the seed) and nonce (the customizer). ChaCha20 is fully
// specified, so two instances with the same inputs agree bit-for-bit on
// every draw.
type chachaPRG struct {
	genericPRG
	cipher *chacha20.Cipher
}

// NewChacha20PRG returns a deterministic PRG seeded by the given
// 32-byte seed. The customizer (up to 12 bytes, zero-padded) separates
// the streams of independent sub-protocols using the same seed.
func NewChacha20PRG(seed []byte, customizer []byte) (Rand, error) {
	if len(seed) != Chacha20SeedLen {
		return nil, fmt.Errorf("chacha20 seed length must be %d bytes, got %d", Chacha20SeedLen, len(seed))
	}
	if len(customizer) > Chacha20CustomizerMaxLen {
		return nil, fmt.Errorf("chacha20 customizer must be at most %d bytes, got %d", Chacha20CustomizerMaxLen, len(customizer))
	}

	nonce := make([]byte, chacha20.NonceSize)
	copy(nonce, customizer)

	cipher, err := chacha20.NewUnauthenticatedCipher(seed, nonce)
	if err != nil {
		return nil, fmt.Errorf("could not create chacha20 cipher: %w", err)
	}

	prg := &chachaPRG{cipher: cipher}
	prg.genericPRG.randCore = prg
	return prg, nil
}

// Read fills the buffer with the next bytes of the key stream.
func (c *chachaPRG) Read(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
	c.cipher.XORKeyStream(buf, buf)
}
