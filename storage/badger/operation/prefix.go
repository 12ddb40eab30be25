package operation

import (
	"encoding/binary"
	"fmt"

	"github.com/emberchain/ember-go/model/ember"
)

const (

	// delegate account rows and the public key index
	codeDelegate        = 10
	codeDelegateAddress = 11

	// block rows, the id index, and the round transition stamps
	codeBlock      = 20
	codeBlockIndex = 21
	codeRoundStamp = 22
)

func makePrefix(code byte, keys ...interface{}) []byte {
	prefix := make([]byte, 1)
	prefix[0] = code
	for _, key := range keys {
		prefix = append(prefix, b(key)...)
	}
	return prefix
}

func b(v interface{}) []byte {
	switch i := v.(type) {
	case uint8:
		return []byte{i}
	case uint32:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, i)
		return b
	case uint64:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, i)
		return b
	case string:
		return []byte(i)
	case ember.Identifier:
		return i[:]
	case ember.PublicKey:
		return i[:]
	default:
		panic(fmt.Sprintf("unsupported type to convert (%T)", v))
	}
}
