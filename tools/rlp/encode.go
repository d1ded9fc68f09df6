// Package rlp implements the subset of the RLP serialization format needed
// to encode ledger transactions for signing and broadcast. Only encoding is
// supported, transaction read-back travels over JSON-RPC and never needs an
// RLP decoder.
package rlp

import (
	"errors"
	"fmt"
	"math/big"
)

// ErrNegativeBigInt is returned when encoding a negative big integer.
var ErrNegativeBigInt = errors.New("rlp: cannot encode negative big.Int")

// EncodeToBytes returns the RLP encoding of val.
//
// Supported types are byte slices, strings, booleans, unsigned integers,
// big integers and []interface{} lists of the same. A nil value or nil
// *big.Int encodes as the empty string.
func EncodeToBytes(val interface{}) ([]byte, error) {
	return appendValue(make([]byte, 0, 64), val)
}

func appendValue(buf []byte, val interface{}) ([]byte, error) {
	switch v := val.(type) {
	case nil:
		return appendString(buf, nil), nil
	case []interface{}:
		return appendList(buf, v)
	case []byte:
		return appendString(buf, v), nil
	case string:
		return appendString(buf, []byte(v)), nil
	case bool:
		if v {
			return append(buf, 0x01), nil
		}
		return append(buf, 0x80), nil
	case uint:
		return appendUint(buf, uint64(v)), nil
	case uint8:
		return appendUint(buf, uint64(v)), nil
	case uint16:
		return appendUint(buf, uint64(v)), nil
	case uint32:
		return appendUint(buf, uint64(v)), nil
	case uint64:
		return appendUint(buf, v), nil
	case *big.Int:
		if v == nil {
			return appendString(buf, nil), nil
		}
		if v.Sign() < 0 {
			return nil, ErrNegativeBigInt
		}
		return appendString(buf, v.Bytes()), nil
	default:
		return nil, fmt.Errorf("rlp: unsupported type %T", val)
	}
}

func appendString(buf, s []byte) []byte {
	if len(s) == 1 && s[0] <= 0x7f {
		return append(buf, s[0])
	}
	buf = appendLength(buf, 0x80, len(s))
	return append(buf, s...)
}

func appendUint(buf []byte, i uint64) []byte {
	if i == 0 {
		return append(buf, 0x80)
	}
	return appendString(buf, putint(i))
}

func appendList(buf []byte, items []interface{}) ([]byte, error) {
	payload := make([]byte, 0, 64)
	var err error
	for _, item := range items {
		payload, err = appendValue(payload, item)
		if err != nil {
			return nil, err
		}
	}
	buf = appendLength(buf, 0xc0, len(payload))
	return append(buf, payload...), nil
}

func appendLength(buf []byte, offset byte, length int) []byte {
	if length < 56 {
		return append(buf, offset+byte(length))
	}
	lenBytes := putint(uint64(length))
	buf = append(buf, offset+55+byte(len(lenBytes)))
	return append(buf, lenBytes...)
}

// putint returns the big endian representation of i without leading zeroes.
func putint(i uint64) []byte {
	switch {
	case i < (1 << 8):
		return []byte{byte(i)}
	case i < (1 << 16):
		return []byte{byte(i >> 8), byte(i)}
	case i < (1 << 24):
		return []byte{byte(i >> 16), byte(i >> 8), byte(i)}
	case i < (1 << 32):
		return []byte{byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
	case i < (1 << 40):
		return []byte{byte(i >> 32), byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
	case i < (1 << 48):
		return []byte{byte(i >> 40), byte(i >> 32), byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
	case i < (1 << 56):
		return []byte{byte(i >> 48), byte(i >> 40), byte(i >> 32), byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
	default:
		return []byte{byte(i >> 56), byte(i >> 48), byte(i >> 40), byte(i >> 32), byte(i >> 24), byte(i >> 16), byte(i >> 8), byte(i)}
	}
}
