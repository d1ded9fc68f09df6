package common

import (
	"errors"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// Keccak256Hash calculates the Keccak256 hash of the input data and
// returns it as an internal Hash value.
func Keccak256Hash(data ...[]byte) (h Hash) {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	d.Sum(h[:0])
	return h
}

// GetBigIntFromStr parses a big integer from a decimal or 0x prefixed
// hexadecimal string.
func GetBigIntFromStr(str string) (*big.Int, error) {
	str = strings.TrimSpace(str)
	base := 10
	if has0xPrefix(str) {
		str = str[2:]
		base = 16
	}
	bi, ok := new(big.Int).SetString(str, base)
	if !ok {
		return nil, errors.New("invalid integer: " + str)
	}
	return bi, nil
}

// GetUint64FromStr parses an unsigned 64 bit integer from a decimal or
// 0x prefixed hexadecimal string.
func GetUint64FromStr(str string) (uint64, error) {
	str = strings.TrimSpace(str)
	base := 10
	if has0xPrefix(str) {
		str = str[2:]
		base = 16
	}
	res, err := strconv.ParseUint(str, base, 64)
	if err != nil {
		return 0, errors.New("invalid unsigned 64 bit integer: " + str)
	}
	return res, nil
}

// Now returns the current Unix timestamp in seconds.
func Now() int64 {
	return time.Now().Unix()
}

// NowStr returns the current Unix timestamp in seconds as a string.
func NowStr() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}

// NowMilli returns the current Unix timestamp in milliseconds.
func NowMilli() int64 {
	return time.Now().UnixNano() / 1e6
}

// FileExist checks if a file exists at filePath.
func FileExist(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil || !os.IsNotExist(err)
}
