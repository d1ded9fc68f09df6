// Package digest computes SHA-256 content digests over raw bytes, files and
// structured values. Structured values are canonicalized before hashing so
// that logically equal values always produce equal digests.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
)

// Length is the byte length of a content digest.
const Length = sha256.Size

// HexLength is the character length of a hex encoded content digest.
const HexLength = Length * 2

// fileChunkSize is the read granularity for file hashing. Files of any
// size are digested in constant memory.
const fileChunkSize = 4096

// ErrInvalidDigest marks a malformed digest hex string.
var ErrInvalidDigest = errors.New("invalid content digest")

// Digest is a SHA-256 content digest.
type Digest [Length]byte

// Hex returns the lower case hex encoding of the digest.
func (d Digest) Hex() string { return hex.EncodeToString(d[:]) }

// String implements fmt.Stringer.
func (d Digest) String() string { return d.Hex() }

// Bytes returns the digest as a byte slice.
func (d Digest) Bytes() []byte { return d[:] }

// IsZero reports whether the digest is all zero bytes.
func (d Digest) IsZero() bool { return d == Digest{} }

// MarshalText encodes the digest as bare hex.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.Hex()), nil
}

// UnmarshalText decodes a bare hex digest.
func (d *Digest) UnmarshalText(input []byte) error {
	parsed, err := ParseHex(string(input))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseHex parses a 64 character hex string into a Digest.
// Both hex casings are accepted.
func ParseHex(s string) (Digest, error) {
	var d Digest
	if len(s) != HexLength {
		return d, fmt.Errorf("%w: length %d", ErrInvalidDigest, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrInvalidDigest, err)
	}
	copy(d[:], b)
	return d, nil
}

// IsHexDigest reports whether s has the shape of a hex encoded content
// digest.
func IsHexDigest(s string) bool {
	if len(s) != HexLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Bytes computes the digest of raw bytes.
func Bytes(b []byte) Digest {
	return sha256.Sum256(b)
}

// File computes the digest of the file at path, streaming its contents in
// fixed size chunks. The digest equals Bytes of the full file contents.
func File(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, fmt.Errorf("hash file %q: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	buf := make([]byte, fileChunkSize)
	for {
		n, rerr := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return Digest{}, fmt.Errorf("hash file %q: %w", path, rerr)
		}
	}

	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// Value canonicalizes v and digests the canonical bytes.
// Raw byte slices belong in Bytes, not here: like any other value they are
// digested over their canonical JSON form.
func Value(v interface{}) (Digest, error) {
	enc, err := Canonical(v)
	if err != nil {
		return Digest{}, err
	}
	return Bytes(enc), nil
}
