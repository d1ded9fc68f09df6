package tracer

import (
	"fmt"
	"strings"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/digest"
	"github.com/chainstamp/ChainStamp/identity"
)

// Verify recomputes the content digest of original and compares it against
// the digest carried by the record. A mismatch is a false result, never an
// error; errors mean the input could not be digested or the record carries
// nothing to compare against.
//
// original may be raw bytes, a digest.Digest, a 64 char hex digest string,
// or any canonicalizable value.
func Verify(original interface{}, rec *LedgerRecord) (bool, digest.Digest, error) {
	if rec == nil || rec.Digest == "" {
		return false, digest.Digest{}, ErrNotVerifiable
	}
	want, err := digest.ParseHex(rec.Digest)
	if err != nil {
		return false, digest.Digest{}, fmt.Errorf("record digest: %w", err)
	}
	got, err := computeDigest(original)
	if err != nil {
		return false, digest.Digest{}, err
	}
	return got == want, got, nil
}

// VerifyFile digests the file at path and compares it against the record.
func VerifyFile(path string, rec *LedgerRecord) (bool, digest.Digest, error) {
	d, err := digest.File(path)
	if err != nil {
		return false, digest.Digest{}, err
	}
	return Verify(d, rec)
}

func computeDigest(original interface{}) (digest.Digest, error) {
	switch v := original.(type) {
	case digest.Digest:
		return v, nil
	case []byte:
		return digest.Bytes(v), nil
	case string:
		if digest.IsHexDigest(v) {
			return digest.ParseHex(v)
		}
		return digest.Value(v)
	default:
		return digest.Value(v)
	}
}

// Confirm reports whether the record landed successfully and was written
// by the expected recorder. The recorder comparison is case insensitive;
// an empty expectedRecorder skips it.
func Confirm(rec *LedgerRecord, expectedRecorder string) error {
	if rec == nil {
		return ErrRecordNotFound
	}
	if !rec.Success {
		return fmt.Errorf("%w: txid %s", ErrStatusFailed, rec.TxHash)
	}
	if expectedRecorder != "" && !common.EqualAddress(rec.Recorder, expectedRecorder) {
		return fmt.Errorf("%w: recorded by %s, expected %s", ErrRecorderMismatch, rec.Recorder, expectedRecorder)
	}
	return nil
}

// CheckSignature reports whether the envelope's detached signature matches
// its canonical bytes and recorder.
func CheckSignature(env *SignedEnvelope) bool {
	if env == nil || env.Signature == "" || !common.IsHexAddress(env.Recorder) {
		return false
	}
	return identity.VerifyPackageSignature(env.CanonicalBytes, env.Signature, common.HexToAddress(env.Recorder))
}

// CheckLocalRecord recomputes the content digest of a mirrored package and
// validates the detached signature. Digest or signature disagreement is a
// false result; errors mean the mirrored package cannot be canonicalized.
func CheckLocalRecord(lr *LocalRecord) (bool, error) {
	if lr == nil || lr.Package == nil {
		return false, fmt.Errorf("%w: empty mirror record", ErrNotVerifiable)
	}
	canonical, err := lr.Package.CanonicalJSON()
	if err != nil {
		return false, err
	}
	if digest.Bytes(canonical).Hex() != strings.ToLower(lr.Digest) {
		return false, nil
	}
	if lr.Signature == "" || !common.IsHexAddress(lr.Recorder) {
		return false, nil
	}
	return identity.VerifyPackageSignature(canonical, lr.Signature, common.HexToAddress(lr.Recorder)), nil
}
