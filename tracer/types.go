package tracer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/chainstamp/ChainStamp/digest"
)

// reserved package field names, set at snapshot time and overwriting
// colliding user fields
const (
	FieldType       = "type"
	FieldTimestamp  = "timestamp"
	FieldFileHashes = "file_hashes"
	FieldRecorder   = "recorder"
	FieldPrevious   = "previous_record_id"
)

// DataPackage is a frozen snapshot of an accumulator, the unit that is
// canonicalized, signed and committed. User fields sit at the top level
// next to the reserved fields.
type DataPackage map[string]interface{}

// DecodePackage parses raw JSON into a package. Numbers are kept as
// json.Number so re-canonicalizing reproduces the original literals.
// Non-object documents and trailing garbage are rejected.
func DecodePackage(raw []byte) (DataPackage, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var pkg DataPackage
	if err := dec.Decode(&pkg); err != nil {
		return nil, fmt.Errorf("decode package: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode package: trailing data")
	}
	return pkg, nil
}

// CanonicalJSON returns the canonical encoding the package is signed and
// digested over.
func (p DataPackage) CanonicalJSON() ([]byte, error) {
	return digest.Canonical(map[string]interface{}(p))
}

// ContentDigest returns the SHA-256 digest of the canonical encoding.
func (p DataPackage) ContentDigest() (digest.Digest, error) {
	return digest.Value(map[string]interface{}(p))
}

// TypeTag returns the reserved record type field.
func (p DataPackage) TypeTag() string { return p.str(FieldType) }

// Recorder returns the reserved recorder address field.
func (p DataPackage) Recorder() string { return p.str(FieldRecorder) }

// PreviousID returns the reserved back-link field, empty when unlinked.
func (p DataPackage) PreviousID() string { return p.str(FieldPrevious) }

// Timestamp returns the snapshot time in unix seconds, 0 when absent or
// unparsable.
func (p DataPackage) Timestamp() int64 {
	switch v := p[FieldTimestamp].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	}
	return 0
}

// FileHashes returns a copy of the name to digest map carried by the
// package, empty when the record holds no files.
func (p DataPackage) FileHashes() map[string]string {
	out := make(map[string]string)
	switch m := p[FieldFileHashes].(type) {
	case map[string]string:
		for k, v := range m {
			out[k] = v
		}
	case map[string]interface{}:
		for k, v := range m {
			if s, ok := v.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}

func (p DataPackage) str(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

// FeeEstimate carries the gas terms of a pending submission.
type FeeEstimate struct {
	GasPrice *big.Int
	GasLimit uint64
}

// Submission is one fully prepared ledger write.
type Submission struct {
	Nonce   uint64
	Fee     *FeeEstimate
	Payload []byte
}

// Receipt condenses the ledger's execution result for a record transaction.
type Receipt struct {
	Success     bool
	BlockNumber uint64
	BlockHash   string
	GasUsed     uint64
	LogCount    int
}

// TxInfo condenses the ledger's view of a submitted transaction.
type TxInfo struct {
	From        string
	To          string
	Value       *big.Int
	Input       []byte
	BlockNumber uint64
	BlockHash   string
}
