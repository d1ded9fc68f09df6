package tracer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chainstamp/ChainStamp/common/hexutil"
	"github.com/chainstamp/ChainStamp/digest"
)

// LedgerRecord is the read-back view of one committed record.
type LedgerRecord struct {
	TxHash      string        `json:"txid"`
	Recorder    string        `json:"recorder"`
	Digest      string        `json:"digest,omitempty"`
	HashOnly    bool          `json:"hashOnly"`
	Payload     hexutil.Bytes `json:"payload,omitempty"`
	Package     DataPackage   `json:"package,omitempty"`
	Success     bool          `json:"success"`
	BlockNumber uint64        `json:"blockNumber,omitempty"`
	BlockTime   uint64        `json:"blockTime,omitempty"`
	GasUsed     uint64        `json:"gasUsed,omitempty"`
	PreviousID  string        `json:"previousRecordId,omitempty"`
}

// decodePayload classifies the raw transaction input. A 64 char hex string
// is a digest-only record, a JSON object is a full package, anything else
// stays opaque with no digest.
func (r *LedgerRecord) decodePayload() {
	if len(r.Payload) == digest.HexLength && digest.IsHexDigest(string(r.Payload)) {
		r.HashOnly = true
		r.Digest = strings.ToLower(string(r.Payload))
		return
	}
	pkg, err := DecodePackage(r.Payload)
	if err != nil {
		return
	}
	r.Package = pkg
	r.PreviousID = pkg.PreviousID()
	if d, derr := pkg.ContentDigest(); derr == nil {
		r.Digest = d.Hex()
	}
}

// LocalRecord is the mirror entry kept off chain, keyed by content digest.
// File paths live only here, never on the ledger.
type LocalRecord struct {
	Package     DataPackage       `json:"package"`
	Digest      string            `json:"digest"`
	Signature   string            `json:"signature"`
	Recorder    string            `json:"recorder"`
	TxHash      string            `json:"txid"`
	HashOnly    bool              `json:"hashOnly"`
	BlockNumber uint64            `json:"blockNumber,omitempty"`
	BlockTime   uint64            `json:"blockTime,omitempty"`
	FilePaths   map[string]string `json:"filePaths,omitempty"`
	StoredAt    int64             `json:"storedAt"`
}

// Encode serializes the record for the mirror.
func (r *LocalRecord) Encode() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeLocalRecord parses a mirror entry. Numbers inside the package are
// kept as json.Number so the content digest recomputes bit for bit.
func DecodeLocalRecord(raw []byte) (*LocalRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var lr LocalRecord
	if err := dec.Decode(&lr); err != nil {
		return nil, fmt.Errorf("decode mirror record: %w", err)
	}
	return &lr, nil
}

// CommitResult is returned from Commit even on failure once the envelope
// has been built, so the attempted payload stays available to the caller.
type CommitResult struct {
	Record   *LedgerRecord
	Envelope *SignedEnvelope
}
