package stampapi

import (
	"encoding/json"

	"github.com/chainstamp/ChainStamp/scanner"
	"github.com/chainstamp/ChainStamp/tracer"
)

// Record type alias
type Record = tracer.LedgerRecord

// LocalRecord type alias
type LocalRecord = tracer.LocalRecord

// TxSummary type alias
type TxSummary = scanner.TxSummary

// ServerInfo describes the running service.
type ServerInfo struct {
	Identifier string `json:"identifier"`
	Recorder   string `json:"recorder"`
	ReadOnly   bool   `json:"readOnly"`
	ChainID    string `json:"chainId"`
	Mirrored   bool   `json:"mirrored"`
	Explorer   bool   `json:"explorer"`
	Version    string `json:"version"`
}

// VerifyRequest asks whether data matches a committed record, addressed
// either by transaction hash or by content digest.
type VerifyRequest struct {
	Data   json.RawMessage `json:"data"`
	TxID   string          `json:"txid,omitempty"`
	Digest string          `json:"digest,omitempty"`
}

// VerifyResult reports the recomputed digest and whether it matched.
type VerifyResult struct {
	Match  bool   `json:"match"`
	Digest string `json:"digest"`
}
