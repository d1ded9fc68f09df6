// Package stampapi is the query surface shared by the REST and JSON-RPC
// endpoints. It only reads, signing stays inside the protocol.
package stampapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	rpcjson "github.com/gorilla/rpc/v2/json2"

	"github.com/chainstamp/ChainStamp/digest"
	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/mirror"
	"github.com/chainstamp/ChainStamp/params"
	"github.com/chainstamp/ChainStamp/scanner"
	"github.com/chainstamp/ChainStamp/tracer"
)

var (
	protocol *tracer.Protocol
	scan     *scanner.Scanner

	errNotInitialized = newRPCError(-32099, "service not initialized")
	errNoExplorer     = newRPCError(-32098, "no explorer configured")
	errEmptyData      = newRPCError(-32097, "empty data")
	errNoTarget       = newRPCError(-32096, "need txid or digest to verify against")
	errBadDigest      = newRPCError(-32095, "invalid digest hex")
)

func newRPCError(ec rpcjson.ErrorCode, message string) error {
	return &rpcjson.Error{
		Code:    ec,
		Message: message,
	}
}

func newRPCInternalError(err error) error {
	return newRPCError(-32000, "rpcError: "+err.Error())
}

// Init wires the api layer to the running protocol and the optional
// explorer scanner.
func Init(p *tracer.Protocol, s *scanner.Scanner) {
	protocol = p
	scan = s
}

// HasExplorer reports whether account scanning is available.
func HasExplorer() bool {
	return scan != nil
}

// GetServerInfo api
func GetServerInfo() (*ServerInfo, error) {
	log.Debug("[api] receive GetServerInfo")
	if protocol == nil {
		return nil, errNotInitialized
	}
	info := &ServerInfo{
		Identifier: params.GetIdentifier(),
		Mirrored:   protocol.Mirrored(),
		Explorer:   HasExplorer(),
		Version:    params.VersionWithMeta,
	}
	if ledger := params.GetLedgerConfig(); ledger != nil {
		info.ChainID = ledger.ChainID
	}
	if id := protocol.Identity(); id != nil {
		info.ReadOnly = id.ReadOnly()
		if !id.ReadOnly() {
			info.Recorder = id.Address().LowerHex()
		}
	} else {
		info.ReadOnly = true
	}
	return info, nil
}

// GetVersionInfo api
func GetVersionInfo() (string, error) {
	log.Debug("[api] receive GetVersionInfo")
	return params.VersionWithMeta, nil
}

// GetRecord api
func GetRecord(ctx context.Context, txid string) (*Record, error) {
	log.Debug("[api] receive GetRecord", "txid", txid)
	if protocol == nil {
		return nil, errNotInitialized
	}
	rec, err := protocol.Fetch(ctx, txid)
	if err != nil {
		return nil, wrapFetchError(err)
	}
	return rec, nil
}

// GetLocalRecord api
func GetLocalRecord(ctx context.Context, txid string) (*LocalRecord, error) {
	log.Debug("[api] receive GetLocalRecord", "txid", txid)
	if protocol == nil {
		return nil, errNotInitialized
	}
	rec, err := protocol.Fetch(ctx, txid)
	if err != nil {
		return nil, wrapFetchError(err)
	}
	if rec.Digest == "" {
		return nil, newRPCError(-32094, "record carries no digest")
	}
	lr, err := protocol.MirrorLookup(rec.Digest)
	if err != nil {
		return nil, wrapFetchError(err)
	}
	return lr, nil
}

// GetRecordByDigest api
func GetRecordByDigest(digestHex string) (*LocalRecord, error) {
	log.Debug("[api] receive GetRecordByDigest", "digest", digestHex)
	if protocol == nil {
		return nil, errNotInitialized
	}
	if !digest.IsHexDigest(digestHex) {
		return nil, errBadDigest
	}
	lr, err := protocol.MirrorLookup(digestHex)
	if err != nil {
		return nil, wrapFetchError(err)
	}
	return lr, nil
}

// GetHistory api
func GetHistory(ctx context.Context, txid string, limit int) ([]*Record, error) {
	log.Debug("[api] receive GetHistory", "txid", txid, "limit", limit)
	if protocol == nil {
		return nil, errNotInitialized
	}
	if limit <= 0 {
		limit = 20
	}
	chain, err := protocol.History(ctx, txid, limit)
	if err != nil {
		if len(chain) > 0 {
			// a broken back link still yields the records before the break
			log.Warn("[api] history chain broken", "txid", txid, "err", err)
			return chain, nil
		}
		return nil, wrapFetchError(err)
	}
	return chain, nil
}

// GetAccountRecords api
func GetAccountRecords(ctx context.Context, address string, page int) ([]TxSummary, error) {
	log.Debug("[api] receive GetAccountRecords", "address", address, "page", page)
	if scan == nil {
		return nil, errNoExplorer
	}
	records, err := scan.ListRecords(ctx, address, page)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	return records, nil
}

// VerifyContent api
func VerifyContent(ctx context.Context, req *VerifyRequest) (*VerifyResult, error) {
	log.Debug("[api] receive VerifyContent", "txid", req.TxID, "digest", req.Digest)
	if len(req.Data) == 0 {
		return nil, errEmptyData
	}
	dec := json.NewDecoder(bytes.NewReader(req.Data))
	dec.UseNumber()
	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, newRPCError(-32093, "data is not valid JSON: "+err.Error())
	}
	computed, err := digest.Value(data)
	if err != nil {
		return nil, newRPCInternalError(err)
	}
	result := &VerifyResult{Digest: computed.Hex()}

	switch {
	case req.TxID != "":
		if protocol == nil {
			return nil, errNotInitialized
		}
		rec, ferr := protocol.Fetch(ctx, req.TxID)
		if ferr != nil {
			return nil, wrapFetchError(ferr)
		}
		match, _, verr := tracer.Verify(data, rec)
		if verr != nil {
			return nil, newRPCInternalError(verr)
		}
		result.Match = match
	case req.Digest != "":
		if !digest.IsHexDigest(req.Digest) {
			return nil, errBadDigest
		}
		result.Match = strings.EqualFold(req.Digest, computed.Hex())
	default:
		return nil, errNoTarget
	}
	return result, nil
}

func wrapFetchError(err error) error {
	switch {
	case errors.Is(err, tracer.ErrRecordNotFound), mirror.IsNotFound(err):
		return newRPCError(-32001, err.Error())
	case errors.Is(err, tracer.ErrMirrorDisabled):
		return newRPCError(-32002, err.Error())
	case errors.Is(err, tracer.ErrNotVerifiable):
		return newRPCError(-32003, err.Error())
	default:
		return newRPCInternalError(err)
	}
}

// IsNotFound reports whether err means the queried record or mirror entry
// does not exist. The REST layer maps these to 404.
func IsNotFound(err error) bool {
	var rpcErr *rpcjson.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case -32001, -32002, -32098:
			return true
		}
	}
	return false
}

// IsBadRequest reports whether err means the caller sent unusable input.
// The REST layer maps these to 400.
func IsBadRequest(err error) bool {
	var rpcErr *rpcjson.Error
	if errors.As(err, &rpcErr) {
		switch rpcErr.Code {
		case -32003, -32093, -32094, -32095, -32096, -32097:
			return true
		}
	}
	return false
}
