// Package tracer implements tamper-evident data fingerprinting against an
// append-only ledger. An accumulator collects fields and file digests, the
// commit protocol freezes them into a canonical signed package and writes
// it (or its digest alone) as one ledger transaction, and the verification
// side recomputes digests from original data and checks them against
// records read back from the ledger.
package tracer

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/identity"
	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/mirror"
)

// fixed fee fallback used when no estimate and no configured defaults are
// available
const defaultGasLimit = 100000

var defaultGasPrice = big.NewInt(1e9) // 1 gwei

// CommitOptions selects per commit behavior.
type CommitOptions struct {
	// HashOnly puts only the 64 char hex content digest on the ledger
	// instead of the full canonical package.
	HashOnly bool
	// PreviousRecordID back-links this record to an earlier record's
	// transaction hash. Empty means no link; links are never implied.
	PreviousRecordID string
}

// Protocol drives the commit pipeline against one ledger client and one
// signing identity. Commits are serialized on the identity so concurrent
// callers cannot reuse a nonce; reads run without the lock.
type Protocol struct {
	client      LedgerClient
	id          *identity.Identity
	store       mirror.Store
	fallbackFee FeeEstimate
}

// NewProtocol wires a protocol instance. store may be nil, which disables
// mirroring.
func NewProtocol(client LedgerClient, id *identity.Identity, store mirror.Store) *Protocol {
	return &Protocol{
		client: client,
		id:     id,
		store:  store,
		fallbackFee: FeeEstimate{
			GasPrice: defaultGasPrice,
			GasLimit: defaultGasLimit,
		},
	}
}

// SetFallbackFee overrides the fixed fee terms used when estimation fails.
// Zero arguments keep the current values.
func (p *Protocol) SetFallbackFee(gasPrice *big.Int, gasLimit uint64) {
	if gasPrice != nil && gasPrice.Sign() > 0 {
		p.fallbackFee.GasPrice = gasPrice
	}
	if gasLimit > 0 {
		p.fallbackFee.GasLimit = gasLimit
	}
}

// Identity returns the protocol's signing identity.
func (p *Protocol) Identity() *identity.Identity {
	return p.id
}

// Mirrored reports whether a local mirror is attached.
func (p *Protocol) Mirrored() bool {
	return p.store != nil
}

// Commit freezes the accumulator and writes exactly one record transaction.
//
// The pipeline is snapshot, canonicalize, digest, sign, price, fetch nonce,
// submit once, wait for confirmation bounded by ctx. There are no automatic
// retries; once the envelope is built every error returns alongside a
// non-nil result so the attempted payload (and the tx hash, once assigned)
// stay available to the caller. Cancelling ctx during the confirmation wait
// does not cancel the submitted transaction. The mirror write at the end is
// opportunistic and can never fail the commit.
func (p *Protocol) Commit(ctx context.Context, acc *Accumulator, opts *CommitOptions) (*CommitResult, error) {
	if opts == nil {
		opts = &CommitOptions{}
	}
	if p.id.ReadOnly() {
		return nil, identity.ErrReadOnly
	}

	p.id.Lock()
	defer p.id.Unlock()

	recorder := p.id.Address().String()
	pkg, err := acc.Snapshot(recorder, opts.PreviousRecordID)
	if err != nil {
		return nil, err
	}

	env, err := Seal(pkg, p.id)
	if err != nil {
		return nil, err
	}

	payload := env.CanonicalBytes
	if opts.HashOnly {
		payload = []byte(env.Digest.Hex())
	}

	result := &CommitResult{
		Envelope: env,
		Record: &LedgerRecord{
			Recorder:   recorder,
			Digest:     env.Digest.Hex(),
			HashOnly:   opts.HashOnly,
			Payload:    payload,
			Package:    pkg,
			PreviousID: opts.PreviousRecordID,
		},
	}

	fee, err := p.client.EstimateFee(ctx, recorder, payload)
	if err != nil {
		fee = &FeeEstimate{GasPrice: p.fallbackFee.GasPrice, GasLimit: p.fallbackFee.GasLimit}
		log.Warn("fee estimation failed, using fixed defaults",
			"err", err, "gasPrice", fee.GasPrice, "gasLimit", fee.GasLimit)
	}

	nonce, err := p.client.GetNonce(ctx, recorder)
	if err != nil {
		return result, fmt.Errorf("get nonce: %w", err)
	}

	txHash, err := p.client.Submit(ctx, &Submission{Nonce: nonce, Fee: fee, Payload: payload})
	if err != nil {
		return result, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}
	result.Record.TxHash = txHash
	log.Info("record submitted", "txid", txHash, "digest", result.Record.Digest,
		"nonce", nonce, "bytes", len(payload), "hashOnly", opts.HashOnly)

	receipt, err := p.client.WaitConfirmed(ctx, txHash)
	if err != nil {
		return result, fmt.Errorf("wait confirmed: %w", err)
	}
	result.Record.Success = receipt.Success
	result.Record.BlockNumber = receipt.BlockNumber
	result.Record.GasUsed = receipt.GasUsed
	if bt, berr := p.client.GetBlockTime(ctx, receipt.BlockNumber); berr == nil {
		result.Record.BlockTime = bt
	}

	if !receipt.Success {
		return result, fmt.Errorf("%w: txid %s", ErrStatusFailed, txHash)
	}

	p.mirrorCommit(result, acc.FilePaths())
	log.Info("record confirmed", "txid", txHash, "block", receipt.BlockNumber, "gasUsed", receipt.GasUsed)
	return result, nil
}

// mirrorCommit writes the local record. Mirror failures are logged and
// swallowed, the ledger already holds the record.
func (p *Protocol) mirrorCommit(res *CommitResult, filePaths map[string]string) {
	if p.store == nil {
		return
	}
	lr := &LocalRecord{
		Package:     res.Envelope.Package,
		Digest:      res.Envelope.Digest.Hex(),
		Signature:   res.Envelope.Signature,
		Recorder:    res.Envelope.Recorder,
		TxHash:      res.Record.TxHash,
		HashOnly:    res.Record.HashOnly,
		BlockNumber: res.Record.BlockNumber,
		BlockTime:   res.Record.BlockTime,
		FilePaths:   filePaths,
		StoredAt:    common.Now(),
	}
	raw, err := lr.Encode()
	if err == nil {
		err = p.store.Put(lr.Digest, raw)
	}
	if err != nil {
		log.Warn("mirror write failed", "digest", lr.Digest, "txid", lr.TxHash, "err", err)
		return
	}
	log.Debug("record mirrored", "digest", lr.Digest, "txid", lr.TxHash)
}

// Fetch reads a record back from the ledger alone: transaction input,
// receipt status and block time. The payload is decoded into a package
// when it parses as one, recognized as digest-only when it is a 64 char
// hex string, and kept raw otherwise. A missing receipt (transaction still
// pending) leaves the status fields zero.
func (p *Protocol) Fetch(ctx context.Context, txHash string) (*LedgerRecord, error) {
	info, err := p.client.GetTransaction(ctx, txHash)
	if err != nil {
		return nil, err
	}

	rec := &LedgerRecord{
		TxHash:      txHash,
		Recorder:    info.From,
		Payload:     info.Input,
		BlockNumber: info.BlockNumber,
	}
	rec.decodePayload()

	receipt, err := p.client.GetReceipt(ctx, txHash)
	if err != nil {
		log.Debug("record has no receipt yet", "txid", txHash, "err", err)
		return rec, nil
	}
	rec.Success = receipt.Success
	rec.BlockNumber = receipt.BlockNumber
	rec.GasUsed = receipt.GasUsed
	if bt, berr := p.client.GetBlockTime(ctx, receipt.BlockNumber); berr == nil {
		rec.BlockTime = bt
	}
	return rec, nil
}

// WaitMined resumes waiting for a record whose confirmation timed out,
// without resubmitting anything.
func (p *Protocol) WaitMined(ctx context.Context, txHash string) (*LedgerRecord, error) {
	if _, err := p.client.WaitConfirmed(ctx, txHash); err != nil {
		return nil, fmt.Errorf("wait confirmed: %w", err)
	}
	return p.Fetch(ctx, txHash)
}

// MirrorLookup fetches the local record stored under a content digest.
func (p *Protocol) MirrorLookup(digestHex string) (*LocalRecord, error) {
	if p.store == nil {
		return nil, ErrMirrorDisabled
	}
	raw, err := p.store.Get(strings.ToLower(digestHex))
	if err != nil {
		return nil, err
	}
	return DecodeLocalRecord(raw)
}
