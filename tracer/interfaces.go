package tracer

import "context"

// LedgerClient is the ledger capability the commit protocol runs against.
// Implementations sign submissions with the identity they were constructed
// with; the protocol never touches key material.
type LedgerClient interface {
	// GetNonce returns the next usable nonce of the account, counting
	// pending transactions.
	GetNonce(ctx context.Context, account string) (uint64, error)

	// EstimateFee prices a payload submission. Failures are non fatal to
	// the caller, which falls back to fixed defaults.
	EstimateFee(ctx context.Context, from string, payload []byte) (*FeeEstimate, error)

	// Submit builds, signs and broadcasts exactly one transaction and
	// returns its hash. No retries happen below this call.
	Submit(ctx context.Context, sub *Submission) (string, error)

	// WaitConfirmed blocks until the transaction is included plus any
	// configured confirmation depth. Context expiry surfaces as an error
	// wrapping ErrConfirmTimeout; the transaction itself stays submitted.
	WaitConfirmed(ctx context.Context, txHash string) (*Receipt, error)

	// GetReceipt returns the execution receipt of a mined transaction,
	// or an error wrapping ErrRecordNotFound while it is unmined.
	GetReceipt(ctx context.Context, txHash string) (*Receipt, error)

	// GetTransaction returns the submitted transaction, or an error
	// wrapping ErrRecordNotFound when the ledger does not know it.
	GetTransaction(ctx context.Context, txHash string) (*TxInfo, error)

	// GetBlockTime returns the unix timestamp of a block.
	GetBlockTime(ctx context.Context, blockNumber uint64) (uint64, error)
}
