// Package eth implements the ledger client for EVM compatible chains. All
// calls go through a list of gateway JSON-RPC endpoints tried in order, so
// a single unhealthy gateway does not take recording down.
package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/identity"
	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/params"
	"github.com/chainstamp/ChainStamp/tracer"
	"github.com/chainstamp/ChainStamp/types"
)

const defaultPollInterval = 3 * time.Second

var (
	errEmptyURLs = errors.New("empty gateway urls")

	_ tracer.LedgerClient = (*Client)(nil)
)

// Client talks to an EVM compatible ledger. Record payloads are carried as
// transaction input data on zero value self transfers signed under EIP-155.
type Client struct {
	id      *identity.Identity
	signer  types.Signer
	chainID *big.Int
	urls    []string

	confirmations       uint64
	gasLimitPlusPercent uint64

	pollInterval time.Duration

	// local nonce floor so a fresh commit never reuses the nonce of a
	// submission the gateways have not indexed yet
	nonceLock sync.Mutex
	nextNonce uint64
	hasNonce  bool
}

// NewClient wires a ledger client from the ledger config and the signing
// identity.
func NewClient(cfg *params.LedgerConfig, id *identity.Identity) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("nil ledger config")
	}
	if len(cfg.APIAddress) == 0 {
		return nil, errEmptyURLs
	}
	chainID, err := common.GetBigIntFromStr(cfg.ChainID)
	if err != nil {
		return nil, fmt.Errorf("invalid chain id %q: %w", cfg.ChainID, err)
	}
	return &Client{
		id:                  id,
		signer:              types.NewEIP155Signer(chainID),
		chainID:             chainID,
		urls:                append([]string(nil), cfg.APIAddress...),
		confirmations:       cfg.Confirmations,
		gasLimitPlusPercent: cfg.GasLimitPlusPercent,
		pollInterval:        defaultPollInterval,
	}, nil
}

// ChainID returns the configured chain id.
func (c *Client) ChainID() *big.Int {
	return c.chainID
}

// VerifyChainID asks the gateways for their chain id and compares it with
// the configured one. Some gateways report 0 through eth_chainId, in that
// case net_version decides.
func (c *Client) VerifyChainID(ctx context.Context) error {
	chainID, err := c.rpcChainID(ctx)
	if err != nil || chainID.Sign() == 0 {
		chainID, err = c.networkID(ctx)
	}
	if err != nil {
		return fmt.Errorf("query chain id: %w", err)
	}
	if chainID.Cmp(c.chainID) != 0 {
		return fmt.Errorf("gateway chain id %v does not match configured %v", chainID, c.chainID)
	}
	log.Info("verified ledger chain id", "chainID", chainID)
	return nil
}
