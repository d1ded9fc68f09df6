package eth

import (
	"context"
	"fmt"
	"math/big"

	"github.com/chainstamp/ChainStamp/identity"
	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/tracer"
	"github.com/chainstamp/ChainStamp/types"
)

// GetNonce returns the pending nonce of the account, never lower than the
// local floor left behind by earlier submissions. Gateways lag behind their
// own tx pool, a floor below a just broadcast nonce would double spend it.
func (c *Client) GetNonce(ctx context.Context, account string) (uint64, error) {
	nonce, err := c.getPoolNonce(ctx, account)
	if err != nil {
		return 0, fmt.Errorf("get pool nonce of %s: %w", account, err)
	}
	c.nonceLock.Lock()
	defer c.nonceLock.Unlock()
	if c.hasNonce && c.nextNonce > nonce {
		log.Debug("use local nonce floor", "remote", nonce, "local", c.nextNonce)
		nonce = c.nextNonce
	}
	return nonce, nil
}

// EstimateFee prices a payload submission against the gateways. The gas
// limit gets a configured percentage of headroom so estimates taken on one
// gateway still clear on another.
func (c *Client) EstimateFee(ctx context.Context, from string, payload []byte) (*tracer.FeeEstimate, error) {
	gasPrice, err := c.getMaxGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("get gas price: %w", err)
	}
	gasLimit, err := c.estimateGas(ctx, from, from, payload)
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}
	if c.gasLimitPlusPercent > 0 {
		gasLimit += gasLimit * c.gasLimitPlusPercent / 100
	}
	return &tracer.FeeEstimate{
		GasPrice: gasPrice,
		GasLimit: gasLimit,
	}, nil
}

// Submit signs and broadcasts the payload as a zero value self transfer
// carrying the payload as input data, and returns the transaction hash.
func (c *Client) Submit(ctx context.Context, sub *tracer.Submission) (string, error) {
	if c.id == nil || c.id.ReadOnly() {
		return "", identity.ErrReadOnly
	}
	if sub == nil || sub.Fee == nil {
		return "", fmt.Errorf("incomplete submission")
	}
	self := c.id.Address()
	rawTx := types.NewTransaction(
		sub.Nonce,
		self,
		big.NewInt(0),
		sub.Fee.GasLimit,
		new(big.Int).Set(sub.Fee.GasPrice),
		sub.Payload,
	)
	signedTx, err := c.id.SignTx(rawTx, c.signer)
	if err != nil {
		return "", fmt.Errorf("sign tx: %w", err)
	}
	rawHex, err := signedTx.RawTxHex()
	if err != nil {
		return "", fmt.Errorf("encode tx: %w", err)
	}
	txHash, err := c.sendRawTransaction(ctx, rawHex)
	if err != nil {
		return "", err
	}
	if localHash := signedTx.Hash().String(); txHash != localHash {
		log.Warn("gateway reported different tx hash", "local", localHash, "remote", txHash)
	}
	c.advanceNonce(sub.Nonce)
	log.Debug("submitted record tx", "txid", txHash, "nonce", sub.Nonce,
		"gasLimit", sub.Fee.GasLimit, "gasPrice", sub.Fee.GasPrice)
	return txHash, nil
}

func (c *Client) advanceNonce(used uint64) {
	c.nonceLock.Lock()
	defer c.nonceLock.Unlock()
	if !c.hasNonce || used+1 > c.nextNonce {
		c.nextNonce = used + 1
		c.hasNonce = true
	}
}
