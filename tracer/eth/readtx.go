package eth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/tracer"
)

// WaitConfirmed polls for the transaction receipt until the transaction is
// mined and buried under the configured confirmation depth. Context expiry
// surfaces as an error wrapping tracer.ErrConfirmTimeout, the transaction
// stays on the ledger either way.
func (c *Client) WaitConfirmed(ctx context.Context, txHash string) (*tracer.Receipt, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		receipt, err := c.GetReceipt(ctx, txHash)
		switch {
		case err == nil:
			if c.confirmations == 0 {
				return receipt, nil
			}
			height, herr := c.getLatestBlockNumber(ctx)
			if herr != nil {
				log.Debug("get latest block number failed, keep waiting", "err", herr)
			} else if height >= receipt.BlockNumber+c.confirmations {
				return receipt, nil
			} else {
				log.Trace("waiting for confirmations", "txid", txHash,
					"mined", receipt.BlockNumber, "latest", height, "need", c.confirmations)
			}
		case errors.Is(err, tracer.ErrRecordNotFound):
			log.Trace("transaction not mined yet", "txid", txHash)
		default:
			log.Debug("get receipt failed, keep waiting", "txid", txHash, "err", err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", tracer.ErrConfirmTimeout, txHash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// GetReceipt returns the execution receipt of a mined transaction. Unmined
// transactions report an error wrapping tracer.ErrRecordNotFound.
func (c *Client) GetReceipt(ctx context.Context, txHash string) (*tracer.Receipt, error) {
	receipt, err := c.getTransactionReceipt(ctx, txHash)
	if err != nil {
		return nil, err
	}
	res := &tracer.Receipt{
		Success:  receipt.IsStatusOk(),
		LogCount: len(receipt.Logs),
	}
	if receipt.BlockNumber != nil {
		res.BlockNumber = receipt.BlockNumber.ToInt().Uint64()
	}
	if receipt.BlockHash != nil {
		res.BlockHash = receipt.BlockHash.String()
	}
	if receipt.GasUsed != nil {
		res.GasUsed = uint64(*receipt.GasUsed)
	}
	return res, nil
}

// GetTransaction returns the submitted transaction in read back form.
func (c *Client) GetTransaction(ctx context.Context, txHash string) (*tracer.TxInfo, error) {
	tx, err := c.getTransactionByHash(ctx, txHash)
	if err != nil {
		return nil, err
	}
	info := &tracer.TxInfo{}
	if tx.From != nil {
		info.From = tx.From.LowerHex()
	}
	if tx.Recipient != nil {
		info.To = tx.Recipient.LowerHex()
	}
	if tx.Amount != nil {
		info.Value = tx.Amount.ToInt()
	}
	if tx.Payload != nil {
		info.Input = common.CopyBytes(*tx.Payload)
	}
	if tx.BlockNumber != nil {
		info.BlockNumber = tx.BlockNumber.ToInt().Uint64()
	}
	if tx.BlockHash != nil {
		info.BlockHash = tx.BlockHash.String()
	}
	return info, nil
}

// GetBlockTime returns the unix timestamp of the given block.
func (c *Client) GetBlockTime(ctx context.Context, blockNumber uint64) (uint64, error) {
	block, err := c.getBlockByNumber(ctx, blockNumber)
	if err != nil {
		return 0, err
	}
	if block.Time == nil {
		return 0, fmt.Errorf("block %d carries no timestamp", blockNumber)
	}
	return block.Time.ToInt().Uint64(), nil
}
