package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/common/hexutil"
	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/rpc/client"
	"github.com/chainstamp/ChainStamp/tracer"
	"github.com/chainstamp/ChainStamp/types"
)

// getLatestBlockNumber call eth_blockNumber, keeping the highest answer
// across gateways.
func (c *Client) getLatestBlockNumber(ctx context.Context) (maxHeight uint64, err error) {
	if len(c.urls) == 0 {
		return 0, errEmptyURLs
	}
	var result string
	for _, url := range c.urls {
		err = client.RPCPostWithContext(ctx, &result, url, "eth_blockNumber")
		if err == nil {
			height, _ := common.GetUint64FromStr(result)
			if height > maxHeight {
				maxHeight = height
			}
		}
	}
	if maxHeight > 0 {
		return maxHeight, nil
	}
	return 0, err
}

// getTransactionByHash call eth_getTransactionByHash
func (c *Client) getTransactionByHash(ctx context.Context, txHash string) (result *types.RPCTransaction, err error) {
	if len(c.urls) == 0 {
		return nil, errEmptyURLs
	}
	for _, url := range c.urls {
		err = client.RPCPostWithContext(ctx, &result, url, "eth_getTransactionByHash", txHash)
		if err == nil && result != nil {
			return result, nil
		}
	}
	if result == nil && err == nil {
		return nil, fmt.Errorf("%w: %s", tracer.ErrRecordNotFound, txHash)
	}
	return nil, err
}

// getTransactionReceipt call eth_getTransactionReceipt
func (c *Client) getTransactionReceipt(ctx context.Context, txHash string) (result *types.RPCTxReceipt, err error) {
	if len(c.urls) == 0 {
		return nil, errEmptyURLs
	}
	for _, url := range c.urls {
		err = client.RPCPostWithContext(ctx, &result, url, "eth_getTransactionReceipt", txHash)
		if err == nil && result != nil {
			return result, nil
		}
	}
	if result == nil && err == nil {
		return nil, fmt.Errorf("%w: no receipt for %s", tracer.ErrRecordNotFound, txHash)
	}
	return nil, err
}

// getBlockByNumber call eth_getBlockByNumber
func (c *Client) getBlockByNumber(ctx context.Context, number uint64) (result *types.RPCBlock, err error) {
	if len(c.urls) == 0 {
		return nil, errEmptyURLs
	}
	arg := types.ToBlockNumArg(new(big.Int).SetUint64(number))
	for _, url := range c.urls {
		err = client.RPCPostWithContext(ctx, &result, url, "eth_getBlockByNumber", arg, false)
		if err == nil && result != nil {
			return result, nil
		}
	}
	if result == nil && err == nil {
		return nil, fmt.Errorf("block %d not found", number)
	}
	return nil, err
}

// getMaxGasPrice call eth_gasPrice, keeping the highest answer across
// gateways.
func (c *Client) getMaxGasPrice(ctx context.Context) (maxGasPrice *big.Int, err error) {
	if len(c.urls) == 0 {
		return nil, errEmptyURLs
	}
	var success bool
	var result hexutil.Big
	for _, url := range c.urls {
		err = client.RPCPostWithContext(ctx, &result, url, "eth_gasPrice")
		if err == nil {
			success = true
			if maxGasPrice == nil || result.ToInt().Cmp(maxGasPrice) > 0 {
				maxGasPrice = result.ToInt()
			}
		}
	}
	if success {
		return maxGasPrice, nil
	}
	return nil, err
}

// estimateGas call eth_estimateGas
func (c *Client) estimateGas(ctx context.Context, from, to string, data []byte) (uint64, error) {
	reqArgs := map[string]interface{}{
		"from": from,
		"to":   to,
		"data": hexutil.Bytes(data),
	}
	var result hexutil.Uint64
	var err error
	for _, url := range c.urls {
		err = client.RPCPostWithContext(ctx, &result, url, "eth_estimateGas", reqArgs)
		if err == nil {
			return uint64(result), nil
		}
	}
	if err == nil {
		err = errEmptyURLs
	}
	return 0, err
}

// getPoolNonce call eth_getTransactionCount on the pending state, keeping
// the highest answer across gateways.
func (c *Client) getPoolNonce(ctx context.Context, account string) (maxNonce uint64, err error) {
	if len(c.urls) == 0 {
		return 0, errEmptyURLs
	}
	address := common.HexToAddress(account)
	var success bool
	var result hexutil.Uint64
	for _, url := range c.urls {
		err = client.RPCPostWithContext(ctx, &result, url, "eth_getTransactionCount", address, "pending")
		if err == nil {
			success = true
			if uint64(result) > maxNonce {
				maxNonce = uint64(result)
			}
		}
	}
	if success {
		return maxNonce, nil
	}
	return 0, err
}

// sendRawTransaction call eth_sendRawTransaction on every gateway, keeping
// the first accepted hash.
func (c *Client) sendRawTransaction(ctx context.Context, hexData string) (txHash string, err error) {
	if len(c.urls) == 0 {
		return "", errEmptyURLs
	}
	var result string
	for _, url := range c.urls {
		err = client.RPCPostWithContext(ctx, &result, url, "eth_sendRawTransaction", hexData)
		if err != nil {
			log.Trace("call eth_sendRawTransaction failed", "url", url, "err", err)
			continue
		}
		log.Trace("call eth_sendRawTransaction success", "txid", result, "url", url)
		if txHash == "" {
			txHash = result
		}
	}
	if txHash != "" {
		return txHash, nil
	}
	if err != nil {
		return "", err
	}
	return "", errors.New("call eth_sendRawTransaction failed")
}

// rpcChainID call eth_chainId
func (c *Client) rpcChainID(ctx context.Context) (*big.Int, error) {
	var result hexutil.Big
	var err error
	for _, url := range c.urls {
		err = client.RPCPostWithContext(ctx, &result, url, "eth_chainId")
		if err == nil {
			return result.ToInt(), nil
		}
	}
	if err == nil {
		err = errEmptyURLs
	}
	return nil, err
}

// networkID call net_version
func (c *Client) networkID(ctx context.Context) (*big.Int, error) {
	var result string
	var err error
	for _, url := range c.urls {
		err = client.RPCPostWithContext(ctx, &result, url, "net_version")
		if err == nil {
			version := new(big.Int)
			if _, ok := version.SetString(result, 10); !ok {
				return nil, fmt.Errorf("invalid net_version result %q", result)
			}
			return version, nil
		}
	}
	if err == nil {
		err = errEmptyURLs
	}
	return nil, err
}
