package types

import (
	"math/big"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/common/hexutil"
)

// RPCBlock is the ledger block in RPC read-back form.
// Only the fields the record protocol consumes are decoded.
type RPCBlock struct {
	Hash       *common.Hash    `json:"hash"`
	ParentHash *common.Hash    `json:"parentHash"`
	Coinbase   *common.Address `json:"miner"`
	Number     *hexutil.Big    `json:"number"`
	GasLimit   *hexutil.Uint64 `json:"gasLimit"`
	GasUsed    *hexutil.Uint64 `json:"gasUsed"`
	Time       *hexutil.Big    `json:"timestamp"`
	Extra      *hexutil.Bytes  `json:"extraData"`
	Size       interface{}     `json:"size"`
	Txs        []*common.Hash  `json:"transactions"`
}

// RPCTransaction is a ledger transaction in RPC read-back form.
type RPCTransaction struct {
	Hash             *common.Hash    `json:"hash"`
	TransactionIndex *hexutil.Uint64 `json:"transactionIndex"`
	BlockNumber      *hexutil.Big    `json:"blockNumber,omitempty"`
	BlockHash        *common.Hash    `json:"blockHash,omitempty"`
	From             *common.Address `json:"from,omitempty"`
	AccountNonce     *hexutil.Uint64 `json:"nonce"`
	Price            *hexutil.Big    `json:"gasPrice"`
	GasLimit         *hexutil.Uint64 `json:"gas"`
	Recipient        *common.Address `json:"to"`
	Amount           *hexutil.Big    `json:"value"`
	Payload          *hexutil.Bytes  `json:"input"`
	V                *hexutil.Big    `json:"v"`
	R                *hexutil.Big    `json:"r"`
	S                *hexutil.Big    `json:"s"`
}

// RPCLog is a ledger event log in RPC read-back form.
type RPCLog struct {
	Address     *common.Address `json:"address"`
	Topics      []common.Hash   `json:"topics"`
	Data        *hexutil.Bytes  `json:"data"`
	BlockNumber *hexutil.Uint64 `json:"blockNumber"`
	TxHash      *common.Hash    `json:"transactionHash"`
	TxIndex     *hexutil.Uint64 `json:"transactionIndex"`
	BlockHash   *common.Hash    `json:"blockHash"`
	Index       *hexutil.Uint64 `json:"logIndex"`
	Removed     *bool           `json:"removed"`
}

// RPCTxReceipt is a transaction receipt in RPC read-back form.
type RPCTxReceipt struct {
	TxHash            *common.Hash    `json:"transactionHash"`
	TxIndex           *hexutil.Uint64 `json:"transactionIndex"`
	BlockNumber       *hexutil.Big    `json:"blockNumber"`
	BlockHash         *common.Hash    `json:"blockHash"`
	PostState         *hexutil.Bytes  `json:"root"`
	Status            *hexutil.Uint64 `json:"status"`
	From              *common.Address `json:"from"`
	Recipient         *common.Address `json:"to"`
	GasUsed           *hexutil.Uint64 `json:"gasUsed"`
	CumulativeGasUsed *hexutil.Uint64 `json:"cumulativeGasUsed"`
	ContractAddress   *common.Address `json:"contractAddress,omitempty"`
	Logs              []*RPCLog       `json:"logs"`
}

// IsStatusOk returns whether the receipt carries a success status.
func (r *RPCTxReceipt) IsStatusOk() bool {
	return r != nil && r.Status != nil && *r.Status == 1
}

// ToBlockNumArg converts a block number to a RPC block number argument.
// A nil number means the latest block.
func ToBlockNumArg(number *big.Int) string {
	if number == nil {
		return "latest"
	}
	return hexutil.EncodeBig(number)
}
