package types

import (
	"math/big"
	"sync/atomic"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/common/hexutil"
	"github.com/chainstamp/ChainStamp/tools/crypto"
	"github.com/chainstamp/ChainStamp/tools/rlp"
)

type txdata struct {
	AccountNonce uint64
	Price        *big.Int
	GasLimit     uint64
	Recipient    *common.Address
	Amount       *big.Int
	Payload      []byte
	V, R, S      *big.Int
}

// Transaction is a legacy ledger transaction.
type Transaction struct {
	data txdata
	// caches
	hash atomic.Value
	from atomic.Value
}

// NewTransaction creates an unsigned transaction to the given recipient.
func NewTransaction(nonce uint64, to common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return newTransaction(nonce, &to, amount, gasLimit, gasPrice, data)
}

// NewContractCreation creates an unsigned transaction without recipient.
func NewContractCreation(nonce uint64, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return newTransaction(nonce, nil, amount, gasLimit, gasPrice, data)
}

func newTransaction(nonce uint64, to *common.Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	if len(data) > 0 {
		data = common.CopyBytes(data)
	}
	d := txdata{
		AccountNonce: nonce,
		Recipient:    to,
		Payload:      data,
		Amount:       new(big.Int),
		GasLimit:     gasLimit,
		Price:        new(big.Int),
		V:            new(big.Int),
		R:            new(big.Int),
		S:            new(big.Int),
	}
	if amount != nil {
		d.Amount.Set(amount)
	}
	if gasPrice != nil {
		d.Price.Set(gasPrice)
	}

	return &Transaction{data: d}
}

// ChainID returns which chain id this transaction was signed for (if at all).
func (tx *Transaction) ChainID() *big.Int {
	return deriveChainID(tx.data.V)
}

// Protected returns whether the transaction is replay protected.
func (tx *Transaction) Protected() bool {
	return isProtectedV(tx.data.V)
}

func isProtectedV(rsvV *big.Int) bool {
	if rsvV.BitLen() <= 8 {
		v := rsvV.Uint64()
		return v != 27 && v != 28
	}
	// anything not 27 or 28 is considered protected
	return true
}

// Data returns the transaction input data.
func (tx *Transaction) Data() []byte { return common.CopyBytes(tx.data.Payload) }

// Gas returns the transaction gas limit.
func (tx *Transaction) Gas() uint64 { return tx.data.GasLimit }

// GasPrice returns the transaction gas price.
func (tx *Transaction) GasPrice() *big.Int { return new(big.Int).Set(tx.data.Price) }

// Value returns the transaction amount.
func (tx *Transaction) Value() *big.Int { return new(big.Int).Set(tx.data.Amount) }

// Nonce returns the sender account nonce.
func (tx *Transaction) Nonce() uint64 { return tx.data.AccountNonce }

// To returns the recipient address of the transaction.
// It returns nil if the transaction is a contract creation.
func (tx *Transaction) To() *common.Address {
	if tx.data.Recipient == nil {
		return nil
	}
	to := *tx.data.Recipient
	return &to
}

// RawSignatureValues returns the V, R, S signature values of the transaction.
// The return values should not be modified by the caller.
func (tx *Transaction) RawSignatureValues() (v, r, s *big.Int) {
	return tx.data.V, tx.data.R, tx.data.S
}

// rawFields lists the transaction fields in canonical encoding order.
func (tx *Transaction) rawFields() []interface{} {
	return []interface{}{
		tx.data.AccountNonce,
		tx.data.Price,
		tx.data.GasLimit,
		addressBytes(tx.data.Recipient),
		tx.data.Amount,
		tx.data.Payload,
		tx.data.V,
		tx.data.R,
		tx.data.S,
	}
}

// MarshalBinary returns the canonical RLP encoding of the transaction.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	return rlp.EncodeToBytes(tx.rawFields())
}

// RawTxHex returns the 0x prefixed hex of the canonical encoding,
// the form accepted by the transaction submission RPC.
func (tx *Transaction) RawTxHex() (string, error) {
	enc, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}
	return hexutil.Encode(enc), nil
}

// Hash returns the transaction hash.
func (tx *Transaction) Hash() common.Hash {
	if hash := tx.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	enc, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}
	}
	h := crypto.Keccak256Hash(enc)
	tx.hash.Store(h)
	return h
}

// WithSignature returns a new transaction with the given signature.
// This signature needs to be in the [R || S || V] format where V is 0 or 1.
func (tx *Transaction) WithSignature(signer Signer, sig []byte) (*Transaction, error) {
	r, s, v, err := signer.SignatureValues(tx, sig)
	if err != nil {
		return nil, err
	}
	cpy := &Transaction{data: tx.data}
	cpy.data.R, cpy.data.S, cpy.data.V = r, s, v
	return cpy, nil
}

// Cost returns amount + gasprice * gaslimit.
func (tx *Transaction) Cost() *big.Int {
	total := new(big.Int).Mul(tx.data.Price, new(big.Int).SetUint64(tx.data.GasLimit))
	total.Add(total, tx.data.Amount)
	return total
}

// rlpHash encodes x and hashes the encoded bytes.
func rlpHash(x interface{}) (h common.Hash) {
	enc, err := rlp.EncodeToBytes(x)
	if err != nil {
		return common.Hash{}
	}
	return crypto.Keccak256Hash(enc)
}

func addressBytes(a *common.Address) interface{} {
	if a == nil {
		return nil
	}
	return a.Bytes()
}
