// Package identity manages the signing key of a recording identity.
//
// The private key is loaded exclusively from an environment variable and
// never leaves this package. Without the variable set the identity degrades
// to read only mode where every signing operation fails with ErrReadOnly
// while lookups and verification keep working.
package identity

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/common/hexutil"
	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/tools/crypto"
	"github.com/chainstamp/ChainStamp/types"
)

// DefaultKeyEnv is the environment variable consulted when the
// configuration does not name one.
const DefaultKeyEnv = "CHAINSTAMP_PRIVATE_KEY"

// package errors
var (
	ErrReadOnly         = fmt.Errorf("signing identity is read only")
	ErrInvalidKey       = fmt.Errorf("invalid signing key")
	ErrInvalidSignature = fmt.Errorf("invalid detached signature")
)

// Identity holds the signing key and derived ledger address of a recorder.
// The zero value is a read only identity.
type Identity struct {
	mu      sync.Mutex
	privKey *ecdsa.PrivateKey
	address common.Address
}

// FromEnv builds an identity from the private key hex stored in the named
// environment variable. An unset or empty variable yields a read only
// identity and no error. A present but malformed value is a configuration
// error. The raw value is never echoed into errors or logs.
func FromEnv(envName string) (*Identity, error) {
	if envName == "" {
		envName = DefaultKeyEnv
	}
	raw := strings.TrimSpace(os.Getenv(envName))
	if raw == "" {
		log.Info("signing key not present, identity is read only", "env", envName)
		return &Identity{}, nil
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w in env %s", ErrInvalidKey, envName)
	}
	id := &Identity{
		privKey: key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
	log.Info("loaded signing identity", "address", id.address.String())
	return id, nil
}

// ReadOnly reports whether the identity lacks a signing key.
func (id *Identity) ReadOnly() bool {
	return id.privKey == nil
}

// String renders the address and mode only, key material never prints.
func (id *Identity) String() string {
	if id.ReadOnly() {
		return "identity (read only)"
	}
	return "identity " + id.address.String()
}

// Address returns the ledger address derived from the signing key.
// Read only identities return the zero address.
func (id *Identity) Address() common.Address {
	return id.address
}

// Lock serializes transaction construction for this identity. Nonce
// assignment through submission must happen under the lock so concurrent
// commits cannot reuse a nonce.
func (id *Identity) Lock() { id.mu.Lock() }

// Unlock releases the lock taken by Lock.
func (id *Identity) Unlock() { id.mu.Unlock() }

// SignTx signs a ledger transaction in place of exposing the key.
func (id *Identity) SignTx(tx *types.Transaction, signer types.Signer) (*types.Transaction, error) {
	if id.ReadOnly() {
		return nil, ErrReadOnly
	}
	return types.SignTx(tx, signer, id.privKey)
}

// SignPackage produces a detached personal message signature over the
// canonical package bytes and returns it 0x hex encoded. The recovery byte
// is published in its 27/28 form so external tooling can verify the
// signature unchanged.
func (id *Identity) SignPackage(canonical []byte) (string, error) {
	if id.ReadOnly() {
		return "", ErrReadOnly
	}
	sig, err := crypto.Sign(TextHash(canonical), id.privKey)
	if err != nil {
		return "", err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// SignHash signs a raw 32 byte digest, the primitive behind transaction
// signatures. Most callers want SignTx or SignPackage instead.
func (id *Identity) SignHash(h common.Hash) ([]byte, error) {
	if id.ReadOnly() {
		return nil, ErrReadOnly
	}
	return crypto.Sign(h.Bytes(), id.privKey)
}

// RecoverSigner returns the address that produced the detached signature
// over msg. Both 0/1 and 27/28 recovery byte conventions are accepted.
func RecoverSigner(msg []byte, sigHex string) (common.Address, error) {
	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(sig))
	}
	v := sig[crypto.RecoveryIDOffset]
	if v >= 27 {
		v -= 27
	}
	if v != 0 && v != 1 {
		return common.Address{}, fmt.Errorf("%w: recovery id %d", ErrInvalidSignature, sig[crypto.RecoveryIDOffset])
	}
	normalized := make([]byte, crypto.SignatureLength)
	copy(normalized, sig)
	normalized[crypto.RecoveryIDOffset] = v

	pub, err := crypto.SigToPub(TextHash(msg), normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyPackageSignature reports whether sigHex is a valid detached
// signature over the canonical bytes by the given signer. Malformed
// signatures and signatures from other keys both yield false.
func VerifyPackageSignature(canonical []byte, sigHex string, signer common.Address) bool {
	recovered, err := RecoverSigner(canonical, sigHex)
	if err != nil {
		return false
	}
	return common.EqualAddress(recovered.String(), signer.String())
}

// TextHash hashes msg under the personal message envelope, prefixing it
// with "\x19Ethereum Signed Message:\n" and its length.
func TextHash(msg []byte) []byte {
	wrapped := fmt.Sprintf("\x19Ethereum Signed Message:\n%d%s", len(msg), msg)
	return crypto.Keccak256([]byte(wrapped))
}
