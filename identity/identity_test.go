package identity

import (
	"math/big"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/tools/crypto"
	"github.com/chainstamp/ChainStamp/types"
)

const (
	testKeyEnv  = "CHAINSTAMP_TEST_KEY"
	testKeyHex  = "4646464646464646464646464646464646464646464646464646464646464646"
	testKeyAddr = "0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f"
)

func newTestIdentity(t *testing.T) *Identity {
	t.Helper()
	os.Setenv(testKeyEnv, testKeyHex)
	t.Cleanup(func() { os.Unsetenv(testKeyEnv) })
	id, err := FromEnv(testKeyEnv)
	assert.Nil(t, err)
	return id
}

func TestFromEnvReadOnly(t *testing.T) {
	os.Unsetenv(testKeyEnv)
	id, err := FromEnv(testKeyEnv)
	assert.Nil(t, err)
	assert.True(t, id.ReadOnly())
	assert.True(t, id.Address().IsZero())

	_, err = id.SignPackage([]byte("payload"))
	assert.ErrorIs(t, err, ErrReadOnly)

	_, err = id.SignHash(common.Hash{})
	assert.ErrorIs(t, err, ErrReadOnly)

	tx := types.NewContractCreation(0, big.NewInt(0), 21000, big.NewInt(1), nil)
	_, err = id.SignTx(tx, types.NewEIP155Signer(big.NewInt(1)))
	assert.ErrorIs(t, err, ErrReadOnly)
}

func TestFromEnvInvalidKey(t *testing.T) {
	os.Setenv(testKeyEnv, "not-a-key")
	defer os.Unsetenv(testKeyEnv)

	_, err := FromEnv(testKeyEnv)
	assert.ErrorIs(t, err, ErrInvalidKey)
	// the malformed value must not leak through the error text
	assert.NotContains(t, err.Error(), "not-a-key")
}

func TestFromEnvAddress(t *testing.T) {
	id := newTestIdentity(t)
	assert.False(t, id.ReadOnly())
	assert.Equal(t, testKeyAddr, strings.ToLower(id.Address().String()))
}

func TestFromEnvAcceptsPrefixAndWhitespace(t *testing.T) {
	os.Setenv(testKeyEnv, " 0x"+testKeyHex+"\n")
	defer os.Unsetenv(testKeyEnv)

	id, err := FromEnv(testKeyEnv)
	assert.Nil(t, err)
	assert.Equal(t, testKeyAddr, strings.ToLower(id.Address().String()))
}

func TestSignAndVerifyPackage(t *testing.T) {
	id := newTestIdentity(t)
	canonical := []byte(`{"digest":"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"}`)

	sigHex, err := id.SignPackage(canonical)
	assert.Nil(t, err)
	assert.True(t, strings.HasPrefix(sigHex, "0x"))
	assert.Equal(t, 2+2*crypto.SignatureLength, len(sigHex))

	sig := common.FromHex(sigHex)
	v := sig[crypto.RecoveryIDOffset]
	assert.True(t, v == 27 || v == 28, "recovery byte %d", v)

	recovered, err := RecoverSigner(canonical, sigHex)
	assert.Nil(t, err)
	assert.Equal(t, id.Address(), recovered)

	assert.True(t, VerifyPackageSignature(canonical, sigHex, id.Address()))

	// altered content recovers a different signer
	assert.False(t, VerifyPackageSignature([]byte("tampered"), sigHex, id.Address()))

	other := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	assert.False(t, VerifyPackageSignature(canonical, sigHex, other))
}

func TestRecoverSignerRejectsMalformed(t *testing.T) {
	msg := []byte("msg")

	_, err := RecoverSigner(msg, "nothex")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = RecoverSigner(msg, "0x0102")
	assert.ErrorIs(t, err, ErrInvalidSignature)

	id := newTestIdentity(t)
	sigHex, err := id.SignPackage(msg)
	assert.Nil(t, err)
	sig := common.FromHex(sigHex)
	sig[crypto.RecoveryIDOffset] = 99
	_, err = RecoverSigner(msg, common.ToHex(sig))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// malformed strings are errors for the boolean wrapper too, not panics
	assert.False(t, VerifyPackageSignature(msg, "0x0102", id.Address()))
}

func TestSignHash(t *testing.T) {
	id := newTestIdentity(t)
	h := common.Keccak256Hash([]byte("tx payload"))

	sig, err := id.SignHash(h)
	assert.Nil(t, err)
	assert.Equal(t, crypto.SignatureLength, len(sig))

	pub, err := crypto.SigToPub(h.Bytes(), sig)
	assert.Nil(t, err)
	assert.Equal(t, id.Address(), crypto.PubkeyToAddress(*pub))
}

func TestSignTx(t *testing.T) {
	id := newTestIdentity(t)
	signer := types.NewEIP155Signer(big.NewInt(1))
	to := common.HexToAddress("0x3535353535353535353535353535353535353535")
	tx := types.NewTransaction(0, to, big.NewInt(0), 100000, big.NewInt(1000000000), []byte("memo"))

	signed, err := id.SignTx(tx, signer)
	assert.Nil(t, err)

	sender, err := types.Sender(signer, signed)
	assert.Nil(t, err)
	assert.Equal(t, id.Address(), sender)
}
