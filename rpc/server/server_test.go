package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/identity"
	"github.com/chainstamp/ChainStamp/internal/stampapi"
	"github.com/chainstamp/ChainStamp/mirror"
	"github.com/chainstamp/ChainStamp/params"
	"github.com/chainstamp/ChainStamp/rpc/client"
	"github.com/chainstamp/ChainStamp/tracer"
)

const testKeyEnv = "CHAINSTAMP_SERVER_TEST_KEY"

var testKeyHex = strings.Repeat("52", 32)

// stubLedger is an in-memory ledger, every submission mines instantly.
type stubLedger struct {
	mu       sync.Mutex
	nonce    uint64
	txs      map[string]*tracer.TxInfo
	receipts map[string]*tracer.Receipt
}

func newStubLedger() *stubLedger {
	return &stubLedger{
		txs:      make(map[string]*tracer.TxInfo),
		receipts: make(map[string]*tracer.Receipt),
	}
}

func (s *stubLedger) GetNonce(ctx context.Context, account string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nonce, nil
}

func (s *stubLedger) EstimateFee(ctx context.Context, from string, payload []byte) (*tracer.FeeEstimate, error) {
	return &tracer.FeeEstimate{GasPrice: big.NewInt(1000000000), GasLimit: 100000}, nil
}

func (s *stubLedger) Submit(ctx context.Context, sub *tracer.Submission) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	txHash := common.Keccak256Hash(sub.Payload, []byte{byte(sub.Nonce)}).String()
	blockNumber := uint64(100 + len(s.txs))
	s.txs[txHash] = &tracer.TxInfo{
		Input:       sub.Payload,
		BlockNumber: blockNumber,
	}
	s.receipts[txHash] = &tracer.Receipt{
		Success:     true,
		BlockNumber: blockNumber,
		GasUsed:     42000,
	}
	s.nonce++
	return txHash, nil
}

func (s *stubLedger) WaitConfirmed(ctx context.Context, txHash string) (*tracer.Receipt, error) {
	return s.GetReceipt(ctx, txHash)
}

func (s *stubLedger) GetReceipt(ctx context.Context, txHash string) (*tracer.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	receipt, ok := s.receipts[txHash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tracer.ErrRecordNotFound, txHash)
	}
	return receipt, nil
}

func (s *stubLedger) GetTransaction(ctx context.Context, txHash string) (*tracer.TxInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, ok := s.txs[txHash]
	if !ok {
		return nil, fmt.Errorf("%w: %s", tracer.ErrRecordNotFound, txHash)
	}
	return info, nil
}

func (s *stubLedger) GetBlockTime(ctx context.Context, blockNumber uint64) (uint64, error) {
	return 1700000000 + blockNumber, nil
}

// memStore is an in-memory mirror store.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (m *memStore) Put(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memStore) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, mirror.ErrNotFound
	}
	return value, nil
}

func (m *memStore) Has(key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

func (m *memStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) Close() error { return nil }

type testEnv struct {
	srv      *httptest.Server
	protocol *tracer.Protocol
	ledger   *stubLedger
	recorder string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	oldVal, hadOld := os.LookupEnv(testKeyEnv)
	require.NoError(t, os.Setenv(testKeyEnv, testKeyHex))
	t.Cleanup(func() {
		if hadOld {
			_ = os.Setenv(testKeyEnv, oldVal)
		} else {
			_ = os.Unsetenv(testKeyEnv)
		}
	})
	id, err := identity.FromEnv(testKeyEnv)
	require.NoError(t, err)
	require.False(t, id.ReadOnly())

	params.SetConfig(&params.StampConfig{
		Identifier: "ChainStampTest",
		Ledger: &params.LedgerConfig{
			ChainID:    "19",
			APIAddress: []string{"http://gateway.invalid"},
		},
		Server: &params.ServerConfig{Port: 0},
	})

	ledger := newStubLedger()
	protocol := tracer.NewProtocol(ledger, id, newMemStore())
	stampapi.Init(protocol, nil)

	srv := httptest.NewServer(initRouter())
	t.Cleanup(srv.Close)

	return &testEnv{
		srv:      srv,
		protocol: protocol,
		ledger:   ledger,
		recorder: id.Address().LowerHex(),
	}
}

func commitRecord(t *testing.T, env *testEnv, fields map[string]interface{}, previous string) *tracer.CommitResult {
	t.Helper()
	acc := tracer.NewAccumulator("experiment")
	acc.Update(fields)
	result, err := env.protocol.Commit(context.Background(), acc,
		&tracer.CommitOptions{PreviousRecordID: previous})
	require.NoError(t, err)
	return result
}

func httpGet(t *testing.T, url string) (int, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func TestServerInfoEndpoint(t *testing.T) {
	env := setupTestServer(t)

	status, body := httpGet(t, env.srv.URL+"/serverinfo")
	require.Equal(t, http.StatusOK, status)

	var info stampapi.ServerInfo
	require.NoError(t, json.Unmarshal(body, &info))
	assert.Equal(t, "ChainStampTest", info.Identifier)
	assert.Equal(t, env.recorder, info.Recorder)
	assert.Equal(t, "19", info.ChainID)
	assert.False(t, info.ReadOnly)
	assert.True(t, info.Mirrored)
	assert.False(t, info.Explorer)
	assert.NotEmpty(t, info.Version)
}

func TestVersionInfoEndpoint(t *testing.T) {
	env := setupTestServer(t)

	status, body := httpGet(t, env.srv.URL+"/versioninfo")
	require.Equal(t, http.StatusOK, status)

	var version string
	require.NoError(t, json.Unmarshal(body, &version))
	assert.Equal(t, params.VersionWithMeta, version)
}

func TestRecordEndpoints(t *testing.T) {
	env := setupTestServer(t)
	result := commitRecord(t, env, map[string]interface{}{"accuracy": "0.93"}, "")
	txid := result.Record.TxHash
	recDigest := result.Record.Digest

	status, body := httpGet(t, env.srv.URL+"/record/"+txid)
	require.Equal(t, http.StatusOK, status)
	var fetched struct {
		TxHash   string          `json:"txid"`
		Digest   string          `json:"digest"`
		Package  json.RawMessage `json:"package"`
		Success  bool            `json:"success"`
		HashOnly bool            `json:"hashOnly"`
	}
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, txid, fetched.TxHash)
	assert.Equal(t, recDigest, fetched.Digest)
	assert.True(t, fetched.Success)
	assert.False(t, fetched.HashOnly)
	assert.NotEmpty(t, fetched.Package)

	// unknown txid
	status, _ = httpGet(t, env.srv.URL+"/record/0x"+strings.Repeat("99", 32))
	assert.Equal(t, http.StatusNotFound, status)

	// mirror entry by txid
	status, body = httpGet(t, env.srv.URL+"/record/"+txid+"/local")
	require.Equal(t, http.StatusOK, status)
	var local stampapi.LocalRecord
	require.NoError(t, json.Unmarshal(body, &local))
	assert.Equal(t, txid, local.TxHash)
	assert.Equal(t, recDigest, local.Digest)

	// mirror entry by digest
	status, _ = httpGet(t, env.srv.URL+"/digest/"+recDigest)
	assert.Equal(t, http.StatusOK, status)

	// well formed but unknown digest
	status, _ = httpGet(t, env.srv.URL+"/digest/"+strings.Repeat("0", 64))
	assert.Equal(t, http.StatusNotFound, status)

	// malformed digest
	status, _ = httpGet(t, env.srv.URL+"/digest/nothex")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestHistoryEndpoint(t *testing.T) {
	env := setupTestServer(t)
	first := commitRecord(t, env, map[string]interface{}{"step": "train"}, "")
	second := commitRecord(t, env, map[string]interface{}{"step": "eval"}, first.Record.TxHash)

	status, body := httpGet(t, env.srv.URL+"/history/"+second.Record.TxHash+"?limit=10")
	require.Equal(t, http.StatusOK, status)

	var chain []json.RawMessage
	require.NoError(t, json.Unmarshal(body, &chain))
	assert.Len(t, chain, 2)

	status, _ = httpGet(t, env.srv.URL+"/history/"+second.Record.TxHash+"?limit=abc")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAccountRecordsWithoutExplorer(t *testing.T) {
	env := setupTestServer(t)

	status, _ := httpGet(t, env.srv.URL+"/account/"+env.recorder+"/records")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestVerifyEndpoint(t *testing.T) {
	env := setupTestServer(t)
	result := commitRecord(t, env, map[string]interface{}{"accuracy": "0.93"}, "")
	txid := result.Record.TxHash

	// take the package as served, then verify it back against the txid
	status, body := httpGet(t, env.srv.URL+"/record/"+txid)
	require.Equal(t, http.StatusOK, status)
	var fetched struct {
		Digest  string          `json:"digest"`
		Package json.RawMessage `json:"package"`
	}
	require.NoError(t, json.Unmarshal(body, &fetched))

	verifyBody, err := json.Marshal(map[string]interface{}{
		"data": json.RawMessage(fetched.Package),
		"txid": txid,
	})
	require.NoError(t, err)
	resp, err := http.Post(env.srv.URL+"/verify", "application/json", bytes.NewReader(verifyBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var verdict stampapi.VerifyResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verdict))
	assert.True(t, verdict.Match)
	assert.Equal(t, fetched.Digest, verdict.Digest)

	// tampered content does not match
	verifyBody, err = json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{"accuracy": "0.94"},
		"txid": txid,
	})
	require.NoError(t, err)
	resp, err = http.Post(env.srv.URL+"/verify", "application/json", bytes.NewReader(verifyBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verdict))
	assert.False(t, verdict.Match)

	// digest target instead of txid
	verifyBody, err = json.Marshal(map[string]interface{}{
		"data":   json.RawMessage(fetched.Package),
		"digest": fetched.Digest,
	})
	require.NoError(t, err)
	resp, err = http.Post(env.srv.URL+"/verify", "application/json", bytes.NewReader(verifyBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verdict))
	assert.True(t, verdict.Match)

	// no target at all
	verifyBody, err = json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{"a": 1},
	})
	require.NoError(t, err)
	resp, err = http.Post(env.srv.URL+"/verify", "application/json", bytes.NewReader(verifyBody))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJSONRPCEndpoint(t *testing.T) {
	env := setupTestServer(t)
	result := commitRecord(t, env, map[string]interface{}{"phase": "final"}, "")

	var info stampapi.ServerInfo
	err := client.RPCPost(&info, env.srv.URL+"/rpc", "stamp.GetServerInfo", struct{}{})
	require.NoError(t, err)
	assert.Equal(t, "ChainStampTest", info.Identifier)
	assert.Equal(t, env.recorder, info.Recorder)

	var rec stampapi.Record
	err = client.RPCPost(&rec, env.srv.URL+"/rpc", "stamp.GetRecord", result.Record.TxHash)
	require.NoError(t, err)
	assert.Equal(t, result.Record.TxHash, rec.TxHash)
	assert.Equal(t, result.Record.Digest, rec.Digest)

	var version string
	err = client.RPCPost(&version, env.srv.URL+"/rpc", "stamp.GetVersionInfo", struct{}{})
	require.NoError(t, err)
	assert.Equal(t, params.VersionWithMeta, version)

	// not found surfaces as a json-rpc error
	err = client.RPCPost(&rec, env.srv.URL+"/rpc", "stamp.GetRecord", "0x"+strings.Repeat("88", 32))
	assert.Error(t, err)
}

func TestMethodNotAllowed(t *testing.T) {
	env := setupTestServer(t)

	resp, err := http.Post(env.srv.URL+"/serverinfo", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	assert.Contains(t, buf.String(), "Forbid")
}
