package eth

import (
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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainstamp/ChainStamp/identity"
	"github.com/chainstamp/ChainStamp/params"
	"github.com/chainstamp/ChainStamp/tracer"
)

const (
	testKeyEnv  = "CHAINSTAMP_ETH_TEST_KEY"
	testChainID = "19"
)

var testKeyHex = strings.Repeat("37", 32)

// stubGateway fakes a JSON-RPC gateway over httptest. Behavior is driven by
// plain fields so each test arranges exactly the ledger state it needs.
type stubGateway struct {
	mu           sync.Mutex
	chainID      string
	netVersion   string
	height       uint64
	heightStep   uint64
	pendingNonce uint64
	gasPrice     string
	gasEstimate  string
	sendResult   string
	rawSent      []string
	txs          map[string]interface{}
	receipts     map[string]interface{}
	receiptDelay map[string]int
	blocks       map[string]interface{}
	calls        map[string]int

	srv *httptest.Server
}

func newStubGateway() *stubGateway {
	g := &stubGateway{
		chainID:      "0x13",
		netVersion:   testChainID,
		height:       100,
		gasPrice:     "0x3b9aca00", // 1 gwei
		gasEstimate:  "0x5208",     // 21000
		sendResult:   "0x" + strings.Repeat("ab", 32),
		txs:          make(map[string]interface{}),
		receipts:     make(map[string]interface{}),
		receiptDelay: make(map[string]int),
		blocks:       make(map[string]interface{}),
		calls:        make(map[string]int),
	}
	g.srv = httptest.NewServer(http.HandlerFunc(g.serve))
	return g
}

func (g *stubGateway) URL() string { return g.srv.URL }
func (g *stubGateway) Close()      { g.srv.Close() }

func (g *stubGateway) callCount(method string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[method]
}

func (g *stubGateway) sentCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rawSent)
}

func (g *stubGateway) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	strParam := func(i int) string {
		var s string
		if i < len(req.Params) {
			_ = json.Unmarshal(req.Params[i], &s)
		}
		return s
	}

	g.mu.Lock()
	g.calls[req.Method]++
	var result interface{}
	var errMsg string
	switch req.Method {
	case "eth_chainId":
		result = g.chainID
	case "net_version":
		result = g.netVersion
	case "eth_blockNumber":
		result = fmt.Sprintf("0x%x", g.height)
		g.height += g.heightStep
	case "eth_getTransactionCount":
		result = fmt.Sprintf("0x%x", g.pendingNonce)
	case "eth_gasPrice":
		result = g.gasPrice
	case "eth_estimateGas":
		result = g.gasEstimate
	case "eth_sendRawTransaction":
		g.rawSent = append(g.rawSent, strParam(0))
		result = g.sendResult
	case "eth_getTransactionByHash":
		result = g.txs[strParam(0)]
	case "eth_getTransactionReceipt":
		hash := strParam(0)
		if d := g.receiptDelay[hash]; d > 0 {
			g.receiptDelay[hash] = d - 1
		} else {
			result = g.receipts[hash]
		}
	case "eth_getBlockByNumber":
		result = g.blocks[strParam(0)]
	default:
		errMsg = "the method " + req.Method + " does not exist"
	}
	g.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": 1}
	if errMsg != "" {
		resp["error"] = map[string]interface{}{"code": -32601, "message": errMsg}
	} else {
		resp["result"] = result
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestIdentity(t *testing.T) *identity.Identity {
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
	return id
}

func newTestClient(t *testing.T, id *identity.Identity, urls ...string) *Client {
	t.Helper()
	cli, err := NewClient(&params.LedgerConfig{
		ChainID:             testChainID,
		APIAddress:          urls,
		Confirmations:       0,
		GasLimitPlusPercent: 40,
	}, id)
	require.NoError(t, err)
	cli.pollInterval = 5 * time.Millisecond
	return cli
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(nil, nil)
	assert.Error(t, err)

	_, err = NewClient(&params.LedgerConfig{ChainID: testChainID}, nil)
	assert.ErrorIs(t, err, errEmptyURLs)

	_, err = NewClient(&params.LedgerConfig{ChainID: "nineteen", APIAddress: []string{"http://x"}}, nil)
	assert.Error(t, err)

	cli, err := NewClient(&params.LedgerConfig{ChainID: testChainID, APIAddress: []string{"http://x"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(19), cli.ChainID())
}

func TestVerifyChainID(t *testing.T) {
	g := newStubGateway()
	defer g.Close()
	cli := newTestClient(t, nil, g.URL())

	assert.NoError(t, cli.VerifyChainID(context.Background()))

	// some gateways answer eth_chainId with zero, net_version decides then
	g.mu.Lock()
	g.chainID = "0x0"
	g.mu.Unlock()
	assert.NoError(t, cli.VerifyChainID(context.Background()))

	g.mu.Lock()
	g.netVersion = "20"
	g.mu.Unlock()
	err := cli.VerifyChainID(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match")
}

func TestGatewayFallback(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead.Close() // connection refused from now on

	g := newStubGateway()
	defer g.Close()

	cli := newTestClient(t, nil, dead.URL, g.URL())

	height, err := cli.getLatestBlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), height)

	_, err = cli.getMaxGasPrice(context.Background())
	assert.NoError(t, err)
}

func TestLatestBlockNumberMaxOverGateways(t *testing.T) {
	g1 := newStubGateway()
	defer g1.Close()
	g2 := newStubGateway()
	defer g2.Close()
	g2.height = 105

	cli := newTestClient(t, nil, g1.URL(), g2.URL())
	height, err := cli.getLatestBlockNumber(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(105), height)
}

func TestEstimateFeeHeadroom(t *testing.T) {
	g := newStubGateway()
	defer g.Close()
	cli := newTestClient(t, nil, g.URL())

	fee, err := cli.EstimateFee(context.Background(), "0x"+strings.Repeat("11", 20), []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000000000), fee.GasPrice)
	// 21000 plus 40 percent headroom
	assert.Equal(t, uint64(29400), fee.GasLimit)
}

func TestSubmitAndNonceFloor(t *testing.T) {
	g := newStubGateway()
	defer g.Close()
	id := newTestIdentity(t)
	cli := newTestClient(t, id, g.URL())
	ctx := context.Background()

	g.pendingNonce = 5
	nonce, err := cli.GetNonce(ctx, id.Address().LowerHex())
	require.NoError(t, err)
	assert.Equal(t, uint64(5), nonce)

	txHash, err := cli.Submit(ctx, &tracer.Submission{
		Nonce:   7,
		Fee:     &tracer.FeeEstimate{GasPrice: big.NewInt(1000000000), GasLimit: 21000},
		Payload: []byte(`{"a":1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, g.sendResult, txHash)
	require.Equal(t, 1, g.sentCount())
	assert.True(t, strings.HasPrefix(g.rawSent[0], "0x"))

	// local floor outranks the lagging gateway
	nonce, err = cli.GetNonce(ctx, id.Address().LowerHex())
	require.NoError(t, err)
	assert.Equal(t, uint64(8), nonce)

	// once the gateway catches up and moves past, remote wins again
	g.mu.Lock()
	g.pendingNonce = 9
	g.mu.Unlock()
	nonce, err = cli.GetNonce(ctx, id.Address().LowerHex())
	require.NoError(t, err)
	assert.Equal(t, uint64(9), nonce)
}

func TestSubmitReadOnly(t *testing.T) {
	g := newStubGateway()
	defer g.Close()

	require.NoError(t, os.Unsetenv("CHAINSTAMP_ETH_MISSING_KEY"))
	id, err := identity.FromEnv("CHAINSTAMP_ETH_MISSING_KEY")
	require.NoError(t, err)
	require.True(t, id.ReadOnly())

	cli := newTestClient(t, id, g.URL())
	_, err = cli.Submit(context.Background(), &tracer.Submission{
		Nonce: 0,
		Fee:   &tracer.FeeEstimate{GasPrice: big.NewInt(1), GasLimit: 21000},
	})
	assert.ErrorIs(t, err, identity.ErrReadOnly)
	assert.Equal(t, 0, g.sentCount())
}

func TestWaitConfirmedDepth(t *testing.T) {
	g := newStubGateway()
	defer g.Close()
	cli := newTestClient(t, nil, g.URL())
	cli.confirmations = 2

	txHash := "0x" + strings.Repeat("cd", 32)
	g.receipts[txHash] = map[string]interface{}{
		"transactionHash": txHash,
		"status":          "0x1",
		"blockNumber":     "0x64", // 100
		"blockHash":       "0x" + strings.Repeat("ee", 32),
		"gasUsed":         "0x5208",
		"logs":            []interface{}{},
	}
	g.receiptDelay[txHash] = 2 // unmined for the first two polls
	g.heightStep = 1           // chain advances one block per poll

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	receipt, err := cli.WaitConfirmed(ctx, txHash)
	require.NoError(t, err)
	assert.True(t, receipt.Success)
	assert.Equal(t, uint64(100), receipt.BlockNumber)
	assert.Equal(t, uint64(21000), receipt.GasUsed)
	// took at least the two unmined polls plus the confirmation depth
	assert.GreaterOrEqual(t, g.callCount("eth_getTransactionReceipt"), 3)
}

func TestWaitConfirmedTimeout(t *testing.T) {
	g := newStubGateway()
	defer g.Close()
	cli := newTestClient(t, nil, g.URL())

	txHash := "0x" + strings.Repeat("cd", 32)
	g.receiptDelay[txHash] = 1 << 30

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	_, err := cli.WaitConfirmed(ctx, txHash)
	assert.ErrorIs(t, err, tracer.ErrConfirmTimeout)
}

func TestGetTransactionMapping(t *testing.T) {
	g := newStubGateway()
	defer g.Close()
	cli := newTestClient(t, nil, g.URL())

	txHash := "0x" + strings.Repeat("11", 32)
	sender := "0x9D8A62f656A8d1615C1294fD71e9CFb3E4855A4F"
	g.txs[txHash] = map[string]interface{}{
		"hash":        txHash,
		"from":        sender,
		"to":          sender,
		"nonce":       "0x0",
		"gasPrice":    "0x3b9aca00",
		"gas":         "0x5208",
		"value":       "0x0",
		"input":       "0x7b7d",
		"blockNumber": "0x64",
		"blockHash":   "0x" + strings.Repeat("22", 32),
	}

	info, err := cli.GetTransaction(context.Background(), txHash)
	require.NoError(t, err)
	assert.Equal(t, strings.ToLower(sender), info.From)
	assert.Equal(t, strings.ToLower(sender), info.To)
	assert.Equal(t, []byte("{}"), info.Input)
	assert.Equal(t, uint64(100), info.BlockNumber)

	_, err = cli.GetTransaction(context.Background(), "0x"+strings.Repeat("99", 32))
	assert.ErrorIs(t, err, tracer.ErrRecordNotFound)
}

func TestGetReceiptUnmined(t *testing.T) {
	g := newStubGateway()
	defer g.Close()
	cli := newTestClient(t, nil, g.URL())

	_, err := cli.GetReceipt(context.Background(), "0x"+strings.Repeat("77", 32))
	assert.ErrorIs(t, err, tracer.ErrRecordNotFound)
}

func TestGetBlockTime(t *testing.T) {
	g := newStubGateway()
	defer g.Close()
	cli := newTestClient(t, nil, g.URL())

	g.blocks["0x64"] = map[string]interface{}{
		"number":    "0x64",
		"hash":      "0x" + strings.Repeat("33", 32),
		"timestamp": "0x65a0f000",
	}

	ts, err := cli.GetBlockTime(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x65a0f000), ts)

	_, err = cli.GetBlockTime(context.Background(), 101)
	assert.Error(t, err)
}
