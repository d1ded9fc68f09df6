package scanner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainstamp/ChainStamp/params"
)

const scanAddress = "0x9d8a62f656a8d1615c1294fd71e9cfb3e4855a4f"

func stubExplorer(t *testing.T, txs []map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "account", q.Get("module"))
		assert.Equal(t, "txlist", q.Get("action"))
		assert.Equal(t, "desc", q.Get("sort"))
		assert.NotEmpty(t, q.Get("page"))
		assert.NotEmpty(t, q.Get("offset"))

		resp := map[string]interface{}{"status": "1", "message": "OK", "result": txs}
		if len(txs) == 0 {
			resp = map[string]interface{}{
				"status": "0", "message": "No transactions found", "result": "",
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestNewDisabled(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = New(&params.ExplorerConfig{})
	assert.Error(t, err)
}

func TestListRecordsFiltersSelfTransfers(t *testing.T) {
	other := "0x" + strings.Repeat("77", 20)
	srv := stubExplorer(t, []map[string]string{
		{ // record shaped: self transfer with input
			"blockNumber": "120", "timeStamp": "1700000300",
			"hash": "0xaaa1", "from": scanAddress, "to": scanAddress,
			"input": "0x7b7d", "isError": "0",
		},
		{ // plain transfer to someone else
			"blockNumber": "110", "timeStamp": "1700000200",
			"hash": "0xaaa2", "from": scanAddress, "to": other,
			"input": "0x", "isError": "0",
		},
		{ // self transfer without input
			"blockNumber": "105", "timeStamp": "1700000150",
			"hash": "0xaaa3", "from": scanAddress, "to": scanAddress,
			"input": "0x", "isError": "0",
		},
		{ // failed record submission still shows up, marked unsuccessful
			"blockNumber": "100", "timeStamp": "1700000100",
			"hash": "0xaaa4", "from": scanAddress, "to": scanAddress,
			"input": "0x7b7d", "isError": "1",
		},
	})
	defer srv.Close()

	s, err := New(&params.ExplorerConfig{APIAddress: []string{srv.URL}, PageSize: 10})
	require.NoError(t, err)

	records, err := s.ListRecords(context.Background(), scanAddress, 1)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "0xaaa1", records[0].TxHash)
	assert.Equal(t, uint64(120), records[0].BlockNumber)
	assert.Equal(t, uint64(1700000300), records[0].BlockTime)
	assert.True(t, records[0].Success)

	assert.Equal(t, "0xaaa4", records[1].TxHash)
	assert.False(t, records[1].Success)
}

func TestListRecordsEmptyPage(t *testing.T) {
	srv := stubExplorer(t, nil)
	defer srv.Close()

	s, err := New(&params.ExplorerConfig{APIAddress: []string{srv.URL}})
	require.NoError(t, err)

	records, err := s.ListRecords(context.Background(), scanAddress, 3)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListRecordsEndpointFallback(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead.Close()

	srv := stubExplorer(t, []map[string]string{{
		"blockNumber": "120", "timeStamp": "1700000300",
		"hash": "0xaaa1", "from": scanAddress, "to": scanAddress,
		"input": "0x7b7d", "isError": "0",
	}})
	defer srv.Close()

	s, err := New(&params.ExplorerConfig{APIAddress: []string{dead.URL, srv.URL}})
	require.NoError(t, err)

	records, err := s.ListRecords(context.Background(), scanAddress, 1)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestListRecordsAllEndpointsDown(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	dead.Close()

	s, err := New(&params.ExplorerConfig{APIAddress: []string{dead.URL}})
	require.NoError(t, err)

	_, err = s.ListRecords(context.Background(), scanAddress, 1)
	assert.Error(t, err)
}
