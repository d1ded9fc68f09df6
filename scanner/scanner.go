// Package scanner discovers record transactions through an etherscan style
// explorer API. It is a convenience path only, records stay fully
// reconstructible from the ledger without it.
package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/chainstamp/ChainStamp/common"
	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/params"
)

var errNoExplorer = errors.New("no explorer endpoint configured")

// TxSummary is one discovered record transaction.
type TxSummary struct {
	TxHash      string `json:"txid"`
	From        string `json:"from"`
	To          string `json:"to"`
	BlockNumber uint64 `json:"blockNumber"`
	BlockTime   uint64 `json:"blockTime"`
	Success     bool   `json:"success"`
}

// Scanner queries explorer endpoints for the transactions of an account.
type Scanner struct {
	urls     []string
	pageSize int
	client   *resty.Client
}

// New builds a scanner from the explorer config. A nil config means no
// explorer is available and callers get a nil scanner.
func New(cfg *params.ExplorerConfig) (*Scanner, error) {
	if cfg == nil {
		return nil, nil
	}
	if len(cfg.APIAddress) == 0 {
		return nil, errNoExplorer
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 25
	}
	return &Scanner{
		urls:     append([]string(nil), cfg.APIAddress...),
		pageSize: pageSize,
		client:   resty.New(),
	}, nil
}

// account tx list entry in explorer wire form, every value is a string
type rawAccountTx struct {
	BlockNumber string `json:"blockNumber"`
	TimeStamp   string `json:"timeStamp"`
	Hash        string `json:"hash"`
	From        string `json:"from"`
	To          string `json:"to"`
	Input       string `json:"input"`
	IsError     string `json:"isError"`
}

type accountTxResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// ListRecords lists the record shaped transactions of address, newest
// first. Record shaped means a self transfer carrying input data, which is
// the only form record submissions take. Pages are 1 based and sized by the
// explorer config.
func (s *Scanner) ListRecords(ctx context.Context, address string, page int) ([]TxSummary, error) {
	if page < 1 {
		page = 1
	}
	queryParams := map[string]string{
		"module":  "account",
		"action":  "txlist",
		"address": address,
		"page":    strconv.Itoa(page),
		"offset":  strconv.Itoa(s.pageSize),
		"sort":    "desc",
	}
	var err error
	for _, url := range s.urls {
		resp, reqErr := s.client.R().SetContext(ctx).SetQueryParams(queryParams).Get(url)
		if reqErr != nil {
			log.Warn("explorer request failed", "url", url, "err", reqErr)
			err = reqErr
			continue
		}
		if resp.StatusCode() != 200 {
			log.Warn("explorer request failed", "url", url, "status", resp.StatusCode())
			err = fmt.Errorf("explorer status %v", resp.StatusCode())
			continue
		}
		var decoded accountTxResponse
		if err = json.Unmarshal(resp.Body(), &decoded); err != nil {
			log.Warn("explorer response malformed", "url", url, "err", err)
			continue
		}
		return filterRecords(&decoded, address)
	}
	if err == nil {
		err = errNoExplorer
	}
	return nil, err
}

func filterRecords(decoded *accountTxResponse, address string) ([]TxSummary, error) {
	var rawTxs []rawAccountTx
	if err := json.Unmarshal(decoded.Result, &rawTxs); err != nil {
		// explorers answer "0" with a string result when the page is
		// empty or the account is unknown
		if decoded.Status == "0" {
			return []TxSummary{}, nil
		}
		return nil, fmt.Errorf("explorer result malformed: %v", err)
	}
	records := make([]TxSummary, 0, len(rawTxs))
	for _, tx := range rawTxs {
		if !common.EqualAddress(tx.From, address) || !common.EqualAddress(tx.To, address) {
			continue
		}
		if tx.Input == "" || tx.Input == "0x" {
			continue
		}
		blockNumber, _ := strconv.ParseUint(tx.BlockNumber, 10, 64)
		blockTime, _ := strconv.ParseUint(tx.TimeStamp, 10, 64)
		records = append(records, TxSummary{
			TxHash:      tx.Hash,
			From:        tx.From,
			To:          tx.To,
			BlockNumber: blockNumber,
			BlockTime:   blockTime,
			Success:     tx.IsError == "0",
		})
	}
	return records, nil
}
