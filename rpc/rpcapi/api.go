// Package rpcapi exposes the query surface as a JSON-RPC 2.0 service.
package rpcapi

import (
	"net/http"

	"github.com/chainstamp/ChainStamp/internal/stampapi"
)

// RPCAPI rpc api handler
type RPCAPI struct{}

// RPCNullArgs null args
type RPCNullArgs struct{}

// GetVersionInfo api
func (s *RPCAPI) GetVersionInfo(r *http.Request, args *RPCNullArgs, result *string) error {
	res, err := stampapi.GetVersionInfo()
	if err == nil {
		*result = res
	}
	return err
}

// GetServerInfo api
func (s *RPCAPI) GetServerInfo(r *http.Request, args *RPCNullArgs, result *stampapi.ServerInfo) error {
	res, err := stampapi.GetServerInfo()
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetRecord api
func (s *RPCAPI) GetRecord(r *http.Request, txid *string, result *stampapi.Record) error {
	res, err := stampapi.GetRecord(r.Context(), *txid)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetLocalRecord api
func (s *RPCAPI) GetLocalRecord(r *http.Request, txid *string, result *stampapi.LocalRecord) error {
	res, err := stampapi.GetLocalRecord(r.Context(), *txid)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// GetRecordByDigest api
func (s *RPCAPI) GetRecordByDigest(r *http.Request, digest *string, result *stampapi.LocalRecord) error {
	res, err := stampapi.GetRecordByDigest(*digest)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}

// RPCHistoryArgs history walk args
type RPCHistoryArgs struct {
	TxID  string `json:"txid"`
	Limit int    `json:"limit"`
}

// GetHistory api
func (s *RPCAPI) GetHistory(r *http.Request, args *RPCHistoryArgs, result *[]*stampapi.Record) error {
	res, err := stampapi.GetHistory(r.Context(), args.TxID, args.Limit)
	if err == nil && res != nil {
		*result = res
	}
	return err
}

// RPCAccountRecordsArgs account scan args
type RPCAccountRecordsArgs struct {
	Address string `json:"address"`
	Page    int    `json:"page"`
}

// GetAccountRecords api
func (s *RPCAPI) GetAccountRecords(r *http.Request, args *RPCAccountRecordsArgs, result *[]stampapi.TxSummary) error {
	res, err := stampapi.GetAccountRecords(r.Context(), args.Address, args.Page)
	if err == nil && res != nil {
		*result = res
	}
	return err
}

// VerifyContent api
func (s *RPCAPI) VerifyContent(r *http.Request, args *stampapi.VerifyRequest, result *stampapi.VerifyResult) error {
	res, err := stampapi.VerifyContent(r.Context(), args)
	if err == nil && res != nil {
		*result = *res
	}
	return err
}
