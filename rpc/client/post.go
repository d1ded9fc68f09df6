package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"time"
)

const (
	defaultTimeout   = 60 // seconds
	defaultRequestID = 1

	maxReadContentLength int64 = 1024 * 1024 * 10 // 10M
)

// Request bundles one JSON-RPC call before it is posted.
type Request struct {
	Method  string
	Params  interface{}
	Timeout int
	ID      int
}

// NewRequest creates a request with the default timeout and id.
func NewRequest(method string, params ...interface{}) *Request {
	return &Request{
		Method:  method,
		Params:  params,
		Timeout: defaultTimeout,
		ID:      defaultRequestID,
	}
}

// NewRequestWithTimeoutAndID creates a request with the given timeout
// (in seconds) and id.
func NewRequestWithTimeoutAndID(timeout, id int, method string, params ...interface{}) *Request {
	return &Request{
		Method:  method,
		Params:  params,
		Timeout: timeout,
		ID:      id,
	}
}

// RPCPost posts a JSON-RPC request with the default timeout and decodes the
// response result into result.
func RPCPost(result interface{}, url, method string, params ...interface{}) error {
	return RPCPostRequest(context.Background(), url, NewRequest(method, params...), result)
}

// RPCPostWithContext posts a JSON-RPC request bounded by ctx.
func RPCPostWithContext(ctx context.Context, result interface{}, url, method string, params ...interface{}) error {
	return RPCPostRequest(ctx, url, NewRequest(method, params...), result)
}

// RPCPostWithTimeout posts a JSON-RPC request with a specified timeout
// in seconds.
func RPCPostWithTimeout(timeout int, result interface{}, url, method string, params ...interface{}) error {
	req := NewRequestWithTimeoutAndID(timeout, defaultRequestID, method, params...)
	return RPCPostRequest(context.Background(), url, req, result)
}

// RequestBody is the JSON-RPC 2.0 request envelope.
type RequestBody struct {
	Version string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int         `json:"id"`
}

type jsonError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (err *jsonError) Error() string {
	return fmt.Sprintf("json-rpc error %d, %s", err.Code, err.Message)
}

type jsonrpcResponse struct {
	Version string          `json:"jsonrpc,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
	Error   *jsonError      `json:"error,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
}

// RPCPostRequest posts req to url and decodes the JSON-RPC result into
// result. A JSON-RPC level error is returned as an error.
func RPCPostRequest(ctx context.Context, url string, req *Request, result interface{}) error {
	reqBody := &RequestBody{
		Version: "2.0",
		Method:  req.Method,
		Params:  req.Params,
		ID:      req.ID,
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.Timeout)*time.Second)
		defer cancel()
	}
	resp, err := HTTPPost(ctx, url, reqBody, nil, nil)
	if err != nil {
		return err
	}
	return getResultFromJSONResponse(result, resp)
}

func getResultFromJSONResponse(result interface{}, resp *http.Response) error {
	defer func() {
		_ = resp.Body.Close()
	}()
	body, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxReadContentLength))
	if err != nil {
		return fmt.Errorf("read body error: %v", err)
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("wrong response status %v. message: %v", resp.StatusCode, string(body))
	}

	var jsonResp jsonrpcResponse
	err = json.Unmarshal(body, &jsonResp)
	if err != nil {
		return fmt.Errorf("unmarshal body error: %v", err)
	}
	if jsonResp.Error != nil {
		return fmt.Errorf("return error: %v", jsonResp.Error.Error())
	}
	err = json.Unmarshal(jsonResp.Result, &result)
	if err != nil {
		return fmt.Errorf("unmarshal result error: %v", err)
	}
	return nil
}
