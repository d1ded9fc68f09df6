// Package restapi exposes the read-only query surface over plain HTTP.
package restapi

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/chainstamp/ChainStamp/internal/stampapi"
)

const maxVerifyBodySize = 10 * 1024 * 1024 // 10M

func writeResponse(w http.ResponseWriter, resp interface{}, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case stampapi.IsNotFound(err):
			status = http.StatusNotFound
		case stampapi.IsBadRequest(err):
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	jsonData, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(jsonData)
}

// ServerInfoHandler handles 'serverinfo' request
func ServerInfoHandler(w http.ResponseWriter, r *http.Request) {
	res, err := stampapi.GetServerInfo()
	writeResponse(w, res, err)
}

// VersionInfoHandler handles 'versioninfo' request
func VersionInfoHandler(w http.ResponseWriter, r *http.Request) {
	res, err := stampapi.GetVersionInfo()
	writeResponse(w, res, err)
}

// GetRecordHandler handles 'get record by txid' request
func GetRecordHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := stampapi.GetRecord(r.Context(), vars["txid"])
	writeResponse(w, res, err)
}

// GetLocalRecordHandler handles 'get mirror entry by txid' request
func GetLocalRecordHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := stampapi.GetLocalRecord(r.Context(), vars["txid"])
	writeResponse(w, res, err)
}

// GetRecordByDigestHandler handles 'get mirror entry by digest' request
func GetRecordByDigestHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	res, err := stampapi.GetRecordByDigest(vars["digest"])
	writeResponse(w, res, err)
}

// HistoryHandler handles 'walk record history' request
func HistoryHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := stampapi.GetHistory(r.Context(), vars["txid"], limit)
	writeResponse(w, res, err)
}

// AccountRecordsHandler handles 'list account records' request
func AccountRecordsHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	page, err := queryInt(r, "page", 1)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res, err := stampapi.GetAccountRecords(r.Context(), vars["address"], page)
	writeResponse(w, res, err)
}

// VerifyHandler handles 'verify content against record' request
func VerifyHandler(w http.ResponseWriter, r *http.Request) {
	body, err := ioutil.ReadAll(io.LimitReader(r.Body, maxVerifyBodySize))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req stampapi.VerifyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	res, err := stampapi.VerifyContent(r.Context(), &req)
	writeResponse(w, res, err)
}

func queryInt(r *http.Request, key string, defaultVal int) (int, error) {
	vals, exist := r.URL.Query()[key]
	if !exist || len(vals) == 0 {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(vals[0])
	if err != nil {
		return 0, fmt.Errorf("wrong %s parameter", key)
	}
	return value, nil
}
