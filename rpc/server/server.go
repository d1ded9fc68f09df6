// Package server assembles the HTTP query service: REST routes, the
// JSON-RPC endpoint, CORS and per client rate limiting.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/rpc/v2"
	rpcjson "github.com/gorilla/rpc/v2/json2"

	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/params"
	"github.com/chainstamp/ChainStamp/rpc/restapi"
	"github.com/chainstamp/ChainStamp/rpc/rpcapi"
)

// StartAPIServer start api server
func StartAPIServer() {
	router := initRouter()

	apiPort := params.GetAPIPort()
	serverCfg := params.GetServerConfig()
	var allowedOrigins []string
	maxRequestsLimit := 10
	if serverCfg != nil {
		allowedOrigins = serverCfg.AllowedOrigins
		if serverCfg.MaxRequestsLimit > 0 {
			maxRequestsLimit = serverCfg.MaxRequestsLimit
		}
	}

	corsOptions := []handlers.CORSOption{
		handlers.AllowedMethods([]string{"GET", "POST"}),
	}
	if len(allowedOrigins) != 0 {
		corsOptions = append(corsOptions,
			handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type"}),
			handlers.AllowedOrigins(allowedOrigins),
		)
	}

	lmt := tollbooth.NewLimiter(float64(maxRequestsLimit), &limiter.ExpirableOptions{
		DefaultExpirationTTL: 600 * time.Second,
	})
	handler := tollbooth.LimitHandler(lmt, handlers.CORS(corsOptions...)(router))

	log.Info("JSON RPC service listen and serving", "port", apiPort,
		"allowedOrigins", allowedOrigins, "maxRequestsLimit", maxRequestsLimit)
	svr := http.Server{
		Addr:         fmt.Sprintf(":%v", apiPort),
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		Handler:      handler,
	}
	go func() {
		if err := svr.ListenAndServe(); err != nil {
			log.Error("ListenAndServe error", "err", err)
		}
	}()
}

func initRouter() *mux.Router {
	r := mux.NewRouter()

	rpcserver := rpc.NewServer()
	rpcserver.RegisterCodec(rpcjson.NewCodec(), "application/json")
	_ = rpcserver.RegisterService(new(rpcapi.RPCAPI), "stamp")

	r.Handle("/rpc", rpcserver)
	r.HandleFunc("/serverinfo", restapi.ServerInfoHandler).Methods("GET")
	r.HandleFunc("/versioninfo", restapi.VersionInfoHandler).Methods("GET")
	r.HandleFunc("/record/{txid}", restapi.GetRecordHandler).Methods("GET")
	r.HandleFunc("/record/{txid}/local", restapi.GetLocalRecordHandler).Methods("GET")
	r.HandleFunc("/digest/{digest}", restapi.GetRecordByDigestHandler).Methods("GET")
	r.HandleFunc("/history/{txid}", restapi.HistoryHandler).Methods("GET")
	r.HandleFunc("/account/{address}/records", restapi.AccountRecordsHandler).Methods("GET")
	r.HandleFunc("/verify", restapi.VerifyHandler).Methods("POST")

	methodsExcluesGet := []string{"POST", "HEAD", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"}
	methodsExcluesPost := []string{"GET", "HEAD", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"}

	r.HandleFunc("/serverinfo", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/versioninfo", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/record/{txid}", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/record/{txid}/local", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/digest/{digest}", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/history/{txid}", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/account/{address}/records", warnHandler).Methods(methodsExcluesGet...)
	r.HandleFunc("/verify", warnHandler).Methods(methodsExcluesPost...)

	return r
}

func warnHandler(w http.ResponseWriter, r *http.Request) {
	fmt.Fprintf(w, "Forbid '%v' on '%v'\n", r.Method, r.RequestURI)
}
