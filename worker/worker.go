// Package worker runs the background jobs of the record daemon. The only
// job today is drop-directory ingestion: files appearing in a watched
// directory are digested and committed as single-file records.
package worker

import (
	"time"

	"github.com/chainstamp/ChainStamp/params"
	"github.com/chainstamp/ChainStamp/tracer"
)

const interval = 10 * time.Millisecond

var protocol *tracer.Protocol

// StartWork start daemon background jobs
func StartWork(p *tracer.Protocol) {
	logWorker("worker", "start daemon worker")
	protocol = p

	watchCfg := params.GetWatchConfig()
	if watchCfg == nil || watchCfg.Dir == "" {
		logWorker("worker", "no watch directory configured, nothing to do")
		return
	}

	go StartWatchJob(watchCfg)
	time.Sleep(interval)
}
