package worker

import (
	"time"

	"github.com/chainstamp/ChainStamp/log"
)

var (
	debounceDelay = 2 * time.Second
	commitTimeout = 120 * time.Second

	defaultSweepInterval = uint64(10) // seconds
	defaultWatchTypeTag  = "file"
)

func logWorker(job, subject string, context ...interface{}) {
	log.Info("["+job+"] "+subject, context...)
}

func logWorkerError(job, subject string, err error, context ...interface{}) {
	fields := []interface{}{"err", err}
	fields = append(fields, context...)
	log.Error("["+job+"] "+subject, fields...)
}

func logWorkerTrace(job, subject string, context ...interface{}) {
	log.Trace("["+job+"] "+subject, context...)
}
