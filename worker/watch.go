package worker

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/chainstamp/ChainStamp/cmd/utils"
	"github.com/chainstamp/ChainStamp/digest"
	"github.com/chainstamp/ChainStamp/params"
	"github.com/chainstamp/ChainStamp/tracer"
)

// watchJob ingests files dropped into one directory. Every regular file
// is digested and committed as a single file record; a file is committed
// again only when its content digest changes. Events are debounced per
// path so a file being written in chunks lands as one record.
type watchJob struct {
	dir      string
	typeTag  string
	hashOnly bool

	mu       sync.Mutex
	pending  map[string]*time.Timer
	recorded map[string]string // abs path -> last committed digest hex
}

// StartWatchJob start drop directory ingestion job
func StartWatchJob(cfg *params.WatchConfig) {
	if protocol == nil {
		logWorkerError("watch", "watch job needs an initialized protocol", nil)
		return
	}
	if protocol.Identity().ReadOnly() {
		logWorker("watch", "identity is read only, watch job disabled")
		return
	}

	job := &watchJob{
		dir:      cfg.Dir,
		typeTag:  cfg.TypeTag,
		hashOnly: cfg.HashOnly,
		pending:  make(map[string]*time.Timer),
		recorded: make(map[string]string),
	}
	if job.typeTag == "" {
		job.typeTag = defaultWatchTypeTag
	}
	sweepInterval := cfg.Interval
	if sweepInterval == 0 {
		sweepInterval = defaultSweepInterval
	}

	if err := os.MkdirAll(job.dir, 0700); err != nil {
		logWorkerError("watch", "create watch dir failed", err, "dir", job.dir)
		return
	}

	watch, err := fsnotify.NewWatcher()
	if err != nil {
		logWorkerError("watch", "fsnotify.NewWatcher failed", err)
		return
	}
	if err := watch.Add(job.dir); err != nil {
		logWorkerError("watch", "watch directory failed", err, "dir", job.dir)
		_ = watch.Close()
		return
	}

	job.sweep() // record files already present before the watcher started

	utils.TopWaitGroup.Add(1)
	go job.startWatcher(watch, time.Duration(sweepInterval)*time.Second)
}

func (job *watchJob) startWatcher(watch *fsnotify.Watcher, sweepInterval time.Duration) {
	logWorker("watch", "start drop directory watch", "dir", job.dir,
		"typeTag", job.typeTag, "hashOnly", job.hashOnly, "sweepInterval", sweepInterval)
	sweeper := time.NewTicker(sweepInterval)
	defer func() {
		logWorker("watch", "stop drop directory watch", "dir", job.dir)
		sweeper.Stop()
		_ = watch.Close()
		job.cancelPending()
		utils.TopWaitGroup.Done()
	}()

	ops := []fsnotify.Op{
		fsnotify.Create,
		fsnotify.Write,
	}

	for {
		select {
		case <-utils.CleanupChan:
			return
		case <-sweeper.C:
			job.sweep()
		case ev, ok := <-watch.Events:
			if !ok {
				continue
			}
			logWorkerTrace("watch", "fsnotify watch event", "event", ev)
			for _, op := range ops {
				if ev.Op&op == op {
					job.debounce(ev.Name)
					break
				}
			}
		case werr, ok := <-watch.Errors:
			if !ok {
				continue
			}
			logWorkerError("watch", "fsnotify watch error", werr)
		}
	}
}

// debounce schedules an ingest for path after a quiet period, resetting
// the clock whenever another event for the same path arrives.
func (job *watchJob) debounce(path string) {
	job.mu.Lock()
	defer job.mu.Unlock()
	if timer, exist := job.pending[path]; exist {
		timer.Reset(debounceDelay)
		return
	}
	job.pending[path] = time.AfterFunc(debounceDelay, func() {
		job.mu.Lock()
		delete(job.pending, path)
		job.mu.Unlock()
		job.ingestFile(path)
	})
}

func (job *watchJob) cancelPending() {
	job.mu.Lock()
	defer job.mu.Unlock()
	for path, timer := range job.pending {
		timer.Stop()
		delete(job.pending, path)
	}
}

// sweep rescans the directory so files missed by the watcher (daemon
// restarts, event overflow) still get recorded.
func (job *watchJob) sweep() {
	entries, err := ioutil.ReadDir(job.dir)
	if err != nil {
		logWorkerError("watch", "read watch dir failed", err, "dir", job.dir)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		job.ingestFile(filepath.Join(job.dir, entry.Name()))
	}
}

// ingestFile commits one file as a record. Partial and hidden files are
// skipped, as are files whose content digest is already recorded.
func (job *watchJob) ingestFile(path string) {
	if ignoreFileName(filepath.Base(path)) {
		return
	}
	fileStat, _ := os.Stat(path)
	// ignore if file does not exist, or is a directory, or is empty
	if fileStat == nil || fileStat.IsDir() || fileStat.Size() == 0 {
		return
	}

	d, err := digest.File(path)
	if err != nil {
		logWorkerError("watch", "digest file failed", err, "file", path)
		return
	}

	job.mu.Lock()
	last, seen := job.recorded[path]
	job.mu.Unlock()
	if seen && last == d.Hex() {
		logWorkerTrace("watch", "file already recorded", "file", path, "digest", d.Hex())
		return
	}

	acc := tracer.NewAccumulator(job.typeTag)
	if err := acc.AddFile(filepath.Base(path), path); err != nil {
		logWorkerError("watch", "add file failed", err, "file", path)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
	defer cancel()
	result, err := protocol.Commit(ctx, acc, &tracer.CommitOptions{HashOnly: job.hashOnly})
	if err != nil {
		logWorkerError("watch", "commit file record failed", err, "file", path)
		return
	}

	job.mu.Lock()
	job.recorded[path] = d.Hex()
	job.mu.Unlock()
	logWorker("watch", "file recorded", "file", path,
		"digest", d.Hex(), "txid", result.Record.TxHash)
}

func ignoreFileName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch {
	case strings.HasSuffix(name, "~"),
		strings.HasSuffix(name, ".tmp"),
		strings.HasSuffix(name, ".part"),
		strings.HasSuffix(name, ".swp"):
		return true
	}
	return false
}
