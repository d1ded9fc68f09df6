package utils

import (
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/params"
)

var (
	clientIdentifier string
	gitCommit        string
	gitDate          string
)

var (
	// TopWaitGroup is the top level wait group of background goroutines
	TopWaitGroup = new(sync.WaitGroup)
	// CleanupChan is closed when the process is interrupted, background
	// jobs select on it to stop
	CleanupChan = make(chan struct{})
)

// NewApp creates an app with sane defaults.
func NewApp(identifier, gitcommit, gitdate, usage string) *cli.App {
	clientIdentifier = identifier
	gitCommit = gitcommit
	gitDate = gitdate
	app := cli.NewApp()
	app.Name = filepath.Base(os.Args[0])
	app.Version = params.VersionWithCommit(gitCommit, gitDate)
	app.Usage = usage
	return app
}

// WaitAndCleanup blocks until an interrupt arrives, then stops the
// background jobs, waits for them and finally runs cleanup.
func WaitAndCleanup(cleanup func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Info("received exit signal", "signal", sig.String())
	close(CleanupChan)
	TopWaitGroup.Wait()
	if cleanup != nil {
		cleanup()
	}
}
