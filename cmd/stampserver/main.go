package main

import (
	"context"
	"fmt"
	"math/big"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/chainstamp/ChainStamp/cmd/utils"
	"github.com/chainstamp/ChainStamp/identity"
	"github.com/chainstamp/ChainStamp/internal/stampapi"
	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/mirror"
	"github.com/chainstamp/ChainStamp/params"
	rpcserver "github.com/chainstamp/ChainStamp/rpc/server"
	"github.com/chainstamp/ChainStamp/scanner"
	"github.com/chainstamp/ChainStamp/tracer"
	"github.com/chainstamp/ChainStamp/tracer/eth"
	"github.com/chainstamp/ChainStamp/worker"
)

var (
	clientIdentifier = "stampserver"
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app = utils.NewApp(clientIdentifier, gitCommit, gitDate, "the stampserver command line interface")
)

func initApp() {
	// Initialize the CLI app and start action
	app.Action = stampserver
	app.HideVersion = true // we have a command to print the version
	app.Commands = []*cli.Command{
		utils.VersionCommand,
	}
	app.Flags = append([]cli.Flag{
		utils.ConfigFileFlag,
	}, utils.CommonLogFlags...)
	sort.Sort(cli.CommandsByName(app.Commands))
}

func main() {
	initApp()
	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func stampserver(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	if ctx.NArg() > 0 {
		return fmt.Errorf("invalid command: %q", ctx.Args().Get(0))
	}
	configFile := utils.GetConfigFilePath(ctx)
	params.LoadConfig(configFile)

	id, err := identity.FromEnv(params.GetIdentityKeyEnv())
	if err != nil {
		return err
	}
	if id.ReadOnly() {
		log.Info("no signing key configured, serving in read only mode")
	}

	ledgerCfg := params.GetLedgerConfig()
	client, err := eth.NewClient(ledgerCfg, id)
	if err != nil {
		return err
	}
	verifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = client.VerifyChainID(verifyCtx)
	cancel()
	if err != nil {
		return err
	}

	store, err := mirror.New(params.GetMirrorConfig())
	if err != nil {
		return err
	}

	protocol := tracer.NewProtocol(client, id, store)
	if ledgerCfg.DefaultGasPrice > 0 || ledgerCfg.DefaultGasLimit > 0 {
		protocol.SetFallbackFee(
			new(big.Int).SetUint64(ledgerCfg.DefaultGasPrice),
			ledgerCfg.DefaultGasLimit)
	}

	scan, err := scanner.New(params.GetExplorerConfig())
	if err != nil {
		return err
	}

	stampapi.Init(protocol, scan)
	worker.StartWork(protocol)
	time.Sleep(100 * time.Millisecond)
	rpcserver.StartAPIServer()

	utils.WaitAndCleanup(func() {
		if store != nil {
			if cerr := store.Close(); cerr != nil {
				log.Warn("close mirror store failed", "err", cerr)
			}
		}
	})
	return nil
}
