package main

import (
	"context"
	"math/big"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/chainstamp/ChainStamp/cmd/utils"
	"github.com/chainstamp/ChainStamp/identity"
	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/mirror"
	"github.com/chainstamp/ChainStamp/params"
	"github.com/chainstamp/ChainStamp/tracer"
	"github.com/chainstamp/ChainStamp/tracer/eth"
)

var (
	clientIdentifier = "chainstamp"
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app = utils.NewApp(clientIdentifier, gitCommit, gitDate, "the chainstamp command line interface")
)

func initApp() {
	app.HideVersion = true // we have a command to print the version
	app.Commands = []*cli.Command{
		recordCommand,
		fetchCommand,
		verifyCommand,
		historyCommand,
		utils.VersionCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
}

func main() {
	initApp()
	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// commandFlags prepends the config flag and appends the common log flags
// to a command's own flag list.
func commandFlags(flags ...cli.Flag) []cli.Flag {
	all := append([]cli.Flag{utils.ConfigFileFlag}, flags...)
	return append(all, utils.CommonLogFlags...)
}

// initProtocol loads the configuration and wires the full stack: identity,
// gateway client, optional mirror, commit protocol. The returned cleanup
// closes the mirror store.
func initProtocol(ctx *cli.Context) (*tracer.Protocol, func(), error) {
	utils.SetLogger(ctx)
	params.LoadConfig(utils.GetConfigFilePath(ctx))

	id, err := identity.FromEnv(params.GetIdentityKeyEnv())
	if err != nil {
		return nil, nil, err
	}

	ledgerCfg := params.GetLedgerConfig()
	client, err := eth.NewClient(ledgerCfg, id)
	if err != nil {
		return nil, nil, err
	}
	verifyCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = client.VerifyChainID(verifyCtx)
	cancel()
	if err != nil {
		return nil, nil, err
	}

	store, err := mirror.New(params.GetMirrorConfig())
	if err != nil {
		return nil, nil, err
	}

	protocol := tracer.NewProtocol(client, id, store)
	if ledgerCfg.DefaultGasPrice > 0 || ledgerCfg.DefaultGasLimit > 0 {
		protocol.SetFallbackFee(
			new(big.Int).SetUint64(ledgerCfg.DefaultGasPrice),
			ledgerCfg.DefaultGasLimit)
	}

	cleanup := func() {
		if store != nil {
			if cerr := store.Close(); cerr != nil {
				log.Warn("close mirror store failed", "err", cerr)
			}
		}
	}
	return protocol, cleanup, nil
}
