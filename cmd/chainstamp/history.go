package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	historyCommand = &cli.Command{
		Action:    history,
		Name:      "history",
		Usage:     "walk a record's back links",
		ArgsUsage: "<txid>",
		Description: `
Walk previous record links starting from the given transaction hash and
print the chain newest first as JSON. A broken link prints the records
collected before the break alongside the error.

Example:

./chainstamp history --config config.toml --limit 10 0x1234...cdef
`,
		Flags: commandFlags(
			limitFlag,
		),
	}

	limitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "maximum records to walk (0 means no limit)",
		Value: 20,
	}
)

func history(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("history needs exactly one txid argument")
	}
	txid := ctx.Args().Get(0)

	protocol, cleanup, err := initProtocol(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	walkCtx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	chain, werr := protocol.History(walkCtx, txid, ctx.Int(limitFlag.Name))
	if len(chain) > 0 {
		bs, err := json.MarshalIndent(chain, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(bs))
	}
	return werr
}
