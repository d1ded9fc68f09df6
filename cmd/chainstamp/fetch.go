package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
)

var (
	fetchCommand = &cli.Command{
		Action:    fetch,
		Name:      "fetch",
		Usage:     "read a record back from the ledger",
		ArgsUsage: "<txid>",
		Description: `
Read the record transaction, decode its package and print it as JSON.
With --local the mirror entry stored under the record's content digest
is printed instead, including the file paths kept off chain.

Example:

./chainstamp fetch --config config.toml 0x1234...cdef
`,
		Flags: commandFlags(
			localFlag,
		),
	}

	localFlag = &cli.BoolFlag{
		Name:  "local",
		Usage: "print the mirror entry instead of the ledger record",
	}
)

func fetch(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return fmt.Errorf("fetch needs exactly one txid argument")
	}
	txid := ctx.Args().Get(0)

	protocol, cleanup, err := initProtocol(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	fetchCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	rec, err := protocol.Fetch(fetchCtx, txid)
	if err != nil {
		return err
	}

	var out interface{} = rec
	if ctx.Bool(localFlag.Name) {
		if rec.Digest == "" {
			return fmt.Errorf("record %s carries no digest, no mirror entry to look up", txid)
		}
		lr, lerr := protocol.MirrorLookup(rec.Digest)
		if lerr != nil {
			return lerr
		}
		out = lr
	}

	bs, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(bs))
	return nil
}
