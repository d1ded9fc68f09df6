package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/chainstamp/ChainStamp/log"
	"github.com/chainstamp/ChainStamp/metadata/mlcard"
	"github.com/chainstamp/ChainStamp/metadata/sysinfo"
	"github.com/chainstamp/ChainStamp/tracer"
)

var (
	// nolint:lll // allow long line of example
	recordCommand = &cli.Command{
		Action:    record,
		Name:      "record",
		Usage:     "commit a record to the ledger",
		ArgsUsage: " ",
		Description: `
Accumulate fields and file digests into one package and commit it as a
single ledger transaction. Field values parse as JSON when they can
(numbers stay numbers), otherwise they are taken as strings. Model and
data card fields validate against the card schemas before anything is
committed.

Example:

./chainstamp record --config config.toml --type experiment --field accuracy=0.93 --field epochs=10 --file model=./weights.bin --model-card model_name=resnet50 --sysinfo --previous 0x1234...cdef
`,
		Flags: commandFlags(
			fieldFlag,
			fileFlag,
			typeTagFlag,
			hashOnlyFlag,
			previousFlag,
			waitTimeoutFlag,
			sysinfoFlag,
			modelCardFlag,
			dataCardFlag,
		),
	}

	fieldFlag = &cli.StringSliceFlag{
		Name:  "field",
		Usage: "record field as key=value (repeatable)",
	}
	fileFlag = &cli.StringSliceFlag{
		Name:  "file",
		Usage: "file to digest as name=path or just path (repeatable)",
	}
	typeTagFlag = &cli.StringFlag{
		Name:  "type",
		Usage: "record type tag",
		Value: "generic",
	}
	hashOnlyFlag = &cli.BoolFlag{
		Name:  "hash-only",
		Usage: "put only the content digest on the ledger",
	}
	previousFlag = &cli.StringFlag{
		Name:  "previous",
		Usage: "transaction hash of the previous record to link back to",
	}
	waitTimeoutFlag = &cli.Uint64Flag{
		Name:  "wait-timeout",
		Usage: "confirmation wait timeout in seconds",
		Value: 300,
	}
	sysinfoFlag = &cli.BoolFlag{
		Name:  "sysinfo",
		Usage: "attach a fingerprint of the recording environment",
	}
	modelCardFlag = &cli.StringSliceFlag{
		Name:  "model-card",
		Usage: "model card field as key=value (repeatable)",
	}
	dataCardFlag = &cli.StringSliceFlag{
		Name:  "data-card",
		Usage: "data card field as key=value (repeatable)",
	}
)

func record(ctx *cli.Context) error {
	protocol, cleanup, err := initProtocol(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	acc := tracer.NewAccumulator(ctx.String(typeTagFlag.Name))
	for _, kv := range ctx.StringSlice(fieldFlag.Name) {
		key, value, err := splitField("--field", kv)
		if err != nil {
			return err
		}
		acc.UpdateKV(key, value)
	}
	for _, nameAndPath := range ctx.StringSlice(fileFlag.Name) {
		name, path := splitFileArg(nameAndPath)
		if err := acc.AddFile(name, path); err != nil {
			return err
		}
	}
	if entries := ctx.StringSlice(modelCardFlag.Name); len(entries) > 0 {
		card := mlcard.NewModelCard()
		if err := fillCard(card, "--model-card", entries); err != nil {
			return err
		}
		card.Apply(acc)
	}
	if entries := ctx.StringSlice(dataCardFlag.Name); len(entries) > 0 {
		card := mlcard.NewDataCard()
		if err := fillCard(card, "--data-card", entries); err != nil {
			return err
		}
		card.Apply(acc)
	}
	if ctx.Bool(sysinfoFlag.Name) {
		sysinfo.Apply(acc)
	}
	if acc.Len() == 0 {
		return fmt.Errorf("nothing to record, specify at least one --field or --file")
	}

	opts := &tracer.CommitOptions{
		HashOnly:         ctx.Bool(hashOnlyFlag.Name),
		PreviousRecordID: ctx.String(previousFlag.Name),
	}
	waitTimeout := time.Duration(ctx.Uint64(waitTimeoutFlag.Name)) * time.Second
	commitCtx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()

	result, err := protocol.Commit(commitCtx, acc, opts)
	if err != nil {
		if result != nil && result.Record.TxHash != "" {
			// the transaction is out, only the wait failed
			log.Error("commit did not confirm", "txid", result.Record.TxHash, "err", err)
			fmt.Println("txid:", result.Record.TxHash)
			fmt.Println("digest:", result.Record.Digest)
		}
		return err
	}

	fmt.Println("txid:", result.Record.TxHash)
	fmt.Println("digest:", result.Record.Digest)
	fmt.Println("blockNumber:", result.Record.BlockNumber)
	fmt.Println("blockTime:", result.Record.BlockTime)
	fmt.Println("gasUsed:", result.Record.GasUsed)
	return nil
}

// splitField parses key=value. The value is decoded as JSON when it
// parses, keeping numbers and booleans typed, and falls back to the raw
// string.
func splitField(flag, kv string) (string, interface{}, error) {
	parts := strings.SplitN(kv, "=", 2)
	if len(parts) != 2 || parts[0] == "" {
		return "", nil, fmt.Errorf("wrong %s format %q, want key=value", flag, kv)
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(parts[1])))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err == nil && !dec.More() {
		return parts[0], value, nil
	}
	return parts[0], parts[1], nil
}

// fillCard parses field=value entries into the card. One unknown field
// rejects the whole run before anything is committed.
func fillCard(card *mlcard.Card, flag string, entries []string) error {
	for _, kv := range entries {
		key, value, err := splitField(flag, kv)
		if err != nil {
			return err
		}
		if err := card.Set(key, value); err != nil {
			return err
		}
	}
	return nil
}

// splitFileArg parses name=path, or a bare path whose base name becomes
// the file name.
func splitFileArg(arg string) (name, path string) {
	parts := strings.SplitN(arg, "=", 2)
	if len(parts) == 2 && parts[0] != "" {
		return parts[0], parts[1]
	}
	return "", arg
}
