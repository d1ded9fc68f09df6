package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/chainstamp/ChainStamp/digest"
	"github.com/chainstamp/ChainStamp/tracer"
)

var (
	// nolint:lll // allow long line of example
	verifyCommand = &cli.Command{
		Action:    verify,
		Name:      "verify",
		Usage:     "verify original data against a committed record",
		ArgsUsage: " ",
		Description: `
Recompute the content digest of the original data and compare it against
a record addressed by transaction hash, or against a bare digest. Data
comes from --file (digested as a byte stream) or --data (canonicalized
JSON; prefix with @ to read from a file). A mismatch exits nonzero.

Example:

./chainstamp verify --config config.toml --txid 0x1234...cdef --data '{"accuracy":0.93,"epochs":10}'
./chainstamp verify --digest 9c56cc51...b410ff --file ./weights.bin
`,
		Flags: commandFlags(
			verifyTxIDFlag,
			verifyDigestFlag,
			verifyFileFlag,
			verifyDataFlag,
			recorderFlag,
		),
	}

	verifyTxIDFlag = &cli.StringFlag{
		Name:  "txid",
		Usage: "transaction hash of the record to verify against",
	}
	verifyDigestFlag = &cli.StringFlag{
		Name:  "digest",
		Usage: "64 char hex content digest to verify against",
	}
	verifyFileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "original file to digest",
	}
	verifyDataFlag = &cli.StringFlag{
		Name:  "data",
		Usage: "original JSON data, or @path of a JSON file",
	}
	recorderFlag = &cli.StringFlag{
		Name:  "recorder",
		Usage: "expected recorder address (checked with --txid)",
	}

	matchStyle    = color.New(color.FgGreen, color.Bold)
	mismatchStyle = color.New(color.FgRed, color.Bold)
)

func verify(ctx *cli.Context) error {
	txid := ctx.String(verifyTxIDFlag.Name)
	digestHex := ctx.String(verifyDigestFlag.Name)
	if (txid == "") == (digestHex == "") {
		return fmt.Errorf("specify exactly one of --txid and --digest")
	}

	original, err := loadOriginal(ctx)
	if err != nil {
		return err
	}

	if digestHex != "" {
		return verifyAgainstDigest(original, digestHex)
	}
	return verifyAgainstRecord(ctx, original, txid)
}

// loadOriginal returns the caller's original data: raw file bytes are
// digested as a stream, JSON data is decoded with number preservation so
// canonicalization recomputes the committed digest bit for bit.
func loadOriginal(ctx *cli.Context) (interface{}, error) {
	filePath := ctx.String(verifyFileFlag.Name)
	dataArg := ctx.String(verifyDataFlag.Name)
	if (filePath == "") == (dataArg == "") {
		return nil, fmt.Errorf("specify exactly one of --file and --data")
	}

	if filePath != "" {
		d, err := digest.File(filePath)
		if err != nil {
			return nil, err
		}
		return d, nil
	}

	raw := []byte(dataArg)
	if strings.HasPrefix(dataArg, "@") {
		var err error
		raw, err = ioutil.ReadFile(dataArg[1:])
		if err != nil {
			return nil, err
		}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("--data is not valid JSON: %v", err)
	}
	return data, nil
}

func verifyAgainstDigest(original interface{}, digestHex string) error {
	if !digest.IsHexDigest(digestHex) {
		return fmt.Errorf("wrong --digest value, want 64 hex chars")
	}
	computed, err := computeOriginalDigest(original)
	if err != nil {
		return err
	}
	fmt.Println("computed digest:", computed.Hex())
	fmt.Println("expected digest:", strings.ToLower(digestHex))
	return printVerdict(strings.EqualFold(computed.Hex(), digestHex))
}

func verifyAgainstRecord(ctx *cli.Context, original interface{}, txid string) error {
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

	match, computed, err := tracer.Verify(original, rec)
	if err != nil {
		return err
	}
	fmt.Println("txid:", rec.TxHash)
	fmt.Println("computed digest:", computed.Hex())
	fmt.Println("record digest:", rec.Digest)
	fmt.Println("record success:", rec.Success)

	if expected := ctx.String(recorderFlag.Name); expected != "" {
		if cerr := tracer.Confirm(rec, expected); cerr != nil {
			mismatchStyle.Println("NOT CONFIRMED")
			return cerr
		}
		fmt.Println("recorder:", rec.Recorder)
	}
	return printVerdict(match)
}

func computeOriginalDigest(original interface{}) (digest.Digest, error) {
	if d, ok := original.(digest.Digest); ok {
		return d, nil
	}
	return digest.Value(original)
}

func printVerdict(match bool) error {
	if match {
		matchStyle.Println("MATCH")
		return nil
	}
	mismatchStyle.Println("MISMATCH")
	return fmt.Errorf("content digest does not match")
}
