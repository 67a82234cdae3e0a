package main

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/urfave/cli"

	"github.com/ordwallet/batchmint/internal/config"
	"github.com/ordwallet/batchmint/internal/indexer"
	"github.com/ordwallet/batchmint/internal/rpcwallet"
	"github.com/ordwallet/batchmint/mint"
	"github.com/ordwallet/batchmint/pkg/logging"
)

func fatal(log *logging.Logger, err error) {
	log.Error("fatal", "err", err)
	os.Exit(1)
}

func main() {
	app := cli.NewApp()
	app.Name = "ord-batch-mint"
	app.Usage = "mint a batch of Ordinals-style inscriptions from a single commit transaction"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
		cli.StringFlag{Name: "wallet", Value: "ord", Usage: "node wallet name"},
		cli.StringFlag{Name: "network", Value: "mainnet", Usage: "mainnet, testnet3, signet, or regtest"},

		cli.Float64Flag{Name: "fee-rate", Usage: "reveal fee rate, sats/vB (required)"},
		cli.Float64Flag{Name: "commit-fee-rate", Usage: "commit fee rate, sats/vB (defaults to fee-rate)"},
		cli.StringFlag{Name: "file", Usage: "path to the inscription payload (required)"},
		cli.StringFlag{Name: "content-type", Usage: "MIME type override; guessed from --file's extension otherwise"},
		cli.IntFlag{Name: "mint-size", Usage: "number of inscriptions to mint (required)"},

		cli.StringFlag{Name: "destination", Usage: "reveal recipient address (defaults to the node's first change address)"},
		cli.StringFlag{Name: "change-address", Usage: "commit change recipient (defaults to the node's first change address)"},

		cli.BoolFlag{Name: "un-safe", Usage: "include unconfirmed (pending) UTXOs as candidate inputs"},
		cli.BoolFlag{Name: "no-backup", Usage: "skip the recovery key backup step"},
		cli.BoolFlag{Name: "no-limit", Usage: "disable the 400,000 weight-unit standardness check on reveals"},
		cli.BoolFlag{Name: "dry-run", Usage: "plan and sign, but skip recovery backup and broadcast nothing; the node is still asked for a change address when --destination or --change-address is unset"},
		cli.BoolFlag{Name: "only-commit", Usage: "broadcast the commit only; skip reveal broadcasts"},
		cli.Float64Flag{Name: "sleep", Value: 1.2, Usage: "extra pause, in seconds, applied every 20 reveals"},

		cli.StringFlag{Name: "recovery-log-dir", Usage: "directory the recovery log is written to (defaults to cwd)"},
		cli.StringFlag{Name: "log-level", Value: "info", Usage: "debug, info, warn, error"},
	}

	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "ord-batch-mint: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log := logging.New(&logging.Config{Level: c.String("log-level")})

	net, err := parseNetwork(c.String("network"))
	if err != nil {
		return err
	}

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if c.String("file") == "" {
		return fmt.Errorf("--file is required")
	}
	if c.Int("mint-size") <= 0 {
		return fmt.Errorf("--mint-size is required and must be positive")
	}
	if c.Float64("fee-rate") <= 0 {
		return fmt.Errorf("--fee-rate is required")
	}

	body, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("read inscription file: %w", err)
	}

	contentType := c.String("content-type")
	if contentType == "" {
		contentType = guessContentType(c.String("file"), body)
	}

	wallet, err := rpcwallet.Dial(cfg.Node)
	if err != nil {
		return fmt.Errorf("connect to node: %w", err)
	}
	defer wallet.Shutdown()

	idx := indexer.NewClient(&indexer.Config{
		BaseURL: cfg.Indexer.BaseURL,
		Timeout: time.Duration(cfg.Indexer.TimeoutSeconds) * time.Second,
		Logger:  log,
	})

	destination, err := resolveAddress(c.String("destination"), net, wallet)
	if err != nil {
		return fmt.Errorf("--destination: %w", err)
	}
	changeAddress, err := resolveAddress(c.String("change-address"), net, wallet)
	if err != nil {
		return fmt.Errorf("--change-address: %w", err)
	}

	revealFeeRate := c.Float64("fee-rate")
	commitFeeRate := c.Float64("commit-fee-rate")
	if commitFeeRate == 0 {
		commitFeeRate = revealFeeRate
	}

	req := mint.Request{
		Wallet: c.String("wallet"),
		Inscription: mint.Inscription{
			ContentType: contentType,
			Body:        body,
		},
		MintSize:       c.Int("mint-size"),
		Destination:    destination,
		ChangeAddress:  changeAddress,
		CommitFeeRate:  commitFeeRate,
		RevealFeeRate:  revealFeeRate,
		Unsafe:         c.Bool("un-safe"),
		NoBackup:       c.Bool("no-backup"),
		NoLimit:        c.Bool("no-limit"),
		DryRun:         c.Bool("dry-run"),
		OnlyCommit:     c.Bool("only-commit"),
		Every20Sleep:   time.Duration(c.Float64("sleep") * float64(time.Second)),
		Net:            net,
		RecoveryLogDir: c.String("recovery-log-dir"),
		Logger:         log,
	}

	result, err := mint.Run(context.Background(), idx, wallet, req, rand.Reader)
	if err != nil {
		fatal(log, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func parseNetwork(name string) (*chaincfg.Params, error) {
	switch name {
	case "mainnet", "":
		return &chaincfg.MainNetParams, nil
	case "testnet3", "testnet":
		return &chaincfg.TestNet3Params, nil
	case "signet":
		return &chaincfg.SigNetParams, nil
	case "regtest":
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf("unknown network %q", name)
	}
}

// resolveAddress decodes s if set, falling back to a fresh address
// from the node's own keypool per the CLI's "first change addr"
// default.
func resolveAddress(s string, net *chaincfg.Params, wallet mint.NodeWallet) (btcutil.Address, error) {
	if s == "" {
		return wallet.GetRawChangeAddress()
	}
	return btcutil.DecodeAddress(s, net)
}

// guessContentType resolves the MIME type for an inscription payload
// from its file extension, falling back to content sniffing for
// extensions the standard mime database doesn't know.
func guessContentType(path string, body []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(body)
}
