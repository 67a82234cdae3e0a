package mint

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/ordwallet/batchmint/pkg/logging"
)

// Request is the fully-resolved set of parameters a single invocation
// runs with, populated by a thin CLI layer from the flag table.
type Request struct {
	Wallet      string
	Inscription Inscription
	MintSize    int

	Destination   btcutil.Address
	ChangeAddress btcutil.Address

	CommitFeeRate float64
	RevealFeeRate float64

	Unsafe     bool
	NoBackup   bool
	NoLimit    bool
	DryRun     bool
	OnlyCommit bool

	Every20Sleep time.Duration

	Net            *chaincfg.Params
	RecoveryLogDir string

	// Logger receives per-component log output ("commit", "reveal",
	// "broadcast", "recovery"). Nil defaults to the package logger.
	Logger *logging.Logger
}

// Run executes the full engine end to end: it pulls UTXOs and
// inscribed outpoints from idx, filters (C4), plans the commit (C5),
// signs the reveals (C6), then backs up and broadcasts (C7/C8) unless
// DryRun is set.
func Run(ctx context.Context, idx Indexer, wallet NodeWallet, req Request, rng io.Reader) (*Result, error) {
	log := componentLogger(req.Logger, "commit")
	log.Info("starting mint run", "wallet", req.Wallet, "mint_size", req.MintSize,
		"unsafe", req.Unsafe, "dry_run", req.DryRun)

	unspent, err := idx.GetUnspentOutputs(ctx, req.Wallet)
	if err != nil {
		return nil, fmt.Errorf("get_unspent_outputs: %w", err)
	}
	log.Debug("fetched unspent outputs", "count", len(unspent))

	if req.Unsafe {
		pending, err := idx.GetPendingUnspentOutputs(ctx, req.Wallet)
		if err != nil {
			return nil, fmt.Errorf("get_pending_unspent_outputs: %w", err)
		}
		log.Debug("fetched pending outputs", "count", len(pending))
		for op, amt := range pending {
			unspent[op] = amt
		}
	}

	inscribed, err := idx.GetInscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("get_inscriptions: %w", err)
	}
	log.Debug("fetched inscriptions", "count", len(inscribed))

	filtered, err := Filter(unspent, inscribed)
	if err != nil {
		return nil, err
	}
	log.Debug("filtered cardinal utxos", "count", len(filtered))

	plan, err := Plan(
		filtered, req.MintSize, req.Net, req.Inscription,
		req.ChangeAddress,
		req.CommitFeeRate, req.RevealFeeRate, rng)
	if err != nil {
		return nil, err
	}
	log.Info("planned commit", "mint_value", plan.MintValue, "commit_fee", plan.CommitFee)

	reveals, err := SignReveals(plan, req.Destination, req.RevealFeeRate, req.NoLimit, req.Logger)
	if err != nil {
		return nil, err
	}

	return Broadcast(wallet, plan, reveals, BroadcastOptions{
		Net:            req.Net,
		NoBackup:       req.NoBackup,
		OnlyCommit:     req.OnlyCommit,
		DryRun:         req.DryRun,
		Every20Sleep:   req.Every20Sleep,
		RecoveryLogDir: req.RecoveryLogDir,
		Logger:         req.Logger,
	})
}
