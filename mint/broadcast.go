package mint

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordwallet/batchmint/pkg/logging"
)

// interRevealPause is the hard-coded pause between every single reveal
// broadcast, independent of the configurable every-20 pause below.
// Preserved as-is even though the two overlap; it's a mempool
// rate-limit heuristic, not something load-bearing for correctness.
const interRevealPause = 1200 * time.Millisecond

// defaultEvery20Sleep is the default value of --sleep: an additional
// pause applied every 20 reveals on top of interRevealPause.
const defaultEvery20Sleep = 1200 * time.Millisecond

// every20 is the cadence at which the extra --sleep pause is applied.
const every20 = 20

// BroadcastOptions configures the orchestrator's behavior.
type BroadcastOptions struct {
	Net *chaincfg.Params

	// NoBackup skips BackupRecoveryKeys entirely.
	NoBackup bool
	// OnlyCommit stops after the commit is broadcast.
	OnlyCommit bool
	// DryRun skips recovery backup, the recovery log, and all
	// broadcasting; Broadcast returns the planned Result as if
	// everything had succeeded.
	DryRun bool

	// Every20Sleep is the extra pause applied every 20 reveals
	// (--sleep). Defaults to defaultEvery20Sleep if zero.
	Every20Sleep time.Duration

	// RecoveryLogDir is the directory the recovery log is written to.
	// Defaults to the current working directory if empty.
	RecoveryLogDir string

	// Sleep is the pacing primitive; defaults to time.Sleep. Tests
	// substitute a no-op or counting function.
	Sleep func(time.Duration)

	// Logger receives per-component log output. Nil defaults to the
	// package logger's "broadcast" component.
	Logger *logging.Logger
}

// Broadcast runs C7 (unless skipped) and C8: it persists the durable
// recovery log, then signs and broadcasts the commit, then — unless
// only_commit or dry_run — broadcasts every reveal in ascending slot
// order with inter-transaction pacing.
func Broadcast(wallet NodeWallet, plan *Plan, reveals []*SignedReveal, opts BroadcastOptions) (*Result, error) {
	log := componentLogger(opts.Logger, "broadcast")

	sleep := opts.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	every20Sleep := opts.Every20Sleep
	if every20Sleep == 0 {
		every20Sleep = defaultEvery20Sleep
	}

	if opts.DryRun {
		log.Info("dry run: skipping recovery backup and broadcast")
		return dryRunResult(plan, reveals), nil
	}

	if !opts.NoBackup {
		if err := BackupRecoveryKeys(wallet, opts.Net, plan.Slots, opts.Logger); err != nil {
			return nil, err
		}
	}

	commitTxHash := plan.CommitTx.TxHash()
	logPath, err := writeRecoveryLog(opts.RecoveryLogDir, commitTxHash.String(), reveals)
	if err != nil {
		return nil, newErr(KindIoError, fmt.Errorf("write recovery log: %w", err))
	}
	log.Debug("wrote recovery log", "path", logPath)

	signedCommit, complete, err := wallet.SignRawTransactionWithWallet(plan.CommitTx)
	if err != nil || !complete {
		return nil, newErr(KindCommitBroadcastFailed, fmt.Errorf(
			"sign_raw_transaction_with_wallet failed (complete=%v): %w", complete, err))
	}

	commitTxid, err := wallet.SendRawTransaction(signedCommit)
	if err != nil {
		return nil, newErr(KindCommitBroadcastFailed, fmt.Errorf(
			"send_raw_transaction failed: %w", err))
	}
	log.Info("broadcast commit", "txid", commitTxid.String())

	actualCommitFee, err := ActualFee(signedCommit, plan.SpentUTXOs)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Commit: commitTxid.String(),
		Fees:   actualCommitFee,
	}

	if opts.OnlyCommit {
		log.Info("only-commit set: skipping reveal broadcasts")
		return result, nil
	}

	for i, r := range reveals {
		revealTxid, err := wallet.SendRawTransaction(r.Tx)
		if err != nil {
			log.Error("reveal broadcast failed", "slot", i, "err", err)
			return nil, newRevealErr(i, r.Tx.TxHash(), err)
		}

		// The reveal's lone input spends the commit output at this
		// slot's index; ActualFee needs that prevout's value to check
		// its own arithmetic against what was actually broadcast.
		commitOutpoint := wire.OutPoint{Hash: commitTxHash, Index: uint32(i)}
		revealFee, err := ActualFee(r.Tx, UTXOSet{commitOutpoint: plan.MintValue})
		if err != nil {
			return nil, err
		}

		id := revealTxid.String()
		result.Reveal = append(result.Reveal, id)
		result.Inscription = append(result.Inscription, id)
		result.Fees += revealFee
		log.Debug("broadcast reveal", "slot", i, "txid", id)

		if i+1 == len(reveals) {
			continue
		}

		log.Debug("pacing before next reveal", "sleep", interRevealPause)
		sleep(interRevealPause)
		if (i+1)%every20 == 0 {
			log.Debug("every-20 pacing", "sleep", every20Sleep)
			sleep(every20Sleep)
		}
	}

	return result, nil
}

func dryRunResult(plan *Plan, reveals []*SignedReveal) *Result {
	commitTxid := plan.CommitTx.TxHash()
	result := &Result{
		Commit: commitTxid.String(),
		Fees:   plan.CommitFee,
	}
	for _, r := range reveals {
		id := r.Tx.TxHash().String()
		result.Reveal = append(result.Reveal, id)
		result.Inscription = append(result.Inscription, id)
		result.Fees += r.Fee
	}
	return result
}

// writeRecoveryLog persists one line per reveal: its txid, raw hex,
// and the slot's recovery private key, flushed and synced before
// returning so the file is durable ahead of any broadcast.
func writeRecoveryLog(dir, commitTxid string, reveals []*SignedReveal) (string, error) {
	path := fmt.Sprintf("output_%s.txt", commitTxid)
	if dir != "" {
		path = dir + string(os.PathSeparator) + path
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, r := range reveals {
		raw, err := serializeTx(r.Tx)
		if err != nil {
			return "", err
		}

		var keyBytes [32]byte
		copy(keyBytes[:], r.Slot.RecoveryKey.Serialize())

		if _, err := fmt.Fprintf(w, "%s %s %v\n", r.Tx.TxHash(), raw, keyBytes); err != nil {
			return "", err
		}
	}

	if err := w.Flush(); err != nil {
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", err
	}

	return path, nil
}
