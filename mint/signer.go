package mint

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordwallet/batchmint/pkg/logging"
)

// maxStandardRevealWeight is the consensus-adjacent standardness cap
// on a single transaction's weight, enforced unless the caller passes
// noLimit.
const maxStandardRevealWeight = 400_000

// SignReveals builds and signs the N reveal transactions spending
// plan's commit outputs, one per slot, in ascending slot order. Each
// reveal pays destination the slot's mint value less the reveal fee.
// log may be nil; it defaults to the package logger's "reveal" component.
func SignReveals(plan *Plan, destination btcutil.Address, revealFeeRate float64, noLimit bool, log *logging.Logger) ([]*SignedReveal, error) {
	revealLog := componentLogger(log, "reveal")

	destScript, err := txscript.PayToAddrScript(destination)
	if err != nil {
		return nil, fmt.Errorf("derive destination pkScript: %w", err)
	}

	commitTxHash := plan.CommitTx.TxHash()

	revealLog.Debug("signing reveals", "count", len(plan.Slots), "commit_txid", commitTxHash)

	reveals := make([]*SignedReveal, len(plan.Slots))
	for i, slot := range plan.Slots {
		signed, err := signReveal(
			commitTxHash, i, slot, plan.MintValue, destScript,
			revealFeeRate, noLimit)
		if err != nil {
			revealLog.Error("reveal signing failed", "slot", i, "err", err)
			return nil, err
		}
		reveals[i] = signed
	}

	revealLog.Info("signed reveals", "count", len(reveals))
	return reveals, nil
}

func signReveal(commitTxHash chainhash.Hash, index int, slot *MintSlot, mintValue btcutil.Amount,
	destScript []byte, revealFeeRate float64, noLimit bool) (*SignedReveal, error) {

	in := wire.OutPoint{Hash: commitTxHash, Index: uint32(index)}
	prevOut := wire.TxOut{Value: int64(mintValue), PkScript: slot.PkScript}
	out := wire.TxOut{Value: int64(mintValue), PkScript: destScript}

	tx, revealFee, err := BuildReveal(in, out, slot.RevealScript, slot.ControlBlock, revealFeeRate)
	if err != nil {
		return nil, fmt.Errorf("build reveal for slot %d: %w", index, err)
	}

	newValue := int64(mintValue) - int64(revealFee)
	if newValue < 0 {
		return nil, newErr(KindInsufficientCommitOutput, fmt.Errorf(
			"slot %d: mint value %d below reveal fee %d", index, mintValue, revealFee))
	}
	tx.TxOut[0].Value = newValue

	// Bitcoin Core's dust rule at its default 3 sat/vB dust relay fee:
	// three times the size of the output plus the input that later spends
	// it, with that input's signature data witness-discounted when the
	// destination is a segwit program. A P2TR destination's threshold is
	// therefore 330 sats, exactly TargetPostage.
	dustSize := 8 + wire.VarIntSerializeSize(uint64(len(destScript))) + len(destScript)
	if txscript.IsWitnessProgram(destScript) {
		dustSize += 32 + 4 + 1 + 107/4 + 4
	} else {
		dustSize += 32 + 4 + 1 + 107 + 4
	}
	if newValue < int64(3*dustSize) {
		return nil, newErr(KindDust, fmt.Errorf(
			"slot %d: output value %d is dust", index, newValue))
	}

	prevOutFetcher := txscript.NewCannedPrevOutputFetcher(prevOut.PkScript, prevOut.Value)
	sigHashes := txscript.NewTxSigHashes(tx, prevOutFetcher)
	tapLeaf := txscript.NewBaseTapLeaf(slot.RevealScript)

	sigHash, err := txscript.CalcTapscriptSignaturehash(
		sigHashes, txscript.SigHashDefault, tx, 0, prevOutFetcher, tapLeaf)
	if err != nil {
		return nil, fmt.Errorf("compute sighash for slot %d: %w", index, err)
	}

	sig, err := schnorr.Sign(slot.PrivateKey, sigHash)
	if err != nil {
		return nil, fmt.Errorf("sign slot %d: %w", index, err)
	}

	tx.TxIn[0].Witness = wire.TxWitness{
		sig.Serialize(), slot.RevealScript, slot.ControlBlock,
	}

	if !noLimit && weight(tx) > maxStandardRevealWeight {
		return nil, newErr(KindNonStandardWeight, fmt.Errorf(
			"slot %d: reveal weight %d exceeds %d WU",
			index, weight(tx), maxStandardRevealWeight))
	}

	return &SignedReveal{Slot: slot, Tx: tx, Fee: revealFee}, nil
}
