package mint

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// Plan builds the commit transaction for a batch of n mints against
// the filtered UTXO set utxos, plus the per-slot derivation state
// needed to sign the n reveal transactions that will spend it.
//
// Two-phase fee feedback: the reveal fee only depends on the reveal's
// (constant) witness shape, so it's computed first via a throwaway
// probe slot. That fixes M, the per-slot mint output value, before the
// commit itself — whose shape, and therefore fee, is fully determined
// once the N real slot addresses are known — is built.
func Plan(utxos UTXOSet, n int, net *chaincfg.Params, insc Inscription,
	changeAddress btcutil.Address,
	commitFeeRate, revealFeeRate float64, rng io.Reader) (*Plan, error) {

	if n <= 0 {
		return nil, fmt.Errorf("mint-size must be positive, got %d", n)
	}

	probeSlot, err := DeriveSlot(-1, insc, net, rng)
	if err != nil {
		return nil, fmt.Errorf("derive reveal-fee probe slot: %w", err)
	}

	placeholderOut := wire.TxOut{Value: 0, PkScript: probeSlot.PkScript}
	_, revealFeeEst, err := BuildReveal(
		wire.OutPoint{}, placeholderOut, probeSlot.RevealScript,
		probeSlot.ControlBlock, revealFeeRate)
	if err != nil {
		return nil, fmt.Errorf("estimate reveal fee: %w", err)
	}

	mintValue := btcutil.Amount(revealFeeEst) + TargetPostage
	if mintValue <= btcutil.Amount(revealFeeEst) {
		return nil, newErr(KindFeeOverflow, fmt.Errorf("mint value overflow"))
	}

	total := utxos.Sum()

	slots := make([]*MintSlot, n)
	for i := 0; i < n; i++ {
		slot, err := DeriveSlot(i, insc, net, rng)
		if err != nil {
			return nil, fmt.Errorf("derive mint slot %d: %w", i, err)
		}
		slots[i] = slot
	}

	changeScript, err := txscript.PayToAddrScript(changeAddress)
	if err != nil {
		return nil, fmt.Errorf("derive change pkScript: %w", err)
	}

	sorted := SortedOutpoints(utxos)

	buildSkeleton := func(changeValue int64) *wire.MsgTx {
		tx := wire.NewMsgTx(wire.TxVersion)
		for i := range sorted {
			txIn := wire.NewTxIn(&sorted[i], nil, nil)
			txIn.Sequence = defaultSequence
			tx.AddTxIn(txIn)
		}
		for _, slot := range slots {
			tx.AddTxOut(wire.NewTxOut(int64(mintValue), slot.PkScript))
		}
		tx.AddTxOut(wire.NewTxOut(changeValue, changeScript))
		return tx
	}

	// Fee-probe commit: a placeholder change value of 0 doesn't affect
	// vsize, since every output's scriptPubKey length is already fixed.
	probeCommit := buildSkeleton(0)
	probeVsize := vsize(probeCommit) + probeVsizeFudge

	commitFee, err := Fee(commitFeeRate, probeVsize)
	if err != nil {
		return nil, fmt.Errorf("estimate commit fee: %w", err)
	}

	required := int64(n)*int64(mintValue) + int64(commitFee)
	change := int64(total) - required
	if change < 0 {
		return nil, newErr(KindInsufficientFunds, fmt.Errorf(
			"have %d sats, need %d sats (%d mints * %d + %d commit fee)",
			total, required, n, mintValue, commitFee))
	}

	finalCommit := buildSkeleton(change)

	spent := make(UTXOSet, len(sorted))
	for _, op := range sorted {
		spent[op] = utxos[op]
	}

	return &Plan{
		CommitTx:   finalCommit,
		Slots:      slots,
		CommitFee:  commitFee,
		MintValue:  mintValue,
		SpentUTXOs: spent,
	}, nil
}
