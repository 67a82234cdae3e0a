package mint

import (
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/wire"
)

// Fee returns the ceiling of rate*vsize as satoshis. An overflow of
// the u64 range is fatal.
func Fee(rateSatsPerVB float64, vsize int64) (uint64, error) {
	if rateSatsPerVB < 0 || vsize < 0 {
		return 0, newErr(KindFeeOverflow, fmt.Errorf("negative fee rate or vsize"))
	}

	product := rateSatsPerVB * float64(vsize)
	// A decimal rate such as 1.1 has no exact binary form, so the product
	// can land a hair above a whole number (1.1*100 = 110.00000000000001);
	// treat that float noise as the whole number before rounding up.
	if nearest := math.Round(product); math.Abs(product-nearest) <= 1e-9*math.Max(1, nearest) {
		product = nearest
	}
	raw := math.Ceil(product)
	if raw < 0 || raw > float64(math.MaxUint64) {
		return 0, newErr(KindFeeOverflow, fmt.Errorf("fee overflowed u64 range: %f", raw))
	}

	return uint64(raw), nil
}

// ActualFee sums the prevout amounts referenced by tx's inputs and
// subtracts the sum of its outputs. DanglingInput is returned if any
// input's previous output isn't present in utxos; NegativeFee (wrapped
// as InsufficientFunds) if outputs exceed inputs.
func ActualFee(tx *wire.MsgTx, utxos UTXOSet) (uint64, error) {
	var in btcutil.Amount
	for _, txin := range tx.TxIn {
		amt, ok := utxos[txin.PreviousOutPoint]
		if !ok {
			return 0, newErr(KindDanglingInput, fmt.Errorf(
				"missing prevout for %s", txin.PreviousOutPoint))
		}
		in += amt
	}

	var out btcutil.Amount
	for _, txout := range tx.TxOut {
		out += btcutil.Amount(txout.Value)
	}

	if out > in {
		return 0, newErr(KindInsufficientFunds, fmt.Errorf(
			"outputs %d exceed inputs %d", out, in))
	}

	return uint64(in - out), nil
}

// vsize computes the virtual size of tx per BIP 141: ceil(weight/4).
func vsize(tx *wire.MsgTx) int64 {
	return (weight(tx) + 3) / 4
}

// weight computes tx's weight: base size scaled by 3, plus total
// (witness-inclusive) size.
func weight(tx *wire.MsgTx) int64 {
	base := int64(tx.SerializeSizeStripped())
	total := int64(tx.SerializeSize())
	return base*3 + total
}
