package mint

import (
	"github.com/btcsuite/btcd/wire"
)

// defaultSequence enables replace-by-fee on every input; this engine
// never bumps fees itself, but leaves the door open for a wallet user
// to do so manually.
const defaultSequence = wire.MaxTxInSequenceNum - 2

// schnorrSigSize is the fixed size of a BIP 340 Schnorr signature with
// the default (implicit) sighash type, i.e. no trailing sighash byte.
const schnorrSigSize = 64

// BuildReveal constructs an unsigned, single-input, single-output
// reveal transaction and estimates the fee it will incur once signed.
// The estimate is produced from a throwaway clone carrying a
// zero-valued placeholder signature in its witness: Schnorr signatures
// are always 64 bytes, so the clone's serialized witness length
// exactly matches the real, signed one.
func BuildReveal(in wire.OutPoint, out wire.TxOut, script, controlBlock []byte, feeRate float64) (*wire.MsgTx, uint64, error) {
	tx := wire.NewMsgTx(wire.TxVersion)

	txIn := wire.NewTxIn(&in, nil, nil)
	txIn.Sequence = defaultSequence
	tx.AddTxIn(txIn)

	outCopy := out
	tx.AddTxOut(&outCopy)

	estimate := tx.Copy()
	placeholderSig := make([]byte, schnorrSigSize)
	estimate.TxIn[0].Witness = wire.TxWitness{placeholderSig, script, controlBlock}

	fee, err := Fee(feeRate, vsize(estimate))
	if err != nil {
		return nil, 0, err
	}

	return tx, fee, nil
}
