// Package mint implements the commit/reveal transaction-construction
// engine for a batch of Ordinals-style inscriptions sharing a single
// commit transaction.
package mint

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TargetPostage is the dust-safe carrier amount added to the estimated
// reveal fee to arrive at a mint slot's output value.
const TargetPostage = btcutil.Amount(330)

// probeVsizeFudge is added to the fee-probe commit's vsize to account
// for segwit marker/flag/witness-length-prefix overhead that isn't
// present on the unsigned skeleton used for probing. Empirically
// derived; preserved byte-for-byte so independently-built commits over
// the same UTXO set reproduce the same fee.
const probeVsizeFudge = 17

// recoveryLabel is the descriptor label used when importing a mint
// slot's recovery key into the node wallet.
const recoveryLabel = "commit tx recovery key"

// Inscription is an opaque payload plus its declared MIME type. Its
// only observable capability is appending its envelope to a reveal
// script under construction (see AppendEnvelope).
type Inscription struct {
	ContentType string
	Body        []byte
}

// UTXOSet maps an outpoint to the amount it carries. Iteration order
// is never relied upon directly; use SortedOutpoints for anything
// that must be deterministic.
type UTXOSet map[wire.OutPoint]btcutil.Amount

// InscribedSet is the set of outpoints already known to carry an
// inscription, used only for exclusion by Filter.
type InscribedSet map[wire.OutPoint]struct{}

// Sum returns the total value held by the set.
func (u UTXOSet) Sum() btcutil.Amount {
	var total btcutil.Amount
	for _, amt := range u {
		total += amt
	}
	return total
}

// SortedOutpoints returns the set's outpoints ordered by (txid, vout)
// ascending, the order in which they must be fed into a commit
// transaction's inputs for fee reproducibility across independent
// builds of the same plan.
func SortedOutpoints(u UTXOSet) []wire.OutPoint {
	out := make([]wire.OutPoint, 0, len(u))
	for op := range u {
		out = append(out, op)
	}
	sortOutpoints(out)
	return out
}

func sortOutpoints(ops []wire.OutPoint) {
	less := func(i, j int) bool {
		cmp := ops[i].Hash.String()
		cmp2 := ops[j].Hash.String()
		if cmp != cmp2 {
			return cmp < cmp2
		}
		return ops[i].Index < ops[j].Index
	}
	// Simple insertion sort is fine; batches are small (hundreds of
	// UTXOs at most) and this keeps the dependency surface minimal.
	for i := 1; i < len(ops); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			ops[j], ops[j-1] = ops[j-1], ops[j]
		}
	}
}

// MintSlot is the transient per-output state for one mint in a batch:
// a freshly generated keypair, the reveal script committing the
// inscription, the single-leaf Taproot spend info derived from it,
// and the tweaked recovery keypair that can sweep the output via the
// key-path alone.
type MintSlot struct {
	Index int

	// PrivateKey is the untweaked internal key. It does NOT spend the
	// output directly; only the script path (via RevealScript) or the
	// tweaked RecoveryKey (via key path) can.
	PrivateKey *btcec.PrivateKey

	RevealScript  []byte
	ControlBlock  []byte
	MerkleRoot    chainhash.Hash
	OutputKey     *btcec.PublicKey
	Address       string
	PkScript      []byte
	RecoveryKey   *btcec.PrivateKey
}

// Plan is the output of the commit planner: the final, fully-formed
// commit transaction alongside the per-slot derivation state needed to
// build and sign the N reveal transactions that spend it.
type Plan struct {
	CommitTx  *wire.MsgTx
	Slots     []*MintSlot
	CommitFee uint64

	// MintValue is the value M assigned to every mint output.
	MintValue btcutil.Amount

	// SpentUTXOs is the UTXO set consumed by CommitTx's inputs, kept
	// around so ActualFee can be recomputed against the commit once its
	// txid is known. Input order lives in CommitTx, not in this map.
	SpentUTXOs UTXOSet
}

// SignedReveal is one slot's finished, signed reveal transaction.
type SignedReveal struct {
	Slot *MintSlot
	Tx   *wire.MsgTx
	Fee  uint64
}

// Result is the final summary of a completed invocation, the shape
// printed to stdout as JSON.
type Result struct {
	Commit      string   `json:"commit"`
	Inscription []string `json:"inscription"`
	Reveal      []string `json:"reveal"`
	Fees        uint64   `json:"fees"`
}
