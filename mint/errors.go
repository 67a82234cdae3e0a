package mint

import (
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Kind identifies a fatal error condition raised by the engine. Every
// Kind here corresponds to a named failure mode in the design: nothing
// is retried implicitly, the on-disk recovery log is the
// crash-consistent artifact.
type Kind int

const (
	// KindNoCardinalUtxos means the wallet has no usable outputs left
	// after excluding already-inscribed ones.
	KindNoCardinalUtxos Kind = iota
	// KindInsufficientFunds means selected inputs can't cover N*M plus
	// fees.
	KindInsufficientFunds
	// KindFeeOverflow means a fee computation overflowed 64 bits.
	KindFeeOverflow
	// KindDust means a reveal output would fall below the
	// destination's dust threshold.
	KindDust
	// KindNonStandardWeight means a reveal's weight exceeds 400,000 WU
	// and no_limit wasn't set.
	KindNonStandardWeight
	// KindInsufficientCommitOutput means M is smaller than the reveal
	// fee, i.e. the reveal-rate probe went stale.
	KindInsufficientCommitOutput
	// KindDanglingInput means fee bookkeeping is missing a prevout.
	KindDanglingInput
	// KindCommitBroadcastFailed means the node rejected the signed
	// commit.
	KindCommitBroadcastFailed
	// KindRevealBroadcastFailed means the node rejected a reveal.
	KindRevealBroadcastFailed
	// KindRecoveryImportFailed means a slot's descriptor import
	// reported success=false.
	KindRecoveryImportFailed
	// KindIoError means the recovery-log write/flush failed.
	KindIoError
)

func (k Kind) String() string {
	switch k {
	case KindNoCardinalUtxos:
		return "NoCardinalUtxos"
	case KindInsufficientFunds:
		return "InsufficientFunds"
	case KindFeeOverflow:
		return "FeeOverflow"
	case KindDust:
		return "Dust"
	case KindNonStandardWeight:
		return "NonStandardWeight"
	case KindInsufficientCommitOutput:
		return "InsufficientCommitOutput"
	case KindDanglingInput:
		return "DanglingInput"
	case KindCommitBroadcastFailed:
		return "CommitBroadcastFailed"
	case KindRevealBroadcastFailed:
		return "RevealBroadcastFailed"
	case KindRecoveryImportFailed:
		return "RecoveryImportFailed"
	case KindIoError:
		return "IoError"
	default:
		return "Unknown"
	}
}

// Error is the engine's fatal error type. Slot and Txid are only
// populated for KindRevealBroadcastFailed, where they identify the
// exact reveal a caller must manually resubmit from the recovery log.
type Error struct {
	Kind Kind
	Slot int
	Txid chainhash.Hash
	Err  error
}

func (e *Error) Error() string {
	if e.Kind == KindRevealBroadcastFailed {
		return fmt.Sprintf("%s: slot %d txid %s: %v", e.Kind, e.Slot, e.Txid, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

func newErr(kind Kind, err error) error {
	return &Error{Kind: kind, Err: err}
}

func newRevealErr(slot int, txid chainhash.Hash, err error) error {
	return &Error{Kind: KindRevealBroadcastFailed, Slot: slot, Txid: txid, Err: err}
}
