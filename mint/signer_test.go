package mint

import (
	"crypto/rand"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"
)

func buildTestPlan(t *testing.T, n int) *Plan {
	t.Helper()
	utxos := bigUTXOSet(1, 1_000_000)
	insc := Inscription{ContentType: "text/plain", Body: []byte("hello world")}
	changeAddr := testChangeAddress(t)

	plan, err := Plan(utxos, n, &chaincfg.MainNetParams, insc, changeAddr, 10, 10, rand.Reader)
	require.NoError(t, err)
	return plan
}

func TestSignRevealsProducesValidSchnorrSignature(t *testing.T) {
	plan := buildTestPlan(t, 2)
	destination := testChangeAddress(t)

	reveals, err := SignReveals(plan, destination, 10, false, nil)
	require.NoError(t, err)
	require.Len(t, reveals, 2)

	for i, r := range reveals {
		require.Len(t, r.Tx.TxIn[0].Witness, 3)
		sigBytes := r.Tx.TxIn[0].Witness[0]
		require.Len(t, sigBytes, schnorrSigSize)

		prevOut := r.Tx.TxOut[0]
		_ = prevOut
		sig, err := schnorr.ParseSignature(sigBytes)
		require.NoError(t, err)

		prevOutFetcher := txscript.NewCannedPrevOutputFetcher(plan.Slots[i].PkScript, int64(plan.MintValue))
		sigHashes := txscript.NewTxSigHashes(r.Tx, prevOutFetcher)
		tapLeaf := txscript.NewBaseTapLeaf(plan.Slots[i].RevealScript)
		sigHash, err := txscript.CalcTapscriptSignaturehash(sigHashes, txscript.SigHashDefault, r.Tx, 0, prevOutFetcher, tapLeaf)
		require.NoError(t, err)

		require.True(t, sig.Verify(sigHash, plan.Slots[i].PrivateKey.PubKey()))
	}
}

func TestSignRevealsInsufficientCommitOutput(t *testing.T) {
	plan := buildTestPlan(t, 1)
	destination := testChangeAddress(t)

	// An unreasonably high reveal fee rate blows through the fixed mint
	// value computed by Plan with a much lower rate.
	_, err := SignReveals(plan, destination, 100_000, false, nil)
	require.Error(t, err)

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	require.Equal(t, KindInsufficientCommitOutput, mErr.Kind)
}

func TestSignRevealsHonorsNoLimit(t *testing.T) {
	plan := buildTestPlan(t, 1)
	destination := testChangeAddress(t)

	reveals, err := SignReveals(plan, destination, 10, true, nil)
	require.NoError(t, err)
	require.Len(t, reveals, 1)
}
