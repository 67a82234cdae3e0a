package mint

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func testChangeAddress(t *testing.T) btcutil.Address {
	t.Helper()
	var program [32]byte
	program[0] = 0xaa
	addr, err := btcutil.NewAddressTaproot(program[:], &chaincfg.MainNetParams)
	require.NoError(t, err)
	return addr
}

func bigUTXOSet(n int, amountEach btcutil.Amount) UTXOSet {
	set := make(UTXOSet, n)
	for i := 0; i < n; i++ {
		var h chainhash.Hash
		h[0] = byte(i + 1)
		h[1] = byte((i + 1) >> 8)
		set[wire.OutPoint{Hash: h, Index: 0}] = amountEach
	}
	return set
}

func TestPlanSucceedsWithSufficientFunds(t *testing.T) {
	utxos := bigUTXOSet(1, 1_000_000)
	insc := Inscription{ContentType: "text/plain", Body: []byte("hello")}
	changeAddr := testChangeAddress(t)

	plan, err := Plan(utxos, 3, &chaincfg.MainNetParams, insc, changeAddr, 10, 10, rand.Reader)
	require.NoError(t, err)
	require.Len(t, plan.Slots, 3)

	// N mint outputs + 1 change output.
	require.Len(t, plan.CommitTx.TxOut, 4)
	for i := 0; i < 3; i++ {
		require.EqualValues(t, plan.MintValue, plan.CommitTx.TxOut[i].Value)
	}

	total := utxos.Sum()
	spent := int64(3)*int64(plan.MintValue) + int64(plan.CommitFee) + plan.CommitTx.TxOut[3].Value
	require.EqualValues(t, total, spent)
}

func TestPlanInsufficientFundsIsFatal(t *testing.T) {
	utxos := bigUTXOSet(1, 1000)
	insc := Inscription{ContentType: "text/plain", Body: []byte("hello")}
	changeAddr := testChangeAddress(t)

	_, err := Plan(utxos, 5, &chaincfg.MainNetParams, insc, changeAddr, 50, 50, rand.Reader)
	require.Error(t, err)

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	require.Equal(t, KindInsufficientFunds, mErr.Kind)
}

func TestPlanRejectsNonPositiveMintSize(t *testing.T) {
	utxos := bigUTXOSet(1, 1_000_000)
	insc := Inscription{ContentType: "text/plain", Body: []byte("hello")}
	changeAddr := testChangeAddress(t)

	_, err := Plan(utxos, 0, &chaincfg.MainNetParams, insc, changeAddr, 10, 10, rand.Reader)
	require.Error(t, err)
}

// TestProbeVsizeInvariant asserts that the fee-probe commit's vsize —
// and therefore the commit fee and mint value it fixes — doesn't
// depend on which random key the probe slot happened to derive. Every
// P2TR scriptPubKey is 34 bytes regardless of key, so varying the
// entropy stream must not move probeVsize.
func TestProbeVsizeInvariant(t *testing.T) {
	utxos := bigUTXOSet(3, 1_000_000)
	insc := Inscription{ContentType: "text/plain", Body: []byte("hello")}
	changeAddr := testChangeAddress(t)

	planA, err := Plan(utxos, 4, &chaincfg.MainNetParams, insc, changeAddr, 10, 10,
		bytes.NewReader(bytes.Repeat([]byte{0x01}, 4096)))
	require.NoError(t, err)

	planB, err := Plan(utxos, 4, &chaincfg.MainNetParams, insc, changeAddr, 10, 10,
		bytes.NewReader(bytes.Repeat([]byte{0xfe}, 4096)))
	require.NoError(t, err)

	require.Equal(t, planA.CommitFee, planB.CommitFee)
	require.Equal(t, planA.MintValue, planB.MintValue)
}

func TestPlanInputOrderIsDeterministic(t *testing.T) {
	utxos := bigUTXOSet(5, 1_000_000)
	insc := Inscription{ContentType: "text/plain", Body: []byte("hello")}
	changeAddr := testChangeAddress(t)

	plan1, err := Plan(utxos, 2, &chaincfg.MainNetParams, insc, changeAddr, 10, 10, bytes.NewReader(bytes.Repeat([]byte{0x09}, 1024)))
	require.NoError(t, err)

	plan2, err := Plan(utxos, 2, &chaincfg.MainNetParams, insc, changeAddr, 10, 10, bytes.NewReader(bytes.Repeat([]byte{0x09}, 1024)))
	require.NoError(t, err)

	for i := range plan1.CommitTx.TxIn {
		require.Equal(t, plan1.CommitTx.TxIn[i].PreviousOutPoint, plan2.CommitTx.TxIn[i].PreviousOutPoint)
	}
	require.Equal(t, plan1.CommitFee, plan2.CommitFee)
}
