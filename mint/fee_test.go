package mint

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestFeeRoundsUp(t *testing.T) {
	fee, err := Fee(1.1, 100)
	require.NoError(t, err)
	require.EqualValues(t, 110, fee)

	fee, err = Fee(1.01, 100)
	require.NoError(t, err)
	require.EqualValues(t, 101, fee)
}

func TestFeeRejectsNegativeInputs(t *testing.T) {
	_, err := Fee(-1, 100)
	require.Error(t, err)

	_, err = Fee(1, -1)
	require.Error(t, err)
}

func TestActualFeeComputesDifference(t *testing.T) {
	var hash chainhash.Hash
	hash[0] = 1
	op := wire.OutPoint{Hash: hash, Index: 0}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&op, nil, nil))
	tx.AddTxOut(wire.NewTxOut(90000, []byte{0x51}))

	utxos := UTXOSet{op: 100000}

	fee, err := ActualFee(tx, utxos)
	require.NoError(t, err)
	require.EqualValues(t, 10000, fee)
}

func TestActualFeeMissingPrevout(t *testing.T) {
	var hash chainhash.Hash
	op := wire.OutPoint{Hash: hash, Index: 0}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&op, nil, nil))

	_, err := ActualFee(tx, UTXOSet{})
	require.Error(t, err)

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	require.Equal(t, KindDanglingInput, mErr.Kind)
}

func TestActualFeeOutputsExceedInputs(t *testing.T) {
	var hash chainhash.Hash
	op := wire.OutPoint{Hash: hash, Index: 0}

	tx := wire.NewMsgTx(wire.TxVersion)
	tx.AddTxIn(wire.NewTxIn(&op, nil, nil))
	tx.AddTxOut(wire.NewTxOut(200000, []byte{0x51}))

	_, err := ActualFee(tx, UTXOSet{op: 100000})
	require.Error(t, err)

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	require.Equal(t, KindInsufficientFunds, mErr.Kind)
}
