package mint

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

func buildSignedPlan(t *testing.T, n int) (*Plan, []*SignedReveal) {
	t.Helper()
	plan := buildTestPlan(t, n)
	destination := testChangeAddress(t)
	reveals, err := SignReveals(plan, destination, 10, false, nil)
	require.NoError(t, err)
	return plan, reveals
}

func TestBroadcastDryRunMakesNoWalletCalls(t *testing.T) {
	plan, reveals := buildSignedPlan(t, 2)
	wallet := newFakeWallet(&chaincfg.MainNetParams)

	result, err := Broadcast(wallet, plan, reveals, BroadcastOptions{
		Net:    &chaincfg.MainNetParams,
		DryRun: true,
	})
	require.NoError(t, err)
	require.Len(t, result.Reveal, 2)
	require.Empty(t, wallet.sentTxs)
	require.Empty(t, wallet.importDescriptors)
}

func TestBroadcastSignsAndSendsCommitThenReveals(t *testing.T) {
	plan, reveals := buildSignedPlan(t, 3)
	wallet := newFakeWallet(&chaincfg.MainNetParams)

	var slept []time.Duration
	result, err := Broadcast(wallet, plan, reveals, BroadcastOptions{
		Net:            &chaincfg.MainNetParams,
		NoBackup:       true,
		RecoveryLogDir: t.TempDir(),
		Sleep:          func(d time.Duration) { slept = append(slept, d) },
	})
	require.NoError(t, err)
	require.Len(t, result.Reveal, 3)
	// Commit + 3 reveals sent, in order.
	require.Len(t, wallet.sentTxs, 4)
	require.Equal(t, plan.CommitTx.TxHash(), wallet.sentTxs[0].TxHash())
	// Paced between all but the last reveal.
	require.Len(t, slept, 2)
}

func TestBroadcastAppliesEvery20PacingOnTopOfInterRevealPause(t *testing.T) {
	const n = 21
	plan, reveals := buildSignedPlan(t, n)
	wallet := newFakeWallet(&chaincfg.MainNetParams)

	const every20Sleep = 7 * time.Second
	var slept []time.Duration
	_, err := Broadcast(wallet, plan, reveals, BroadcastOptions{
		Net:            &chaincfg.MainNetParams,
		NoBackup:       true,
		RecoveryLogDir: t.TempDir(),
		Every20Sleep:   every20Sleep,
		Sleep:          func(d time.Duration) { slept = append(slept, d) },
	})
	require.NoError(t, err)

	// interRevealPause fires after every reveal but the last (n-1 =
	// 20 times); the 20th reveal (index 19) also gets the extra
	// every-20 pause appended right after it.
	require.Len(t, slept, n)
	for i := 0; i < n-1; i++ {
		require.Equal(t, interRevealPause, slept[i])
	}
	require.Equal(t, every20Sleep, slept[n-1])
}

func TestBroadcastOnlyCommitSkipsReveals(t *testing.T) {
	plan, reveals := buildSignedPlan(t, 2)
	wallet := newFakeWallet(&chaincfg.MainNetParams)

	result, err := Broadcast(wallet, plan, reveals, BroadcastOptions{
		Net:            &chaincfg.MainNetParams,
		NoBackup:       true,
		OnlyCommit:     true,
		RecoveryLogDir: t.TempDir(),
		Sleep:          func(time.Duration) {},
	})
	require.NoError(t, err)
	require.Empty(t, result.Reveal)
	require.Len(t, wallet.sentTxs, 1)
}

func TestBroadcastBackupFailureAbortsBeforeBroadcast(t *testing.T) {
	plan, reveals := buildSignedPlan(t, 1)
	wallet := newFakeWallet(&chaincfg.MainNetParams)
	wallet.importDescSuccess = false

	_, err := Broadcast(wallet, plan, reveals, BroadcastOptions{
		Net: &chaincfg.MainNetParams,
	})
	require.Error(t, err)
	require.Empty(t, wallet.sentTxs)
}

func TestBroadcastCommitSignIncomplete(t *testing.T) {
	plan, reveals := buildSignedPlan(t, 1)
	wallet := newFakeWallet(&chaincfg.MainNetParams)
	wallet.signComplete = false

	_, err := Broadcast(wallet, plan, reveals, BroadcastOptions{
		Net:            &chaincfg.MainNetParams,
		NoBackup:       true,
		RecoveryLogDir: t.TempDir(),
	})
	require.Error(t, err)

	var mErr *Error
	require.ErrorAs(t, err, &mErr)
	require.Equal(t, KindCommitBroadcastFailed, mErr.Kind)
}
