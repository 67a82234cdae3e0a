package mint

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// errBoom is a sentinel injected into fakeWallet to test error
// propagation without caring about the wrapped message text.
var errBoom = errors.New("boom")

// fakeWallet is an in-memory mint.NodeWallet for tests: it signs
// nothing (the commit's cardinal inputs are assumed already
// resolvable by the caller), but records every transaction it is asked
// to send and every descriptor it is asked to import.
type fakeWallet struct {
	net *chaincfg.Params

	signErr      error
	signComplete bool
	sendErr      error

	descriptorInfoErr error
	importDescErr     error
	importDescSuccess bool
	importDescriptors []ImportDescriptorRequest
	sentTxs           []*wire.MsgTx
}

func newFakeWallet(net *chaincfg.Params) *fakeWallet {
	return &fakeWallet{net: net, signComplete: true, importDescSuccess: true}
}

func (f *fakeWallet) SignRawTransactionWithWallet(tx *wire.MsgTx) (*wire.MsgTx, bool, error) {
	if f.signErr != nil {
		return nil, false, f.signErr
	}
	return tx, f.signComplete, nil
}

func (f *fakeWallet) SendRawTransaction(tx *wire.MsgTx) (*chainhash.Hash, error) {
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sentTxs = append(f.sentTxs, tx)
	hash := tx.TxHash()
	return &hash, nil
}

func (f *fakeWallet) GetDescriptorInfo(descriptor string) (string, error) {
	if f.descriptorInfoErr != nil {
		return "", f.descriptorInfoErr
	}
	return "deadbeef", nil
}

func (f *fakeWallet) ImportDescriptors(reqs []ImportDescriptorRequest) ([]ImportDescriptorResult, error) {
	f.importDescriptors = append(f.importDescriptors, reqs...)
	if f.importDescErr != nil {
		return nil, f.importDescErr
	}

	results := make([]ImportDescriptorResult, len(reqs))
	for i := range reqs {
		results[i] = ImportDescriptorResult{Success: f.importDescSuccess}
		if !f.importDescSuccess {
			results[i].Error = "simulated import failure"
		}
	}
	return results, nil
}

func (f *fakeWallet) GetRawChangeAddress() (btcutil.Address, error) {
	var program [32]byte
	program[0] = 0xbb
	return btcutil.NewAddressTaproot(program[:], f.net)
}

var _ NodeWallet = (*fakeWallet)(nil)
