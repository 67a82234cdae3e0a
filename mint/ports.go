package mint

import (
	"context"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// NodeWallet is the subset of the Bitcoin node's wallet RPC this
// engine depends on. It is implemented by internal/rpcwallet against
// a real bitcoind; tests implement it with a fake.
type NodeWallet interface {
	// SignRawTransactionWithWallet asks the node's wallet to sign tx
	// using keys it already holds (the commit's cardinal inputs).
	SignRawTransactionWithWallet(tx *wire.MsgTx) (signed *wire.MsgTx, complete bool, err error)

	// SendRawTransaction broadcasts a fully signed transaction.
	SendRawTransaction(tx *wire.MsgTx) (*chainhash.Hash, error)

	// GetDescriptorInfo returns the checksum bitcoind expects appended
	// to an output descriptor before import.
	GetDescriptorInfo(descriptor string) (checksum string, err error)

	// ImportDescriptors imports one or more output descriptors into
	// the node's wallet.
	ImportDescriptors(reqs []ImportDescriptorRequest) ([]ImportDescriptorResult, error)

	// GetRawChangeAddress returns a fresh change address from the
	// node's own keypool, used as the default destination and change
	// address when the caller doesn't supply one.
	GetRawChangeAddress() (btcutil.Address, error)
}

// ImportDescriptorRequest mirrors bitcoind's importdescriptors RPC
// request shape for a single descriptor.
type ImportDescriptorRequest struct {
	Descriptor string
	Timestamp  string
	Active     bool
	Internal   bool
	Label      string
}

// ImportDescriptorResult mirrors one entry of importdescriptors'
// response array.
type ImportDescriptorResult struct {
	Success bool
	Error   string
}

// Indexer is the read-only chain-indexer oracle this engine depends
// on for UTXO discovery and inscription exclusion.
type Indexer interface {
	GetUnspentOutputs(ctx context.Context, wallet string) (UTXOSet, error)
	GetPendingUnspentOutputs(ctx context.Context, wallet string) (UTXOSet, error)
	GetInscriptions(ctx context.Context) (InscribedSet, error)
}
