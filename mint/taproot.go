package mint

import (
	"fmt"
	"io"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// DeriveSlot generates a fresh untweaked keypair, builds the reveal
// script binding it to the inscription, and derives the single-leaf
// Taproot spend info for it: the output key, control block, P2TR
// address, and the tweaked recovery keypair that alone can key-path
// spend the resulting output.
//
// Callers MUST pass a cryptographically secure rng; DeriveSlot reads
// exactly 32 bytes from it per call and is otherwise deterministic,
// which is relied upon by tests that seed a fixed byte stream.
func DeriveSlot(index int, insc Inscription, net *chaincfg.Params, rng io.Reader) (*MintSlot, error) {
	privKey, err := readPrivateKey(rng)
	if err != nil {
		return nil, fmt.Errorf("generate slot %d keypair: %w", index, err)
	}

	xOnly := schnorr.SerializePubKey(privKey.PubKey())

	builder := txscript.NewScriptBuilder().
		AddData(xOnly).
		AddOp(txscript.OP_CHECKSIG)
	AppendEnvelope(builder, insc)

	script, err := builder.Script()
	if err != nil {
		return nil, fmt.Errorf("build reveal script for slot %d: %w", index, err)
	}

	leaf := txscript.NewBaseTapLeaf(script)
	tree := txscript.AssembleTaprootScriptTree(leaf)
	merkleRoot := tree.RootNode.TapHash()

	outputKey := txscript.ComputeTaprootOutputKey(privKey.PubKey(), merkleRoot[:])

	controlBlock := tree.LeafMerkleProofs[0].ToControlBlock(privKey.PubKey())
	controlBlockBytes, err := controlBlock.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize control block for slot %d: %w", index, err)
	}

	addr, err := btcutil.NewAddressTaproot(schnorr.SerializePubKey(outputKey), net)
	if err != nil {
		return nil, fmt.Errorf("derive address for slot %d: %w", index, err)
	}

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("derive pkScript for slot %d: %w", index, err)
	}

	recoveryKey := txscript.TweakTaprootPrivKey(*privKey, merkleRoot[:])

	return &MintSlot{
		Index:        index,
		PrivateKey:   privKey,
		RevealScript: script,
		ControlBlock: controlBlockBytes,
		MerkleRoot:   merkleRoot,
		OutputKey:    outputKey,
		Address:      addr.EncodeAddress(),
		PkScript:     pkScript,
		RecoveryKey:  recoveryKey,
	}, nil
}

// readPrivateKey reads 32 bytes from rng and reduces them into a
// secp256k1 scalar. Unlike btcec.NewPrivateKey, which always reads
// from crypto/rand, this lets callers supply their own entropy source
// for deterministic tests while production code still wires
// crypto/rand.Reader.
func readPrivateKey(rng io.Reader) (*btcec.PrivateKey, error) {
	var buf [32]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return nil, fmt.Errorf("read entropy: %w", err)
	}
	return btcec.PrivKeyFromBytes(buf[:]), nil
}

// Zeroize best-effort scrubs a slot's private key material from
// memory. Callers must not use the slot for signing after calling
// this; it is safe to call only after the recovery key has already
// been written to the durable recovery log and imported into the
// node wallet.
func (s *MintSlot) Zeroize() {
	if s.PrivateKey != nil {
		s.PrivateKey.Zero()
	}
	if s.RecoveryKey != nil {
		s.RecoveryKey.Zero()
	}
}
