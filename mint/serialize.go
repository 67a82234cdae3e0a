package mint

import (
	"bytes"
	"encoding/hex"

	"github.com/btcsuite/btcd/wire"
)

// serializeTx returns tx's wire serialization as lowercase hex.
func serializeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}
