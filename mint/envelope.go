package mint

import (
	"github.com/btcsuite/btcd/txscript"
)

// envelopeProtocolID is the three-byte tag identifying an inscription
// envelope, placed first inside the OP_FALSE OP_IF ... OP_ENDIF block.
var envelopeProtocolID = []byte("ord")

// contentTypeTag and bodyTag are the envelope's field tags: an odd
// single push of 1 marks the content-type field, 0 marks the start of
// the body.
const (
	contentTypeTag = 1
	bodyTag        = 0

	// maxScriptElementSize is the maximum single data push accepted by
	// standardness rules; inscription bodies longer than this are
	// chunked across consecutive pushes.
	maxScriptElementSize = 520
)

// AppendEnvelope appends an inscription's envelope to a script builder
// that has already pushed `<xonly pubkey> OP_CHECKSIG`. The resulting
// script, once closed with OP_ENDIF, is valid only via the Taproot
// script path and commits the full inscription body and content type.
func AppendEnvelope(b *txscript.ScriptBuilder, insc Inscription) *txscript.ScriptBuilder {
	b.AddOp(txscript.OP_FALSE)
	b.AddOp(txscript.OP_IF)
	b.AddData(envelopeProtocolID)
	b.AddInt64(contentTypeTag)
	b.AddData([]byte(insc.ContentType))
	b.AddInt64(bodyTag)

	body := insc.Body
	for len(body) > 0 {
		end := maxScriptElementSize
		if end > len(body) {
			end = len(body)
		}
		b.AddFullData(body[:end])
		body = body[end:]
	}

	b.AddOp(txscript.OP_ENDIF)
	return b
}
