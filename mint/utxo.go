package mint

import "fmt"

// Filter excludes every outpoint in inscribed from utxos, returning
// the remainder. An empty result is fatal: there is nothing left to
// spend as the commit transaction's cardinal (non-inscribed) inputs.
//
// Filter is idempotent: Filter(Filter(u, inscribed), inscribed)
// equals Filter(u, inscribed), since filtering again over a set that
// already excludes every member of inscribed is a no-op.
func Filter(utxos UTXOSet, inscribed InscribedSet) (UTXOSet, error) {
	out := make(UTXOSet, len(utxos))
	for op, amt := range utxos {
		if _, excluded := inscribed[op]; excluded {
			continue
		}
		out[op] = amt
	}

	if len(out) == 0 {
		return nil, newErr(KindNoCardinalUtxos, fmt.Errorf(
			"no usable outputs after excluding %d inscribed outpoint(s)",
			len(inscribed)))
	}

	return out, nil
}
