package mint

import (
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/ordwallet/batchmint/pkg/logging"
)

// recoveryRPCPause separates the get_descriptor_info and
// import_descriptors calls for a single slot, to avoid overwhelming
// the node's wallet lock under a large batch.
const recoveryRPCPause = 100 * time.Millisecond

// BackupRecoveryKeys imports every slot's tweaked recovery keypair
// into the node's wallet as an inactive, watch-and-spend descriptor,
// so the mint output can be swept via key-path spend even if the
// reveal transaction is lost. It aborts — without broadcasting
// anything — on the first slot whose import fails. log may be nil; it
// defaults to the package logger's "recovery" component.
func BackupRecoveryKeys(wallet NodeWallet, net *chaincfg.Params, slots []*MintSlot, log *logging.Logger) error {
	recLog := componentLogger(log, "recovery")
	recLog.Info("backing up recovery keys", "count", len(slots))

	for _, slot := range slots {
		if err := backupOne(wallet, net, slot); err != nil {
			recLog.Error("recovery import failed", "slot", slot.Index, "err", err)
			return err
		}
	}

	recLog.Info("recovery keys imported", "count", len(slots))
	return nil
}

func backupOne(wallet NodeWallet, net *chaincfg.Params, slot *MintSlot) error {
	wif, err := btcutil.NewWIF(slot.RecoveryKey, net, true)
	if err != nil {
		return fmt.Errorf("encode recovery WIF for slot %d: %w", slot.Index, err)
	}

	descriptor := fmt.Sprintf("rawtr(%s)", wif.String())

	checksum, err := wallet.GetDescriptorInfo(descriptor)
	if err != nil {
		return fmt.Errorf("get_descriptor_info for slot %d: %w", slot.Index, err)
	}

	time.Sleep(recoveryRPCPause)

	results, err := wallet.ImportDescriptors([]ImportDescriptorRequest{{
		Descriptor: fmt.Sprintf("%s#%s", descriptor, checksum),
		Timestamp:  "now",
		Active:     false,
		Internal:   false,
		Label:      recoveryLabel,
	}})
	if err != nil {
		return fmt.Errorf("import_descriptors for slot %d: %w", slot.Index, err)
	}

	if len(results) == 0 || !results[0].Success {
		msg := ""
		if len(results) > 0 {
			msg = results[0].Error
		}
		return newErr(KindRecoveryImportFailed, fmt.Errorf(
			"slot %d: %s", slot.Index, msg))
	}

	return nil
}
