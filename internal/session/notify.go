package session

import (
	"github.com/orbit-wallet/orbitd/internal/config"
	"github.com/orbit-wallet/orbitd/internal/wallet"
	"github.com/orbit-wallet/orbitd/pkg/helpers"
	"github.com/orbit-wallet/orbitd/pkg/logging"
)

// Notifier delivers best-effort user-facing notifications for incoming
// transactions. Delivery failures are ignored by callers.
type Notifier interface {
	NotifyTx(tx *wallet.Tx) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(tx *wallet.Tx) error

// NotifyTx implements Notifier.
func (f NotifierFunc) NotifyTx(tx *wallet.Tx) error {
	return f(tx)
}

// LogNotifier is the default notification sink: it classifies the
// transaction and logs it.
type LogNotifier struct {
	log *logging.Logger
}

// NewLogNotifier creates a logging notification sink.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logging.GetDefault().Component("notify")}
}

// NotifyTx logs the classified transaction.
func (n *LogNotifier) NotifyTx(tx *wallet.Tx) error {
	amount := baseOutputTotal(tx)
	formatted := helpers.FormatAmount(amount, config.BaseTokenDecimals)

	if tx.Type == wallet.TxTypeBlock {
		n.log.Info("New block reward received", "tx", tx.ID,
			"amount", formatted+" "+config.BaseTokenSymbol)
	} else {
		n.log.Info("New transaction received", "tx", tx.ID,
			"amount", formatted+" "+config.BaseTokenSymbol, "tokens", len(tx.TokenIDs()))
	}
	return nil
}

// baseOutputTotal sums the base-currency outputs of a transaction.
func baseOutputTotal(tx *wallet.Tx) uint64 {
	var total uint64
	for _, out := range tx.Outputs {
		if out.TokenID == config.BaseTokenID {
			total += out.Value
		}
	}
	return total
}
