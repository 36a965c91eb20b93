package seaswap

import (
	"go.uber.org/zap"

	"github.com/seaswaplabs/seaswap-sdk-go/wyvern"
)

// Notifier is the injected notification sink external subscribers observe.
type Notifier = wyvern.Notifier

// Lifecycle event kinds emitted by the SDK. Transaction events are shared
// with the confirmation monitor.
const (
	EventOrderCreated      = "OrderCreated"
	EventOrderApproved     = "OrderApproved"
	EventOrderCancelled    = "OrderCancelled"
	EventOrdersInvalidated = "OrdersInvalidated"
	EventOrderDenied       = "OrderDenied"
	EventMatchOrders       = "MatchOrders"
	EventTransferOne       = "TransferOne"
	EventTransferAll       = "TransferAll"
	EventApproveAsset      = "ApproveAsset"
	EventApproveAllAssets  = "ApproveAllAssets"
	EventApproveCurrency   = "ApproveCurrency"
	EventInitializeProxy   = "InitializeProxy"
	EventWrapNative        = "WrapNative"
	EventUnwrapNative      = "UnwrapNative"

	EventTransactionCreated   = wyvern.EventTransactionCreated
	EventTransactionConfirmed = wyvern.EventTransactionConfirmed
	EventTransactionFailed    = wyvern.EventTransactionFailed
)

// LogNotifier writes every notification to a zap logger. It is the default
// sink when the caller supplies none.
type LogNotifier struct {
	log *zap.Logger
}

// NewLogNotifier creates a notifier backed by log.
func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(kind string, payload map[string]interface{}) {
	n.log.Info("marketplace event",
		zap.String("kind", kind),
		zap.Any("payload", payload))
}
