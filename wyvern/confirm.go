package wyvern

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Notifier is the injected notification sink for lifecycle events. No return
// value depends on subscriber behavior.
type Notifier interface {
	Notify(kind string, payload map[string]interface{})
}

// NopNotifier discards every notification.
type NopNotifier struct{}

func (NopNotifier) Notify(string, map[string]interface{}) {}

// Transaction lifecycle event kinds.
const (
	EventTransactionCreated   = "TransactionCreated"
	EventTransactionConfirmed = "TransactionConfirmed"
	EventTransactionFailed    = "TransactionFailed"
)

const (
	// DefaultPollInterval is the fixed spacing between predicate polls.
	DefaultPollInterval = 5 * time.Second
	// DefaultPollAttempts bounds predicate polling before giving up.
	DefaultPollAttempts = 60

	defaultReceiptInterval = 2 * time.Second
	defaultReceiptTimeout  = 120 * time.Second
	pollProgressEvery      = 10
)

// ErrConfirmationTimeout marks exhausted predicate polling. It is a terminal
// failure, distinct from success and from on-chain revert.
var ErrConfirmationTimeout = errors.New("confirmation polling exhausted")

// ConfirmationTimeoutError carries the polling parameters that were
// exhausted.
type ConfirmationTimeoutError struct {
	Description string
	Attempts    int
	Interval    time.Duration
}

func (e *ConfirmationTimeoutError) Error() string {
	return fmt.Sprintf("%s: not confirmed after %d polls at %s intervals", e.Description, e.Attempts, e.Interval)
}

func (e *ConfirmationTimeoutError) Unwrap() error { return ErrConfirmationTimeout }

// TransactionFailedError reports an on-chain revert or a provider failure
// while awaiting a receipt.
type TransactionFailedError struct {
	TxHash common.Hash
	Err    error
}

func (e *TransactionFailedError) Error() string {
	return fmt.Sprintf("transaction %s failed: %v", e.TxHash.Hex(), e.Err)
}

func (e *TransactionFailedError) Unwrap() error { return e.Err }

// Monitor tracks submitted writes to a terminal state: confirmed, failed, or
// timed out. Receipt-based confirmation delegates to the provider's receipt
// lookup; predicate polling re-reads contract state for callers that cannot
// observe a transaction hash or do not trust receipt status alone.
type Monitor struct {
	backend         Backend
	notifier        Notifier
	log             *zap.Logger
	pollInterval    time.Duration
	pollAttempts    int
	receiptInterval time.Duration
	receiptTimeout  time.Duration
}

// MonitorOption adjusts monitor timing, mainly for tests.
type MonitorOption func(*Monitor)

// WithPollInterval overrides the predicate polling interval.
func WithPollInterval(d time.Duration) MonitorOption {
	return func(m *Monitor) { m.pollInterval = d }
}

// WithPollAttempts overrides the predicate polling attempt bound.
func WithPollAttempts(n int) MonitorOption {
	return func(m *Monitor) { m.pollAttempts = n }
}

// WithReceiptTiming overrides receipt polling spacing and overall timeout.
func WithReceiptTiming(interval, timeout time.Duration) MonitorOption {
	return func(m *Monitor) {
		m.receiptInterval = interval
		m.receiptTimeout = timeout
	}
}

// NewMonitor creates a confirmation monitor. notifier and log may be nil.
func NewMonitor(backend Backend, notifier Notifier, log *zap.Logger, opts ...MonitorOption) *Monitor {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	m := &Monitor{
		backend:         backend,
		notifier:        notifier,
		log:             log,
		pollInterval:    DefaultPollInterval,
		pollAttempts:    DefaultPollAttempts,
		receiptInterval: defaultReceiptInterval,
		receiptTimeout:  defaultReceiptTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ConfirmReceipt awaits the receipt for txHash and checks its status. Emits
// TransactionCreated on entry and TransactionConfirmed or TransactionFailed
// on exit.
func (m *Monitor) ConfirmReceipt(ctx context.Context, txHash common.Hash, description string) (*types.Receipt, error) {
	m.notifier.Notify(EventTransactionCreated, map[string]interface{}{
		"transactionHash": txHash.Hex(),
		"event":           description,
	})

	waitCtx, cancel := context.WithTimeout(ctx, m.receiptTimeout)
	defer cancel()

	for {
		receipt, err := m.backend.TransactionReceipt(waitCtx, txHash)
		if err == nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				failure := &TransactionFailedError{TxHash: txHash, Err: errors.New("receipt status indicates revert")}
				m.notifier.Notify(EventTransactionFailed, map[string]interface{}{
					"transactionHash": txHash.Hex(),
					"event":           description,
					"error":           failure.Error(),
				})
				return nil, failure
			}
			m.notifier.Notify(EventTransactionConfirmed, map[string]interface{}{
				"transactionHash": txHash.Hex(),
				"event":           description,
			})
			return receipt, nil
		}

		select {
		case <-waitCtx.Done():
			failure := &TransactionFailedError{TxHash: txHash, Err: errors.Wrap(err, "timed out awaiting receipt")}
			m.notifier.Notify(EventTransactionFailed, map[string]interface{}{
				"transactionHash": txHash.Hex(),
				"event":           description,
				"error":           failure.Error(),
			})
			return nil, failure
		case <-time.After(m.receiptInterval):
		}
	}
}

// PollPredicate re-evaluates predicate at a fixed interval until it reports
// success or the attempt bound is exhausted. Predicate errors count as
// not-yet-successful; exhaustion is a ConfirmationTimeoutError.
func (m *Monitor) PollPredicate(ctx context.Context, description string, predicate func(context.Context) (bool, error)) error {
	for attempt := 1; attempt <= m.pollAttempts; attempt++ {
		ok, err := predicate(ctx)
		if err != nil {
			m.log.Warn("confirmation predicate errored",
				zap.String("event", description),
				zap.Int("attempt", attempt),
				zap.Error(err))
		}
		if ok {
			m.notifier.Notify(EventTransactionConfirmed, map[string]interface{}{
				"event": description,
			})
			return nil
		}
		if attempt%pollProgressEvery == 0 {
			m.log.Info("still awaiting confirmation",
				zap.String("event", description),
				zap.Int("attempt", attempt),
				zap.Int("maxAttempts", m.pollAttempts))
		}
		if attempt == m.pollAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.pollInterval):
		}
	}

	failure := &ConfirmationTimeoutError{
		Description: description,
		Attempts:    m.pollAttempts,
		Interval:    m.pollInterval,
	}
	m.notifier.Notify(EventTransactionFailed, map[string]interface{}{
		"event": description,
		"error": failure.Error(),
	})
	return failure
}
