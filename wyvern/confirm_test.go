package wyvern

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubBackend satisfies Backend with overridable behaviors. Reads default to
// a 32-byte true word; writes default to acceptance.
type stubBackend struct {
	callContract       func(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	transactionReceipt func(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

func boolWord(v bool) []byte {
	word := make([]byte, 32)
	if v {
		word[31] = 1
	}
	return word
}

func (s *stubBackend) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	if s.callContract != nil {
		return s.callContract(ctx, msg, blockNumber)
	}
	return boolWord(true), nil
}

func (s *stubBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 100000, nil
}

func (s *stubBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1000000000), nil
}

func (s *stubBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return 0, nil
}

func (s *stubBackend) ChainID(context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (s *stubBackend) SendTransaction(context.Context, *types.Transaction) error {
	return nil
}

func (s *stubBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if s.transactionReceipt != nil {
		return s.transactionReceipt(ctx, txHash)
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: txHash}, nil
}

func (s *stubBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return new(big.Int).Lsh(big.NewInt(1), 64), nil
}

// recordingNotifier captures every emitted event kind in order.
type recordingNotifier struct {
	mu    sync.Mutex
	kinds []string
}

func (n *recordingNotifier) Notify(kind string, _ map[string]interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.kinds = append(n.kinds, kind)
}

func (n *recordingNotifier) Kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.kinds...)
}

func TestPollPredicateSucceeds(t *testing.T) {
	notifier := &recordingNotifier{}
	m := NewMonitor(&stubBackend{}, notifier, nil,
		WithPollInterval(time.Millisecond), WithPollAttempts(10))

	calls := 0
	err := m.PollPredicate(context.Background(), "proxy initialization", func(context.Context) (bool, error) {
		calls++
		return calls >= 3, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []string{EventTransactionConfirmed}, notifier.Kinds())
}

func TestPollPredicateExhaustsAttempts(t *testing.T) {
	notifier := &recordingNotifier{}
	m := NewMonitor(&stubBackend{}, notifier, nil,
		WithPollInterval(time.Millisecond), WithPollAttempts(DefaultPollAttempts))

	calls := 0
	err := m.PollPredicate(context.Background(), "proxy initialization", func(context.Context) (bool, error) {
		calls++
		return false, nil
	})
	require.Error(t, err)

	assert.Equal(t, DefaultPollAttempts, calls, "every attempt must run, none extra")
	assert.ErrorIs(t, err, ErrConfirmationTimeout)

	var timeoutErr *ConfirmationTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, DefaultPollAttempts, timeoutErr.Attempts)
	assert.Equal(t, []string{EventTransactionFailed}, notifier.Kinds())
}

func TestPollPredicateErrorCountsAsMiss(t *testing.T) {
	m := NewMonitor(&stubBackend{}, nil, nil,
		WithPollInterval(time.Millisecond), WithPollAttempts(10))

	calls := 0
	err := m.PollPredicate(context.Background(), "allowance check", func(context.Context) (bool, error) {
		calls++
		if calls == 1 {
			return false, errors.New("transient node error")
		}
		return true, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestPollPredicateHonorsCancellation(t *testing.T) {
	m := NewMonitor(&stubBackend{}, nil, nil,
		WithPollInterval(time.Hour), WithPollAttempts(10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.PollPredicate(ctx, "never", func(context.Context) (bool, error) {
		return false, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfirmReceiptSuccess(t *testing.T) {
	notifier := &recordingNotifier{}
	txHash := common.HexToHash("0x01")

	lookups := 0
	backend := &stubBackend{
		transactionReceipt: func(_ context.Context, h common.Hash) (*types.Receipt, error) {
			lookups++
			if lookups < 3 {
				return nil, ethereum.NotFound
			}
			return &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: h}, nil
		},
	}
	m := NewMonitor(backend, notifier, nil,
		WithReceiptTiming(time.Millisecond, time.Second))

	receipt, err := m.ConfirmReceipt(context.Background(), txHash, "atomic match")
	require.NoError(t, err)
	assert.Equal(t, txHash, receipt.TxHash)
	assert.Equal(t, []string{EventTransactionCreated, EventTransactionConfirmed}, notifier.Kinds())
}

func TestConfirmReceiptRevert(t *testing.T) {
	notifier := &recordingNotifier{}
	backend := &stubBackend{
		transactionReceipt: func(_ context.Context, h common.Hash) (*types.Receipt, error) {
			return &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: h}, nil
		},
	}
	m := NewMonitor(backend, notifier, nil)

	_, err := m.ConfirmReceipt(context.Background(), common.HexToHash("0x02"), "atomic match")
	require.Error(t, err)

	var failure *TransactionFailedError
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, []string{EventTransactionCreated, EventTransactionFailed}, notifier.Kinds())
}

func TestConfirmReceiptTimeout(t *testing.T) {
	backend := &stubBackend{
		transactionReceipt: func(context.Context, common.Hash) (*types.Receipt, error) {
			return nil, ethereum.NotFound
		},
	}
	m := NewMonitor(backend, nil, nil,
		WithReceiptTiming(time.Millisecond, 20*time.Millisecond))

	_, err := m.ConfirmReceipt(context.Background(), common.HexToHash("0x03"), "atomic match")
	require.Error(t, err)

	var failure *TransactionFailedError
	assert.ErrorAs(t, err, &failure)
}
