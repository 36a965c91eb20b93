package seaswap

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedChain is returned for chain IDs without a deployed
	// contract suite.
	ErrUnsupportedChain = errors.New("unsupported chain")

	// ErrBountyTooLarge is returned when a requested affiliate bounty
	// exceeds the ceiling for the asset's collection.
	ErrBountyTooLarge = errors.New("bounty too large")
)

// ValidationError reports a business-rule violation caught before any
// network call. It names the violated invariant and is never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// BountyTooLargeError carries the computed bounty ceiling.
type BountyTooLargeError struct {
	BountyBasisPoints int64
	MaxBasisPoints    int64
}

func (e *BountyTooLargeError) Error() string {
	return fmt.Sprintf("total bounty of %d basis points exceeds the maximum of %d basis points for this asset",
		e.BountyBasisPoints, e.MaxBasisPoints)
}

func (e *BountyTooLargeError) Unwrap() error { return ErrBountyTooLarge }

// MatchRejectedError reports a failed pre-flight match validation after
// retries, naming the maker as the contact point for a stale or locked
// order.
type MatchRejectedError struct {
	Maker  common.Address
	Reason string
	Err    error
}

func (e *MatchRejectedError) Error() string {
	msg := fmt.Sprintf("order cannot be matched: %s; the order may be stale or its asset locked, contact the maker %s", e.Reason, e.Maker.Hex())
	if e.Err != nil {
		msg += ": " + truncateError(e.Err)
	}
	return msg
}

func (e *MatchRejectedError) Unwrap() error { return e.Err }

// ApprovalError reports a failed token or asset approval. It indicates a
// setup problem, not an incompatibility between orders.
type ApprovalError struct {
	Contract common.Address
	Err      error
}

func (e *ApprovalError) Error() string {
	return fmt.Sprintf("approval failed for %s: %v", e.Contract.Hex(), e.Err)
}

func (e *ApprovalError) Unwrap() error { return e.Err }

// truncateError keeps raw revert payloads out of user-facing messages.
func truncateError(err error) string {
	msg := err.Error()
	if len(msg) > 200 {
		return msg[:200] + "..."
	}
	return msg
}
