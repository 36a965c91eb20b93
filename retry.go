package seaswap

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// retry runs fn up to attempts times with a fixed delay between failures,
// honoring ctx cancellation. Used to absorb transient read-node lag around
// match validation, fingerprint reads, and balance checks; business-rule
// violations must not pass through it.
func retry(ctx context.Context, name string, attempts int, delay time.Duration, fn func(context.Context) error) error {
	var last error
	for i := 0; i < attempts; i++ {
		if last = fn(ctx); last == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return errors.Wrapf(last, "%s: giving up after %d attempts", name, attempts)
}
