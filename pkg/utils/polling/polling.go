package polling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
)

// -----------------------------------------------------------------------------
// Public Types - Polling
// -----------------------------------------------------------------------------

const (
	// DefaultInterval is the fixed delay between condition evaluations.
	DefaultInterval = time.Second * 3

	// DefaultTimeout is the default budget for a condition to become true,
	// matching the readiness window expected of a freshly deployed database.
	DefaultTimeout = time.Second * 60
)

// ErrTimeout is returned when a condition did not become true within the
// polling budget. Callers match it with errors.Is: for most checks it is
// fatal, but for "assert the data is gone" style checks it is the expected
// outcome.
var ErrTimeout = errors.New("condition not met before timeout")

// Condition is a single evaluation of some externally observable state.
// Returning (false, nil) means "not yet, keep polling". Returning a non-nil
// error aborts polling immediately and surfaces that error to the caller.
type Condition func(ctx context.Context) (bool, error)

// Option configures a single Poll call.
type Option func(*options)

type options struct {
	interval time.Duration
	timeout  time.Duration
}

// WithInterval overrides the fixed delay between evaluations.
func WithInterval(interval time.Duration) Option {
	return func(o *options) {
		o.interval = interval
	}
}

// WithTimeout overrides the overall polling budget. A timeout of zero means
// the condition is evaluated exactly once with no retry.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// -----------------------------------------------------------------------------
// Public Functions - Polling
// -----------------------------------------------------------------------------

// errNotSatisfied marks an evaluation that returned (false, nil) so that the
// retry loop keeps going.
var errNotSatisfied = errors.New("condition not satisfied")

// Poll evaluates cond every interval until it returns true, it returns an
// error, or the timeout budget is exhausted. All timing state is explicit:
// there is no ambient clock or global timer involved.
func Poll(ctx context.Context, cond Condition, opts ...Option) error {
	o := options{
		interval: DefaultInterval,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	attempts := uint(1)
	if o.timeout > 0 {
		attempts = uint(o.timeout/o.interval) + 1
	}

	var condErr error
	err := retry.Do(
		func() error {
			ok, err := cond(ctx)
			if err != nil {
				condErr = err
				return retry.Unrecoverable(err)
			}
			if !ok {
				return errNotSatisfied
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(o.interval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	if err == nil {
		return nil
	}
	if condErr != nil {
		return condErr
	}
	if errors.Is(err, errNotSatisfied) {
		return fmt.Errorf("%w (waited %s)", ErrTimeout, o.timeout)
	}
	return err
}
