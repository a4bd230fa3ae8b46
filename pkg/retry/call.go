package retry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrAttemptTimeout is recorded when a single attempt outlives Options.Timeout.
// It is always retryable.
var ErrAttemptTimeout = errors.New("attempt timed out")

// Options bounds CallWithRetry. Unlike Config, the delay between attempts is fixed.
type Options struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration // per attempt; 0 means no per-attempt deadline

	// IsTerminal stops retrying for errors that cannot succeed on a later
	// attempt. Defaults to the package IsTerminal.
	IsTerminal func(error) bool

	// OnAttempt observes every attempt. err is nil on success.
	OnAttempt func(attempt int, err error)
}

// DefaultOptions returns 3 attempts, 1s apart, each limited to 50s.
func DefaultOptions() Options {
	return Options{
		MaxAttempts: 3,
		RetryDelay:  time.Second,
		Timeout:     50 * time.Second,
		IsTerminal:  IsTerminal,
	}
}

type attemptResult[T any] struct {
	value T
	err   error
}

// CallWithRetry calls fn up to MaxAttempts times. Each attempt races fn
// against its own deadline; when the deadline wins the call is abandoned and
// its eventual result discarded. Terminal errors return after one call.
// When attempts run out the last error is returned unchanged. Cancelling ctx
// stops immediately with ctx.Err().
func CallWithRetry[T any](ctx context.Context, opts Options, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.IsTerminal == nil {
		opts.IsTerminal = IsTerminal
	}

	var lastErr error
	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		value, err := runAttempt(ctx, opts.Timeout, fn)
		if opts.OnAttempt != nil {
			opts.OnAttempt(attempt, err)
		}
		if err == nil {
			return value, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		lastErr = err

		if !errors.Is(err, ErrAttemptTimeout) && opts.IsTerminal(err) {
			return zero, err
		}

		if attempt < opts.MaxAttempts && opts.RetryDelay > 0 {
			timer := time.NewTimer(opts.RetryDelay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return zero, ctx.Err()
			}
		}
	}

	return zero, lastErr
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var attemptCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		attemptCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	// Buffered so an abandoned call can still deliver and exit.
	done := make(chan attemptResult[T], 1)
	go func() {
		v, err := fn(attemptCtx)
		done <- attemptResult[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s: %v", ErrAttemptTimeout, timeout, r.err)
		}
		return r.value, r.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w after %s", ErrAttemptTimeout, timeout)
	}
}

var terminalPatterns = []string{
	"invalid input",
	"invalid request",
	"invalid api key",
	"not found",
	"unauthorized",
	"forbidden",
	"status 400",
	"status 401",
	"status 403",
	"status 404",
}

// IsTerminal reports whether err can never succeed on retry. Errors that
// implement RetryableError decide for themselves; anything else is terminal
// only when its message names invalid input, a missing resource or an auth
// failure. Attempt timeouts are never terminal.
func IsTerminal(err error) bool {
	if err == nil || errors.Is(err, ErrAttemptTimeout) {
		return false
	}

	var re RetryableError
	if errors.As(err, &re) {
		return !re.IsRetryable()
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range terminalPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
