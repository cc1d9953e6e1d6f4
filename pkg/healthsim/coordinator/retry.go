package coordinator

import (
	"context"
	"errors"
	"time"
)

// ErrTransient marks engine errors worth retrying. Engines wrap it, directly
// or through Transient, when a later attempt may succeed.
var ErrTransient = errors.New("transient engine error")

type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }

func (e *transientError) Unwrap() []error { return []error{e.err, ErrTransient} }

// Transient marks err as retryable. It returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &transientError{err: err}
}

// RetryPolicy controls how often an engine call is repeated after a
// retryable error. Failed outcomes and panics are never retried.
type RetryPolicy struct {
	// MaxAttempts counts the first call. Values below 1 mean 1.
	MaxAttempts int

	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// BackoffFactor multiplies the wait after each attempt. Values below 1
	// keep the wait constant.
	BackoffFactor float64

	// Retryable overrides the default check, errors.Is(err, ErrTransient).
	Retryable func(error) bool
}

// DefaultRetry retries transient errors twice with a short backoff.
var DefaultRetry = RetryPolicy{
	MaxAttempts:    3,
	InitialBackoff: 100 * time.Millisecond,
	MaxBackoff:     2 * time.Second,
	BackoffFactor:  2,
}

func (p RetryPolicy) attempts() int {
	return max(p.MaxAttempts, 1)
}

func (p RetryPolicy) retryable(err error) bool {
	var perr *PanicError
	if errors.As(err, &perr) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return errors.Is(err, ErrTransient)
}

func (p RetryPolicy) next(backoff time.Duration) time.Duration {
	if p.BackoffFactor > 1 {
		backoff = time.Duration(float64(backoff) * p.BackoffFactor)
	}
	if p.MaxBackoff > 0 && backoff > p.MaxBackoff {
		backoff = p.MaxBackoff
	}
	return backoff
}

// withRetry calls fn until it succeeds, returns a non-retryable error or
// runs out of attempts. It reports the number of calls made.
func withRetry(ctx context.Context, p RetryPolicy, fn func() (Outcome, error)) (Outcome, int, error) {
	backoff := p.InitialBackoff
	var (
		outcome Outcome
		err     error
	)
	for attempt := 1; ; attempt++ {
		outcome, err = fn()
		if err == nil || attempt >= p.attempts() || !p.retryable(err) {
			return outcome, attempt, err
		}
		if backoff > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return outcome, attempt, err
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return outcome, attempt, err
		}
		backoff = p.next(backoff)
	}
}
