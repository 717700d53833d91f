package poll

import (
	"context"
	"errors"
	"time"
)

// DefaultInterval is used when Config has no backoff strategy
const DefaultInterval = 250 * time.Millisecond

// ErrTimeout is returned when a condition is not met within Config.Timeout
var ErrTimeout = errors.New("condition not met before timeout")

// Condition reports whether the awaited state has been reached.
// A non-nil error stops polling immediately.
type Condition func(ctx context.Context) (bool, error)

// Config bounds a poll loop
type Config struct {
	// Timeout bounds the whole loop; zero means only ctx bounds it
	Timeout time.Duration
	// Backoff spaces the checks; nil means DefaultInterval
	Backoff BackoffStrategy
}

// Every returns a Config that checks at a fixed interval for at most timeout
func Every(interval, timeout time.Duration) Config {
	return Config{
		Timeout: timeout,
		Backoff: &ConstantBackoff{Delay: interval},
	}
}

// Until checks cond until it returns true, it returns an error, the timeout
// elapses (ErrTimeout) or ctx is done (ctx.Err()). The first check runs
// immediately.
func Until(ctx context.Context, cfg Config, cond Condition) error {
	parent := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	backoff := cfg.Backoff
	if backoff == nil {
		backoff = &ConstantBackoff{Delay: DefaultInterval}
	}
	backoff.Reset()

	for attempt := 1; ; attempt++ {
		ok, err := cond(ctx)
		if err != nil {
			return deadlineOr(parent, err)
		}
		if ok {
			return nil
		}

		if err := Wait(ctx, backoff.NextDelay(attempt)); err != nil {
			return deadlineOr(parent, err)
		}
	}
}

// UntilStable polls measure until it returns the same value on checks
// consecutive polls after the first observation. It returns the last value
// observed even when it fails.
func UntilStable(ctx context.Context, cfg Config, checks int, measure func(ctx context.Context) (int, error)) (int, error) {
	if checks < 1 {
		checks = 1
	}

	last, same := 0, -1
	err := Until(ctx, cfg, func(ctx context.Context) (bool, error) {
		n, err := measure(ctx)
		if err != nil {
			return false, err
		}
		if same >= 0 && n == last {
			same++
		} else {
			last, same = n, 0
		}
		return same >= checks, nil
	})
	return last, err
}

// deadlineOr reports our own deadline as ErrTimeout and anything else,
// including cancellation of the caller's context, as is
func deadlineOr(parent context.Context, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
