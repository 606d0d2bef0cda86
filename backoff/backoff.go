// Package backoff wraps upstream calls in a bounded retry policy.
//
// Failures flagged as rate limited back off exponentially; everything else
// waits a flat base delay between attempts. The failure from the final
// attempt is propagated unchanged.
package backoff

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/tagnet-dev/tagnet/profile"
)

// Defaults applied when a Policy field is zero.
const (
	DefaultAttempts  = 3
	DefaultBaseDelay = 2 * time.Second
)

// Policy bounds a retried operation.
type Policy struct {
	Attempts  uint
	BaseDelay time.Duration
	Logger    *slog.Logger
}

func (p Policy) withDefaults() Policy {
	if p.Attempts == 0 {
		p.Attempts = DefaultAttempts
	}
	if p.BaseDelay == 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	return p
}

// Do runs op up to p.Attempts times, waiting between attempts per the
// policy. It returns op's value on the first success, or the last failure
// once the attempt budget is spent.
func Do[T any](ctx context.Context, p Policy, op func() (T, error)) (T, error) {
	p = p.withDefaults()

	return retry.DoWithData(
		op,
		retry.Context(ctx),
		retry.Attempts(p.Attempts),
		retry.Delay(p.BaseDelay),
		retry.LastErrorOnly(true),
		// DelayType receives the 1-based index of the attempt that just
		// failed; OnRetry receives it zero-based.
		retry.DelayType(func(n uint, err error, _ *retry.Config) time.Duration {
			return delayFor(n, err, p.BaseDelay)
		}),
		retry.OnRetry(func(n uint, err error) {
			p.Logger.Warn("retrying upstream call",
				"attempt", n+1,
				"max_attempts", p.Attempts,
				"wait", delayFor(n+1, err, p.BaseDelay),
				"error", err)
		}),
	)
}

// delayFor computes the wait after failed attempt n (1-based). Rate limited
// failures back off as base * 2^n, so the wait after the first 429 is twice
// the base.
func delayFor(n uint, err error, base time.Duration) time.Duration {
	if errors.Is(err, profile.ErrRateLimited) {
		return base << n
	}
	return base
}
