package provider

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryPolicy bounds how a Retrying provider backs off.
type RetryPolicy struct {
	MaxRetries int // attempts after the first
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

// DefaultRetryPolicy retries twice, starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxRetries: 2, BaseDelay: time.Second, MaxDelay: time.Minute, Jitter: true}
}

// Delay is the wait before retry number attempt (0-based): BaseDelay doubled
// per attempt, capped at MaxDelay, then scaled by [0.5, 1.5) with Jitter.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	d := p.BaseDelay
	for range attempt {
		if d >= p.MaxDelay {
			break
		}
		d *= 2
	}
	d = min(d, p.MaxDelay)
	if p.Jitter {
		d = time.Duration(float64(d) * (0.5 + rand.Float64()))
	}
	return d
}

// Retrying re-sends a request when the wrapped provider fails with a
// retryable ProviderError. A server-supplied RetryAfter replaces the
// backoff; one longer than MaxDelay fails immediately.
type Retrying struct {
	next   Provider
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next Provider, policy RetryPolicy) *Retrying {
	if next == nil {
		panic("provider is required")
	}
	return &Retrying{next: next, policy: policy, sleep: sleepCtx}
}

func (r *Retrying) Generate(ctx context.Context, req *Request) (*Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := r.next.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		if werr := r.wait(ctx, err, attempt); werr != nil {
			return nil, werr
		}
	}
}

// Stream retries only failures that happen before the first delta, since
// a consumer cannot take back output it has already seen.
func (r *Retrying) Stream(ctx context.Context, req *Request) iter.Seq2[Delta, error] {
	return func(yield func(Delta, error) bool) {
		for attempt := 0; ; attempt++ {
			started := false
			var failure error
			for d, err := range r.next.Stream(ctx, req) {
				if err != nil {
					failure = err
					break
				}
				started = true
				if !yield(d, nil) {
					return
				}
			}
			if failure == nil {
				return
			}
			if started {
				yield(Delta{}, failure)
				return
			}
			if werr := r.wait(ctx, failure, attempt); werr != nil {
				yield(Delta{}, werr)
				return
			}
		}
	}
}

// wait returns nil once it is time to try again, or the error to give up with.
func (r *Retrying) wait(ctx context.Context, err error, attempt int) error {
	if attempt >= r.policy.MaxRetries || !IsRetryable(err) {
		return err
	}
	delay := r.policy.Delay(attempt)
	if after := retryAfter(err); after != nil {
		if *after > r.policy.MaxDelay {
			return err
		}
		delay = *after
	}
	slog.Warn("retrying provider request", "attempt", attempt+1, "delay", delay, "error", err)
	if serr := r.sleep(ctx, delay); serr != nil {
		return serr
	}
	return nil
}

func retryAfter(err error) *time.Duration {
	var pErr *ProviderError
	if errors.As(err, &pErr) {
		return pErr.RetryAfter
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
