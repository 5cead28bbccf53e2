package processor

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/DanielPopoola/church-donations/internal/application"
	"github.com/DanielPopoola/church-donations/internal/config"
)

// RetryProcessor retries transient processor failures with exponential
// backoff. Intent creation is safe to repeat because it carries an
// idempotency key.
type RetryProcessor struct {
	inner      application.PaymentProcessor
	baseDelay  time.Duration
	maxRetries int
}

func NewRetryProcessor(inner application.PaymentProcessor, cfg config.RetryConfig) *RetryProcessor {
	maxRetries := int(cfg.MaxRetries)
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &RetryProcessor{
		inner:      inner,
		baseDelay:  time.Duration(cfg.BaseDelay) * time.Second,
		maxRetries: maxRetries,
	}
}

func (r *RetryProcessor) CreateIntent(ctx context.Context, req application.IntentRequest) (*application.Intent, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.Intent, error) {
		return r.inner.CreateIntent(ctx, req)
	})
}

func (r *RetryProcessor) GetIntent(ctx context.Context, intentID string) (*application.Intent, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.Intent, error) {
		return r.inner.GetIntent(ctx, intentID)
	})
}

func (r *RetryProcessor) CancelIntent(ctx context.Context, intentID string) (*application.Intent, error) {
	return retry(r, ctx, func(ctx context.Context) (*application.Intent, error) {
		return r.inner.CancelIntent(ctx, intentID)
	})
}

func retry[T any](r *RetryProcessor, ctx context.Context, operation func(ctx context.Context) (*T, error)) (*T, error) {
	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := operation(ctx)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if !isRetryable(err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			if err := sleep(ctx, r.backoff(attempt)); err != nil {
				return nil, err
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if procErr, ok := IsProcessorError(err); ok {
		return procErr.IsRetryable()
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// backoff doubles the base delay each attempt and adds up to half of it again as jitter.
func (r *RetryProcessor) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)
	if base <= 0 {
		return 0
	}
	return base + rand.N(base/2+1)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
