package grok

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/HerbHall/gigagrok/internal/metrics"
	"github.com/HerbHall/gigagrok/pkg/llm"
	"go.uber.org/zap"
)

// Retry settings, matching the upstream contract: three attempts, a fixed
// backoff schedule for transient failures, and a separate cooldown for
// rate-limit responses. A rate-limited attempt consumes an attempt slot
// but not a backoff slot.
const (
	maxAttempts     = 3
	rateLimitPause  = 5 * time.Second
	defaultLastWrap = "api request failed after %d attempts: %w"
)

var backoffSchedule = [...]time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

// retryPolicy wraps an attempt function with bounded retries. The sleep
// hook exists so tests can observe pauses without waiting them out.
type retryPolicy struct {
	sleep  func(ctx context.Context, d time.Duration) error
	logger *zap.Logger
}

func newRetryPolicy(logger *zap.Logger) retryPolicy {
	return retryPolicy{sleep: sleepCtx, logger: logger}
}

// do runs fn up to maxAttempts times. Classification decides the path:
// fatal errors and aborts propagate immediately; rate-limited failures
// pause for the cooldown; transient failures consume the next backoff
// slot. The permit-holding network call lives inside fn, so no permit is
// held while sleeping.
func (p retryPolicy) do(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	backoffIdx := 0

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		var abort *abortError
		if errors.As(err, &abort) {
			return abort.err
		}

		lastErr = err
		last := attempt == maxAttempts-1

		switch llm.Classify(err) {
		case llm.ClassFatal:
			return err

		case llm.ClassRateLimited:
			if last {
				break
			}
			metrics.RetriesTotal.WithLabelValues("rate_limited").Inc()
			p.logger.Warn("rate limited, cooling down",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Duration("pause", rateLimitPause),
			)
			if sErr := p.sleep(ctx, rateLimitPause); sErr != nil {
				return sErr
			}

		case llm.ClassTransient:
			if last {
				break
			}
			delay := backoffSchedule[backoffIdx]
			backoffIdx++
			metrics.RetriesTotal.WithLabelValues("transient").Inc()
			p.logger.Warn("transient failure, backing off",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
			if sErr := p.sleep(ctx, delay); sErr != nil {
				return sErr
			}
		}
	}

	p.logger.Error("retries exhausted", zap.String("op", op), zap.Error(lastErr))
	return fmt.Errorf(defaultLastWrap, maxAttempts, lastErr)
}

// sleepCtx pauses for d or until ctx is done, whichever comes first.
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
