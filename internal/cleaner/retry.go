package cleaner

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"transcript-cleaner-go/internal/logger"
	"transcript-cleaner-go/internal/types"
)

type RetryPolicy struct {
	MaxRetries      int
	MaxElapsedTime  time.Duration
	InitialInterval time.Duration
}

type retrying struct {
	next   Invoker
	policy RetryPolicy
	log    *logger.Logger
}

// WithRetry retries failed cleaning calls with exponential backoff. Errors
// wrapped with backoff.Permanent are returned at once. Only the successful
// attempt's result, and so its cost, is reported.
func WithRetry(next Invoker, policy RetryPolicy, log *logger.Logger) Invoker {
	return &retrying{next: next, policy: policy, log: log.With("component", "cleaner-retry")}
}

func (r *retrying) Clean(ctx context.Context, chunkText, speakerInfo, carryOver string) (types.CleaningResult, error) {
	var (
		res     types.CleaningResult
		attempt int
	)
	op := func() error {
		attempt++
		out, err := r.next.Clean(ctx, chunkText, speakerInfo, carryOver)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			r.log.WithError(err).WithField("attempt", attempt).Warn("cleaning call failed")
			return err
		}
		res = out
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = r.policy.MaxElapsedTime
	if r.policy.InitialInterval > 0 {
		b.InitialInterval = r.policy.InitialInterval
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.policy.MaxRetries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return types.CleaningResult{}, fmt.Errorf("cleaning failed after %d attempt(s): %w", attempt, err)
	}
	return res, nil
}
