package retry

import (
	"context"
	"time"

	"github.com/vvka-141/fsedit/pkg/fsedit"
)

// Executor retries an operation while its error is classified transient.
//
// Safe for concurrent use. WithOnRetry returns a configured copy and leaves
// the receiver unchanged.
type Executor struct {
	classifier fsedit.ErrorClassifier
	strategy   fsedit.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
}

// NewExecutor creates a retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier fsedit.ErrorClassifier, strategy fsedit.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
	}
}

// WithOnRetry returns a copy of e that calls callback before every wait.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// WithLogger returns a copy of e that reports retries at verbose level.
func (e *Executor) WithLogger(logger fsedit.Logger, what string) *Executor {
	return e.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("%s failed (retry %d in %s): %v", what, attempt+1, delay, err)
	})
}

// Execute runs operation, retrying transient failures with backoff.
// It returns nil on success, the first fatal error, the last transient error
// once retries are exhausted, or ctx.Err() if ctx ends while waiting.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	err := operation(ctx)
	if err == nil || !e.classifier.IsTransient(err) {
		return err
	}

	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		err = operation(ctx)
		if err == nil || !e.classifier.IsTransient(err) {
			return err
		}
	}
	return err
}

// Do is Execute for operations that produce a value.
func Do[T any](ctx context.Context, e *Executor, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := e.Execute(ctx, func(ctx context.Context) error {
		v, err := operation(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
