// Package retry provides automatic retry of transient database failures
// with exponential backoff. It is used by the connection layer only: batch
// application never retries, because a failed batch aborts the run.
package retry

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// ErrorClassifier decides whether an error is worth retrying.
type ErrorClassifier interface {
	// IsTransient returns true when the error is temporary and the
	// operation may succeed on a subsequent attempt.
	IsTransient(err error) bool
}

// BackoffStrategy computes the delay before each retry attempt.
type BackoffStrategy interface {
	// NextDelay returns the delay before retry number attempt (0-based).
	NextDelay(attempt int) time.Duration

	// MaxAttempts returns the maximum number of retries (-1 = unlimited).
	MaxAttempts() int
}

// ExponentialBackoff implements exponential backoff with jitter.
type ExponentialBackoff struct {
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	maxAttempts  int
	jitter       float64        // +/- fraction of randomness, typically 0.1
	jitterFunc   func() float64 // random values [0, 1); defaults to rand.Float64
}

// BackoffOption is a functional option for configuring ExponentialBackoff.
type BackoffOption func(*ExponentialBackoff)

// WithInitialDelay sets the delay before the first retry attempt.
func WithInitialDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.initialDelay = d }
}

// WithMaxDelay sets the maximum delay between retry attempts.
func WithMaxDelay(d time.Duration) BackoffOption {
	return func(b *ExponentialBackoff) { b.maxDelay = d }
}

// WithJitterFunc sets a custom function for generating random jitter values.
// Tests use this to make delays deterministic.
func WithJitterFunc(f func() float64) BackoffOption {
	return func(b *ExponentialBackoff) { b.jitterFunc = f }
}

// NewExponentialBackoff creates an exponential backoff strategy with
// sensible defaults, configurable via functional options.
func NewExponentialBackoff(maxAttempts int, opts ...BackoffOption) *ExponentialBackoff {
	b := &ExponentialBackoff{
		initialDelay: 100 * time.Millisecond,
		maxDelay:     30 * time.Second,
		multiplier:   2.0,
		maxAttempts:  maxAttempts,
		jitter:       0.1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// NextDelay calculates the delay for the given attempt.
func (b *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	delayMs := float64(b.initialDelay.Milliseconds()) * math.Pow(b.multiplier, float64(attempt))

	if delayMs > float64(b.maxDelay.Milliseconds()) {
		delayMs = float64(b.maxDelay.Milliseconds())
	}

	if b.jitter > 0 {
		jitterFunc := b.jitterFunc
		if jitterFunc == nil {
			jitterFunc = rand.Float64
		}
		// Map [0,1) to [-1,1) and scale by the jitter fraction.
		randomOffset := (jitterFunc() - 0.5) * 2.0
		delayMs *= 1.0 + b.jitter*randomOffset
	}

	return time.Duration(delayMs) * time.Millisecond
}

// MaxAttempts returns the maximum number of retry attempts.
func (b *ExponentialBackoff) MaxAttempts() int {
	return b.maxAttempts
}

// Executor orchestrates retry attempts with backoff and error classification.
// Safe for concurrent use.
type Executor struct {
	classifier ErrorClassifier
	strategy   BackoffStrategy
}

// NewExecutor creates a new retry executor.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier ErrorClassifier, strategy BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{classifier: classifier, strategy: strategy}
}

// Execute runs the operation, retrying transient failures until the strategy
// is exhausted. Returns the result of the last attempt.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	lastErr := operation(ctx)
	if lastErr == nil {
		return nil
	}
	if !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		timer := time.NewTimer(e.strategy.NextDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		lastErr = operation(ctx)
		if lastErr == nil {
			return nil
		}
		if !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
