package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// RetryableFunc represents a function that can be retried
type RetryableFunc func(ctx context.Context) error

// Config holds retry configuration
type Config struct {
	MaxRetries int           // attempts after the first one
	BaseDelay  time.Duration // delay before the first retry
	MaxDelay   time.Duration // upper bound for any single delay
	Multiplier float64       // 1 gives a fixed delay
}

// Fixed returns a configuration that waits the same delay between attempts.
func Fixed(delay time.Duration, maxRetries int) Config {
	return Config{
		MaxRetries: maxRetries,
		BaseDelay:  delay,
		MaxDelay:   delay,
		Multiplier: 1,
	}
}

// Retrier handles retry logic
type Retrier struct {
	config Config
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(config Config, l *zap.Logger) *Retrier {
	if l == nil {
		l = zap.NewNop()
	}
	return &Retrier{config: config, logger: l, sleep: sleepContext}
}

// Execute runs fn until it succeeds, the retries are exhausted or ctx is done.
func (r *Retrier) Execute(ctx context.Context, operation string, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("operation succeeded after retries",
					zap.String("operation", operation),
					zap.Int("attempt", attempt+1))
			}
			return nil
		}
		lastErr = err

		if attempt == r.config.MaxRetries {
			break
		}

		delay := r.delay(attempt)
		r.logger.Warn("operation failed, retrying",
			zap.String("operation", operation),
			zap.Error(err),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay))

		if err := r.sleep(ctx, delay); err != nil {
			return err
		}
	}

	r.logger.Error("operation failed after all retries",
		zap.String("operation", operation),
		zap.Error(lastErr),
		zap.Int("total_attempts", r.config.MaxRetries+1))

	return fmt.Errorf("%s: retry limit exceeded after %d attempts: %w", operation, r.config.MaxRetries+1, lastErr)
}

func (r *Retrier) delay(attempt int) time.Duration {
	multiplier := r.config.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := float64(r.config.BaseDelay) * math.Pow(multiplier, float64(attempt))
	if r.config.MaxDelay > 0 && delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	return time.Duration(delay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
