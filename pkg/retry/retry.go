// Package retry implements a bounded-attempt caller with a fixed
// inter-attempt delay and a caller-supplied acceptance predicate.
// An attempt fails when the operation returns an error or when the
// predicate rejects its result; the caller ends in an accepted result
// or ErrExhausted after exactly MaxAttempts calls.
package retry

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var ErrExhausted = errors.New("all attempts exhausted")

// Sleeper suspends between attempts. Tests inject a no-op sleeper so
// retry behavior can be verified without real delays.
type Sleeper func(ctx context.Context, d time.Duration) error

type Config struct {
	MaxAttempts int
	Delay       time.Duration
	Logger      *zap.Logger
	Sleep       Sleeper
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts: 3,
		Delay:       time.Second,
		Logger:      zap.NewNop(),
	}
}

func defaultSleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Do runs operation up to cfg.MaxAttempts times, treating a nil error
// as acceptance.
func Do(ctx context.Context, cfg Config, operation func() error) error {
	_, err := DoAccepted(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, operation()
	}, nil)
	return err
}

// DoAccepted runs operation until accept approves its result or the
// attempt budget runs out. A nil accept approves any error-free result.
func DoAccepted[T any](ctx context.Context, cfg Config, operation func() (T, error), accept func(T) bool) (T, error) {
	var zero T

	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Sleep == nil {
		cfg.Sleep = defaultSleep
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		default:
		}

		result, err := operation()
		if err == nil {
			if accept == nil || accept(result) {
				if attempt > 1 {
					cfg.Logger.Info("Operation accepted after retry",
						zap.Int("attempt", attempt),
					)
				}
				return result, nil
			}
			lastErr = nil
		} else {
			lastErr = err
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		cfg.Logger.Warn("Attempt not accepted, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.MaxAttempts),
			zap.Duration("delay", cfg.Delay),
			zap.Error(err),
		)

		if cfg.Delay > 0 {
			if err := cfg.Sleep(ctx, cfg.Delay); err != nil {
				return zero, err
			}
		}
	}

	if lastErr != nil {
		return zero, errors.Join(ErrExhausted, lastErr)
	}
	return zero, ErrExhausted
}
