package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Class tags an operation failure for the executor.
type Class string

const (
	ClassTerminal  Class = "terminal"
	ClassTransient Class = "transient"
)

// ErrRetriesExhausted matches every *ExhaustedError.
var ErrRetriesExhausted = errors.New("retries exhausted")

type classifiedError struct {
	err   error
	class Class
}

func (e *classifiedError) Error() string {
	return e.err.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.err
}

// Transient marks err as worth another attempt.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, class: ClassTransient}
}

// Terminal marks err as final; Do returns it without retrying.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &classifiedError{err: err, class: ClassTerminal}
}

// Classify reports how Do treats err. Cancellation is always terminal,
// explicit marks are honoured, anything else is transient.
func Classify(err error) Class {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ClassTerminal
	}
	var marked *classifiedError
	if errors.As(err, &marked) {
		return marked.class
	}
	return ClassTransient
}

// IsTransient is shorthand for Classify(err) == ClassTransient.
func IsTransient(err error) bool {
	return err != nil && Classify(err) == ClassTransient
}

// ExhaustedError is returned once every attempt failed transiently.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s after %d attempts: %v", ErrRetriesExhausted, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrRetriesExhausted
}

// Policy is a bounded retry with a constant delay between attempts.
type Policy struct {
	// MaxAttempts counts the first call. Values below 1 are treated as 1.
	MaxAttempts int
	Delay       time.Duration
}

// Do calls fn until it succeeds, returns a terminal error, or MaxAttempts
// transient failures have been seen. attempt is 1-based.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		val, err := fn(ctx, attempt)
		if err == nil {
			return val, nil
		}
		if Classify(err) == ClassTerminal {
			return zero, err
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}
		if err := sleep(ctx, p.Delay); err != nil {
			return zero, err
		}
	}

	return zero, &ExhaustedError{Attempts: maxAttempts, Err: lastErr}
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
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
