package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		BackoffType: Fixed,
	}
}

func TestRetry_Success(t *testing.T) {
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, testConfig(), func() error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Retry() error = %v, want nil", err)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_EventualSuccess(t *testing.T) {
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, testConfig(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Retry() error = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_MaxAttempts(t *testing.T) {
	ctx := context.Background()
	attempts := 0

	err := Retry(ctx, testConfig(), func() error {
		attempts++
		return errors.New("persistent error")
	})

	if err == nil {
		t.Error("Retry() expected error")
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
}

func TestRetry_NonRetryable(t *testing.T) {
	ctx := context.Background()
	fatal := errors.New("fatal")
	config := testConfig()
	config.Retryable = func(err error) bool {
		return !errors.Is(err, fatal)
	}

	attempts := 0
	err := Retry(ctx, config, func() error {
		attempts++
		return fatal
	})

	if !errors.Is(err, fatal) {
		t.Errorf("Retry() error = %v, want %v", err, fatal)
	}
	if attempts != 1 {
		t.Errorf("attempts = %d, want 1", attempts)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	config := testConfig()
	config.MaxAttempts = 10
	config.BaseDelay = 100 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := Retry(ctx, config, func() error {
		return errors.New("error")
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Retry() error = %v, want context.DeadlineExceeded", err)
	}
}

func TestCalculateDelay_Fixed(t *testing.T) {
	config := &RetryConfig{BaseDelay: time.Second, BackoffType: Fixed}

	for attempt := 1; attempt <= 3; attempt++ {
		if d := calculateDelay(config, attempt); d != time.Second {
			t.Errorf("attempt %d: delay = %v, want 1s", attempt, d)
		}
	}
}

func TestCalculateDelay_ExponentialCapped(t *testing.T) {
	config := &RetryConfig{
		BaseDelay:   time.Second,
		MaxDelay:    3 * time.Second,
		Multiplier:  2.0,
		BackoffType: Exponential,
	}

	if d := calculateDelay(config, 1); d != time.Second {
		t.Errorf("delay = %v, want 1s", d)
	}
	if d := calculateDelay(config, 4); d != 3*time.Second {
		t.Errorf("delay = %v, want capped at 3s", d)
	}
}
