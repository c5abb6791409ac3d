package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	t.Parallel()
	p := Default()

	if p.MaxAttempts != 3 {
		t.Errorf("expected MaxAttempts 3, got %d", p.MaxAttempts)
	}
	if p.InitialDelay != 1*time.Second {
		t.Errorf("expected InitialDelay 1s, got %v", p.InitialDelay)
	}
	if p.BackoffStrategy != BackoffExponential {
		t.Errorf("expected BackoffExponential, got %v", p.BackoffStrategy)
	}
}

func TestNone(t *testing.T) {
	t.Parallel()
	p := None()
	if p.MaxAttempts != 1 {
		t.Errorf("expected MaxAttempts 1, got %d", p.MaxAttempts)
	}
}

func TestPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name            string
		retryableErrors []string
		err             error
		expected        bool
	}{
		{"nil error", []string{}, nil, false},
		{"empty retryable list - all errors retryable", []string{}, errors.New("any error"), true},
		{"matching error", []string{"timeout", "connection"}, errors.New("connection refused"), true},
		{"non-matching error", []string{"timeout", "connection"}, errors.New("invalid input"), false},
		{"exact match", []string{"timeout"}, errors.New("timeout"), true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := &Policy{RetryableErrors: tt.retryableErrors}
			if got := p.ShouldRetry(tt.err); got != tt.expected {
				t.Errorf("ShouldRetry() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPolicy_Delay(t *testing.T) {
	t.Parallel()
	p := &Policy{InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffStrategy: BackoffExponential}

	cases := map[int]time.Duration{
		0: 0,
		1: 1 * time.Second,
		2: 2 * time.Second,
		3: 4 * time.Second,
		5: 10 * time.Second, // capped
	}
	for attempt, want := range cases {
		if got := p.Delay(attempt); got != want {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestPolicy_Execute_SucceedsAfterRetries(t *testing.T) {
	t.Parallel()
	p := &Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffStrategy: BackoffConstant}

	attempts := 0
	err := p.Execute(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestPolicy_Execute_ExhaustsAttempts(t *testing.T) {
	t.Parallel()
	p := &Policy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, BackoffStrategy: BackoffConstant}

	attempts := 0
	err := p.Execute(context.Background(), func() error {
		attempts++
		return errors.New("always fails")
	})

	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestPolicy_Execute_ContextCancelled(t *testing.T) {
	t.Parallel()
	p := &Policy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Execute(ctx, func() error { return errors.New("fails") })
	if err == nil {
		t.Fatal("expected error")
	}
}
