package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"ytsheets/internal/apierror"
)

func TestDo_Success(t *testing.T) {
	attempts := 0
	cfg := Config{MaxRetries: 3, Delay: 10 * time.Millisecond}

	err := Do(context.Background(), cfg, nil, nil, func(ctx context.Context) error {
		attempts++
		return nil
	})

	if err != nil {
		t.Errorf("Do() returned error = %v, want nil", err)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestDo_PermanentError(t *testing.T) {
	attempts := 0
	notified := 0
	permanentErr := errors.New("permanent")
	cfg := Config{MaxRetries: 3, Delay: 10 * time.Millisecond}

	classifier := func(err error) bool {
		return !errors.Is(err, permanentErr)
	}

	err := Do(context.Background(), cfg, classifier, func(int, time.Duration, error) { notified++ }, func(ctx context.Context) error {
		attempts++
		return permanentErr
	})

	if !errors.Is(err, permanentErr) {
		t.Errorf("Do() returned error = %v, want %v", err, permanentErr)
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
	if notified != 0 {
		t.Errorf("notify called %d times, want 0", notified)
	}
}

func TestDo_AuthErrorNotRetried(t *testing.T) {
	attempts := 0
	cfg := Config{MaxRetries: 3, Delay: time.Hour}

	start := time.Now()
	err := Do(context.Background(), cfg, nil, nil, func(ctx context.Context) error {
		attempts++
		return apierror.Classify("YouTube", "fetching playlist videos", errors.New("invalid_grant"))
	})

	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
	if !apierror.IsAuth(err) {
		t.Errorf("Do() error = %v, want auth error", err)
	}
	var re *RetryableError
	if errors.As(err, &re) {
		t.Error("auth failure should not be reported as exhausted retries")
	}
	if time.Since(start) > time.Second {
		t.Error("Do() waited before returning a permanent error")
	}
}

func TestDo_RetryableError(t *testing.T) {
	attempts := 0
	var waits []time.Duration
	var remaining []int
	cfg := Config{MaxRetries: 3, Delay: 5 * time.Millisecond}

	err := Do(context.Background(), cfg, IsRetryable, func(left int, wait time.Duration, err error) {
		remaining = append(remaining, left)
		waits = append(waits, wait)
	}, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary")
		}
		return nil
	})

	if err != nil {
		t.Errorf("Do() returned error = %v, want nil", err)
	}
	if attempts != 3 {
		t.Errorf("Do() made %d attempts, want 3", attempts)
	}
	if len(waits) != 2 {
		t.Fatalf("waited %d times, want 2", len(waits))
	}
	for _, w := range waits {
		if w != cfg.Delay {
			t.Errorf("wait = %v, want fixed %v", w, cfg.Delay)
		}
	}
	if remaining[0] != 3 || remaining[1] != 2 {
		t.Errorf("remaining budget = %v, want [3 2]", remaining)
	}
}

func TestDo_MaxRetriesExceeded(t *testing.T) {
	attempts := 0
	tempErr := errors.New("temporary")
	maxRetries := 3
	cfg := Config{MaxRetries: maxRetries, Delay: 5 * time.Millisecond}

	err := Do(context.Background(), cfg, IsRetryable, nil, func(ctx context.Context) error {
		attempts++
		return tempErr
	})

	if err == nil {
		t.Fatal("Do() returned nil error, want error")
	}
	if attempts != maxRetries+1 {
		t.Errorf("Do() made %d attempts, want %d", attempts, maxRetries+1)
	}
	var re *RetryableError
	if !errors.As(err, &re) {
		t.Fatalf("Do() error = %T, want *RetryableError", err)
	}
	if re.Retries != maxRetries {
		t.Errorf("Retries = %d, want %d", re.Retries, maxRetries)
	}
	if !errors.Is(err, tempErr) {
		t.Errorf("Do() error does not wrap the last failure")
	}
}

func TestDo_ContextCanceled(t *testing.T) {
	attempts := 0
	cfg := Config{MaxRetries: 5, Delay: 100 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())

	err := Do(ctx, cfg, IsRetryable, nil, func(ctx context.Context) error {
		attempts++
		if attempts > 1 {
			cancel()
		}
		return errors.New("temporary")
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() returned error = %v, want context.Canceled", err)
	}
	if attempts != 2 {
		t.Errorf("Do() made %d attempts, want 2", attempts)
	}
}

func TestDo_ZeroRetries(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{}, nil, nil, func(ctx context.Context) error {
		attempts++
		return errors.New("temporary")
	})

	if err == nil {
		t.Fatal("Do() returned nil error, want error")
	}
	if attempts != 1 {
		t.Errorf("Do() made %d attempts, want 1", attempts)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"context canceled", context.Canceled, false},
		{"context deadline exceeded", context.DeadlineExceeded, false},
		{"auth error", apierror.Classify("Google Sheets", "writing video rows", errors.New("401 Unauthorized")), false},
		{"transient api error", apierror.Classify("YouTube", "fetching video durations", errors.New("backendError")), true},
		{"generic error", errors.New("generic"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxRetries != 3 {
		t.Errorf("DefaultConfig().MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.Delay != 5*time.Second {
		t.Errorf("DefaultConfig().Delay = %v, want 5s", cfg.Delay)
	}
}
