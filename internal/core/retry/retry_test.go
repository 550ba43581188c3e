package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
)

// fastPolicy keeps test sleeps negligible.
func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
	}
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "ok" || calls != 1 {
		t.Errorf("result=%q calls=%d, want ok/1", result, calls)
	}
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), fastPolicy(5), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, apperror.NewConnectivity("radar unreachable", nil)
		}
		return 42, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != 42 || calls != 3 {
		t.Errorf("result=%d calls=%d, want 42/3", result, calls)
	}
}

func TestDo_ExhaustsRetryableFailure(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, apperror.NewTimeout("fetch timed out", nil)
	})
	if calls != 3 {
		t.Errorf("calls = %d, want exactly 3", calls)
	}
	if !IsExhausted(err) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *retry.Error, got %T", err)
	}
	if re.Attempts != 3 || re.Kind != apperror.KindTimeout {
		t.Errorf("Attempts=%d Kind=%s, want 3/timeout", re.Attempts, re.Kind)
	}
}

func TestDo_NonRetryableShortCircuits(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, apperror.NewValidation("malformed payload")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want exactly 1", calls)
	}
	if IsExhausted(err) {
		t.Error("non-retryable failure must not report exhaustion")
	}
	var re *Error
	if !errors.As(err, &re) {
		t.Fatalf("expected *retry.Error, got %T", err)
	}
	if re.Kind != apperror.KindValidation {
		t.Errorf("Kind = %s, want validation", re.Kind)
	}
}

func TestDo_UnknownErrorNotRetried(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), fastPolicy(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("something nobody anticipated")
	})
	if calls != 1 {
		t.Errorf("unknown errors must fail safe without retry, got %d calls", calls)
	}
	var re *Error
	if !errors.As(err, &re) || re.Kind != apperror.KindUnknown {
		t.Errorf("expected unknown kind, got %v", err)
	}
}

func TestDo_CanceledDuringSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{MaxAttempts: 5, BaseDelay: 10 * time.Second}

	calls := 0
	done := make(chan error, 1)
	go func() {
		_, err := Do(ctx, policy, func(ctx context.Context) (int, error) {
			calls++
			return 0, apperror.NewConnectivity("down", nil)
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !IsCanceled(err) {
			t.Fatalf("expected canceled error, got %v", err)
		}
		if IsExhausted(err) {
			t.Error("cancellation must be distinct from exhaustion")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1 (canceled during first sleep)", calls)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Do did not abort promptly after cancellation")
	}
}

func TestDo_CanceledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, fastPolicy(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, nil
	})
	if calls != 0 {
		t.Errorf("op must not run on a dead context, got %d calls", calls)
	}
	if !IsCanceled(err) {
		t.Fatalf("expected canceled error, got %v", err)
	}
}

func TestPolicy_DelayBackoffAndCap(t *testing.T) {
	p := Policy{
		MaxAttempts:        10,
		BaseDelay:          time.Second,
		ExponentialBackoff: true,
		MaxDelay:           5 * time.Second,
	}
	wants := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, want := range wants {
		if got := p.delay(i + 1); got != want {
			t.Errorf("delay(%d) = %v, want %v", i+1, got, want)
		}
	}
}

func TestPolicy_DelayFixedWithoutBackoff(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: 5 * time.Second}
	for attempt := 1; attempt <= 3; attempt++ {
		if got := p.delay(attempt); got != 5*time.Second {
			t.Errorf("delay(%d) = %v, want 5s", attempt, got)
		}
	}
}

func TestPolicy_JitterBounded(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: time.Second, Jitter: true}
	for i := 0; i < 100; i++ {
		d := p.delay(1)
		if d < 500*time.Millisecond || d > time.Second {
			t.Fatalf("jittered delay %v outside [base/2, base]", d)
		}
	}
}

func TestDo_MaxAttemptsBelowOneTreatedAsOne(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 0}, func(ctx context.Context) (int, error) {
		calls++
		return 0, apperror.NewConnectivity("down", nil)
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}
