package apperror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestClassify_AppErrorCodes(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  Kind
		retryable bool
	}{
		{"concurrent modification", NewConcurrentModification("voyage", "v1", 4), KindConflict, false},
		{"conflict", NewConflict("already assigned"), KindConflict, false},
		// Duplicates match the unique-index path (23505) regardless of
		// which layer caught them.
		{"duplicate", NewDuplicate("voyage", "radar_voyage_id", "RV-1"), KindValidation, false},
		{"validation", NewValidation("laytime must be positive"), KindValidation, false},
		{"business rule", NewBusinessRule(CodeBusinessRule, "cannot settle draft claim"), KindValidation, false},
		{"status transition", NewStatusTransition("claim", "SETTLED", "DRAFT"), KindValidation, false},
		{"not found", NewNotFound("voyage", "missing"), KindValidation, false},
		{"connectivity", NewConnectivity("radar unreachable", nil), KindConnectivity, true},
		{"timeout", NewTimeout("radar fetch timed out", nil), KindTimeout, true},
		{"audit write failed", NewAuditWriteFailed("voyage", "v1", errors.New("disk full")), KindAuditWriteFailed, false},
		{"internal", NewInternal(errors.New("boom")), KindUnknown, false},
		{"unauthorized", NewUnauthorized("no token"), KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
		})
	}
}

func TestClassify_WrappedAppError(t *testing.T) {
	err := fmt.Errorf("update voyage: %w", NewConcurrentModification("voyage", "v1", 7))
	got := Classify(err)
	if got.Kind != KindConflict {
		t.Errorf("Kind = %s, want %s", got.Kind, KindConflict)
	}
}

func TestClassify_ContextErrors(t *testing.T) {
	got := Classify(context.DeadlineExceeded)
	if got.Kind != KindTimeout || !got.Retryable {
		t.Errorf("DeadlineExceeded => %+v, want retryable timeout", got)
	}

	got = Classify(context.Canceled)
	if got.Kind != KindUnknown || got.Retryable {
		t.Errorf("Canceled => %+v, want non-retryable unknown", got)
	}
}

func TestClassify_PgErrors(t *testing.T) {
	tests := []struct {
		name      string
		code      string
		wantKind  Kind
		retryable bool
	}{
		{"unique violation", "23505", KindValidation, false},
		{"check violation", "23514", KindValidation, false},
		{"foreign key violation", "23503", KindValidation, false},
		{"invalid text representation", "22P02", KindValidation, false},
		{"connection failure", "08006", KindConnectivity, true},
		{"too many connections", "53300", KindConnectivity, true},
		{"query canceled", "57014", KindTimeout, true},
		{"undefined table", "42P01", KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(&pgconn.PgError{Code: tt.code, Message: tt.name})
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %s, want %s", got.Kind, tt.wantKind)
			}
			if got.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.retryable)
			}
		})
	}
}

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string   { return "i/o timeout" }
func (fakeTimeoutErr) Timeout() bool   { return true }
func (fakeTimeoutErr) Temporary() bool { return true }

func TestClassify_NetworkErrors(t *testing.T) {
	var timeoutErr net.Error = fakeTimeoutErr{}
	got := Classify(timeoutErr)
	if got.Kind != KindTimeout || !got.Retryable {
		t.Errorf("timeout net.Error => %+v", got)
	}

	got = Classify(fmt.Errorf("dial radar: %w", syscall.ECONNREFUSED))
	if got.Kind != KindConnectivity || !got.Retryable {
		t.Errorf("ECONNREFUSED => %+v", got)
	}

	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("no route to host")}
	got = Classify(opErr)
	if got.Kind != KindConnectivity || !got.Retryable {
		t.Errorf("OpError => %+v", got)
	}
}

func TestClassify_Total(t *testing.T) {
	// Anything unrecognized must land in KindUnknown, non-retryable.
	inputs := []error{
		errors.New("some random failure"),
		fmt.Errorf("wrapped: %w", errors.New("inner")),
		nil,
	}
	for _, err := range inputs {
		got := Classify(err)
		if got.Kind != KindUnknown {
			t.Errorf("Classify(%v).Kind = %s, want %s", err, got.Kind, KindUnknown)
		}
		if got.Retryable {
			t.Errorf("Classify(%v) must not be retryable", err)
		}
	}
}

func TestClassify_IsPure(t *testing.T) {
	err := NewConnectivity("radar unreachable", nil)
	first := Classify(err)
	time.Sleep(time.Millisecond)
	second := Classify(err)
	if first != second {
		t.Errorf("Classify not deterministic: %+v vs %+v", first, second)
	}
}
