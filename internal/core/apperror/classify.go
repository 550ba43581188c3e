package apperror

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind is the closed classification taxonomy. Every error in the system maps
// to exactly one Kind; anything unrecognized falls through to KindUnknown,
// which is never retried.
type Kind string

const (
	// KindConflict: optimistic-lock version mismatch. The caller must
	// re-fetch and re-apply; retrying the same write cannot succeed.
	KindConflict Kind = "conflict"

	// KindConnectivity: connection refused/reset to the external source or
	// the database. Transient, retryable.
	KindConnectivity Kind = "connectivity"

	// KindTimeout: the operation exceeded its deadline. Transient, retryable.
	KindTimeout Kind = "timeout"

	// KindValidation: the payload violates a business or integrity
	// constraint. Retrying an unchanged payload cannot succeed.
	KindValidation Kind = "validation"

	// KindAuditWriteFailed: the activity-log append failed. Always surfaced,
	// never retried silently.
	KindAuditWriteFailed Kind = "audit_write_failed"

	// KindUnknown: unrecognized failure. Fail safe: not retryable.
	KindUnknown Kind = "unknown"
)

// Classified is the result of mapping a raw error into the taxonomy.
type Classified struct {
	Kind      Kind
	Retryable bool
	Message   string
}

// Classify maps any error into the closed taxonomy. It is a pure function:
// no I/O, no side effects, total over its input. nil maps to KindUnknown
// with an empty message (callers should not classify nil).
func Classify(err error) Classified {
	if err == nil {
		return Classified{Kind: KindUnknown}
	}

	// Structured platform errors first: the code already states intent.
	if appErr, ok := AsAppError(err); ok {
		return classifyCode(appErr)
	}

	// Context deadline before generic net checks: DeadlineExceeded also
	// satisfies net.Error.
	if errors.Is(err, context.DeadlineExceeded) {
		return Classified{Kind: KindTimeout, Retryable: true, Message: "operation exceeded deadline"}
	}
	if errors.Is(err, context.Canceled) {
		return Classified{Kind: KindUnknown, Retryable: false, Message: "operation canceled"}
	}

	// PostgreSQL errors by SQLSTATE class.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPg(pgErr)
	}

	// Network-level faults.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Classified{Kind: KindTimeout, Retryable: true, Message: "network timeout"}
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return Classified{Kind: KindConnectivity, Retryable: true, Message: "connection failed"}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return Classified{Kind: KindConnectivity, Retryable: true, Message: "network error: " + opErr.Op}
	}

	return Classified{Kind: KindUnknown, Retryable: false, Message: "unrecognized failure"}
}

// classifyCode maps AppError codes onto kinds. Codes not listed here (auth,
// internal) deliberately land in KindUnknown so they are never retried.
func classifyCode(appErr *AppError) Classified {
	c := Classified{Message: appErr.Message}
	switch appErr.Code {
	case CodeConcurrentModification, CodeConflict:
		c.Kind = KindConflict
	case CodeConnectivity:
		c.Kind = KindConnectivity
		c.Retryable = true
	case CodeTimeout:
		c.Kind = KindTimeout
		c.Retryable = true
	case CodeValidation, CodeInvalidInput, CodeBusinessRule, CodeStatusTransition, CodeNotFound, CodeDuplicate:
		// CodeDuplicate sits with the integrity violations: the same fault
		// caught by the unique index (SQLSTATE 23505) is a validation kind,
		// and the kind must not depend on which layer catches it.
		c.Kind = KindValidation
	case CodeAuditWriteFailed:
		c.Kind = KindAuditWriteFailed
	default:
		c.Kind = KindUnknown
	}
	return c
}

func classifyPg(pgErr *pgconn.PgError) Classified {
	// SQLSTATE class is the first two characters.
	class := ""
	if len(pgErr.Code) >= 2 {
		class = pgErr.Code[:2]
	}
	switch {
	case pgErr.Code == "57014": // query_canceled (statement_timeout)
		return Classified{Kind: KindTimeout, Retryable: true, Message: "statement timed out"}
	case class == "08": // connection exception
		return Classified{Kind: KindConnectivity, Retryable: true, Message: "database connection failed"}
	case class == "53": // insufficient resources (too many connections, disk full)
		return Classified{Kind: KindConnectivity, Retryable: true, Message: "database resources exhausted"}
	case class == "22" || class == "23": // data exception, integrity constraint violation
		return Classified{Kind: KindValidation, Retryable: false, Message: constraintMessage(pgErr)}
	default:
		return Classified{Kind: KindUnknown, Retryable: false, Message: "database error"}
	}
}

func constraintMessage(pgErr *pgconn.PgError) string {
	if pgErr.ConstraintName != "" {
		return "constraint violated: " + pgErr.ConstraintName
	}
	return strings.TrimSpace(pgErr.Message)
}
