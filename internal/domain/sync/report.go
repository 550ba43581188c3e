package sync

import (
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
)

// Failure describes one record the cycle could not apply.
type Failure struct {
	ExternalID string        `json:"externalId"`
	Kind       apperror.Kind `json:"kind"`
	Message    string        `json:"message"`
}

// SourceReport is the outcome of one cycle against one source.
type SourceReport struct {
	Source    string    `json:"source"`
	StartedAt time.Time `json:"startedAt"`
	Duration  time.Duration `json:"duration"`

	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	Failures []Failure `json:"failures,omitempty"`

	// CursorAdvanced is false when the first record already failed, so the
	// cursor stayed put and the batch will be re-pulled next cycle.
	CursorAdvanced bool   `json:"cursorAdvanced"`
	NewCursor      string `json:"newCursor,omitempty"`
	HasMore        bool   `json:"hasMore"`
}

// Report combines the per-source outcomes of one full run.
type Report struct {
	Voyages *SourceReport `json:"voyages,omitempty"`
	Claims  *SourceReport `json:"claims,omitempty"`
}

// Failed reports whether any source saw a record failure.
func (r *Report) Failed() bool {
	return (r.Voyages != nil && r.Voyages.Failed > 0) ||
		(r.Claims != nil && r.Claims.Failed > 0)
}
