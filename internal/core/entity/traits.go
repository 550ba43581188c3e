package entity

import (
	"encoding/json"
	"time"
)

// Synced is implemented by records mirrored from RADAR. The RadarSynced
// trait provides it.
type Synced interface {
	Versioned
	ExternalID() string
	MarkSynced(externalID string, payload json.RawMessage, at time.Time)
}

// RadarSynced is a trait for records mirrored from the RADAR system of
// record. RadarID is the stable external identifier used as the upsert key
// during reconciliation; it is unique when present and nil for records
// created locally that RADAR has never seen.
type RadarSynced struct {
	RadarID       *string         `db:"radar_id" json:"radarId,omitempty"`
	LastRadarSync *time.Time      `db:"last_radar_sync" json:"lastRadarSync,omitempty"`
	RadarData     json.RawMessage `db:"radar_data" json:"-"`
}

// ExternalID returns the RADAR identifier or empty string.
func (r *RadarSynced) ExternalID() string {
	if r.RadarID == nil {
		return ""
	}
	return *r.RadarID
}

// MarkSynced records the sync timestamp and the raw upstream payload.
func (r *RadarSynced) MarkSynced(externalID string, payload json.RawMessage, at time.Time) {
	r.RadarID = &externalID
	r.RadarData = payload
	r.LastRadarSync = &at
}

// AssignmentStatus tracks who is working a record.
type AssignmentStatus string

const (
	AssignmentUnassigned AssignmentStatus = "UNASSIGNED"
	AssignmentAssigned   AssignmentStatus = "ASSIGNED"
	AssignmentCompleted  AssignmentStatus = "COMPLETED"
)

// Assignable is a trait for records routed to an analyst. These fields are
// locally owned: the RADAR sync never touches them.
type Assignable struct {
	AssignmentStatus AssignmentStatus `db:"assignment_status" json:"assignmentStatus"`
	AssignedAnalyst  *string          `db:"assigned_analyst" json:"assignedAnalyst,omitempty"`
	AssignedAt       *time.Time       `db:"assigned_at" json:"assignedAt,omitempty"`
}

// Assign routes the record to an analyst.
func (a *Assignable) Assign(analyst string, at time.Time) {
	a.AssignmentStatus = AssignmentAssigned
	a.AssignedAnalyst = &analyst
	a.AssignedAt = &at
}

// IsAssigned reports whether an analyst currently owns the record.
func (a *Assignable) IsAssigned() bool {
	return a.AssignmentStatus == AssignmentAssigned && a.AssignedAnalyst != nil
}
