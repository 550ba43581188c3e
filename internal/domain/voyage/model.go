// Package voyage provides the Voyage record: one vessel employment mirrored
// from RADAR and worked on locally by claims analysts. RADAR owns the
// commercial fields; assignment and notes are local-only and survive sync.
package voyage

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/entity"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
)

// CharterType defines the commercial employment of the vessel.
type CharterType string

const (
	CharterSpot   CharterType = "SPOT"
	CharterTraded CharterType = "TRADED"
)

// Voyage represents one vessel voyage under a charter party.
type Voyage struct {
	entity.VersionedRecord
	entity.RadarSynced
	entity.Assignable

	// RADAR-authoritative commercial fields
	VoyageNumber   string           `db:"voyage_number" json:"voyageNumber"`
	VesselName     string           `db:"vessel_name" json:"vesselName"`
	IMONumber      *string          `db:"imo_number" json:"imoNumber,omitempty"`
	CharterType    CharterType      `db:"charter_type" json:"charterType"`
	CharterParty   *string          `db:"charter_party" json:"charterParty,omitempty"`
	LoadPort       string           `db:"load_port" json:"loadPort"`
	DischargePort  string           `db:"discharge_port" json:"dischargePort"`
	LaycanStart    *time.Time       `db:"laycan_start" json:"laycanStart,omitempty"`
	LaycanEnd      *time.Time       `db:"laycan_end" json:"laycanEnd,omitempty"`
	ShipOwnerID    *id.ID           `db:"ship_owner_id" json:"shipOwnerId,omitempty"`
	DemurrageRate  decimal.Decimal  `db:"demurrage_rate" json:"demurrageRate"`
	LaytimeAllowed decimal.Decimal  `db:"laytime_allowed" json:"laytimeAllowed"`
	Currency       string           `db:"currency" json:"currency"`

	// Local-only fields, never touched by sync
	Notes *string `db:"notes" json:"notes,omitempty"`
}

// New creates a voyage at version 0.
func New(voyageNumber, vesselName string) *Voyage {
	return &Voyage{
		VersionedRecord: entity.NewVersionedRecord(),
		Assignable: entity.Assignable{
			AssignmentStatus: entity.AssignmentUnassigned,
		},
		VoyageNumber: voyageNumber,
		VesselName:   vesselName,
		CharterType:  CharterSpot,
		Currency:     "USD",
	}
}

// Validate implements entity.Validatable.
func (v *Voyage) Validate(ctx context.Context) error {
	if v.VoyageNumber == "" {
		return apperror.NewValidation("voyage number is required").
			WithDetail("field", "voyageNumber")
	}
	if v.VesselName == "" {
		return apperror.NewValidation("vessel name is required").
			WithDetail("field", "vesselName")
	}
	if v.CharterType != CharterSpot && v.CharterType != CharterTraded {
		return apperror.NewValidation("invalid charter type").
			WithDetail("field", "charterType").
			WithDetail("value", string(v.CharterType))
	}
	if v.DemurrageRate.IsNegative() {
		return apperror.NewValidation("demurrage rate must not be negative").
			WithDetail("field", "demurrageRate")
	}
	if v.LaytimeAllowed.IsNegative() {
		return apperror.NewValidation("laytime allowed must not be negative").
			WithDetail("field", "laytimeAllowed")
	}
	if v.LaycanStart != nil && v.LaycanEnd != nil && v.LaycanEnd.Before(*v.LaycanStart) {
		return apperror.NewValidation("laycan end precedes laycan start").
			WithDetail("field", "laycanEnd")
	}
	switch v.AssignmentStatus {
	case entity.AssignmentUnassigned, entity.AssignmentAssigned, entity.AssignmentCompleted:
	default:
		return apperror.NewValidation("invalid assignment status").
			WithDetail("field", "assignmentStatus").
			WithDetail("value", string(v.AssignmentStatus))
	}
	return nil
}

// ApplyRadar overwrites the RADAR-authoritative fields from an incoming
// external record, leaving assignment and notes untouched. The sync path
// calls this inside the upsert transaction.
func (v *Voyage) ApplyRadar(in RadarFields) {
	v.VoyageNumber = in.VoyageNumber
	v.VesselName = in.VesselName
	v.IMONumber = in.IMONumber
	v.CharterType = in.CharterType
	v.CharterParty = in.CharterParty
	v.LoadPort = in.LoadPort
	v.DischargePort = in.DischargePort
	v.LaycanStart = in.LaycanStart
	v.LaycanEnd = in.LaycanEnd
	v.DemurrageRate = in.DemurrageRate
	v.LaytimeAllowed = in.LaytimeAllowed
	if in.Currency != "" {
		v.Currency = in.Currency
	}
}

// RadarFields is the subset of voyage fields the external feed owns.
type RadarFields struct {
	VoyageNumber   string
	VesselName     string
	IMONumber      *string
	CharterType    CharterType
	CharterParty   *string
	LoadPort       string
	DischargePort  string
	LaycanStart    *time.Time
	LaycanEnd      *time.Time
	DemurrageRate  decimal.Decimal
	LaytimeAllowed decimal.Decimal
	Currency       string
}
