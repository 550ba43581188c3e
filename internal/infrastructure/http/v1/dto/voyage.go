package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/voyage"
)

// CreateVoyageRequest is the request body for creating a voyage locally.
// Most voyages arrive through the RADAR sync; manual creation covers voyages
// RADAR does not carry.
type CreateVoyageRequest struct {
	VoyageNumber   string           `json:"voyageNumber" binding:"required"`
	VesselName     string           `json:"vesselName" binding:"required"`
	IMONumber      *string          `json:"imoNumber"`
	CharterType    string           `json:"charterType"`
	CharterParty   *string          `json:"charterParty"`
	LoadPort       string           `json:"loadPort"`
	DischargePort  string           `json:"dischargePort"`
	LaycanStart    *time.Time       `json:"laycanStart"`
	LaycanEnd      *time.Time       `json:"laycanEnd"`
	ShipOwnerID    *string          `json:"shipOwnerId"`
	DemurrageRate  decimal.Decimal  `json:"demurrageRate"`
	LaytimeAllowed decimal.Decimal  `json:"laytimeAllowed"`
	Currency       string           `json:"currency"`
	Notes          *string          `json:"notes"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateVoyageRequest) ToEntity() (*voyage.Voyage, error) {
	v := voyage.New(r.VoyageNumber, r.VesselName)
	v.IMONumber = r.IMONumber
	if r.CharterType != "" {
		v.CharterType = voyage.CharterType(r.CharterType)
	}
	v.CharterParty = r.CharterParty
	v.LoadPort = r.LoadPort
	v.DischargePort = r.DischargePort
	v.LaycanStart = r.LaycanStart
	v.LaycanEnd = r.LaycanEnd
	v.DemurrageRate = r.DemurrageRate
	v.LaytimeAllowed = r.LaytimeAllowed
	if r.Currency != "" {
		v.Currency = r.Currency
	}
	v.Notes = r.Notes

	if r.ShipOwnerID != nil {
		ownerID, err := id.Parse(*r.ShipOwnerID)
		if err != nil {
			return nil, err
		}
		v.ShipOwnerID = &ownerID
	}
	return v, nil
}

// UpdateVoyageRequest replaces the commercial fields of a locally managed
// voyage. Carries the version the caller last read.
type UpdateVoyageRequest struct {
	VoyageNumber   string          `json:"voyageNumber" binding:"required"`
	VesselName     string          `json:"vesselName" binding:"required"`
	IMONumber      *string         `json:"imoNumber"`
	CharterType    string          `json:"charterType"`
	CharterParty   *string         `json:"charterParty"`
	LoadPort       string          `json:"loadPort"`
	DischargePort  string          `json:"dischargePort"`
	LaycanStart    *time.Time      `json:"laycanStart"`
	LaycanEnd      *time.Time      `json:"laycanEnd"`
	DemurrageRate  decimal.Decimal `json:"demurrageRate"`
	LaytimeAllowed decimal.Decimal `json:"laytimeAllowed"`
	Currency       string          `json:"currency"`
	Notes          *string         `json:"notes"`
	Version        int             `json:"version" binding:"min=0"`
}

// ApplyTo applies the update to an existing entity.
func (r *UpdateVoyageRequest) ApplyTo(v *voyage.Voyage) {
	v.VoyageNumber = r.VoyageNumber
	v.VesselName = r.VesselName
	v.IMONumber = r.IMONumber
	if r.CharterType != "" {
		v.CharterType = voyage.CharterType(r.CharterType)
	}
	v.CharterParty = r.CharterParty
	v.LoadPort = r.LoadPort
	v.DischargePort = r.DischargePort
	v.LaycanStart = r.LaycanStart
	v.LaycanEnd = r.LaycanEnd
	v.DemurrageRate = r.DemurrageRate
	v.LaytimeAllowed = r.LaytimeAllowed
	if r.Currency != "" {
		v.Currency = r.Currency
	}
	v.Notes = r.Notes
}

// UpdateVoyageNotesRequest replaces the local notes field.
type UpdateVoyageNotesRequest struct {
	Notes   *string `json:"notes"`
	Version int     `json:"version" binding:"min=0"`
}
