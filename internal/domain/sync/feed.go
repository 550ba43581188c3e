package sync

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// ExternalVoyage is one voyage record as RADAR publishes it. Raw carries the
// undecoded payload for the audit trail; Cursor is the feed position token
// directly after this record.
type ExternalVoyage struct {
	ID             string           `json:"id"`
	VoyageNumber   string           `json:"voyageNumber"`
	VesselName     string           `json:"vesselName"`
	IMONumber      *string          `json:"imoNumber,omitempty"`
	CharterType    string           `json:"charterType"`
	CharterParty   *string          `json:"charterParty,omitempty"`
	LoadPort       string           `json:"loadPort"`
	DischargePort  string           `json:"dischargePort"`
	LaycanStart    *time.Time       `json:"laycanStart,omitempty"`
	LaycanEnd      *time.Time       `json:"laycanEnd,omitempty"`
	ShipOwnerCode  *string          `json:"shipOwnerCode,omitempty"`
	DemurrageRate  decimal.Decimal  `json:"demurrageRate"`
	LaytimeAllowed decimal.Decimal  `json:"laytimeAllowed"`
	Currency       string           `json:"currency"`
	UpdatedAt      time.Time        `json:"updatedAt"`

	Cursor string          `json:"-"`
	Raw    json.RawMessage `json:"-"`
}

// ExternalClaim is one claim record as RADAR publishes it.
type ExternalClaim struct {
	ID            string           `json:"id"`
	VoyageID      string           `json:"voyageId"`
	ClaimType     string           `json:"claimType"`
	ClaimedAmount decimal.Decimal  `json:"claimedAmount"`
	Currency      string           `json:"currency"`
	LaytimeUsed   *decimal.Decimal `json:"laytimeUsed,omitempty"`
	UpdatedAt     time.Time        `json:"updatedAt"`

	Cursor string          `json:"-"`
	Raw    json.RawMessage `json:"-"`
}

// VoyagePage is one fetched batch of voyage records in feed order.
type VoyagePage struct {
	Records    []ExternalVoyage
	NextCursor string
	HasMore    bool
}

// ClaimPage is one fetched batch of claim records in feed order.
type ClaimPage struct {
	Records    []ExternalClaim
	NextCursor string
	HasMore    bool
}

// Fetcher pulls changed records from RADAR starting after a cursor. Fetch
// errors carry the connectivity/timeout classification so the orchestrator
// can retry them; record-level problems are not the fetcher's concern.
type Fetcher interface {
	FetchVoyages(ctx context.Context, cursor string, limit int) (*VoyagePage, error)
	FetchClaims(ctx context.Context, cursor string, limit int) (*ClaimPage, error)
}
