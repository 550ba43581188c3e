// Package shipowner provides the ship owner catalog referenced by voyages.
package shipowner

import (
	"context"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/entity"
)

// ShipOwner is a catalog record for a vessel owner or operator.
type ShipOwner struct {
	entity.VersionedRecord

	Code          string  `db:"code" json:"code"`
	Name          string  `db:"name" json:"name"`
	ContactPerson *string `db:"contact_person" json:"contactPerson,omitempty"`
	Email         *string `db:"email" json:"email,omitempty"`
	Phone         *string `db:"phone" json:"phone,omitempty"`
}

// New creates a ship owner at version 0.
func New(code, name string) *ShipOwner {
	return &ShipOwner{
		VersionedRecord: entity.NewVersionedRecord(),
		Code:            code,
		Name:            name,
	}
}

// Validate implements entity.Validatable.
func (o *ShipOwner) Validate(ctx context.Context) error {
	if o.Code == "" {
		return apperror.NewValidation("ship owner code is required").
			WithDetail("field", "code")
	}
	if o.Name == "" {
		return apperror.NewValidation("ship owner name is required").
			WithDetail("field", "name")
	}
	return nil
}
