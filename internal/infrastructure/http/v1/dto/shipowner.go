package dto

import (
	"github.com/PatrykKozyra/claims-management-system/internal/domain/shipowner"
)

// CreateShipOwnerRequest is the request body for creating a ship owner.
type CreateShipOwnerRequest struct {
	Code          string  `json:"code" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	ContactPerson *string `json:"contactPerson"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateShipOwnerRequest) ToEntity() *shipowner.ShipOwner {
	o := shipowner.New(r.Code, r.Name)
	o.ContactPerson = r.ContactPerson
	o.Email = r.Email
	o.Phone = r.Phone
	return o
}

// UpdateShipOwnerRequest is the request body for updating a ship owner.
type UpdateShipOwnerRequest struct {
	Name          string  `json:"name" binding:"required"`
	ContactPerson *string `json:"contactPerson"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	Version       int     `json:"version" binding:"min=0"`
}

// ApplyTo applies the update to an existing entity.
func (r *UpdateShipOwnerRequest) ApplyTo(o *shipowner.ShipOwner) {
	o.Name = r.Name
	o.ContactPerson = r.ContactPerson
	o.Email = r.Email
	o.Phone = r.Phone
}
