package auth

import (
	"context"

	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
)

// Repository defines the interface for user persistence.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id id.ID) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdateLastLogin(ctx context.Context, id id.ID) error
}
