// Package auth provides authentication for claims analysts.
package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
)

// Known roles.
const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
	RoleViewer  = "viewer"
)

// User is an analyst account. Users are not versioned records: they are not
// mirrored from RADAR and see no concurrent edit traffic.
type User struct {
	ID           id.ID      `db:"id" json:"id"`
	Username     string     `db:"username" json:"username"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         string     `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
}

// NewUser creates an active user with a hashed password.
func NewUser(username, email, password, role string) (*User, error) {
	if username == "" {
		return nil, apperror.NewValidation("username is required")
	}
	if len(password) < 8 {
		return nil, apperror.NewValidation("password must be at least 8 characters")
	}
	switch role {
	case RoleAdmin, RoleAnalyst, RoleViewer:
	default:
		return nil, apperror.NewValidation("unknown role").WithDetail("role", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:           id.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// CheckPassword verifies a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
