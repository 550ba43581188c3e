package auth

import (
	"context"
	"time"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/pkg/logger"
)

// Service provides authentication business logic.
type Service struct {
	repo Repository
	jwt  *JWTService
}

// NewService creates an auth service.
func NewService(repo Repository, jwtSvc *JWTService) *Service {
	return &Service{repo: repo, jwt: jwtSvc}
}

// LoginResult carries a fresh access token.
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      *User     `json:"user"`
}

// Login verifies credentials and issues an access token. Wrong username and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}

	if !user.Active {
		return nil, apperror.NewUnauthorized("account disabled")
	}
	if !user.CheckPassword(password) {
		return nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}

	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		// Login still succeeds; the timestamp is informational.
		logger.Warn(ctx, "update last login failed", "user_id", user.ID, "error", err)
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, username, email, password, role string) (*User, error) {
	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return nil, apperror.NewDuplicate("user", "username", username)
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	user, err := NewUser(username, email, password, role)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByID retrieves a user.
func (s *Service) GetByID(ctx context.Context, userID id.ID) (*User, error) {
	return s.repo.GetByID(ctx, userID)
}
