package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PatrykKozyra/claims-management-system/internal/core/apperror"
	appctx "github.com/PatrykKozyra/claims-management-system/internal/core/context"
	"github.com/PatrykKozyra/claims-management-system/internal/core/id"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/auth"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Register handles POST /auth/register (admin only, enforced by the router).
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, user.ID, 0)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	uc := appctx.GetUser(c.Request.Context())
	if uc == nil {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return
	}

	userID, err := id.Parse(uc.UserID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("invalid token subject"))
		return
	}

	user, err := h.service.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, user)
}
