package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/PatrykKozyra/claims-management-system/internal/domain/activity"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/shipowner"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/http/v1/dto"
)

// ShipOwnerHandler serves ship owner catalog endpoints.
type ShipOwnerHandler struct {
	*BaseHandler
	service *shipowner.Service
}

// NewShipOwnerHandler creates a ship owner handler.
func NewShipOwnerHandler(service *shipowner.Service) *ShipOwnerHandler {
	return &ShipOwnerHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// List handles GET /ship-owners
func (h *ShipOwnerHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.service.List(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Get handles GET /ship-owners/:id
func (h *ShipOwnerHandler) Get(c *gin.Context) {
	ownerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), ownerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// Create handles POST /ship-owners
func (h *ShipOwnerHandler) Create(c *gin.Context) {
	var req dto.CreateShipOwnerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), o); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, o.ID, o.Version)
}

// Update handles PUT /ship-owners/:id
func (h *ShipOwnerHandler) Update(c *gin.Context) {
	ownerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateShipOwnerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := h.service.Write(c.Request.Context(), ownerID, req.Version, activity.ActionUpdated, "details updated",
		func(ctx context.Context, o *shipowner.ShipOwner) error {
			req.ApplyTo(o)
			return nil
		})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, o)
}

// Delete handles DELETE /ship-owners/:id
func (h *ShipOwnerHandler) Delete(c *gin.Context) {
	ownerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), ownerID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
