package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PatrykKozyra/claims-management-system/internal/domain/claim"
	"github.com/PatrykKozyra/claims-management-system/internal/domain/voyage"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/http/v1/dto"
)

// VoyageHandler serves voyage endpoints.
type VoyageHandler struct {
	*BaseHandler
	service *voyage.Service
	claims  *claim.Service
}

// NewVoyageHandler creates a voyage handler.
func NewVoyageHandler(service *voyage.Service, claims *claim.Service) *VoyageHandler {
	return &VoyageHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
		claims:      claims,
	}
}

// List handles GET /voyages
func (h *VoyageHandler) List(c *gin.Context) {
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

// Get handles GET /voyages/:id
func (h *VoyageHandler) Get(c *gin.Context) {
	voyageID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	v, err := h.service.GetByID(c.Request.Context(), voyageID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Create handles POST /voyages
func (h *VoyageHandler) Create(c *gin.Context) {
	var req dto.CreateVoyageRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), v); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, v.ID, v.Version)
}

// Assign handles POST /voyages/:id/assign
func (h *VoyageHandler) Assign(c *gin.Context) {
	voyageID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AssignRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := h.service.AssignTo(c.Request.Context(), voyageID, req.Version, req.Analyst)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Complete handles POST /voyages/:id/complete
func (h *VoyageHandler) Complete(c *gin.Context) {
	voyageID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.VersionedRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Complete(c.Request.Context(), voyageID, req.Version)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Update handles PUT /voyages/:id
func (h *VoyageHandler) Update(c *gin.Context) {
	voyageID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateVoyageRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := h.service.Update(c.Request.Context(), voyageID, req.Version, req.ApplyTo)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// UpdateNotes handles PUT /voyages/:id/notes
func (h *VoyageHandler) UpdateNotes(c *gin.Context) {
	voyageID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateVoyageNotesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	v, err := h.service.UpdateNotes(c.Request.Context(), voyageID, req.Version, req.Notes)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, v)
}

// Claims handles GET /voyages/:id/claims
func (h *VoyageHandler) Claims(c *gin.Context) {
	voyageID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	items, err := h.claims.ListForVoyage(c.Request.Context(), voyageID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": items})
}

// History handles GET /voyages/:id/history
func (h *VoyageHandler) History(c *gin.Context) {
	voyageID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 100)
	entries, err := h.service.History(c.Request.Context(), voyageID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// Delete handles DELETE /voyages/:id
func (h *VoyageHandler) Delete(c *gin.Context) {
	voyageID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), voyageID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
