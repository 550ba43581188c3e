package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PatrykKozyra/claims-management-system/internal/domain/claim"
	"github.com/PatrykKozyra/claims-management-system/internal/infrastructure/http/v1/dto"
)

// ClaimHandler serves claim endpoints.
type ClaimHandler struct {
	*BaseHandler
	service *claim.Service
}

// NewClaimHandler creates a claim handler.
func NewClaimHandler(service *claim.Service) *ClaimHandler {
	return &ClaimHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// List handles GET /claims
func (h *ClaimHandler) List(c *gin.Context) {
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

// Get handles GET /claims/:id
func (h *ClaimHandler) Get(c *gin.Context) {
	claimID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	cl, err := h.service.GetByID(c.Request.Context(), claimID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cl)
}

// Create handles POST /claims
func (h *ClaimHandler) Create(c *gin.Context) {
	var req dto.CreateClaimRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := req.ToEntity()
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := h.service.Create(c.Request.Context(), cl); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, cl.ID, cl.Version)
}

// Update handles PUT /claims/:id
func (h *ClaimHandler) Update(c *gin.Context) {
	claimID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateClaimRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.UpdateDetails(c.Request.Context(), claimID, req.Version,
		req.ClaimedAmount, req.LaytimeUsed, req.Description)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cl)
}

// Transition handles POST /claims/:id/transition
func (h *ClaimHandler) Transition(c *gin.Context) {
	claimID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.TransitionClaimRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.TransitionStatus(c.Request.Context(), claimID, req.Version, claim.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cl)
}

// Settle handles POST /claims/:id/settle
func (h *ClaimHandler) Settle(c *gin.Context) {
	claimID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.SettleClaimRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.Settle(c.Request.Context(), claimID, req.Version, req.SettledAmount)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cl)
}

// Assign handles POST /claims/:id/assign
func (h *ClaimHandler) Assign(c *gin.Context) {
	claimID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.AssignRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.AssignTo(c.Request.Context(), claimID, req.Version, req.Analyst)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cl)
}

// SetPaymentStatus handles PUT /claims/:id/payment-status
func (h *ClaimHandler) SetPaymentStatus(c *gin.Context) {
	claimID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.SetPaymentStatus(c.Request.Context(), claimID, req.Version, claim.PaymentStatus(req.PaymentStatus))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cl)
}

// History handles GET /claims/:id/history
func (h *ClaimHandler) History(c *gin.Context) {
	claimID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 100)
	entries, err := h.service.History(c.Request.Context(), claimID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// Delete handles DELETE /claims/:id
func (h *ClaimHandler) Delete(c *gin.Context) {
	claimID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), claimID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
