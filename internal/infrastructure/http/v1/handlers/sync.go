package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/PatrykKozyra/claims-management-system/internal/domain/sync"
)

// SyncHandler serves RADAR reconciliation endpoints.
type SyncHandler struct {
	*BaseHandler
	service *sync.Service
	cursors sync.CursorStore
}

// NewSyncHandler creates a sync handler.
func NewSyncHandler(service *sync.Service, cursors sync.CursorStore) *SyncHandler {
	return &SyncHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
		cursors:     cursors,
	}
}

// Run handles POST /sync/run. Triggers one reconciliation cycle inline and
// returns its report. A cycle already in flight yields a conflict.
func (h *SyncHandler) Run(c *gin.Context) {
	report, err := h.service.Run(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, report)
}

// Status handles GET /sync/status. Returns the persisted watermark for each
// feed and the report of the last cycle this process ran.
func (h *SyncHandler) Status(c *gin.Context) {
	ctx := c.Request.Context()

	cursors := make([]sync.Cursor, 0, 2)
	for _, source := range []string{sync.SourceVoyages, sync.SourceClaims} {
		cur, err := h.cursors.Get(ctx, source)
		if err != nil {
			h.Error(c, err)
			return
		}
		cur.Source = source
		cursors = append(cursors, cur)
	}
	h.OK(c, gin.H{
		"cursors":    cursors,
		"lastReport": h.service.LastReport(),
	})
}
