package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotegen/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotegen/internal/app"
	"github.com/jsamuelsen/quotegen/internal/domain"
)

// Syncer runs and reports server-wins syncs. *app.Syncer satisfies it.
type Syncer interface {
	SyncNow(ctx context.Context) (domain.SyncResult, error)
	Status() app.SyncStatus
}

// SyncHandler handles the sync endpoints.
type SyncHandler struct {
	syncer Syncer
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(syncer Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// SyncNow handles POST /api/v1/sync.
// It waits for a sync already in progress and then runs one.
//
// @Summary Sync with the quote server
// @Tags sync
// @Produce json
// @Success 200 {object} dto.SyncResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/sync [post]
func (h *SyncHandler) SyncNow(c *gin.Context) {
	result, err := h.syncer.SyncNow(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.FromSyncResult(result))
}

// Status handles GET /api/v1/sync/status.
//
// @Summary Sync status
// @Tags sync
// @Produce json
// @Success 200 {object} app.SyncStatus
// @Router /api/v1/sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.syncer.Status())
}

// RegisterSyncRoutes registers the sync routes on rg.
func (h *SyncHandler) RegisterSyncRoutes(rg *gin.RouterGroup) {
	rg.POST("/sync", h.SyncNow)
	rg.GET("/sync/status", h.Status)
}
