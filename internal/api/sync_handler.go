package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/or-planner-api/internal/service"
	"github.com/rs/zerolog"
)

// SyncHandler handles remote directory sync endpoints
type SyncHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(services *service.Services, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		services: services,
		log:      log.With().Str("handler", "sync").Logger(),
	}
}

// Trigger handles POST /v1/sync
func (h *SyncHandler) Trigger(c *gin.Context) {
	status, err := h.services.Sync.TriggerSync(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual sync failed")
		if status != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "sync failed", "status": status})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sync failed"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Status handles GET /v1/sync/status
func (h *SyncHandler) Status(c *gin.Context) {
	status, err := h.services.Sync.Status(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read sync status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read sync status"})
		return
	}
	c.JSON(http.StatusOK, status)
}
