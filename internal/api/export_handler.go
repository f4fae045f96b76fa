package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/or-planner-api/internal/service"
	"github.com/rs/zerolog"
)

// ExportHandler handles export endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// ExportPersonnel handles GET /v1/personnel/export
// Streams the directory as CSV directly to the response
func (h *ExportHandler) ExportPersonnel(c *gin.Context) {
	filename := fmt.Sprintf("personal-export-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+filename)

	count, err := h.services.Export.StreamPersonnelCSV(c.Request.Context(), c.Writer)
	if err != nil {
		h.log.Error().Err(err).Msg("Personnel export failed")
		if count == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export personnel"})
		}
		return
	}
}
