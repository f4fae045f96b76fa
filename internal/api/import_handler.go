package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/or-planner-api/internal/config"
	"github.com/or-planner-api/internal/service"
	"github.com/rs/zerolog"
)

// ImportHandler handles roster import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// ImportRoster handles POST /v1/imports
// Accepts a multipart roster workbook upload and applies it synchronously.
func (h *ImportHandler) ImportRoster(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file upload is required"})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.Import.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("file too large, max size is %d MB", h.cfg.Import.MaxUploadSize/(1024*1024)),
		})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".xlsx" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "roster import requires an .xlsx file"})
		return
	}

	uploadDir := h.cfg.Import.UploadDir
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		h.log.Error().Err(err).Msg("Failed to create upload directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}

	// Keep the original base name: the parser reads the shift date from it.
	base := strings.TrimSuffix(filepath.Base(header.Filename), ext)
	filename := fmt.Sprintf("%s_%s%s", base, uuid.New().String()[:8], ext)
	filePath := filepath.Join(uploadDir, filename)

	dst, err := os.Create(filePath)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		h.log.Error().Err(err).Msg("Failed to copy file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save file"})
		return
	}
	dst.Close()
	defer os.Remove(filePath)

	result, err := h.services.Import.ImportRoster(c.Request.Context(), filePath)
	if err != nil {
		h.log.Error().Err(err).Str("file", header.Filename).Msg("Roster import failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "failed to process roster workbook"})
		return
	}

	h.log.Info().
		Str("run_id", result.RunID).
		Str("file", header.Filename).
		Int64("size_bytes", header.Size).
		Int("matched", result.MatchedPersonnel).
		Msg("Roster imported")

	c.JSON(http.StatusOK, result)
}
