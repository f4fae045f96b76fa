package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/or-planner-api/internal/grid"
	"github.com/or-planner-api/internal/service"
	"github.com/or-planner-api/internal/tables"
	"github.com/rs/zerolog"
)

// PlannerHandler handles assignment plan endpoints
type PlannerHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPlannerHandler creates a new PlannerHandler
func NewPlannerHandler(services *service.Services, log zerolog.Logger) *PlannerHandler {
	return &PlannerHandler{
		services: services,
		log:      log.With().Str("handler", "planner").Logger(),
	}
}

// cellRequest addresses one grid cell plus the person acted on. The cell
// field uses the "<table>-<role>-<room>" key format.
type cellRequest struct {
	Cell     string `json:"cell"`
	PersonID int64  `json:"person_id"`
}

// GetPlan handles GET /v1/plan
func (h *PlannerHandler) GetPlan(c *gin.Context) {
	snapshot, err := h.services.Planner.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build plan snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load plan"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// ListDates handles GET /v1/plan/dates
func (h *PlannerHandler) ListDates(c *gin.Context) {
	dates, err := h.services.Planner.StoredDates(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list plan dates")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list plan dates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"dates":  dates,
		"active": h.services.Planner.ActiveDate(),
	})
}

// Drop handles POST /v1/plan/drop
func (h *PlannerHandler) Drop(c *gin.Context) {
	cell, personID, ok := h.bindCellRequest(c)
	if !ok {
		return
	}

	changed, err := h.services.Planner.Drop(c.Request.Context(), cell, personID)
	if err != nil {
		h.log.Error().Err(err).Str("cell", cell.String()).Msg("Drop failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to place person"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// Remove handles POST /v1/plan/remove
func (h *PlannerHandler) Remove(c *gin.Context) {
	cell, personID, ok := h.bindCellRequest(c)
	if !ok {
		return
	}

	changed, err := h.services.Planner.Remove(c.Request.Context(), cell, personID)
	if err != nil {
		h.log.Error().Err(err).Str("cell", cell.String()).Msg("Remove failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove person"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// Reset handles POST /v1/plan/reset
func (h *PlannerHandler) Reset(c *gin.Context) {
	if err := h.services.Planner.Reset(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("Reset failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset plan"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true})
}

// SelectDate handles PUT /v1/plan/date
func (h *PlannerHandler) SelectDate(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.services.Planner.SelectDate(c.Request.Context(), req.Date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must use YYYY-MM-DD format"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": req.Date})
}

// SelectTable handles PUT /v1/plan/table
func (h *PlannerHandler) SelectTable(c *gin.Context) {
	var req struct {
		Table string `json:"table"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	key := tables.Key(req.Table)
	if err := h.services.Planner.SelectTable(c.Request.Context(), key); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown table configuration"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"table": req.Table})
}

// bindCellRequest parses a drop/remove body; on failure it writes the 400
// response itself.
func (h *PlannerHandler) bindCellRequest(c *gin.Context) (grid.CellKey, int64, bool) {
	var req cellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return grid.CellKey{}, 0, false
	}
	if req.PersonID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "person_id must be a positive integer"})
		return grid.CellKey{}, 0, false
	}

	cell, err := grid.ParseCellKey(req.Cell)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cell must use the <table>-<role>-<room> format"})
		return grid.CellKey{}, 0, false
	}
	// Only cells a configuration actually renders may be written; anything
	// else would persist under an unreachable key.
	if !cell.Table.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown table configuration"})
		return grid.CellKey{}, 0, false
	}
	cfg := tables.Get(cell.Table)
	if cell.Role >= len(cfg.Roles) || cell.Room >= len(cfg.Rooms) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cell is outside the table configuration"})
		return grid.CellKey{}, 0, false
	}
	return cell, req.PersonID, true
}
