package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/service"
	"github.com/rs/zerolog"
)

// PersonnelHandler handles personnel directory endpoints
type PersonnelHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPersonnelHandler creates a new PersonnelHandler
func NewPersonnelHandler(services *service.Services, log zerolog.Logger) *PersonnelHandler {
	return &PersonnelHandler{
		services: services,
		log:      log.With().Str("handler", "personnel").Logger(),
	}
}

// createPersonRequest is the POST /v1/personnel body
type createPersonRequest struct {
	Name              string `json:"name"`
	Group             string `json:"group"`
	Department        string `json:"department"`
	Comment           string `json:"comment"`
	AvailabilityState string `json:"availability_state"`
	Initials          string `json:"initials"`
}

// List handles GET /v1/personnel
func (h *PersonnelHandler) List(c *gin.Context) {
	people, err := h.services.Personnel.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list personnel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list personnel"})
		return
	}
	unsynced, err := h.services.Personnel.HasUnsyncedChanges(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to check sync markers")
	}
	tags, err := h.services.Personnel.AvailabilityTags(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load availability tags")
		tags = models.AvailabilityTagSet{}
	}

	c.JSON(http.StatusOK, gin.H{
		"personnel":         people,
		"count":             len(people),
		"availability_tags": tags,
		"unsynced_changes":  unsynced,
	})
}

// Create handles POST /v1/personnel
func (h *PersonnelHandler) Create(c *gin.Context) {
	var req createPersonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.Group == "" || !models.ValidGroups[req.Group] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group must be a known personnel group"})
		return
	}

	person, err := h.services.Personnel.Add(c.Request.Context(), &models.Person{
		Name:              req.Name,
		Group:             req.Group,
		Department:        req.Department,
		Comment:           req.Comment,
		AvailabilityState: req.AvailabilityState,
		Initials:          req.Initials,
	})
	if err != nil {
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to add person")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add person"})
		return
	}

	c.JSON(http.StatusCreated, person)
}

// Update handles PATCH /v1/personnel/:id
func (h *PersonnelHandler) Update(c *gin.Context) {
	id, ok := parsePersonID(c)
	if !ok {
		return
	}

	var upd models.PersonUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if upd.Group != nil && !models.ValidGroups[*upd.Group] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "group must be a known personnel group"})
		return
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name must not be empty"})
		return
	}

	found, err := h.services.Personnel.Update(c.Request.Context(), id, &upd)
	if err != nil {
		h.log.Error().Err(err).Int64("person_id", id).Msg("Failed to update person")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update person"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}

	person, err := h.services.Personnel.Get(c.Request.Context(), id)
	if err != nil || person == nil {
		c.JSON(http.StatusOK, gin.H{"updated": true})
		return
	}
	c.JSON(http.StatusOK, person)
}

// Delete handles DELETE /v1/personnel/:id
func (h *PersonnelHandler) Delete(c *gin.Context) {
	id, ok := parsePersonID(c)
	if !ok {
		return
	}

	found, err := h.services.Personnel.Delete(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Int64("person_id", id).Msg("Failed to delete person")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete person"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// Eligible handles GET /v1/personnel/eligible
func (h *PersonnelHandler) Eligible(c *gin.Context) {
	people, err := h.services.Personnel.Eligible(c.Request.Context(), c.Query("search"), c.Query("group"))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list eligible personnel")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list eligible personnel"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"personnel": people,
		"count":     len(people),
	})
}

// parsePersonID reads the :id path parameter; on failure it writes the 400
// response itself.
func parsePersonID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return 0, false
	}
	return id, true
}
