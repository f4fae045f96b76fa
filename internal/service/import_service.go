package service

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/roster"
	"github.com/or-planner-api/internal/validation"
	"github.com/rs/zerolog"
)

// importService is the concrete implementation of ImportService
type importService struct {
	personnel PersonnelService
	log       zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(personnel PersonnelService, log zerolog.Logger) *importService {
	return &importService{
		personnel: personnel,
		log:       log.With().Str("service", "import").Logger(),
	}
}

// ImportRoster parses an uploaded roster workbook and applies it as the new
// availability snapshot. Rejected assignments are reported, not imported;
// the snapshot replacement is all-or-nothing over the valid set.
func (s *importService) ImportRoster(ctx context.Context, filePath string) (*models.ImportResult, error) {
	startTime := time.Now()
	runID := uuid.New().String()

	s.log.Info().
		Str("run_id", runID).
		Str("file", filePath).
		Msg("Starting roster import")

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster file: %w", err)
	}
	defer file.Close()

	parsed, err := roster.ParseWorkbook(file, filePath)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", runID).Msg("Roster parse failed")
		return nil, err
	}

	valid, invalid := validation.NewValidator().ValidateBatch(parsed.Assignments)

	matched, err := s.personnel.ApplyAvailabilityUpdate(ctx, valid)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", runID).Msg("Availability update failed")
		return nil, err
	}

	total, err := s.personnel.Count(ctx)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{
		RunID:            runID,
		Summary:          parsed.Summary,
		Errors:           parsed.Errors,
		Invalid:          invalid,
		ValidCount:       len(valid),
		MatchedPersonnel: matched,
		DurationMs:       time.Since(startTime).Milliseconds(),
	}
	// Directory members the roster did not cover; they were just marked
	// unavailable by the snapshot replacement.
	result.Summary.UnassignedPersonnel = total - matched

	s.log.Info().
		Str("run_id", runID).
		Int("total", parsed.Summary.TotalAssignments).
		Int("valid", len(valid)).
		Int("invalid", len(invalid)).
		Int("matched", matched).
		Int64("duration_ms", result.DurationMs).
		Msg("Roster import completed")
	return result, nil
}
