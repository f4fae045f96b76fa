package service

import (
	"context"
	"encoding/csv"
	"io"

	"github.com/or-planner-api/internal/repository"
	"github.com/rs/zerolog"
)

// personnelCSVHeader matches the column layout planners exchange with the
// staffing office, so exported files round-trip through their tooling.
var personnelCSVHeader = []string{
	"Name", "Gruppe", "Abteilung", "Verfügbarkeit", "Schichtzuweisung", "Kürzel", "Kommentar",
}

// exportService is the concrete implementation of ExportService
type exportService struct {
	repo repository.PersonnelRepository
	log  zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repo repository.PersonnelRepository, log zerolog.Logger) *exportService {
	return &exportService{
		repo: repo,
		log:  log.With().Str("service", "export").Logger(),
	}
}

// StreamPersonnelCSV writes the whole directory as CSV and returns the
// number of exported records.
func (s *exportService) StreamPersonnelCSV(ctx context.Context, w io.Writer) (int, error) {
	people, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(personnelCSVHeader); err != nil {
		return 0, err
	}

	count := 0
	for _, p := range people {
		record := []string{
			p.Name,
			p.Group,
			p.Department,
			p.AvailabilityState,
			p.ShiftAssignment,
			p.Initials,
			p.Comment,
		}
		if err := writer.Write(record); err != nil {
			return count, err
		}
		count++
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return count, err
	}

	s.log.Info().Int("count", count).Msg("Personnel export completed")
	return count, nil
}
