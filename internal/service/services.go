package service

import (
	"context"
	"io"

	"github.com/or-planner-api/internal/config"
	"github.com/or-planner-api/internal/grid"
	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/repository"
	"github.com/or-planner-api/internal/tables"
	"github.com/rs/zerolog"
)

// PersonnelService defines the interface for the local personnel directory
type PersonnelService interface {
	Add(ctx context.Context, person *models.Person) (*models.Person, error)
	Update(ctx context.Context, id int64, upd *models.PersonUpdate) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context) ([]models.Person, error)
	Get(ctx context.Context, id int64) (*models.Person, error)
	Eligible(ctx context.Context, search, group string) ([]models.Person, error)
	ApplyAvailabilityUpdate(ctx context.Context, assignments []models.ShiftAssignment) (int, error)
	AvailabilityTags(ctx context.Context) (models.AvailabilityTagSet, error)
	HasUnsyncedChanges(ctx context.Context) (bool, error)
	Count(ctx context.Context) (int, error)
}

// PlannerService defines the interface for the assignment grid engine
type PlannerService interface {
	Drop(ctx context.Context, cell grid.CellKey, personID int64) (bool, error)
	Remove(ctx context.Context, cell grid.CellKey, personID int64) (bool, error)
	Reset(ctx context.Context) error
	SelectDate(ctx context.Context, date string) error
	SelectTable(ctx context.Context, key tables.Key) error
	Snapshot(ctx context.Context) (*PlanSnapshot, error)
	PurgePerson(ctx context.Context, personID int64) error
	ActiveDate() string
	ActiveTable() tables.Key
	StoredDates(ctx context.Context) ([]string, error)
}

// ImportService defines the interface for roster imports
type ImportService interface {
	ImportRoster(ctx context.Context, filePath string) (*models.ImportResult, error)
}

// ExportService defines the interface for personnel export
type ExportService interface {
	StreamPersonnelCSV(ctx context.Context, w io.Writer) (int, error)
}

// SyncService defines the interface for remote directory synchronization
type SyncService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	TriggerSync(ctx context.Context) (*SyncStatus, error)
	Status(ctx context.Context) (*SyncStatus, error)
	QueueDelete(remoteID string)
}

// Services holds all service interfaces
type Services struct {
	Personnel PersonnelService
	Planner   PlannerService
	Import    ImportService
	Export    ExportService
	Sync      SyncService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	plannerSvc := newPlannerService(repos, log)
	syncSvc := newSyncService(repos.Personnel, &cfg.Directory, log)
	personnelSvc := newPersonnelService(repos.Personnel, plannerSvc, syncSvc, log)
	importSvc := newImportService(personnelSvc, log)
	exportSvc := newExportService(repos.Personnel, log)

	return &Services{
		Personnel: personnelSvc,
		Planner:   plannerSvc,
		Import:    importSvc,
		Export:    exportSvc,
		Sync:      syncSvc,
	}
}
