package repository

import (
	"context"

	"github.com/or-planner-api/internal/database"
	"github.com/or-planner-api/internal/grid"
	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/tables"
	"github.com/rs/zerolog"
)

// LoadOutcome describes how a snapshot load went. Degraded means stored
// data existed but could not be decoded and the caller got an empty state
// instead; corrupt data degrades, it never crashes.
type LoadOutcome struct {
	Found    bool   `json:"found"`
	Degraded bool   `json:"degraded"`
	Reason   string `json:"reason,omitempty"`
}

// PlanState is the single-row mirror of the active selection, restored on
// startup.
type PlanState struct {
	ActiveDate  string     `json:"active_date"`
	ActiveTable tables.Key `json:"active_table"`
}

// PersonnelRepository defines the interface for personnel data operations
type PersonnelRepository interface {
	Create(ctx context.Context, person *models.Person) error
	Update(ctx context.Context, person *models.Person) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (*models.Person, error)
	ListAll(ctx context.Context) ([]models.Person, error)
	Count(ctx context.Context) (int, error)
	ListPendingSync(ctx context.Context) ([]models.Person, error)
	ClearSyncState(ctx context.Context, id int64, remoteID string) error
	SaveAvailabilityTags(ctx context.Context, tags models.AvailabilityTagSet) error
	LoadAvailabilityTags(ctx context.Context) (models.AvailabilityTagSet, error)
}

// PlanRepository defines the interface for per-date assignment snapshots
type PlanRepository interface {
	LoadAssignments(ctx context.Context, date string) (grid.AssignmentMap, LoadOutcome, error)
	SaveAssignments(ctx context.Context, date string, m grid.AssignmentMap) error
	LoadState(ctx context.Context) (PlanState, error)
	SaveState(ctx context.Context, state PlanState) error
	ListDates(ctx context.Context) ([]string, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Personnel PersonnelRepository
	Plan      PlanRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB, log zerolog.Logger) *Repositories {
	return &Repositories{
		Personnel: NewPersonnelRepo(db, log),
		Plan:      NewPlanRepo(db, log),
	}
}
