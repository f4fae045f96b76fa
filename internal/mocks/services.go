package mocks

import (
	"context"
	"io"

	"github.com/or-planner-api/internal/grid"
	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/service"
	"github.com/or-planner-api/internal/tables"
)

// MockPersonnelService is a mock implementation of PersonnelService
type MockPersonnelService struct {
	AddFunc      func(ctx context.Context, person *models.Person) (*models.Person, error)
	UpdateFunc   func(ctx context.Context, id int64, upd *models.PersonUpdate) (bool, error)
	DeleteFunc   func(ctx context.Context, id int64) (bool, error)
	ListFunc     func(ctx context.Context) ([]models.Person, error)
	GetFunc      func(ctx context.Context, id int64) (*models.Person, error)
	EligibleFunc func(ctx context.Context, search, group string) ([]models.Person, error)
	Tags         models.AvailabilityTagSet
	Unsynced     bool
	Total        int
}

// Verify interface compliance
var _ service.PersonnelService = (*MockPersonnelService)(nil)

func (m *MockPersonnelService) Add(ctx context.Context, person *models.Person) (*models.Person, error) {
	if m.AddFunc != nil {
		return m.AddFunc(ctx, person)
	}
	person.ID = 1
	return person, nil
}

func (m *MockPersonnelService) Update(ctx context.Context, id int64, upd *models.PersonUpdate) (bool, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, upd)
	}
	return true, nil
}

func (m *MockPersonnelService) Delete(ctx context.Context, id int64) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return true, nil
}

func (m *MockPersonnelService) List(ctx context.Context) ([]models.Person, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []models.Person{}, nil
}

func (m *MockPersonnelService) Get(ctx context.Context, id int64) (*models.Person, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return nil, nil
}

func (m *MockPersonnelService) Eligible(ctx context.Context, search, group string) ([]models.Person, error) {
	if m.EligibleFunc != nil {
		return m.EligibleFunc(ctx, search, group)
	}
	return []models.Person{}, nil
}

func (m *MockPersonnelService) ApplyAvailabilityUpdate(ctx context.Context, assignments []models.ShiftAssignment) (int, error) {
	return len(assignments), nil
}

func (m *MockPersonnelService) AvailabilityTags(ctx context.Context) (models.AvailabilityTagSet, error) {
	if m.Tags != nil {
		return m.Tags, nil
	}
	return models.AvailabilityTagSet{}, nil
}

func (m *MockPersonnelService) HasUnsyncedChanges(ctx context.Context) (bool, error) {
	return m.Unsynced, nil
}

func (m *MockPersonnelService) Count(ctx context.Context) (int, error) {
	return m.Total, nil
}

// MockPlannerService is a mock implementation of PlannerService
type MockPlannerService struct {
	DropFunc        func(ctx context.Context, cell grid.CellKey, personID int64) (bool, error)
	RemoveFunc      func(ctx context.Context, cell grid.CellKey, personID int64) (bool, error)
	ResetFunc       func(ctx context.Context) error
	SelectDateFunc  func(ctx context.Context, date string) error
	SelectTableFunc func(ctx context.Context, key tables.Key) error
	SnapshotFunc    func(ctx context.Context) (*service.PlanSnapshot, error)
	Date            string
	Table           tables.Key
	Dates           []string
	PurgedIDs       []int64
}

// Verify interface compliance
var _ service.PlannerService = (*MockPlannerService)(nil)

func (m *MockPlannerService) Drop(ctx context.Context, cell grid.CellKey, personID int64) (bool, error) {
	if m.DropFunc != nil {
		return m.DropFunc(ctx, cell, personID)
	}
	return true, nil
}

func (m *MockPlannerService) Remove(ctx context.Context, cell grid.CellKey, personID int64) (bool, error) {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, cell, personID)
	}
	return true, nil
}

func (m *MockPlannerService) Reset(ctx context.Context) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx)
	}
	return nil
}

func (m *MockPlannerService) SelectDate(ctx context.Context, date string) error {
	if m.SelectDateFunc != nil {
		return m.SelectDateFunc(ctx, date)
	}
	m.Date = date
	return nil
}

func (m *MockPlannerService) SelectTable(ctx context.Context, key tables.Key) error {
	if m.SelectTableFunc != nil {
		return m.SelectTableFunc(ctx, key)
	}
	m.Table = key
	return nil
}

func (m *MockPlannerService) Snapshot(ctx context.Context) (*service.PlanSnapshot, error) {
	if m.SnapshotFunc != nil {
		return m.SnapshotFunc(ctx)
	}
	cfg := tables.Get(m.Table)
	return &service.PlanSnapshot{
		Date:        m.Date,
		Table:       cfg,
		Assignments: grid.NewAssignmentMap(),
		Rows:        []service.PlanRow{},
	}, nil
}

func (m *MockPlannerService) PurgePerson(ctx context.Context, personID int64) error {
	m.PurgedIDs = append(m.PurgedIDs, personID)
	return nil
}

func (m *MockPlannerService) ActiveDate() string {
	return m.Date
}

func (m *MockPlannerService) ActiveTable() tables.Key {
	return m.Table
}

func (m *MockPlannerService) StoredDates(ctx context.Context) ([]string, error) {
	return m.Dates, nil
}

// MockImportService is a mock implementation of ImportService
type MockImportService struct {
	ImportFunc    func(ctx context.Context, filePath string) (*models.ImportResult, error)
	ImportedPaths []string
}

// Verify interface compliance
var _ service.ImportService = (*MockImportService)(nil)

func (m *MockImportService) ImportRoster(ctx context.Context, filePath string) (*models.ImportResult, error) {
	m.ImportedPaths = append(m.ImportedPaths, filePath)
	if m.ImportFunc != nil {
		return m.ImportFunc(ctx, filePath)
	}
	return &models.ImportResult{RunID: "test-run-id"}, nil
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	StreamFunc func(ctx context.Context, w io.Writer) (int, error)
}

// Verify interface compliance
var _ service.ExportService = (*MockExportService)(nil)

func (m *MockExportService) StreamPersonnelCSV(ctx context.Context, w io.Writer) (int, error) {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, w)
	}
	return 0, nil
}

// MockSyncService is a mock implementation of SyncService
type MockSyncService struct {
	TriggerFunc    func(ctx context.Context) (*service.SyncStatus, error)
	CurrentStatus  *service.SyncStatus
	QueuedDeletes  []string
	TriggeredCount int
}

// Verify interface compliance
var _ service.SyncService = (*MockSyncService)(nil)

func (m *MockSyncService) StartProcessor(ctx context.Context) {}

func (m *MockSyncService) StopProcessor() {}

func (m *MockSyncService) TriggerSync(ctx context.Context) (*service.SyncStatus, error) {
	m.TriggeredCount++
	if m.TriggerFunc != nil {
		return m.TriggerFunc(ctx)
	}
	return m.status(), nil
}

func (m *MockSyncService) Status(ctx context.Context) (*service.SyncStatus, error) {
	return m.status(), nil
}

func (m *MockSyncService) QueueDelete(remoteID string) {
	m.QueuedDeletes = append(m.QueuedDeletes, remoteID)
}

func (m *MockSyncService) status() *service.SyncStatus {
	if m.CurrentStatus != nil {
		return m.CurrentStatus
	}
	return &service.SyncStatus{}
}
