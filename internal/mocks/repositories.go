package mocks

import (
	"context"
	"sort"
	"sync/atomic"

	"github.com/or-planner-api/internal/grid"
	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/repository"
	"github.com/or-planner-api/internal/tables"
)

// MockPersonnelRepository is an in-memory implementation of
// PersonnelRepository. ListAll returns people ordered by id, matching the
// insertion-ordered listing of the real repository.
type MockPersonnelRepository struct {
	People      map[int64]*models.Person
	Tags        models.AvailabilityTagSet
	nextID      int64
	CreateError error
	UpdateError error
	ListError   error
	UpdateCalls int
	ClearedIDs  []int64
}

// Verify interface compliance
var _ repository.PersonnelRepository = (*MockPersonnelRepository)(nil)

func NewMockPersonnelRepository() *MockPersonnelRepository {
	return &MockPersonnelRepository{
		People: make(map[int64]*models.Person),
		Tags:   make(models.AvailabilityTagSet),
	}
}

func (m *MockPersonnelRepository) Create(ctx context.Context, person *models.Person) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	person.ID = atomic.AddInt64(&m.nextID, 1)
	stored := *person
	m.People[person.ID] = &stored
	return nil
}

func (m *MockPersonnelRepository) Update(ctx context.Context, person *models.Person) (bool, error) {
	m.UpdateCalls++
	if m.UpdateError != nil {
		return false, m.UpdateError
	}
	if _, ok := m.People[person.ID]; !ok {
		return false, nil
	}
	stored := *person
	m.People[person.ID] = &stored
	return true, nil
}

func (m *MockPersonnelRepository) Delete(ctx context.Context, id int64) (bool, error) {
	if _, ok := m.People[id]; !ok {
		return false, nil
	}
	delete(m.People, id)
	delete(m.Tags, id)
	return true, nil
}

func (m *MockPersonnelRepository) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	person, ok := m.People[id]
	if !ok {
		return nil, nil
	}
	copied := *person
	return &copied, nil
}

func (m *MockPersonnelRepository) ListAll(ctx context.Context) ([]models.Person, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	ids := make([]int64, 0, len(m.People))
	for id := range m.People {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	people := make([]models.Person, 0, len(ids))
	for _, id := range ids {
		people = append(people, *m.People[id])
	}
	return people, nil
}

func (m *MockPersonnelRepository) Count(ctx context.Context) (int, error) {
	return len(m.People), nil
}

func (m *MockPersonnelRepository) ListPendingSync(ctx context.Context) ([]models.Person, error) {
	all, err := m.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]models.Person, 0)
	for _, p := range all {
		if p.SyncState != models.SyncStateNone {
			pending = append(pending, p)
		}
	}
	return pending, nil
}

func (m *MockPersonnelRepository) ClearSyncState(ctx context.Context, id int64, remoteID string) error {
	if person, ok := m.People[id]; ok {
		person.SyncState = models.SyncStateNone
		person.RemoteID = remoteID
	}
	m.ClearedIDs = append(m.ClearedIDs, id)
	return nil
}

func (m *MockPersonnelRepository) SaveAvailabilityTags(ctx context.Context, tags models.AvailabilityTagSet) error {
	m.Tags = make(models.AvailabilityTagSet, len(tags))
	for id, t := range tags {
		m.Tags[id] = append([]string(nil), t...)
	}
	return nil
}

func (m *MockPersonnelRepository) LoadAvailabilityTags(ctx context.Context) (models.AvailabilityTagSet, error) {
	return m.Tags, nil
}

// MockPlanRepository is an in-memory implementation of PlanRepository. It
// stores snapshots as raw encoded bytes, so tests can seed corrupt data and
// exercise the degrade-to-empty path.
type MockPlanRepository struct {
	Snapshots map[string]string
	State     *repository.PlanState
	SaveError error
	SaveCalls int
}

// Verify interface compliance
var _ repository.PlanRepository = (*MockPlanRepository)(nil)

func NewMockPlanRepository() *MockPlanRepository {
	return &MockPlanRepository{
		Snapshots: make(map[string]string),
	}
}

func (m *MockPlanRepository) LoadAssignments(ctx context.Context, date string) (grid.AssignmentMap, repository.LoadOutcome, error) {
	raw, ok := m.Snapshots[date]
	if !ok {
		return grid.NewAssignmentMap(), repository.LoadOutcome{}, nil
	}
	decoded, err := grid.Decode([]byte(raw))
	if err != nil {
		return grid.NewAssignmentMap(), repository.LoadOutcome{Found: true, Degraded: true, Reason: err.Error()}, nil
	}
	return decoded, repository.LoadOutcome{Found: true}, nil
}

func (m *MockPlanRepository) SaveAssignments(ctx context.Context, date string, assignments grid.AssignmentMap) error {
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}
	data, err := assignments.Encode()
	if err != nil {
		return err
	}
	m.Snapshots[date] = string(data)
	return nil
}

func (m *MockPlanRepository) LoadState(ctx context.Context) (repository.PlanState, error) {
	if m.State == nil {
		return repository.PlanState{ActiveTable: tables.Main}, nil
	}
	return *m.State, nil
}

func (m *MockPlanRepository) SaveState(ctx context.Context, state repository.PlanState) error {
	copied := state
	m.State = &copied
	return nil
}

func (m *MockPlanRepository) ListDates(ctx context.Context) ([]string, error) {
	dates := make([]string, 0, len(m.Snapshots))
	for d := range m.Snapshots {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}
