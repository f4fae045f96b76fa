package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/or-planner-api/internal/grid"
	"github.com/or-planner-api/internal/repository"
	"github.com/or-planner-api/internal/tables"
	"github.com/rs/zerolog"
)

// DateLayout is the plan snapshot key format
const DateLayout = "2006-01-02"

// Number of per-date assignment maps kept in memory. Flipping between a
// handful of nearby dates should not hit the database every time.
const planCacheSize = 32

// PlanSnapshot is the render view of the active plan: the raw assignment
// map plus the per-row span layout derived from it.
type PlanSnapshot struct {
	Date        string               `json:"date"`
	Table       tables.Configuration `json:"table"`
	Assignments grid.AssignmentMap   `json:"assignments"`
	Rows        []PlanRow            `json:"rows"`
	Degraded    bool                 `json:"degraded,omitempty"`
}

// PlanRow carries one role row's derived span data
type PlanRow struct {
	Index int               `json:"index"`
	Role  string            `json:"role"`
	Spans []grid.SpanGroup  `json:"spans,omitempty"`
	Cells []grid.CellRender `json:"cells"`
}

// plannerService is the concrete implementation of PlannerService. It owns
// the active AssignmentMap; all mutations run behind one mutex, so there is
// exactly one writer per running instance. Every mutation persists the
// active date's snapshot immediately.
type plannerService struct {
	repos *repository.Repositories
	log   zerolog.Logger

	mu          sync.Mutex
	restored    bool
	activeDate  string
	activeTable tables.Key
	active      grid.AssignmentMap
	degraded    bool
	cache       *lru.Cache[string, grid.AssignmentMap]
}

// newPlannerService creates a new PlannerService
func newPlannerService(repos *repository.Repositories, log zerolog.Logger) *plannerService {
	cache, _ := lru.New[string, grid.AssignmentMap](planCacheSize)
	return &plannerService{
		repos: repos,
		log:   log.With().Str("service", "planner").Logger(),
		cache: cache,
	}
}

// ensureRestored loads the persisted active selection once. Read failures
// degrade to an empty plan for today; they never block the engine.
func (s *plannerService) ensureRestored(ctx context.Context) {
	if s.restored {
		return
	}
	s.restored = true

	state, err := s.repos.Plan.LoadState(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load plan state, starting fresh")
		state = repository.PlanState{ActiveTable: tables.Main}
	}
	if state.ActiveDate == "" {
		state.ActiveDate = time.Now().Format(DateLayout)
	}
	s.activeDate = state.ActiveDate
	s.activeTable = state.ActiveTable
	s.loadActiveLocked(ctx)

	s.log.Info().
		Str("date", s.activeDate).
		Str("table", string(s.activeTable)).
		Int("cells", len(s.active)).
		Msg("Plan restored")
}

// loadActiveLocked loads the active date's map from cache or storage
func (s *plannerService) loadActiveLocked(ctx context.Context) {
	if cached, ok := s.cache.Get(s.activeDate); ok {
		s.active = cached
		s.degraded = false
		return
	}
	m, outcome, err := s.repos.Plan.LoadAssignments(ctx, s.activeDate)
	if err != nil {
		s.log.Error().Err(err).Str("date", s.activeDate).Msg("Failed to load assignments, starting empty")
		m = grid.NewAssignmentMap()
	}
	s.active = m
	s.degraded = outcome.Degraded
	s.cache.Add(s.activeDate, m)
}

// persistActiveLocked writes the active map under the active date
func (s *plannerService) persistActiveLocked(ctx context.Context) error {
	if err := s.repos.Plan.SaveAssignments(ctx, s.activeDate, s.active); err != nil {
		s.log.Error().Err(err).Str("date", s.activeDate).Msg("Failed to persist assignments")
		return err
	}
	return nil
}

// Drop places a value copy of the person into the target cell. Unknown
// persons and repeat drops onto the same cell are no-ops; no other cell is
// touched, so the same person may be planned into several rooms at once.
func (s *plannerService) Drop(ctx context.Context, cell grid.CellKey, personID int64) (bool, error) {
	person, err := s.repos.Personnel.GetByID(ctx, personID)
	if err != nil {
		return false, err
	}
	if person == nil {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRestored(ctx)

	if !s.active.Drop(cell, person) {
		return false, nil
	}
	s.log.Debug().
		Str("cell", cell.String()).
		Int64("person_id", personID).
		Str("date", s.activeDate).
		Msg("Person dropped")
	return true, s.persistActiveLocked(ctx)
}

// Remove filters the person out of the given cell only; emptied cells are
// pruned from the map.
func (s *plannerService) Remove(ctx context.Context, cell grid.CellKey, personID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRestored(ctx)

	if !s.active.Remove(cell, personID) {
		return false, nil
	}
	s.log.Debug().
		Str("cell", cell.String()).
		Int64("person_id", personID).
		Str("date", s.activeDate).
		Msg("Person removed")
	return true, s.persistActiveLocked(ctx)
}

// Reset clears the whole plan for the active date
func (s *plannerService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRestored(ctx)

	s.active = grid.NewAssignmentMap()
	s.degraded = false
	s.cache.Add(s.activeDate, s.active)
	s.log.Info().Str("date", s.activeDate).Msg("Plan reset")
	return s.persistActiveLocked(ctx)
}

// SelectDate switches the active date. The previous date's map stays
// durable; the new date's map is loaded, or initialized empty if none was
// ever stored.
func (s *plannerService) SelectDate(ctx context.Context, date string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("invalid plan date %q: %w", date, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRestored(ctx)

	if date == s.activeDate {
		return nil
	}
	s.activeDate = date
	s.loadActiveLocked(ctx)
	s.persistStateLocked(ctx)
	s.log.Info().Str("date", date).Int("cells", len(s.active)).Msg("Plan date selected")
	return nil
}

// SelectTable switches the active table configuration. Span data is derived
// per snapshot, so nothing computed under the previous shape survives.
func (s *plannerService) SelectTable(ctx context.Context, key tables.Key) error {
	if !key.Valid() {
		return fmt.Errorf("unknown table configuration %q", key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRestored(ctx)

	s.activeTable = key
	s.persistStateLocked(ctx)
	s.log.Info().Str("table", string(key)).Msg("Table configuration selected")
	return nil
}

// Snapshot returns the active plan plus per-row spans for the active table
func (s *plannerService) Snapshot(ctx context.Context) (*PlanSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRestored(ctx)

	cfg := tables.Get(s.activeTable)
	snapshot := &PlanSnapshot{
		Date:        s.activeDate,
		Table:       cfg,
		Assignments: s.active.Clone(),
		Rows:        make([]PlanRow, len(cfg.Roles)),
		Degraded:    s.degraded,
	}
	for i, role := range cfg.Roles {
		spans := grid.ComputeSpans(s.active, cfg.Key, i, len(cfg.Rooms))
		snapshot.Rows[i] = PlanRow{
			Index: i,
			Role:  role,
			Spans: spans,
			Cells: grid.RowLayout(spans, len(cfg.Rooms)),
		}
	}
	return snapshot, nil
}

// PurgePerson removes a deleted person from every loaded map and persists
// every date that changed. Called by the personnel directory on delete.
func (s *plannerService) PurgePerson(ctx context.Context, personID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRestored(ctx)

	var firstErr error
	for _, date := range s.cache.Keys() {
		m, ok := s.cache.Get(date)
		if !ok {
			continue
		}
		if m.Purge(personID) == 0 {
			continue
		}
		if err := s.repos.Plan.SaveAssignments(ctx, date, m); err != nil {
			s.log.Error().Err(err).Str("date", date).Msg("Failed to persist purge")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// ActiveDate returns the currently selected plan date
func (s *plannerService) ActiveDate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRestored(context.Background())
	return s.activeDate
}

// ActiveTable returns the currently selected table configuration key
func (s *plannerService) ActiveTable() tables.Key {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureRestored(context.Background())
	return s.activeTable
}

// StoredDates lists every date with a persisted snapshot
func (s *plannerService) StoredDates(ctx context.Context) ([]string, error) {
	return s.repos.Plan.ListDates(ctx)
}

func (s *plannerService) persistStateLocked(ctx context.Context) {
	state := repository.PlanState{ActiveDate: s.activeDate, ActiveTable: s.activeTable}
	if err := s.repos.Plan.SaveState(ctx, state); err != nil {
		s.log.Error().Err(err).Msg("Failed to persist plan state")
	}
}
