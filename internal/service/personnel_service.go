package service

import (
	"context"
	"strings"
	"sync"

	"github.com/or-planner-api/internal/models"
	"github.com/or-planner-api/internal/repository"
	"github.com/rs/zerolog"
)

// personnelService is the concrete implementation of PersonnelService. It
// owns the authoritative local directory; the remote directory only ever
// sees changes after they are applied and persisted locally.
type personnelService struct {
	repo    repository.PersonnelRepository
	planner PlannerService
	sync    SyncService
	log     zerolog.Logger

	// Serializes the full-replace availability import against CRUD.
	mu sync.Mutex
}

// newPersonnelService creates a new PersonnelService
func newPersonnelService(repo repository.PersonnelRepository, planner PlannerService, sync SyncService, log zerolog.Logger) *personnelService {
	return &personnelService{
		repo:    repo,
		planner: planner,
		sync:    sync,
		log:     log.With().Str("service", "personnel").Logger(),
	}
}

// Add creates a new person. Initials are derived when not provided,
// IsActive defaults from the availability state, and the record is marked
// pending-add for the next directory sync.
func (s *personnelService) Add(ctx context.Context, person *models.Person) (*models.Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if person.Initials == "" {
		person.Initials = models.DeriveInitials(person.Name)
	}
	if available(person.AvailabilityState) {
		person.IsActive = true
	}
	person.SyncState = models.SyncStateAdd

	if err := s.repo.Create(ctx, person); err != nil {
		return nil, err
	}
	s.log.Info().Int64("person_id", person.ID).Str("name", person.Name).Msg("Person added")
	return person, nil
}

// Update merges the partial update field by field into the stored record.
// Unknown ids report false without an error. When the name changes and no
// explicit initials override comes with it, initials are re-derived.
func (s *personnelService) Update(ctx context.Context, id int64, upd *models.PersonUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	person, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if person == nil {
		return false, nil
	}

	mergePerson(person, upd)

	// An unsynced add stays an add; everything else becomes a pending update.
	if person.SyncState != models.SyncStateAdd {
		person.SyncState = models.SyncStateUpdate
	}

	ok, err := s.repo.Update(ctx, person)
	if err != nil {
		return false, err
	}
	if ok {
		s.log.Info().Int64("person_id", id).Msg("Person updated")
	}
	return ok, nil
}

// Delete removes the person locally, purges every loaded plan cell holding
// the id, and queues the remote-directory deletion. Unknown ids report
// false without an error.
func (s *personnelService) Delete(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	person, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if person == nil {
		return false, nil
	}

	ok, err := s.repo.Delete(ctx, id)
	if err != nil || !ok {
		return ok, err
	}

	// No dangling ids: the grid engine drops the person from every loaded
	// date before the delete is acknowledged.
	if err := s.planner.PurgePerson(ctx, id); err != nil {
		s.log.Error().Err(err).Int64("person_id", id).Msg("Failed to purge deleted person from plans")
	}
	if person.RemoteID != "" && s.sync != nil {
		s.sync.QueueDelete(person.RemoteID)
	}
	s.log.Info().Int64("person_id", id).Str("name", person.Name).Msg("Person deleted")
	return true, nil
}

// List returns all personnel in insertion order
func (s *personnelService) List(ctx context.Context) ([]models.Person, error) {
	return s.repo.ListAll(ctx)
}

// Get returns one person, nil when not found
func (s *personnelService) Get(ctx context.Context, id int64) (*models.Person, error) {
	return s.repo.GetByID(ctx, id)
}

// Eligible returns the draggable sidebar list: matching search and group,
// available per the latest roster import. Already-placed people remain
// eligible so the same person can be planned into more than one cell.
func (s *personnelService) Eligible(ctx context.Context, search, group string) ([]models.Person, error) {
	people, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]models.Person, 0, len(people))
	for _, p := range people {
		if needle != "" &&
			!strings.Contains(strings.ToLower(p.Name), needle) &&
			!strings.Contains(strings.ToLower(p.Group), needle) {
			continue
		}
		if group != "" && group != "all" && p.Group != group {
			continue
		}
		if !available(p.AvailabilityState) {
			continue
		}
		if p.IsAvailable != nil && !*p.IsAvailable {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// ApplyAvailabilityUpdate replaces the availability snapshot from a roster
// import: matched persons get the joined categories and per-assignment tag
// lists, everyone else is marked unavailable with cleared tags. Returns the
// number of matched persons.
func (s *personnelService) ApplyAvailabilityUpdate(ctx context.Context, assignments []models.ShiftAssignment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byName := make(map[string][]models.ShiftAssignment)
	for _, a := range assignments {
		key := models.NormalizeName(a.Name)
		byName[key] = append(byName[key], a)
	}

	people, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	tags := make(models.AvailabilityTagSet, len(people))
	matched := 0
	for i := range people {
		person := &people[i]
		personAssignments := byName[models.NormalizeName(person.Name)]

		if len(personAssignments) > 0 {
			matched++
			availabilities := make([]string, 0, len(personAssignments))
			shiftTypes := make([]string, 0, len(personAssignments))
			for _, a := range personAssignments {
				availabilities = append(availabilities, a.Availability)
				shiftTypes = append(shiftTypes, a.ShiftType)
			}
			person.AvailabilityState = strings.Join(availabilities, ", ")
			person.ShiftAssignment = strings.Join(shiftTypes, ", ")
			person.AvailabilityTags = availabilities
			person.ShiftTags = shiftTypes
			person.IsAvailable = boolPtr(true)
			tags[person.ID] = availabilities
		} else {
			person.AvailabilityState = models.AvailabilityNone
			person.ShiftAssignment = ""
			person.AvailabilityTags = nil
			person.ShiftTags = nil
			person.IsAvailable = boolPtr(false)
			tags[person.ID] = nil
		}

		if _, err := s.repo.Update(ctx, person); err != nil {
			return matched, err
		}
	}

	if err := s.repo.SaveAvailabilityTags(ctx, tags); err != nil {
		return matched, err
	}

	s.log.Info().
		Int("assignments", len(assignments)).
		Int("matched", matched).
		Int("personnel", len(people)).
		Msg("Availability snapshot replaced")
	return matched, nil
}

// AvailabilityTags returns the per-person availability categories from the
// most recent roster import, keyed by person id.
func (s *personnelService) AvailabilityTags(ctx context.Context) (models.AvailabilityTagSet, error) {
	return s.repo.LoadAvailabilityTags(ctx)
}

// HasUnsyncedChanges reports whether any record carries a pending-sync marker
func (s *personnelService) HasUnsyncedChanges(ctx context.Context) (bool, error) {
	pending, err := s.repo.ListPendingSync(ctx)
	if err != nil {
		return false, err
	}
	return len(pending) > 0, nil
}

// Count returns the total number of personnel records
func (s *personnelService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// mergePerson applies only the fields the update carries. The schema is
// fixed; nothing outside these fields can reach persisted state.
func mergePerson(person *models.Person, upd *models.PersonUpdate) {
	nameChanged := false
	if upd.Name != nil && *upd.Name != person.Name {
		person.Name = *upd.Name
		nameChanged = true
	}
	if upd.Group != nil {
		person.Group = *upd.Group
	}
	if upd.Department != nil {
		person.Department = *upd.Department
	}
	if upd.Comment != nil {
		person.Comment = *upd.Comment
	}
	if upd.AvailabilityState != nil {
		person.AvailabilityState = *upd.AvailabilityState
	}
	if upd.ShiftAssignment != nil {
		person.ShiftAssignment = *upd.ShiftAssignment
	}
	if upd.IsActive != nil {
		person.IsActive = *upd.IsActive
	}
	if upd.Initials != nil {
		person.Initials = *upd.Initials
	} else if nameChanged {
		person.Initials = models.DeriveInitials(person.Name)
	}
}

func available(state string) bool {
	return state != "" && state != models.AvailabilityNone
}

func boolPtr(v bool) *bool {
	return &v
}
