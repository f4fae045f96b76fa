package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/or-planner-api/internal/database"
	"github.com/or-planner-api/internal/models"
	"github.com/rs/zerolog"
)

// personnelRepo is the concrete implementation of PersonnelRepository
type personnelRepo struct {
	db  *database.DB
	log zerolog.Logger
}

// NewPersonnelRepo creates a new personnel repository
func NewPersonnelRepo(db *database.DB, log zerolog.Logger) PersonnelRepository {
	return &personnelRepo{db: db, log: log.With().Str("component", "personnel_repo").Logger()}
}

const personnelColumns = `id, name, group_name, department, comment, availability_state,
	initials, is_active, shift_assignment, availability_tags, shift_tags,
	is_available, sync_state, remote_id, created_at, updated_at`

// Create inserts a new person; the id comes from the bigserial sequence so
// ids never collide, even under rapid successive creation.
func (r *personnelRepo) Create(ctx context.Context, person *models.Person) error {
	query := `
		INSERT INTO personnel (name, group_name, department, comment, availability_state,
			initials, is_active, shift_assignment, availability_tags, shift_tags,
			is_available, sync_state, remote_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	now := time.Now()
	person.CreatedAt = now
	person.UpdatedAt = now
	person.AvailabilityTagsJSON = encodeTags(person.AvailabilityTags)
	person.ShiftTagsJSON = encodeTags(person.ShiftTags)

	return r.db.QueryRowContext(ctx, query,
		person.Name, person.Group, person.Department, person.Comment, person.AvailabilityState,
		person.Initials, person.IsActive, person.ShiftAssignment,
		person.AvailabilityTagsJSON, person.ShiftTagsJSON,
		nullBool(person.IsAvailable), person.SyncState, person.RemoteID,
		person.CreatedAt, person.UpdatedAt,
	).Scan(&person.ID)
}

// Update writes the full record back; returns false when the id is unknown
func (r *personnelRepo) Update(ctx context.Context, person *models.Person) (bool, error) {
	query := `
		UPDATE personnel SET
			name = $2, group_name = $3, department = $4, comment = $5,
			availability_state = $6, initials = $7, is_active = $8,
			shift_assignment = $9, availability_tags = $10, shift_tags = $11,
			is_available = $12, sync_state = $13, remote_id = $14, updated_at = $15
		WHERE id = $1
	`
	person.UpdatedAt = time.Now()
	person.AvailabilityTagsJSON = encodeTags(person.AvailabilityTags)
	person.ShiftTagsJSON = encodeTags(person.ShiftTags)

	res, err := r.db.ExecContext(ctx, query,
		person.ID,
		person.Name, person.Group, person.Department, person.Comment,
		person.AvailabilityState, person.Initials, person.IsActive,
		person.ShiftAssignment, person.AvailabilityTagsJSON, person.ShiftTagsJSON,
		nullBool(person.IsAvailable), person.SyncState, person.RemoteID,
		person.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Delete removes a person; returns false when the id is unknown
func (r *personnelRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM personnel WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availability_tags WHERE person_id = $1`, id); err != nil {
		r.log.Error().Err(err).Int64("person_id", id).Msg("Failed to delete availability tags")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetByID retrieves a person by id; nil when not found
func (r *personnelRepo) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+personnelColumns+` FROM personnel WHERE id = $1`, id)
	person, err := scanPerson(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return person, nil
}

// ListAll retrieves every person in insertion (id) order
func (r *personnelRepo) ListAll(ctx context.Context) ([]models.Person, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+personnelColumns+` FROM personnel ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, *person)
	}
	return people, rows.Err()
}

// Count returns the total number of personnel records
func (r *personnelRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM personnel`).Scan(&count)
	return count, err
}

// ListPendingSync returns records carrying a pending-sync marker
func (r *personnelRepo) ListPendingSync(ctx context.Context) ([]models.Person, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+personnelColumns+` FROM personnel WHERE sync_state <> '' ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var people []models.Person
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, *person)
	}
	return people, rows.Err()
}

// ClearSyncState resets the pending marker after a successful remote sync
func (r *personnelRepo) ClearSyncState(ctx context.Context, id int64, remoteID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE personnel SET sync_state = '', remote_id = $2, updated_at = $3 WHERE id = $1`,
		id, remoteID, time.Now())
	return err
}

// SaveAvailabilityTags replaces the whole tag set; each roster import
// supersedes the previous snapshot entirely.
func (r *personnelRepo) SaveAvailabilityTags(ctx context.Context, tags models.AvailabilityTagSet) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_tags`); err != nil {
		return err
	}
	now := time.Now()
	for personID, list := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO availability_tags (person_id, tags, updated_at) VALUES ($1, $2, $3)`,
			personID, encodeTags(list), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadAvailabilityTags loads the current tag set; a corrupt row degrades to
// an empty tag list for that person.
func (r *personnelRepo) LoadAvailabilityTags(ctx context.Context) (models.AvailabilityTagSet, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT person_id, tags FROM availability_tags`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make(models.AvailabilityTagSet)
	for rows.Next() {
		var personID int64
		var raw string
		if err := rows.Scan(&personID, &raw); err != nil {
			return nil, err
		}
		tags[personID] = r.decodeTagRow(personID, raw)
	}
	return tags, rows.Err()
}

// decodeTagRow decodes one stored tag list; a corrupt row degrades to an
// empty list instead of failing the whole load.
func (r *personnelRepo) decodeTagRow(personID int64, raw string) []string {
	list, err := decodeTags(raw)
	if err != nil {
		r.log.Warn().Err(err).Int64("person_id", personID).Msg("Corrupt availability tags, degrading to empty")
		return nil
	}
	return list
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPerson(row scanner) (*models.Person, error) {
	var p models.Person
	var isAvailable sql.NullBool
	err := row.Scan(
		&p.ID, &p.Name, &p.Group, &p.Department, &p.Comment, &p.AvailabilityState,
		&p.Initials, &p.IsActive, &p.ShiftAssignment,
		&p.AvailabilityTagsJSON, &p.ShiftTagsJSON,
		&isAvailable, &p.SyncState, &p.RemoteID, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if isAvailable.Valid {
		v := isAvailable.Bool
		p.IsAvailable = &v
	}
	// Corrupt tag columns degrade to empty lists rather than failing the scan.
	if tags, err := decodeTags(p.AvailabilityTagsJSON); err == nil {
		p.AvailabilityTags = tags
	}
	if tags, err := decodeTags(p.ShiftTagsJSON); err == nil {
		p.ShiftTags = tags
	}
	return &p, nil
}

func encodeTags(tags []string) string {
	if len(tags) == 0 {
		return "[]"
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

func nullBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
