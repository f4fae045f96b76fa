package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/or-planner-api/internal/database"
	"github.com/or-planner-api/internal/grid"
	"github.com/or-planner-api/internal/tables"
	"github.com/rs/zerolog"
)

// planRepo is the concrete implementation of PlanRepository
type planRepo struct {
	db  *database.DB
	log zerolog.Logger
}

// NewPlanRepo creates a new plan snapshot repository
func NewPlanRepo(db *database.DB, log zerolog.Logger) PlanRepository {
	return &planRepo{db: db, log: log.With().Str("component", "plan_repo").Logger()}
}

// LoadAssignments loads the snapshot stored under date. A missing snapshot
// yields an empty map; a corrupt one is logged and degrades to an empty map
// with Degraded set, it never propagates a decode error.
func (r *planRepo) LoadAssignments(ctx context.Context, date string) (grid.AssignmentMap, LoadOutcome, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM plan_snapshots WHERE plan_date = $1`, date).Scan(&raw)
	if err == sql.ErrNoRows {
		return grid.NewAssignmentMap(), LoadOutcome{}, nil
	}
	if err != nil {
		return nil, LoadOutcome{}, err
	}

	m, decodeErr := grid.Decode([]byte(raw))
	if decodeErr != nil {
		r.log.Warn().Err(decodeErr).Str("date", date).Msg("Corrupt assignment snapshot, degrading to empty plan")
		return grid.NewAssignmentMap(), LoadOutcome{Found: true, Degraded: true, Reason: decodeErr.Error()}, nil
	}
	return m, LoadOutcome{Found: true}, nil
}

// SaveAssignments upserts the snapshot for date
func (r *planRepo) SaveAssignments(ctx context.Context, date string, m grid.AssignmentMap) error {
	data, err := m.Encode()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO plan_snapshots (plan_date, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (plan_date) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`, date, string(data), time.Now())
	return err
}

// LoadState reads the active date/table mirror; defaults when absent
func (r *planRepo) LoadState(ctx context.Context) (PlanState, error) {
	var state PlanState
	var table string
	err := r.db.QueryRowContext(ctx,
		`SELECT active_date, active_table FROM plan_state WHERE id = 1`).
		Scan(&state.ActiveDate, &table)
	if err == sql.ErrNoRows {
		return PlanState{ActiveTable: tables.Main}, nil
	}
	if err != nil {
		return PlanState{}, err
	}
	state.ActiveTable = tables.Key(table)
	if !state.ActiveTable.Valid() {
		state.ActiveTable = tables.Main
	}
	return state, nil
}

// SaveState upserts the active date/table mirror
func (r *planRepo) SaveState(ctx context.Context, state PlanState) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO plan_state (id, active_date, active_table, updated_at)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			active_date = EXCLUDED.active_date,
			active_table = EXCLUDED.active_table,
			updated_at = EXCLUDED.updated_at
	`, state.ActiveDate, string(state.ActiveTable), time.Now())
	return err
}

// ListDates returns every date with a stored snapshot, ascending
func (r *planRepo) ListDates(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT plan_date FROM plan_snapshots ORDER BY plan_date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
