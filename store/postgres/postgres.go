package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smallnest/planweave/plan"
	"github.com/smallnest/planweave/store"
)

// DBPool abstracts the pgx pool so tests can substitute a mock.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresPlanStore implements store.PlanStore on top of PostgreSQL.
type PostgresPlanStore struct {
	pool      DBPool
	tableName string
}

var _ store.PlanStore = (*PostgresPlanStore)(nil)

// PostgresOptions configuration for the PostgreSQL connection
type PostgresOptions struct {
	ConnString string
	TableName  string // default "plans"
}

// NewPostgresPlanStore connects to PostgreSQL and creates the plan store.
func NewPostgresPlanStore(ctx context.Context, opts PostgresOptions) (*PostgresPlanStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return NewPostgresPlanStoreWithPool(pool, opts.TableName), nil
}

// NewPostgresPlanStoreWithPool creates a plan store over an existing pool.
func NewPostgresPlanStoreWithPool(pool DBPool, tableName string) *PostgresPlanStore {
	if tableName == "" {
		tableName = "plans"
	}
	return &PostgresPlanStore{pool: pool, tableName: tableName}
}

// InitSchema creates the plans table if it does not exist.
func (s *PostgresPlanStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		plan_id TEXT PRIMARY KEY,
		task TEXT NOT NULL,
		plan JSONB NOT NULL,
		completed JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL,
		version INTEGER NOT NULL
	)`, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create plans table: %w", err)
	}
	return nil
}

// Save stores a plan record, replacing any previous snapshot.
func (s *PostgresPlanStore) Save(ctx context.Context, record *store.PlanRecord) error {
	planData, err := json.Marshal(record.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	completedData, err := json.Marshal(record.Completed)
	if err != nil {
		return fmt.Errorf("failed to marshal completed sub-tasks: %w", err)
	}

	query := fmt.Sprintf(`
	INSERT INTO %s (plan_id, task, plan, completed, updated_at, version)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (plan_id) DO UPDATE SET
		task = EXCLUDED.task,
		plan = EXCLUDED.plan,
		completed = EXCLUDED.completed,
		updated_at = EXCLUDED.updated_at,
		version = EXCLUDED.version`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		record.PlanID, record.Task, planData, completedData, record.UpdatedAt, record.Version)
	if err != nil {
		return fmt.Errorf("failed to save plan record: %w", err)
	}
	return nil
}

// Load retrieves the latest snapshot of a plan.
func (s *PostgresPlanStore) Load(ctx context.Context, planID string) (*store.PlanRecord, error) {
	query := fmt.Sprintf(`
	SELECT plan_id, task, plan, completed, updated_at, version
	FROM %s WHERE plan_id = $1`, s.tableName)

	record := &store.PlanRecord{}
	var planData, completedData []byte

	row := s.pool.QueryRow(ctx, query, planID)
	err := row.Scan(&record.PlanID, &record.Task, &planData, &completedData,
		&record.UpdatedAt, &record.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrRecordNotFound, planID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan record: %w", err)
	}

	record.Plan = &plan.Plan{}
	if err := json.Unmarshal(planData, record.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	if err := json.Unmarshal(completedData, &record.Completed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed sub-tasks: %w", err)
	}
	return record, nil
}

// List returns the IDs of all stored plans, most recently updated first.
func (s *PostgresPlanStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT plan_id FROM %s ORDER BY updated_at DESC`, s.tableName)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan records: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan plan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan records: %w", err)
	}
	return ids, nil
}

// Delete removes a plan's snapshot.
func (s *PostgresPlanStore) Delete(ctx context.Context, planID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE plan_id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, planID); err != nil {
		return fmt.Errorf("failed to delete plan record: %w", err)
	}
	return nil
}

// Close closes the underlying connection pool.
func (s *PostgresPlanStore) Close() {
	s.pool.Close()
}
