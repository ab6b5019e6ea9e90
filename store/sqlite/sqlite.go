package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/smallnest/planweave/plan"
	"github.com/smallnest/planweave/store"
)

// SqlitePlanStore implements store.PlanStore using SQLite.
type SqlitePlanStore struct {
	db        *sql.DB
	tableName string
}

var _ store.PlanStore = (*SqlitePlanStore)(nil)

// SqliteOptions configuration for the SQLite connection
type SqliteOptions struct {
	Path      string
	TableName string // Default "plans"
}

// NewSqlitePlanStore creates a new SQLite plan store.
func NewSqlitePlanStore(opts SqliteOptions) (*SqlitePlanStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "plans"
	}

	s := &SqlitePlanStore{
		db:        db,
		tableName: tableName,
	}

	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// InitSchema creates the plans table if it doesn't exist.
func (s *SqlitePlanStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			plan_id TEXT PRIMARY KEY,
			task TEXT NOT NULL,
			plan TEXT NOT NULL,
			completed TEXT NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL
		);
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqlitePlanStore) Close() error {
	return s.db.Close()
}

// Save stores a plan record, replacing any previous snapshot.
func (s *SqlitePlanStore) Save(ctx context.Context, record *store.PlanRecord) error {
	planJSON, err := json.Marshal(record.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	completedJSON, err := json.Marshal(record.Completed)
	if err != nil {
		return fmt.Errorf("failed to marshal completed sub-tasks: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (plan_id, task, plan, completed, updated_at, version)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(plan_id) DO UPDATE SET
			task = excluded.task,
			plan = excluded.plan,
			completed = excluded.completed,
			updated_at = excluded.updated_at,
			version = excluded.version
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		record.PlanID,
		record.Task,
		string(planJSON),
		string(completedJSON),
		record.UpdatedAt,
		record.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save plan record: %w", err)
	}
	return nil
}

// Load retrieves the latest snapshot of a plan.
func (s *SqlitePlanStore) Load(ctx context.Context, planID string) (*store.PlanRecord, error) {
	query := fmt.Sprintf(`
		SELECT plan_id, task, plan, completed, updated_at, version
		FROM %s WHERE plan_id = ?
	`, s.tableName)

	record := &store.PlanRecord{}
	var planJSON, completedJSON string

	err := s.db.QueryRowContext(ctx, query, planID).Scan(
		&record.PlanID,
		&record.Task,
		&planJSON,
		&completedJSON,
		&record.UpdatedAt,
		&record.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrRecordNotFound, planID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load plan record: %w", err)
	}

	record.Plan = &plan.Plan{}
	if err := json.Unmarshal([]byte(planJSON), record.Plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	if err := json.Unmarshal([]byte(completedJSON), &record.Completed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal completed sub-tasks: %w", err)
	}

	return record, nil
}

// List returns the IDs of all stored plans.
func (s *SqlitePlanStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT plan_id FROM %s ORDER BY updated_at`, s.tableName)

	rows, err := s.db.QueryContext(ctx, query)
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
	return ids, rows.Err()
}

// Delete removes a plan's snapshot.
func (s *SqlitePlanStore) Delete(ctx context.Context, planID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE plan_id = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, planID); err != nil {
		return fmt.Errorf("failed to delete plan record: %w", err)
	}
	return nil
}
