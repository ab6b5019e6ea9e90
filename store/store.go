package store

import (
	"context"
	"errors"
	"time"

	"github.com/smallnest/planweave/plan"
)

// ErrRecordNotFound is returned when a plan record does not exist.
var ErrRecordNotFound = errors.New("plan record not found")

// PlanRecord is a snapshot of one plan's execution state: the current plan,
// the completed sub-tasks, and bookkeeping metadata. The planner saves a
// record after every round when a store is configured.
type PlanRecord struct {
	PlanID    string         `json:"plan_id"`
	Task      string         `json:"task"`
	Plan      *plan.Plan     `json:"plan"`
	Completed []plan.SubTask `json:"completed"`
	UpdatedAt time.Time      `json:"updated_at"`
	Version   int            `json:"version"`
}

// PlanStore defines the interface for plan snapshot persistence.
type PlanStore interface {
	// Save stores a plan record, replacing any previous snapshot of the
	// same plan ID
	Save(ctx context.Context, record *PlanRecord) error

	// Load retrieves the latest snapshot of a plan
	Load(ctx context.Context, planID string) (*PlanRecord, error)

	// List returns the IDs of all stored plans
	List(ctx context.Context) ([]string, error)

	// Delete removes a plan's snapshot
	Delete(ctx context.Context, planID string) error
}
