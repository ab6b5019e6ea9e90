package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/smallnest/planweave/store"
)

// FilePlanStore implements store.PlanStore with one JSON file per plan under
// a base directory.
type FilePlanStore struct {
	dir string
}

var _ store.PlanStore = (*FilePlanStore)(nil)

// NewFilePlanStore creates a file-backed plan store rooted at dir, creating
// the directory if needed.
func NewFilePlanStore(dir string) (*FilePlanStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create plan store directory: %w", err)
	}
	return &FilePlanStore{dir: dir}, nil
}

func (s *FilePlanStore) path(planID string) string {
	// Plan IDs are UUIDs; sanitize anyway so a hostile ID cannot escape dir.
	safe := strings.ReplaceAll(planID, string(os.PathSeparator), "_")
	return filepath.Join(s.dir, safe+".json")
}

// Save stores a plan record, replacing any previous snapshot.
func (s *FilePlanStore) Save(ctx context.Context, record *store.PlanRecord) error {
	if record.PlanID == "" {
		return fmt.Errorf("plan record has no plan ID")
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan record: %w", err)
	}

	if err := os.WriteFile(s.path(record.PlanID), data, 0o644); err != nil {
		return fmt.Errorf("failed to write plan record: %w", err)
	}
	return nil
}

// Load retrieves the latest snapshot of a plan.
func (s *FilePlanStore) Load(ctx context.Context, planID string) (*store.PlanRecord, error) {
	data, err := os.ReadFile(s.path(planID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", store.ErrRecordNotFound, planID)
		}
		return nil, fmt.Errorf("failed to read plan record: %w", err)
	}

	var record store.PlanRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan record: %w", err)
	}
	return &record, nil
}

// List returns the IDs of all stored plans.
func (s *FilePlanStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list plan store directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// Delete removes a plan's snapshot.
func (s *FilePlanStore) Delete(ctx context.Context, planID string) error {
	err := os.Remove(s.path(planID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete plan record: %w", err)
	}
	return nil
}
