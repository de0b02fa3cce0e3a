package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"pagelift/internal/domain"
	"pagelift/internal/port"
)

// LocalStore keeps per-run scratch artifacts on the local filesystem:
// one JSON-serialized work item per page under items/, page images under
// images/. Keys are deterministic per (document, page), so concurrent
// documents never write the same file.
type LocalStore struct {
	root string
}

// NewLocalStore creates a store rooted at dir, creating it if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating scratch root %s: %v", domain.ErrResourceUnavailable, dir, err)
	}
	return &LocalStore{root: dir}, nil
}

// CreateRun sets up the scratch space for one run.
func (s *LocalStore) CreateRun(runID string) (port.RunSpace, error) {
	runDir := filepath.Join(s.root, runID)
	for _, sub := range []string{"items", "images"} {
		if err := os.MkdirAll(filepath.Join(runDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("%w: creating run directory: %v", domain.ErrResourceUnavailable, err)
		}
	}
	return &runSpace{dir: runDir}, nil
}

type runSpace struct {
	dir string
}

func (r *runSpace) ImageDir() string {
	return filepath.Join(r.dir, "images")
}

func (r *runSpace) SaveItem(ctx context.Context, item domain.WorkItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding work item %s: %w", item.Key(), err)
	}
	path := filepath.Join(r.dir, "items", item.Key()+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing work item %s: %w", item.Key(), err)
	}
	return nil
}

func (r *runSpace) LoadItem(ctx context.Context, key string) (domain.WorkItem, error) {
	if err := ctx.Err(); err != nil {
		return domain.WorkItem{}, err
	}
	data, err := os.ReadFile(filepath.Join(r.dir, "items", key+".json"))
	if err != nil {
		return domain.WorkItem{}, fmt.Errorf("reading work item %s: %w", key, err)
	}
	var item domain.WorkItem
	if err := json.Unmarshal(data, &item); err != nil {
		return domain.WorkItem{}, fmt.Errorf("decoding work item %s: %w", key, err)
	}
	return item, nil
}

func (r *runSpace) Cleanup() error {
	return os.RemoveAll(r.dir)
}
