package port

import (
	"context"

	"pagelift/internal/domain"
)

// RunSpace is the scratch storage for one pipeline run. Artifact keys are
// deterministic per (document, page), so concurrent documents never
// collide. Cleanup removes the whole run directory recursively.
type RunSpace interface {
	// ImageDir is the directory rasterizers write page images into.
	ImageDir() string
	SaveItem(ctx context.Context, item domain.WorkItem) error
	LoadItem(ctx context.Context, key string) (domain.WorkItem, error)
	Cleanup() error
}

// ArtifactStore creates per-run scratch spaces.
type ArtifactStore interface {
	CreateRun(runID string) (RunSpace, error)
}
