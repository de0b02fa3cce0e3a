package artifact

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagelift/internal/domain"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	space, err := store.CreateRun("run-1")
	require.NoError(t, err)
	require.DirExists(t, space.ImageDir())

	ctx := context.Background()
	item := domain.WorkItem{
		Page: domain.PageImage{DocumentName: "a.pdf", DatasetID: "ds", PageNumber: 3},
		Detections: []domain.Detection{
			{Box: domain.Box{X1: 1, Y1: 2, X2: 3, Y2: 4}, Classes: []string{domain.ClassBodyText}, Scores: []float64{0.8}, Content: "hello"},
		},
	}
	require.NoError(t, space.SaveItem(ctx, item))

	got, err := space.LoadItem(ctx, item.Key())
	require.NoError(t, err)
	assert.Equal(t, item, got)
}

func TestLocalStoreSaveOverwrites(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	space, err := store.CreateRun("run-1")
	require.NoError(t, err)

	ctx := context.Background()
	item := domain.WorkItem{Page: domain.PageImage{DocumentName: "a.pdf", PageNumber: 1}}
	require.NoError(t, space.SaveItem(ctx, item))

	item.Detections = []domain.Detection{{Content: "updated"}}
	require.NoError(t, space.SaveItem(ctx, item))

	got, err := space.LoadItem(ctx, item.Key())
	require.NoError(t, err)
	require.Len(t, got.Detections, 1)
	assert.Equal(t, "updated", got.Detections[0].Content)
}

func TestLocalStoreLoadMissingKey(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	space, err := store.CreateRun("run-1")
	require.NoError(t, err)

	_, err = space.LoadItem(context.Background(), "nope_0")
	assert.Error(t, err)
}

func TestLocalStoreCleanup(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocalStore(root)
	require.NoError(t, err)
	space, err := store.CreateRun("run-1")
	require.NoError(t, err)

	item := domain.WorkItem{Page: domain.PageImage{DocumentName: "a.pdf", PageNumber: 1}}
	require.NoError(t, space.SaveItem(context.Background(), item))

	require.NoError(t, space.Cleanup())
	_, err = os.Stat(filepath.Join(root, "run-1"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreRunsAreIsolated(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	a, err := store.CreateRun("run-a")
	require.NoError(t, err)
	b, err := store.CreateRun("run-b")
	require.NoError(t, err)
	assert.NotEqual(t, a.ImageDir(), b.ImageDir())

	item := domain.WorkItem{Page: domain.PageImage{DocumentName: "a.pdf", PageNumber: 1}}
	require.NoError(t, a.SaveItem(context.Background(), item))
	_, err = b.LoadItem(context.Background(), item.Key())
	assert.Error(t, err)
}
