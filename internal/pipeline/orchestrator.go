package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pagelift/internal/domain"
	"pagelift/internal/port"
)

// RunSummary reports what a run processed and excluded. Exclusions are
// counted and logged, never hidden.
type RunSummary struct {
	TotalDocuments  int
	FailedDocuments int
	TotalPages      int
	FailedItems     int
	RowCount        int
}

// RunResult is the output of one batch run: the flat result table, the
// requested aggregate views, and the run summary.
type RunResult struct {
	DatasetID string
	Rows      []domain.ResultRow
	Views     []domain.AggregateView
	Summary   RunSummary
}

// Engine sequences the stage chain over a batch of documents. It owns the
// resource pool and the scratch store for the lifetime of the run; callers
// create it explicitly and pass it around rather than relying on ambient
// process-wide state.
type Engine struct {
	pool       *Pool
	rasterizer port.Rasterizer
	store      port.ArtifactStore
	deps       Dependencies
	logger     *zap.Logger
}

// NewEngine creates an Engine. The rasterizer and artifact store are
// required; stage dependencies may be zero-valued to use the shipped
// defaults.
func NewEngine(pool *Pool, rasterizer port.Rasterizer, store port.ArtifactStore, deps Dependencies, logger *zap.Logger) (*Engine, error) {
	if pool == nil {
		return nil, fmt.Errorf("%w: nil pool", domain.ErrResourceUnavailable)
	}
	if rasterizer == nil || store == nil {
		return nil, fmt.Errorf("%w: rasterizer and artifact store are required", domain.ErrConfiguration)
	}
	return &Engine{
		pool:       pool,
		rasterizer: rasterizer,
		store:      store,
		deps:       deps,
		logger:     logger,
	}, nil
}

// itemState carries one work item through a stage barrier. A non-nil err
// is the item's tombstone: the failure is counted and logged, and the item
// is excluded from the downstream collection.
type itemState struct {
	item domain.WorkItem
	err  error
}

// Run executes the full pipeline over the document batch. Per-document
// and per-item failures are absorbed at the stage boundary; only
// configuration and infrastructure failures are returned.
func (e *Engine) Run(ctx context.Context, docs []domain.Document, opts Options) (*RunResult, error) {
	plan, err := BuildPlan(opts, e.deps)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	space, err := e.store.CreateRun(runID)
	if err != nil {
		return nil, fmt.Errorf("%w: creating scratch space: %v", domain.ErrResourceUnavailable, err)
	}

	summary := RunSummary{TotalDocuments: len(docs)}
	e.logger.Info("starting ingestion",
		zap.String("run_id", runID),
		zap.String("dataset_id", opts.DatasetID),
		zap.Int("documents", len(docs)),
		zap.Int("stages", len(plan)))

	items := e.rasterizeAll(ctx, docs, opts.DatasetID, space, &summary)
	summary.TotalPages = len(items)

	for _, st := range plan {
		items = e.runStage(ctx, st, space, items, &summary)
	}

	// Collection works off the serialized artifacts, not the in-memory
	// values, so the rows reflect exactly what the stages persisted.
	terminal := make([]domain.WorkItem, 0, len(items))
	for _, item := range items {
		loaded, err := space.LoadItem(ctx, item.Key())
		if err != nil {
			summary.FailedItems++
			e.logger.Error("artifact read failed",
				zap.String("document", item.Page.DocumentName),
				zap.Int("page", item.Page.PageNumber),
				zap.Error(err))
			continue
		}
		terminal = append(terminal, loaded)
	}

	rows := Collect(terminal)
	summary.RowCount = len(rows)

	views, err := RunAggregations(ctx, opts.DatasetID, rows, opts.Aggregations)
	if err != nil {
		return nil, err
	}

	if err := space.Cleanup(); err != nil {
		e.logger.Warn("scratch cleanup failed", zap.String("run_id", runID), zap.Error(err))
	}

	e.logger.Info("ingestion finished",
		zap.String("run_id", runID),
		zap.Int("rows", summary.RowCount),
		zap.Int("failed_documents", summary.FailedDocuments),
		zap.Int("failed_items", summary.FailedItems))

	return &RunResult{
		DatasetID: opts.DatasetID,
		Rows:      rows,
		Views:     views,
		Summary:   summary,
	}, nil
}

// rasterizeAll converts every document to page work items in parallel
// under cpu slots. A document whose rasterization fails is excluded
// without blocking its siblings.
func (e *Engine) rasterizeAll(ctx context.Context, docs []domain.Document, datasetID string, space port.RunSpace, summary *RunSummary) []domain.WorkItem {
	type docResult struct {
		pages []domain.PageImage
		err   error
	}
	results := make([]docResult, len(docs))

	var wg sync.WaitGroup
	for i := range docs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := e.pool.Acquire(ctx, domain.ResourceCPU); err != nil {
				results[i] = docResult{err: err}
				return
			}
			defer e.pool.Release(domain.ResourceCPU)

			doc := docs[i]
			doc.DatasetID = datasetID
			pages, err := e.rasterizer.Rasterize(ctx, doc, space.ImageDir())
			results[i] = docResult{pages: pages, err: err}
		}(i)
	}
	wg.Wait()

	var items []domain.WorkItem
	for i, res := range results {
		if res.err != nil {
			summary.FailedDocuments++
			e.logger.Error("document excluded",
				zap.String("document", docs[i].Name),
				zap.Error(res.err))
			continue
		}
		for _, page := range res.pages {
			item := domain.WorkItem{Page: page}
			if err := space.SaveItem(ctx, item); err != nil {
				summary.FailedItems++
				e.logger.Error("artifact write failed",
					zap.String("document", page.DocumentName),
					zap.Int("page", page.PageNumber),
					zap.Error(err))
				continue
			}
			items = append(items, item)
		}
	}
	return items
}

// runStage applies one stage as a bulk parallel map over the whole live
// collection: every item is submitted eagerly, then the barrier blocks
// until all complete. Only one stage's resource class is ever active at a
// time.
func (e *Engine) runStage(ctx context.Context, st port.Stage, space port.RunSpace, items []domain.WorkItem, summary *RunSummary) []domain.WorkItem {
	if len(items) == 0 {
		return items
	}

	start := time.Now()
	states := make([]itemState, len(items))
	var done atomic.Int64
	var wg sync.WaitGroup

	progressCtx, stopProgress := context.WithCancel(ctx)
	go e.reportProgress(progressCtx, st.Name(), &done, len(items))

	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer done.Add(1)

			if err := e.pool.Acquire(ctx, st.Resource()); err != nil {
				states[i] = itemState{err: err}
				return
			}
			defer e.pool.Release(st.Resource())

			out, err := st.Process(ctx, items[i])
			if err == nil {
				err = space.SaveItem(ctx, out)
			}
			states[i] = itemState{item: out, err: err}
		}(i)
	}
	wg.Wait()
	stopProgress()

	live := make([]domain.WorkItem, 0, len(items))
	for i, state := range states {
		if state.err != nil {
			summary.FailedItems++
			e.logger.Error("work item excluded",
				zap.String("stage", st.Name()),
				zap.String("document", items[i].Page.DocumentName),
				zap.Int("page", items[i].Page.PageNumber),
				zap.Error(fmt.Errorf("%w: %v", domain.ErrStageExecution, state.err)))
			continue
		}
		live = append(live, state.item)
	}

	e.logger.Info("stage complete",
		zap.String("stage", st.Name()),
		zap.String("resource", string(st.Resource())),
		zap.Int("in", len(items)),
		zap.Int("out", len(live)),
		zap.Duration("elapsed", time.Since(start)))
	return live
}

func (e *Engine) reportProgress(ctx context.Context, stage string, done *atomic.Int64, total int) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.logger.Info("stage progress",
				zap.String("stage", stage),
				zap.Int64("done", done.Load()),
				zap.Int("total", total))
		}
	}
}

// WriteAnnotationImages rasterizes the documents and copies every rendered
// page image into targetDir, named <document>_<page>.png, for annotation
// tooling.
func (e *Engine) WriteAnnotationImages(ctx context.Context, docs []domain.Document, targetDir string) error {
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("creating target directory: %w", err)
	}

	space, err := e.store.CreateRun(uuid.New().String())
	if err != nil {
		return fmt.Errorf("%w: creating scratch space: %v", domain.ErrResourceUnavailable, err)
	}
	defer func() {
		if err := space.Cleanup(); err != nil {
			e.logger.Warn("scratch cleanup failed", zap.Error(err))
		}
	}()

	summary := RunSummary{TotalDocuments: len(docs)}
	items := e.rasterizeAll(ctx, docs, "annotation", space, &summary)
	for _, item := range items {
		dst := filepath.Join(targetDir, fmt.Sprintf("%s_%d.png", item.Page.DocumentName, item.Page.PageNumber))
		if err := copyFile(item.Page.ImagePath, dst); err != nil {
			return fmt.Errorf("copying page image: %w", err)
		}
	}
	e.logger.Info("annotation images written",
		zap.Int("pages", len(items)),
		zap.Int("failed_documents", summary.FailedDocuments),
		zap.String("dir", targetDir))
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
