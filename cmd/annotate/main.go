// Command annotate rasterizes a directory of PDFs and copies the rendered
// page images into a target directory for annotation tooling.
// Usage: annotate -pdf-dir ./pdfs -img-dir ./images
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"sort"

	"pagelift/internal/artifact"
	"pagelift/internal/config"
	"pagelift/internal/domain"
	"pagelift/internal/pipeline"
	"pagelift/internal/rasterize"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pdfDir := flag.String("pdf-dir", "", "directory of input PDFs (required)")
	imgDir := flag.String("img-dir", "", "target directory for page images (required)")
	flag.Parse()

	if *pdfDir == "" || *imgDir == "" {
		flag.Usage()
		return fmt.Errorf("-pdf-dir and -img-dir are required")
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	pool, err := pipeline.NewPool(cfg.Pool)
	if err != nil {
		return err
	}
	store, err := artifact.NewLocalStore(cfg.Pipeline.ScratchDir)
	if err != nil {
		return err
	}
	rasterizer := rasterize.NewGhostscript(cfg.Raster, rasterize.NewPoppler(cfg.Raster), logger)

	engine, err := pipeline.NewEngine(pool, rasterizer, store, pipeline.Dependencies{}, logger)
	if err != nil {
		return err
	}

	paths, err := filepath.Glob(filepath.Join(*pdfDir, "*.pdf"))
	if err != nil {
		return fmt.Errorf("listing %s: %w", *pdfDir, err)
	}
	sort.Strings(paths)

	docs := make([]domain.Document, 0, len(paths))
	for _, p := range paths {
		docs = append(docs, domain.Document{Name: filepath.Base(p), SourcePath: p})
	}
	if len(docs) == 0 {
		return fmt.Errorf("no PDFs found in %s", *pdfDir)
	}

	return engine.WriteAnnotationImages(context.Background(), docs, *imgDir)
}
