// Command ingest runs the document pipeline over a directory of PDFs and
// writes the result table and aggregate views as parquet.
// Usage: ingest -pdf-dir ./pdfs -dataset-id mydataset [-aggregations pdfs,classes]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"pagelift/internal/artifact"
	"pagelift/internal/config"
	"pagelift/internal/domain"
	"pagelift/internal/export"
	"pagelift/internal/ocr"
	"pagelift/internal/pipeline"
	"pagelift/internal/rasterize"
	s3storage "pagelift/internal/storage/s3"
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
	datasetID := flag.String("dataset-id", "", "dataset identifier (required)")
	outDir := flag.String("out", cfg.Output.Dir, "output directory")
	detection := flag.Bool("detection", cfg.Pipeline.UseSemanticDetection, "run semantic detection")
	classify := flag.Bool("classify", cfg.Pipeline.UseClassifierPostprocess, "run classifier postprocess")
	rules := flag.Bool("rules", cfg.Pipeline.UseRulePostprocess, "run rule postprocess")
	skipOCR := flag.Bool("skip-ocr", cfg.Pipeline.SkipTextExtraction, "pool text from PDF geometry instead of OCR")
	visualize := flag.Bool("visualize-proposals", cfg.Pipeline.VisualizeProposals, "write proposal visualization images")
	aggregations := flag.String("aggregations", "", "comma-separated aggregation names (available: "+strings.Join(pipeline.AggregationNames(), ", ")+")")
	xlsxReport := flag.Bool("xlsx-report", cfg.Output.XLSXReport, "also write an xlsx run report")
	flag.Parse()

	if *pdfDir == "" || *datasetID == "" {
		flag.Usage()
		return fmt.Errorf("-pdf-dir and -dataset-id are required")
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	docs, err := findDocuments(*pdfDir, *datasetID)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("no PDFs found in %s", *pdfDir)
	}

	pool, err := pipeline.NewPool(cfg.Pool)
	if err != nil {
		return err
	}
	store, err := artifact.NewLocalStore(cfg.Pipeline.ScratchDir)
	if err != nil {
		return err
	}
	rasterizer := rasterize.NewGhostscript(cfg.Raster, rasterize.NewPoppler(cfg.Raster), logger)

	deps := pipeline.Dependencies{}
	if !*skipOCR {
		deps.Extractor = ocr.NewTesseract(cfg.OCR)
	}

	engine, err := pipeline.NewEngine(pool, rasterizer, store, deps, logger)
	if err != nil {
		return err
	}

	opts := pipeline.Options{
		DatasetID:                *datasetID,
		UseSemanticDetection:     *detection,
		UseClassifierPostprocess: *classify,
		UseRulePostprocess:       *rules,
		SkipTextExtraction:       *skipOCR,
		VisualizeProposals:       *visualize,
		Aggregations:             splitNames(*aggregations),
	}

	result, err := engine.Run(context.Background(), docs, opts)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	outputs := []string{export.ResultPath(*outDir, result.DatasetID)}
	if err := export.WriteResults(outputs[0], result.Rows); err != nil {
		return err
	}
	for _, view := range result.Views {
		path := export.AggregatePath(*outDir, result.DatasetID, view.Name)
		if err := export.WriteAggregate(path, view); err != nil {
			return err
		}
		outputs = append(outputs, path)
	}
	if *xlsxReport {
		if err := export.WriteReport(filepath.Join(*outDir, result.DatasetID+".xlsx"), result); err != nil {
			return err
		}
	}

	if cfg.S3.Bucket != "" {
		storage, err := s3storage.NewS3Client(&cfg.S3)
		if err != nil {
			return fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		keys, err := s3storage.PublishFiles(context.Background(), storage, &cfg.S3, outputs)
		if err != nil {
			return fmt.Errorf("publishing outputs: %w", err)
		}
		logger.Info("outputs published", zap.Strings("keys", keys))
	}

	logger.Info("run complete",
		zap.Int("documents", result.Summary.TotalDocuments),
		zap.Int("failed_documents", result.Summary.FailedDocuments),
		zap.Int("pages", result.Summary.TotalPages),
		zap.Int("failed_items", result.Summary.FailedItems),
		zap.Int("rows", result.Summary.RowCount),
		zap.Strings("outputs", outputs))
	return nil
}

func findDocuments(dir, datasetID string) ([]domain.Document, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.pdf"))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(paths)

	docs := make([]domain.Document, 0, len(paths))
	for _, p := range paths {
		docs = append(docs, domain.Document{
			DatasetID:  datasetID,
			Name:       filepath.Base(p),
			SourcePath: p,
		})
	}
	return docs, nil
}

func splitNames(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}
