package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/thywilljoshua/pdf-to-lesson/internal/ai"
	"github.com/thywilljoshua/pdf-to-lesson/internal/catalog"
	"github.com/thywilljoshua/pdf-to-lesson/internal/extract"
)

// Run extracts pdfPath, checks the image links of the markdown, enriches it
// into lesson JSON and merges the lesson into the catalog.
func Run(ctx context.Context, pdfPath string, cfg Config) (Result, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.AssetDir == "" {
		return Result{}, errors.New("asset directory is required")
	}

	ex, err := extract.New(cfg.OutputDir, cfg.AssetDir, extract.WithLogger(log), extract.WithOpener(cfg.Opener))
	if err != nil {
		return Result{}, err
	}
	var opts []extract.ExtractOption
	if cfg.PageLimit != nil {
		opts = append(opts, extract.WithPageLimit(*cfg.PageLimit))
	}
	xres, err := ex.Extract(ctx, pdfPath, opts...)
	if err != nil {
		return Result{}, err
	}
	res := Result{Extract: xres}

	if err := extract.VerifyMarkdown(xres.OutputPath, cfg.AssetDir); err != nil {
		return res, fmt.Errorf("verify extracted markdown: %w", err)
	}

	enricher := cfg.Enricher
	if enricher == nil {
		enricher = ai.Noop{Title: xres.DocumentName}
	}
	log.Info("enriching", "markdown", xres.OutputPath, "enricher", fmt.Sprintf("%T", enricher))
	jsonPath, lesson, err := ai.EnrichFile(ctx, enricher, xres.OutputPath)
	if err != nil {
		return res, err
	}
	res.EnrichedPath = jsonPath
	res.Title = lesson.Title
	res.Blocks = len(lesson.ContentBlocks)

	if cfg.CatalogPath == "" {
		return res, nil
	}
	sum, err := catalog.Merge(ctx, catalog.Options{
		CatalogPath:          cfg.CatalogPath,
		EnrichedPath:         jsonPath,
		DocumentName:         xres.DocumentName,
		LessonID:             cfg.LessonID,
		AssetDir:             cfg.AssetDir,
		PublicAssets:         cfg.PublicAssets,
		Unit:                 cfg.Unit,
		RealWorldApplication: cfg.RealWorldApplication,
		Logger:               log,
	})
	if err != nil {
		return res, fmt.Errorf("merge into %s: %w", cfg.CatalogPath, err)
	}
	res.Catalog = &sum
	return res, nil
}
