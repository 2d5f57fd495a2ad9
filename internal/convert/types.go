package convert

import (
	"log/slog"

	"github.com/thywilljoshua/pdf-to-lesson/internal/ai"
	"github.com/thywilljoshua/pdf-to-lesson/internal/catalog"
	"github.com/thywilljoshua/pdf-to-lesson/internal/extract"
)

type Config struct {
	OutputDir string
	AssetDir  string
	PageLimit *int // nil processes every page

	// Enricher defaults to ai.Noop.
	Enricher ai.Enricher

	// CatalogPath is lessons.json; merging is skipped when it is empty.
	CatalogPath          string
	PublicAssets         string
	LessonID             string
	Unit                 *catalog.Unit
	RealWorldApplication string

	Logger *slog.Logger
	Opener extract.Opener
}

type Result struct {
	Extract      extract.Result   `json:"extract"`
	EnrichedPath string           `json:"enriched_path"`
	Title        string           `json:"title"`
	Blocks       int              `json:"content_blocks"`
	Catalog      *catalog.Summary `json:"catalog,omitempty"`
}
