package convert

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/thywilljoshua/pdf-to-lesson/internal/ai"
	"github.com/thywilljoshua/pdf-to-lesson/internal/extract"
)

type page struct {
	text  string
	image bool
}

func (p page) TextBlocks() ([]extract.TextBlock, error) {
	return []extract.TextBlock{{Box: extract.Rect{Y0: 100}, Text: p.text}}, nil
}

func (p page) ImageResources() ([]extract.ImageResource, error) {
	if !p.image {
		return nil, nil
	}
	return []extract.ImageResource{{Name: "Im1"}}, nil
}

func (p page) ImageRects(extract.ImageResource) ([]extract.Rect, error) {
	return []extract.Rect{{Y0: 10}}, nil
}

func (p page) ImagePayload(extract.ImageResource) (extract.Payload, error) {
	return extract.Payload{Data: []byte("png"), Ext: "png"}, nil
}

type doc []page

func (d doc) NumPages() int { return len(d) }
func (d doc) Page(i int) (extract.Page, error) { return d[i], nil }
func (d doc) Close() error { return nil }
func opener(d doc) extract.Opener { return func(string) (extract.Document, error) { return d, nil } }
func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }
func intPtr(n int) *int { return &n }

func setup(t *testing.T) (string, Config) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "handbook.pdf")
	if err := os.WriteFile(input, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatal(err)
	}
	return input, Config{
		OutputDir:    filepath.Join(dir, "pipeline", "output"),
		AssetDir:     filepath.Join(dir, "pipeline", "assets"),
		CatalogPath:  filepath.Join(dir, "ui", "public", "lessons.json"),
		PublicAssets: filepath.Join(dir, "ui", "public", "assets"),
		Logger:       quiet(),
		Opener:       opener(doc{{text: "Intro to AI", image: true}, {text: "Data"}}),
	}
}

func TestRun(t *testing.T) {
	input, cfg := setup(t)

	res, err := Run(context.Background(), input, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Extract.Pages != 2 || res.Extract.Images != 1 {
		t.Errorf("extract = %+v", res.Extract)
	}
	if res.EnrichedPath != filepath.Join(cfg.OutputDir, "handbook_enriched.json") || res.Title != "Intro to AI" || res.Blocks != 2 {
		t.Errorf("result = %+v", res)
	}
	if res.Catalog == nil || res.Catalog.LessonID != "lesson_handbook" || res.Catalog.AssetsCopied != 1 || len(res.Catalog.MissingImages) != 0 {
		t.Fatalf("catalog = %+v", res.Catalog)
	}

	b, err := os.ReadFile(cfg.CatalogPath)
	if err != nil {
		t.Fatal(err)
	}
	var lessons []struct {
		ID     string            `json:"id"`
		Theory []ai.ContentBlock `json:"theory"`
	}
	if err := json.Unmarshal(b, &lessons); err != nil {
		t.Fatal(err)
	}
	if len(lessons) != 1 || lessons[0].Theory[0].Image != "assets/handbook/img_p1_0.png" {
		t.Errorf("catalog = %s", b)
	}
	if _, err := os.Stat(filepath.Join(cfg.PublicAssets, "handbook", "img_p1_0.png")); err != nil {
		t.Errorf("public asset missing: %v", err)
	}
}

func TestRun_PageLimitAndNoCatalog(t *testing.T) {
	input, cfg := setup(t)
	cfg.PageLimit = intPtr(1)
	cfg.CatalogPath = ""

	res, err := Run(context.Background(), input, cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Extract.Pages != 1 || res.Blocks != 1 || res.Catalog != nil {
		t.Errorf("result = %+v", res)
	}
}

type failing struct{}

func (failing) Enrich(context.Context, string) (ai.Lesson, error) {
	return ai.Lesson{}, ai.ErrBadResponse
}

func TestRun_EnrichFailureStopsBeforeMerge(t *testing.T) {
	input, cfg := setup(t)
	cfg.Enricher = failing{}

	res, err := Run(context.Background(), input, cfg)
	if !errors.Is(err, ai.ErrBadResponse) {
		t.Fatalf("err = %v", err)
	}
	if res.Extract.OutputPath == "" {
		t.Error("extract result dropped")
	}
	if _, err := os.Stat(cfg.CatalogPath); !os.IsNotExist(err) {
		t.Error("catalog written after enrich failure")
	}
}

func TestRun_MissingInput(t *testing.T) {
	_, cfg := setup(t)
	_, err := Run(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"), cfg)
	if !errors.Is(err, extract.ErrInput) {
		t.Fatalf("err = %v, want extract.ErrInput", err)
	}
}
