package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readCatalog(t *testing.T, path string) []map[string]any {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out []map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("catalog is not a JSON array: %v", err)
	}
	return out
}

const enrichedJSON = `{
  "title": "Intro to AI",
  "objectives": ["Define AI"],
  "contentBlocks": [
    {"type": "concept", "title": "What", "content": "AI is...", "image": "assets/handbook/img_p1_0.png", "extra": 7}
  ],
  "quiz": {"questions": [{"q": "?"}]}
}`

func TestMerge_NewCatalog(t *testing.T) {
	dir := t.TempDir()
	enriched := filepath.Join(dir, "out", "handbook_enriched.json")
	writeFile(t, enriched, enrichedJSON)
	catalogPath := filepath.Join(dir, "ui", "lessons.json")

	sum, err := Merge(context.Background(), Options{CatalogPath: catalogPath, EnrichedPath: enriched, Logger: quiet()})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if sum.LessonID != "lesson_handbook" || sum.LessonNumber != 1 || sum.Lessons != 1 || sum.Replaced {
		t.Errorf("summary = %+v", sum)
	}

	entries := readCatalog(t, catalogPath)
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	l := entries[0]
	if l["title"] != "Intro to AI" || l["mastery"] != "beginner" || l["progress"] != float64(0) || l["xpEarned"] != float64(0) {
		t.Errorf("lesson = %v", l)
	}
	if l["realWorldApplication"] != "Extracted from Official CBSE Handbook" {
		t.Errorf("realWorldApplication = %v", l["realWorldApplication"])
	}
	unit := l["unit"].(map[string]any)
	if unit["number"] != float64(99) || unit["title"] != "Handbook Data" || unit["pageEnd"] != float64(99) {
		t.Errorf("unit = %v", unit)
	}
	theory := l["theory"].([]any)
	block := theory[0].(map[string]any)
	if block["extra"] != float64(7) || block["image"] != "assets/handbook/img_p1_0.png" {
		t.Errorf("theory block not carried through: %v", block)
	}
	if kc, ok := l["keyConcepts"].([]any); !ok || len(kc) != 0 {
		t.Errorf("keyConcepts = %v", l["keyConcepts"])
	}
}

func TestMerge_ReplacesSameIDAndKeepsOthers(t *testing.T) {
	dir := t.TempDir()
	enriched := filepath.Join(dir, "handbook_enriched.json")
	writeFile(t, enriched, enrichedJSON)
	catalogPath := filepath.Join(dir, "lessons.json")
	writeFile(t, catalogPath, `[
  {"id": "lesson_1", "title": "Python", "lessonNumber": 1, "videoId": "abc", "custom": {"nested": true}},
  {"id": "lesson_handbook", "title": "old", "lessonNumber": 2},
  {"id": "lesson_3", "title": "NumPy", "lessonNumber": 3}
]`)

	sum, err := Merge(context.Background(), Options{CatalogPath: catalogPath, EnrichedPath: enriched, Logger: quiet()})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !sum.Replaced || sum.Lessons != 3 || sum.LessonNumber != 3 {
		t.Errorf("summary = %+v", sum)
	}

	entries := readCatalog(t, catalogPath)
	var ids []string
	for _, e := range entries {
		ids = append(ids, e["id"].(string))
	}
	if len(ids) != 3 || ids[0] != "lesson_1" || ids[1] != "lesson_3" || ids[2] != "lesson_handbook" {
		t.Fatalf("ids = %v", ids)
	}
	if entries[0]["videoId"] != "abc" || entries[0]["custom"].(map[string]any)["nested"] != true {
		t.Errorf("unknown fields lost: %v", entries[0])
	}

	// Merging again is stable.
	if _, err := Merge(context.Background(), Options{CatalogPath: catalogPath, EnrichedPath: enriched, Logger: quiet()}); err != nil {
		t.Fatal(err)
	}
	if n := len(readCatalog(t, catalogPath)); n != 3 {
		t.Errorf("entries after re-merge = %d, want 3", n)
	}
}

func TestMerge_Defaults(t *testing.T) {
	dir := t.TempDir()
	enriched := filepath.Join(dir, "bare_enriched.json")
	writeFile(t, enriched, `{"contentBlocks": null}`)
	catalogPath := filepath.Join(dir, "lessons.json")

	_, err := Merge(context.Background(), Options{
		CatalogPath:  catalogPath,
		EnrichedPath: enriched,
		LessonID:     "lesson_custom_01",
		Unit:         &Unit{Number: 4, Title: "Vision", PageStart: 10, PageEnd: 20},
		Logger:       quiet(),
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	l := readCatalog(t, catalogPath)[0]
	if l["id"] != "lesson_custom_01" || l["title"] != "Generated Lesson" {
		t.Errorf("lesson = %v", l)
	}
	if th, ok := l["theory"].([]any); !ok || len(th) != 0 {
		t.Errorf("theory = %v, want []", l["theory"])
	}
	if q, ok := l["quiz"].(map[string]any); !ok || len(q) != 0 {
		t.Errorf("quiz = %v, want {}", l["quiz"])
	}
	if l["unit"].(map[string]any)["title"] != "Vision" {
		t.Errorf("unit = %v", l["unit"])
	}
}

func TestMerge_BadCatalog(t *testing.T) {
	dir := t.TempDir()
	enriched := filepath.Join(dir, "a_enriched.json")
	writeFile(t, enriched, enrichedJSON)
	catalogPath := filepath.Join(dir, "lessons.json")
	writeFile(t, catalogPath, `{"not": "an array"}`)

	if _, err := Merge(context.Background(), Options{CatalogPath: catalogPath, EnrichedPath: enriched, Logger: quiet()}); err == nil {
		t.Fatal("expected error for a non-array catalog")
	}
	b, _ := os.ReadFile(catalogPath)
	if string(b) != `{"not": "an array"}` {
		t.Error("bad catalog was overwritten")
	}
}

func TestMerge_CopiesAssets(t *testing.T) {
	dir := t.TempDir()
	enriched := filepath.Join(dir, "out", "handbook_enriched.json")
	writeFile(t, enriched, enrichedJSON)
	assets := filepath.Join(dir, "assets")
	public := filepath.Join(dir, "ui", "public", "assets")
	writeFile(t, filepath.Join(assets, "handbook", "img_p1_0.png"), "png")
	writeFile(t, filepath.Join(assets, "handbook", "img_p2_0.jpg"), "jpg")
	writeFile(t, filepath.Join(assets, "other", "img_p1_0.png"), "not mine")
	writeFile(t, filepath.Join(public, "handbook", "keep.txt"), "existing")

	opts := Options{
		CatalogPath:  filepath.Join(dir, "ui", "public", "lessons.json"),
		EnrichedPath: enriched,
		AssetDir:     assets,
		PublicAssets: public,
		Logger:       quiet(),
	}
	for run := 1; run <= 2; run++ {
		sum, err := Merge(context.Background(), opts)
		if err != nil {
			t.Fatalf("Merge run %d: %v", run, err)
		}
		if sum.AssetsCopied != 2 || len(sum.MissingImages) != 0 {
			t.Errorf("run %d summary = %+v", run, sum)
		}
	}
	for _, p := range []string{"handbook/img_p1_0.png", "handbook/img_p2_0.jpg", "handbook/keep.txt"} {
		if _, err := os.Stat(filepath.Join(public, filepath.FromSlash(p))); err != nil {
			t.Errorf("%s: %v", p, err)
		}
	}
	if _, err := os.Stat(filepath.Join(public, "other")); !os.IsNotExist(err) {
		t.Error("assets of another document were copied")
	}
}

func TestMerge_ReportsMissingImages(t *testing.T) {
	dir := t.TempDir()
	enriched := filepath.Join(dir, "handbook_enriched.json")
	writeFile(t, enriched, enrichedJSON)
	public := filepath.Join(dir, "public")

	sum, err := Merge(context.Background(), Options{
		CatalogPath:  filepath.Join(dir, "lessons.json"),
		EnrichedPath: enriched,
		AssetDir:     filepath.Join(dir, "assets"),
		PublicAssets: public,
		Logger:       quiet(),
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(sum.MissingImages) != 1 || sum.MissingImages[0] != "assets/handbook/img_p1_0.png" {
		t.Errorf("missing = %v", sum.MissingImages)
	}
}

func TestLessonIDAndDocumentName(t *testing.T) {
	if got := LessonID("CBSE Handbook.v2"); got != "lesson_cbse_handbook_v2" {
		t.Errorf("LessonID = %q", got)
	}
	if got := LessonID("???"); got != "lesson_untitled" {
		t.Errorf("LessonID = %q", got)
	}
	if got := DocumentName("/x/handbook_enriched.json"); got != "handbook" {
		t.Errorf("DocumentName = %q", got)
	}
	if got := DocumentName("/x/lesson.json"); got != "lesson" {
		t.Errorf("DocumentName = %q", got)
	}
}
