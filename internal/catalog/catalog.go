package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/thywilljoshua/pdf-to-lesson/internal/extract"
)

const defaultTitle = "Generated Lesson"

// Unit groups lessons in the UI.
type Unit struct {
	Number    int    `json:"number"`
	Title     string `json:"title"`
	PageStart int    `json:"pageStart"`
	PageEnd   int    `json:"pageEnd"`
}

// DefaultUnit is the unit merged lessons land in.
var DefaultUnit = Unit{Number: 99, Title: "Handbook Data", PageStart: 1, PageEnd: 99}

// Lesson is one entry of lessons.json. Objectives, theory and quiz are
// carried through from the enriched JSON unchanged.
type Lesson struct {
	ID                   string          `json:"id"`
	Title                string          `json:"title"`
	LessonNumber         int             `json:"lessonNumber"`
	Unit                 Unit            `json:"unit"`
	Objectives           json.RawMessage `json:"objectives"`
	KeyConcepts          json.RawMessage `json:"keyConcepts"`
	RealWorldApplication string          `json:"realWorldApplication"`
	Progress             int             `json:"progress"`
	XPEarned             int             `json:"xpEarned"`
	Mastery              string          `json:"mastery"`
	Theory               json.RawMessage `json:"theory"`
	Quiz                 json.RawMessage `json:"quiz"`
}

type Options struct {
	CatalogPath  string // lessons.json; a missing file is an empty catalog
	EnrichedPath string
	DocumentName string // defaults to the name in EnrichedPath
	LessonID     string // defaults to LessonID(DocumentName)

	// AssetDir is the extraction asset root; PublicAssets is the UI asset
	// root. Copying is skipped when either is empty.
	AssetDir     string
	PublicAssets string

	Unit                 *Unit
	RealWorldApplication string
	Logger               *slog.Logger
}

type Summary struct {
	CatalogPath   string   `json:"catalog_path"`
	LessonID      string   `json:"lesson_id"`
	LessonNumber  int      `json:"lesson_number"`
	Lessons       int      `json:"lessons"`
	Replaced      bool     `json:"replaced"`
	AssetsCopied  int      `json:"assets_copied"`
	MissingImages []string `json:"missing_images,omitempty"`
}

// enriched mirrors the enrich output; block fields are kept as raw JSON.
type enriched struct {
	Title         string          `json:"title"`
	Objectives    json.RawMessage `json:"objectives"`
	ContentBlocks json.RawMessage `json:"contentBlocks"`
	Quiz          json.RawMessage `json:"quiz"`
}

// Merge adds the enriched lesson to the catalog, replacing an entry with the
// same id, then copies the document's assets into the public tree.
func Merge(ctx context.Context, o Options) (Summary, error) {
	log := o.Logger
	if log == nil {
		log = slog.Default()
	}
	if o.CatalogPath == "" || o.EnrichedPath == "" {
		return Summary{}, errors.New("catalog and enriched paths are required")
	}
	if o.DocumentName == "" {
		o.DocumentName = DocumentName(o.EnrichedPath)
	}
	if o.LessonID == "" {
		o.LessonID = LessonID(o.DocumentName)
	}

	src, err := readEnriched(o.EnrichedPath)
	if err != nil {
		return Summary{}, err
	}
	entries, err := Load(o.CatalogPath)
	if err != nil {
		return Summary{}, err
	}

	kept := entries[:0]
	replaced := false
	for _, raw := range entries {
		if entryID(raw) == o.LessonID {
			replaced = true
			continue
		}
		kept = append(kept, raw)
	}

	lesson := buildLesson(o, src, len(kept)+1)
	b, err := json.Marshal(lesson)
	if err != nil {
		return Summary{}, err
	}
	kept = append(kept, b)
	if err := ctx.Err(); err != nil {
		return Summary{}, err
	}
	if err := Save(o.CatalogPath, kept); err != nil {
		return Summary{}, err
	}
	log.Info("merged lesson", "catalog", o.CatalogPath, "id", o.LessonID, "lessonNumber", lesson.LessonNumber, "replaced", replaced)

	sum := Summary{
		CatalogPath:  o.CatalogPath,
		LessonID:     o.LessonID,
		LessonNumber: lesson.LessonNumber,
		Lessons:      len(kept),
		Replaced:     replaced,
	}

	if o.AssetDir != "" && o.PublicAssets != "" {
		n, err := CopyAssets(filepath.Join(o.AssetDir, o.DocumentName), filepath.Join(o.PublicAssets, o.DocumentName))
		if err != nil {
			return sum, fmt.Errorf("copy assets: %w", err)
		}
		sum.AssetsCopied = n
		log.Info("copied assets", "from", o.AssetDir, "to", o.PublicAssets, "files", n)

		sum.MissingImages = extract.MissingAssets(o.PublicAssets, blockImages(lesson.Theory))
		for _, link := range sum.MissingImages {
			log.Warn("lesson references a missing image", "id", o.LessonID, "image", link)
		}
	}
	return sum, nil
}

func buildLesson(o Options, src enriched, number int) Lesson {
	unit := DefaultUnit
	if o.Unit != nil {
		unit = *o.Unit
	}
	rwa := o.RealWorldApplication
	if rwa == "" {
		rwa = "Extracted from Official CBSE Handbook"
	}
	title := strings.TrimSpace(src.Title)
	if title == "" {
		title = defaultTitle
	}
	return Lesson{
		ID:                   o.LessonID,
		Title:                title,
		LessonNumber:         number,
		Unit:                 unit,
		Objectives:           orDefault(src.Objectives, "[]"),
		KeyConcepts:          json.RawMessage("[]"),
		RealWorldApplication: rwa,
		Mastery:              "beginner",
		Theory:               orDefault(src.ContentBlocks, "[]"),
		Quiz:                 orDefault(src.Quiz, "{}"),
	}
}

func orDefault(raw json.RawMessage, def string) json.RawMessage {
	if t := bytes.TrimSpace(raw); len(t) == 0 || bytes.Equal(t, []byte("null")) {
		return json.RawMessage(def)
	}
	return raw
}

func readEnriched(path string) (enriched, error) {
	var e enriched
	b, err := os.ReadFile(path)
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return e, fmt.Errorf("parse %s: %w", path, err)
	}
	return e, nil
}

// Load reads the catalog array. Entries stay raw so fields this package
// does not know about survive a rewrite.
func Load(path string) ([]json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: expected an array of lessons: %w", path, err)
	}
	return entries, nil
}

func Save(path string, entries []json.RawMessage) error {
	if entries == nil {
		entries = []json.RawMessage{}
	}
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}

func entryID(raw json.RawMessage) string {
	var v struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	return v.ID
}

func blockImages(theory json.RawMessage) []string {
	var blocks []struct {
		Image string `json:"image"`
		URL   string `json:"url"`
	}
	if err := json.Unmarshal(theory, &blocks); err != nil {
		return nil
	}
	var links []string
	for _, b := range blocks {
		for _, l := range []string{b.Image, b.URL} {
			if strings.HasPrefix(l, "assets/") {
				links = append(links, l)
			}
		}
	}
	return links
}
