package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

const (
	extractedSuffix = "_extracted.md"
	enrichedSuffix  = "_enriched.json"
)

// EnrichedPath is the JSON path that sits next to an extracted markdown file.
func EnrichedPath(mdPath string) string {
	if base, ok := strings.CutSuffix(mdPath, extractedSuffix); ok {
		return base + enrichedSuffix
	}
	return strings.TrimSuffix(mdPath, ".md") + enrichedSuffix
}

// EnrichFile runs e over the markdown at mdPath and writes the lesson to
// EnrichedPath(mdPath). The JSON file is not touched when enrichment fails.
func EnrichFile(ctx context.Context, e Enricher, mdPath string) (string, Lesson, error) {
	b, err := os.ReadFile(mdPath)
	if err != nil {
		return "", Lesson{}, err
	}
	lesson, err := e.Enrich(ctx, string(b))
	if err != nil {
		return "", Lesson{}, fmt.Errorf("enrich %s: %w", mdPath, err)
	}
	out := EnrichedPath(mdPath)
	if err := WriteLesson(out, lesson); err != nil {
		return "", Lesson{}, err
	}
	return out, lesson, nil
}

func WriteLesson(path string, l Lesson) error {
	b, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
