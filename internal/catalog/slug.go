package catalog

import (
	"path/filepath"
	"regexp"
	"strings"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9\-]+`)

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "/", "-", ".", "-", "_", "-").Replace(s)
	s = nonSlug.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}

// LessonID is the catalog id a document gets when none is given.
func LessonID(documentName string) string {
	slug := slugify(documentName)
	if slug == "" {
		slug = "untitled"
	}
	return "lesson_" + strings.ReplaceAll(slug, "-", "_")
}

// DocumentName recovers the document name from an enriched JSON path.
func DocumentName(enrichedPath string) string {
	base := filepath.Base(enrichedPath)
	if name, ok := strings.CutSuffix(base, "_enriched.json"); ok {
		return name
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}
