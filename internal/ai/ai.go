package ai

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
)

// ContentBlock is one teaching unit of a lesson. Image is a link taken
// verbatim from the markdown (assets/<doc>/<file>).
type ContentBlock struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Image       string `json:"image,omitempty"`
	KeyTakeaway string `json:"keyTakeaway,omitempty"`
}

// Lesson is the structured form of one extracted document.
type Lesson struct {
	Title         string          `json:"title"`
	Objectives    []string        `json:"objectives"`
	ContentBlocks []ContentBlock  `json:"contentBlocks"`
	Quiz          json.RawMessage `json:"quiz"`
}

// Enricher turns reading-order markdown into a Lesson.
type Enricher interface {
	Enrich(ctx context.Context, markdown string) (Lesson, error)
}

// Noop structures the markdown without a model: one concept block per page
// section, keeping the section text and its first image.
type Noop struct {
	// Title is used when no page has any text.
	Title string
}

var (
	pageHeading = regexp.MustCompile(`(?m)^## Page (\d+)[ \t]*$`)
	imageLine   = regexp.MustCompile(`^!\[[^\]]*\]\(([^)\s]+)\)$`)
)

func (n Noop) Enrich(ctx context.Context, markdown string) (Lesson, error) {
	if err := ctx.Err(); err != nil {
		return Lesson{}, err
	}
	lesson := Lesson{Objectives: []string{}, ContentBlocks: []ContentBlock{}, Quiz: json.RawMessage("{}")}

	locs := pageHeading.FindAllStringSubmatchIndex(markdown, -1)
	for i, loc := range locs {
		end := len(markdown)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		block := ContentBlock{Type: "concept", Title: "Page " + markdown[loc[2]:loc[3]]}
		var text []string
		for _, ln := range splitLines(markdown[loc[1]:end]) {
			ln = strings.TrimSpace(ln)
			if m := imageLine.FindStringSubmatch(ln); m != nil {
				if block.Image == "" {
					block.Image = m[1]
				}
				continue
			}
			if ln == "" {
				continue
			}
			if lesson.Title == "" {
				lesson.Title = ln
			}
			text = append(text, ln)
		}
		if len(text) == 0 && block.Image == "" {
			continue
		}
		block.Content = joinLines(text)
		lesson.ContentBlocks = append(lesson.ContentBlocks, block)
	}

	if lesson.Title == "" {
		lesson.Title = n.Title
	}
	if lesson.Title == "" {
		lesson.Title = "Untitled Lesson"
	}
	return lesson, nil
}

func joinLines(s []string) string {
	return strings.Join(s, "\n")
}

func splitLines(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == '\r' })
}
