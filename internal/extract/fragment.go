package extract

import (
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Rect is a box in page space. The origin is the top-left corner of the
// page and Y grows downward, so Y0 is the top edge.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Fragment is one piece of page content placed into the reading-order stream.
type Fragment interface {
	Box() Rect
	// Anchor is the vertical sort key (the top edge of the box).
	Anchor() float64
	Markdown() string
}

// TextFragment is a text block as laid out on the page. Text may contain
// newlines from the original layout.
type TextFragment struct {
	Rect Rect
	Text string
}

func (t TextFragment) Box() Rect        { return t.Rect }
func (t TextFragment) Anchor() float64  { return t.Rect.Y0 }
func (t TextFragment) Markdown() string { return strings.TrimSpace(t.Text) }

// ImageFragment is a single placement of an image resource. Path is where the
// payload was written; Link is the same file relative to the UI asset root.
type ImageFragment struct {
	Rect Rect
	Path string
	Link string
}

func (f ImageFragment) Box() Rect        { return f.Rect }
func (f ImageFragment) Anchor() float64  { return f.Rect.Y0 }
func (f ImageFragment) Markdown() string { return "![Image](" + f.Link + ")" }

// sortFragments orders fragments top to bottom. Equal anchors keep their
// collection order.
func sortFragments(frags []Fragment) {
	sort.SliceStable(frags, func(i, j int) bool {
		return frags[i].Anchor() < frags[j].Anchor()
	})
}

func pageHeading(pageNumber int) string {
	return fmt.Sprintf("\n\n## Page %d\n", pageNumber)
}

// renderPage emits the markdown section of one page. frags must already be sorted.
func renderPage(pageNumber int, frags []Fragment) string {
	lines := make([]string, 0, len(frags)+1)
	lines = append(lines, pageHeading(pageNumber))
	for _, f := range frags {
		if s := strings.TrimSpace(f.Markdown()); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

func imageFilename(pageNumber, occurrence int, ext string) string {
	return fmt.Sprintf("img_p%d_%d.%s", pageNumber, occurrence, ext)
}

// imageLink is always slash separated, independent of the host OS.
func imageLink(documentName, filename string) string {
	return path.Join("assets", documentName, filename)
}

// DocumentName is the input base name without its extension. It namespaces
// the asset subdirectory and the output file.
func DocumentName(documentPath string) string {
	base := filepath.Base(documentPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// MarkdownPath is the path Extract writes for documentName.
func MarkdownPath(outputDir, documentName string) string {
	return filepath.Join(outputDir, documentName+"_extracted.md")
}
