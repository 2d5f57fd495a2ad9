package extract

import (
	"math"
	"strings"

	rpdf "rsc.io/pdf"
)

// line is a run of glyphs sharing a baseline, in PDF user space.
type line struct {
	baseline float64
	size     float64
	x0, x1   float64
	lastX1   float64 // pen position after the previous glyph, spaces included
	space    bool    // a space glyph was seen since the last visible glyph
	text     strings.Builder
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }

func newLine(g rpdf.Text) *line {
	l := &line{baseline: g.Y, size: g.FontSize, x0: g.X, x1: g.X + g.W, lastX1: g.X + g.W}
	l.text.WriteString(g.S)
	return l
}

func (l *line) accepts(g rpdf.Text) bool {
	tol := math.Max(1, 0.5*math.Max(l.size, g.FontSize))
	return math.Abs(g.Y-l.baseline) <= tol
}

// add appends g. A space glyph, or a gap of more than a quarter em between
// the end of the previous glyph and the start of g, becomes one space.
func (l *line) add(g rpdf.Text) {
	if isBlank(g.S) {
		l.space = true
		l.lastX1 = math.Max(l.lastX1, g.X+g.W)
		return
	}
	gap := g.X - l.lastX1
	if l.space || gap > 0.25*math.Max(l.size, g.FontSize) {
		l.text.WriteByte(' ')
	}
	l.space = false
	l.text.WriteString(g.S)
	l.size = math.Max(l.size, g.FontSize)
	l.x0 = math.Min(l.x0, g.X)
	l.x1 = math.Max(l.x1, g.X+g.W)
	l.lastX1 = g.X + g.W
}

// groupLines keeps content-stream order: a glyph off the current baseline
// starts a new line. Spaces never start a line.
func groupLines(glyphs []rpdf.Text) []*line {
	var lines []*line
	var cur *line
	for _, g := range glyphs {
		if g.S == "" {
			continue
		}
		if cur != nil && cur.accepts(g) {
			cur.add(g)
			continue
		}
		if isBlank(g.S) {
			continue
		}
		cur = newLine(g)
		lines = append(lines, cur)
	}
	return lines
}

type block struct {
	lines []*line
	x0    float64
	x1    float64
	size  float64
}

// accepts joins l when it sits directly below the block and overlaps it horizontally.
func (b *block) accepts(l *line) bool {
	last := b.lines[len(b.lines)-1]
	size := math.Max(b.size, l.size)
	gap := last.baseline - l.baseline
	if gap <= 0 || gap > 1.5*size {
		return false
	}
	return l.x0 <= b.x1+size && l.x1 >= b.x0-size
}

func (b *block) add(l *line) {
	b.lines = append(b.lines, l)
	b.x0 = math.Min(b.x0, l.x0)
	b.x1 = math.Max(b.x1, l.x1)
	b.size = math.Max(b.size, l.size)
}

// textBlock converts to top-left coordinates; top is the MediaBox top edge.
func (b *block) textBlock(top float64) TextBlock {
	first, last := b.lines[0], b.lines[len(b.lines)-1]
	texts := make([]string, len(b.lines))
	for i, l := range b.lines {
		texts[i] = l.text.String()
	}
	return TextBlock{
		Box: Rect{
			X0: b.x0,
			Y0: top - (first.baseline + first.size),
			X1: b.x1,
			Y1: top - (last.baseline - 0.2*last.size),
		},
		Text: strings.Join(texts, "\n"),
	}
}

// groupBlocks rebuilds text blocks from the glyph runs of rsc.io/pdf.
func groupBlocks(glyphs []rpdf.Text, top float64) []TextBlock {
	var out []TextBlock
	var cur *block
	for _, l := range groupLines(glyphs) {
		if cur != nil && cur.accepts(l) {
			cur.add(l)
			continue
		}
		if cur != nil {
			out = append(out, cur.textBlock(top))
		}
		cur = &block{lines: []*line{l}, x0: l.x0, x1: l.x1, size: l.size}
	}
	if cur != nil {
		out = append(out, cur.textBlock(top))
	}
	return out
}
