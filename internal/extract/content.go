package extract

import (
	"math"
	"strings"

	rpdf "rsc.io/pdf"
)

const maxFormDepth = 8

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m x n, i.e. m applied first.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

func translate(tx, ty float64) matrix { return matrix{1, 0, 0, 1, tx, ty} }

func matrixOf(vals []rpdf.Value) (matrix, bool) {
	if len(vals) != 6 {
		return identity, false
	}
	var m matrix
	for i, v := range vals {
		m[i] = v.Float64()
	}
	return m, true
}

func matrixFromArray(a rpdf.Value) (matrix, bool) {
	if a.Kind() != rpdf.Array || a.Len() != 6 {
		return identity, false
	}
	vals := make([]rpdf.Value, 6)
	for i := range vals {
		vals[i] = a.Index(i)
	}
	return matrixOf(vals)
}

type textState struct {
	font      *fontInfo
	size      float64 // Tfs
	charSpace float64 // Tc
	wordSpace float64 // Tw
	scale     float64 // Tz / 100
	leading   float64 // TL
	rise      float64 // Ts
}

type gstate struct {
	ctm  matrix
	text textState
}

// imageRef names an image XObject by the chain of form XObjects it was drawn
// through, starting at the page resources.
type imageRef struct {
	forms []string
	name  string
}

func (r imageRef) key() string {
	return strings.Join(append(r.forms[:len(r.forms):len(r.forms)], r.name), "/")
}

// contentScanner interprets page content streams. It records every glyph
// with its position and every image XObject drawn with Do, following form
// XObjects. Images are recorded in the order they are first drawn.
type contentScanner struct {
	top   float64 // top edge of the MediaBox, for flipping Y
	g     gstate
	saved []gstate
	tm    matrix
	tlm   matrix
	forms []string
	fonts map[string]*fontInfo

	glyphs []rpdf.Text
	images []imageRef
	rects  map[string][]Rect
}

func newContentScanner(top float64) *contentScanner {
	return &contentScanner{
		top:   top,
		g:     gstate{ctm: identity, text: textState{scale: 1}},
		tm:    identity,
		tlm:   identity,
		fonts: map[string]*fontInfo{},
		rects: map[string][]Rect{},
	}
}

func (s *contentScanner) run(strm, resources rpdf.Value) {
	rpdf.Interpret(strm, func(stk *rpdf.Stack, op string) {
		n := stk.Len()
		args := make([]rpdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		s.do(op, args, resources)
	})
}

func (s *contentScanner) do(op string, args []rpdf.Value, resources rpdf.Value) {
	ts := &s.g.text
	switch op {
	case "q":
		s.saved = append(s.saved, s.g)
	case "Q":
		if k := len(s.saved); k > 0 {
			s.g = s.saved[k-1]
			s.saved = s.saved[:k-1]
		}
	case "cm":
		if m, ok := matrixOf(args); ok {
			s.g.ctm = m.mul(s.g.ctm)
		}
	case "Do":
		if len(args) == 1 && args[0].Kind() == rpdf.Name {
			s.draw(args[0].Name(), resources)
		}

	case "BT":
		s.tm, s.tlm = identity, identity
	case "Tf":
		if len(args) == 2 {
			ts.font = s.font(args[0].Name(), resources)
			ts.size = args[1].Float64()
		}
	case "Tc":
		if len(args) == 1 {
			ts.charSpace = args[0].Float64()
		}
	case "Tw":
		if len(args) == 1 {
			ts.wordSpace = args[0].Float64()
		}
	case "Tz":
		if len(args) == 1 {
			ts.scale = args[0].Float64() / 100
		}
	case "TL":
		if len(args) == 1 {
			ts.leading = args[0].Float64()
		}
	case "Ts":
		if len(args) == 1 {
			ts.rise = args[0].Float64()
		}
	case "Td", "TD":
		if len(args) == 2 {
			if op == "TD" {
				ts.leading = -args[1].Float64()
			}
			s.nextLine(args[0].Float64(), args[1].Float64())
		}
	case "T*":
		s.nextLine(0, -ts.leading)
	case "Tm":
		if m, ok := matrixOf(args); ok {
			s.tm, s.tlm = m, m
		}
	case "Tj":
		if len(args) == 1 {
			s.show(args[0].RawString())
		}
	case "'":
		if len(args) == 1 {
			s.nextLine(0, -ts.leading)
			s.show(args[0].RawString())
		}
	case "\"":
		if len(args) == 3 {
			ts.wordSpace = args[0].Float64()
			ts.charSpace = args[1].Float64()
			s.nextLine(0, -ts.leading)
			s.show(args[2].RawString())
		}
	case "TJ":
		if len(args) == 1 && args[0].Kind() == rpdf.Array {
			a := args[0]
			for i := 0; i < a.Len(); i++ {
				x := a.Index(i)
				if x.Kind() == rpdf.String {
					s.show(x.RawString())
					continue
				}
				tx := -x.Float64() / 1000 * ts.size * ts.scale
				s.tm = translate(tx, 0).mul(s.tm)
			}
		}
	}
}

func (s *contentScanner) nextLine(tx, ty float64) {
	s.tlm = translate(tx, ty).mul(s.tlm)
	s.tm = s.tlm
}

func (s *contentScanner) font(name string, resources rpdf.Value) *fontInfo {
	key := strings.Join(append(s.forms[:len(s.forms):len(s.forms)], name), "/")
	if f, ok := s.fonts[key]; ok {
		return f
	}
	v := resources.Key("Font").Key(name)
	f := plainFont
	if v.Kind() == rpdf.Dict {
		f = newFontInfo(v)
	}
	s.fonts[key] = f
	return f
}

// show emits one glyph per character code and advances the text matrix by
// the code's width, character spacing and word spacing.
func (s *contentScanner) show(raw string) {
	ts := s.g.text
	f := ts.font
	if f == nil {
		f = plainFont
	}
	for _, code := range f.codes(raw) {
		w0 := f.width(code) / 1000
		trm := matrix{ts.size * ts.scale, 0, 0, ts.size, 0, ts.rise}.mul(s.tm).mul(s.g.ctm)
		x0, y0 := trm.apply(0, 0)
		x1, _ := trm.apply(w0, 0)
		if text := f.decode(code); text != "" {
			s.glyphs = append(s.glyphs, rpdf.Text{
				Font:     f.name,
				FontSize: math.Hypot(trm[2], trm[3]),
				X:        x0,
				Y:        y0,
				W:        x1 - x0,
				S:        text,
			})
		}
		tx := w0*ts.size + ts.charSpace
		if f.isWordSpace(code) {
			tx += ts.wordSpace
		}
		s.tm = translate(tx*ts.scale, 0).mul(s.tm)
	}
}

func (s *contentScanner) draw(name string, resources rpdf.Value) {
	xobj := resources.Key("XObject").Key(name)
	switch xobj.Key("Subtype").Name() {
	case "Image":
		ref := imageRef{forms: append([]string(nil), s.forms...), name: name}
		key := ref.key()
		if _, seen := s.rects[key]; !seen {
			s.images = append(s.images, ref)
		}
		s.rects[key] = append(s.rects[key], s.unitSquare())
	case "Form":
		if len(s.forms) >= maxFormDepth {
			return
		}
		g, saved, tm, tlm := s.g, s.saved, s.tm, s.tlm
		if m, ok := matrixFromArray(xobj.Key("Matrix")); ok {
			s.g.ctm = m.mul(s.g.ctm)
		}
		s.saved = nil
		formRes := xobj.Key("Resources")
		if formRes.Kind() != rpdf.Dict {
			formRes = resources
		}
		s.forms = append(s.forms, name)
		s.run(xobj, formRes)
		s.forms = s.forms[:len(s.forms)-1]
		s.g, s.saved, s.tm, s.tlm = g, saved, tm, tlm
	}
}

// unitSquare maps the image space unit square through the CTM and returns
// its bounding box in top-left page coordinates.
func (s *contentScanner) unitSquare() Rect {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		x, y := s.g.ctm.apply(c[0], c[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return Rect{X0: minX, Y0: s.top - maxY, X1: maxX, Y1: s.top - minY}
}
