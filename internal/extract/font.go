package extract

import (
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/font"
	rpdf "rsc.io/pdf"
)

// fallbackWidth is the advance, in glyph space units, used when a font gives
// no metrics at all.
const fallbackWidth = 500

// fontInfo is the part of a font dictionary the text scanner needs: how raw
// strings split into codes, what each code advances the pen by and what text
// it decodes to.
type fontInfo struct {
	name         string // BaseFont without the subset prefix
	enc          rpdf.TextEncoding
	first        int
	widths       []float64
	twoByte      bool
	defaultWidth float64
}

func newFontInfo(v rpdf.Value) *fontInfo {
	f := rpdf.Font{V: v}
	name := f.BaseFont()
	if i := strings.Index(name, "+"); i >= 0 {
		name = name[i+1:]
	}
	fi := &fontInfo{
		name:         name,
		enc:          f.Encoder(),
		first:        f.FirstChar(),
		widths:       f.Widths(),
		defaultWidth: fallbackWidth,
	}
	if v.Key("Subtype").Name() == "Type0" {
		fi.twoByte = true
		fi.defaultWidth = 1000
		if dw := v.Key("DescendantFonts").Index(0).Key("DW"); dw.Kind() == rpdf.Integer || dw.Kind() == rpdf.Real {
			fi.defaultWidth = dw.Float64()
		}
	}
	return fi
}

// plainFont stands in when text is shown before any Tf.
var plainFont = &fontInfo{defaultWidth: fallbackWidth}

// codes splits a shown string into character codes.
func (f *fontInfo) codes(raw string) []string {
	n := 1
	if f.twoByte {
		n = 2
	}
	out := make([]string, 0, len(raw)/n+1)
	for len(raw) > 0 {
		k := min(n, len(raw))
		out = append(out, raw[:k])
		raw = raw[k:]
	}
	return out
}

func codeValue(code string) int {
	v := 0
	for i := 0; i < len(code); i++ {
		v = v<<8 | int(code[i])
	}
	return v
}

// width returns the advance of code in glyph space units (1/1000 em).
// Fonts without a usable /Widths entry fall back to the standard 14 metrics,
// then to a flat estimate.
func (f *fontInfo) width(code string) float64 {
	c := codeValue(code)
	if i := c - f.first; i >= 0 && i < len(f.widths) && f.widths[i] > 0 {
		return f.widths[i]
	}
	if !f.twoByte && font.IsCoreFont(f.name) {
		return float64(font.CharWidth(f.name, rune(c)))
	}
	return f.defaultWidth
}

func (f *fontInfo) decode(code string) string {
	s := code
	if f.enc != nil {
		s = f.enc.Decode(code)
	}
	return strings.ToValidUTF8(s, "")
}

// isWordSpace reports whether code receives word spacing (Tw), which PDF
// applies to the single-byte code 32 only.
func (f *fontInfo) isWordSpace(code string) bool {
	return !f.twoByte && code == " "
}
