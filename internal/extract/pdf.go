package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	rpdf "rsc.io/pdf"
)

// pdfDocument reads layout with rsc.io/pdf and image payloads with pdfcpu.
// The pdfcpu context is only built when a page actually places an image.
type pdfDocument struct {
	f    *os.File
	size int64
	r    *rpdf.Reader

	imgCtx    *model.Context
	imgErr    error
	imgLoaded bool
}

// OpenPDF is the default Opener.
func OpenPDF(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	var r *rpdf.Reader
	err = guard(func() error {
		var err error
		r, err = rpdf.NewReader(f, fi.Size())
		return err
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("not a readable pdf: %w", err)
	}
	return &pdfDocument{f: f, size: fi.Size(), r: r}, nil
}

func (d *pdfDocument) NumPages() int {
	n := 0
	if err := guard(func() error { n = d.r.NumPage(); return nil }); err != nil {
		return 0
	}
	return n
}

func (d *pdfDocument) Page(index int) (Page, error) {
	var p rpdf.Page
	err := guard(func() error {
		p = d.r.Page(index + 1)
		if p.V.IsNull() {
			return fmt.Errorf("page %d not found", index+1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &pdfPage{doc: d, number: index + 1, page: p, box: mediaBox(p)}, nil
}

func (d *pdfDocument) Close() error {
	d.imgCtx = nil
	d.r = nil
	return d.f.Close()
}

func (d *pdfDocument) images() (*model.Context, error) {
	if !d.imgLoaded {
		d.imgLoaded = true
		d.imgErr = guard(func() error {
			conf := model.NewDefaultConfiguration()
			conf.ValidationMode = model.ValidationRelaxed
			ctx, err := api.ReadAndValidate(io.NewSectionReader(d.f, 0, d.size), conf)
			if err != nil {
				return fmt.Errorf("pdfcpu read: %w", err)
			}
			d.imgCtx = ctx
			return nil
		})
	}
	return d.imgCtx, d.imgErr
}

type pdfPage struct {
	doc    *pdfDocument
	number int
	page   rpdf.Page
	box    Rect // MediaBox in PDF user space (origin bottom-left)

	scan   *contentScanner
	keys   map[ImageResource][]string // scanner keys merged into each resource
	images []ImageResource
	xrefs  map[int]types.IndirectRef
}

func (p *pdfPage) content() (*contentScanner, error) {
	if p.scan != nil {
		return p.scan, nil
	}
	s := newContentScanner(p.box.Y1)
	err := guard(func() error {
		res := p.page.Resources()
		for _, strm := range contentStreams(p.page) {
			s.run(strm, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	p.scan = s
	return s, nil
}

func (p *pdfPage) TextBlocks() ([]TextBlock, error) {
	s, err := p.content()
	if err != nil {
		return nil, err
	}
	return groupBlocks(s.glyphs, p.box.Y1), nil
}

// ImageResources identifies every drawn image by its object number, so the
// same name bound to different objects in a page and in a form stays apart
// and one object drawn under several names is one resource. When pdfcpu
// cannot read the document, images fall back to their scoped resource names
// and have no payload.
func (p *pdfPage) ImageResources() ([]ImageResource, error) {
	if p.keys != nil {
		return p.images, nil
	}
	s, err := p.content()
	if err != nil {
		return nil, err
	}
	p.keys = map[ImageResource][]string{}
	p.xrefs = map[int]types.IndirectRef{}
	byXRef := map[int]ImageResource{}
	if len(s.images) == 0 {
		return nil, nil
	}

	var pageRes types.Dict
	ctx, cerr := p.doc.images()
	if cerr == nil {
		cerr = guard(func() error {
			_, _, inh, err := ctx.PageDict(p.number, false)
			if err != nil {
				return err
			}
			pageRes = inh.Resources
			return nil
		})
	}
	for _, ref := range s.images {
		key := ref.key()
		res := ImageResource{Name: key}
		if cerr == nil {
			var ir *types.IndirectRef
			err := guard(func() error {
				var err error
				ir, err = resolveImage(ctx, pageRes, ref)
				return err
			})
			if err == nil {
				xref := ir.ObjectNumber.Value()
				res = ImageResource{Name: ref.name, XRef: xref}
				if first, ok := byXRef[xref]; ok {
					res = first
				} else {
					byXRef[xref] = res
					p.xrefs[xref] = *ir
				}
			}
		}
		if _, seen := p.keys[res]; !seen {
			p.images = append(p.images, res)
		}
		p.keys[res] = append(p.keys[res], key)
	}
	return p.images, nil
}

func (p *pdfPage) ImageRects(res ImageResource) ([]Rect, error) {
	if _, err := p.ImageResources(); err != nil {
		return nil, err
	}
	keys := p.keys[res]
	if len(keys) == 1 {
		return p.scan.rects[keys[0]], nil
	}
	var rects []Rect
	for _, k := range keys {
		rects = append(rects, p.scan.rects[k]...)
	}
	return rects, nil
}

func (p *pdfPage) ImagePayload(res ImageResource) (Payload, error) {
	ctx, err := p.doc.images()
	if err != nil {
		return Payload{}, err
	}
	ir, ok := p.xrefs[res.XRef]
	if res.XRef == 0 || !ok {
		return Payload{}, errors.New("image object not resolved")
	}
	var img *model.Image
	err = guard(func() error {
		sd, _, err := ctx.DereferenceStreamDict(ir)
		if err != nil {
			return err
		}
		img, err = pdfcpu.ExtractImage(ctx, sd, false, res.Name, res.XRef, false)
		return err
	})
	if err != nil {
		return Payload{}, err
	}
	if img == nil || img.Reader == nil {
		return Payload{}, errors.New("no extractable payload")
	}
	data, err := io.ReadAll(img.Reader)
	if err != nil {
		return Payload{}, err
	}
	return Payload{Data: data, Ext: strings.ToLower(img.FileType)}, nil
}

// resolveImage follows ref's form chain through the pdfcpu object graph and
// returns the indirect reference of the image it names. A form without its
// own /Resources uses the enclosing ones.
func resolveImage(ctx *model.Context, res types.Dict, ref imageRef) (*types.IndirectRef, error) {
	for _, form := range ref.forms {
		ir, err := xobject(ctx, res, form)
		if err != nil {
			return nil, err
		}
		sd, _, err := ctx.DereferenceStreamDict(*ir)
		if err != nil {
			return nil, err
		}
		if sd == nil {
			return nil, fmt.Errorf("form %s: not a stream", form)
		}
		if obj, ok := sd.Find("Resources"); ok {
			d, err := ctx.DereferenceDict(obj)
			if err != nil {
				return nil, err
			}
			if d != nil {
				res = d
			}
		}
	}
	return xobject(ctx, res, ref.name)
}

func xobject(ctx *model.Context, res types.Dict, name string) (*types.IndirectRef, error) {
	obj, ok := res.Find("XObject")
	if !ok {
		return nil, errors.New("no XObject resources")
	}
	xobjs, err := ctx.DereferenceDict(obj)
	if err != nil {
		return nil, err
	}
	ir := xobjs.IndirectRefEntry(name)
	if ir == nil {
		return nil, fmt.Errorf("xobject %s is not an indirect object", name)
	}
	return ir, nil
}

// mediaBox walks the page tree for the inherited MediaBox, defaulting to US Letter.
func mediaBox(p rpdf.Page) Rect {
	v := p.V
	for i := 0; i < 32 && v.Kind() == rpdf.Dict; i++ {
		if mb := v.Key("MediaBox"); mb.Kind() == rpdf.Array && mb.Len() == 4 {
			return Rect{
				X0: mb.Index(0).Float64(),
				Y0: mb.Index(1).Float64(),
				X1: mb.Index(2).Float64(),
				Y1: mb.Index(3).Float64(),
			}
		}
		v = v.Key("Parent")
	}
	return Rect{X0: 0, Y0: 0, X1: 612, Y1: 792}
}

func contentStreams(p rpdf.Page) []rpdf.Value {
	c := p.V.Key("Contents")
	switch c.Kind() {
	case rpdf.Stream:
		return []rpdf.Value{c}
	case rpdf.Array:
		out := make([]rpdf.Value, 0, c.Len())
		for i := 0; i < c.Len(); i++ {
			if s := c.Index(i); s.Kind() == rpdf.Stream {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// guard turns rsc.io/pdf and pdfcpu panics on malformed input into errors.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return fn()
}
