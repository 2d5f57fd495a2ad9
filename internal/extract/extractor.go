package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Extractor turns a PDF into a reading-order markdown document and writes the
// images it places to a per-document asset directory.
type Extractor struct {
	outputDir string
	assetDir  string
	open      Opener
	log       *slog.Logger
}

type Option func(*Extractor)

func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.log = l
		}
	}
}

// WithOpener replaces the PDF backend.
func WithOpener(open Opener) Option {
	return func(e *Extractor) {
		if open != nil {
			e.open = open
		}
	}
}

// New creates outputDir and assetDir if they do not exist yet.
func New(outputDir, assetDir string, opts ...Option) (*Extractor, error) {
	e := &Extractor{
		outputDir: outputDir,
		assetDir:  assetDir,
		open:      OpenPDF,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, dir := range []string{outputDir, assetDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &Error{Op: "create directory", Path: dir, Kind: ErrFilesystem, Err: err}
		}
	}
	return e, nil
}

func (e *Extractor) OutputDir() string { return e.outputDir }
func (e *Extractor) AssetDir() string  { return e.assetDir }

type extractOptions struct {
	limit   int
	limited bool
}

type ExtractOption func(*extractOptions)

// WithPageLimit processes at most n pages. n <= 0 processes none and still
// writes an empty markdown file.
func WithPageLimit(n int) ExtractOption {
	return func(o *extractOptions) {
		o.limit = n
		o.limited = true
	}
}

// Result describes one finished extraction.
type Result struct {
	OutputPath   string `json:"output_path"`
	DocumentName string `json:"document_name"`
	Pages        int    `json:"pages"`
	Images       int    `json:"images_extracted"`
	Skipped      int    `json:"images_skipped,omitempty"`
}

// Extract processes the document at documentPath and writes
// <outputDir>/<name>_extracted.md. The markdown is only written once every
// page succeeded; images written before a failure stay on disk.
func (e *Extractor) Extract(ctx context.Context, documentPath string, opts ...ExtractOption) (Result, error) {
	var o extractOptions
	for _, opt := range opts {
		opt(&o)
	}

	if _, err := os.Stat(documentPath); err != nil {
		return Result{}, &Error{Op: "open", Path: documentPath, Kind: ErrInput, Err: err}
	}
	doc, err := e.open(documentPath)
	if err != nil {
		return Result{}, &Error{Op: "open", Path: documentPath, Kind: ErrInput, Err: err}
	}
	defer func() {
		if err := doc.Close(); err != nil {
			e.log.Warn("closing document", "path", documentPath, "error", err)
		}
	}()

	name := DocumentName(documentPath)
	r := &documentRun{
		log:    e.log.With("document", name),
		path:   documentPath,
		name:   name,
		assets: filepath.Join(e.assetDir, name),
	}
	if err := os.MkdirAll(r.assets, 0o755); err != nil {
		return Result{}, &Error{Op: "create directory", Path: r.assets, Kind: ErrFilesystem, Err: err}
	}

	total := doc.NumPages()
	n := total
	if o.limited {
		n = max(min(total, o.limit), 0)
	}
	r.log.Info("extracting", "path", documentPath, "pages", total, "processing", n)

	res := Result{DocumentName: name}
	sections := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, &Error{Op: "extract", Path: documentPath, Page: i + 1, Err: err}
		}
		section, stats, err := r.page(doc, i)
		if err != nil {
			return Result{}, err
		}
		sections = append(sections, section)
		res.Pages++
		res.Images += stats.images
		res.Skipped += stats.skipped
	}

	out := MarkdownPath(e.outputDir, name)
	if err := os.WriteFile(out, []byte(strings.Join(sections, "\n")), 0o644); err != nil {
		return Result{}, &Error{Op: "write markdown", Path: out, Kind: ErrFilesystem, Err: err}
	}
	res.OutputPath = out
	r.log.Info("extraction complete", "output", out, "pages", res.Pages, "images", res.Images, "skipped", res.Skipped)
	return res, nil
}

type documentRun struct {
	log    *slog.Logger
	path   string
	name   string
	assets string
}

type pageStats struct {
	images  int
	skipped int
}

func (r *documentRun) fail(op string, page int, kind, err error) error {
	return &Error{Op: op, Path: r.path, Page: page, Kind: kind, Err: err}
}

func (r *documentRun) page(doc Document, index int) (string, pageStats, error) {
	var stats pageStats
	pageNumber := index + 1
	r.log.Debug("scanning page", "page", pageNumber)

	page, err := doc.Page(index)
	if err != nil {
		return "", stats, r.fail("read page", pageNumber, ErrInput, err)
	}

	blocks, err := page.TextBlocks()
	if err != nil {
		return "", stats, r.fail("read text", pageNumber, ErrInput, err)
	}
	frags := make([]Fragment, 0, len(blocks))
	for _, b := range blocks {
		if strings.TrimSpace(b.Text) == "" {
			continue
		}
		frags = append(frags, TextFragment{Rect: b.Box, Text: b.Text})
	}

	resources, err := page.ImageResources()
	if err != nil {
		return "", stats, r.fail("read images", pageNumber, ErrInput, err)
	}
	occurrence := 0
	for _, res := range resources {
		rects, err := page.ImageRects(res)
		if err != nil {
			return "", stats, r.fail("read image placements", pageNumber, ErrInput, err)
		}
		if len(rects) == 0 {
			continue
		}
		payload, perr := imagePayload(page, res)
		for _, rect := range rects {
			idx := occurrence
			occurrence++
			if perr != nil {
				stats.skipped++
				r.log.Warn("skipping image placement", "page", pageNumber, "resource", res.Name, "xref", res.XRef, "error", perr)
				continue
			}
			filename := imageFilename(pageNumber, idx, payload.Ext)
			dst := filepath.Join(r.assets, filename)
			if err := os.WriteFile(dst, payload.Data, 0o644); err != nil {
				return "", stats, r.fail("write image", pageNumber, ErrFilesystem, err)
			}
			stats.images++
			frags = append(frags, ImageFragment{
				Rect: rect,
				Path: dst,
				Link: imageLink(r.name, filename),
			})
		}
	}

	sortFragments(frags)
	return renderPage(pageNumber, frags), stats, nil
}

func imagePayload(page Page, res ImageResource) (Payload, error) {
	p, err := page.ImagePayload(res)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %s: %w", ErrMalformedResource, res.Name, err)
	}
	p.Ext = strings.ToLower(strings.TrimPrefix(p.Ext, "."))
	if len(p.Data) == 0 || p.Ext == "" || strings.ContainsAny(p.Ext, `/\`) {
		return Payload{}, fmt.Errorf("%w: %s: empty payload or unknown format", ErrMalformedResource, res.Name)
	}
	return p, nil
}
