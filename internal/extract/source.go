package extract

// Document is an opened input document. Pages are addressed by 0-based index.
type Document interface {
	NumPages() int
	Page(index int) (Page, error)
	Close() error
}

// Page gives random access to the content of one page.
type Page interface {
	TextBlocks() ([]TextBlock, error)
	// ImageResources lists the distinct image resources referenced on the page.
	ImageResources() ([]ImageResource, error)
	// ImageRects returns every box where res is drawn on the page.
	ImageRects(res ImageResource) ([]Rect, error)
	// ImagePayload returns the stored bytes of res. Errors are treated as
	// malformed resources and skip the placements of res.
	ImagePayload(res ImageResource) (Payload, error)
}

// TextBlock is a block of text with its bounding box.
type TextBlock struct {
	Box  Rect
	Text string
}

// ImageResource identifies an embedded image. XRef is its object number in
// the document; Name is the resource name it is drawn under, for logs.
// Backends that cannot resolve object numbers leave XRef at 0 and make Name
// unique instead.
type ImageResource struct {
	Name string
	XRef int
}

// Payload is the raw image data as stored in the document.
type Payload struct {
	Data []byte
	Ext  string // file extension without the dot, e.g. "png"
}

// Opener opens the document at path.
type Opener func(path string) (Document, error)
