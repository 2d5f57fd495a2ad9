package extract

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInput reports a missing, unreadable or unparseable input document.
	ErrInput = errors.New("invalid input document")
	// ErrFilesystem reports a directory or file that could not be created or written.
	ErrFilesystem = errors.New("filesystem error")
	// ErrMalformedResource reports an image whose payload could not be extracted.
	// It only ever skips a placement; Extract does not return it.
	ErrMalformedResource = errors.New("malformed image resource")
)

// Error carries the stage, document and page of a failed extraction.
// errors.Is matches both Kind and the underlying cause.
type Error struct {
	Op   string
	Path string
	Page int // 1-based, 0 when not tied to a page
	Kind error
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Path != "" {
		b.WriteString(" ")
		b.WriteString(e.Path)
	}
	if e.Page > 0 {
		fmt.Fprintf(&b, " (page %d)", e.Page)
	}
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
