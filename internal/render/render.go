package render

import (
	"errors"
	"fmt"
	"strings"
)

// Format selects the document form.
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat accepts "html" or "pdf" in any case.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHTML, FormatPDF:
		return f, nil
	}
	return "", fmt.Errorf("unsupported document format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/html; charset=utf-8"
}

// Filename suggests invoice_<number>.<ext> for a download.
func Filename(number string, f Format) string {
	return "invoice_" + number + "." + string(f)
}

// ErrRender is matched by every RenderError.
var ErrRender = errors.New("render failed")

// RenderError wraps a template or PDF engine failure. No output accompanies it.
type RenderError struct {
	Format Format
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRender }

// Document is a fully rendered export.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Renderer produces document bytes from a View.
type Renderer interface {
	HTML(v View) ([]byte, error)
	PDF(v View) ([]byte, error)
}

// Engine is the built-in Renderer: html/template for HTML and gofpdf for PDF.
type Engine struct {
	// Compress PDF content streams. Off keeps text searchable in the raw bytes.
	CompressPDF bool
}

// NewEngine returns an Engine with compressed PDF output.
func NewEngine() *Engine { return &Engine{CompressPDF: true} }

// Render produces the document for v in format f using r.
func Render(r Renderer, v View, f Format) (*Document, error) {
	var (
		body []byte
		err  error
	)
	switch f {
	case FormatHTML:
		body, err = r.HTML(v)
	case FormatPDF:
		body, err = r.PDF(v)
	default:
		return nil, &RenderError{Format: f, Err: fmt.Errorf("unsupported format")}
	}
	if err != nil {
		var re *RenderError
		if !errors.As(err, &re) {
			err = &RenderError{Format: f, Err: err}
		}
		return nil, err
	}
	return &Document{Filename: Filename(v.Number, f), ContentType: f.ContentType(), Body: body}, nil
}
