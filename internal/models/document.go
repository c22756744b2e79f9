// Package models defines the documents, pages, extraction results and reports that flow through the
// analysis pipeline.
package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Format is the detected input format of a document.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatDOCX  Format = "docx"
	FormatXLSX  Format = "xlsx"
	FormatPPTX  Format = "pptx"
	FormatODF   Format = "odf"
	FormatPlain Format = "text"
)

// Renderable reports whether pages of this format can be rendered to an image for OCR.
func (f Format) Renderable() bool {
	return f == FormatPDF
}

// Document is one uploaded document. It lives only for the duration of a single analysis.
type Document struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Format    Format `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
	Pages     []Page `json:"-"`
}

// NewDocument returns a document with a fresh identifier.
func NewDocument(filename string, format Format, size int64, pages []Page) *Document {
	return &Document{
		ID:        uuid.NewString(),
		Filename:  filename,
		Format:    format,
		SizeBytes: size,
		Pages:     pages,
	}
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	return len(d.Pages)
}

// Validate checks the document invariants: at least one page, indices matching positions.
func (d *Document) Validate() error {
	if len(d.Pages) == 0 {
		return fmt.Errorf("document has no pages")
	}
	for i, p := range d.Pages {
		if p.Index != i {
			return fmt.Errorf("page at position %d has index %d", i, p.Index)
		}
	}
	return nil
}

// Page is a single page of a document. Width and Height are in PDF points and are zero
// when the format has no page geometry. HasTable and HasImage are only detected for PDFs.
type Page struct {
	Index      int
	NativeText string
	Width      float64
	Height     float64
	HasTable   bool
	HasImage   bool
}

// TextSource records where a page's effective text came from.
type TextSource string

const (
	SourceNative TextSource = "native"
	SourceOCR    TextSource = "ocr"
)

// PageText is the resolved effective text of one page.
type PageText struct {
	Index      int
	Text       string
	Source     TextSource
	Confidence float64
}
