package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// maxTreeDepth bounds the walk up the page tree when resolving inherited attributes.
const maxTreeDepth = 32

func (l *Loader) loadPDF(ctx context.Context, content []byte) (pages []models.Page, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("parse PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, models.NewInputError(models.InputEncrypted, "", err)
		}
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	numPages := r.NumPage()
	if numPages == 0 {
		return nil, fmt.Errorf("open PDF: no pages")
	}
	if l.maxPages > 0 && numPages > l.maxPages {
		return nil, models.NewInputError(models.InputTooManyPages,
			fmt.Sprintf("%d pages, limit is %d", numPages, l.maxPages), nil)
	}

	pages = make([]models.Page, 0, numPages)
	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i + 1)
		p := models.Page{Index: i}
		if !page.V.IsNull() {
			p.NativeText = pageText(page)
			p.Width, p.Height = mediaBox(page.V)
		}
		pages = append(pages, p)
	}
	// Tables and images are supplementary; a layout failure keeps the plain text.
	if err := l.annotatePDF(ctx, content, pages); err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return pages, nil
}

// pageText returns the native text of a page. A page whose content stream cannot be
// decoded yields empty text so the page falls through to OCR.
func pageText(page pdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	// The parser opens every text run on a new line.
	return strings.Trim(text, "\n")
}

// mediaBox returns the page size in points, following Parent links for inherited boxes.
func mediaBox(v pdf.Value) (width, height float64) {
	for depth := 0; depth < maxTreeDepth && !v.IsNull(); depth++ {
		box := v.Key("MediaBox")
		if box.Kind() == pdf.Array && box.Len() == 4 {
			width = box.Index(2).Float64() - box.Index(0).Float64()
			height = box.Index(3).Float64() - box.Index(1).Float64()
			if width < 0 {
				width = -width
			}
			if height < 0 {
				height = -height
			}
			return width, height
		}
		v = v.Key("Parent")
	}
	return 0, 0
}
