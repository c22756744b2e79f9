package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
	"github.com/tsawler/tabula/text"

	"github.com/hyperjump/docanalyzer/internal/models"
)

const tableCellSeparator = " | "

// annotatePDF runs tabula's layout reader over content, appending the rows of every
// detected table to the page text and flagging pages that carry tables or images.
// The copy written for the reader is removed before return.
func (l *Loader) annotatePDF(ctx context.Context, content []byte, pages []models.Page) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("layout: %v", r)
		}
	}()

	f, err := os.CreateTemp(l.tempDir, ".docanalyzer-*.pdf")
	if err != nil {
		return fmt.Errorf("create layout copy: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(content); err != nil {
		f.Close()
		return fmt.Errorf("write layout copy: %w", err)
	}

	r, err := reader.NewReader(f)
	if err != nil {
		f.Close()
		return fmt.Errorf("open layout reader: %w", err)
	}
	defer r.Close()

	detector := tables.NewGeometricDetector()
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := r.GetPage(i)
		if err != nil {
			continue
		}
		if images, err := r.ExtractPageImages(page); err == nil && len(images) > 0 {
			pages[i].HasImage = true
		}

		fragments, err := r.ExtractTextFragments(page)
		if err != nil || len(fragments) == 0 {
			continue
		}
		width, _ := page.Width()
		height, _ := page.Height()
		found, err := detector.Detect(layoutPage(width, height, fragments))
		if err != nil || len(found) == 0 {
			continue
		}
		pages[i].HasTable = true
		pages[i].NativeText = appendTables(pages[i].NativeText, found)
	}
	return nil
}

func layoutPage(width, height float64, fragments []text.TextFragment) *model.Page {
	p := model.NewPage(width, height)
	for _, f := range fragments {
		p.RawText = append(p.RawText, model.TextFragment{
			Text:     f.Text,
			BBox:     model.NewBBox(f.X, f.Y, f.Width, f.Height),
			FontSize: f.FontSize,
			FontName: f.FontName,
		})
	}
	return p
}

// appendTables adds one line per non-empty table row, cells joined by " | ".
func appendTables(pageText string, found []*model.Table) string {
	var sb strings.Builder
	sb.WriteString(pageText)
	for _, t := range found {
		for _, row := range t.Rows {
			cells := make([]string, len(row))
			empty := true
			for j, c := range row {
				cells[j] = strings.TrimSpace(c.Text)
				if cells[j] != "" {
					empty = false
				}
			}
			if empty {
				continue
			}
			if sb.Len() > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(strings.Join(cells, tableCellSeparator))
		}
	}
	return sb.String()
}
