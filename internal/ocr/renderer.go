package ocr

import (
	"context"
	"fmt"
	"sync"

	"github.com/tsawler/tabula/reader"
)

// ImageRenderer renders a PDF page by decoding its largest embedded image. Scanned
// documents carry each page as a single full-page image, so this is what OCR needs.
// The file is opened on first use; the renderer is safe for concurrent use.
type ImageRenderer struct {
	path string

	mu     sync.Mutex
	r      *reader.Reader
	err    error
	opened bool
}

// NewImageRenderer returns a renderer for the PDF at path.
func NewImageRenderer(path string) *ImageRenderer {
	return &ImageRenderer{path: path}
}

// RenderPage returns the page image encoded as PNG. index is zero-based.
func (ir *ImageRenderer) RenderPage(ctx context.Context, index int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ir.mu.Lock()
	defer ir.mu.Unlock()

	if !ir.opened {
		ir.opened = true
		ir.r, ir.err = reader.Open(ir.path)
	}
	if ir.err != nil {
		return nil, fmt.Errorf("open for rendering: %w", ir.err)
	}

	page, err := ir.r.GetPage(index)
	if err != nil {
		return nil, fmt.Errorf("get page %d: %w", index, err)
	}
	images, err := ir.r.ExtractPageImages(page)
	if err != nil {
		return nil, fmt.Errorf("extract images from page %d: %w", index, err)
	}

	best := -1
	for i, img := range images {
		if best < 0 || img.Width*img.Height > images[best].Width*images[best].Height {
			best = i
		}
	}
	if best < 0 {
		return nil, ErrNoPageImage
	}
	data, err := images[best].ToPNG()
	if err != nil {
		return nil, fmt.Errorf("encode page %d: %w", index, err)
	}
	return data, nil
}

// Close releases the underlying file.
func (ir *ImageRenderer) Close() error {
	ir.mu.Lock()
	defer ir.mu.Unlock()
	if ir.r == nil {
		return nil
	}
	err := ir.r.Close()
	ir.r = nil
	return err
}
