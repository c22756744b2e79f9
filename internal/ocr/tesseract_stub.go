//go:build !ocr

package ocr

import (
	"context"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// Tesseract is the stub used when the "ocr" build tag is not set.
type Tesseract struct {
	languages []string
}

// NewTesseract returns an engine that reports itself unavailable.
func NewTesseract(languages []string) *Tesseract {
	return &Tesseract{languages: languages}
}

func (t *Tesseract) Name() string { return "tesseract" }

func (t *Tesseract) Available() error {
	return models.NewUnavailableError("ocr", "tesseract support not compiled in; rebuild with -tags ocr")
}

func (t *Tesseract) Recognize(context.Context, []byte) (Recognition, error) {
	return Recognition{}, t.Available()
}
