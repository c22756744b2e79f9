// Package ocr recognises text in rendered page images.
//
// The Tesseract engine wraps gosseract and is compiled only with the "ocr" build tag,
// since it links against the Tesseract and Leptonica C libraries:
//
//	go build -tags ocr ./...
//
// Without the tag the engine reports itself unavailable and scanned pages resolve to
// empty text.
package ocr

import (
	"context"
	"errors"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
)

// ErrNoPageImage is returned when a page has nothing that can be rendered.
var ErrNoPageImage = errors.New("page has no renderable image")

// Recognition is the output of one OCR call. HasConfidence is false when the
// engine produced text without word confidences.
type Recognition struct {
	Text          string
	Confidence    float64
	HasConfidence bool
}

// Recognizer turns an encoded image (PNG, TIFF, JPEG) into text.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Recognition, error)
	// Available returns nil when the engine can be used, otherwise an error
	// wrapping models.ErrUnavailable.
	Available() error
	Name() string
}

// PageRenderer produces an image of a document page for OCR.
type PageRenderer interface {
	RenderPage(ctx context.Context, index int) ([]byte, error)
}

// NewRecognizer returns the engine selected by cfg.Engine.
func NewRecognizer(cfg config.OCRConfig) Recognizer {
	switch strings.ToLower(cfg.Engine) {
	case "", "tesseract":
		return NewTesseract(cfg.Languages)
	default:
		return Disabled{Reason: "unknown engine " + cfg.Engine}
	}
}

// Disabled is a Recognizer that is never available.
type Disabled struct {
	Reason string
}

func (d Disabled) Recognize(context.Context, []byte) (Recognition, error) {
	return Recognition{}, d.Available()
}

func (d Disabled) Available() error {
	reason := d.Reason
	if reason == "" {
		reason = "disabled"
	}
	return models.NewUnavailableError("ocr", reason)
}

func (d Disabled) Name() string { return "none" }
