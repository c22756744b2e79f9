//go:build ocr

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// Tesseract recognises text with a fresh gosseract client per call; clients are not
// safe for concurrent use.
type Tesseract struct {
	languages []string

	checkOnce sync.Once
	checkErr  error
}

// NewTesseract returns a Tesseract engine for the given languages (e.g. "eng", "deu").
func NewTesseract(languages []string) *Tesseract {
	return &Tesseract{languages: languages}
}

func (t *Tesseract) Name() string { return "tesseract" }

// Available initialises the engine once against a blank image and caches the outcome, so
// missing tessdata for the configured languages is reported instead of failing every page.
func (t *Tesseract) Available() error {
	t.checkOnce.Do(func() {
		if err := t.selfCheck(); err != nil {
			t.checkErr = models.NewUnavailableError("ocr", err.Error())
		}
	})
	return t.checkErr
}

func (t *Tesseract) selfCheck() error {
	blank := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range blank.Pix {
		blank.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, blank); err != nil {
		return err
	}
	client := gosseract.NewClient()
	defer client.Close()
	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return fmt.Errorf("set languages %v: %w", t.languages, err)
		}
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	if _, err := client.Text(); err != nil {
		return fmt.Errorf("initialise tesseract for %v: %w", t.languages, err)
	}
	return nil
}

func (t *Tesseract) Recognize(ctx context.Context, image []byte) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}
	client := gosseract.NewClient()
	defer client.Close()

	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return Recognition{}, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return Recognition{}, fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("recognize text: %w", err)
	}

	rec := Recognition{Text: strings.TrimSpace(text)}
	rec.Confidence, rec.HasConfidence = wordConfidence(client)
	return rec, nil
}

// wordConfidence is the mean word-box confidence scaled to [0,1].
func wordConfidence(c *gosseract.Client) (float64, bool) {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0, false
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence / 100.0
	}
	return clamp(sum / float64(len(boxes))), true
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
