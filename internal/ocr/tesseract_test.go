//go:build ocr

package ocr

import (
	"testing"

	"github.com/hyperjump/docanalyzer/internal/models"
)

func TestTesseract_missingLanguageUnavailable(t *testing.T) {
	rec := NewTesseract([]string{"zz-no-such-traineddata"})
	err := rec.Available()
	if !models.IsUnavailable(err) {
		t.Fatalf("Available() = %v, want unavailable", err)
	}
	if again := rec.Available(); again != err {
		t.Errorf("second check = %v, want cached %v", again, err)
	}
}
