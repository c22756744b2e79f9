// Package extract loads uploaded documents into pages of native text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/hyperjump/docanalyzer/internal/config"
	"github.com/hyperjump/docanalyzer/internal/models"
)

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// Loader turns raw upload bytes into a validated Document.
type Loader struct {
	maxBytes int64
	maxPages int
	tempDir  string
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithTempDir sets where the short-lived copy used for PDF layout analysis is written.
// The default is the system temporary directory.
func WithTempDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.tempDir = dir
	}
}

// NewLoader returns a Loader enforcing the given limits. Zero limits are not enforced.
func NewLoader(limits config.LimitsConfig, opts ...LoaderOption) *Loader {
	l := &Loader{maxBytes: limits.MaxDocumentBytes, maxPages: limits.MaxPages}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads the file at path and loads it.
func (l *Loader) LoadFile(ctx context.Context, path string) (*models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return l.Load(ctx, filepath.Base(path), content)
}

// Load detects the format of data and splits it into pages.
// Every rejection is a *models.InputError.
func (l *Loader) Load(ctx context.Context, name string, data []byte) (*models.Document, error) {
	if len(data) == 0 {
		return nil, models.NewInputError(models.InputEmpty, name, nil)
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return nil, models.NewInputError(models.InputTooLarge,
			fmt.Sprintf("%s is %d bytes, limit is %d", name, len(data), l.maxBytes), nil)
	}

	format, ok := DetectFormat(name, data)
	if !ok {
		return nil, models.NewInputError(models.InputUnsupported, name, nil)
	}

	var (
		pages []models.Page
		err   error
	)
	switch format {
	case models.FormatPDF:
		pages, err = l.loadPDF(ctx, data)
	case models.FormatDOCX:
		pages, err = loadDOCX(data)
	case models.FormatXLSX:
		pages, err = loadExcel(data)
	case models.FormatPPTX:
		pages, err = loadPPTX(data)
	case models.FormatODF:
		pages, err = loadODF(name, data)
	default:
		pages = loadPlain(data)
	}
	if err != nil {
		return nil, asInputError(name, err)
	}
	if l.maxPages > 0 && len(pages) > l.maxPages {
		return nil, models.NewInputError(models.InputTooManyPages,
			fmt.Sprintf("%s has %d pages, limit is %d", name, len(pages), l.maxPages), nil)
	}

	doc := models.NewDocument(name, format, int64(len(data)), pages)
	if err := doc.Validate(); err != nil {
		return nil, models.NewInputError(models.InputCorrupt, name, err)
	}
	return doc, nil
}

// asInputError keeps typed input errors and cancellation, and classifies anything else as corrupt.
func asInputError(name string, err error) error {
	var ie *models.InputError
	if errors.As(err, &ie) {
		if ie.Detail == "" {
			ie.Detail = name
		}
		return ie
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return models.NewInputError(models.InputCorrupt, name, err)
}

// DetectFormat picks the format from the file extension, falling back to magic bytes
// and finally to plain text when the content is valid UTF-8.
func DetectFormat(name string, data []byte) (models.Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return models.FormatPDF, true
	case ".docx":
		return models.FormatDOCX, true
	case ".xlsx":
		return models.FormatXLSX, true
	case ".pptx":
		return models.FormatPPTX, true
	case ".odt", ".ods", ".odp":
		return models.FormatODF, true
	case ".txt", ".md", ".rst", ".text":
		return models.FormatPlain, true
	}

	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return models.FormatPDF, true
	case bytes.HasPrefix(data, zipMagic):
		return detectPackage(data)
	case utf8.Valid(data) && bytes.IndexByte(data, 0) < 0:
		return models.FormatPlain, true
	}
	return "", false
}
