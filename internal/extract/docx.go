package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/hyperjump/docanalyzer/internal/models"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

var (
	// wtTag matches <w:t>text</w:t> with any attributes.
	wtTag = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)

	wParaEnd = regexp.MustCompile(`</w:p>|<w:br[^>]*/>|<w:cr/>`)

	// Override elements carry PartName and ContentType in either order.
	partNameRe  = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml,
// without the leading slash. Empty when not declared.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	content, err := readZipFile(zr, contentTypesPath)
	if err != nil {
		return ""
	}
	if m := partNameRe.FindSubmatch(content); len(m) > 1 {
		return strings.TrimPrefix(string(m[1]), "/")
	}
	if m := partNameRe2.FindSubmatch(content); len(m) > 1 {
		return strings.TrimPrefix(string(m[1]), "/")
	}
	return ""
}

// loadDOCX returns the body of a .docx as a single page, one line per paragraph.
// Word processing documents carry no reliable pagination.
func loadDOCX(content []byte) ([]models.Page, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return nil, fmt.Errorf("extract DOCX: %w", err)
	}

	var b strings.Builder
	for _, para := range wParaEnd.Split(string(docXML), -1) {
		var line strings.Builder
		for _, m := range wtTag.FindAllStringSubmatch(para, -1) {
			line.WriteString(html.UnescapeString(m[1]))
		}
		if text := strings.TrimSpace(line.String()); text != "" {
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(text)
		}
	}
	return []models.Page{{Index: 0, NativeText: b.String()}}, nil
}

// readZipFile returns the contents of the named entry.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("%s not found", name)
}

// detectPackage identifies a zip upload without a useful extension by its entries.
func detectPackage(content []byte) (models.Format, bool) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", false
	}
	for _, f := range zr.File {
		switch {
		case strings.HasPrefix(f.Name, "word/"):
			return models.FormatDOCX, true
		case strings.HasPrefix(f.Name, "xl/"):
			return models.FormatXLSX, true
		case strings.HasPrefix(f.Name, "ppt/"):
			return models.FormatPPTX, true
		case f.Name == odfContentPath:
			return models.FormatODF, true
		}
	}
	return "", false
}
