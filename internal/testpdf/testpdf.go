// Package testpdf builds small uncompressed PDF files for tests.
package testpdf

import (
	"bytes"
	"fmt"
	"strings"
)

// Page describes one page. Text is drawn with Helvetica; a non-nil Gray image of
// ImageWidth x ImageHeight 8-bit samples is attached as an image XObject.
type Page struct {
	Text        string
	Gray        []byte
	ImageWidth  int
	ImageHeight int
}

// Build returns a PDF whose pages inherit a US Letter MediaBox from the page tree.
func Build(pages ...Page) []byte {
	// Objects 1-3 are the catalog, page tree and font; each page then takes a page
	// object, a content stream and optionally an image.
	objs := []string{"", "", "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"}
	var kids []string
	for _, p := range pages {
		pageNum := len(objs) + 1
		contentNum := pageNum + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))

		resources := "/Font << /F1 3 0 R >>"
		content := ""
		if p.Text != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", escape(p.Text))
		}
		if p.Gray != nil {
			resources += fmt.Sprintf(" /XObject << /Im1 %d 0 R >>", contentNum+1)
			content += " q 612 0 0 792 0 0 cm /Im1 Do Q"
		}
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /Resources << %s >> /Contents %d 0 R >>", resources, contentNum),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
		if p.Gray != nil {
			objs = append(objs, fmt.Sprintf(
				"<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceGray /BitsPerComponent 8 /Length %d >>\nstream\n%s\nendstream",
				p.ImageWidth, p.ImageHeight, len(p.Gray), p.Gray))
		}
	}
	objs[0] = "<< /Type /Catalog /Pages 2 0 R >>"
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 612 792] >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// Text builds a PDF with one text page per argument.
func Text(texts ...string) []byte {
	pages := make([]Page, len(texts))
	for i, t := range texts {
		pages[i] = Page{Text: t}
	}
	return Build(pages...)
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}
