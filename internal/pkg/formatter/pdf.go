package formatter

import (
	"bytes"
	"os"

	"github.com/futig/docchat/internal/entity"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	unicodeFont  = "DejaVuSans"
	fallbackFont = "Helvetica"
)

// Places DejaVuSans.ttf is looked up, binary layout first
var fontPaths = []string{
	"ttf/DejaVuSans.ttf",
	"internal/pkg/formatter/ttf/DejaVuSans.ttf",
}

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

func findFont() string {
	for _, p := range fontPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Format lays the transcript out on A4 pages. Without the TTF font the
// core font is used and text is mapped to cp1252, so characters outside it
// are lost.
func (pf *PDFFormatter) Format(t *entity.Transcript) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(baseTitle, true)
	pdf.AddPage()

	font := fallbackFont
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if path := findFont(); path != "" {
		pdf.AddUTF8Font(unicodeFont, "", path)
		pdf.AddUTF8Font(unicodeFont, "B", path)
		font = unicodeFont
		tr = func(s string) string { return s }
	}

	heading := func(size float64, text string) {
		pdf.SetFont(font, "B", size)
		pdf.MultiCell(0, size*0.5, tr(text), "", "", false)
		pdf.Ln(3)
	}
	body := func(text string) {
		pdf.SetFont(font, "", 11)
		pdf.MultiCell(0, 6, tr(text), "", "", false)
		pdf.Ln(4)
	}

	heading(20, baseTitle)
	heading(14, queryHeading)
	body(t.Query)
	heading(14, responseHeading)
	body(t.Response)
	heading(14, docsHeading)

	docs := sortedDocuments(t.Documents)
	if len(docs) == 0 {
		body(noDocuments)
	}
	for _, d := range docs {
		heading(12, d.id)
		body(d.text)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
