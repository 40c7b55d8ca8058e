package formatter

import (
	"bytes"
	"strings"

	"github.com/futig/docchat/internal/entity"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(t *entity.Transcript) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	heading := func(style, text string) {
		p := doc.AddParagraph()
		p.SetStyle(style)
		p.AddRun().AddText(text)
	}
	body := func(text string) {
		// one paragraph per line, unioffice does not break on \n
		for _, line := range strings.Split(text, "\n") {
			doc.AddParagraph().AddRun().AddText(line)
		}
	}

	heading("Title", baseTitle)

	heading("Heading1", queryHeading)
	body(t.Query)

	heading("Heading1", responseHeading)
	body(t.Response)

	heading("Heading1", docsHeading)
	docs := sortedDocuments(t.Documents)
	if len(docs) == 0 {
		body(noDocuments)
	}
	for _, d := range docs {
		heading("Heading2", d.id)
		body(d.text)
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
