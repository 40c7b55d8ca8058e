// Package formatter renders chat transcripts as downloadable documents.
package formatter

import (
	"fmt"
	"sort"

	"github.com/futig/docchat/internal/entity"
)

const (
	baseTitle       = "Chat transcript"
	queryHeading    = "Query"
	responseHeading = "Response"
	docsHeading     = "Documents"
	noDocuments     = "No documents matched the query."
)

type Formatter interface {
	Format(t *entity.Transcript) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", entity.ErrInvalidFormat, format)
	}
}

type exportDoc struct {
	id   string
	text string
}

// sortedDocuments orders documents by content id so exports are stable.
func sortedDocuments(docs entity.RetrievalResult) []exportDoc {
	out := make([]exportDoc, 0, len(docs))
	for id, text := range docs {
		out = append(out, exportDoc{id: id, text: text})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}
