package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/docchat/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(t *entity.Transcript) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", baseTitle)
	fmt.Fprintf(&buf, "## %s\n\n%s\n\n", queryHeading, t.Query)
	fmt.Fprintf(&buf, "## %s\n\n%s\n\n", responseHeading, t.Response)
	fmt.Fprintf(&buf, "## %s\n\n", docsHeading)

	docs := sortedDocuments(t.Documents)
	if len(docs) == 0 {
		fmt.Fprintf(&buf, "%s\n", noDocuments)
	}
	for _, d := range docs {
		fmt.Fprintf(&buf, "### %s\n\n%s\n\n", d.id, d.text)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
