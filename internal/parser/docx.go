package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/abram-kaleb/slidenauli/internal/document"
)

// DOCXParser handles .docx files. Paragraph text comes from go-docx; images
// related to the main document part are read from the package directly.
type DOCXParser struct{}

func (p *DOCXParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, unparseable("read docx", err)
	}

	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, unparseable("docx", err)
	}

	out := &document.Document{Title: titleFromName(filename)}
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		out.Paragraphs = append(out.Paragraphs, docxParagraphText(para))
	}

	images, err := docxImages(data)
	if err != nil {
		return nil, unparseable("docx media", err)
	}
	out.Images = images
	return out, nil
}

// docxParagraphText concatenates the text runs of one paragraph. A
// paragraph is one line of a service order, so it is never split.
func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
