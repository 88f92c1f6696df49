package parser

import (
	"bufio"
	"io"

	"github.com/abram-kaleb/slidenauli/internal/document"
)

// TextParser handles plain text files. Each line is one paragraph, the way
// a word processor stores a service order.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	doc := &document.Document{Title: titleFromName(filename)}
	for scanner.Scan() {
		doc.Paragraphs = append(doc.Paragraphs, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, unparseable("text", err)
	}
	return doc, nil
}
