package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/abram-kaleb/slidenauli/internal/document"
)

// MarkdownParser handles Markdown files using goldmark. Headings, list
// items and every line of a paragraph or code block become paragraphs.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, unparseable("read markdown", err)
	}

	root := goldmark.New().Parser().Parse(text.NewReader(src))
	doc := &document.Document{Title: titleFromName(filename)}

	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch c.Kind() {
			case ast.KindList, ast.KindListItem, ast.KindBlockquote:
				walk(c)
			default:
				if c.Type() == ast.TypeBlock {
					doc.Paragraphs = append(doc.Paragraphs, splitLines(extractText(c, src))...)
				}
			}
		}
	}
	walk(root)
	return doc, nil
}

// extractText gets the text content of a goldmark AST node. Soft and hard
// line breaks are kept as newlines.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && !n.HasChildren() {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte('\n')
			}
		} else {
			buf.WriteString(extractText(c, src))
		}
	}
	return strings.TrimSpace(buf.String())
}
