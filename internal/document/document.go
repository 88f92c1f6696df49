package document

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Document is a parsed rich-text document reduced to what the slide
// pipeline consumes: paragraph text in reading order and embedded images.
type Document struct {
	Title      string   // Document title (from metadata or filename)
	Paragraphs []string // Raw paragraph text, one entry per source paragraph
	Images     []Image  // Embedded images in relationship order
}

// Image is an embedded picture extracted from the source document.
type Image struct {
	Name        string // Part name inside the container, e.g. "media/image1.png"
	ContentType string // MIME type, e.g. "image/png"
	Data        []byte
}

// Lines returns the normalized, non-empty paragraph lines of the document.
func (d *Document) Lines() []string {
	if d == nil {
		return nil
	}
	return Normalize(d.Paragraphs)
}

// Normalize flattens raw paragraph runs into trimmed lines with internal
// whitespace collapsed to single spaces. Empty lines are dropped.
func Normalize(paragraphs []string) []string {
	lines := make([]string, 0, len(paragraphs))
	for _, p := range paragraphs {
		if l := NormalizeLine(p); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// NormalizeLine applies NFC composition and collapses every run of Unicode
// whitespace (including non-breaking spaces and tabs) into one space.
func NormalizeLine(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
