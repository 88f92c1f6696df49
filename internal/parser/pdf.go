package parser

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/abram-kaleb/slidenauli/internal/document"
)

// PDFParser handles PDF files. It tries the Go library first,
// then falls back to pdftotext if available. Every text line becomes a
// paragraph.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	// ledongthuc/pdf opens by path, so we write to a temp file.
	tmp, err := os.CreateTemp("", "slidenauli-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	text, err := extractPDFText(tmpPath)
	if err != nil && p.FallbackPdftotext {
		text, err = extractPdftotext(tmpPath)
	}
	if err != nil {
		return nil, unparseable("pdf", err)
	}

	doc := &document.Document{Title: titleFromName(filename)}
	for _, page := range strings.Split(text, "\f") {
		doc.Paragraphs = append(doc.Paragraphs, splitLines(page)...)
	}
	return doc, nil
}

func extractPDFText(path string) (text string, err error) {
	// The library panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var buf strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}
		if i > 1 {
			buf.WriteString("\f") // Form feed as page separator.
		}
		for _, row := range rows {
			for _, word := range row.Content {
				buf.WriteString(word.S)
			}
			buf.WriteString("\n")
		}
	}
	return buf.String(), nil
}

func extractPdftotext(path string) (string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
