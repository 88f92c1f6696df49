package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/abram-kaleb/slidenauli/internal/document"
)

// ErrUnparseable is returned when input bytes cannot be read as a document
// of the claimed type. Library errors are wrapped alongside it.
var ErrUnparseable = errors.New("unparseable document")

// ErrUnsupported is returned for file extensions no parser handles.
var ErrUnsupported = errors.New("unsupported file type")

// Parser converts raw document bytes into a Document.
type Parser interface {
	Parse(r io.Reader, filename string) (*document.Document, error)
}

// SupportedExtensions lists file extensions this service can handle. Legacy
// .doc uploads are accepted and converted to .docx before parsing.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
	".doc":  true,
}

// PDFFallbackPdftotext lets PDF parsing shell out to pdftotext when the Go
// reader fails.
var PDFFallbackPdftotext = true

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".doc":
		return nil, fmt.Errorf("%w: %s must be converted to .docx first", ErrUnsupported, ext)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ParseBytes picks a parser by filename and parses data.
func ParseBytes(data []byte, filename string) (*document.Document, error) {
	p, err := ForFile(filename)
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(data), filename)
}

func unparseable(kind string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnparseable, kind, err)
}

func titleFromName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// splitLines turns a multi-line block into one paragraph per line.
func splitLines(block string) []string {
	var out []string
	for _, line := range strings.Split(block, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
