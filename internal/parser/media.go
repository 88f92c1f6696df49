package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/abram-kaleb/slidenauli/internal/document"
)

const (
	docxMainPart     = "word/document.xml"
	docxMainRels     = "word/_rels/document.xml.rels"
	docxContentTypes = "[Content_Types].xml"
)

type relationships struct {
	Items []relationship `xml:"Relationship"`
}

type relationship struct {
	ID         string `xml:"Id,attr"`
	Type       string `xml:"Type,attr"`
	Target     string `xml:"Target,attr"`
	TargetMode string `xml:"TargetMode,attr"`
}

type contentTypes struct {
	Defaults []struct {
		Extension   string `xml:"Extension,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Default"`
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

// contentTypeOf resolves a part's MIME type: an Override wins over the
// Default for its extension.
func (c *contentTypes) contentTypeOf(part string) string {
	for _, o := range c.Overrides {
		if strings.TrimPrefix(o.PartName, "/") == part {
			return o.ContentType
		}
	}
	ext := strings.TrimPrefix(path.Ext(part), ".")
	for _, d := range c.Defaults {
		if strings.EqualFold(d.Extension, ext) {
			return d.ContentType
		}
	}
	return ""
}

// docxImages returns every image part related to the main document part, in
// relationship order. Linked (external) images and dangling targets are
// skipped; the same part referenced twice is returned once.
func docxImages(data []byte) ([]document.Image, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open package: %w", err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	var rels relationships
	if f, ok := files[docxMainRels]; ok {
		if err := decodeXML(f, &rels); err != nil {
			return nil, fmt.Errorf("read %s: %w", docxMainRels, err)
		}
	}
	var types contentTypes
	if f, ok := files[docxContentTypes]; ok {
		if err := decodeXML(f, &types); err != nil {
			return nil, fmt.Errorf("read %s: %w", docxContentTypes, err)
		}
	}

	var images []document.Image
	seen := make(map[string]bool)
	for _, rel := range rels.Items {
		if strings.EqualFold(rel.TargetMode, "External") {
			continue
		}
		part := resolvePart(path.Dir(docxMainPart), rel.Target)
		if seen[part] {
			continue
		}
		ct := types.contentTypeOf(part)
		if !strings.Contains(ct, "image") {
			continue
		}
		f, ok := files[part]
		if !ok {
			continue
		}
		blob, err := readFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", part, err)
		}
		seen[part] = true
		images = append(images, document.Image{Name: part, ContentType: ct, Data: blob})
	}
	return images, nil
}

// resolvePart turns a relationship target into a package part name.
// Absolute targets start at the package root.
func resolvePart(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(base, target))
}

func decodeXML(f *zip.File, v any) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return xml.NewDecoder(rc).Decode(v)
}

func readFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
