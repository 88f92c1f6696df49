// Package slides holds the slide deck model and its PowerPoint writer.
//
// A Deck is an ordered list of slides, each a z-ordered list of shapes
// positioned in EMUs. Renderers append to a deck; only the background pass
// edits slides after they are appended.
package slides

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Unit conversions used by OOXML.
const (
	EMUPerInch  = 914400
	EMUPerPoint = 12700
)

// Inches converts inches to EMUs.
func Inches(in float64) int64 { return int64(in * EMUPerInch) }

// Points converts points to EMUs.
func Points(pt float64) int64 { return int64(pt * EMUPerPoint) }

// Color is an sRGB hex triplet such as "FFA500".
type Color string

const (
	Black Color = "000000"
	White Color = "FFFFFF"
)

// Align is horizontal paragraph alignment.
type Align string

const (
	AlignLeft   Align = "l"
	AlignCenter Align = "ctr"
)

// Anchor is vertical text anchoring inside a box.
type Anchor string

const (
	AnchorTop    Anchor = "t"
	AnchorMiddle Anchor = "ctr"
)

// Rect is a position and size in EMUs.
type Rect struct {
	X, Y, W, H int64
}

// Shape is one element on a slide.
type Shape interface {
	Bounds() Rect
}

// TextBox is a text frame with one run style. Newlines become line breaks.
type TextBox struct {
	Rect
	Text   string
	Font   string
	Size   int // points
	Bold   bool
	Color  Color
	Align  Align
	Anchor Anchor
	Wrap   bool
}

// Fill is a solid rectangle. Alpha is in thousandths of a percent, so
// 100000 is opaque and 0 means opaque as well.
type Fill struct {
	Rect
	Color Color
	Alpha int
}

// Picture places a media part on the slide, stretched to its bounds.
type Picture struct {
	Rect
	Media *Media
}

func (t *TextBox) Bounds() Rect { return t.Rect }
func (f *Fill) Bounds() Rect { return f.Rect }
func (p *Picture) Bounds() Rect { return p.Rect }

// Media is an image part shared by every picture that embeds it.
type Media struct {
	Hash        string
	ContentType string
	Ext         string
	Data        []byte
	index       int
}

// Slide is one slide. Shapes are drawn in slice order.
type Slide struct {
	Background Color
	Shapes     []Shape
}

// AddText appends a text box.
func (s *Slide) AddText(t TextBox) *TextBox {
	box := &t
	s.Shapes = append(s.Shapes, box)
	return box
}

// AddFill appends a solid rectangle.
func (s *Slide) AddFill(r Rect, c Color, alpha int) {
	s.Shapes = append(s.Shapes, &Fill{Rect: r, Color: c, Alpha: alpha})
}

// AddPicture appends a picture.
func (s *Slide) AddPicture(r Rect, m *Media) {
	s.Shapes = append(s.Shapes, &Picture{Rect: r, Media: m})
}

// Texts returns the text of every text box on the slide, in z-order.
func (s *Slide) Texts() []string {
	var out []string
	for _, sh := range s.Shapes {
		if t, ok := sh.(*TextBox); ok {
			out = append(out, t.Text)
		}
	}
	return out
}

// Deck is an ordered slide deck with a single canvas size.
type Deck struct {
	Width  int64
	Height int64
	Title  string
	Slides []*Slide

	media map[string]*Media
	order []*Media
}

// New returns an empty deck with the given canvas size in inches.
func New(widthIn, heightIn float64) *Deck {
	return &Deck{
		Width:  Inches(widthIn),
		Height: Inches(heightIn),
		media:  make(map[string]*Media),
	}
}

// SetCanvas resizes the canvas. Existing slides keep their shape geometry.
func (d *Deck) SetCanvas(widthIn, heightIn float64) {
	d.Width = Inches(widthIn)
	d.Height = Inches(heightIn)
}

// AddSlide appends a blank slide and returns it.
func (d *Deck) AddSlide() *Slide {
	s := &Slide{}
	d.Slides = append(d.Slides, s)
	return s
}

// Len returns the number of slides.
func (d *Deck) Len() int { return len(d.Slides) }

// AddMedia registers an image and returns the shared part. Identical bytes
// are stored once. It returns nil for content types a presentation package
// cannot declare.
func (d *Deck) AddMedia(data []byte, contentType string) *Media {
	ext := extensionFor(contentType)
	if ext == "" {
		return nil
	}
	if d.media == nil {
		d.media = make(map[string]*Media)
	}
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	if m, ok := d.media[hash]; ok {
		return m
	}
	m := &Media{
		Hash:        hash,
		ContentType: contentType,
		Ext:         ext,
		Data:        data,
		index:       len(d.order) + 1,
	}
	d.media[hash] = m
	d.order = append(d.order, m)
	return m
}

// MediaCount returns the number of distinct media parts.
func (d *Deck) MediaCount() int { return len(d.order) }

func extensionFor(contentType string) string {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg":
		return "jpeg"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/tiff":
		return "tiff"
	case "image/x-emf", "image/emf":
		return "emf"
	case "image/x-wmf", "image/wmf":
		return "wmf"
	case "image/png":
		return "png"
	}
	return ""
}

// OverlayAlpha is the opacity of the dark layer placed over background
// pictures.
const OverlayAlpha = 60000

// ApplyBackground places the picture full-bleed beneath every shape on the
// slide, covers it with a translucent black layer and turns all text white.
func (d *Deck) ApplyBackground(s *Slide, m *Media) {
	full := Rect{W: d.Width, H: d.Height}
	layers := []Shape{
		&Picture{Rect: full, Media: m},
		&Fill{Rect: full, Color: Black, Alpha: OverlayAlpha},
	}
	s.Shapes = append(layers, s.Shapes...)
	for _, sh := range s.Shapes {
		if t, ok := sh.(*TextBox); ok {
			t.Color = White
		}
	}
}
