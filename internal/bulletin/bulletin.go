// Package bulletin renders weekly announcement documents ("warta") as
// slides: a bold preamble slide, then a title slide and body slides per
// numbered section, then one slide per embedded image.
package bulletin

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/abram-kaleb/slidenauli/internal/document"
	"github.com/abram-kaleb/slidenauli/internal/slides"
)

// Layout selects one of the two bulletin layouts.
type Layout string

const (
	// Normal is the 4:3 layout with roman or numeric headings and
	// fixed-size word chunks.
	Normal Layout = "normal"
	// Wide is the 16:9 layout with a TOPIK preamble boundary and
	// sentence-accumulated chunks.
	Wide Layout = "wide"
)

// ParseLayout accepts "normal" or "wide", case-insensitively.
func ParseLayout(s string) (Layout, error) {
	switch Layout(strings.ToLower(strings.TrimSpace(s))) {
	case "", Normal:
		return Normal, nil
	case Wide:
		return Wide, nil
	}
	return "", fmt.Errorf("unknown bulletin layout %q", s)
}

const (
	font                = "Verdana"
	normalSize          = 48
	wideSize            = 44
	normalWordsPerSlide = 20
	wideWordLimit       = 35
	topicMarker         = "TOPIK"
	dividerPrefix       = "=="
)

var (
	romanHeading   = regexp.MustCompile(`^[IVXLC]+\.\s`)
	numericHeading = regexp.MustCompile(`^\d+\.\s`)
	wideHeading    = regexp.MustCompile(`^\d+\.`)
	excluded       = regexp.MustCompile(`(?i)pelayan\s+minggu\s+ini`)
)

type section struct {
	title  string
	chunks []string
}

// plan is the text content of a bulletin before it is laid out.
type plan struct {
	preamble []string
	sections []section
}

// Render appends the bulletin to deck and returns the number of slides
// added. An empty deck takes the layout's canvas size; a deck that already
// holds slides keeps its canvas.
func Render(deck *slides.Deck, doc *document.Document, layout Layout) int {
	if doc == nil {
		return 0
	}
	start := deck.Len()

	var p plan
	size := normalSize
	switch layout {
	case Wide:
		if start == 0 {
			deck.SetCanvas(13.33, 7.5)
		}
		p = planWide(doc.Lines())
		size = wideSize
	default:
		if start == 0 {
			deck.SetCanvas(10, 7.5)
		}
		p = planNormal(doc.Lines())
	}

	if len(p.preamble) > 0 {
		contentSlide(deck, strings.Join(p.preamble, "\n"), size, true)
	}
	for _, s := range p.sections {
		if s.title != "" {
			titleSlide(deck, s.title, size)
		}
		for _, c := range s.chunks {
			contentSlide(deck, c, size, false)
		}
	}
	imageSlides(deck, doc.Images)

	return deck.Len() - start
}

// planNormal collects lines before the first roman or numeric heading as
// the preamble and chunks each section's words twenty at a time.
func planNormal(lines []string) plan {
	var p plan
	var cur *section
	var words []string
	found := false

	flush := func() {
		if cur == nil {
			return
		}
		for _, c := range ChunkWords(words, normalWordsPerSlide) {
			cur.chunks = append(cur.chunks, strings.Join(c, " "))
		}
		p.sections = append(p.sections, *cur)
		cur, words = nil, nil
	}

	for _, line := range lines {
		if strings.HasPrefix(line, dividerPrefix) || excluded.MatchString(line) {
			continue
		}
		if romanHeading.MatchString(line) || numericHeading.MatchString(line) {
			found = true
			flush()
			cur = &section{title: line}
			continue
		}
		if !found {
			p.preamble = append(p.preamble, line)
			continue
		}
		words = append(words, strings.Fields(line)...)
	}
	flush()
	return p
}

// planWide collects lines before the TOPIK marker as the preamble. After it,
// numbered lines open sections and body text is split into sentences that
// are packed up to the word limit. Text between the marker and the first
// heading is dropped.
func planWide(lines []string) plan {
	var p plan
	var cur *section
	var sentences []string
	found := false

	flush := func() {
		if cur == nil {
			return
		}
		cur.chunks = Accumulate(sentences, wideWordLimit)
		p.sections = append(p.sections, *cur)
		cur, sentences = nil, nil
	}

	for _, line := range lines {
		heading := wideHeading.MatchString(line)
		if !heading && strings.Contains(strings.ToUpper(line), topicMarker) {
			found = true
			continue
		}
		if !found {
			if !strings.HasPrefix(line, dividerPrefix) {
				p.preamble = append(p.preamble, line)
			}
			continue
		}
		if heading {
			flush()
			cur = &section{title: line}
			continue
		}
		if cur != nil && !strings.HasPrefix(line, dividerPrefix) {
			sentences = append(sentences, SplitSentences(line)...)
		}
	}
	flush()
	return p
}

func titleSlide(deck *slides.Deck, title string, size int) {
	s := deck.AddSlide()
	s.Background = slides.White
	s.AddText(slides.TextBox{
		Rect:   slides.Rect{X: slides.Points(50), W: deck.Width - slides.Points(100), H: deck.Height},
		Text:   strings.ToUpper(title),
		Font:   font,
		Size:   size,
		Bold:   true,
		Color:  slides.Black,
		Align:  slides.AlignLeft,
		Anchor: slides.AnchorMiddle,
		Wrap:   true,
	})
}

func contentSlide(deck *slides.Deck, text string, size int, bold bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	s := deck.AddSlide()
	s.Background = slides.White
	s.AddText(slides.TextBox{
		Rect: slides.Rect{
			X: slides.Points(50),
			Y: slides.Points(50),
			W: deck.Width - slides.Points(100),
			H: deck.Height - slides.Points(100),
		},
		Text:   text,
		Font:   font,
		Size:   size,
		Bold:   bold,
		Color:  slides.Black,
		Align:  slides.AlignLeft,
		Anchor: slides.AnchorTop,
		Wrap:   true,
	})
}
