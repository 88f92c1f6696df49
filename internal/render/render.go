// Package render turns cover metadata and segmented sections into slides.
//
// Layout is driven by dialect.RenderRules: the section title picks a
// category, the category picks a template, and the template fixes font
// size, alignment, caption and chunking for the body lines.
package render

import (
	"fmt"
	"strings"

	"github.com/abram-kaleb/slidenauli/internal/cover"
	"github.com/abram-kaleb/slidenauli/internal/dialect"
	"github.com/abram-kaleb/slidenauli/internal/segment"
	"github.com/abram-kaleb/slidenauli/internal/slides"
)

// Mode selects the projector or the livestream layout.
type Mode string

const (
	Projector Mode = "projector"
	Broadcast Mode = "broadcast"
)

// ParseMode accepts the mode names used by the upload form and the CLI.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "projector":
		return Projector, nil
	case "broadcast", "stream", "youtube":
		return Broadcast, nil
	}
	return "", fmt.Errorf("unknown display mode %q", s)
}

// Broadcast canvas and caption bar geometry, in inches.
const (
	broadcastWidth  = 13.333
	broadcastHeight = 7.5
	barHeight       = 1.8
	plateMargin     = 1.5
	platePadding    = 0.2
	broadcastCover  = 40
)

// Plate colors for the broadcast caption bar.
const (
	keyGreen slides.Color = "00FF00"
)

// Options controls one Render call.
type Options struct {
	// SkipCover suppresses the cover slide, for per-section incremental
	// rendering where only the first call draws it.
	SkipCover bool
}

// Renderer renders sections of one dialect in one mode.
type Renderer struct {
	rules *dialect.RenderRules
	mode  Mode
}

// New returns a renderer for the given rules and mode.
func New(rules *dialect.RenderRules, mode Mode) *Renderer {
	if mode == "" {
		mode = Projector
	}
	return &Renderer{rules: rules, mode: mode}
}

// Mode returns the renderer's display mode.
func (r *Renderer) Mode() Mode { return r.mode }

// NewDeck returns an empty deck sized for this renderer.
func (r *Renderer) NewDeck() *slides.Deck {
	if r.mode == Broadcast {
		return slides.New(broadcastWidth, broadcastHeight)
	}
	return slides.New(r.rules.Canvas.Width, r.rules.Canvas.Height)
}

// Render appends the cover (unless skipped) and every section to deck.
func (r *Renderer) Render(deck *slides.Deck, info cover.Info, sections []segment.Section, opts Options) {
	if r.mode == Broadcast {
		deck.SetCanvas(broadcastWidth, broadcastHeight)
	}
	if !opts.SkipCover {
		r.Cover(deck, info)
	}
	for _, s := range sections {
		r.Section(deck, s)
	}
}

// Cover appends the cover slide. Nothing is emitted when every field is
// empty.
func (r *Renderer) Cover(deck *slides.Deck, info cover.Info) {
	if info.Empty() {
		return
	}
	// The broadcast cover shows only the week name.
	if r.mode == Broadcast && strings.TrimSpace(info.WeekName) == "" {
		return
	}
	rr := r.rules
	slide := deck.AddSlide()

	if r.mode == Broadcast {
		box := r.captionPlates(deck, slide)
		slide.AddText(slides.TextBox{
			Rect:   box,
			Text:   strings.ToUpper(info.WeekName),
			Font:   rr.Font,
			Size:   broadcastCover,
			Bold:   true,
			Color:  slides.White,
			Align:  slides.AlignCenter,
			Anchor: slides.AnchorMiddle,
		})
		return
	}

	main := info.WeekName
	if info.Topic != "" {
		main += "\n\"" + info.Topic + "\""
	}
	w := deck.Width - slides.Inches(1)
	if strings.TrimSpace(main) != "" {
		slide.AddText(slides.TextBox{
			Rect:   slides.Rect{X: (deck.Width - w) / 2, Y: slides.Inches(rr.Cover.MainTop), W: w, H: slides.Inches(4)},
			Text:   strings.TrimSpace(main),
			Font:   rr.Font,
			Size:   rr.Cover.MainSize,
			Bold:   true,
			Color:  r.textColor(),
			Align:  slides.AlignCenter,
			Anchor: slides.AnchorMiddle,
			Wrap:   true,
		})
	}
	if info.Date != "" {
		slide.AddText(slides.TextBox{
			Rect:  slides.Rect{X: (deck.Width - w) / 2, Y: deck.Height - slides.Inches(rr.Cover.DateBottom), W: w, H: slides.Inches(1)},
			Text:  info.Date,
			Font:  rr.Font,
			Size:  rr.Cover.DateSize,
			Bold:  true,
			Color: r.textColor(),
			Align: slides.AlignCenter,
		})
	}
}

// Section appends the slides for one section: a title slide, then body
// slides as the section's template dictates.
func (r *Renderer) Section(deck *slides.Deck, s segment.Section) {
	raw := strings.TrimSpace(s.Title)
	if raw == "" && len(s.Body) == 0 {
		return
	}
	rr := r.rules
	title := FormatTitle(raw, rr)
	tmpl, ok := rr.Template(rr.Category(dialect.Compact(raw)))

	if !tmpl.NoTitleSlide {
		r.textSlide(deck, title, rr.TitleSize, slides.AlignCenter, rr.Font, "")
	}
	if !ok || tmpl.SkipBody || len(s.Body) == 0 {
		return
	}

	lines := make([]string, 0, len(s.Body))
	for _, line := range s.Body {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" || hasAnyPrefix(line, tmpl.SkipPrefixes) {
			continue
		}
		lines = append(lines, line)
	}

	per := tmpl.LinesPerSlide
	if per < 1 {
		per = 1
	}
	font := tmpl.Font
	if font == "" {
		font = rr.Font
	}
	caption := ""
	if tmpl.Caption {
		caption = title
	}
	align := slides.AlignCenter
	if tmpl.Align == "left" {
		align = slides.AlignLeft
	}
	for i := 0; i < len(lines); i += per {
		end := min(i+per, len(lines))
		r.textSlide(deck, strings.Join(lines[i:end], "\n"), tmpl.Size, align, font, caption)
	}
}

// Category returns the category name the rules assign to a raw title.
func (r *Renderer) Category(title string) string {
	return r.rules.Category(dialect.Compact(strings.TrimSpace(title)))
}

// textSlide appends one content slide. Empty text emits nothing.
func (r *Renderer) textSlide(deck *slides.Deck, text string, size int, align slides.Align, font, caption string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	slide := deck.AddSlide()

	if r.mode == Broadcast {
		box := r.captionPlates(deck, slide)
		slide.AddText(slides.TextBox{
			Rect: box, Text: text, Font: font, Size: size, Bold: true,
			Color: slides.White, Align: align, Anchor: slides.AnchorMiddle, Wrap: true,
		})
		return
	}

	if caption != "" {
		cw := deck.Width - slides.Inches(1)
		capFont := r.rules.Caption.Font
		if capFont == "" {
			capFont = r.rules.Font
		}
		slide.AddText(slides.TextBox{
			Rect:  slides.Rect{X: (deck.Width - cw) / 2, Y: slides.Inches(0.2), W: cw, H: slides.Inches(0.5)},
			Text:  strings.ReplaceAll(caption, "\n", " "),
			Font:  capFont,
			Size:  r.rules.Caption.Size,
			Bold:  true,
			Color: slides.Color(r.rules.Caption.Color),
			Align: slides.AlignCenter,
		})
	}

	w := deck.Width - slides.Inches(0.5)
	h := deck.Height - slides.Inches(1.5)
	slide.AddText(slides.TextBox{
		Rect: slides.Rect{X: (deck.Width - w) / 2, Y: (deck.Height - h) / 2, W: w, H: h},
		Text: text, Font: font, Size: size, Bold: true,
		Color: r.textColor(), Align: align, Anchor: slides.AnchorMiddle, Wrap: true,
	})
}

// captionPlates draws the broadcast bar and returns the inner text area.
func (r *Renderer) captionPlates(deck *slides.Deck, slide *slides.Slide) slides.Rect {
	bar := slides.Inches(barHeight)
	slide.AddFill(slides.Rect{Y: deck.Height - bar, W: deck.Width, H: bar}, keyGreen, 0)

	w := deck.Width - slides.Inches(plateMargin)
	inner := slides.Rect{
		X: (deck.Width - w) / 2,
		Y: deck.Height - bar + slides.Inches(platePadding),
		W: w,
		H: bar - slides.Inches(2*platePadding),
	}
	slide.AddFill(inner, slides.Black, 0)
	return inner
}

func (r *Renderer) textColor() slides.Color {
	if r.rules.TextColor == "" {
		return slides.Black
	}
	return slides.Color(r.rules.TextColor)
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
