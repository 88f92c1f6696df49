// Package dialect holds the per-congregation keyword and threshold tables
// that drive cover extraction, segmentation and slide rendering.
//
// Tables are data: they are loaded from YAML (embedded by default) and
// compiled once. The state machines in the cover, segment and render
// packages never branch on a dialect ID.
package dialect

import (
	"fmt"
	"regexp"
	"strings"
)

// Segmenter choir-terminator policies.
const (
	PolicyClose = "close" // clear the choir flag and keep the line as body
	PolicySplit = "split" // open a new section headed by the line
)

// Cover extraction strategies.
const (
	StrategyLiturgical = "liturgical"
	StrategyHeading    = "heading"
)

// Dialect is one document category with its full rule set.
type Dialect struct {
	ID      string       `yaml:"id" json:"id"`
	Label   string       `yaml:"label" json:"label"`
	Cover   CoverRules   `yaml:"cover" json:"-"`
	Segment SegmentRules `yaml:"segment" json:"-"`
	Render  RenderRules  `yaml:"render" json:"-"`
}

// CoverRules configures the cover extractor.
type CoverRules struct {
	Strategy      string   `yaml:"strategy"`
	ScanLimit     int      `yaml:"scan_limit"`
	DatePattern   string   `yaml:"date_pattern"`
	WeekKeywords  []string `yaml:"week_keywords"`
	WeekMarker    string   `yaml:"week_marker"`
	WeekMaxWords  int      `yaml:"week_max_words"`
	SpeakerPrefix string   `yaml:"speaker_prefix"`

	TopicMarker    string   `yaml:"topic_marker"`
	ColonExclusive bool     `yaml:"colon_exclusive"`
	ColonMinLen    int      `yaml:"colon_min_len"`
	NextLineMinLen int      `yaml:"next_line_min_len"`
	NextLineReject []string `yaml:"next_line_reject"`

	QuoteLimit         int  `yaml:"quote_limit"`
	QuoteMinLen        int  `yaml:"quote_min_len"`
	QuoteRejectKeyword bool `yaml:"quote_reject_keyword"`

	// Heading strategy only.
	HeadingMarkers []string `yaml:"heading_markers"`
	HeadingStrip   string   `yaml:"heading_strip"`

	date    *regexp.Regexp
	speaker *regexp.Regexp
}

// SegmentRules configures the section segmenter.
type SegmentRules struct {
	NumberPattern      string   `yaml:"number_pattern"`
	HeadingKeywords    []string `yaml:"heading_keywords"`
	LongLineLimit      int      `yaml:"long_line_limit"`
	KeywordSuppressors []string `yaml:"keyword_suppressors"`

	ChoirPattern          string   `yaml:"choir_pattern"`
	ChoirTerminator       string   `yaml:"choir_terminator"`
	ChoirTerminatorMaxLen int      `yaml:"choir_terminator_max_len"`
	ChoirTerminatorPolicy string   `yaml:"choir_terminator_policy"`
	ScheduleMarkers       []string `yaml:"schedule_markers"`

	ForcedBreakKeywords []string `yaml:"forced_break_keywords"`
	ForcedBreakCompact  []string `yaml:"forced_break_compact"`

	TrimBefore         string   `yaml:"trim_before"`
	StartMarkers       []string `yaml:"start_markers"`
	PreludeSongMarkers []string `yaml:"prelude_song_markers"`
	SortByNumber       bool     `yaml:"sort_by_number"`

	number      *regexp.Regexp
	choir       *regexp.Regexp
	terminator  *regexp.Regexp
	suppressors []*regexp.Regexp
	headings    []string
}

// RenderRules configures the slide renderer.
type RenderRules struct {
	Font      string      `yaml:"font"`
	TitleSize int         `yaml:"title_size"`
	TextColor string      `yaml:"text_color"`
	Canvas    Canvas      `yaml:"canvas"`
	Caption   Caption     `yaml:"caption"`
	Cover     CoverLayout `yaml:"cover"`

	ClosingTrigger string    `yaml:"closing_trigger"`
	ClosingTitle   string    `yaml:"closing_title"`
	SongTitle      SongTitle `yaml:"song_title"`

	Categories []CategoryRule       `yaml:"categories"`
	Templates  map[string]Template `yaml:"templates"`
}

// Canvas is a slide size in inches.
type Canvas struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Caption is the small header repeated above lyric slides.
type Caption struct {
	Size  int    `yaml:"size"`
	Color string `yaml:"color"`
	Font  string `yaml:"font"`
}

// CoverLayout positions the cover slide boxes. Offsets are in inches.
type CoverLayout struct {
	MainTop    float64 `yaml:"main_top"`
	MainSize   int     `yaml:"main_size"`
	DateBottom float64 `yaml:"date_bottom"`
	DateSize   int     `yaml:"date_size"`
}

// SongTitle splits a structured hymn heading across lines.
type SongTitle struct {
	Triggers     []string `yaml:"triggers"`
	Pattern      string   `yaml:"pattern"`
	DetailCut    string   `yaml:"detail_cut"`
	DefaultLabel string   `yaml:"default_label"`
	Layout       string   `yaml:"layout"`

	pattern   *regexp.Regexp
	detailCut *regexp.Regexp
}

// CategoryRule maps title keywords (matched against the upper-cased title
// with spaces removed) to a category name. Rules are checked in order.
type CategoryRule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

// Template describes how body lines of one category become slides.
type Template struct {
	Size          int      `yaml:"size"`
	Align         string   `yaml:"align"`
	Font          string   `yaml:"font"`
	Caption       bool     `yaml:"caption"`
	LinesPerSlide int      `yaml:"lines_per_slide"`
	NoTitleSlide  bool     `yaml:"no_title_slide"`
	SkipPrefixes  []string `yaml:"skip_prefixes"`
	SkipBody      bool     `yaml:"skip_body"`
}

// Validate checks required fields and enumerations.
func (d *Dialect) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("dialect id is required")
	}
	if d.Label == "" {
		return fmt.Errorf("dialect %s: label is required", d.ID)
	}
	switch d.Cover.Strategy {
	case StrategyLiturgical, StrategyHeading:
	default:
		return fmt.Errorf("dialect %s: unknown cover strategy %q", d.ID, d.Cover.Strategy)
	}
	switch d.Segment.ChoirTerminatorPolicy {
	case PolicyClose, PolicySplit:
	default:
		return fmt.Errorf("dialect %s: unknown choir terminator policy %q", d.ID, d.Segment.ChoirTerminatorPolicy)
	}
	if d.Segment.NumberPattern == "" {
		return fmt.Errorf("dialect %s: number_pattern is required", d.ID)
	}
	if d.Render.Canvas.Width <= 0 || d.Render.Canvas.Height <= 0 {
		return fmt.Errorf("dialect %s: canvas size is required", d.ID)
	}
	for _, c := range d.Render.Categories {
		if c.Name == "" {
			return fmt.Errorf("dialect %s: category without a name", d.ID)
		}
	}
	return nil
}

// Compile compiles every pattern in the rule set.
func (d *Dialect) Compile() error {
	var err error
	c := &d.Cover
	if c.date, err = compileOptional(c.DatePattern); err != nil {
		return fmt.Errorf("dialect %s: date_pattern: %w", d.ID, err)
	}
	if c.speaker, err = compileOptional(c.SpeakerPrefix); err != nil {
		return fmt.Errorf("dialect %s: speaker_prefix: %w", d.ID, err)
	}

	s := &d.Segment
	if s.number, err = regexp.Compile(s.NumberPattern); err != nil {
		return fmt.Errorf("dialect %s: number_pattern: %w", d.ID, err)
	}
	if s.choir, err = compileOptional(s.ChoirPattern); err != nil {
		return fmt.Errorf("dialect %s: choir_pattern: %w", d.ID, err)
	}
	if s.terminator, err = compileOptional(s.ChoirTerminator); err != nil {
		return fmt.Errorf("dialect %s: choir_terminator: %w", d.ID, err)
	}
	s.headings = s.headings[:0]
	for _, kw := range s.HeadingKeywords {
		s.headings = append(s.headings, Compact(kw))
	}
	s.suppressors = s.suppressors[:0]
	for _, p := range s.KeywordSuppressors {
		re, err := regexp.Compile(p)
		if err != nil {
			return fmt.Errorf("dialect %s: keyword_suppressors: %w", d.ID, err)
		}
		s.suppressors = append(s.suppressors, re)
	}

	st := &d.Render.SongTitle
	if st.pattern, err = compileOptional(st.Pattern); err != nil {
		return fmt.Errorf("dialect %s: song_title.pattern: %w", d.ID, err)
	}
	if st.detailCut, err = compileOptional(st.DetailCut); err != nil {
		return fmt.Errorf("dialect %s: song_title.detail_cut: %w", d.ID, err)
	}
	return nil
}

func compileOptional(p string) (*regexp.Regexp, error) {
	if p == "" {
		return nil, nil
	}
	return regexp.Compile(p)
}

// DateRe returns the compiled date pattern, or nil.
func (c *CoverRules) DateRe() *regexp.Regexp { return c.date }

// SpeakerRe returns the compiled speaker-tag prefix pattern, or nil.
func (c *CoverRules) SpeakerRe() *regexp.Regexp { return c.speaker }

// NumberRe returns the compiled explicit-number heading pattern.
func (s *SegmentRules) NumberRe() *regexp.Regexp { return s.number }

// ChoirRe returns the compiled choir heading pattern, or nil.
func (s *SegmentRules) ChoirRe() *regexp.Regexp { return s.choir }

// TerminatorRe returns the compiled choir-block terminator pattern, or nil.
func (s *SegmentRules) TerminatorRe() *regexp.Regexp { return s.terminator }

// StartsWithHeading reports whether a compact line begins with one of the
// heading keywords.
func (s *SegmentRules) StartsWithHeading(compactLine string) bool {
	for _, kw := range s.headings {
		if strings.HasPrefix(compactLine, kw) {
			return true
		}
	}
	return false
}

// Suppressed reports whether a keyword heading candidate is voided by one
// of the suppressor patterns.
func (s *SegmentRules) Suppressed(line string) bool {
	for _, re := range s.suppressors {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// TrimHead cuts everything before the TrimBefore keyword, so a heading
// like "3. BERNYANYI KJ 5" keeps only "BERNYANYI KJ 5".
func (s *SegmentRules) TrimHead(head string) string {
	if s.TrimBefore == "" {
		return head
	}
	upper := strings.ToUpper(head)
	if len(upper) != len(head) {
		return head
	}
	i := strings.Index(upper, strings.ToUpper(s.TrimBefore))
	if i <= 0 {
		return head
	}
	return strings.TrimSpace(head[i:])
}

// PatternRe returns the compiled song title pattern, or nil.
func (t *SongTitle) PatternRe() *regexp.Regexp { return t.pattern }

// DetailCutRe returns the compiled detail cut pattern, or nil.
func (t *SongTitle) DetailCutRe() *regexp.Regexp { return t.detailCut }

// Category returns the first category whose keywords occur in the compact
// title, or "other".
func (r *RenderRules) Category(compactTitle string) string {
	for _, c := range r.Categories {
		for _, kw := range c.Keywords {
			if strings.Contains(compactTitle, kw) {
				return c.Name
			}
		}
	}
	return "other"
}

// Template returns the body template for a category.
func (r *RenderRules) Template(category string) (Template, bool) {
	t, ok := r.Templates[category]
	return t, ok
}

// Compact upper-cases s and removes every space.
func Compact(s string) string {
	return strings.ReplaceAll(strings.ToUpper(s), " ", "")
}
