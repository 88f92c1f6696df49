// Package pipeline turns the documents held by a session into a slide deck.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/abram-kaleb/slidenauli/internal/background"
	"github.com/abram-kaleb/slidenauli/internal/bulletin"
	"github.com/abram-kaleb/slidenauli/internal/classify"
	"github.com/abram-kaleb/slidenauli/internal/convert"
	"github.com/abram-kaleb/slidenauli/internal/cover"
	"github.com/abram-kaleb/slidenauli/internal/dialect"
	"github.com/abram-kaleb/slidenauli/internal/document"
	"github.com/abram-kaleb/slidenauli/internal/history"
	"github.com/abram-kaleb/slidenauli/internal/notify"
	"github.com/abram-kaleb/slidenauli/internal/parser"
	"github.com/abram-kaleb/slidenauli/internal/render"
	"github.com/abram-kaleb/slidenauli/internal/segment"
	"github.com/abram-kaleb/slidenauli/internal/session"
	"github.com/abram-kaleb/slidenauli/internal/slides"
	"github.com/abram-kaleb/slidenauli/internal/stats"
)

var (
	// ErrNoService means the session holds no service-order upload.
	ErrNoService = errors.New("no service order uploaded")
	// ErrUnknownDialect means the requested dialect is not in the registry.
	ErrUnknownDialect = errors.New("unknown dialect")
)

// BulletinTriggers mark the sections after which the bulletin is inserted.
var BulletinTriggers = []string{"WARTA", "TINGTING", "TING TING", "TING-TING"}

// Deps are the collaborators of a Pipeline. Only Dialects is required.
type Deps struct {
	Dialects    *dialect.Registry
	Converter   *convert.Converter
	Backgrounds *background.Picker
	Stats       *stats.Render
	History     *history.Store
	Webhook     *notify.Client
	Logger      *slog.Logger
}

// Pipeline runs parse, classify, segment, render and write for one session
// at a time. It holds no per-session state and is safe for concurrent use.
type Pipeline struct {
	dialects *dialect.Registry
	conv     *convert.Converter
	bg       *background.Picker
	stats    *stats.Render
	hist     *history.Store
	hook     *notify.Client
	log      *slog.Logger
}

func New(d Deps) *Pipeline {
	p := &Pipeline{
		dialects: d.Dialects,
		conv:     d.Converter,
		bg:       d.Backgrounds,
		stats:    d.Stats,
		hist:     d.History,
		hook:     d.Webhook,
		log:      d.Logger,
	}
	if p.dialects == nil {
		p.dialects = dialect.Default()
	}
	if p.conv == nil {
		p.conv = &convert.Converter{}
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p
}

// Dialects returns the registry the pipeline renders with.
func (p *Pipeline) Dialects() *dialect.Registry { return p.dialects }

// RenderRequest carries the user's render settings. Empty cover fields keep
// the extracted values.
type RenderRequest struct {
	Dialect       string // dialect ID or label; empty uses the detected one
	Mode          render.Mode
	UseBackground bool

	WeekName string
	Topic    string
	Date     string
}

// Analysis is the structured content of a service order.
type Analysis struct {
	Dialect  *dialect.Dialect  `json:"dialect"`
	Cover    cover.Info        `json:"cover"`
	Sections []segment.Section `json:"sections"`
}

// Result is a finished deck.
type Result struct {
	Data     []byte
	Filename string
	Slides   int
	Dialect  string
	Mode     render.Mode
	Bulletin bool
	Duration time.Duration
}

// Prepare parses and classifies any upload that has no parsed document yet
// and records the advisories whenever the uploads changed. Unchanged uploads
// are not parsed again.
func (p *Pipeline) Prepare(ctx context.Context, sess *session.Session) error {
	log := p.log.With("session_id", sess.ID)

	service, bull := sess.Service(), sess.Bulletin()
	if service == nil {
		return ErrNoService
	}

	parsed := false
	for _, u := range []*session.Upload{service, bull} {
		if u == nil || u.Document() != nil {
			continue
		}
		sess.SetStatus(session.StatusParsing, "parsing")
		doc, err := p.Parse(ctx, u.Filename, u.Data())
		if err != nil {
			log.Error("parse failed", "filename", u.Filename, "error", err)
			sess.AddError(fmt.Sprintf("parse %s: %s", u.Filename, err))
			sess.SetStatus(session.StatusFailed, "parsing")
			return err
		}

		sess.SetStatus(session.StatusClassifying, "classifying")
		cat := classify.Classify(doc.Lines())
		sess.SetDocument(u, doc, cat)
		log.Info("parsed upload", "filename", u.Filename, "paragraphs", len(doc.Paragraphs), "images", len(doc.Images), "category", cat)
		parsed = true
	}

	if parsed || sess.AdviceDue() {
		var bullCat classify.Category
		if bull != nil {
			bullCat = bull.Category
		}
		adv, layout := classify.Advise(service.Category, bullCat)
		sess.SetAdvice(adv, layout)
		for _, a := range adv {
			if a.Level != classify.Info {
				log.Warn("upload advisory", "level", a.Level, "message", a.Message)
			}
		}
	}
	sess.SetStatus(session.StatusReady, "ready")
	return nil
}

// Parse converts a legacy .doc upload when needed and parses it.
func (p *Pipeline) Parse(ctx context.Context, filename string, data []byte) (*document.Document, error) {
	data, name, err := p.conv.EnsureDOCX(ctx, data, filename)
	if err != nil {
		return nil, err
	}
	return parser.ParseBytes(data, name)
}

// Resolve picks the dialect by ID or label, falling back to the detected
// category of the service order.
func (p *Pipeline) Resolve(sess *session.Session, want string) (*dialect.Dialect, error) {
	if want == "" {
		want = classify.DefaultDialect
		if u := sess.Service(); u != nil && u.Category != "" {
			want = u.Category.Dialect()
		}
	}
	if d, ok := p.dialects.Get(want); ok {
		return d, nil
	}
	if d, ok := p.dialects.ByLabel(want); ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, want)
}

// Analyze extracts the cover and sections of the service order.
func (p *Pipeline) Analyze(ctx context.Context, sess *session.Session, dialectID string) (*Analysis, error) {
	if err := p.Prepare(ctx, sess); err != nil {
		return nil, err
	}
	d, err := p.Resolve(sess, dialectID)
	if err != nil {
		return nil, err
	}
	sess.SetStatus(session.StatusSegmenting, "segmenting")
	lines := sess.Service().Document().Lines()
	a := &Analysis{
		Dialect:  d,
		Cover:    cover.Extract(lines, &d.Cover),
		Sections: segment.Segment(lines, &d.Segment),
	}
	sess.SetStatus(session.StatusReady, "ready")
	return a, nil
}

// Render builds the deck for sess.
func (p *Pipeline) Render(ctx context.Context, sess *session.Session, req RenderRequest) (*Result, error) {
	start := time.Now()
	res, err := p.render(ctx, sess, req)
	if err != nil {
		if p.stats != nil {
			p.stats.Fail()
		}
		return nil, err
	}
	res.Duration = time.Since(start)
	p.finish(ctx, sess, req, res)
	return res, nil
}

func (p *Pipeline) render(ctx context.Context, sess *session.Session, req RenderRequest) (*Result, error) {
	mode := req.Mode
	if mode == "" {
		mode = render.Projector
	}

	a, err := p.Analyze(ctx, sess, req.Dialect)
	if err != nil {
		return nil, err
	}
	log := p.log.With("session_id", sess.ID, "dialect", a.Dialect.ID, "mode", mode)

	info := a.Cover
	if req.WeekName != "" {
		info.WeekName = req.WeekName
	}
	if req.Topic != "" {
		info.Topic = strings.ToUpper(req.Topic)
	}
	if req.Date != "" {
		info.Date = req.Date
	}

	sess.SetStatus(session.StatusRendering, "rendering")
	r := render.New(&a.Dialect.Render, mode)
	deck := r.NewDeck()
	deck.Title = info.WeekName

	var bull *document.Document
	if u := sess.Bulletin(); u != nil {
		bull = u.Document()
	}
	m := merger{
		deck:     deck,
		r:        r,
		bulletin: bull,
		layout:   sess.Layout(),
		log:      log,
	}
	if req.UseBackground {
		m.bg = p.bg
	}
	m.run(info, a.Sections)
	if bull != nil && m.inserted == 0 {
		log.Warn("bulletin uploaded but no section calls for it")
	}

	sess.SetStatus(session.StatusWriting, "writing")
	data, err := deck.Bytes()
	if err != nil {
		log.Error("write deck failed", "error", err)
		sess.AddError(fmt.Sprintf("write: %s", err))
		sess.SetStatus(session.StatusFailed, "writing")
		return nil, fmt.Errorf("write deck: %w", err)
	}
	log.Info("rendered deck", "slides", deck.Len(), "media", deck.MediaCount(), "bulletin_inserts", m.inserted)

	return &Result{
		Data:     data,
		Filename: Filename(a.Dialect.Label, info.Date),
		Slides:   deck.Len(),
		Dialect:  a.Dialect.ID,
		Mode:     mode,
		Bulletin: m.inserted > 0,
	}, nil
}

// finish records the render. History and webhook failures are logged only.
func (p *Pipeline) finish(ctx context.Context, sess *session.Session, req RenderRequest, res *Result) {
	log := p.log.With("session_id", sess.ID)
	now := time.Now()

	sess.SetRendered(session.RenderSummary{
		Dialect:    res.Dialect,
		Mode:       string(res.Mode),
		Slides:     res.Slides,
		Filename:   res.Filename,
		DurationMS: res.Duration.Milliseconds(),
		RenderedAt: now,
	})
	if p.stats != nil {
		p.stats.Record(res.Duration, res.Slides)
	}

	var hash string
	if u := sess.Service(); u != nil {
		hash = u.ContentHash
	}
	if p.hist != nil {
		_, err := p.hist.Record(ctx, history.Entry{
			SessionID:   sess.ID,
			Dialect:     res.Dialect,
			Mode:        string(res.Mode),
			Slides:      res.Slides,
			Bulletin:    res.Bulletin,
			ContentHash: hash,
			Filename:    res.Filename,
			DurationMS:  res.Duration.Milliseconds(),
			RenderedAt:  now,
		})
		if err != nil {
			log.Warn("history write failed", "error", err)
		}
	}
	if p.hook != nil {
		err := p.hook.Send(ctx, notify.Event{
			SessionID:  sess.ID,
			Dialect:    res.Dialect,
			Mode:       string(res.Mode),
			Slides:     res.Slides,
			Bulletin:   res.Bulletin,
			Filename:   res.Filename,
			WeekName:   req.WeekName,
			Date:       req.Date,
			DurationMS: res.Duration.Milliseconds(),
			RenderedAt: now,
		})
		if err != nil {
			log.Warn("webhook failed", "error", err)
		}
	}
}

// Filename names a deck after its dialect label and service date.
func Filename(label, date string) string {
	if date == "" {
		date = "slide"
	}
	name := fmt.Sprintf("ppt_%s_%s.pptx", label, date)
	return strings.NewReplacer(" ", "_", "/", "-", "\\", "-", "\"", "").Replace(name)
}

// merger lays out the cover, every section and the bulletin into one deck.
type merger struct {
	deck     *slides.Deck
	r        *render.Renderer
	bg       *background.Picker
	bulletin *document.Document
	layout   bulletin.Layout
	log      *slog.Logger

	inserted int
}

func (m *merger) run(info cover.Info, sections []segment.Section) {
	m.r.Render(m.deck, info, nil, render.Options{})
	m.decorate(0)

	for _, s := range sections {
		start := m.deck.Len()
		m.r.Render(m.deck, info, []segment.Section{s}, render.Options{SkipCover: true})
		m.decorate(start)

		if m.bulletin != nil && IsBulletinTrigger(s.Title) {
			n := bulletin.Render(m.deck, m.bulletin, m.layout)
			m.inserted++
			m.log.Debug("inserted bulletin", "after", s.Title, "slides", n)
		}
	}
}

// decorate puts one randomly chosen picture behind every slide from start
// to the end of the deck.
func (m *merger) decorate(start int) {
	if m.bg == nil || start >= m.deck.Len() {
		return
	}
	img, err := m.bg.Pick()
	if err != nil {
		m.log.Warn("background unavailable", "error", err)
		return
	}
	if img == nil {
		return
	}
	media := m.deck.AddMedia(img.Data, img.ContentType)
	if media == nil {
		return
	}
	for _, s := range m.deck.Slides[start:] {
		m.deck.ApplyBackground(s, media)
	}
}

// IsBulletinTrigger reports whether a section title calls for the bulletin.
func IsBulletinTrigger(title string) bool {
	upper := strings.ToUpper(title)
	for _, kw := range BulletinTriggers {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
