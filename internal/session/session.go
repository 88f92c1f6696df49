// Package session holds uploaded documents between upload and render.
package session

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abram-kaleb/slidenauli/internal/bulletin"
	"github.com/abram-kaleb/slidenauli/internal/classify"
	"github.com/abram-kaleb/slidenauli/internal/document"
)

// Status represents the state of a session.
type Status string

const (
	StatusUploaded    Status = "uploaded"
	StatusParsing     Status = "parsing"
	StatusClassifying Status = "classifying"
	StatusReady       Status = "ready"
	StatusSegmenting  Status = "segmenting"
	StatusRendering   Status = "rendering"
	StatusWriting     Status = "writing"
	StatusRendered    Status = "rendered"
	StatusFailed      Status = "failed"
)

// Upload is one uploaded file. The parsed document is cached until the
// content changes.
type Upload struct {
	Filename    string
	ContentHash string
	Size        int
	Category    classify.Category

	data []byte
	doc  *document.Document
}

// Data returns the uploaded bytes.
func (u *Upload) Data() []byte { return u.data }

// Document returns the parsed document, or nil before parsing.
func (u *Upload) Document() *document.Document { return u.doc }

// RenderSummary describes the most recent successful render.
type RenderSummary struct {
	Dialect    string    `json:"dialect"`
	Mode       string    `json:"mode"`
	Slides     int       `json:"slides"`
	Filename   string    `json:"filename"`
	DurationMS int64     `json:"duration_ms"`
	RenderedAt time.Time `json:"rendered_at"`
}

// Session tracks the documents of one service.
type Session struct {
	mu sync.Mutex

	ID     string `json:"session_id"`
	Status Status `json:"status"`
	Phase  string `json:"phase"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	service    *Upload
	bulletin   *Upload
	advisories []classify.Advisory
	layout     bulletin.Layout
	adviceDue  bool // uploads changed since the last SetAdvice
	last       *RenderSummary
	errors     []string
}

// New returns a session with a fresh random ID.
func New() *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Status:    StatusUploaded,
		Phase:     "uploaded",
		CreatedAt: now,
		UpdatedAt: now,
		layout:    bulletin.Normal,
	}
}

// SetService stores the service-order upload. It reports whether the
// content differs from what the session already holds; unchanged content
// keeps its parsed document.
func (s *Session) SetService(filename string, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, changed := replace(s.service, filename, data)
	s.service = u
	s.touch(changed)
	return changed
}

// SetBulletin stores the bulletin upload. Empty data removes it.
func (s *Session) SetBulletin(filename string, data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(data) == 0 {
		changed := s.bulletin != nil
		s.bulletin = nil
		s.touch(changed)
		return changed
	}
	u, changed := replace(s.bulletin, filename, data)
	s.bulletin = u
	s.touch(changed)
	return changed
}

func replace(cur *Upload, filename string, data []byte) (*Upload, bool) {
	hash := ContentHashHex(data)
	if cur != nil && cur.ContentHash == hash {
		cur.Filename = filename
		return cur, false
	}
	return &Upload{Filename: filename, ContentHash: hash, Size: len(data), data: data}, true
}

// touch resets derived state after a content change.
func (s *Session) touch(changed bool) {
	if changed {
		s.advisories = nil
		s.layout = bulletin.Normal
		s.adviceDue = true
		s.Status = StatusUploaded
		s.Phase = "uploaded"
	}
	s.UpdatedAt = time.Now()
}

// Service returns the service-order upload, or nil.
func (s *Session) Service() *Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.service
}

// Bulletin returns the bulletin upload, or nil.
func (s *Session) Bulletin() *Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bulletin
}

// SetDocument records the parsed document and detected category of u.
func (s *Session) SetDocument(u *Upload, doc *document.Document, cat classify.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.doc = doc
	u.Category = cat
	s.UpdatedAt = time.Now()
}

// SetAdvice records the structural advisories and the chosen bulletin layout.
func (s *Session) SetAdvice(adv []classify.Advisory, layout bulletin.Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advisories = adv
	s.layout = layout
	s.adviceDue = false
	s.UpdatedAt = time.Now()
}

// AdviceDue reports whether the uploads changed since advisories were last
// recorded.
func (s *Session) AdviceDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adviceDue
}

// Layout returns the bulletin layout chosen by classification.
func (s *Session) Layout() bulletin.Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// SetStatus updates session status atomically.
func (s *Session) SetStatus(status Status, phase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
	s.Phase = phase
	s.UpdatedAt = time.Now()
}

// AddError records an error.
func (s *Session) AddError(err string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
	s.UpdatedAt = time.Now()
}

// SetRendered records a finished render.
func (s *Session) SetRendered(sum RenderSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = &sum
	s.Status = StatusRendered
	s.Phase = "done"
	s.UpdatedAt = time.Now()
}

// FileInfo is the JSON view of an upload.
type FileInfo struct {
	Filename    string            `json:"filename"`
	Size        int               `json:"size"`
	ContentHash string            `json:"content_hash"`
	Category    classify.Category `json:"category,omitempty"`
	Paragraphs  int               `json:"paragraphs"`
	Images      int               `json:"images"`
}

// Snapshot is a read-only, JSON-safe copy of session state.
type Snapshot struct {
	ID         string              `json:"session_id"`
	Status     Status              `json:"status"`
	Phase      string              `json:"phase"`
	Service    *FileInfo           `json:"service,omitempty"`
	Bulletin   *FileInfo           `json:"bulletin,omitempty"`
	Dialect    string              `json:"dialect,omitempty"`
	Layout     bulletin.Layout     `json:"bulletin_layout"`
	Advisories []classify.Advisory `json:"advisories"`
	LastRender *RenderSummary      `json:"last_render,omitempty"`
	Errors     []string            `json:"errors"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:         s.ID,
		Status:     s.Status,
		Phase:      s.Phase,
		Service:    fileInfo(s.service),
		Bulletin:   fileInfo(s.bulletin),
		Layout:     s.layout,
		Advisories: append([]classify.Advisory{}, s.advisories...),
		Errors:     append([]string{}, s.errors...),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
	if s.service != nil && s.service.Category != classify.Unknown && !s.service.Category.IsBulletin() {
		snap.Dialect = s.service.Category.Dialect()
	}
	if s.last != nil {
		last := *s.last
		snap.LastRender = &last
	}
	return snap
}

func fileInfo(u *Upload) *FileInfo {
	if u == nil {
		return nil
	}
	fi := &FileInfo{
		Filename:    u.Filename,
		Size:        u.Size,
		ContentHash: u.ContentHash,
		Category:    u.Category,
	}
	if u.doc != nil {
		fi.Paragraphs = len(u.doc.Paragraphs)
		fi.Images = len(u.doc.Images)
	}
	return fi
}

// Store is a thread-safe in-memory session registry with TTL eviction.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
}

func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

// Delete removes a session and reports whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes expired sessions and returns how many were dropped.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, sess := range s.sessions {
		sess.mu.Lock()
		idle := now.Sub(sess.UpdatedAt)
		sess.mu.Unlock()
		if idle > s.ttl {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run calls Cleanup every interval until ctx is done.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Cleanup()
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
