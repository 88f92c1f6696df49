package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/abram-kaleb/slidenauli/internal/convert"
	"github.com/abram-kaleb/slidenauli/internal/parser"
	"github.com/abram-kaleb/slidenauli/internal/pipeline"
	"github.com/abram-kaleb/slidenauli/internal/render"
	"github.com/abram-kaleb/slidenauli/internal/session"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

// upload is one file read from a multipart form.
type upload struct {
	name string
	data []byte
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	// Two files plus form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	service, status, err := s.readUpload(r, "service")
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}
	if service == nil {
		jsonError(w, "service is required", http.StatusBadRequest)
		return
	}
	bull, status, err := s.readUpload(r, "bulletin")
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	sess := session.New()
	sess.SetService(service.name, service.data)
	if bull != nil {
		sess.SetBulletin(bull.name, bull.data)
	}

	if err := s.pipeline.Prepare(r.Context(), sess); err != nil {
		jsonError(w, err.Error(), pipelineStatus(err))
		return
	}
	s.sessions.Put(sess)
	s.log.Info("session created", "session_id", sess.ID, "service", service.name, "bulletin", bull != nil)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/api/sessions/"+sess.ID)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(sess.Snapshot())
}

// handleReplaceFiles swaps one or both uploads. Unchanged content keeps its
// parsed document. An empty "bulletin" field with remove_bulletin=true
// drops the bulletin.
func (s *Server) handleReplaceFiles(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 2*s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	service, status, err := s.readUpload(r, "service")
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}
	bull, status, err := s.readUpload(r, "bulletin")
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}

	changed := false
	if service != nil {
		changed = sess.SetService(service.name, service.data) || changed
	}
	switch {
	case bull != nil:
		changed = sess.SetBulletin(bull.name, bull.data) || changed
	case formBool(r.FormValue("remove_bulletin")):
		changed = sess.SetBulletin("", nil) || changed
	}

	if err := s.pipeline.Prepare(r.Context(), sess); err != nil {
		jsonError(w, err.Error(), pipelineStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"changed": changed,
		"session": sess.Snapshot(),
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sess.Snapshot())
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "sessionID")
	if !s.sessions.Delete(id) {
		jsonError(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	a, err := s.pipeline.Analyze(r.Context(), sess, r.URL.Query().Get("dialect"))
	if err != nil {
		jsonError(w, err.Error(), pipelineStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a)
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	if sess == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		jsonError(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	mode, err := render.ParseMode(r.FormValue("mode"))
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := pipeline.RenderRequest{
		Dialect:       r.FormValue("dialect"),
		Mode:          mode,
		UseBackground: formBool(r.FormValue("use_background")),
		WeekName:      strings.TrimSpace(r.FormValue("week_name")),
		Topic:         strings.TrimSpace(r.FormValue("topic")),
		Date:          strings.TrimSpace(r.FormValue("date")),
	}

	res, err := s.pipeline.Render(r.Context(), sess, req)
	if err != nil {
		jsonError(w, err.Error(), pipelineStatus(err))
		return
	}

	w.Header().Set("Content-Type", pptxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Slide-Count", strconv.Itoa(res.Slides))
	w.Write(res.Data)
}

// session looks up the session named in the URL or answers 404.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	sess := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if sess == nil {
		jsonError(w, "session not found", http.StatusNotFound)
	}
	return sess
}

// readUpload reads an optional multipart file. A nil upload with a nil
// error means the field was absent.
func (s *Server) readUpload(r *http.Request, field string) (*upload, int, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, http.StatusBadRequest, fmt.Errorf("%s: %w", field, err)
	}
	defer file.Close()
	return s.readPart(file, header)
}

func (s *Server) readPart(file multipart.File, header *multipart.FileHeader) (*upload, int, error) {
	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		return nil, http.StatusBadRequest, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, http.StatusInternalServerError, fmt.Errorf("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, http.StatusRequestEntityTooLarge, fmt.Errorf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes)
	}
	return &upload{name: filename, data: data}, 0, nil
}

// pipelineStatus maps pipeline errors to HTTP status codes.
func pipelineStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrNoService),
		errors.Is(err, pipeline.ErrUnknownDialect),
		errors.Is(err, parser.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, parser.ErrUnparseable),
		errors.Is(err, convert.ErrFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, convert.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// formBool accepts the usual boolean spellings plus the Indonesian "ya".
func formBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "ya" || v == "on" {
		return true
	}
	b, _ := strconv.ParseBool(v)
	return b
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
