package api

import (
	"encoding/json"
	"net/http"

	"github.com/abram-kaleb/slidenauli/internal/classify"
)

// handleClassify detects the category of one uploaded file without
// creating a session. The "slot" field says which upload column the file
// was meant for: "service" (default) or "bulletin".
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	up, status, err := s.readUpload(r, "file")
	if err != nil {
		jsonError(w, err.Error(), status)
		return
	}
	if up == nil {
		jsonError(w, "file is required", http.StatusBadRequest)
		return
	}

	doc, err := s.pipeline.Parse(r.Context(), up.name, up.data)
	if err != nil {
		jsonError(w, err.Error(), pipelineStatus(err))
		return
	}
	cat := classify.Classify(doc.Lines())

	var adv []classify.Advisory
	if r.FormValue("slot") == "bulletin" {
		adv, _ = classify.Advise("", cat)
	} else {
		adv, _ = classify.Advise(cat, "")
	}

	resp := map[string]any{
		"filename":    up.name,
		"category":    cat,
		"is_bulletin": cat.IsBulletin(),
		"advisories":  adv,
	}
	if cat != classify.Unknown && !cat.IsBulletin() {
		resp["dialect"] = cat.Dialect()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleDialects(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"dialects": s.pipeline.Dialects().All(),
	})
}
