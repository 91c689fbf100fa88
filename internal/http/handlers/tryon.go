package handlers

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vton/internal/domain"
	"vton/internal/vton"
)

// maxSubjectUpload caps multipart subject photos at 16 MiB.
const maxSubjectUpload = 16 << 20

func (a *App) SessionCreate(w http.ResponseWriter, r *http.Request) {
	id, machine := a.Sessions.Create()
	a.json(w, http.StatusCreated, map[string]any{
		"session_id": id,
		"session":    machine.Snapshot(),
	})
}

func (a *App) machine(w http.ResponseWriter, r *http.Request) (*vton.Machine, bool) {
	id := chi.URLParam(r, "id")
	m, ok := a.Sessions.Get(id)
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "session not found")
	}
	return m, ok
}

func (a *App) SessionGet(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, m.Snapshot())
}

func (a *App) SessionDelete(w http.ResponseWriter, r *http.Request) {
	a.Sessions.Remove(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// SessionOpen starts a try-on. Garments come either from explicit ids or
// from the current selection set, which the open consumes. A resume with a
// prior subject image jumps straight to processing and arms the auto start.
func (a *App) SessionOpen(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	var req struct {
		GarmentIDs   []string `json:"garment_ids"`
		UseSelection bool     `json:"use_selection"`
		Resume       bool     `json:"resume"`
		SubjectImage string   `json:"subject_image"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", "malformed body")
		return
	}

	var garments []domain.Garment
	if req.UseSelection {
		garments = a.Selection.Consume()
	}
	for _, id := range req.GarmentIDs {
		garment, err := a.Catalog.GetByID(r.Context(), id)
		if err != nil {
			a.fail(w, err)
			return
		}
		garments = append(garments, *garment)
	}

	if req.Resume && req.SubjectImage != "" {
		m.OpenProcessing(garments, req.SubjectImage)
	} else {
		m.OpenTryOn(garments)
	}
	a.json(w, http.StatusOK, m.Snapshot())
}

// SessionGallery opens the session over an existing result set instead of a
// fresh upload.
func (a *App) SessionGallery(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	var req struct {
		Images []string `json:"images"`
		Index  int      `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", "malformed body")
		return
	}
	if err := m.OpenGallery(req.Images, req.Index); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, m.Snapshot())
}

// SessionSubject sets the subject photo. Multipart bodies carry the photo
// itself; JSON bodies point at a URL or ask for the default model image.
func (a *App) SessionSubject(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var encoded string
	if strings.HasPrefix(ct, "multipart/") {
		if err := r.ParseMultipartForm(maxSubjectUpload); err != nil {
			a.error(w, http.StatusBadRequest, "invalid_input", "malformed multipart body")
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			a.error(w, http.StatusBadRequest, "invalid_input", "image file is required")
			return
		}
		defer file.Close()
		encoded, err = a.Codec.EncodeFromFile(header.Filename, header.Header.Get("Content-Type"), file)
		if err != nil {
			a.fail(w, err)
			return
		}
	} else {
		var req struct {
			Source string `json:"source"`
			URL    string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.error(w, http.StatusBadRequest, "invalid_input", "malformed body")
			return
		}
		src := req.URL
		if req.Source == "default" {
			src = a.DefaultModelURL
		}
		if src == "" {
			a.error(w, http.StatusBadRequest, "invalid_input", "url or source is required")
			return
		}
		var err error
		encoded, err = a.Codec.EncodeFromURL(r.Context(), src)
		if err != nil {
			a.fail(w, err)
			return
		}
	}

	m.SetSubjectImage(encoded)
	a.json(w, http.StatusOK, m.Snapshot())
}

// SessionGenerate kicks off generation. The call returns immediately; the
// outcome lands in the session snapshot.
func (a *App) SessionGenerate(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	if err := m.StartGeneration(r.Context()); err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusAccepted, m.Snapshot())
}

func (a *App) SessionNavigate(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	var req struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_input", "malformed body")
		return
	}
	dir := vton.Direction(req.Direction)
	if dir != vton.DirectionNext && dir != vton.DirectionPrev {
		a.error(w, http.StatusBadRequest, "invalid_input", "direction must be next or prev")
		return
	}
	m.NavigateGallery(dir)
	a.json(w, http.StatusOK, m.Snapshot())
}

func (a *App) SessionRetry(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	m.Retry()
	a.json(w, http.StatusOK, m.Snapshot())
}

func (a *App) SessionClose(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	m.Close()
	a.json(w, http.StatusOK, m.Snapshot())
}

func (a *App) SessionDismissError(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	m.DismissError()
	a.json(w, http.StatusOK, m.Snapshot())
}
