package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"howett.net/vellum"
	"howett.net/vellum/service"
)

// DeletionKeyHeader carries the bearer secret that authorizes mutating
// an anonymous paste.
const DeletionKeyHeader = "X-Deletion-Key"

type Handler struct {
	Service  *service.Service
	Renderer Renderer
}

func NewHandler(svc *service.Service, renderer Renderer) *Handler {
	return &Handler{Service: svc, Renderer: renderer}
}

func (h *Handler) BindRoutes(r *mux.Router) {
	r.HandleFunc("", h.handleCreate).Methods("POST")
	r.HandleFunc("/{id}", h.handleGet).Methods("GET")
	r.HandleFunc("/{id}", h.handleUpdate).Methods("PATCH")
	r.HandleFunc("/{id}", h.handleDelete).Methods("DELETE")
	r.HandleFunc("/{id}/history", h.handleHistory).Methods("GET")
}

type fileBody struct {
	Name     *string `json:"name"`
	Language *string `json:"language"`
	Content  *string `json:"content"`
	Base64   bool    `json:"base64"`
}

func (fb *fileBody) bytes() ([]byte, error) {
	if fb.Content == nil {
		return nil, nil
	}
	if fb.Base64 {
		return base64.StdEncoding.DecodeString(*fb.Content)
	}
	return []byte(*fb.Content), nil
}

type createBody struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Visibility  vellum.Visibility `json:"visibility"`
	ExpireIn    *string           `json:"expire_in"`
	NotifyEmail *string           `json:"notify_email"`
	Files       []fileBody        `json:"files"`
}

type createdResponse struct {
	ID          vellum.PasteID `json:"id"`
	Files       []fileRef      `json:"files"`
	DeletionKey string         `json:"deletion_key,omitempty"`
}

type fileRef struct {
	ID   vellum.FileID `json:"id"`
	Name string        `json:"name"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.Renderer.Render(w, r, http.StatusBadRequest, errorBody{Error: "malformed JSON"})
		return
	}

	req := &service.CreateRequest{
		Name:        body.Name,
		Description: body.Description,
		Visibility:  body.Visibility,
		AuthorID:    RequestUser(r),
		NotifyEmail: body.NotifyEmail,
	}

	if body.ExpireIn != nil {
		dur, err := time.ParseDuration(*body.ExpireIn)
		if err != nil {
			h.Renderer.Render(w, r, http.StatusBadRequest, errorBody{Error: "unparseable expiration"})
			return
		}
		expires := time.Now().Add(dur)
		req.ExpiresAt = &expires
	}

	for _, fb := range body.Files {
		content, err := fb.bytes()
		if err != nil {
			h.Renderer.Render(w, r, http.StatusBadRequest, errorBody{Error: "undecodable file content"})
			return
		}
		req.Files = append(req.Files, service.FileSeed{
			Name:     fb.Name,
			Language: fb.Language,
			Content:  content,
		})
	}

	result, err := h.Service.CreatePaste(r.Context(), req)
	if err != nil {
		h.Renderer.Error(w, r, err)
		return
	}

	resp := createdResponse{
		ID:          result.Paste.ID,
		DeletionKey: result.DeletionKey,
	}
	for _, f := range result.Files {
		resp.Files = append(resp.Files, fileRef{ID: f.ID, Name: f.Name})
	}
	h.Renderer.Render(w, r, http.StatusCreated, resp)
}

func (h *Handler) pasteID(r *http.Request) (vellum.PasteID, error) {
	return vellum.PasteIDFromString(mux.Vars(r)["id"])
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := h.pasteID(r)
	if err != nil {
		h.Renderer.Error(w, r, err)
		return
	}

	withContent := r.URL.Query().Get("content") != "false"
	view, err := h.Service.GetPaste(r.Context(), id, RequestUser(r), withContent)
	if err != nil {
		h.Renderer.Error(w, r, err)
		return
	}
	h.Renderer.Render(w, r, http.StatusOK, view)
}

type patchEntry struct {
	ID            *string `json:"id"`
	Name          *string `json:"name"`
	Language      *string `json:"language"`
	ClearLanguage bool    `json:"clear_language"`
	Content       *string `json:"content"`
	Base64        bool    `json:"base64"`
	Remove        bool    `json:"remove"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := h.pasteID(r)
	if err != nil {
		h.Renderer.Error(w, r, err)
		return
	}

	var entries []patchEntry
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		h.Renderer.Render(w, r, http.StatusBadRequest, errorBody{Error: "malformed JSON"})
		return
	}

	patches := make([]service.FilePatch, 0, len(entries))
	for _, e := range entries {
		patch := service.FilePatch{
			Name:          e.Name,
			Language:      e.Language,
			ClearLanguage: e.ClearLanguage,
			Remove:        e.Remove,
		}
		if e.ID != nil {
			fid, err := vellum.FileIDFromString(*e.ID)
			if err != nil {
				h.Renderer.Error(w, r, err)
				return
			}
			patch.ID = &fid
		}
		if e.Content != nil {
			fb := fileBody{Content: e.Content, Base64: e.Base64}
			content, err := fb.bytes()
			if err != nil {
				h.Renderer.Render(w, r, http.StatusBadRequest, errorBody{Error: "undecodable file content"})
				return
			}
			patch.Content = content
		}
		patches = append(patches, patch)
	}

	result, err := h.Service.UpdatePaste(r.Context(), id, h.auth(r), patches)
	if err != nil {
		h.Renderer.Error(w, r, err)
		return
	}

	if result.PasteDeleted {
		h.Renderer.Render(w, r, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
		return
	}

	files := make([]fileRef, 0, len(result.Files))
	for _, f := range result.Files {
		files = append(files, fileRef{ID: f.ID, Name: f.Name})
	}
	h.Renderer.Render(w, r, http.StatusOK, map[string]interface{}{"id": id, "files": files})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := h.pasteID(r)
	if err != nil {
		h.Renderer.Error(w, r, err)
		return
	}

	if err := h.Service.DestroyPaste(r.Context(), id, h.auth(r)); err != nil {
		h.Renderer.Error(w, r, err)
		return
	}
	h.Renderer.Render(w, r, http.StatusOK, map[string]interface{}{"id": id, "deleted": true})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, err := h.pasteID(r)
	if err != nil {
		h.Renderer.Error(w, r, err)
		return
	}

	revisions, err := h.Service.History(r.Context(), id, RequestUser(r))
	if err != nil {
		h.Renderer.Error(w, r, err)
		return
	}
	h.Renderer.Render(w, r, http.StatusOK, map[string]interface{}{"revisions": revisions})
}

func (h *Handler) auth(r *http.Request) service.Auth {
	return service.Auth{
		User:        RequestUser(r),
		DeletionKey: r.Header.Get(DeletionKeyHeader),
	}
}
