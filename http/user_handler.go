package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"howett.net/vellum"
	"howett.net/vellum/service"
)

// UserHandler exposes the few user-scoped operations the core owns.
// Account management itself lives elsewhere.
type UserHandler struct {
	Service  *service.Service
	Renderer Renderer
}

func NewUserHandler(svc *service.Service, renderer Renderer) *UserHandler {
	return &UserHandler{Service: svc, Renderer: renderer}
}

func (h *UserHandler) BindRoutes(r *mux.Router) {
	r.HandleFunc("/me/pastes", h.handleListPastes).Methods("GET")
	r.HandleFunc("/me/pastes", h.handlePurgePastes).Methods("DELETE")
}

func (h *UserHandler) handleListPastes(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)
	if user == nil {
		h.Renderer.Error(w, r, vellum.ErrNotAllowed)
		return
	}

	ids, err := h.Service.Provider.GetUserPastes(r.Context(), *user)
	if err != nil {
		h.Renderer.Error(w, r, err)
		return
	}
	h.Renderer.Render(w, r, http.StatusOK, map[string]interface{}{"pastes": ids})
}

// handlePurgePastes enqueues the bulk deletion of everything the user
// owns; the job runner performs the actual cascade.
func (h *UserHandler) handlePurgePastes(w http.ResponseWriter, r *http.Request) {
	user := RequestUser(r)
	if user == nil {
		h.Renderer.Error(w, r, vellum.ErrNotAllowed)
		return
	}

	if err := h.Service.PurgeUserPastes(r.Context(), *user); err != nil {
		h.Renderer.Error(w, r, err)
		return
	}
	h.Renderer.Render(w, r, http.StatusAccepted, map[string]interface{}{"enqueued": true})
}
