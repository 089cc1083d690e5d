// Package http exposes the paste operations as a JSON API. It is a
// thin adapter: credentials are resolved to a user ID or deletion key
// before the core ever sees them, and every error surfaced here maps
// back to the core's taxonomy.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"howett.net/vellum"
)

type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, v interface{})
	Error(w http.ResponseWriter, r *http.Request, err error)
}

type jsonRenderer struct {
	Logger logrus.FieldLogger
}

func NewJSONRenderer(logger logrus.FieldLogger) Renderer {
	return &jsonRenderer{Logger: logger}
}

func (jr *jsonRenderer) Render(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func (jr *jsonRenderer) Error(w http.ResponseWriter, r *http.Request, err error) {
	var fieldErr *vellum.FieldError
	var denial *vellum.AccessDenial
	var corrupt *vellum.CorruptError

	status := http.StatusInternalServerError
	body := errorBody{Error: "internal error"}

	switch {
	case errors.As(err, &fieldErr):
		status = http.StatusBadRequest
		body = errorBody{Error: fieldErr.Message, Code: fieldErr.Code, Field: fieldErr.Field}
	case errors.As(err, &denial):
		status = denial.Status
		body = errorBody{Error: denial.Err.Error()}
	case errors.Is(err, vellum.ErrNotFound):
		status = http.StatusNotFound
		body = errorBody{Error: err.Error()}
	case errors.Is(err, vellum.ErrNotAllowed):
		status = http.StatusForbidden
		body = errorBody{Error: err.Error()}
	case errors.Is(err, vellum.ErrInvalidID):
		status = http.StatusBadRequest
		body = errorBody{Error: err.Error()}
	case errors.As(err, &corrupt):
		body = errorBody{Error: err.Error()}
		jr.Logger.Error(err)
	default:
		jr.Logger.Error(err)
	}

	jr.Render(w, r, status, body)
}
