package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/satchel/pkg/session"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the request's session as a small JSON API.
type Handler struct {
	logger *slog.Logger
}

// NewHandler creates a router serving the session API behind the provider's middleware.
func NewHandler(p *Provider) http.Handler {
	h := &Handler{logger: p.logger}

	r := chi.NewRouter()
	r.Get("/health", h.GetHealth)

	r.Group(func(r chi.Router) {
		r.Use(p.Middleware)
		r.Get("/session", h.GetSession)
		r.Delete("/session", h.EndSession)
		r.Post("/session/regenerate", h.Regenerate)
		r.Get("/session/{ns}/{key}", h.GetValue)
		r.Put("/session/{ns}/{key}", h.PutValue)
		r.Delete("/session/{ns}/{key}", h.DeleteValue)
	})
	return r
}

// SessionResponse is the body of GET /session.
type SessionResponse struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Values map[string]any `json:"values"`
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	m, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, "Session middleware not installed", http.StatusInternalServerError)
		h.logger.Error("No session manager in request context", "path", r.URL.Path)
		return nil, false
	}
	return session.New(m), true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	http.Error(w, fmt.Sprintf("%s error: %v", op, err), http.StatusInternalServerError)
	h.logger.Error(op+" failed", "error", err)
}

func (h *Handler) writeJSON(w http.ResponseWriter, op string, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error(op+" response encode failed", "error", err)
	}
}

func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, "GetHealth", map[string]string{"status": "ok"})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	m := s.Manager()
	if err := m.Start(r.Context()); err != nil {
		h.fail(w, "GetSession", err)
		return
	}
	h.writeJSON(w, "GetSession", SessionResponse{
		ID:     s.ID(),
		Name:   s.Name(),
		Values: m.Host().Values(),
	})
}

func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	if err := s.End(r.Context()); err != nil {
		h.fail(w, "EndSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	deleteOld, _ := strconv.ParseBool(r.URL.Query().Get("delete_old"))
	if err := s.Regenerate(r.Context(), deleteOld); err != nil {
		h.fail(w, "Regenerate", err)
		return
	}
	h.writeJSON(w, "Regenerate", map[string]string{"id": s.ID()})
}

func (h *Handler) GetValue(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	ns, key := chi.URLParam(r, "ns"), chi.URLParam(r, "key")
	found, err := s.Has(r.Context(), key, ns)
	if err != nil {
		h.fail(w, "GetValue", err)
		return
	}
	if !found {
		http.Error(w, "Key not found", http.StatusNotFound)
		return
	}
	v, err := s.Get(r.Context(), key, ns)
	if err != nil {
		h.fail(w, "GetValue", err)
		return
	}
	h.writeJSON(w, "GetValue", v)
}

func (h *Handler) PutValue(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	var v any
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		h.logger.Warn("PutValue: Invalid request body", "error", err)
		return
	}
	if err := s.Set(r.Context(), chi.URLParam(r, "key"), v, chi.URLParam(r, "ns")); err != nil {
		h.fail(w, "PutValue", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteValue(w http.ResponseWriter, r *http.Request) {
	s, ok := h.current(w, r)
	if !ok {
		return
	}
	if _, err := s.Pop(r.Context(), chi.URLParam(r, "key"), chi.URLParam(r, "ns")); err != nil {
		h.fail(w, "DeleteValue", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
