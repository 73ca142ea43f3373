package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/chatflow/pkg/domain"
)

// Inbound handles the POST /inbound request.
func (s *Server) Inbound(w http.ResponseWriter, r *http.Request) {
	var ev domain.InboundEvent
	if !s.decode(w, r, &ev) {
		return
	}
	if ev.Tenant == "" {
		ev.Tenant = tenantOf(r)
	}

	step, err := s.Conversations.HandleInbound(r.Context(), ev)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, step)
}

// GetPosition handles the GET /conversations/{id} request.
func (s *Server) GetPosition(w http.ResponseWriter, r *http.Request) {
	pos, err := s.Conversations.Position(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, pos)
}

// Resolve handles the POST /conversations/{id}/resolve request.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	if err := s.Conversations.Resolve(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Timeout handles the POST /conversations/{id}/timeout request.
func (s *Server) Timeout(w http.ResponseWriter, r *http.Request) {
	step, err := s.Conversations.Timeout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, step)
}
