package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/validator"
)

// tenantOf reads the tenant query parameter. Absent means the default tenant.
func tenantOf(r *http.Request) string {
	return r.URL.Query().Get("tenant")
}

func (s *Server) writeFlow(w http.ResponseWriter, status int, f *domain.Flow) {
	rec, err := codec.FromFlow(f)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, status, rec)
}

// ListFlows handles the GET /flows request.
func (s *Server) ListFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := s.Flows.List(r.Context(), tenantOf(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	recs := make([]codec.Record, 0, len(flows))
	for _, f := range flows {
		rec, err := codec.FromFlow(f)
		if err != nil {
			s.writeError(w, err)
			return
		}
		recs = append(recs, rec)
	}
	s.writeJSON(w, http.StatusOK, recs)
}

// GetFlow handles the GET /flows/{name} request.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	f, err := s.Flows.Get(r.Context(), tenantOf(r), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeFlow(w, http.StatusOK, f)
}

// PutFlow handles the PUT /flows/{name} request. The body is a flow record;
// the path and query decide its name and tenant.
func (s *Server) PutFlow(w http.ResponseWriter, r *http.Request) {
	var rec codec.Record
	if !s.decode(w, r, &rec) {
		return
	}
	rec.Tenant = tenantOf(r)
	rec.FlowName = chi.URLParam(r, "name")

	f, err := rec.ToFlow()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.Flows.Put(r.Context(), f); err != nil {
		s.writeError(w, err)
		return
	}

	saved, err := s.Flows.Get(r.Context(), f.Tenant, f.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeFlow(w, http.StatusOK, saved)
}

// DeleteFlow handles the DELETE /flows/{name} request.
func (s *Server) DeleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := s.Flows.Delete(r.Context(), tenantOf(r), chi.URLParam(r, "name")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, name := tenantOf(r), chi.URLParam(r, "name")
		if err := s.Flows.SetActive(r.Context(), tenant, name, active); err != nil {
			s.writeError(w, err)
			return
		}
		f, err := s.Flows.Get(r.Context(), tenant, name)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeFlow(w, http.StatusOK, f)
	}
}

// validationResponse is the body of GET /flows/{name}/validate.
type validationResponse struct {
	Valid  bool              `json:"valid"`
	Issues []validator.Issue `json:"issues"`
}

// ValidateFlow handles the GET /flows/{name}/validate request.
func (s *Server) ValidateFlow(w http.ResponseWriter, r *http.Request) {
	f, err := s.Flows.Get(r.Context(), tenantOf(r), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	report := validator.Validate(f)
	s.writeJSON(w, http.StatusOK, validationResponse{
		Valid:  !report.HasErrors(),
		Issues: append([]validator.Issue{}, report...),
	})
}
