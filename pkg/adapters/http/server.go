// Package http exposes flow management and conversation handling over HTTP.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/chatflow/internal/logging"
	"github.com/aretw0/chatflow/pkg/conversation"
	"github.com/aretw0/chatflow/pkg/domain"
	"github.com/aretw0/chatflow/pkg/graphstore"
	"github.com/aretw0/chatflow/pkg/schema"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// FlowStore is the flow management surface the server needs.
type FlowStore interface {
	Get(ctx context.Context, tenant, name string) (*domain.Flow, error)
	List(ctx context.Context, tenant string) ([]*domain.Flow, error)
	Put(ctx context.Context, flow *domain.Flow) error
	Delete(ctx context.Context, tenant, name string) error
	SetActive(ctx context.Context, tenant, name string, active bool) error
}

// Conversations is the conversation handling surface the server needs.
type Conversations interface {
	HandleInbound(ctx context.Context, ev domain.InboundEvent) (*domain.Step, error)
	Resolve(ctx context.Context, conversationID string) error
	Timeout(ctx context.Context, conversationID string) (*domain.Step, error)
	Position(ctx context.Context, conversationID string) (*domain.Position, error)
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Flows         FlowStore
	Conversations Conversations
	Streams       *StreamManager

	logger  *slog.Logger
	metrics http.Handler
	version string
}

// Option configures the handler.
type Option func(*Server)

// WithLogger configures a logger for the server.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreams serves per-conversation event streams from sm.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(flows FlowStore, conversations Conversations, opts ...Option) http.Handler {
	s := &Server{
		Flows:         flows,
		Conversations: conversations,
		logger:        logging.NewNop(),
		version:       "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/flows", func(r chi.Router) {
		r.Get("/", s.ListFlows)
		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.GetFlow)
			r.Put("/", s.PutFlow)
			r.Delete("/", s.DeleteFlow)
			r.Post("/activate", s.setActive(true))
			r.Post("/deactivate", s.setActive(false))
			r.Get("/validate", s.ValidateFlow)
		})
	})

	r.Post("/inbound", s.Inbound)
	r.Route("/conversations/{id}", func(r chi.Router) {
		r.Get("/", s.GetPosition)
		r.Post("/resolve", s.Resolve)
		r.Post("/timeout", s.Timeout)
		if s.Streams != nil {
			r.Get("/events", s.SubscribeEvents)
		}
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /healthz request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "chatflow-http",
		"version": strings.TrimSpace(s.version),
	})
}

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error  string `json:"error"`
	Issues any    `json:"issues,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		activation *graphstore.ActivationError
		integrity  *graphstore.IntegrityError
	)
	switch {
	case errors.Is(err, domain.ErrFlowNotFound), errors.Is(err, domain.ErrPositionNotFound):
		s.writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, conversation.ErrMissingConversation):
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.As(err, &activation):
		s.writeJSON(w, http.StatusConflict, errorBody{Error: err.Error(), Issues: activation.Issues})
	case errors.As(err, &integrity):
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Issues: integrity.Violations})
	case len(schema.SchemaErrors(err)) > 0:
		s.writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Issues: schema.SchemaErrors(err)})
	default:
		s.logger.Error("Request failed", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}
