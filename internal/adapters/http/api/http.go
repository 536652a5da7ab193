// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/askdesk/internal/domain/analytics"
	"github.com/okian/askdesk/internal/domain/autocomplete"
	"github.com/okian/askdesk/internal/domain/matching"
	"github.com/okian/askdesk/internal/domain/model"
	"github.com/okian/askdesk/pkg/logger"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

// Asker answers questions.
type Asker interface {
	Ask(ctx context.Context, question string) (matching.Outcome, error)
}

// EntryBrowser serves the public knowledge-base views.
type EntryBrowser interface {
	ListEntries(ctx context.Context, category string) ([]model.Entry, error)
	Categories(ctx context.Context) ([]string, error)
}

// Suggester completes partially typed questions.
type Suggester interface {
	Suggest(ctx context.Context, prefix string, limit int) []autocomplete.Completion
}

// AdminDependencies are the operations behind the admin routes.
type AdminDependencies interface {
	EntryBrowser
	CreateEntry(ctx context.Context, in model.EntryInput) (model.Entry, error)
	UpdateEntry(ctx context.Context, id int64, in model.EntryInput) (model.Entry, error)
	DeleteEntry(ctx context.Context, id int64) error
	Analytics(ctx context.Context) (analytics.Summary, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Asker
	Suggester
	AdminDependencies
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAdminToken sets the bearer token required by admin routes. With no
// token every admin request is rejected.
func WithAdminToken(token string) Option {
	return func(s *Server) {
		s.adminToken = token
	}
}

// WithLogger sets a custom logger for the handlers.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	adminToken string
	logger     logger.Logger

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	askHandler     *AskHandler
	entriesHandler *EntriesHandler
	adminHandler   *AdminHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("api")
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.askHandler = NewAskHandler(deps, s.logger)
	s.entriesHandler = NewEntriesHandler(deps, deps, s.logger)
	s.adminHandler = NewAdminHandler(deps, s.logger)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	public := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, RequestIDMiddleware(MetricsMiddleware(h, endpoint)))
	}
	admin := func(pattern, endpoint string, h http.HandlerFunc) {
		public(pattern, endpoint, AdminAuthMiddleware(s.adminToken, h))
	}

	public("GET /healthz", "healthz", s.healthHandler.HandleHealth)
	public("GET /stats", "stats", s.statsHandler.HandleStats)

	public("POST /api/ask", "ask", s.askHandler.HandleAsk)
	public("GET /api/faqs", "faqs", s.entriesHandler.HandleList)
	public("GET /api/categories", "categories", s.entriesHandler.HandleCategories)
	public("GET /api/suggest", "suggest", s.entriesHandler.HandleSuggest)

	admin("GET /api/admin/faqs", "admin_faqs", s.adminHandler.HandleList)
	admin("POST /api/admin/faqs", "admin_faqs", s.adminHandler.HandleCreate)
	admin("PUT /api/admin/faqs/{id}", "admin_faq", s.adminHandler.HandleUpdate)
	admin("DELETE /api/admin/faqs/{id}", "admin_faq", s.adminHandler.HandleDelete)
	admin("GET /api/admin/analytics", "admin_analytics", s.adminHandler.HandleAnalytics)

	s.logger.Debug(ctx, "routes registered", logger.Bool("adminEnabled", s.adminToken != ""))
}

type messageResponse struct {
	ID      int64  `json:"id,omitempty"`
	Message string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err to a response. Internal causes are logged and
// never echoed to the client.
func writeFailure(ctx context.Context, log logger.Logger, w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.Error(err))
		writeError(w, status, code, nil)
		return
	}
	writeError(w, status, code, err)
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
