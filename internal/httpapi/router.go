// Package httpapi exposes the ticket ingestion service over JSON/HTTP.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/internal/auth"
	"github.com/joseph-ayodele/ticket-ingest/internal/fields"
	"github.com/joseph-ayodele/ticket-ingest/internal/pipeline"
	"github.com/joseph-ayodele/ticket-ingest/internal/report"
	"github.com/joseph-ayodele/ticket-ingest/internal/repository"
	"github.com/joseph-ayodele/ticket-ingest/internal/services/user"
	"github.com/joseph-ayodele/ticket-ingest/internal/storage"
)

// Deps are the collaborators behind the HTTP handlers.
type Deps struct {
	Processor      *pipeline.Processor
	Records        repository.DocumentRecordRepository
	Users          *user.Service
	Tokens         *auth.Tokens
	Fields         *fields.Store
	Reports        *report.Generator
	Artifacts      *storage.Local
	MaxUploadBytes int64
	HealthCheck    func(ctx context.Context) error
	Logger         *slog.Logger
}

// Router wraps the mux router and the service dependencies
type Router struct {
	*mux.Router
	deps   Deps
	logger *slog.Logger
}

// NewRouter creates a new HTTP router with all routes
func NewRouter(d Deps) *Router {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = constants.MaxUploadBytes
	}
	r := &Router{Router: mux.NewRouter(), deps: d, logger: d.Logger}
	r.Use(r.requestLogger)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/healthz", r.healthCheck).Methods(http.MethodGet)
	api.HandleFunc("/supported-formats", r.supportedFormats).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", r.login).Methods(http.MethodPost)

	// everything below needs a bearer token
	sec := api.NewRoute().Subrouter()
	sec.Use(r.authenticate)

	sec.HandleFunc("/users", r.requireRole(constants.RoleAdmin, r.listUsers)).Methods(http.MethodGet)
	sec.HandleFunc("/users", r.requireRole(constants.RoleAdmin, r.createUser)).Methods(http.MethodPost)

	sec.HandleFunc("/documents", r.requireRole(constants.RoleTechnician, r.uploadDocument)).Methods(http.MethodPost)
	sec.HandleFunc("/documents", r.listDocuments).Methods(http.MethodGet)
	sec.HandleFunc("/documents/{id}", r.getDocument).Methods(http.MethodGet)
	sec.HandleFunc("/documents/{id}", r.requireRole(constants.RoleSupervisor, r.deleteDocument)).Methods(http.MethodDelete)
	sec.HandleFunc("/documents/{id}/excel", r.downloadExcel).Methods(http.MethodGet)
	sec.HandleFunc("/documents/{id}/report", r.downloadReport).Methods(http.MethodGet)

	sec.HandleFunc("/reports/batch", r.batchReport).Methods(http.MethodPost)

	sec.HandleFunc("/fields", r.listFields).Methods(http.MethodGet)
	sec.HandleFunc("/fields/{key}", r.requireRole(constants.RoleAdmin, r.updateField)).Methods(http.MethodPut)

	return r
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	if r.deps.HealthCheck != nil {
		if err := r.deps.HealthCheck(req.Context()); err != nil {
			r.logger.Warn("http.health.failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (r *Router) supportedFormats(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"extensions":       constants.SortedExtensions(),
		"max_upload_bytes": r.deps.MaxUploadBytes,
		"document_types":   constants.DocumentTypes,
		"modes":            []string{"multipage", "legacy"},
	})
}
