package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ticket-ingest/constants"
	"github.com/joseph-ayodele/ticket-ingest/internal/common"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (r *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		id := req.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req.WithContext(common.WithRequestID(req.Context(), id)))
		r.logger.Info("http.request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"request_id", id,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	})
}

// authenticate verifies the bearer token and stores the principal in the context.
func (r *Router) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		header := req.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondError(w, http.StatusUnauthorized, "authorization header required")
			return
		}
		p, err := r.deps.Tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		ctx := common.WithPrincipal(req.Context(), p.UserID, p.Role)
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// requireRole rejects callers below min.
func (r *Router) requireRole(min constants.Role, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		role, ok := common.RoleFromContext(req.Context())
		if !ok || !role.AtLeast(min) {
			r.logger.Warn("http.forbidden", "path", req.URL.Path, "role", role, "required", min)
			respondError(w, http.StatusForbidden, "insufficient role")
			return
		}
		h(w, req)
	}
}
