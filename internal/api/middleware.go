package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/parcelroute/parcel-server/internal/apperr"
	"github.com/parcelroute/parcel-server/internal/auth"
	"github.com/parcelroute/parcel-server/internal/store"
	"github.com/parcelroute/parcel-server/internal/util"
)

// requestLogger attaches a request-scoped logger to the context and emits
// one line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		logger := log.With().Str("request_id", middleware.GetReqID(r.Context())).Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context())))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	})
}

// requireAdmin admits only identities whose user record has the admin role.
// It must run after auth.VerifyToken.
func (h *handlers) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			panic("api: requireAdmin used without auth.VerifyToken")
		}
		u, err := h.users.GetUserByEmail(r.Context(), id.Email)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				util.WriteAppError(w, r, apperr.Forbidden("forbidden access"))
				return
			}
			util.WriteAppError(w, r, apperr.Internal("Failed to load user", err))
			return
		}
		if u.Role != store.RoleAdmin {
			util.WriteAppError(w, r, apperr.Forbidden("forbidden access"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
