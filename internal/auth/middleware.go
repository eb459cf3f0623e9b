package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/parcelroute/parcel-server/internal/apperr"
	"github.com/parcelroute/parcel-server/internal/util"
)

const bearerPrefix = "Bearer "

var tracer = otel.Tracer("github.com/parcelroute/parcel-server/internal/auth")

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", apperr.Unauthenticated("unauthorized access")
	}
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", apperr.Unauthenticated("unauthorized access")
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", apperr.Unauthenticated("unauthorized access")
	}
	return token, nil
}

// VerifyToken returns middleware that verifies the bearer token of every
// request with v and stores the resulting identity in the request context.
func VerifyToken(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				util.WriteAppError(w, r, err)
				return
			}

			ctx, span := tracer.Start(r.Context(), "auth.VerifyToken")
			id, err := v.Verify(ctx, token)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "verification failed")
				span.End()
				if errors.Is(err, ErrVerification) {
					util.WriteAppError(w, r, apperr.Forbidden("forbidden access"))
					return
				}
				util.WriteAppError(w, r, apperr.Internal("identity provider unavailable", err))
				return
			}
			span.SetAttributes(attribute.String("auth.subject", id.Subject))
			span.End()

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireEmailMatch returns middleware that admits a request only when the
// query parameter param equals the verified email exactly. It must run after
// VerifyToken; a missing identity panics.
func RequireEmailMatch(param string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				panic("auth: RequireEmailMatch used without VerifyToken")
			}
			if r.URL.Query().Get(param) != id.Email {
				util.WriteAppError(w, r, apperr.Forbidden("forbidden access"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
