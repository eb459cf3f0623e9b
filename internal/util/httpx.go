package util

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/parcelroute/parcel-server/internal/apperr"
)

// ErrorResponse is the error envelope returned to clients.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Error: message})
}

// WriteAppError maps err to its HTTP status and writes the envelope.
// Internal failures are logged and never leak their cause.
func WriteAppError(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		ae = apperr.Internal("Internal server error", err)
	}
	status := apperr.HTTPStatus(ae.Kind)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg(ae.Message)
	}
	WriteError(w, status, ae.Message)
}

// DecodeJSON reads at most maxBody bytes from r and unmarshals them into v.
func DecodeJSON(r *http.Request, maxBody int64, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody+1))
	if err != nil {
		return apperr.InvalidArgument("failed to read body")
	}
	if int64(len(body)) > maxBody {
		return apperr.InvalidArgument("body too large")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperr.InvalidArgument(fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// ParseLimit extracts the limit query parameter with default and max bounds.
func ParseLimit(r *http.Request, defaultLimit, maxLimit int) int {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

// ParseOffset extracts the offset query parameter; invalid values yield 0.
func ParseOffset(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
