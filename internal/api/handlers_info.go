package api

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/parcelroute/parcel-server/internal/util"
)

const banner = "Parcel Delivery Server is Running"

func (h *handlers) GetRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(banner))
}

func (h *handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if h.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			log.Ctx(r.Context()).Warn().Err(err).Msg("store ping failed")
			resp["status"] = "degraded"
			util.WriteJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	util.WriteJSON(w, http.StatusOK, resp)
}
