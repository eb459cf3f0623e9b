package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/parcelroute/parcel-server/internal/apperr"
	"github.com/parcelroute/parcel-server/internal/auth"
	"github.com/parcelroute/parcel-server/internal/store"
	"github.com/parcelroute/parcel-server/internal/util"
)

type riderApplication struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Region    string `json:"region"`
	District  string `json:"district"`
	BikeBrand string `json:"bike_brand"`
	BikeReg   string `json:"bike_registration"`
}

type riderStatusRequest struct {
	Status string `json:"status"`
	// Email is accepted for compatibility; the rider row is authoritative.
	Email string `json:"email"`
}

func validRiderStatus(s string) bool {
	switch s {
	case store.RiderStatusPending, store.RiderStatusActive,
		store.RiderStatusRejected, store.RiderStatusDeactivated:
		return true
	}
	return false
}

// PostRider files a rider application for the caller.
func (h *handlers) PostRider(w http.ResponseWriter, r *http.Request) {
	caller, _ := auth.IdentityFromContext(r.Context())

	var req riderApplication
	if err := util.DecodeJSON(r, h.maxBody, &req); err != nil {
		util.WriteAppError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Region) == "" {
		util.WriteAppError(w, r, apperr.InvalidArgument("name and region are required"))
		return
	}

	rd := &store.Rider{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     caller.Email,
		Phone:     req.Phone,
		Region:    req.Region,
		District:  req.District,
		BikeBrand: req.BikeBrand,
		BikeReg:   req.BikeReg,
		Status:    store.RiderStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.riders.InsertRider(r.Context(), rd); err != nil {
		if errors.Is(err, store.ErrConflict) {
			util.WriteAppError(w, r, apperr.Conflict("Rider application already exists"))
			return
		}
		util.WriteAppError(w, r, apperr.Internal("Failed to save rider application", err))
		return
	}
	util.WriteJSON(w, http.StatusCreated, map[string]any{
		"acknowledged": true,
		"insertedId":   rd.ID,
	})
}

// ListRiders returns a handler listing riders with the given status. The
// region query parameter narrows the result.
func (h *handlers) ListRiders(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts := store.ListOptions{
			Limit:  util.ParseLimit(r, 50, 200),
			Offset: util.ParseOffset(r),
		}
		items, err := h.riders.ListRiders(r.Context(), status, r.URL.Query().Get("region"), opts)
		if err != nil {
			util.WriteAppError(w, r, apperr.Internal("Failed to load riders", err))
			return
		}
		if items == nil {
			items = []*store.Rider{}
		}
		util.WriteJSON(w, http.StatusOK, items)
	}
}

// PatchRiderStatus changes an application status. Activating a rider also
// promotes the matching user to the rider role.
func (h *handlers) PatchRiderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "riderID"))
	if err != nil {
		util.WriteAppError(w, r, apperr.InvalidArgument("Invalid rider ID"))
		return
	}
	var req riderStatusRequest
	if err := util.DecodeJSON(r, h.maxBody, &req); err != nil {
		util.WriteAppError(w, r, err)
		return
	}
	if !validRiderStatus(req.Status) {
		util.WriteAppError(w, r, apperr.InvalidArgument("Invalid rider status"))
		return
	}

	rd, err := h.riders.UpdateRiderStatus(r.Context(), id.String(), req.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.WriteAppError(w, r, apperr.NotFound("Rider not found"))
			return
		}
		util.WriteAppError(w, r, apperr.Internal("Failed to update rider status", err))
		return
	}

	if req.Status == store.RiderStatusActive {
		if err := h.users.UpdateUserRoleByEmail(r.Context(), rd.Email, store.RoleRider); err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				util.WriteAppError(w, r, apperr.Internal("Failed to update user role", err))
				return
			}
			log.Ctx(r.Context()).Warn().Str("email", rd.Email).Msg("activated rider has no user account")
		}
	}

	util.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Rider status updated",
		"rider":   rd,
	})
}
