package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parcelroute/parcel-server/internal/apperr"
	"github.com/parcelroute/parcel-server/internal/store"
	"github.com/parcelroute/parcel-server/internal/util"
)

type upsertUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	PhotoURL    string `json:"photo_url"`
}

type roleRequest struct {
	Role string `json:"role"`
}

func validRole(role string) bool {
	switch role {
	case store.RoleUser, store.RoleRider, store.RoleAdmin:
		return true
	}
	return false
}

// PostUser records a sign-in. New emails are inserted with the user role;
// known emails only get their last login refreshed.
func (h *handlers) PostUser(w http.ResponseWriter, r *http.Request) {
	var req upsertUserRequest
	if err := util.DecodeJSON(r, h.maxBody, &req); err != nil {
		util.WriteAppError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		util.WriteAppError(w, r, apperr.InvalidArgument("email is required"))
		return
	}

	now := time.Now().UTC()
	u := &store.User{
		ID:          uuid.NewString(),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		PhotoURL:    req.PhotoURL,
		Role:        store.RoleUser,
		CreatedAt:   now,
		LastLogin:   now,
	}
	inserted, err := h.users.UpsertUser(r.Context(), u)
	if err != nil {
		util.WriteAppError(w, r, apperr.Internal("Failed to save user", err))
		return
	}
	if !inserted {
		util.WriteJSON(w, http.StatusOK, map[string]any{
			"message":  "User already exists",
			"inserted": false,
		})
		return
	}
	util.WriteJSON(w, http.StatusCreated, map[string]any{
		"insertedId": u.ID,
		"inserted":   true,
	})
}

func (h *handlers) GetUserRole(w http.ResponseWriter, r *http.Request) {
	u, err := h.users.GetUserByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.WriteAppError(w, r, apperr.NotFound("User not found"))
			return
		}
		util.WriteAppError(w, r, apperr.Internal("Failed to get user role", err))
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]any{"role": u.Role})
}

func (h *handlers) PatchUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		util.WriteAppError(w, r, apperr.InvalidArgument("Invalid user ID"))
		return
	}
	var req roleRequest
	if err := util.DecodeJSON(r, h.maxBody, &req); err != nil {
		util.WriteAppError(w, r, err)
		return
	}
	if !validRole(req.Role) {
		util.WriteAppError(w, r, apperr.InvalidArgument("Invalid role"))
		return
	}

	if err := h.users.UpdateUserRole(r.Context(), id.String(), req.Role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.WriteAppError(w, r, apperr.NotFound("User not found"))
			return
		}
		util.WriteAppError(w, r, apperr.Internal("Failed to update user role", err))
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "User role updated to " + req.Role,
	})
}
