package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/parcelroute/parcel-server/internal/apperr"
	"github.com/parcelroute/parcel-server/internal/auth"
	"github.com/parcelroute/parcel-server/internal/store"
	"github.com/parcelroute/parcel-server/internal/util"
)

const msgInvalidParcelID = "Invalid parcel ID"

type createParcelRequest struct {
	Title     string          `json:"title"`
	Type      string          `json:"type"`
	Weight    decimal.Decimal `json:"weight"`
	Cost      decimal.Decimal `json:"cost"`
	CreatedBy string          `json:"created_by"`
	Sender    store.Contact   `json:"sender"`
	Receiver  store.Contact   `json:"receiver"`
}

func (req *createParcelRequest) validate() error {
	switch {
	case strings.TrimSpace(req.CreatedBy) == "":
		return apperr.InvalidArgument("created_by is required")
	case strings.TrimSpace(req.Title) == "":
		return apperr.InvalidArgument("title is required")
	case req.Cost.IsNegative():
		return apperr.InvalidArgument("cost must not be negative")
	case req.Weight.IsNegative():
		return apperr.InvalidArgument("weight must not be negative")
	}
	return nil
}

// newTrackingID formats a human-readable tracking id such as
// PCL-20250102-9F3A61C2.
func newTrackingID(now time.Time, id uuid.UUID) string {
	hex := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))
	return fmt.Sprintf("PCL-%s-%s", now.UTC().Format("20060102"), hex[:8])
}

func (h *handlers) PostParcel(w http.ResponseWriter, r *http.Request) {
	var req createParcelRequest
	if err := util.DecodeJSON(r, h.maxBody, &req); err != nil {
		util.WriteAppError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		util.WriteAppError(w, r, err)
		return
	}

	id := uuid.New()
	now := time.Now().UTC()
	p := &store.Parcel{
		ID:             id.String(),
		TrackingID:     newTrackingID(now, id),
		CreatedBy:      req.CreatedBy,
		Title:          req.Title,
		Type:           req.Type,
		WeightKG:       req.Weight,
		Cost:           req.Cost,
		Sender:         req.Sender,
		Receiver:       req.Receiver,
		PaymentStatus:  store.PaymentStatusUnpaid,
		DeliveryStatus: store.DeliveryStatusNotCollected,
		CreatedAt:      now,
	}
	if err := h.parcels.InsertParcel(r.Context(), p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			util.WriteAppError(w, r, apperr.Conflict("parcel already exists"))
			return
		}
		util.WriteAppError(w, r, apperr.Internal("Failed to create parcel", err))
		return
	}

	util.WriteJSON(w, http.StatusCreated, map[string]any{
		"acknowledged": true,
		"insertedId":   p.ID,
		"tracking_id":  p.TrackingID,
	})
}

func (h *handlers) ListParcels(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{
		Limit:  util.ParseLimit(r, 50, 200),
		Offset: util.ParseOffset(r),
	}
	items, err := h.parcels.ListParcels(r.Context(), r.URL.Query().Get("email"), opts)
	if err != nil {
		util.WriteAppError(w, r, apperr.Internal("Failed to get parcels", err))
		return
	}
	if items == nil {
		items = []*store.Parcel{}
	}
	util.WriteJSON(w, http.StatusOK, items)
}

func (h *handlers) GetParcel(w http.ResponseWriter, r *http.Request) {
	id, ok := parcelIDParam(w, r)
	if !ok {
		return
	}
	p, err := h.parcels.GetParcel(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.WriteAppError(w, r, apperr.NotFound("Parcel not found"))
			return
		}
		util.WriteAppError(w, r, apperr.Internal("Failed to get parcel", err))
		return
	}
	util.WriteJSON(w, http.StatusOK, p)
}

// DeleteParcel removes a parcel owned by the caller.
func (h *handlers) DeleteParcel(w http.ResponseWriter, r *http.Request) {
	id, ok := parcelIDParam(w, r)
	if !ok {
		return
	}
	caller, _ := auth.IdentityFromContext(r.Context())

	p, err := h.parcels.GetParcel(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.WriteAppError(w, r, apperr.NotFound("Parcel not found"))
			return
		}
		util.WriteAppError(w, r, apperr.Internal("Failed to delete parcel", err))
		return
	}
	if caller == nil || p.CreatedBy != caller.Email {
		util.WriteAppError(w, r, apperr.Forbidden("forbidden access"))
		return
	}

	if err := h.parcels.DeleteParcel(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			util.WriteAppError(w, r, apperr.NotFound("Parcel not found"))
			return
		}
		util.WriteAppError(w, r, apperr.Internal("Failed to delete parcel", err))
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]any{"deletedCount": 1})
}

func parcelIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "parcelID"))
	if err != nil {
		util.WriteAppError(w, r, apperr.InvalidArgument(msgInvalidParcelID))
		return "", false
	}
	return id.String(), true
}
