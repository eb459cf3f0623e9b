package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/parcelroute/parcel-server/internal/apperr"
	"github.com/parcelroute/parcel-server/internal/payments"
	"github.com/parcelroute/parcel-server/internal/store"
	"github.com/parcelroute/parcel-server/internal/util"
)

type paymentIntentRequest struct {
	AmountInCents int64 `json:"amountInCents"`
}

type finalizeRequest struct {
	ParcelID      string          `json:"parcelId"`
	Email         string          `json:"user_email"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"paymentMethod"`
}

func (h *handlers) PostPaymentIntent(w http.ResponseWriter, r *http.Request) {
	if h.intents == nil {
		util.WriteAppError(w, r, apperr.Internal("Payment gateway is not configured", nil))
		return
	}
	var req paymentIntentRequest
	if err := util.DecodeJSON(r, h.maxBody, &req); err != nil {
		util.WriteAppError(w, r, err)
		return
	}
	intent, err := h.intents.CreateIntent(r.Context(), req.AmountInCents, h.currency)
	if err != nil {
		util.WriteAppError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]any{"clientSecret": intent.ClientSecret})
}

// PostPayment settles a parcel after the client confirmed the payment.
func (h *handlers) PostPayment(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := util.DecodeJSON(r, h.maxBody, &req); err != nil {
		util.WriteAppError(w, r, err)
		return
	}
	res, err := h.finalizer.Finalize(r.Context(), payments.FinalizeRequest{
		ParcelID:      req.ParcelID,
		Email:         req.Email,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		util.WriteAppError(w, r, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, map[string]any{
		"message":    res.Message,
		"insertedId": res.InsertedID,
	})
}

func (h *handlers) ListPayments(w http.ResponseWriter, r *http.Request) {
	opts := store.ListOptions{
		Limit:  util.ParseLimit(r, 50, 200),
		Offset: util.ParseOffset(r),
	}
	items, err := h.payments.ListPayments(r.Context(), r.URL.Query().Get("email"), opts)
	if err != nil {
		util.WriteAppError(w, r, apperr.Internal("Failed to get payments", err))
		return
	}
	if items == nil {
		items = []*store.PaymentRecord{}
	}
	util.WriteJSON(w, http.StatusOK, items)
}
