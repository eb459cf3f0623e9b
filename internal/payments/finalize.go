// Package payments settles parcels and creates gateway payment intents.
package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/parcelroute/parcel-server/internal/apperr"
	"github.com/parcelroute/parcel-server/internal/store"
)

const (
	msgProcessed      = "Payment processed successfully"
	msgNotFoundOrPaid = "Parcel not found or already paid"
	msgAlreadyPaid    = "Parcel already paid"
	msgInvalidParcel  = "Invalid parcel ID"
	msgFailed         = "Failed to process payment"
)

var tracer = otel.Tracer("github.com/parcelroute/parcel-server/internal/payments")

// FinalizeRequest is the input of a settlement.
type FinalizeRequest struct {
	ParcelID      string
	Email         string
	TransactionID string
	Amount        decimal.Decimal
	PaymentMethod string
}

// FinalizeResult is returned for a settled parcel.
type FinalizeResult struct {
	Message    string
	InsertedID string
	Record     *store.PaymentRecord
}

// Options tune the settlement flow.
type Options struct {
	// DistinguishAlreadyPaid reports Conflict instead of NotFound when the
	// parcel exists and is already paid.
	DistinguishAlreadyPaid bool
}

// Service runs the payment finalization flow against the store.
type Service struct {
	db    store.DBTX
	opts  Options
	now   func() time.Time
	newID func() string
}

// NewService creates a Service over db.
func NewService(db store.DBTX, opts Options) *Service {
	return &Service{db: db, opts: opts, now: time.Now, newID: uuid.NewString}
}

// Finalize marks the parcel paid and appends its payment record. Only the
// parcel id is validated; the other fields are stored as given. Both writes
// share one transaction: either the parcel is paid and the record exists, or
// neither change is visible.
func (s *Service) Finalize(ctx context.Context, req FinalizeRequest) (*FinalizeResult, error) {
	parcelID, err := uuid.Parse(req.ParcelID)
	if err != nil {
		return nil, apperr.InvalidArgument(msgInvalidParcel)
	}

	ctx, span := tracer.Start(ctx, "payments.Finalize")
	defer span.End()
	span.SetAttributes(attribute.String("parcel.id", parcelID.String()))

	rec := &store.PaymentRecord{
		ID:            s.newID(),
		ParcelID:      parcelID.String(),
		Email:         req.Email,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	}

	err = store.WithTx(ctx, s.db, func(tx store.DBTX) error {
		parcels := store.NewPostgresParcelRepo(tx)
		changed, err := parcels.MarkParcelPaid(ctx, rec.ParcelID)
		if err != nil {
			return err
		}
		if !changed {
			return s.unchangedError(ctx, parcels, rec.ParcelID)
		}

		rec.PaidAt = s.now().UTC()
		if rec.Fingerprint, err = Fingerprint(rec); err != nil {
			return err
		}
		return store.NewPostgresPaymentRepo(tx).InsertPayment(ctx, rec)
	})
	if err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, ae
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, msgFailed)
		return nil, apperr.Internal(msgFailed, err)
	}

	log.Ctx(ctx).Info().
		Str("parcel_id", rec.ParcelID).
		Str("payment_id", rec.ID).
		Str("transaction_id", rec.TransactionID).
		Msg("parcel settled")

	return &FinalizeResult{Message: msgProcessed, InsertedID: rec.ID, Record: rec}, nil
}

func (s *Service) unchangedError(ctx context.Context, parcels *store.PostgresParcelRepo, id string) error {
	if !s.opts.DistinguishAlreadyPaid {
		return apperr.NotFound(msgNotFoundOrPaid)
	}
	p, err := parcels.GetParcel(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperr.NotFound("Parcel not found")
	case err != nil:
		return err
	case p.PaymentStatus == store.PaymentStatusPaid:
		return apperr.Conflict(msgAlreadyPaid)
	default:
		return apperr.NotFound(msgNotFoundOrPaid)
	}
}
