package payments

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"github.com/parcelroute/parcel-server/internal/apperr"
)

// Intent is a created gateway payment intent.
type Intent struct {
	ID           string
	ClientSecret string
}

// IntentCreator creates payment intents at the payment gateway.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string) (*Intent, error)
}

// StripeIntents creates card payment intents through Stripe.
type StripeIntents struct {
	api *client.API
}

// NewStripeIntents creates a StripeIntents for the given secret key.
func NewStripeIntents(secretKey string) (*StripeIntents, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("stripe secret key is required")
	}
	return &StripeIntents{api: client.New(secretKey, nil)}, nil
}

func (s *StripeIntents) CreateIntent(ctx context.Context, amountCents int64, currency string) (*Intent, error) {
	if err := validateIntent(amountCents, currency); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "payments.CreateIntent")
	defer span.End()

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(strings.ToLower(currency)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		span.RecordError(err)
		return nil, apperr.Internal("Failed to create payment intent", err)
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

func validateIntent(amountCents int64, currency string) error {
	if amountCents <= 0 {
		return apperr.InvalidArgument("amountInCents must be positive")
	}
	if len(currency) != 3 {
		return apperr.InvalidArgument("currency must be a 3-letter ISO code")
	}
	return nil
}
