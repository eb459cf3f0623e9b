package payments

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/parcelroute/parcel-server/internal/store"
)

// fingerprintFields is the signed-off view of a payment record. Field names
// are fixed; changing them changes every fingerprint.
type fingerprintFields struct {
	ParcelID      string `json:"parcelId"`
	Email         string `json:"email"`
	TransactionID string `json:"transactionId"`
	Amount        string `json:"amount"`
	PaymentMethod string `json:"paymentMethod"`
	PaidAt        string `json:"paid_at"`
}

// Fingerprint returns the hex SHA-256 of the RFC 8785 canonical JSON form
// of rec's immutable fields.
func Fingerprint(rec *store.PaymentRecord) (string, error) {
	raw, err := json.Marshal(fingerprintFields{
		ParcelID:      rec.ParcelID,
		Email:         rec.Email,
		TransactionID: rec.TransactionID,
		Amount:        rec.Amount.String(),
		PaymentMethod: rec.PaymentMethod,
		PaidAt:        rec.PaidAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("fingerprint: marshal: %w", err)
	}
	canonical, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("fingerprint: canonicalize: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
