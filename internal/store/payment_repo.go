package store

import (
	"context"
	"fmt"
)

// PostgresPaymentRepo implements PaymentRepo using PostgreSQL.
type PostgresPaymentRepo struct {
	db DBTX
}

// NewPostgresPaymentRepo creates a PostgresPaymentRepo.
func NewPostgresPaymentRepo(db DBTX) *PostgresPaymentRepo {
	return &PostgresPaymentRepo{db: db}
}

func (r *PostgresPaymentRepo) InsertPayment(ctx context.Context, rec *PaymentRecord) error {
	const q = `
INSERT INTO payments (id, parcel_id, email, transaction_id, amount, payment_method, fingerprint, paid_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.db.Exec(ctx, q,
		rec.ID, rec.ParcelID, rec.Email, rec.TransactionID, rec.Amount,
		rec.PaymentMethod, rec.Fingerprint, rec.PaidAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (r *PostgresPaymentRepo) ListPayments(ctx context.Context, email string, opts ListOptions) ([]*PaymentRecord, error) {
	const q = `
SELECT id, parcel_id, email, transaction_id, amount, payment_method, fingerprint, paid_at
FROM payments WHERE email = $1
ORDER BY paid_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.Query(ctx, q, email, opts.Limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	var records []*PaymentRecord
	for rows.Next() {
		rec := &PaymentRecord{}
		if err := rows.Scan(
			&rec.ID, &rec.ParcelID, &rec.Email, &rec.TransactionID, &rec.Amount,
			&rec.PaymentMethod, &rec.Fingerprint, &rec.PaidAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
