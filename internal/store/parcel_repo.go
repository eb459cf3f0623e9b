package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const parcelColumns = `id, tracking_id, created_by, title, parcel_type, weight_kg, cost,
       sender, receiver, payment_status, delivery_status,
       COALESCE(assigned_rider::text, ''), created_at`

// PostgresParcelRepo implements ParcelRepo using PostgreSQL.
type PostgresParcelRepo struct {
	db DBTX
}

// NewPostgresParcelRepo creates a PostgresParcelRepo.
func NewPostgresParcelRepo(db DBTX) *PostgresParcelRepo {
	return &PostgresParcelRepo{db: db}
}

func (r *PostgresParcelRepo) InsertParcel(ctx context.Context, p *Parcel) error {
	const q = `
INSERT INTO parcels (id, tracking_id, created_by, title, parcel_type, weight_kg, cost,
                     sender, receiver, payment_status, delivery_status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`
	_, err := r.db.Exec(ctx, q,
		p.ID, p.TrackingID, p.CreatedBy, p.Title, p.Type, p.WeightKG, p.Cost,
		p.Sender, p.Receiver, p.PaymentStatus, p.DeliveryStatus, p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert parcel: %w", err)
	}
	return nil
}

func (r *PostgresParcelRepo) GetParcel(ctx context.Context, id string) (*Parcel, error) {
	q := `SELECT ` + parcelColumns + ` FROM parcels WHERE id = $1`
	p, err := scanParcel(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get parcel: %w", err)
	}
	return p, nil
}

func (r *PostgresParcelRepo) ListParcels(ctx context.Context, createdBy string, opts ListOptions) ([]*Parcel, error) {
	q := `SELECT ` + parcelColumns + ` FROM parcels WHERE 1=1`
	args := []any{}
	idx := 1
	if createdBy != "" {
		q += fmt.Sprintf(" AND created_by = $%d", idx)
		args = append(args, createdBy)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	defer rows.Close()

	var parcels []*Parcel
	for rows.Next() {
		p, err := scanParcel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan parcel: %w", err)
		}
		parcels = append(parcels, p)
	}
	return parcels, rows.Err()
}

func (r *PostgresParcelRepo) DeleteParcel(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM parcels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete parcel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresParcelRepo) MarkParcelPaid(ctx context.Context, id string) (bool, error) {
	const q = `UPDATE parcels SET payment_status = $1 WHERE id = $2 AND payment_status <> $1`
	tag, err := r.db.Exec(ctx, q, PaymentStatusPaid, id)
	if err != nil {
		return false, fmt.Errorf("mark parcel paid: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanParcel(row pgx.Row) (*Parcel, error) {
	p := &Parcel{}
	err := row.Scan(
		&p.ID, &p.TrackingID, &p.CreatedBy, &p.Title, &p.Type, &p.WeightKG, &p.Cost,
		&p.Sender, &p.Receiver, &p.PaymentStatus, &p.DeliveryStatus,
		&p.AssignedRider, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
