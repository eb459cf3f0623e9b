package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const riderColumns = `id, name, email, phone, region, district, bike_brand, bike_reg, status, created_at`

// PostgresRiderRepo implements RiderRepo using PostgreSQL.
type PostgresRiderRepo struct {
	db DBTX
}

// NewPostgresRiderRepo creates a PostgresRiderRepo.
func NewPostgresRiderRepo(db DBTX) *PostgresRiderRepo {
	return &PostgresRiderRepo{db: db}
}

func (r *PostgresRiderRepo) InsertRider(ctx context.Context, rd *Rider) error {
	const q = `
INSERT INTO riders (id, name, email, phone, region, district, bike_brand, bike_reg, status, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`
	_, err := r.db.Exec(ctx, q,
		rd.ID, rd.Name, rd.Email, rd.Phone, rd.Region, rd.District,
		rd.BikeBrand, rd.BikeReg, rd.Status, rd.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert rider: %w", err)
	}
	return nil
}

func (r *PostgresRiderRepo) ListRiders(ctx context.Context, status, region string, opts ListOptions) ([]*Rider, error) {
	q := `SELECT ` + riderColumns + ` FROM riders WHERE status = $1`
	args := []any{status}
	idx := 2
	if region != "" {
		q += fmt.Sprintf(" AND region = $%d", idx)
		args = append(args, region)
		idx++
	}
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list riders: %w", err)
	}
	defer rows.Close()

	var riders []*Rider
	for rows.Next() {
		rd, err := scanRider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rider: %w", err)
		}
		riders = append(riders, rd)
	}
	return riders, rows.Err()
}

func (r *PostgresRiderRepo) UpdateRiderStatus(ctx context.Context, id, status string) (*Rider, error) {
	q := `UPDATE riders SET status = $1 WHERE id = $2 RETURNING ` + riderColumns
	rd, err := scanRider(r.db.QueryRow(ctx, q, status, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update rider status: %w", err)
	}
	return rd, nil
}

func scanRider(row pgx.Row) (*Rider, error) {
	rd := &Rider{}
	err := row.Scan(
		&rd.ID, &rd.Name, &rd.Email, &rd.Phone, &rd.Region, &rd.District,
		&rd.BikeBrand, &rd.BikeReg, &rd.Status, &rd.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rd, nil
}
