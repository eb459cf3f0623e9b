package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PostgresUserRepo implements UserRepo using PostgreSQL.
type PostgresUserRepo struct {
	db DBTX
}

// NewPostgresUserRepo creates a PostgresUserRepo.
func NewPostgresUserRepo(db DBTX) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

func (r *PostgresUserRepo) UpsertUser(ctx context.Context, u *User) (bool, error) {
	// xmax is zero only for a freshly inserted tuple.
	const q = `
INSERT INTO users (id, email, display_name, photo_url, role, created_at, last_login)
VALUES ($1,$2,$3,$4,$5,$6,$6)
ON CONFLICT (email) DO UPDATE SET last_login = EXCLUDED.last_login
RETURNING id::text, role, (xmax = 0)`
	var inserted bool
	err := r.db.QueryRow(ctx, q, u.ID, u.Email, u.DisplayName, u.PhotoURL, u.Role, u.LastLogin).
		Scan(&u.ID, &u.Role, &inserted)
	if err != nil {
		return false, fmt.Errorf("upsert user: %w", err)
	}
	return inserted, nil
}

func (r *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
SELECT id, email, display_name, photo_url, role, created_at, last_login
FROM users WHERE email = $1`
	u := &User{}
	err := r.db.QueryRow(ctx, q, email).Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.PhotoURL, &u.Role, &u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepo) UpdateUserRole(ctx context.Context, id, role string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) UpdateUserRoleByEmail(ctx context.Context, email, role string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET role = $1 WHERE email = $2`, role, email)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
