package store

import "context"

// ListOptions bounds a list query.
type ListOptions struct {
	Limit  int
	Offset int
}

// ParcelRepo defines storage operations for parcels.
type ParcelRepo interface {
	InsertParcel(ctx context.Context, p *Parcel) error
	GetParcel(ctx context.Context, id string) (*Parcel, error)
	// ListParcels returns parcels ordered by created_at DESC. An empty
	// createdBy lists every parcel.
	ListParcels(ctx context.Context, createdBy string, opts ListOptions) ([]*Parcel, error)
	DeleteParcel(ctx context.Context, id string) error
	// MarkParcelPaid sets payment_status to paid only if it is not paid yet.
	// It reports whether a row changed.
	MarkParcelPaid(ctx context.Context, id string) (bool, error)
}

// PaymentRepo defines storage operations for payment records.
type PaymentRepo interface {
	InsertPayment(ctx context.Context, rec *PaymentRecord) error
	// ListPayments returns the records of one payer ordered by paid_at DESC.
	ListPayments(ctx context.Context, email string, opts ListOptions) ([]*PaymentRecord, error)
}

// UserRepo defines storage operations for users.
type UserRepo interface {
	// UpsertUser inserts u, or refreshes last_login when the email exists.
	// It reports whether a new row was inserted and fills u.ID either way.
	UpsertUser(ctx context.Context, u *User) (bool, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	UpdateUserRole(ctx context.Context, id, role string) error
	UpdateUserRoleByEmail(ctx context.Context, email, role string) error
}

// RiderRepo defines storage operations for rider applications.
type RiderRepo interface {
	InsertRider(ctx context.Context, r *Rider) error
	// ListRiders filters by status and, when non-empty, region.
	ListRiders(ctx context.Context, status, region string, opts ListOptions) ([]*Rider, error)
	UpdateRiderStatus(ctx context.Context, id, status string) (*Rider, error)
}
