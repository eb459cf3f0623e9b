package api

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/parcelroute/parcel-server/internal/apperr"
	"github.com/parcelroute/parcel-server/internal/payments"
	"github.com/parcelroute/parcel-server/internal/store"
)

type memStore struct {
	mu       sync.Mutex
	parcels  map[string]*store.Parcel
	payments []*store.PaymentRecord
	users    map[string]*store.User
	riders   map[string]*store.Rider
	pingErr  error
}

func newMemStore() *memStore {
	return &memStore{
		parcels: map[string]*store.Parcel{},
		users:   map[string]*store.User{},
		riders:  map[string]*store.Rider{},
	}
}

func (m *memStore) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

func (m *memStore) InsertParcel(_ context.Context, p *store.Parcel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parcels[p.ID]; ok {
		return store.ErrConflict
	}
	cp := *p
	m.parcels[p.ID] = &cp
	return nil
}

func (m *memStore) GetParcel(_ context.Context, id string) (*store.Parcel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parcels[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) ListParcels(_ context.Context, createdBy string, _ store.ListOptions) ([]*store.Parcel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Parcel
	for _, p := range m.parcels {
		if createdBy == "" || p.CreatedBy == createdBy {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) DeleteParcel(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.parcels[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.parcels, id)
	return nil
}

func (m *memStore) MarkParcelPaid(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parcels[id]
	if !ok || p.PaymentStatus == store.PaymentStatusPaid {
		return false, nil
	}
	p.PaymentStatus = store.PaymentStatusPaid
	return true, nil
}

func (m *memStore) InsertPayment(_ context.Context, rec *store.PaymentRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.payments = append(m.payments, &cp)
	return nil
}

func (m *memStore) ListPayments(_ context.Context, email string, _ store.ListOptions) ([]*store.PaymentRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.PaymentRecord
	for _, rec := range m.payments {
		if rec.Email == email {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}

func (m *memStore) UpsertUser(_ context.Context, u *store.User) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.users[u.Email]; ok {
		existing.LastLogin = u.LastLogin
		u.ID, u.Role = existing.ID, existing.Role
		return false, nil
	}
	cp := *u
	m.users[u.Email] = &cp
	return true, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*store.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memStore) UpdateUserRole(_ context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) UpdateUserRoleByEmail(_ context.Context, email, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return store.ErrNotFound
	}
	u.Role = role
	return nil
}

func (m *memStore) InsertRider(_ context.Context, r *store.Rider) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.riders[r.ID] = &cp
	return nil
}

func (m *memStore) ListRiders(_ context.Context, status, region string, _ store.ListOptions) ([]*store.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*store.Rider
	for _, r := range m.riders {
		if r.Status == status && (region == "" || r.Region == region) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) UpdateRiderStatus(_ context.Context, id, status string) (*store.Rider, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.riders[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r.Status = status
	cp := *r
	return &cp, nil
}

// memFinalizer mirrors the settlement outcomes over memStore.
type memFinalizer struct {
	st *memStore
}

func (f *memFinalizer) Finalize(ctx context.Context, req payments.FinalizeRequest) (*payments.FinalizeResult, error) {
	ok, err := f.st.MarkParcelPaid(ctx, req.ParcelID)
	if err != nil {
		return nil, apperr.Internal("Failed to process payment", err)
	}
	if !ok {
		return nil, apperr.NotFound("Parcel not found or already paid")
	}
	rec := &store.PaymentRecord{
		ID:            "pay-" + req.ParcelID,
		ParcelID:      req.ParcelID,
		Email:         req.Email,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		PaidAt:        time.Now().UTC(),
	}
	if err := f.st.InsertPayment(ctx, rec); err != nil {
		return nil, apperr.Internal("Failed to process payment", err)
	}
	return &payments.FinalizeResult{Message: "Payment processed successfully", InsertedID: rec.ID, Record: rec}, nil
}

type stubIntents struct {
	mu          sync.Mutex
	gotAmount   int64
	gotCurrency string
}

func (s *stubIntents) CreateIntent(_ context.Context, amountCents int64, currency string) (*payments.Intent, error) {
	if amountCents <= 0 {
		return nil, apperr.InvalidArgument("amountInCents must be positive")
	}
	s.mu.Lock()
	s.gotAmount, s.gotCurrency = amountCents, currency
	s.mu.Unlock()
	return &payments.Intent{ID: "pi_1", ClientSecret: "pi_1_secret_x"}, nil
}

func (m *memStore) parcel(id string) *store.Parcel {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.parcels[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (m *memStore) user(email string) *store.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (m *memStore) rider(id string) *store.Rider {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.riders[id]; ok {
		cp := *r
		return &cp
	}
	return nil
}

func (m *memStore) paymentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

func (m *memStore) setPingErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}
