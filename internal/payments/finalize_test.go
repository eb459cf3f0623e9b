package payments

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parcelroute/parcel-server/internal/apperr"
	"github.com/parcelroute/parcel-server/internal/store"
)

const parcelP1 = "7d3c1b0e-2a4f-4c6e-9b1d-5e8f0a2c4d61"

var (
	markPaidSQL      = regexp.QuoteMeta("UPDATE parcels SET payment_status = $1 WHERE id = $2 AND payment_status <> $1")
	insertPaymentSQL = regexp.QuoteMeta("INSERT INTO payments")
	fixedNow         = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
)

// anyArgs matches n arguments of any value.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newTestService(t *testing.T, opts Options) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := NewService(mock, opts)
	svc.now = func() time.Time { return fixedNow }
	svc.newID = func() string { return "pay-1" }
	return svc, mock
}

func p1Request() FinalizeRequest {
	return FinalizeRequest{
		ParcelID:      parcelP1,
		Email:         "a@x.com",
		TransactionID: "t1",
		Amount:        decimal.NewFromInt(500),
		PaymentMethod: "card",
	}
}

func TestFinalize_SettlesUnpaidParcel(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(markPaidSQL).
		WithArgs(store.PaymentStatusPaid, parcelP1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(insertPaymentSQL).
		WithArgs("pay-1", parcelP1, "a@x.com", "t1", decimal.NewFromInt(500), "card", pgxmock.AnyArg(), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	res, err := svc.Finalize(context.Background(), p1Request())
	require.NoError(t, err)
	assert.Equal(t, "Payment processed successfully", res.Message)
	assert.Equal(t, "pay-1", res.InsertedID)
	assert.Equal(t, parcelP1, res.Record.ParcelID)
	assert.True(t, res.Record.Amount.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, fixedNow, res.Record.PaidAt)
	assert.Len(t, res.Record.Fingerprint, 64)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalize_SecondCallIsNotFound(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(markPaidSQL).WithArgs(store.PaymentStatusPaid, parcelP1).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(insertPaymentSQL).WithArgs(anyArgs(8)...).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(markPaidSQL).WithArgs(store.PaymentStatusPaid, parcelP1).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := svc.Finalize(context.Background(), p1Request())
	require.NoError(t, err)

	_, err = svc.Finalize(context.Background(), p1Request())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.EqualError(t, err, "Parcel not found or already paid")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalize_MalformedParcelIDSkipsStore(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	for _, id := range []string{"", "P1", "665f1c2e9b1d4a0012345678", "7d3c1b0e-2a4f-4c6e-9b1d"} {
		req := p1Request()
		req.ParcelID = id
		_, err := svc.Finalize(context.Background(), req)
		assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err), id)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalize_StoresOtherFieldsAsGiven(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	req := p1Request()
	req.TransactionID = ""
	req.Amount = decimal.Zero
	req.PaymentMethod = ""

	mock.ExpectBegin()
	mock.ExpectExec(markPaidSQL).WithArgs(store.PaymentStatusPaid, parcelP1).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(insertPaymentSQL).
		WithArgs("pay-1", parcelP1, "a@x.com", "", decimal.Zero, "", pgxmock.AnyArg(), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	res, err := svc.Finalize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "pay-1", res.InsertedID)
	assert.True(t, res.Record.Amount.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalize_InsertFailureRollsBack(t *testing.T) {
	svc, mock := newTestService(t, Options{})

	mock.ExpectBegin()
	mock.ExpectExec(markPaidSQL).WithArgs(store.PaymentStatusPaid, parcelP1).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(insertPaymentSQL).WithArgs(anyArgs(8)...).WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	_, err := svc.Finalize(context.Background(), p1Request())
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "Failed to process payment", ae.Message)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFinalize_DistinguishAlreadyPaid(t *testing.T) {
	svc, mock := newTestService(t, Options{DistinguishAlreadyPaid: true})

	cols := []string{"id", "tracking_id", "created_by", "title", "parcel_type", "weight_kg", "cost",
		"sender", "receiver", "payment_status", "delivery_status", "assigned_rider", "created_at"}

	mock.ExpectBegin()
	mock.ExpectExec(markPaidSQL).WithArgs(store.PaymentStatusPaid, parcelP1).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parcels WHERE id = $1")).
		WithArgs(parcelP1).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(
			parcelP1, "PCL-1", "a@x.com", "", "document", decimal.Zero, decimal.Zero,
			store.Contact{}, store.Contact{}, store.PaymentStatusPaid, store.DeliveryStatusNotCollected, "", fixedNow))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectExec(markPaidSQL).WithArgs(store.PaymentStatusPaid, parcelP1).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery(regexp.QuoteMeta("FROM parcels WHERE id = $1")).
		WithArgs(parcelP1).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Finalize(context.Background(), p1Request())
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	_, err = svc.Finalize(context.Background(), p1Request())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFingerprint_StableAndSensitive(t *testing.T) {
	rec := &store.PaymentRecord{
		ParcelID: parcelP1, Email: "a@x.com", TransactionID: "t1",
		Amount: decimal.NewFromInt(500), PaymentMethod: "card", PaidAt: fixedNow,
	}
	a, err := Fingerprint(rec)
	require.NoError(t, err)
	b, err := Fingerprint(rec)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	rec.Amount = decimal.NewFromInt(501)
	c, err := Fingerprint(rec)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestValidateIntent(t *testing.T) {
	assert.True(t, apperr.Is(validateIntent(0, "usd"), apperr.KindInvalidArgument))
	assert.True(t, apperr.Is(validateIntent(100, "dollars"), apperr.KindInvalidArgument))
	assert.NoError(t, validateIntent(100, "usd"))

	_, err := NewStripeIntents("")
	assert.Error(t, err)
}
