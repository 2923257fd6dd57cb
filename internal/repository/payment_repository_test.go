package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
)

func TestPaymentCreateConfirmedSetsPaidAt(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	mock.ExpectExec("INSERT INTO payments").WillReturnResult(sqlmock.NewResult(1, 1))

	p := &models.Payment{OwnerID: "u1", Amount: 5000, Method: models.PaymentMethodCash, Status: models.PaymentStatusConfirmed}
	require.NoError(t, repo.Create(context.Background(), p))
	require.NotNil(t, p.PaidAt)
	assert.Equal(t, models.CurrencyMWK, p.Currency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentUpdateStatusKeepsFirstPaidAt(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("paid_at = CASE WHEN $2 = 'confirmed' THEN COALESCE(paid_at, $3) ELSE paid_at END")).
		WithArgs("p1", "confirmed", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "p1", models.PaymentStatusConfirmed, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentListAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPaymentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "amount", "currency", "method", "reference", "transaction_id", "description", "status", "paid_at", "notes", "created_at", "updated_at", "owner_name", "owner_email"}).
		AddRow("p1", "u1", "250.00", "USD", "card", "", "", "", "confirmed", now, "", now, now, "Jane", "j@x.com")
	mock.ExpectQuery(regexp.QuoteMeta(paymentSelect + " ORDER BY p.created_at DESC")).WillReturnRows(rows)

	payments, err := repo.List(context.Background(), models.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, 250.0, payments[0].Amount)
	require.NotNil(t, payments[0].PaidAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}
