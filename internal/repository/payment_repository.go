package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
)

const paymentSelect = `SELECT p.id, p.owner_id, p.amount, p.currency, p.method, p.reference, p.transaction_id, p.description, p.status, p.paid_at, p.notes, p.created_at, p.updated_at, COALESCE(u.name, '') AS owner_name, COALESCE(u.email, '') AS owner_email FROM payments p LEFT JOIN users u ON u.id = p.owner_id`

// PaymentRepository persists manually recorded payments.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment. A payment created as confirmed gets paid_at immediately.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Status == "" {
		payment.Status = models.PaymentStatusPending
	}
	if payment.Currency == "" {
		payment.Currency = models.CurrencyMWK
	}
	now := time.Now().UTC()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	if payment.Status == models.PaymentStatusConfirmed && payment.PaidAt == nil {
		payment.PaidAt = &now
	}

	const query = `INSERT INTO payments (id, owner_id, amount, currency, method, reference, transaction_id, description, status, paid_at, notes, created_at, updated_at) VALUES (:id, :owner_id, :amount, :currency, :method, :reference, :transaction_id, :description, :status, :paid_at, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

// FindByID returns a payment with its owner's name and email.
func (r *PaymentRepository) FindByID(ctx context.Context, id string) (*models.Payment, error) {
	query := paymentSelect + ` WHERE p.id = $1`
	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find payment: %w", err)
	}
	return &payment, nil
}

// List returns payments newest first.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("p.owner_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	query := paymentSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.created_at DESC"

	payments := make([]models.Payment, 0)
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}

// UpdateStatus writes the status in one statement. paid_at is only filled the
// first time the payment becomes confirmed and is never overwritten afterwards.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, at time.Time) error {
	const query = `UPDATE payments SET status = $2, paid_at = CASE WHEN $2 = 'confirmed' THEN COALESCE(paid_at, $3) ELSE paid_at END, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, string(status), at)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return requireAffected(res, "update payment status")
}

// Delete removes a payment permanently.
func (r *PaymentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM payments WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}
	return requireAffected(res, "delete payment")
}
