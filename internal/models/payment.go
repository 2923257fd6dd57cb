package models

import "time"

// PaymentStatus is the verification state of a recorded payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// PaymentStatuses lists every allowed payment status.
var PaymentStatuses = []PaymentStatus{PaymentStatusPending, PaymentStatusConfirmed, PaymentStatusFailed, PaymentStatusRefunded}

// IsValid reports whether s belongs to PaymentStatuses.
func (s PaymentStatus) IsValid() bool {
	for _, v := range PaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Supported currencies and methods.
const (
	CurrencyMWK = "MWK"
	CurrencyUSD = "USD"

	PaymentMethodCash         = "cash"
	PaymentMethodMobileMoney  = "mobile-money"
	PaymentMethodBankTransfer = "bank-transfer"
	PaymentMethodCard         = "card"
	PaymentMethodOther        = "other"
)

// Payment is a manually recorded payment.
type Payment struct {
	ID            string        `db:"id" json:"id"`
	OwnerID       string        `db:"owner_id" json:"owner_id"`
	Amount        float64       `db:"amount" json:"amount"`
	Currency      string        `db:"currency" json:"currency"`
	Method        string        `db:"method" json:"method"`
	Reference     string        `db:"reference" json:"reference"`
	TransactionID string        `db:"transaction_id" json:"transaction_id"`
	Description   string        `db:"description" json:"description"`
	Status        PaymentStatus `db:"status" json:"status"`
	PaidAt        *time.Time    `db:"paid_at" json:"paid_at,omitempty"`
	Notes         string        `db:"notes" json:"notes"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`

	OwnerName  string `db:"owner_name" json:"owner_name,omitempty"`
	OwnerEmail string `db:"owner_email" json:"owner_email,omitempty"`
}

// PaymentFilter narrows payment listings.
type PaymentFilter struct {
	OwnerID string
	Status  *PaymentStatus
}

// CreatePaymentRequest records a payment. UserID is honoured for admins only.
type CreatePaymentRequest struct {
	UserID        string  `json:"user_id" validate:"omitempty,max=64"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Currency      string  `json:"currency" validate:"omitempty,oneof=MWK USD"`
	Method        string  `json:"method" validate:"required,oneof=cash mobile-money bank-transfer card other"`
	Reference     string  `json:"reference" validate:"max=100"`
	TransactionID string  `json:"transaction_id" validate:"max=100"`
	Description   string  `json:"description" validate:"max=500"`
	Notes         string  `json:"notes" validate:"max=1000"`
}
