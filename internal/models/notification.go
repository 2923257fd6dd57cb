package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NotificationKind selects the email template.
type NotificationKind string

const (
	NotificationWelcome              NotificationKind = "welcome"
	NotificationRepairSubmitted      NotificationKind = "repair_submitted"
	NotificationRepairStatus         NotificationKind = "repair_status"
	NotificationEnrollmentSubmitted  NotificationKind = "enrollment_submitted"
	NotificationEnrollmentAdminAlert NotificationKind = "enrollment_admin_alert"
	NotificationEnrollmentStatus     NotificationKind = "enrollment_status"
	NotificationPaymentReceived      NotificationKind = "payment_received"
	NotificationPaymentStatus        NotificationKind = "payment_status"
	NotificationPasswordReset        NotificationKind = "password_reset"
	NotificationPasswordResetDone    NotificationKind = "password_reset_done"
)

// NotificationStatus is the delivery state of an outbox row.
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// NotificationPayload is the template data stored as JSONB.
type NotificationPayload map[string]string

// Value implements driver.Valuer.
func (p NotificationPayload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner.
func (p *NotificationPayload) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*p = NotificationPayload{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported payload type %T", src)
	}
	out := NotificationPayload{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	*p = out
	return nil
}

// Notification is a row of the email outbox.
type Notification struct {
	ID        string              `db:"id" json:"id"`
	Kind      NotificationKind    `db:"kind" json:"kind"`
	Recipient string              `db:"recipient" json:"recipient"`
	Subject   string              `db:"subject" json:"subject"`
	Payload   NotificationPayload `db:"payload" json:"payload"`
	Status    NotificationStatus  `db:"status" json:"status"`
	Attempts  int                 `db:"attempts" json:"attempts"`
	LastError string              `db:"last_error" json:"last_error"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	SentAt    *time.Time          `db:"sent_at" json:"sent_at,omitempty"`
}

// NotificationRequest asks for one email to one recipient.
type NotificationRequest struct {
	Kind          NotificationKind
	Recipient     string
	RecipientName string
	Subject       string
	Data          map[string]string
}
