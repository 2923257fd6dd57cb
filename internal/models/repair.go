package models

import (
	"time"

	"github.com/lib/pq"
)

// RepairStatus is the lifecycle state of a repair ticket.
type RepairStatus string

const (
	RepairStatusPending    RepairStatus = "pending"
	RepairStatusInProgress RepairStatus = "in-progress"
	RepairStatusCompleted  RepairStatus = "completed"
	RepairStatusCancelled  RepairStatus = "cancelled"
)

// RepairStatuses lists every allowed repair status.
var RepairStatuses = []RepairStatus{RepairStatusPending, RepairStatusInProgress, RepairStatusCompleted, RepairStatusCancelled}

// IsValid reports whether s belongs to RepairStatuses.
func (s RepairStatus) IsValid() bool {
	for _, v := range RepairStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// RepairTicket is a customer's device repair request.
type RepairTicket struct {
	ID              string         `db:"id" json:"id"`
	OwnerID         string         `db:"owner_id" json:"owner_id"`
	DeviceType      string         `db:"device_type" json:"device_type"`
	Brand           string         `db:"brand" json:"brand"`
	Model           string         `db:"model" json:"model"`
	Issue           string         `db:"issue" json:"issue"`
	Photos          pq.StringArray `db:"photos" json:"-"`
	Status          RepairStatus   `db:"status" json:"status"`
	TechnicianNotes string         `db:"technician_notes" json:"technician_notes"`
	Amount          float64        `db:"amount" json:"amount"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`

	OwnerName  string `db:"owner_name" json:"owner_name,omitempty"`
	OwnerEmail string `db:"owner_email" json:"owner_email,omitempty"`

	PhotoURLs []string `db:"-" json:"photo_urls"`
}

// RepairFilter narrows repair listings. An empty OwnerID lists every ticket.
type RepairFilter struct {
	OwnerID string
	Status  *RepairStatus
}

// CreateRepairRequest is bound from the multipart form; photos arrive separately.
type CreateRepairRequest struct {
	DeviceType string `form:"device_type" json:"device_type" validate:"required,max=100"`
	Brand      string `form:"brand" json:"brand" validate:"max=100"`
	Model      string `form:"model" json:"model" validate:"max=100"`
	Issue      string `form:"issue" json:"issue" validate:"required,max=2000"`
}

// UpdateRepairRequest lets an admin edit notes, amount and optionally status.
type UpdateRepairRequest struct {
	Status          *string  `json:"status"`
	TechnicianNotes *string  `json:"technician_notes" validate:"omitempty,max=2000"`
	Amount          *float64 `json:"amount" validate:"omitempty,gte=0"`
}

// StatusUpdateRequest carries a requested status value.
type StatusUpdateRequest struct {
	Status string `json:"status"`
}
