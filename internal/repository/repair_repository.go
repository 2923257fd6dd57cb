package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
)

const repairSelect = `SELECT r.id, r.owner_id, r.device_type, r.brand, r.model, r.issue, r.photos, r.status, r.technician_notes, r.amount, r.created_at, r.updated_at, COALESCE(u.name, '') AS owner_name, COALESCE(u.email, '') AS owner_email FROM repair_tickets r LEFT JOIN users u ON u.id = r.owner_id`

// RepairRepository persists repair tickets.
type RepairRepository struct {
	db *sqlx.DB
}

// NewRepairRepository constructs the repository.
func NewRepairRepository(db *sqlx.DB) *RepairRepository {
	return &RepairRepository{db: db}
}

// Create inserts a ticket. Callers may preassign the id to name photo files.
func (r *RepairRepository) Create(ctx context.Context, ticket *models.RepairTicket) error {
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Status == "" {
		ticket.Status = models.RepairStatusPending
	}
	if ticket.Photos == nil {
		ticket.Photos = pq.StringArray{}
	}
	now := time.Now().UTC()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	const query = `INSERT INTO repair_tickets (id, owner_id, device_type, brand, model, issue, photos, status, technician_notes, amount, created_at, updated_at) VALUES (:id, :owner_id, :device_type, :brand, :model, :issue, :photos, :status, :technician_notes, :amount, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, ticket); err != nil {
		return fmt.Errorf("create repair ticket: %w", err)
	}
	return nil
}

// FindByID returns a ticket with its owner's name and email.
func (r *RepairRepository) FindByID(ctx context.Context, id string) (*models.RepairTicket, error) {
	query := repairSelect + ` WHERE r.id = $1`
	var ticket models.RepairTicket
	if err := r.db.GetContext(ctx, &ticket, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find repair ticket: %w", err)
	}
	return &ticket, nil
}

// List returns tickets newest first.
func (r *RepairRepository) List(ctx context.Context, filter models.RepairFilter) ([]models.RepairTicket, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("r.owner_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("r.status = $%d", len(args)))
	}
	query := repairSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY r.created_at DESC"

	tickets := make([]models.RepairTicket, 0)
	if err := r.db.SelectContext(ctx, &tickets, query, args...); err != nil {
		return nil, fmt.Errorf("list repair tickets: %w", err)
	}
	return tickets, nil
}

// UpdateStatus writes the status in a single statement.
func (r *RepairRepository) UpdateStatus(ctx context.Context, id string, status models.RepairStatus, at time.Time) error {
	const query = `UPDATE repair_tickets SET status = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, status, at)
	if err != nil {
		return fmt.Errorf("update repair status: %w", err)
	}
	return requireAffected(res, "update repair status")
}

// UpdateDetails writes technician notes and amount.
func (r *RepairRepository) UpdateDetails(ctx context.Context, id, notes string, amount float64, at time.Time) error {
	const query = `UPDATE repair_tickets SET technician_notes = $2, amount = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, notes, amount, at)
	if err != nil {
		return fmt.Errorf("update repair details: %w", err)
	}
	return requireAffected(res, "update repair details")
}

// Delete removes a ticket permanently.
func (r *RepairRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM repair_tickets WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete repair ticket: %w", err)
	}
	return requireAffected(res, "delete repair ticket")
}
