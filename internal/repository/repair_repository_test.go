package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
)

var repairRowColumns = []string{"id", "owner_id", "device_type", "brand", "model", "issue", "photos", "status", "technician_notes", "amount", "created_at", "updated_at", "owner_name", "owner_email"}

func TestRepairCreateDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRepairRepository(db)

	mock.ExpectExec("INSERT INTO repair_tickets").WillReturnResult(sqlmock.NewResult(1, 1))

	ticket := &models.RepairTicket{OwnerID: "u1", DeviceType: "Fridge", Issue: "Not cooling"}
	require.NoError(t, repo.Create(context.Background(), ticket))
	assert.NotEmpty(t, ticket.ID)
	assert.Equal(t, models.RepairStatusPending, ticket.Status)
	assert.NotNil(t, ticket.Photos)
	assert.Equal(t, ticket.CreatedAt, ticket.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepairListByOwner(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRepairRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(repairRowColumns).
		AddRow("r2", "u1", "TV", "LG", "X", "No picture", "{repairs/r2/photo-0.jpg}", "in-progress", "", "120.50", now, now, "Jane", "jane@example.com").
		AddRow("r1", "u1", "Radio", "", "", "Static", "{}", "pending", "", "0", now.Add(-time.Hour), now, "Jane", "jane@example.com")
	mock.ExpectQuery(regexp.QuoteMeta(repairSelect + " WHERE r.owner_id = $1 ORDER BY r.created_at DESC")).
		WithArgs("u1").
		WillReturnRows(rows)

	tickets, err := repo.List(context.Background(), models.RepairFilter{OwnerID: "u1"})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, []string{"repairs/r2/photo-0.jpg"}, []string(tickets[0].Photos))
	assert.Equal(t, 120.5, tickets[0].Amount)
	assert.Equal(t, models.RepairStatusInProgress, tickets[0].Status)
	assert.Equal(t, "Jane", tickets[1].OwnerName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepairUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRepairRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE repair_tickets SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("nope", models.RepairStatusCompleted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "nope", models.RepairStatusCompleted, time.Now())
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
