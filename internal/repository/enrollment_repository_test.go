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

func TestEnrollmentCreateDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec("INSERT INTO enrollments").WillReturnResult(sqlmock.NewResult(1, 1))

	e := &models.Enrollment{OwnerID: "u1", CourseID: "c1", CourseName: "Solar", FullName: "Jane", Email: "j@x.com", Phone: "1"}
	require.NoError(t, repo.Create(context.Background(), e))
	assert.Equal(t, models.EnrollmentStatusPending, e.Status)
	assert.Equal(t, models.EnrollmentPaymentUnpaid, e.PaymentStatus)
	assert.Equal(t, models.EducationSecondary, e.EducationLevel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "owner_id", "course_id", "course_name", "full_name", "email", "phone", "education_level", "status", "payment_status", "created_at", "updated_at"}).
		AddRow("e1", "u1", "c1", "Solar", "Jane", "j@x.com", "1", "diploma", "approved", "partial", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + enrollmentColumns + " FROM enrollments WHERE id = $1")).
		WithArgs("e1").
		WillReturnRows(rows)

	e, err := repo.FindByID(context.Background(), "e1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusApproved, e.Status)
	assert.Equal(t, models.EnrollmentPaymentPartial, e.PaymentStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentUpdatePaymentStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET payment_status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("e1", models.EnrollmentPaymentPaid, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePaymentStatus(context.Background(), "e1", models.EnrollmentPaymentPaid, time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
