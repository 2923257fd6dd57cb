package models

import (
	"strings"
	"time"
)

// EnrollmentStatus is the admission state of an enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusPending   EnrollmentStatus = "pending"
	EnrollmentStatusApproved  EnrollmentStatus = "approved"
	EnrollmentStatusRejected  EnrollmentStatus = "rejected"
	EnrollmentStatusActive    EnrollmentStatus = "active"
	EnrollmentStatusCompleted EnrollmentStatus = "completed"
)

// EnrollmentStatuses lists every allowed enrollment status.
var EnrollmentStatuses = []EnrollmentStatus{
	EnrollmentStatusPending, EnrollmentStatusApproved, EnrollmentStatusRejected,
	EnrollmentStatusActive, EnrollmentStatusCompleted,
}

// IsValid reports whether s belongs to EnrollmentStatuses.
func (s EnrollmentStatus) IsValid() bool {
	for _, v := range EnrollmentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// EnrollmentPaymentStatus tracks how much of the course fee was paid.
type EnrollmentPaymentStatus string

const (
	EnrollmentPaymentUnpaid  EnrollmentPaymentStatus = "unpaid"
	EnrollmentPaymentPartial EnrollmentPaymentStatus = "partial"
	EnrollmentPaymentPaid    EnrollmentPaymentStatus = "paid"
)

// EnrollmentPaymentStatuses lists every allowed payment status of an enrollment.
var EnrollmentPaymentStatuses = []EnrollmentPaymentStatus{EnrollmentPaymentUnpaid, EnrollmentPaymentPartial, EnrollmentPaymentPaid}

// IsValid reports whether s belongs to EnrollmentPaymentStatuses.
func (s EnrollmentPaymentStatus) IsValid() bool {
	for _, v := range EnrollmentPaymentStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// EducationLevel is the applicant's highest education.
type EducationLevel string

const (
	EducationSecondary EducationLevel = "secondary"
	EducationDiploma   EducationLevel = "diploma"
	EducationDegree    EducationLevel = "degree"
	EducationOther     EducationLevel = "other"
)

// Enrollment is a user's application to a course.
type Enrollment struct {
	ID             string                  `db:"id" json:"id"`
	OwnerID        string                  `db:"owner_id" json:"owner_id"`
	CourseID       string                  `db:"course_id" json:"course_id"`
	CourseName     string                  `db:"course_name" json:"course_name"`
	FullName       string                  `db:"full_name" json:"full_name"`
	Email          string                  `db:"email" json:"email"`
	Phone          string                  `db:"phone" json:"phone"`
	EducationLevel EducationLevel          `db:"education_level" json:"education_level"`
	Status         EnrollmentStatus        `db:"status" json:"status"`
	PaymentStatus  EnrollmentPaymentStatus `db:"payment_status" json:"payment_status"`
	CreatedAt      time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time               `db:"updated_at" json:"updated_at"`
}

// Reference is the short code quoted to students: the last six id characters, upper-cased.
func (e *Enrollment) Reference() string {
	return ShortReference(e.ID)
}

// ShortReference returns the last six characters of id in upper case.
func ShortReference(id string) string {
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return strings.ToUpper(id)
}

// EnrollmentFilter narrows enrollment listings.
type EnrollmentFilter struct {
	OwnerID string
	Status  *EnrollmentStatus
}

// CreateEnrollmentRequest applies to a course by id or by name.
type CreateEnrollmentRequest struct {
	CourseID       string         `json:"course_id" validate:"required_without=CourseName"`
	CourseName     string         `json:"course_name" validate:"required_without=CourseID,max=50"`
	FullName       string         `json:"full_name" validate:"required,min=2,max=100"`
	Email          string         `json:"email" validate:"required,email"`
	Phone          string         `json:"phone" validate:"required,max=30"`
	EducationLevel EducationLevel `json:"education_level" validate:"omitempty,oneof=secondary diploma degree other"`
}

// PaymentStatusUpdateRequest carries a requested enrollment payment status.
type PaymentStatusUpdateRequest struct {
	PaymentStatus string `json:"payment_status"`
}
