package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/dto"
	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type repairStatusStore interface {
	FindByID(ctx context.Context, id string) (*models.RepairTicket, error)
	UpdateStatus(ctx context.Context, id string, status models.RepairStatus, at time.Time) error
}

type enrollmentStatusStore interface {
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, at time.Time) error
	UpdatePaymentStatus(ctx context.Context, id string, status models.EnrollmentPaymentStatus, at time.Time) error
}

type paymentStatusStore interface {
	FindByID(ctx context.Context, id string) (*models.Payment, error)
	UpdateStatus(ctx context.Context, id string, status models.PaymentStatus, at time.Time) error
}

var (
	repairStatusMessages = map[models.RepairStatus]string{
		models.RepairStatusPending:    "Your repair request is waiting for a technician.",
		models.RepairStatusInProgress: "Our technicians are now working on your device.",
		models.RepairStatusCompleted:  "Good news! Your device has been repaired and is ready for collection.",
		models.RepairStatusCancelled:  "Your repair request has been cancelled.",
	}
	enrollmentStatusMessages = map[models.EnrollmentStatus]string{
		models.EnrollmentStatusPending:   "Your enrollment is pending review.",
		models.EnrollmentStatusApproved:  "Congratulations! Your enrollment has been approved.",
		models.EnrollmentStatusRejected:  "Unfortunately, your enrollment could not be approved at this time.",
		models.EnrollmentStatusActive:    "Your course has started! Welcome to the program.",
		models.EnrollmentStatusCompleted: "Congratulations on completing the course!",
	}
	enrollmentPaymentMessages = map[models.EnrollmentPaymentStatus]string{
		models.EnrollmentPaymentUnpaid:  "No payment has been recorded for your course yet.",
		models.EnrollmentPaymentPartial: "We have received part of your course fee. Thank you!",
		models.EnrollmentPaymentPaid:    "Your course fee has been paid in full. Thank you!",
	}
	paymentStatusMessages = map[models.PaymentStatus]string{
		models.PaymentStatusPending:   "Your payment is being processed.",
		models.PaymentStatusConfirmed: "Your payment has been confirmed!",
		models.PaymentStatusFailed:    "Your payment could not be processed.",
		models.PaymentStatusRefunded:  "Your payment has been refunded.",
	}
)

// StatusTransitionService moves repairs, enrollments and payments between
// statuses. Every successful transition notifies the record owner once.
type StatusTransitionService struct {
	repairs     repairStatusStore
	enrollments enrollmentStatusStore
	payments    paymentStatusStore
	notifier    notifier
	cache       cacheInvalidator
	audit       auditRecorder
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// StatusTransitionParams groups the collaborators of StatusTransitionService.
type StatusTransitionParams struct {
	Repairs     repairStatusStore
	Enrollments enrollmentStatusStore
	Payments    paymentStatusStore
	Notifier    notifier
	Cache       cacheInvalidator
	Audit       auditRecorder
	Metrics     *MetricsService
	Validator   *validator.Validate
	Logger      *zap.Logger
}

// NewStatusTransitionService constructs the transition handler.
func NewStatusTransitionService(params StatusTransitionParams) *StatusTransitionService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &StatusTransitionService{
		repairs:     params.Repairs,
		enrollments: params.Enrollments,
		payments:    params.Payments,
		notifier:    params.Notifier,
		cache:       params.Cache,
		audit:       params.Audit,
		metrics:     params.Metrics,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// Transition dispatches a generic request to the matching entity handler.
func (s *StatusTransitionService) Transition(ctx context.Context, req dto.StatusTransitionRequest, actor *models.JWTClaims) (interface{}, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid transition payload")
	}

	switch req.Entity {
	case dto.TransitionEntityRepair:
		return s.TransitionRepair(ctx, req.ID, req.Status, actor)
	case dto.TransitionEntityEnrollment:
		if req.Field == dto.TransitionFieldPaymentStatus {
			return s.TransitionEnrollmentPayment(ctx, req.ID, req.Status, actor)
		}
		return s.TransitionEnrollment(ctx, req.ID, req.Status, actor)
	case dto.TransitionEntityPayment:
		return s.TransitionPayment(ctx, req.ID, req.Status, actor)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown entity %q", req.Entity))
	}
}

// TransitionRepair sets the status of a repair ticket.
func (s *StatusTransitionService) TransitionRepair(ctx context.Context, id, status string, actor *models.JWTClaims) (*models.RepairTicket, error) {
	next := models.RepairStatus(strings.TrimSpace(status))
	if err := s.precheck(actor, next.IsValid(), "repair", status, models.RepairStatuses); err != nil {
		return nil, err
	}

	current, err := s.repairs.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "repair ticket")
	}
	if err := s.repairs.UpdateStatus(ctx, id, next, s.now().UTC()); err != nil {
		return nil, writeError(err, "repair ticket", "failed to update repair status")
	}

	updated, err := s.repairs.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("failed to reload repair after transition", zap.String("repair_id", id), zap.Error(err))
		clone := *current
		clone.Status = next
		updated = &clone
	}

	s.notify(ctx, models.NotificationRequest{
		Kind:          models.NotificationRepairStatus,
		Recipient:     updated.OwnerEmail,
		RecipientName: updated.OwnerName,
		Subject:       "Repair Status Update: " + strings.ToUpper(string(next)),
		Data: map[string]string{
			"message":    repairStatusMessages[next],
			"reference":  models.ShortReference(updated.ID),
			"device":     strings.TrimSpace(updated.Brand + " " + updated.DeviceType),
			"old_status": string(current.Status),
			"new_status": string(next),
			"notes":      updated.TechnicianNotes,
		},
	})
	s.finish(ctx, actor, "repair", id, string(current.Status), string(next))
	return updated, nil
}

// TransitionEnrollment sets the admission status of an enrollment.
func (s *StatusTransitionService) TransitionEnrollment(ctx context.Context, id, status string, actor *models.JWTClaims) (*models.Enrollment, error) {
	next := models.EnrollmentStatus(strings.TrimSpace(status))
	if err := s.precheck(actor, next.IsValid(), "enrollment", status, models.EnrollmentStatuses); err != nil {
		return nil, err
	}

	current, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "enrollment")
	}
	if err := s.enrollments.UpdateStatus(ctx, id, next, s.now().UTC()); err != nil {
		return nil, writeError(err, "enrollment", "failed to update enrollment status")
	}

	updated := s.reloadEnrollment(ctx, current, func(e *models.Enrollment) { e.Status = next })

	s.notify(ctx, models.NotificationRequest{
		Kind:          models.NotificationEnrollmentStatus,
		Recipient:     updated.Email,
		RecipientName: updated.FullName,
		Subject:       "Enrollment Status Update: " + strings.ToUpper(string(next)),
		Data: map[string]string{
			"message":    enrollmentStatusMessages[next],
			"reference":  updated.Reference(),
			"course":     updated.CourseName,
			"field":      "enrollment status",
			"old_status": string(current.Status),
			"new_status": string(next),
		},
	})
	s.finish(ctx, actor, "enrollment", id, string(current.Status), string(next))
	return updated, nil
}

// TransitionEnrollmentPayment sets the payment status of an enrollment.
func (s *StatusTransitionService) TransitionEnrollmentPayment(ctx context.Context, id, status string, actor *models.JWTClaims) (*models.Enrollment, error) {
	next := models.EnrollmentPaymentStatus(strings.TrimSpace(status))
	if err := s.precheck(actor, next.IsValid(), "enrollment payment", status, models.EnrollmentPaymentStatuses); err != nil {
		return nil, err
	}

	current, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "enrollment")
	}
	if err := s.enrollments.UpdatePaymentStatus(ctx, id, next, s.now().UTC()); err != nil {
		return nil, writeError(err, "enrollment", "failed to update enrollment payment status")
	}

	updated := s.reloadEnrollment(ctx, current, func(e *models.Enrollment) { e.PaymentStatus = next })

	s.notify(ctx, models.NotificationRequest{
		Kind:          models.NotificationEnrollmentStatus,
		Recipient:     updated.Email,
		RecipientName: updated.FullName,
		Subject:       "Enrollment Payment Update: " + strings.ToUpper(string(next)),
		Data: map[string]string{
			"message":    enrollmentPaymentMessages[next],
			"reference":  updated.Reference(),
			"course":     updated.CourseName,
			"field":      "payment status",
			"old_status": string(current.PaymentStatus),
			"new_status": string(next),
		},
	})
	s.finish(ctx, actor, "enrollment_payment", id, string(current.PaymentStatus), string(next))
	return updated, nil
}

// TransitionPayment sets the status of a payment. The first confirmation
// stamps paid_at; later transitions keep it.
func (s *StatusTransitionService) TransitionPayment(ctx context.Context, id, status string, actor *models.JWTClaims) (*models.Payment, error) {
	next := models.PaymentStatus(strings.TrimSpace(status))
	if err := s.precheck(actor, next.IsValid(), "payment", status, models.PaymentStatuses); err != nil {
		return nil, err
	}

	current, err := s.payments.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "payment")
	}
	now := s.now().UTC()
	if err := s.payments.UpdateStatus(ctx, id, next, now); err != nil {
		return nil, writeError(err, "payment", "failed to update payment status")
	}

	updated, err := s.payments.FindByID(ctx, id)
	if err != nil {
		s.logger.Warn("failed to reload payment after transition", zap.String("payment_id", id), zap.Error(err))
		clone := *current
		clone.Status = next
		if next == models.PaymentStatusConfirmed && clone.PaidAt == nil {
			clone.PaidAt = &now
		}
		updated = &clone
	}

	s.notify(ctx, models.NotificationRequest{
		Kind:          models.NotificationPaymentStatus,
		Recipient:     updated.OwnerEmail,
		RecipientName: updated.OwnerName,
		Subject:       "Payment Status Update: " + strings.ToUpper(string(next)),
		Data: map[string]string{
			"message":    paymentStatusMessages[next],
			"currency":   updated.Currency,
			"amount":     strconv.FormatFloat(updated.Amount, 'f', 2, 64),
			"reference":  paymentReference(updated),
			"old_status": string(current.Status),
			"new_status": string(next),
		},
	})
	s.finish(ctx, actor, "payment", id, string(current.Status), string(next))
	return updated, nil
}

// precheck runs the authorization and status-set checks before any read.
func (s *StatusTransitionService) precheck(actor *models.JWTClaims, valid bool, entity, requested string, allowed interface{}) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if !valid {
		return appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid %s status %q, must be one of %v", entity, requested, allowed))
	}
	return nil
}

func (s *StatusTransitionService) reloadEnrollment(ctx context.Context, current *models.Enrollment, apply func(*models.Enrollment)) *models.Enrollment {
	updated, err := s.enrollments.FindByID(ctx, current.ID)
	if err == nil {
		return updated
	}
	s.logger.Warn("failed to reload enrollment after transition", zap.String("enrollment_id", current.ID), zap.Error(err))
	clone := *current
	apply(&clone)
	return &clone
}

func (s *StatusTransitionService) notify(ctx context.Context, req models.NotificationRequest) {
	if s.notifier == nil {
		return
	}
	if req.Recipient == "" {
		s.logger.Warn("status notification skipped: owner has no email", zap.String("kind", string(req.Kind)))
		return
	}
	s.notifier.Notify(ctx, req)
}

func (s *StatusTransitionService) finish(ctx context.Context, actor *models.JWTClaims, entity, id, from, to string) {
	invalidateDashboard(ctx, s.cache, s.logger)
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionStatusChange, entity, id,
		map[string]string{"status": from}, map[string]string{"status": to})
	s.metrics.RecordStatusTransition(entity, to)
	s.logger.Info("status transition",
		zap.String("entity", entity),
		zap.String("id", id),
		zap.String("from", from),
		zap.String("to", to),
		zap.String("actor", actor.UserID),
	)
}

func paymentReference(p *models.Payment) string {
	if p.Reference != "" {
		return p.Reference
	}
	return models.ShortReference(p.ID)
}

func lookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Internal(err, "failed to load "+entity)
}

func writeError(err error, entity, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Persistence(err, message)
}
