package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type enrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error)
	Delete(ctx context.Context, id string) error
}

type courseLookup interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindActiveByName(ctx context.Context, name string) (*models.Course, error)
}

type adminDirectory interface {
	ListAdmins(ctx context.Context) ([]models.User, error)
}

// EnrollmentServiceParams groups the collaborators of EnrollmentService.
type EnrollmentServiceParams struct {
	Repo      enrollmentRepository
	Courses   courseLookup
	Admins    adminDirectory
	Notifier  notifier
	Cache     cacheInvalidator
	Audit     auditRecorder
	Validator *validator.Validate
	Logger    *zap.Logger
}

// EnrollmentService handles course applications.
type EnrollmentService struct {
	repo      enrollmentRepository
	courses   courseLookup
	admins    adminDirectory
	notifier  notifier
	cache     cacheInvalidator
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(params EnrollmentServiceParams) *EnrollmentService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = validator.New()
	}
	return &EnrollmentService{
		repo:      params.Repo,
		courses:   params.Courses,
		admins:    params.Admins,
		notifier:  params.Notifier,
		cache:     params.Cache,
		audit:     params.Audit,
		validator: validate,
		logger:    logger,
	}
}

// Create applies the caller to an active course given by id or name. The
// student gets a confirmation and every admin gets an alert.
func (s *EnrollmentService) Create(ctx context.Context, req models.CreateEnrollmentRequest, actor *models.JWTClaims) (*models.Enrollment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.CourseName = strings.TrimSpace(req.CourseName)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid enrollment payload")
	}

	course, err := s.resolveCourse(ctx, req)
	if err != nil {
		return nil, err
	}

	level := req.EducationLevel
	if level == "" {
		level = models.EducationSecondary
	}
	enrollment := &models.Enrollment{
		ID:             uuid.NewString(),
		OwnerID:        actor.UserID,
		CourseID:       course.ID,
		CourseName:     course.Name,
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          strings.TrimSpace(req.Phone),
		EducationLevel: level,
		Status:         models.EnrollmentStatusPending,
		PaymentStatus:  models.EnrollmentPaymentUnpaid,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Persistence(err, "failed to create enrollment")
	}

	s.announce(ctx, enrollment)
	invalidateDashboard(ctx, s.cache, s.logger)
	return enrollment, nil
}

// ListMine returns the caller's enrollments newest first.
func (s *EnrollmentService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.Enrollment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, models.EnrollmentFilter{OwnerID: actor.UserID})
}

// ListAll returns every enrollment, optionally filtered by status. Admin only.
func (s *EnrollmentService) ListAll(ctx context.Context, status string, actor *models.JWTClaims) ([]models.Enrollment, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	filter := models.EnrollmentFilter{}
	if status != "" {
		st := models.EnrollmentStatus(status)
		if !st.IsValid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidStatus, fmt.Sprintf("invalid enrollment status %q", status))
		}
		filter.Status = &st
	}
	return s.list(ctx, filter)
}

// Get returns an enrollment to its owner or an admin.
func (s *EnrollmentService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Enrollment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "enrollment")
	}
	if err := requireOwnerOrAdmin(actor, enrollment.OwnerID); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// Delete removes an enrollment. Admin only.
func (s *EnrollmentService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return writeError(err, "enrollment", "failed to delete enrollment")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRecordDelete, "enrollment", id, nil, nil)
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

func (s *EnrollmentService) resolveCourse(ctx context.Context, req models.CreateEnrollmentRequest) (*models.Course, error) {
	var (
		course *models.Course
		err    error
	)
	if req.CourseID != "" {
		course, err = s.courses.FindByID(ctx, req.CourseID)
	} else {
		course, err = s.courses.FindActiveByName(ctx, req.CourseName)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Internal(err, "failed to load course")
	}
	if !course.IsActive {
		return nil, appErrors.Clone(appErrors.ErrValidation, "course is no longer available")
	}
	return course, nil
}

func (s *EnrollmentService) announce(ctx context.Context, e *models.Enrollment) {
	if s.notifier == nil {
		return
	}
	reqs := []models.NotificationRequest{{
		Kind:          models.NotificationEnrollmentSubmitted,
		Recipient:     e.Email,
		RecipientName: e.FullName,
		Subject:       "Enrollment Received - " + e.CourseName,
		Data: map[string]string{
			"course":    e.CourseName,
			"reference": e.Reference(),
		},
	}}

	if s.admins != nil {
		admins, err := s.admins.ListAdmins(ctx)
		if err != nil {
			s.logger.Warn("failed to load admins for enrollment alert", zap.String("enrollment_id", e.ID), zap.Error(err))
		}
		for _, admin := range admins {
			reqs = append(reqs, models.NotificationRequest{
				Kind:          models.NotificationEnrollmentAdminAlert,
				Recipient:     admin.Email,
				RecipientName: admin.Name,
				Subject:       "New Course Enrollment: " + e.CourseName,
				Data: map[string]string{
					"reference":       e.Reference(),
					"course":          e.CourseName,
					"student":         e.FullName,
					"student_email":   e.Email,
					"student_phone":   e.Phone,
					"education_level": string(e.EducationLevel),
				},
			})
		}
	}
	s.notifier.NotifyMany(ctx, reqs)
}

func (s *EnrollmentService) list(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list enrollments")
	}
	return items, nil
}
