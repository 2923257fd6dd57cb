package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	"github.com/noah-isme/siliya-electrical-api/internal/repository"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type courseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context, activeOnly bool) ([]models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Deactivate(ctx context.Context, id string, at time.Time) error
}

// CourseService manages the training catalogue.
type CourseService struct {
	repo      courseRepository
	cache     cacheInvalidator
	audit     auditRecorder
	markdown  goldmark.Markdown
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, cache cacheInvalidator, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{
		repo:      repo,
		cache:     cache,
		audit:     audit,
		markdown:  goldmark.New(goldmark.WithRendererOptions(goldmarkHTML.WithHardWraps())),
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// ListActive returns the public catalogue, newest first.
func (s *CourseService) ListActive(ctx context.Context) ([]models.Course, error) {
	return s.list(ctx, true)
}

// ListAll returns every course including deactivated ones. Admin only.
func (s *CourseService) ListAll(ctx context.Context, actor *models.JWTClaims) ([]models.Course, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.list(ctx, false)
}

// Get returns a course. Deactivated courses are visible to admins only.
func (s *CourseService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "course")
	}
	if !course.IsActive && !actor.IsAdmin() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	s.render(course)
	return course, nil
}

// Create adds a course to the catalogue. Admin only.
func (s *CourseService) Create(ctx context.Context, req models.CreateCourseRequest, actor *models.JWTClaims) (*models.Course, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}

	level := req.Level
	if level == "" {
		level = models.CourseLevelBeginner
	}
	course := &models.Course{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Duration:    strings.TrimSpace(req.Duration),
		Price:       req.Price,
		Image:       strings.TrimSpace(req.Image),
		Syllabus:    req.Syllabus,
		Level:       level,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a course with this name already exists")
		}
		return nil, appErrors.Persistence(err, "failed to create course")
	}

	invalidateDashboard(ctx, s.cache, s.logger)
	s.render(course)
	return course, nil
}

// Update patches a course. Admin only.
func (s *CourseService) Update(ctx context.Context, id string, req models.UpdateCourseRequest, actor *models.JWTClaims) (*models.Course, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid course payload")
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "course")
	}
	before := *course

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "course name cannot be empty")
		}
		course.Name = name
	}
	if req.Description != nil {
		course.Description = strings.TrimSpace(*req.Description)
	}
	if req.Duration != nil {
		course.Duration = strings.TrimSpace(*req.Duration)
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.Image != nil {
		course.Image = strings.TrimSpace(*req.Image)
	}
	if req.Syllabus != nil {
		course.Syllabus = *req.Syllabus
	}
	if req.Level != nil {
		course.Level = *req.Level
	}
	if req.IsActive != nil {
		course.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, course); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a course with this name already exists")
		}
		return nil, writeError(err, "course", "failed to update course")
	}

	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRecordUpdate, "course", id,
		map[string]interface{}{"name": before.Name, "price": before.Price, "is_active": before.IsActive},
		map[string]interface{}{"name": course.Name, "price": course.Price, "is_active": course.IsActive})
	invalidateDashboard(ctx, s.cache, s.logger)
	s.render(course)
	return course, nil
}

// Delete deactivates a course so existing enrollments keep a valid reference. Admin only.
func (s *CourseService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id, s.now().UTC()); err != nil {
		return writeError(err, "course", "failed to delete course")
	}
	recordAudit(ctx, s.audit, s.logger, actor, models.AuditActionRecordDelete, "course", id,
		map[string]bool{"is_active": true}, map[string]bool{"is_active": false})
	invalidateDashboard(ctx, s.cache, s.logger)
	return nil
}

func (s *CourseService) list(ctx context.Context, activeOnly bool) ([]models.Course, error) {
	courses, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list courses")
	}
	for i := range courses {
		s.render(&courses[i])
	}
	return courses, nil
}

// render converts the markdown syllabus into SyllabusHTML.
func (s *CourseService) render(course *models.Course) {
	if strings.TrimSpace(course.Syllabus) == "" {
		return
	}
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(course.Syllabus), &buf); err != nil {
		s.logger.Warn("failed to render course syllabus", zap.String("course_id", course.ID), zap.Error(err))
		return
	}
	course.SyllabusHTML = buf.String()
}
