package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

func (m *memoryEnrollmentStore) Create(ctx context.Context, e *models.Enrollment) error {
	clone := *e
	m.enrollments[e.ID] = &clone
	return nil
}

func (m *memoryEnrollmentStore) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.Enrollment, error) {
	out := []models.Enrollment{}
	for _, e := range m.enrollments {
		if filter.OwnerID != "" && e.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		out = append(out, *e)
	}
	return out, nil
}

func (m *memoryEnrollmentStore) Delete(ctx context.Context, id string) error {
	if _, ok := m.enrollments[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.enrollments, id)
	return nil
}

type memoryCourseStore struct {
	courses map[string]*models.Course
}

func (m *memoryCourseStore) FindByID(ctx context.Context, id string) (*models.Course, error) {
	c, ok := m.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (m *memoryCourseStore) FindActiveByName(ctx context.Context, name string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.IsActive && strings.EqualFold(c.Name, name) {
			clone := *c
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

type stubAdmins struct {
	admins []models.User
	err    error
}

func (s stubAdmins) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.admins, s.err
}

func newEnrollmentFixture(admins adminDirectory) (*EnrollmentService, *memoryEnrollmentStore, *recordingNotifier) {
	store := &memoryEnrollmentStore{enrollments: map[string]*models.Enrollment{}}
	courses := &memoryCourseStore{courses: map[string]*models.Course{
		"c-solar":   {ID: "c-solar", Name: "Solar Installation", IsActive: true},
		"c-retired": {ID: "c-retired", Name: "Radio Repair", IsActive: false},
	}}
	notify := &recordingNotifier{}
	svc := NewEnrollmentService(EnrollmentServiceParams{
		Repo:     store,
		Courses:  courses,
		Admins:   admins,
		Notifier: notify,
	})
	return svc, store, notify
}

func validEnrollmentRequest() models.CreateEnrollmentRequest {
	return models.CreateEnrollmentRequest{FullName: "Tiyamike Banda", Email: "Tiya@Example.com", Phone: "+265888"}
}

func TestEnrollmentServiceCreateByNameNotifiesStudentAndAdmins(t *testing.T) {
	admins := stubAdmins{admins: []models.User{
		{ID: "a1", Email: "a1@shop.mw", Name: "Admin One", Role: models.RoleAdmin},
		{ID: "a2", Email: "a2@shop.mw", Name: "Admin Two", Role: models.RoleAdmin},
	}}
	svc, store, notify := newEnrollmentFixture(admins)

	req := validEnrollmentRequest()
	req.CourseName = "solar installation"
	enrollment, err := svc.Create(context.Background(), req, userClaims("u-1"))
	require.NoError(t, err)
	assert.Equal(t, "c-solar", enrollment.CourseID)
	assert.Equal(t, "Solar Installation", enrollment.CourseName)
	assert.Equal(t, models.EducationSecondary, enrollment.EducationLevel)
	assert.Equal(t, models.EnrollmentStatusPending, enrollment.Status)
	assert.Equal(t, models.EnrollmentPaymentUnpaid, enrollment.PaymentStatus)
	assert.Equal(t, "tiya@example.com", enrollment.Email)
	assert.Contains(t, store.enrollments, enrollment.ID)

	sent := notify.sent()
	require.Len(t, sent, 3)
	assert.Equal(t, models.NotificationEnrollmentSubmitted, sent[0].Kind)
	assert.Equal(t, "tiya@example.com", sent[0].Recipient)
	assert.Equal(t, enrollment.Reference(), sent[0].Data["reference"])
	assert.Len(t, enrollment.Reference(), 6)
	recipients := []string{sent[1].Recipient, sent[2].Recipient}
	assert.ElementsMatch(t, []string{"a1@shop.mw", "a2@shop.mw"}, recipients)
	assert.Equal(t, models.NotificationEnrollmentAdminAlert, sent[1].Kind)
}

func TestEnrollmentServiceCreateCourseRules(t *testing.T) {
	svc, store, notify := newEnrollmentFixture(stubAdmins{err: errors.New("db down")})

	req := validEnrollmentRequest()
	req.CourseID = "c-retired"
	_, err := svc.Create(context.Background(), req, userClaims("u-1"))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req.CourseID = "missing"
	_, err = svc.Create(context.Background(), req, userClaims("u-1"))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	req.CourseID = ""
	_, err = svc.Create(context.Background(), req, userClaims("u-1"))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.enrollments)

	req.CourseID = "c-solar"
	_, err = svc.Create(context.Background(), req, userClaims("u-1"))
	require.NoError(t, err)
	assert.Len(t, notify.sent(), 1)
}

func TestEnrollmentServiceReadRules(t *testing.T) {
	svc, store, _ := newEnrollmentFixture(nil)
	store.enrollments["e-1"] = &models.Enrollment{ID: "e-1", OwnerID: "u-1", Status: models.EnrollmentStatusApproved}
	store.enrollments["e-2"] = &models.Enrollment{ID: "e-2", OwnerID: "u-2", Status: models.EnrollmentStatusPending}

	_, err := svc.Get(context.Background(), "e-1", userClaims("u-2"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	mine, err := svc.ListMine(context.Background(), userClaims("u-2"))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "e-2", mine[0].ID)

	approved, err := svc.ListAll(context.Background(), "approved", adminClaims("admin-1"))
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, "e-1", approved[0].ID)

	require.NoError(t, svc.Delete(context.Background(), "e-1", adminClaims("admin-1")))
	err = svc.Delete(context.Background(), "e-1", adminClaims("admin-1"))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	err = svc.Delete(context.Background(), "e-2", userClaims("u-2"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
