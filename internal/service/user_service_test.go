package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type mockUserRepo struct {
	users     map[string]*models.User
	listUsers []models.User
	listCount int
	listErr   error
	deleteErr error
	auditLogs []*models.AuditLog
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listUsers, m.listCount, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id string, role models.UserRole, updatedAt time.Time) error {
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Role = role
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	user, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Active = false
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func seededUserRepo() *mockUserRepo {
	return &mockUserRepo{users: map[string]*models.User{
		"admin-1": {ID: "admin-1", Name: "Admin One", Email: "a1@example.com", Role: models.RoleAdmin, Active: true},
		"admin-2": {ID: "admin-2", Name: "Admin Two", Email: "a2@example.com", Role: models.RoleAdmin, Active: true},
		"user-1":  {ID: "user-1", Name: "Kondwani", Email: "k@example.com", Role: models.RoleUser, Active: true},
	}}
}

func adminClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleAdmin, Email: id + "@example.com", Name: "Admin"}
}

func userClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleUser, Email: id + "@example.com", Name: "Customer"}
}

func TestUserServiceList(t *testing.T) {
	repo := &mockUserRepo{listUsers: []models.User{{ID: "1", Email: "a@example.com"}}, listCount: 1}
	svc := NewUserService(repo, nil, validator.New(), zap.NewNop())
	users, pagination, err := svc.List(context.Background(), models.UserFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 10, pagination.PageSize)

	repo.listErr = errors.New("boom")
	_, _, err = svc.List(context.Background(), models.UserFilter{})
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestUserServiceDeleteRules(t *testing.T) {
	cases := []struct {
		name     string
		actor    *models.JWTClaims
		target   string
		wantCode string
	}{
		{name: "self", actor: adminClaims("admin-1"), target: "admin-1", wantCode: appErrors.ErrForbidden.Code},
		{name: "other admin", actor: adminClaims("admin-1"), target: "admin-2", wantCode: appErrors.ErrForbidden.Code},
		{name: "non admin actor", actor: userClaims("user-1"), target: "admin-2", wantCode: appErrors.ErrForbidden.Code},
		{name: "anonymous", actor: nil, target: "user-1", wantCode: appErrors.ErrUnauthorized.Code},
		{name: "missing", actor: adminClaims("admin-1"), target: "ghost", wantCode: appErrors.ErrNotFound.Code},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := seededUserRepo()
			cache := &recordingInvalidator{}
			svc := NewUserService(repo, cache, nil, nil)

			err := svc.Delete(context.Background(), tc.target, tc.actor)
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, appErrors.FromError(err).Code)
			for _, u := range repo.users {
				assert.True(t, u.Active, "user %s must stay active", u.ID)
			}
			assert.Empty(t, repo.auditLogs)
			assert.Empty(t, cache.patterns)
		})
	}
}

func TestUserServiceDeleteDeactivatesCustomer(t *testing.T) {
	repo := seededUserRepo()
	cache := &recordingInvalidator{}
	svc := NewUserService(repo, cache, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "user-1", adminClaims("admin-1")))
	assert.False(t, repo.users["user-1"].Active)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionUserDelete, repo.auditLogs[0].Action)
	assert.Equal(t, []string{DashboardCachePattern}, cache.patterns)
}

func TestUserServiceDeletePersistenceFailure(t *testing.T) {
	repo := seededUserRepo()
	repo.deleteErr = errors.New("db down")
	svc := NewUserService(repo, nil, nil, nil)

	err := svc.Delete(context.Background(), "user-1", adminClaims("admin-1"))
	assert.Equal(t, appErrors.ErrPersistence.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateRole(t *testing.T) {
	repo := seededUserRepo()
	svc := NewUserService(repo, nil, nil, nil)

	user, err := svc.UpdateRole(context.Background(), "user-1", models.UpdateRoleRequest{Role: models.RoleAdmin}, adminClaims("admin-1"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, models.RoleAdmin, repo.users["user-1"].Role)

	_, err = svc.UpdateRole(context.Background(), "admin-1", models.UpdateRoleRequest{Role: models.RoleUser}, adminClaims("admin-1"))
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.RoleAdmin, repo.users["admin-1"].Role)

	_, err = svc.UpdateRole(context.Background(), "user-1", models.UpdateRoleRequest{Role: "superuser"}, adminClaims("admin-1"))
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
