package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type fakeUserSrv struct {
	filters []models.UserFilter
}

func (f *fakeUserSrv) List(_ context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.filters = append(f.filters, filter)
	return []models.User{{ID: "user-1"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 21}, nil
}

func (f *fakeUserSrv) Get(_ context.Context, id string) (*models.User, error) {
	if id != "user-1" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return &models.User{ID: id}, nil
}

func (f *fakeUserSrv) UpdateRole(_ context.Context, id string, req models.UpdateRoleRequest, actor *models.JWTClaims) (*models.User, error) {
	if id == actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change own role")
	}
	return &models.User{ID: id, Role: req.Role}, nil
}

func (f *fakeUserSrv) Delete(_ context.Context, id string, actor *models.JWTClaims) error {
	if id == actor.UserID {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete own account")
	}
	return nil
}

func newUserRouter(srv *fakeUserSrv, claims *models.JWTClaims) http.Handler {
	h := NewUserHandler(srv)
	r := newTestRouter(claims)
	r.GET("/users", h.List)
	r.GET("/users/:id", h.Get)
	r.PATCH("/users/:id/role", h.UpdateRole)
	r.DELETE("/users/:id", h.Delete)
	return r
}

func TestUserHandlerListBindsQuery(t *testing.T) {
	srv := &fakeUserSrv{}
	r := newUserRouter(srv, adminUser())

	rec := perform(r, http.MethodGet, "/users?role=admin&active=true&search=phiri&page=2&page_size=10&sort_by=name", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, srv.filters, 1)
	filter := srv.filters[0]
	require.NotNil(t, filter.Role)
	assert.Equal(t, models.RoleAdmin, *filter.Role)
	require.NotNil(t, filter.Active)
	assert.True(t, *filter.Active)
	assert.Equal(t, "phiri", filter.Search)
	assert.Equal(t, 2, filter.Page)
	assert.Equal(t, "name", filter.SortBy)

	var env struct {
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 21, env.Pagination.TotalCount)
}

func TestUserHandlerListRejectsBadFilter(t *testing.T) {
	srv := &fakeUserSrv{}
	r := newUserRouter(srv, adminUser())

	for _, target := range []string{"/users?role=owner", "/users?page=-1", "/users?active=maybe"} {
		rec := perform(r, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, rec).Error.Code, target)
	}
	assert.Empty(t, srv.filters)
}

func TestUserHandlerSelfProtection(t *testing.T) {
	r := newUserRouter(&fakeUserSrv{}, adminUser())

	rec := perform(r, http.MethodPatch, "/users/admin-1/role", map[string]string{"role": "user"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = perform(r, http.MethodDelete, "/users/admin-1", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = perform(r, http.MethodDelete, "/users/user-1", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = perform(r, http.MethodGet, "/users/ghost", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = perform(newUserRouter(&fakeUserSrv{}, nil), http.MethodDelete, "/users/user-1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
