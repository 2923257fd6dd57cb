package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type fakeAuthSrv struct {
	signup       models.SignupRequest
	forgotCalled bool
}

func (f *fakeAuthSrv) Signup(_ context.Context, req models.SignupRequest) (*models.LoginResponse, error) {
	if req.Email == "taken@example.com" {
		return nil, appErrors.ErrDuplicateEmail
	}
	f.signup = req
	return &models.LoginResponse{AccessToken: "a", RefreshToken: "r"}, nil
}

func (f *fakeAuthSrv) Login(context.Context, models.LoginRequest) (*models.LoginResponse, error) {
	return nil, appErrors.ErrInvalidCredentials
}

func (f *fakeAuthSrv) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return nil, nil
}

func (f *fakeAuthSrv) Logout(context.Context, string, string, models.LoginRequest) error { return nil }

func (f *fakeAuthSrv) ChangePassword(context.Context, string, models.ChangePasswordRequest) error {
	return nil
}

func (f *fakeAuthSrv) Profile(_ context.Context, userID string) (*models.User, error) {
	return &models.User{ID: userID}, nil
}

func (f *fakeAuthSrv) UpdateProfile(context.Context, string, models.UpdateProfileRequest) (*models.User, error) {
	return nil, nil
}

func (f *fakeAuthSrv) ForgotPassword(context.Context, models.ForgotPasswordRequest) error {
	f.forgotCalled = true
	return nil
}

func (f *fakeAuthSrv) ResetPassword(context.Context, models.ResetPasswordRequest) error { return nil }

func TestAuthHandlerSignup(t *testing.T) {
	srv := &fakeAuthSrv{}
	r := newTestRouter(nil)
	h := NewAuthHandler(srv)
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/login", h.Login)

	rec := perform(r, http.MethodPost, "/auth/signup", map[string]string{"name": "Thoko", "email": "t@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "t@example.com", srv.signup.Email)

	rec = perform(r, http.MethodPost, "/auth/signup", map[string]string{"name": "Thoko", "email": "taken@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_EMAIL", decodeEnvelope(t, rec).Error.Code)

	rec = perform(r, http.MethodPost, "/auth/login", map[string]string{"email": "t@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerForgotPasswordAlwaysAccepted(t *testing.T) {
	srv := &fakeAuthSrv{}
	r := newTestRouter(nil)
	r.POST("/auth/forgot-password", NewAuthHandler(srv).ForgotPassword)

	rec := perform(r, http.MethodPost, "/auth/forgot-password", map[string]string{"email": "ghost@example.com"})
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, srv.forgotCalled)
}

func TestAuthHandlerProfileRequiresClaims(t *testing.T) {
	h := NewAuthHandler(&fakeAuthSrv{})

	r := newTestRouter(nil)
	r.GET("/auth/profile", h.Profile)
	assert.Equal(t, http.StatusUnauthorized, perform(r, http.MethodGet, "/auth/profile", nil).Code)

	r = newTestRouter(customer())
	r.GET("/auth/me", h.Me)
	rec := perform(r, http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"id":"user-1"`)
}
