package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

func TestSeedAdminCreatesThenPromotes(t *testing.T) {
	repo := newMockAuthRepo()
	ctx := context.Background()

	created, err := SeedAdmin(ctx, repo, AdminSeed{Name: "Owner", Email: " Owner@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.True(t, created)

	user, err := repo.FindByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.Active)

	user.Role = models.RoleUser
	user.Active = false
	require.NoError(t, repo.Update(ctx, user))

	created, err = SeedAdmin(ctx, repo, AdminSeed{Email: "owner@example.com", Password: "another1"})
	require.NoError(t, err)
	assert.False(t, created)

	user, err = repo.FindByEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.True(t, user.Active)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("another1")))
}

func TestSeedAdminValidates(t *testing.T) {
	_, err := SeedAdmin(context.Background(), newMockAuthRepo(), AdminSeed{Email: "nope", Password: "secret1"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = SeedAdmin(context.Background(), newMockAuthRepo(), AdminSeed{Email: "a@example.com", Password: "123"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
