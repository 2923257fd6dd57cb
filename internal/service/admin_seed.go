package service

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/siliya-electrical-api/internal/models"
	appErrors "github.com/noah-isme/siliya-electrical-api/pkg/errors"
)

type adminSeedRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// AdminSeed carries the credentials of the bootstrap admin.
type AdminSeed struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// SeedAdmin creates the admin account or promotes and reactivates an existing
// account with the same email, resetting its password. It reports whether a
// new row was inserted.
func SeedAdmin(ctx context.Context, repo adminSeedRepository, seed AdminSeed) (bool, error) {
	email := strings.ToLower(strings.TrimSpace(seed.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return false, appErrors.Clone(appErrors.ErrValidation, "ADMIN_EMAIL must be a valid email address")
	}
	if len(seed.Password) < 6 {
		return false, appErrors.Clone(appErrors.ErrValidation, "ADMIN_PASSWORD must be at least 6 characters")
	}
	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = "Admin"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, appErrors.Internal(err, "failed to hash password")
	}

	existing, err := repo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		existing.Name = name
		if seed.Phone != "" {
			existing.Phone = seed.Phone
		}
		existing.Role = models.RoleAdmin
		existing.Active = true
		existing.PasswordHash = string(hash)
		if err := repo.Update(ctx, existing); err != nil {
			return false, appErrors.Persistence(err, "failed to update admin")
		}
		return false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, appErrors.Persistence(err, "failed to look up admin")
	}

	admin := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        seed.Phone,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := repo.Create(ctx, admin); err != nil {
		return false, appErrors.Persistence(err, "failed to create admin")
	}
	return true, nil
}
