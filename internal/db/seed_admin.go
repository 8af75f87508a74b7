package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/geocoder89/storefront/internal/config"
	"github.com/geocoder89/storefront/internal/domain/user"
	"github.com/geocoder89/storefront/internal/security"
)

// AdminSeedStore is the slice of the credential store the seeder needs.
type AdminSeedStore interface {
	GetByUsernameOrEmail(ctx context.Context, identifier string) (user.User, error)
	Create(ctx context.Context, username, email, passwordHash, role string) (user.User, error)
}

// EnsureAdminUser creates the configured admin account once. It is a no-op
// when no admin credentials are configured or the account already exists.
// A name or email already held by a non-admin account is logged, not fixed.
func EnsureAdminUser(ctx context.Context, users AdminSeedStore, cfg config.Config, log *slog.Logger) (created bool, err error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" || cfg.AdminUsername == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// check if the user exists

	existing, err := users.GetByUsernameOrEmail(ctx, cfg.AdminUsername)

	if err == nil {
		if existing.Role != user.RoleAdmin {
			log.Warn("admin seed skipped: username belongs to a non-admin account",
				"username", cfg.AdminUsername, "role", existing.Role)
		}
		return false, nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return false, err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return false, err
	}

	_, err = users.Create(ctx, cfg.AdminUsername, cfg.AdminEmail, hash, user.RoleAdmin)

	if errors.Is(err, user.ErrAlreadyExists) {
		log.Warn("admin seed skipped: email already registered to another account",
			"username", cfg.AdminUsername, "email", cfg.AdminEmail)
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
