package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/model"
)

// Default admin credentials used when seeding creates the administrator.
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "changeme"
)

// defaultRoles maps role names to their permission bits and default flag,
// in creation order.
var defaultRoles = []struct {
	name        string
	permissions model.Permission
	isDefault   bool
}{
	{model.RoleNameUser, model.PermFollow | model.PermComment | model.PermWriteArticles, true},
	{model.RoleNameModerator, model.PermFollow | model.PermComment | model.PermWriteArticles | model.PermModerateComments, false},
	{model.RoleNameAdministrator, model.AdminPermissions, false},
}

// SeedRoles creates or updates the built-in roles. Re-running is safe: an
// existing role keeps its ID and gets its permission bits and default flag
// reset to the built-in values, which also restores the single-default-role
// invariant if it was broken.
func SeedRoles(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	for _, r := range defaultRoles {
		existing, err := queries.GetRoleByName(ctx, r.name)
		switch {
		case err == nil:
			if err := queries.UpdateRole(ctx, existing.ID, r.isDefault, r.permissions); err != nil {
				return fmt.Errorf("updating role %s: %w", r.name, err)
			}
		case errors.Is(err, sql.ErrNoRows):
			if _, err := queries.CreateRole(ctx, r.name, r.isDefault, r.permissions); err != nil {
				return fmt.Errorf("creating role %s: %w", r.name, err)
			}
		default:
			return fmt.Errorf("checking role %s: %w", r.name, err)
		}
	}

	return nil
}

// Seed creates initial data: the built-in roles, an administrator account,
// and self-follow edges for any user missing one.
func Seed(ctx context.Context, db *sql.DB, adminEmail string) error {
	if err := SeedRoles(ctx, db); err != nil {
		return err
	}

	queries := New(db)

	if adminEmail == "" {
		adminEmail = DefaultAdminEmail
	}

	_, err := queries.GetUserByEmail(ctx, adminEmail)
	switch {
	case err == nil:
		slog.Info("admin user already exists, skipping seed")
	case errors.Is(err, sql.ErrNoRows):
		adminRole, err := queries.GetRoleByName(ctx, model.RoleNameAdministrator)
		if err != nil {
			return fmt.Errorf("looking up administrator role: %w", err)
		}

		passwordHash, err := auth.HashPassword(DefaultAdminPassword)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now()
		user, err := queries.CreateUser(ctx, CreateUserParams{
			Email:        adminEmail,
			Username:     DefaultAdminUsername,
			PasswordHash: passwordHash,
			Confirmed:    true,
			RoleID:       adminRole.ID,
			AvatarHash:   model.EmailHash(adminEmail),
			MemberSince:  now,
			LastSeen:     now,
		})
		if err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}

		slog.Info("created default admin user",
			"id", user.ID,
			"email", user.Email,
			"password", DefaultAdminPassword,
		)
	default:
		return fmt.Errorf("checking for admin user: %w", err)
	}

	if err := EnsureSelfFollows(ctx, db); err != nil {
		return err
	}

	return nil
}

// EnsureSelfFollows creates a self-follow edge for every user lacking one.
// Idempotent; intended for data migration and safe to re-run.
func EnsureSelfFollows(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	ids, err := queries.ListUserIDsWithoutSelfFollow(ctx)
	if err != nil {
		return fmt.Errorf("listing users without self-follow: %w", err)
	}

	now := time.Now()
	for _, id := range ids {
		if err := queries.InsertFollow(ctx, id, id, now); err != nil {
			return fmt.Errorf("backfilling self-follow for user %d: %w", id, err)
		}
	}

	if len(ids) > 0 {
		slog.Info("backfilled self-follow edges", "count", len(ids))
	}

	return nil
}
