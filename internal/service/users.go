// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/notify"
	"github.com/olegiv/oblog-go/internal/store"
)

// ErrInvalidCredentials reports a failed email/password authentication.
// Deliberately indistinguishable between unknown email and wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// DirectoryConfig holds the user directory's injected settings. The admin
// address and token lifetimes come from configuration, not ambient globals.
type DirectoryConfig struct {
	AdminEmail      string
	ConfirmTokenTTL time.Duration
	AuthTokenTTL    time.Duration
}

// Directory implements the user identity lifecycle: registration,
// confirmation, password reset, email change, and authentication.
type Directory struct {
	db       *sql.DB
	queries  *store.Queries
	codec    *auth.Codec
	notifier *notify.Dispatcher
	logger   *slog.Logger
	cfg      DirectoryConfig
}

// NewDirectory creates a Directory.
func NewDirectory(db *sql.DB, codec *auth.Codec, notifier *notify.Dispatcher, logger *slog.Logger, cfg DirectoryConfig) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ConfirmTokenTTL <= 0 {
		cfg.ConfirmTokenTTL = time.Hour
	}
	if cfg.AuthTokenTTL <= 0 {
		cfg.AuthTokenTTL = time.Hour
	}
	return &Directory{
		db:       db,
		queries:  store.New(db),
		codec:    codec,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
	}
}

// Register creates an unconfirmed user with its mandatory self-follow edge
// and sends a confirmation notification. The configured admin address gets
// the administrator role; everyone else gets the default role.
//
// The pre-insert uniqueness lookups give friendly field-level errors; the
// database unique indexes are the actual guard, and a constraint failure on
// insert maps to the same errors.
func (d *Directory) Register(ctx context.Context, email, username, password string) (model.User, error) {
	if !model.UsernamePattern.MatchString(username) {
		return model.User{}, ErrInvalidUsername
	}

	if _, err := d.queries.GetUserByEmail(ctx, email); err == nil {
		return model.User{}, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, storeErr("checking email", err)
	}
	if _, err := d.queries.GetUserByUsername(ctx, username); err == nil {
		return model.User{}, ErrUsernameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, storeErr("checking username", err)
	}

	role, err := d.roleForEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, storeErr("begin registration", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now()
	qtx := d.queries.WithTx(tx)
	user, err := qtx.CreateUser(ctx, store.CreateUserParams{
		Email:        email,
		Username:     username,
		PasswordHash: passwordHash,
		Confirmed:    false,
		RoleID:       role.ID,
		AvatarHash:   model.EmailHash(email),
		MemberSince:  now,
		LastSeen:     now,
	})
	if err != nil {
		switch {
		case store.IsUniqueViolation(err, "users.email"):
			return model.User{}, ErrEmailTaken
		case store.IsUniqueViolation(err, "users.username"):
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, storeErr("creating user", err)
	}

	if err := qtx.InsertFollow(ctx, user.ID, user.ID, now); err != nil {
		return model.User{}, storeErr("creating self-follow", err)
	}

	if err := tx.Commit(); err != nil {
		return model.User{}, storeErr("committing registration", err)
	}

	d.logger.Info("user registered", "id", user.ID, "username", user.Username)
	d.sendConfirmation(user)

	return user, nil
}

// roleForEmail picks the role a new registration gets.
func (d *Directory) roleForEmail(ctx context.Context, email string) (model.Role, error) {
	if d.cfg.AdminEmail != "" && email == d.cfg.AdminEmail {
		role, err := d.queries.GetRoleByName(ctx, model.RoleNameAdministrator)
		if err == nil {
			return role, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return model.Role{}, storeErr("looking up administrator role", err)
		}
	}
	role, err := d.queries.GetDefaultRole(ctx)
	if err != nil {
		return model.Role{}, storeErr("looking up default role", err)
	}
	return role, nil
}

// sendConfirmation issues a confirmation token and hands it to the
// notification sink. Fire-and-forget: any failure here is logged and the
// registration stays successful.
func (d *Directory) sendConfirmation(user model.User) {
	token, err := d.codec.ConfirmationToken(user.ID, d.cfg.ConfirmTokenTTL)
	if err != nil {
		d.logger.Error("issuing confirmation token", "user_id", user.ID, "error", err)
		return
	}
	d.notifier.Notify(user.Email, "Confirm Your Account", notify.TemplateConfirm, map[string]any{
		"username": user.Username,
		"token":    token,
	})
}

// ResendConfirmation sends a fresh confirmation notification for an
// unconfirmed user.
func (d *Directory) ResendConfirmation(user model.User) {
	d.sendConfirmation(user)
}

// Confirm flips the user to confirmed when the token was issued for exactly
// this user and is unexpired. Any token problem returns false; confirmed
// state is only ever changed on success. Callers should short-circuit for
// users that are already confirmed.
func (d *Directory) Confirm(ctx context.Context, user *model.User, token string) (bool, error) {
	id, err := d.codec.VerifyConfirmation(token)
	if err != nil || id != user.ID {
		return false, nil
	}

	if err := d.queries.SetUserConfirmed(ctx, user.ID); err != nil {
		return false, storeErr("confirming user", err)
	}

	user.Confirmed = true
	d.logger.Info("user confirmed", "id", user.ID)
	return true, nil
}

// RequestPasswordReset issues a reset token for the account with the given
// email, if one exists. It reports success either way so the endpoint cannot
// be used to probe which addresses are registered.
func (d *Directory) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := d.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return storeErr("looking up user", err)
	}

	token, err := d.codec.ResetToken(user.ID, d.cfg.ConfirmTokenTTL)
	if err != nil {
		d.logger.Error("issuing reset token", "user_id", user.ID, "error", err)
		return nil
	}

	d.notifier.Notify(user.Email, "Reset Your Password", notify.TemplateResetPwd, map[string]any{
		"username": user.Username,
		"token":    token,
	})
	return nil
}

// ResetPassword replaces the password of the account with the given email
// when the token matches it. Fails closed: unknown email, foreign token, or
// expiry all return false without mutating anything.
func (d *Directory) ResetPassword(ctx context.Context, email, token, newPassword string) (bool, error) {
	user, err := d.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("looking up user", err)
	}

	id, err := d.codec.VerifyReset(token)
	if err != nil || id != user.ID {
		return false, nil
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return false, err
	}
	if err := d.queries.UpdateUserPasswordHash(ctx, user.ID, passwordHash); err != nil {
		return false, storeErr("updating password", err)
	}

	d.logger.Info("password reset", "id", user.ID)
	return true, nil
}

// RequestEmailChange verifies the current password and sends a change token
// to the new address. No state changes until the token comes back through
// ApplyEmailChange.
func (d *Directory) RequestEmailChange(ctx context.Context, user model.User, newEmail, currentPassword string) (bool, error) {
	ok, err := auth.CheckPassword(currentPassword, user.PasswordHash)
	if err != nil || !ok {
		return false, nil
	}

	token, err := d.codec.EmailChangeToken(user.ID, newEmail, d.cfg.ConfirmTokenTTL)
	if err != nil {
		return false, err
	}

	d.notifier.Notify(newEmail, "Confirm Your Email Address", notify.TemplateChangeEmail, map[string]any{
		"username": user.Username,
		"token":    token,
	})
	return true, nil
}

// ApplyEmailChange swaps the user's address to the one embedded in the token
// and recomputes the avatar hash. Uniqueness is re-checked at apply time:
// another account may have claimed the address since the token was issued.
func (d *Directory) ApplyEmailChange(ctx context.Context, user *model.User, token string) (bool, error) {
	id, newEmail, err := d.codec.VerifyEmailChange(token)
	if err != nil || id != user.ID {
		return false, nil
	}

	if _, err := d.queries.GetUserByEmail(ctx, newEmail); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, storeErr("checking email", err)
	}

	avatarHash := model.EmailHash(newEmail)
	if err := d.queries.UpdateUserEmail(ctx, user.ID, newEmail, avatarHash); err != nil {
		if store.IsUniqueViolation(err, "users.email") {
			return false, nil
		}
		return false, storeErr("updating email", err)
	}

	user.Email = newEmail
	user.AvatarHash = avatarHash
	d.logger.Info("email changed", "id", user.ID)
	return true, nil
}

// TouchLastSeen stamps the user's last activity. Called on every
// authenticated request; a single-column update.
func (d *Directory) TouchLastSeen(ctx context.Context, user *model.User) error {
	now := time.Now()
	if err := d.queries.TouchUserLastSeen(ctx, user.ID, now); err != nil {
		return storeErr("touching last seen", err)
	}
	user.LastSeen = now
	return nil
}

// Authenticate resolves an email/password pair to a user.
func (d *Directory) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	user, err := d.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.User{}, storeErr("looking up user", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return model.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// IssueAuthToken mints a bearer token for the user.
func (d *Directory) IssueAuthToken(user model.User) (string, error) {
	return d.codec.AuthToken(user.ID, d.cfg.AuthTokenTTL)
}

// AuthTokenTTL returns the lifetime of issued bearer tokens.
func (d *Directory) AuthTokenTTL() time.Duration {
	return d.cfg.AuthTokenTTL
}

// VerifyAuthToken resolves a bearer token back to its user. Token problems
// and missing users both come back as ErrNotFound-class failures, never a
// panic.
func (d *Directory) VerifyAuthToken(ctx context.Context, token string) (model.User, error) {
	id, err := d.codec.VerifyAuth(token)
	if err != nil {
		return model.User{}, err
	}
	user, err := d.queries.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, storeErr("looking up user", err)
	}
	return user, nil
}

// GetByID returns the user with the given ID.
func (d *Directory) GetByID(ctx context.Context, id int64) (model.User, error) {
	user, err := d.queries.GetUserByID(ctx, id)
	if err != nil {
		return model.User{}, storeErr("looking up user", err)
	}
	return user, nil
}

// GetByUsername returns the user with the given username.
func (d *Directory) GetByUsername(ctx context.Context, username string) (model.User, error) {
	user, err := d.queries.GetUserByUsername(ctx, username)
	if err != nil {
		return model.User{}, storeErr("looking up user", err)
	}
	return user, nil
}

// UpdateProfile updates the user's display profile fields.
func (d *Directory) UpdateProfile(ctx context.Context, id int64, name, location, aboutMe string) error {
	err := d.queries.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		ID:       id,
		Name:     name,
		Location: location,
		AboutMe:  aboutMe,
	})
	if err != nil {
		return storeErr("updating profile", err)
	}
	return nil
}

// SetRole reassigns a user to a role. Administrator-gated at the caller.
func (d *Directory) SetRole(ctx context.Context, userID, roleID int64) error {
	if err := d.queries.SetUserRole(ctx, userID, roleID); err != nil {
		return storeErr("setting role", err)
	}
	return nil
}

// Delete removes a user. The cascade foreign keys take the user's follow
// edges, posts, and comments along; no orphan rows survive.
func (d *Directory) Delete(ctx context.Context, id int64) error {
	if err := d.queries.DeleteUser(ctx, id); err != nil {
		return storeErr("deleting user", err)
	}
	d.logger.Info("user deleted", "id", id)
	return nil
}
