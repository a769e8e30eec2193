package store

import (
	"context"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

// userColumns is the select list shared by all user queries. The role is
// joined in so permission checks never need a second round trip.
const userColumns = `
	u.id, u.email, u.username, u.password_hash, u.confirmed, u.role_id,
	u.name, u.location, u.about_me, u.member_since, u.last_seen, u.avatar_hash,
	r.id, r.name, r.is_default, r.permissions`

const userFrom = ` FROM users u JOIN roles r ON r.id = u.role_id`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var u model.User
	var role model.Role
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.Confirmed, &u.RoleID,
		&u.Name, &u.Location, &u.AboutMe, &u.MemberSince, &u.LastSeen, &u.AvatarHash,
		&role.ID, &role.Name, &role.IsDefault, &role.Permissions,
	)
	if err != nil {
		return model.User{}, err
	}
	u.Role = &role
	return u, nil
}

// CreateUserParams holds the fields required to insert a user row.
type CreateUserParams struct {
	Email        string
	Username     string
	PasswordHash string
	Confirmed    bool
	RoleID       int64
	AvatarHash   string
	MemberSince  time.Time
	LastSeen     time.Time
}

// CreateUser inserts a user and returns the stored row with its role joined.
func (q *Queries) CreateUser(ctx context.Context, p CreateUserParams) (model.User, error) {
	var id int64
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO users (email, username, password_hash, confirmed, role_id,
			member_since, last_seen, avatar_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		p.Email, p.Username, p.PasswordHash, p.Confirmed, p.RoleID,
		p.MemberSince, p.LastSeen, p.AvatarHash,
	).Scan(&id)
	if err != nil {
		return model.User{}, err
	}
	return q.GetUserByID(ctx, id)
}

// GetUserByID returns the user with the given ID.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT`+userColumns+userFrom+` WHERE u.id = ?`, id))
}

// GetUserByEmail returns the user with the given email address.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT`+userColumns+userFrom+` WHERE u.email = ?`, email))
}

// GetUserByUsername returns the user with the given username.
func (q *Queries) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx,
		`SELECT`+userColumns+userFrom+` WHERE u.username = ?`, username))
}

// SetUserConfirmed marks a user's email address as confirmed. There is no
// transition back to unconfirmed.
func (q *Queries) SetUserConfirmed(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET confirmed = 1 WHERE id = ?`, id)
	return err
}

// UpdateUserPasswordHash replaces a user's stored credential digest.
func (q *Queries) UpdateUserPasswordHash(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	return err
}

// UpdateUserEmail replaces a user's email address and avatar hash together;
// the hash is derived from the address and must never go stale.
func (q *Queries) UpdateUserEmail(ctx context.Context, id int64, email, avatarHash string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET email = ?, avatar_hash = ? WHERE id = ?`, email, avatarHash, id)
	return err
}

// UpdateUserProfileParams holds the editable profile fields.
type UpdateUserProfileParams struct {
	ID       int64
	Name     string
	Location string
	AboutMe  string
}

// UpdateUserProfile updates the user's display profile.
func (q *Queries) UpdateUserProfile(ctx context.Context, p UpdateUserProfileParams) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE users SET name = ?, location = ?, about_me = ? WHERE id = ?`,
		p.Name, p.Location, p.AboutMe, p.ID)
	return err
}

// SetUserRole reassigns a user to a role. Admin-only operation.
func (q *Queries) SetUserRole(ctx context.Context, id, roleID int64) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET role_id = ? WHERE id = ?`, roleID, id)
	return err
}

// TouchUserLastSeen stamps the user's last-seen time. Called on every
// authenticated request, so it is a single-column update on the primary key.
func (q *Queries) TouchUserLastSeen(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET last_seen = ? WHERE id = ?`, at, id)
	return err
}

// DeleteUser removes a user row. Follows, posts, and comments owned by the
// user go with it through the cascade foreign keys.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}

// CountUsers returns the total number of registered users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
