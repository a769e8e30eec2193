package store

import (
	"context"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

// InsertFollow creates the edge (follower, followed) if it does not already
// exist. The primary key makes the insert race-free: two concurrent calls for
// the same pair leave exactly one row.
func (q *Queries) InsertFollow(ctx context.Context, followerID, followedID int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO follows (follower_id, followed_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (follower_id, followed_id) DO NOTHING`,
		followerID, followedID, at)
	return err
}

// DeleteFollow removes the edge (follower, followed) if present.
func (q *Queries) DeleteFollow(ctx context.Context, followerID, followedID int64) error {
	_, err := q.db.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID)
	return err
}

// FollowExists reports whether the edge (follower, followed) is present.
func (q *Queries) FollowExists(ctx context.Context, followerID, followedID int64) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ? AND followed_id = ?`,
		followerID, followedID).Scan(&n)
	return n > 0, err
}

// ListFollowers returns users following the given user, newest edge first.
func (q *Queries) ListFollowers(ctx context.Context, userID int64, limit, offset int64) ([]model.User, error) {
	return q.listFollowUsers(ctx, `
		SELECT`+userColumns+userFrom+`
		JOIN follows f ON f.follower_id = u.id
		WHERE f.followed_id = ?
		ORDER BY f.created_at DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
}

// ListFollowing returns users the given user follows, newest edge first.
func (q *Queries) ListFollowing(ctx context.Context, userID int64, limit, offset int64) ([]model.User, error) {
	return q.listFollowUsers(ctx, `
		SELECT`+userColumns+userFrom+`
		JOIN follows f ON f.followed_id = u.id
		WHERE f.follower_id = ?
		ORDER BY f.created_at DESC
		LIMIT ? OFFSET ?`, userID, limit, offset)
}

func (q *Queries) listFollowUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountFollowers returns the number of edges pointing at the user,
// self-follow included.
func (q *Queries) CountFollowers(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE followed_id = ?`, userID).Scan(&n)
	return n, err
}

// CountFollowing returns the number of edges leaving the user, self-follow
// included.
func (q *Queries) CountFollowing(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM follows WHERE follower_id = ?`, userID).Scan(&n)
	return n, err
}

// ListUserIDsWithoutSelfFollow returns IDs of users missing their self-follow
// edge. Used by the bootstrap backfill.
func (q *Queries) ListUserIDsWithoutSelfFollow(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT u.id FROM users u
		WHERE NOT EXISTS (
			SELECT 1 FROM follows f
			WHERE f.follower_id = u.id AND f.followed_id = u.id
		)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListFollowedPosts returns posts authored by anyone the user follows,
// newest first. The mandatory self-follow makes the user's own posts part of
// the result. Results are paged; the full set is never loaded.
func (q *Queries) ListFollowedPosts(ctx context.Context, userID int64, limit, offset int64) ([]model.Post, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT p.id, p.author_id, p.body, p.body_html, p.created_at
		FROM posts p
		JOIN follows f ON f.followed_id = p.author_id
		WHERE f.follower_id = ?
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT ? OFFSET ?`,
		userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectPosts(rows)
}
