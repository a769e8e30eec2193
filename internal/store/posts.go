package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
)

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	var posts []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.Body, &p.BodyHTML, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePostParams holds the fields required to insert a post row.
type CreatePostParams struct {
	AuthorID  int64
	Body      string
	BodyHTML  string
	CreatedAt time.Time
}

// CreatePost inserts a post and returns the stored row.
func (q *Queries) CreatePost(ctx context.Context, p CreatePostParams) (model.Post, error) {
	var post model.Post
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO posts (author_id, body, body_html, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id, author_id, body, body_html, created_at`,
		p.AuthorID, p.Body, p.BodyHTML, p.CreatedAt,
	).Scan(&post.ID, &post.AuthorID, &post.Body, &post.BodyHTML, &post.CreatedAt)
	return post, err
}

// GetPostByID returns the post with the given ID.
func (q *Queries) GetPostByID(ctx context.Context, id int64) (model.Post, error) {
	var p model.Post
	err := q.db.QueryRowContext(ctx, `
		SELECT id, author_id, body, body_html, created_at FROM posts WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.AuthorID, &p.Body, &p.BodyHTML, &p.CreatedAt)
	return p, err
}

// UpdatePostBody replaces a post's source text and its derived HTML in one
// statement, so the two can never drift apart.
func (q *Queries) UpdatePostBody(ctx context.Context, id int64, body, bodyHTML string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE posts SET body = ?, body_html = ? WHERE id = ?`, body, bodyHTML, id)
	return err
}

// DeletePost removes a post row; its comments go with it.
func (q *Queries) DeletePost(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	return err
}

// ListPosts returns all posts, newest first.
func (q *Queries) ListPosts(ctx context.Context, limit, offset int64) ([]model.Post, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, author_id, body, body_html, created_at FROM posts
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// ListPostsByAuthor returns a user's posts, newest first.
func (q *Queries) ListPostsByAuthor(ctx context.Context, authorID int64, limit, offset int64) ([]model.Post, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, author_id, body, body_html, created_at FROM posts
		WHERE author_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, authorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPosts(rows)
}

// CountPostsByAuthor returns the number of posts a user has written.
func (q *Queries) CountPostsByAuthor(ctx context.Context, authorID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE author_id = ?`, authorID).Scan(&n)
	return n, err
}

// CreateCommentParams holds the fields required to insert a comment row.
type CreateCommentParams struct {
	PostID    int64
	AuthorID  int64
	Body      string
	BodyHTML  string
	CreatedAt time.Time
}

// CreateComment inserts a comment and returns the stored row.
func (q *Queries) CreateComment(ctx context.Context, p CreateCommentParams) (model.Comment, error) {
	var c model.Comment
	err := q.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, author_id, body, body_html, disabled, created_at)
		VALUES (?, ?, ?, ?, 0, ?)
		RETURNING id, post_id, author_id, body, body_html, disabled, created_at`,
		p.PostID, p.AuthorID, p.Body, p.BodyHTML, p.CreatedAt,
	).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.BodyHTML, &c.Disabled, &c.CreatedAt)
	return c, err
}

// GetCommentByID returns the comment with the given ID.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (model.Comment, error) {
	var c model.Comment
	err := q.db.QueryRowContext(ctx, `
		SELECT id, post_id, author_id, body, body_html, disabled, created_at
		FROM comments WHERE id = ?`, id,
	).Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.BodyHTML, &c.Disabled, &c.CreatedAt)
	return c, err
}

// SetCommentDisabled flips the moderation soft-delete flag on a comment.
func (q *Queries) SetCommentDisabled(ctx context.Context, id int64, disabled bool) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE comments SET disabled = ? WHERE id = ?`, disabled, id)
	return err
}

// ListCommentsByPost returns a post's comments, oldest first. Disabled
// comments are excluded unless includeDisabled is set (moderation view).
func (q *Queries) ListCommentsByPost(ctx context.Context, postID int64, includeDisabled bool, limit, offset int64) ([]model.Comment, error) {
	query := `
		SELECT id, post_id, author_id, body, body_html, disabled, created_at
		FROM comments
		WHERE post_id = ?`
	if !includeDisabled {
		query += ` AND disabled = 0`
	}
	query += `
		ORDER BY created_at ASC, id ASC
		LIMIT ? OFFSET ?`

	rows, err := q.db.QueryContext(ctx, query, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		var c model.Comment
		if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Body, &c.BodyHTML, &c.Disabled, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// CountCommentsByPost returns the number of comments on a post, disabled
// included.
func (q *Queries) CountCommentsByPost(ctx context.Context, postID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = ?`, postID).Scan(&n)
	return n, err
}
