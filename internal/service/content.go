// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/render"
	"github.com/olegiv/oblog-go/internal/store"
)

// Content implements post and comment authoring. Every body write runs
// through the sanitizing renderer; raw HTML never reaches the store.
//
// Who may write is the gating layer's decision (author-or-administrator for
// post edits, COMMENT permission for comments); this service's contract is
// that a body write always re-derives the stored HTML.
type Content struct {
	queries       *store.Queries
	postRender    *render.Renderer
	commentRender *render.Renderer
	logger        *slog.Logger
}

// NewContent creates a Content service with the standard post and comment
// allow-lists.
func NewContent(db *sql.DB, logger *slog.Logger) *Content {
	if logger == nil {
		logger = slog.Default()
	}
	return &Content{
		queries:       store.New(db),
		postRender:    render.NewForPosts(),
		commentRender: render.NewForComments(),
		logger:        logger,
	}
}

// CreatePost stores a new post with its derived HTML.
func (c *Content) CreatePost(ctx context.Context, authorID int64, body string) (model.Post, error) {
	if err := (model.PostPayload{Body: body}).Validate(); err != nil {
		return model.Post{}, err
	}

	post, err := c.queries.CreatePost(ctx, store.CreatePostParams{
		AuthorID:  authorID,
		Body:      body,
		BodyHTML:  c.postRender.SafeHTML(body),
		CreatedAt: time.Now(),
	})
	if err != nil {
		return model.Post{}, storeErr("creating post", err)
	}
	return post, nil
}

// EditPost replaces a post's body and re-derives its HTML in the same write.
func (c *Content) EditPost(ctx context.Context, postID int64, newBody string) (model.Post, error) {
	if err := (model.PostPayload{Body: newBody}).Validate(); err != nil {
		return model.Post{}, err
	}

	if err := c.queries.UpdatePostBody(ctx, postID, newBody, c.postRender.SafeHTML(newBody)); err != nil {
		return model.Post{}, storeErr("updating post", err)
	}

	post, err := c.queries.GetPostByID(ctx, postID)
	if err != nil {
		return model.Post{}, storeErr("loading post", err)
	}
	return post, nil
}

// GetPost returns the post with the given ID.
func (c *Content) GetPost(ctx context.Context, id int64) (model.Post, error) {
	post, err := c.queries.GetPostByID(ctx, id)
	if err != nil {
		return model.Post{}, storeErr("loading post", err)
	}
	return post, nil
}

// ListPosts returns a page of all posts, newest first.
func (c *Content) ListPosts(ctx context.Context, page Page) ([]model.Post, error) {
	page = page.clamp()
	posts, err := c.queries.ListPosts(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, storeErr("listing posts", err)
	}
	return posts, nil
}

// ListPostsByAuthor returns a page of a user's posts, newest first.
func (c *Content) ListPostsByAuthor(ctx context.Context, authorID int64, page Page) ([]model.Post, error) {
	page = page.clamp()
	posts, err := c.queries.ListPostsByAuthor(ctx, authorID, page.Limit, page.Offset)
	if err != nil {
		return nil, storeErr("listing posts", err)
	}
	return posts, nil
}

// DeletePost removes a post and its comments.
func (c *Content) DeletePost(ctx context.Context, id int64) error {
	if err := c.queries.DeletePost(ctx, id); err != nil {
		return storeErr("deleting post", err)
	}
	return nil
}

// CreateComment stores a new comment on a post with its derived HTML.
func (c *Content) CreateComment(ctx context.Context, postID, authorID int64, body string) (model.Comment, error) {
	if err := (model.CommentPayload{Body: body}).Validate(); err != nil {
		return model.Comment{}, err
	}

	comment, err := c.queries.CreateComment(ctx, store.CreateCommentParams{
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		BodyHTML:  c.commentRender.SafeHTML(body),
		CreatedAt: time.Now(),
	})
	if err != nil {
		return model.Comment{}, storeErr("creating comment", err)
	}
	return comment, nil
}

// GetComment returns the comment with the given ID.
func (c *Content) GetComment(ctx context.Context, id int64) (model.Comment, error) {
	comment, err := c.queries.GetCommentByID(ctx, id)
	if err != nil {
		return model.Comment{}, storeErr("loading comment", err)
	}
	return comment, nil
}

// SetCommentDisabled hides or restores a comment without deleting its row.
func (c *Content) SetCommentDisabled(ctx context.Context, id int64, disabled bool) error {
	if err := c.queries.SetCommentDisabled(ctx, id, disabled); err != nil {
		return storeErr("moderating comment", err)
	}
	c.logger.Info("comment moderated", "id", id, "disabled", disabled)
	return nil
}

// PostComments returns a page of a post's comments, oldest first. Disabled
// comments appear only when the moderation view asks for them.
func (c *Content) PostComments(ctx context.Context, postID int64, includeDisabled bool, page Page) ([]model.Comment, error) {
	page = page.clamp()
	comments, err := c.queries.ListCommentsByPost(ctx, postID, includeDisabled, page.Limit, page.Offset)
	if err != nil {
		return nil, storeErr("listing comments", err)
	}
	return comments, nil
}

// CountPostsByAuthor returns how many posts a user has written.
func (c *Content) CountPostsByAuthor(ctx context.Context, authorID int64) (int64, error) {
	n, err := c.queries.CountPostsByAuthor(ctx, authorID)
	if err != nil {
		return 0, storeErr("counting posts", err)
	}
	return n, nil
}

// CountCommentsByPost returns how many comments a post has.
func (c *Content) CountCommentsByPost(ctx context.Context, postID int64) (int64, error) {
	n, err := c.queries.CountCommentsByPost(ctx, postID)
	if err != nil {
		return 0, storeErr("counting comments", err)
	}
	return n, nil
}
