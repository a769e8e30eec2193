// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
)

// PostResponse is the exported post payload.
type PostResponse struct {
	URL          string    `json:"url"`
	Body         string    `json:"body"`
	BodyHTML     string    `json:"body_html"`
	Timestamp    time.Time `json:"timestamp"`
	AuthorURL    string    `json:"author_url"`
	CommentsURL  string    `json:"comments_url"`
	CommentCount int64     `json:"comment_count"`
}

// CommentResponse is the exported comment payload.
type CommentResponse struct {
	URL       string    `json:"url"`
	PostURL   string    `json:"post_url"`
	Body      string    `json:"body"`
	BodyHTML  string    `json:"body_html"`
	Timestamp time.Time `json:"timestamp"`
	AuthorURL string    `json:"author_url"`
}

func (h *Handler) postResponse(r *http.Request, post model.Post) PostResponse {
	commentCount, err := h.content.CountCommentsByPost(r.Context(), post.ID)
	if err != nil {
		h.logger.Warn("counting comments", "post_id", post.ID, "error", err)
	}
	return PostResponse{
		URL:          postURL(post.ID),
		Body:         post.Body,
		BodyHTML:     post.BodyHTML,
		Timestamp:    post.CreatedAt,
		AuthorURL:    userURL(post.AuthorID),
		CommentsURL:  postURL(post.ID) + "/comments",
		CommentCount: commentCount,
	}
}

func (h *Handler) postResponses(r *http.Request, posts []model.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, h.postResponse(r, p))
	}
	return out
}

func commentResponse(c model.Comment) CommentResponse {
	return CommentResponse{
		URL:       commentURL(c.ID),
		PostURL:   postURL(c.PostID),
		Body:      c.Body,
		BodyHTML:  c.BodyHTML,
		Timestamp: c.CreatedAt,
		AuthorURL: userURL(c.AuthorID),
	}
}

// ListPosts returns a page of all posts, newest first.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.ListPosts(r.Context(), h.page(r))
	if err != nil {
		h.logger.Error("listing posts", "error", err)
		WriteInternalError(w, "Failed to list posts")
		return
	}
	WriteJSON(w, http.StatusOK, h.postResponses(r, posts))
}

// GetPost returns a single post.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.content.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			WriteNotFound(w, "Post not found")
			return
		}
		h.logger.Error("loading post", "id", id, "error", err)
		WriteInternalError(w, "Failed to load post")
		return
	}

	WriteJSON(w, http.StatusOK, h.postResponse(r, post))
}

// CreatePost creates a post authored by the current user.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var payload model.PostPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	post, err := h.content.CreatePost(r.Context(), CurrentUser(r).ID, payload.Body)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			WriteValidationError(w, ve)
			return
		}
		h.logger.Error("creating post", "error", err)
		WriteInternalError(w, "Failed to create post")
		return
	}

	WriteJSON(w, http.StatusCreated, h.postResponse(r, post))
}

// UpdatePost replaces a post's body. Allowed for the author or an
// administrator only.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	post, err := h.content.GetPost(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			WriteNotFound(w, "Post not found")
			return
		}
		WriteInternalError(w, "Failed to load post")
		return
	}

	me := CurrentUser(r)
	if post.AuthorID != me.ID && !me.IsAdministrator() {
		WriteForbidden(w, "Not the author")
		return
	}

	var payload model.PostPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	updated, err := h.content.EditPost(r.Context(), id, payload.Body)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			WriteValidationError(w, ve)
			return
		}
		h.logger.Error("updating post", "id", id, "error", err)
		WriteInternalError(w, "Failed to update post")
		return
	}

	WriteJSON(w, http.StatusOK, h.postResponse(r, updated))
}

// PostComments returns a page of a post's comments, oldest first. Disabled
// comments are visible to moderators only.
func (h *Handler) PostComments(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	includeDisabled := principal(r).Can(model.PermModerateComments)
	comments, err := h.content.PostComments(r.Context(), id, includeDisabled, h.page(r))
	if err != nil {
		h.logger.Error("listing comments", "post_id", id, "error", err)
		WriteInternalError(w, "Failed to list comments")
		return
	}

	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentResponse(c))
	}
	WriteJSON(w, http.StatusOK, out)
}

// CreateComment creates a comment by the current user on a post.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid post ID")
		return
	}

	if _, err := h.content.GetPost(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			WriteNotFound(w, "Post not found")
			return
		}
		WriteInternalError(w, "Failed to load post")
		return
	}

	var payload model.CommentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	comment, err := h.content.CreateComment(r.Context(), id, CurrentUser(r).ID, payload.Body)
	if err != nil {
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			WriteValidationError(w, ve)
			return
		}
		h.logger.Error("creating comment", "post_id", id, "error", err)
		WriteInternalError(w, "Failed to create comment")
		return
	}

	WriteJSON(w, http.StatusCreated, commentResponse(comment))
}

// GetComment returns a single comment.
func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid comment ID")
		return
	}

	comment, err := h.content.GetComment(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			WriteNotFound(w, "Comment not found")
			return
		}
		h.logger.Error("loading comment", "id", id, "error", err)
		WriteInternalError(w, "Failed to load comment")
		return
	}

	if comment.Disabled && !principal(r).Can(model.PermModerateComments) {
		WriteNotFound(w, "Comment not found")
		return
	}

	WriteJSON(w, http.StatusOK, commentResponse(comment))
}

// ModerationPayload toggles a comment's disabled flag.
type ModerationPayload struct {
	Disabled bool `json:"disabled"`
}

// ModerateComment hides or restores a comment.
func (h *Handler) ModerateComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid comment ID")
		return
	}

	if _, err := h.content.GetComment(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			WriteNotFound(w, "Comment not found")
			return
		}
		WriteInternalError(w, "Failed to load comment")
		return
	}

	var payload ModerationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteBadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.content.SetCommentDisabled(r.Context(), id, payload.Disabled); err != nil {
		h.logger.Error("moderating comment", "id", id, "error", err)
		WriteInternalError(w, "Failed to moderate comment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
