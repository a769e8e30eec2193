// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
)

// UserResponse is the exported user payload. Email and credential material
// are deliberately absent.
type UserResponse struct {
	URL              string    `json:"url"`
	Username         string    `json:"username"`
	MemberSince      time.Time `json:"member_since"`
	LastSeen         time.Time `json:"last_seen"`
	PostsURL         string    `json:"posts_url"`
	FollowedPostsURL string    `json:"followed_posts_url"`
	PostCount        int64     `json:"post_count"`
}

func (h *Handler) userResponse(r *http.Request, user model.User) UserResponse {
	postCount, err := h.content.CountPostsByAuthor(r.Context(), user.ID)
	if err != nil {
		h.logger.Warn("counting posts", "user_id", user.ID, "error", err)
	}
	return UserResponse{
		URL:              userURL(user.ID),
		Username:         user.Username,
		MemberSince:      user.MemberSince,
		LastSeen:         user.LastSeen,
		PostsURL:         userURL(user.ID) + "/posts",
		FollowedPostsURL: userURL(user.ID) + "/timeline",
		PostCount:        postCount,
	}
}

// GetUser returns a user's public profile.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID")
		return
	}

	user, err := h.directory.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			WriteNotFound(w, "User not found")
			return
		}
		h.logger.Error("loading user", "id", id, "error", err)
		WriteInternalError(w, "Failed to load user")
		return
	}

	WriteJSON(w, http.StatusOK, h.userResponse(r, user))
}

// UserPosts returns a page of the user's own posts, newest first.
func (h *Handler) UserPosts(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID")
		return
	}

	posts, err := h.content.ListPostsByAuthor(r.Context(), id, h.page(r))
	if err != nil {
		h.logger.Error("listing user posts", "id", id, "error", err)
		WriteInternalError(w, "Failed to list posts")
		return
	}

	WriteJSON(w, http.StatusOK, h.postResponses(r, posts))
}

// UserTimeline returns a page of posts by everyone the user follows,
// which includes the user through the self-follow edge.
func (h *Handler) UserTimeline(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID")
		return
	}

	posts, err := h.follows.FollowedPosts(r.Context(), id, h.page(r))
	if err != nil {
		h.logger.Error("listing timeline", "id", id, "error", err)
		WriteInternalError(w, "Failed to list timeline")
		return
	}

	WriteJSON(w, http.StatusOK, h.postResponses(r, posts))
}

// FollowUser makes the current user follow the target. Idempotent.
func (h *Handler) FollowUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID")
		return
	}

	if _, err := h.directory.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			WriteNotFound(w, "User not found")
			return
		}
		WriteInternalError(w, "Failed to load user")
		return
	}

	if err := h.follows.Follow(r.Context(), CurrentUser(r).ID, id); err != nil {
		h.logger.Error("following user", "id", id, "error", err)
		WriteInternalError(w, "Failed to follow")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UnfollowUser removes the current user's edge to the target. The API never
// exposes removing the self-follow.
func (h *Handler) UnfollowUser(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		WriteBadRequest(w, "Invalid user ID")
		return
	}

	me := CurrentUser(r)
	if me.ID == id {
		WriteBadRequest(w, "Cannot unfollow yourself")
		return
	}

	if err := h.follows.Unfollow(r.Context(), me.ID, id); err != nil {
		h.logger.Error("unfollowing user", "id", id, "error", err)
		WriteInternalError(w, "Failed to unfollow")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
