// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Post is an article authored by a user. BodyHTML is derived from Body on
// every write and is never edited independently.
type Post struct {
	ID        int64     `json:"id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	BodyHTML  string    `json:"body_html"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is a reply attached to a post. Disabled hides the comment from
// public listings without deleting the row.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"post_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	BodyHTML  string    `json:"body_html"`
	Disabled  bool      `json:"disabled"`
	CreatedAt time.Time `json:"created_at"`
}

// PostPayload is the inbound JSON shape for creating or updating a post.
type PostPayload struct {
	Body string `json:"body"`
}

// Validate rejects payloads without a body.
func (p PostPayload) Validate() error {
	if p.Body == "" {
		return &ValidationError{Field: "body", Message: "post does not have a body"}
	}
	return nil
}

// CommentPayload is the inbound JSON shape for creating a comment.
type CommentPayload struct {
	Body string `json:"body"`
}

// Validate rejects payloads without a body.
func (p CommentPayload) Validate() error {
	if p.Body == "" {
		return &ValidationError{Field: "body", Message: "comment does not have a body"}
	}
	return nil
}
