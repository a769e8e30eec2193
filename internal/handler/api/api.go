// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API: token issuance and the user, post, and
// comment resources. Rendering and browser flows live outside this
// repository; this surface is the export contract only.
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	directory *service.Directory
	follows   *service.FollowGraph
	content   *service.Content
	logger    *slog.Logger
	perPage   int64
}

// NewHandler creates a new API handler.
func NewHandler(directory *service.Directory, follows *service.FollowGraph, content *service.Content, logger *slog.Logger, perPage int64) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if perPage <= 0 {
		perPage = service.DefaultPageSize
	}
	return &Handler{
		directory: directory,
		follows:   follows,
		content:   content,
		logger:    logger,
		perPage:   perPage,
	}
}

// Routes returns the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/tokens", h.IssueToken)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/users/{id}", h.GetUser)
		r.Get("/users/{id}/posts", h.UserPosts)
		r.Get("/users/{id}/timeline", h.UserTimeline)
		r.With(h.RequirePermission(model.PermFollow)).Post("/users/{id}/follow", h.FollowUser)
		r.With(h.RequirePermission(model.PermFollow)).Delete("/users/{id}/follow", h.UnfollowUser)

		r.Get("/posts", h.ListPosts)
		r.With(h.RequirePermission(model.PermWriteArticles)).Post("/posts", h.CreatePost)
		r.Get("/posts/{id}", h.GetPost)
		r.Put("/posts/{id}", h.UpdatePost)
		r.Get("/posts/{id}/comments", h.PostComments)
		r.With(h.RequirePermission(model.PermComment)).Post("/posts/{id}/comments", h.CreateComment)

		r.Get("/comments/{id}", h.GetComment)
		r.With(h.RequirePermission(model.PermModerateComments)).Patch("/comments/{id}/disabled", h.ModerateComment)
	})

	return r
}

// idParam parses the {id} URL parameter.
func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// page extracts the offset/limit window from the request query.
func (h *Handler) page(r *http.Request) service.Page {
	p := service.Page{Limit: h.perPage}
	if v, err := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64); err == nil && v > 0 {
		p.Limit = v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("offset"), 10, 64); err == nil && v > 0 {
		p.Offset = v
	}
	return p
}

// Resource URL builders. Relative URLs; the deployment prefixes its host.

func userURL(id int64) string    { return fmt.Sprintf("/api/users/%d", id) }
func postURL(id int64) string    { return fmt.Sprintf("/api/posts/%d", id) }
func commentURL(id int64) string { return fmt.Sprintf("/api/comments/%d", id) }

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field
// errors.
func WriteValidationError(w http.ResponseWriter, ve *model.ValidationError) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed",
		map[string]string{ve.Field: ve.Message})
}
