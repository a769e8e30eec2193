// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
)

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const contextKeyUser contextKey = "user"

// CurrentUser returns the authenticated user from the request context, or
// nil outside an authenticated route.
func CurrentUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(contextKeyUser).(*model.User)
	return user
}

// principal returns the access-control subject for the request: the
// authenticated user, or the anonymous principal which denies everything.
func principal(r *http.Request) model.Principal {
	if user := CurrentUser(r); user != nil {
		return user
	}
	return model.Anonymous{}
}

// TokenResponse carries a freshly issued auth token.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// IssueToken exchanges HTTP basic credentials (email, password) for a bearer
// token. Unconfirmed accounts are rejected.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	email, password, ok := r.BasicAuth()
	if !ok {
		WriteUnauthorized(w, "Credentials required")
		return
	}

	user, err := h.directory.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			WriteUnauthorized(w, "Invalid credentials")
			return
		}
		h.logger.Error("authenticating user", "error", err)
		WriteInternalError(w, "Authentication failed")
		return
	}

	if !user.Confirmed {
		WriteForbidden(w, "Unconfirmed account")
		return
	}

	token, err := h.directory.IssueAuthToken(user)
	if err != nil {
		h.logger.Error("issuing auth token", "user_id", user.ID, "error", err)
		WriteInternalError(w, "Token issuance failed")
		return
	}

	WriteJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresIn: int(h.directory.AuthTokenTTL().Seconds()),
	})
}

// RequireAuth verifies the bearer token, loads the user into the request
// context, and stamps last-seen. Unconfirmed accounts may not use the API.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			WriteUnauthorized(w, "Bearer token required")
			return
		}

		user, err := h.directory.VerifyAuthToken(r.Context(), token)
		if err != nil {
			WriteUnauthorized(w, "Invalid or expired token")
			return
		}

		if !user.Confirmed {
			WriteForbidden(w, "Unconfirmed account")
			return
		}

		if err := h.directory.TouchLastSeen(r.Context(), &user); err != nil {
			h.logger.Warn("touching last seen", "user_id", user.ID, "error", err)
		}

		ctx := context.WithValue(r.Context(), contextKeyUser, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission gates a route on a permission bit of the current
// principal's role.
func (h *Handler) RequirePermission(p model.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !principal(r).Can(p) {
				WriteForbidden(w, "Insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
