// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain models shared across the application:
// users, roles, follow edges, posts, and comments.
package model

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"
)

// UsernamePattern constrains usernames to a letter followed by letters,
// digits, underscores, and dots.
var UsernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]*$`)

// User represents a registered account.
//
// PasswordHash is the only credential material ever stored; there is no
// plaintext password field anywhere in the model. Confirmed starts false and
// flips to true exactly once, through a valid confirmation token.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"-"` // Never expose in JSON
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Never expose in JSON
	Confirmed    bool      `json:"confirmed"`
	RoleID       int64     `json:"role_id"`
	Name         string    `json:"name"`
	Location     string    `json:"location"`
	AboutMe      string    `json:"about_me"`
	MemberSince  time.Time `json:"member_since"`
	LastSeen     time.Time `json:"last_seen"`
	AvatarHash   string    `json:"-"`

	// Role is populated by queries that join the roles table. A user loaded
	// without its role denies every permission.
	Role *Role `json:"-"`
}

// Can reports whether the user's role grants every bit of p.
func (u *User) Can(p Permission) bool {
	return u != nil && u.Role.Has(p)
}

// IsAdministrator reports whether the user holds the ADMINISTER bit.
func (u *User) IsAdministrator() bool {
	return u.Can(PermAdminister)
}

// EmailHash returns the lowercase hex MD5 digest of an email address, the
// value stored in User.AvatarHash and used for Gravatar lookups.
func EmailHash(email string) string {
	sum := md5.Sum([]byte(email))
	return hex.EncodeToString(sum[:])
}

// Gravatar builds the avatar URL for the user. The stored AvatarHash is
// preferred; it falls back to hashing the email for rows created before the
// column was backfilled.
func (u *User) Gravatar(size int) string {
	hash := u.AvatarHash
	if hash == "" {
		hash = EmailHash(u.Email)
	}
	return fmt.Sprintf("https://secure.gravatar.com/avatar/%s?s=%d&d=identicon&r=g", hash, size)
}
