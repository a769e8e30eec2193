// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Permission is a bitmask of independently grantable capabilities.
type Permission uint8

// Permission flags. Each bit grants one capability; a role's effective
// permission set is the OR of its granted flags.
const (
	PermFollow           Permission = 0x01
	PermComment          Permission = 0x02
	PermWriteArticles    Permission = 0x04
	PermModerateComments Permission = 0x08
	PermAdminister       Permission = 0x80
)

// AdminPermissions is the administrator bit set. It is a deliberate superset
// of the defined flags so bits reserved for future capabilities are granted
// automatically.
const AdminPermissions Permission = 0xFF

// Role names created at bootstrap.
const (
	RoleNameUser          = "User"
	RoleNameModerator     = "Moderator"
	RoleNameAdministrator = "Administrator"
)

// Role groups users under a named permission set. Exactly one role is the
// default assigned at registration.
type Role struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	IsDefault   bool       `json:"is_default"`
	Permissions Permission `json:"permissions"`
}

// Has reports whether the role grants every bit of p.
func (r *Role) Has(p Permission) bool {
	return r != nil && r.Permissions&p == p
}

// Principal is anything access decisions can be made about. Both User and
// Anonymous implement it, so callers never branch on nil users.
type Principal interface {
	Can(p Permission) bool
	IsAdministrator() bool
}

// Anonymous is the unauthenticated principal. It holds no role and is denied
// every permission.
type Anonymous struct{}

// Can always returns false for the anonymous principal.
func (Anonymous) Can(Permission) bool { return false }

// IsAdministrator always returns false for the anonymous principal.
func (Anonymous) IsAdministrator() bool { return false }
