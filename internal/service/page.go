// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

// Pagination bounds for list operations.
const (
	DefaultPageSize int64 = 20
	MaxPageSize     int64 = 100
)

// Page is an offset/limit window over a list result. Limits are capped
// server-side so no operation can load an unbounded result set.
type Page struct {
	Limit  int64
	Offset int64
}

// clamp normalizes the window to the allowed bounds.
func (p Page) clamp() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
