// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Follow is a directed edge in the follower graph. The pair
// (FollowerID, FollowedID) is the row identity; at most one edge exists per
// ordered pair. Every user carries a self-follow edge from registration so
// timeline queries cover the user's own posts.
type Follow struct {
	FollowerID int64     `json:"follower_id"`
	FollowedID int64     `json:"followed_id"`
	CreatedAt  time.Time `json:"created_at"`
}
