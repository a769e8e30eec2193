// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/store"
)

// FollowGraph manages the directed follower relation between users.
type FollowGraph struct {
	queries *store.Queries
	logger  *slog.Logger
}

// NewFollowGraph creates a FollowGraph.
func NewFollowGraph(db *sql.DB, logger *slog.Logger) *FollowGraph {
	if logger == nil {
		logger = slog.Default()
	}
	return &FollowGraph{
		queries: store.New(db),
		logger:  logger,
	}
}

// Follow creates the edge follower -> followed. A no-op when the edge
// already exists, including the self-edge every user carries from
// registration. Concurrent calls for the same pair are settled by the
// primary key, not by the caller.
func (g *FollowGraph) Follow(ctx context.Context, followerID, followedID int64) error {
	if err := g.queries.InsertFollow(ctx, followerID, followedID, time.Now()); err != nil {
		return storeErr("inserting follow", err)
	}
	return nil
}

// Unfollow removes the edge follower -> followed if present.
//
// Nothing stops a caller from removing a user's own self-follow through this
// primitive; surfaces that expose unfollow actions must never offer the
// self-edge. Seed's backfill restores any missing self-follow.
func (g *FollowGraph) Unfollow(ctx context.Context, followerID, followedID int64) error {
	if err := g.queries.DeleteFollow(ctx, followerID, followedID); err != nil {
		return storeErr("deleting follow", err)
	}
	return nil
}

// IsFollowing reports whether a follows b.
func (g *FollowGraph) IsFollowing(ctx context.Context, a, b int64) (bool, error) {
	ok, err := g.queries.FollowExists(ctx, a, b)
	if err != nil {
		return false, storeErr("checking follow", err)
	}
	return ok, nil
}

// IsFollowedBy reports whether b follows a.
func (g *FollowGraph) IsFollowedBy(ctx context.Context, a, b int64) (bool, error) {
	return g.IsFollowing(ctx, b, a)
}

// FollowedPosts returns a page of posts authored by anyone the user follows,
// newest first. The self-follow edge makes the user's own posts part of the
// timeline.
func (g *FollowGraph) FollowedPosts(ctx context.Context, userID int64, page Page) ([]model.Post, error) {
	page = page.clamp()
	posts, err := g.queries.ListFollowedPosts(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, storeErr("listing followed posts", err)
	}
	return posts, nil
}

// Followers returns a page of users following the given user.
func (g *FollowGraph) Followers(ctx context.Context, userID int64, page Page) ([]model.User, error) {
	page = page.clamp()
	users, err := g.queries.ListFollowers(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, storeErr("listing followers", err)
	}
	return users, nil
}

// Following returns a page of users the given user follows.
func (g *FollowGraph) Following(ctx context.Context, userID int64, page Page) ([]model.User, error) {
	page = page.clamp()
	users, err := g.queries.ListFollowing(ctx, userID, page.Limit, page.Offset)
	if err != nil {
		return nil, storeErr("listing following", err)
	}
	return users, nil
}

// Counts returns the raw follower and following edge counts for a user.
// Self-follow edges are included; display layers subtract them if needed.
func (g *FollowGraph) Counts(ctx context.Context, userID int64) (followers, following int64, err error) {
	followers, err = g.queries.CountFollowers(ctx, userID)
	if err != nil {
		return 0, 0, storeErr("counting followers", err)
	}
	following, err = g.queries.CountFollowing(ctx, userID)
	if err != nil {
		return 0, 0, storeErr("counting following", err)
	}
	return followers, following, nil
}
