package service_test

import (
	"context"
	"testing"

	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/testutil"
)

func registerUser(t *testing.T, f *directoryFixture, email, username string) model.User {
	t.Helper()
	user, err := f.dir.Register(context.Background(), email, username, "cat")
	if err != nil {
		t.Fatalf("Register(%s): %v", username, err)
	}
	f.waitForMessage(t)
	return user
}

func TestFollowLifecycle(t *testing.T) {
	f, cleanup := newDirectoryFixture(t, service.DirectoryConfig{})
	defer cleanup()
	ctx := context.Background()
	graph := service.NewFollowGraph(f.db, testutil.TestLogger())

	alice := registerUser(t, f, "alice@example.com", "alice")
	bob := registerUser(t, f, "bob@example.com", "bob")

	// Fresh users follow only themselves.
	if ok, _ := graph.IsFollowing(ctx, alice.ID, alice.ID); !ok {
		t.Error("alice does not follow herself after registration")
	}
	if ok, _ := graph.IsFollowing(ctx, alice.ID, bob.ID); ok {
		t.Error("alice follows bob before any follow call")
	}

	if err := graph.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}
	// Following twice leaves a single edge.
	if err := graph.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("repeated Follow: %v", err)
	}

	if ok, _ := graph.IsFollowing(ctx, alice.ID, bob.ID); !ok {
		t.Error("alice -> bob edge missing after Follow")
	}
	if ok, _ := graph.IsFollowedBy(ctx, bob.ID, alice.ID); !ok {
		t.Error("IsFollowedBy(bob, alice) is false")
	}
	// The relation is directed.
	if ok, _ := graph.IsFollowing(ctx, bob.ID, alice.ID); ok {
		t.Error("reverse edge bob -> alice exists without a Follow call")
	}

	aliceFollowers, aliceFollowing, err := graph.Counts(ctx, alice.ID)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if aliceFollowers != 1 || aliceFollowing != 2 {
		t.Errorf("alice counts = (%d followers, %d following), want (1, 2)", aliceFollowers, aliceFollowing)
	}
	bobFollowers, _, err := graph.Counts(ctx, bob.ID)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if bobFollowers != 2 {
		t.Errorf("bob followers = %d, want 2 (self + alice)", bobFollowers)
	}

	followers, err := graph.Followers(ctx, bob.ID, service.Page{Limit: 10})
	if err != nil {
		t.Fatalf("Followers: %v", err)
	}
	if len(followers) != 2 {
		t.Fatalf("bob has %d followers listed, want 2", len(followers))
	}

	if err := graph.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	if ok, _ := graph.IsFollowing(ctx, alice.ID, bob.ID); ok {
		t.Error("edge survived Unfollow")
	}
	// Unfollow in one direction must not disturb self-follows.
	if ok, _ := graph.IsFollowing(ctx, alice.ID, alice.ID); !ok {
		t.Error("alice's self-follow vanished after unfollowing bob")
	}

	// Unfollowing an absent edge is a no-op.
	if err := graph.Unfollow(ctx, alice.ID, bob.ID); err != nil {
		t.Errorf("repeated Unfollow: %v", err)
	}
}

func TestFollowedPostsTimeline(t *testing.T) {
	f, cleanup := newDirectoryFixture(t, service.DirectoryConfig{})
	defer cleanup()
	ctx := context.Background()
	graph := service.NewFollowGraph(f.db, testutil.TestLogger())
	content := service.NewContent(f.db, testutil.TestLogger())

	alice := registerUser(t, f, "alice@example.com", "alice")
	bob := registerUser(t, f, "bob@example.com", "bob")
	carol := registerUser(t, f, "carol@example.com", "carol")

	if err := graph.Follow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	for _, p := range []struct {
		author int64
		body   string
	}{
		{alice.ID, "post by alice"},
		{bob.ID, "post by bob"},
		{carol.ID, "post by carol"},
	} {
		if _, err := content.CreatePost(ctx, p.author, p.body); err != nil {
			t.Fatalf("CreatePost: %v", err)
		}
	}

	posts, err := graph.FollowedPosts(ctx, alice.ID, service.Page{Limit: 10})
	if err != nil {
		t.Fatalf("FollowedPosts: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("timeline has %d posts, want 2 (own via self-follow + bob's)", len(posts))
	}
	for _, p := range posts {
		if p.AuthorID == carol.ID {
			t.Error("timeline contains post by unfollowed author")
		}
	}
}
