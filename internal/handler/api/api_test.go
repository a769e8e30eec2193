package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/oblog-go/internal/auth"
	"github.com/olegiv/oblog-go/internal/handler/api"
	"github.com/olegiv/oblog-go/internal/model"
	"github.com/olegiv/oblog-go/internal/notify"
	"github.com/olegiv/oblog-go/internal/service"
	"github.com/olegiv/oblog-go/internal/store"
	"github.com/olegiv/oblog-go/internal/testutil"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

type apiFixture struct {
	srv       *httptest.Server
	db        *sql.DB
	directory *service.Directory
	content   *service.Content
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, cleanup := testutil.SeededTestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLogger()
	dispatcher := notify.NewDispatcher(notify.LogSink{Logger: logger}, logger, notify.DefaultConfig())
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	directory := service.NewDirectory(db, auth.NewCodec(testSecret), dispatcher, logger, service.DirectoryConfig{})
	follows := service.NewFollowGraph(db, logger)
	content := service.NewContent(db, logger)

	h := api.NewHandler(directory, follows, content, logger, 20)
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	return &apiFixture{srv: srv, db: db, directory: directory, content: content}
}

// newConfirmedUser registers and confirms a user, returning it with a bearer
// token.
func (f *apiFixture) newConfirmedUser(t *testing.T, email, username string) (model.User, string) {
	t.Helper()
	ctx := context.Background()

	user, err := f.directory.Register(ctx, email, username, "cat")
	require.NoError(t, err)
	require.NoError(t, store.New(f.db).SetUserConfirmed(ctx, user.ID))
	user.Confirmed = true

	token, err := f.directory.IssueAuthToken(user)
	require.NoError(t, err)
	return user, token
}

// promote reassigns a user to the named built-in role.
func (f *apiFixture) promote(t *testing.T, user model.User, roleName string) {
	t.Helper()
	ctx := context.Background()

	role, err := store.New(f.db).GetRoleByName(ctx, roleName)
	require.NoError(t, err)
	require.NoError(t, f.directory.SetRole(ctx, user.ID, role.ID))
}

func (f *apiFixture) request(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()

	var reqBody io.Reader
	if body != "" {
		reqBody = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, f.srv.URL+path, reqBody)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestIssueToken(t *testing.T) {
	f := newAPIFixture(t)
	user, _ := f.newConfirmedUser(t, "alice@example.com", "alice")

	req, err := http.NewRequest(http.MethodPost, f.srv.URL+"/tokens", nil)
	require.NoError(t, err)
	req.SetBasicAuth(user.Email, "cat")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var tr api.TokenResponse
	decodeJSON(t, resp, &tr)
	assert.NotEmpty(t, tr.Token)
	assert.Equal(t, 3600, tr.ExpiresIn)

	// The issued token authenticates requests.
	got := f.request(t, http.MethodGet, "/posts", tr.Token, "")
	assert.Equal(t, http.StatusOK, got.StatusCode)
}

func TestIssueTokenRejections(t *testing.T) {
	f := newAPIFixture(t)
	f.newConfirmedUser(t, "alice@example.com", "alice")

	// No credentials.
	resp, err := http.Post(f.srv.URL+"/tokens", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong password.
	req, _ := http.NewRequest(http.MethodPost, f.srv.URL+"/tokens", nil)
	req.SetBasicAuth("alice@example.com", "dog")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Unconfirmed account.
	_, err = f.directory.Register(context.Background(), "eve@example.com", "eve", "cat")
	require.NoError(t, err)
	req, _ = http.NewRequest(http.MethodPost, f.srv.URL+"/tokens", nil)
	req.SetBasicAuth("eve@example.com", "cat")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRequireAuth(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.request(t, http.MethodGet, "/posts", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = f.request(t, http.MethodGet, "/posts", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetUserOmitsEmail(t *testing.T) {
	f := newAPIFixture(t)
	user, token := f.newConfirmedUser(t, "alice@example.com", "alice")

	resp := f.request(t, http.MethodGet, userPath(user), token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]any
	decodeJSON(t, resp, &raw)
	assert.Equal(t, "alice", raw["username"])
	assert.NotContains(t, raw, "email")
	assert.NotContains(t, raw, "password_hash")

	resp = f.request(t, http.MethodGet, "/users/99999", token, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	user, token := f.newConfirmedUser(t, "alice@example.com", "alice")

	resp := f.request(t, http.MethodPost, "/posts", token, `{"body":"hello **world**"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var post api.PostResponse
	decodeJSON(t, resp, &post)
	assert.Equal(t, "hello **world**", post.Body)
	assert.Contains(t, post.BodyHTML, "<strong>")
	assert.Equal(t, userPath(user), post.AuthorURL[len("/api"):])

	// Empty body is a validation error.
	resp = f.request(t, http.MethodPost, "/posts", token, `{"body":""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// Author can edit.
	path := strings.TrimPrefix(post.URL, "/api")
	resp = f.request(t, http.MethodPut, path, token, `{"body":"edited"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var edited api.PostResponse
	decodeJSON(t, resp, &edited)
	assert.Equal(t, "edited", edited.Body)

	// A stranger cannot.
	_, otherToken := f.newConfirmedUser(t, "bob@example.com", "bob")
	resp = f.request(t, http.MethodPut, path, otherToken, `{"body":"hijacked"}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestFollowEndpoints(t *testing.T) {
	f := newAPIFixture(t)
	alice, aliceToken := f.newConfirmedUser(t, "alice@example.com", "alice")
	bob, _ := f.newConfirmedUser(t, "bob@example.com", "bob")

	resp := f.request(t, http.MethodPost, userPath(bob)+"/follow", aliceToken, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	// Idempotent.
	resp = f.request(t, http.MethodPost, userPath(bob)+"/follow", aliceToken, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Unknown target.
	resp = f.request(t, http.MethodPost, "/users/99999/follow", aliceToken, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Bob's posts appear in Alice's timeline.
	_, err := f.content.CreatePost(context.Background(), bob.ID, "from bob")
	require.NoError(t, err)
	resp = f.request(t, http.MethodGet, userPath(alice)+"/timeline", aliceToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var timeline []api.PostResponse
	decodeJSON(t, resp, &timeline)
	require.Len(t, timeline, 1)
	assert.Equal(t, "from bob", timeline[0].Body)

	// Unfollowing yourself is rejected.
	resp = f.request(t, http.MethodDelete, userPath(alice)+"/follow", aliceToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.request(t, http.MethodDelete, userPath(bob)+"/follow", aliceToken, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCommentModerationGating(t *testing.T) {
	f := newAPIFixture(t)
	ctx := context.Background()

	alice, aliceToken := f.newConfirmedUser(t, "alice@example.com", "alice")
	mod, modToken := f.newConfirmedUser(t, "mod@example.com", "mod")
	f.promote(t, mod, model.RoleNameModerator)
	// Re-issue after promotion so the loaded user carries the new role.
	modToken = reissue(t, f, mod)

	post, err := f.content.CreatePost(ctx, alice.ID, "a post")
	require.NoError(t, err)
	comment, err := f.content.CreateComment(ctx, post.ID, alice.ID, "a comment")
	require.NoError(t, err)

	commentPath := "/comments/" + itoa(comment.ID)
	postCommentsPath := "/posts/" + itoa(post.ID) + "/comments"

	// A regular user cannot moderate.
	resp := f.request(t, http.MethodPatch, commentPath+"/disabled", aliceToken, `{"disabled":true}`)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// A moderator can.
	resp = f.request(t, http.MethodPatch, commentPath+"/disabled", modToken, `{"disabled":true}`)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Disabled comments vanish for regular users but stay for moderators.
	resp = f.request(t, http.MethodGet, commentPath, aliceToken, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = f.request(t, http.MethodGet, commentPath, modToken, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.request(t, http.MethodGet, postCommentsPath, aliceToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var visible []api.CommentResponse
	decodeJSON(t, resp, &visible)
	assert.Empty(t, visible)

	resp = f.request(t, http.MethodGet, postCommentsPath, modToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var modView []api.CommentResponse
	decodeJSON(t, resp, &modView)
	assert.Len(t, modView, 1)
}

func userPath(u model.User) string {
	return "/users/" + itoa(u.ID)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func reissue(t *testing.T, f *apiFixture, user model.User) string {
	t.Helper()
	token, err := f.directory.IssueAuthToken(user)
	require.NoError(t, err)
	return token
}
