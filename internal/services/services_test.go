package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lireddit/apiserver/internal/auth"
	"github.com/lireddit/apiserver/internal/services"
	"github.com/lireddit/apiserver/internal/session"
	"github.com/lireddit/apiserver/internal/store/memory"
	"github.com/lireddit/apiserver/types"
)

var testHashParams = auth.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}

type fakeSession struct {
	values map[string]any
	writes int
}

func newFakeSession() *fakeSession {
	return &fakeSession{values: make(map[string]any)}
}

func (s *fakeSession) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *fakeSession) Set(key string, value any) error {
	s.writes++
	s.values[key] = value
	return nil
}

func (s *fakeSession) Destroy() error {
	s.writes++
	s.values = make(map[string]any)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []services.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event services.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type failingUserRepo struct {
	*memory.UserRepository
	err error
}

func (r failingUserRepo) Create(context.Context, types.User) (types.User, error) {
	return types.User{}, r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type userFixture struct {
	svc    *services.UserService
	repo   *memory.UserRepository
	events *recordingPublisher
	hasher *auth.Hasher
}

func newUserFixture() userFixture {
	repo := memory.NewUserRepository()
	events := &recordingPublisher{}
	hasher := auth.NewHasher(testHashParams)
	return userFixture{
		svc:    services.NewUserService(repo, hasher, events, discardLogger()),
		repo:   repo,
		events: events,
		hasher: hasher,
	}
}

func requestContext(s session.Session) services.RequestContext {
	return services.RequestContext{Ctx: context.Background(), Session: s}
}

func TestUserService_Register(t *testing.T) {
	t.Run("ShortUsername", func(t *testing.T) {
		f := newUserFixture()
		for _, name := range []string{"", "a", "ab", "é"} {
			resp, err := f.svc.Register(requestContext(newFakeSession()), types.UsernamePasswordInput{Username: name, Password: "x"})
			require.NoError(t, err)
			require.Len(t, resp.Errors, 1)
			assert.Equal(t, "username", resp.Errors[0].Field)
			assert.Equal(t, "username must be longer than 2 characters", resp.Errors[0].Message)
			assert.Nil(t, resp.User)
		}

		users, err := f.repo.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		f := newUserFixture()
		resp, err := f.svc.Register(requestContext(newFakeSession()), types.UsernamePasswordInput{Username: "bob", Password: "1234567"})
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "password", resp.Errors[0].Field)
		assert.Nil(t, resp.User)

		users, err := f.repo.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("Success", func(t *testing.T) {
		f := newUserFixture()
		sess := newFakeSession()
		resp, err := f.svc.Register(requestContext(sess), types.UsernamePasswordInput{Username: "alice123", Password: "supersecret"})
		require.NoError(t, err)
		assert.Empty(t, resp.Errors)
		require.NotNil(t, resp.User)
		assert.Equal(t, "alice123", resp.User.Username)
		assert.NotZero(t, resp.User.ID)
		assert.Equal(t, 0, sess.writes)

		users, err := f.svc.Users(requestContext(newFakeSession()))
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, "alice123", users[0].Username)
		assert.NotEqual(t, "supersecret", users[0].Password)

		ok, err := f.hasher.Verify(users[0].Password, "supersecret")
		require.NoError(t, err)
		assert.True(t, ok)

		require.Len(t, f.events.events, 1)
		assert.Equal(t, services.EventUserRegistered, f.events.events[0].Type)
		assert.Equal(t, resp.User.ID, f.events.events[0].EntityID)
	})

	t.Run("DuplicateUsername", func(t *testing.T) {
		f := newUserFixture()
		input := types.UsernamePasswordInput{Username: "alice123", Password: "supersecret"}

		_, err := f.svc.Register(requestContext(newFakeSession()), input)
		require.NoError(t, err)

		resp, err := f.svc.Register(requestContext(newFakeSession()), input)
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "username", resp.Errors[0].Field)
		assert.Equal(t, "username taken", resp.Errors[0].Message)
		assert.Nil(t, resp.User)

		users, err := f.repo.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, users, 1)
	})

	t.Run("UnexpectedStoreError", func(t *testing.T) {
		repo := failingUserRepo{UserRepository: memory.NewUserRepository(), err: errors.New("connection reset")}
		svc := services.NewUserService(repo, auth.NewHasher(testHashParams), nil, discardLogger())

		resp, err := svc.Register(requestContext(newFakeSession()), types.UsernamePasswordInput{Username: "alice123", Password: "supersecret"})
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "unknown", resp.Errors[0].Field)
		assert.Equal(t, "connection reset", resp.Errors[0].Message)
	})

	t.Run("PublishFailureDoesNotFailRegister", func(t *testing.T) {
		f := newUserFixture()
		f.events.err = errors.New("broker down")

		resp, err := f.svc.Register(requestContext(newFakeSession()), types.UsernamePasswordInput{Username: "alice123", Password: "supersecret"})
		require.NoError(t, err)
		assert.Empty(t, resp.Errors)
		assert.NotNil(t, resp.User)
	})
}

func TestUserService_Login(t *testing.T) {
	setup := func(t *testing.T) userFixture {
		f := newUserFixture()
		_, err := f.svc.Register(requestContext(newFakeSession()), types.UsernamePasswordInput{Username: "alice123", Password: "supersecret"})
		require.NoError(t, err)
		return f
	}

	t.Run("UnknownUsername", func(t *testing.T) {
		f := setup(t)
		sess := newFakeSession()
		resp, err := f.svc.Login(requestContext(sess), types.UsernamePasswordInput{Username: "nobody", Password: "supersecret"})
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "username", resp.Errors[0].Field)
		assert.Equal(t, "that username was not found", resp.Errors[0].Message)
		assert.Equal(t, 0, sess.writes)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		f := setup(t)
		sess := newFakeSession()
		resp, err := f.svc.Login(requestContext(sess), types.UsernamePasswordInput{Username: "alice123", Password: "not-the-password"})
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "password", resp.Errors[0].Field)
		assert.Equal(t, "incorrect password", resp.Errors[0].Message)
		assert.Equal(t, 0, sess.writes)
	})

	t.Run("CorruptStoredHash", func(t *testing.T) {
		f := newUserFixture()
		_, err := f.repo.Create(context.Background(), types.User{
			Username: "mallory",
			Password: "$argon2id$v=19$m=8192,t=0,p=1$c2FsdA$a2V5",
		})
		require.NoError(t, err)

		sess := newFakeSession()
		var resp types.UserResponse
		require.NotPanics(t, func() {
			resp, err = f.svc.Login(requestContext(sess), types.UsernamePasswordInput{Username: "mallory", Password: "supersecret"})
		})
		require.NoError(t, err)
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "password", resp.Errors[0].Field)
		assert.Equal(t, "incorrect password", resp.Errors[0].Message)
		assert.Equal(t, 0, sess.writes)
	})

	t.Run("SuccessThenMe", func(t *testing.T) {
		f := setup(t)
		sess := newFakeSession()
		resp, err := f.svc.Login(requestContext(sess), types.UsernamePasswordInput{Username: "alice123", Password: "supersecret"})
		require.NoError(t, err)
		assert.Empty(t, resp.Errors)
		require.NotNil(t, resp.User)

		me, err := f.svc.Me(requestContext(sess))
		require.NoError(t, err)
		require.NotNil(t, me)
		assert.Equal(t, resp.User.ID, me.ID)
	})

	t.Run("Logout", func(t *testing.T) {
		f := setup(t)
		sess := newFakeSession()
		_, err := f.svc.Login(requestContext(sess), types.UsernamePasswordInput{Username: "alice123", Password: "supersecret"})
		require.NoError(t, err)

		ok, err := f.svc.Logout(requestContext(sess))
		require.NoError(t, err)
		assert.True(t, ok)

		me, err := f.svc.Me(requestContext(sess))
		require.NoError(t, err)
		assert.Nil(t, me)
	})
}

func TestUserService_Me(t *testing.T) {
	t.Run("NoSession", func(t *testing.T) {
		f := newUserFixture()
		me, err := f.svc.Me(requestContext(newFakeSession()))
		require.NoError(t, err)
		assert.Nil(t, me)
	})

	t.Run("DeletedUser", func(t *testing.T) {
		f := newUserFixture()
		sess := newFakeSession()
		sess.values[session.UserIDKey] = 99
		me, err := f.svc.Me(requestContext(sess))
		require.NoError(t, err)
		assert.Nil(t, me)
	})
}

func TestPostService(t *testing.T) {
	events := &recordingPublisher{}
	svc := services.NewPostService(memory.NewPostRepository(), events, discardLogger())
	rc := requestContext(newFakeSession())

	created, err := svc.CreatePost(rc, types.PostInput{Title: "  hello world  "})
	require.NoError(t, err)
	assert.Equal(t, "hello world", created.Title)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.Post(rc, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.Title, got.Title)

	missing, err := svc.Post(rc, created.ID+100)
	require.NoError(t, err)
	assert.Nil(t, missing)

	updated, err := svc.UpdatePost(rc, created.ID, types.PostInput{Title: "renamed"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))

	notUpdated, err := svc.UpdatePost(rc, created.ID+100, types.PostInput{Title: "renamed"})
	require.NoError(t, err)
	assert.Nil(t, notUpdated)

	_, err = svc.CreatePost(rc, types.PostInput{Title: "   "})
	assert.ErrorIs(t, err, services.ErrInvalidInput)

	posts, err := svc.Posts(rc)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	deleted, err := svc.DeletePost(rc, created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = svc.DeletePost(rc, created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	require.Len(t, events.events, 2)
	assert.Equal(t, services.EventPostCreated, events.events[0].Type)
	assert.Equal(t, services.EventPostDeleted, events.events[1].Type)
}
