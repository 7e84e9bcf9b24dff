package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lireddit/apiserver/config"
	"github.com/lireddit/apiserver/internal/auth"
	"github.com/lireddit/apiserver/internal/services"
	"github.com/lireddit/apiserver/internal/session"
	"github.com/lireddit/apiserver/internal/store/memory"
)

type graphqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := session.NewStore("memory", nil, nil)
	require.NoError(t, err)
	sessions := session.NewManager(config.SessionConfig{CookieName: "qid", Lifetime: time.Hour}, store, log)

	hasher := auth.NewHasher(auth.Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16})
	router, err := NewRouter(Dependencies{
		Users:    services.NewUserService(memory.NewUserRepository(), hasher, nil, log),
		Posts:    services.NewPostService(memory.NewPostRepository(), nil, log),
		Sessions: sessions,
	})
	require.NoError(t, err)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return srv, &http.Client{Jar: jar}
}

func postGraphQL(t *testing.T, client *http.Client, baseURL, query string, vars map[string]any) graphqlResponse {
	t.Helper()
	body, err := json.Marshal(map[string]any{"query": query, "variables": vars})
	require.NoError(t, err)

	resp, err := client.Post(baseURL+"/graphql", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out graphqlResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

const (
	registerMutation = `mutation($options: UsernamePasswordInput!) {
		register(options: $options) { errors { field message } user { id username } }
	}`
	loginMutation = `mutation($options: UsernamePasswordInput!) {
		login(options: $options) { errors { field message } user { id username } }
	}`
	meQuery = `{ me { id username } }`
)

func TestHealthz(t *testing.T) {
	srv, client := newTestServer(t)

	resp, err := client.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestUnknownRoute(t *testing.T) {
	srv, client := newTestServer(t)

	resp, err := client.Get(srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionCookieFlow(t *testing.T) {
	srv, client := newTestServer(t)
	creds := map[string]any{"options": map[string]any{"username": "alice", "password": "hunter22"}}

	me := postGraphQL(t, client, srv.URL, meQuery, nil)
	require.Empty(t, me.Errors)
	assert.JSONEq(t, `null`, string(me.Data["me"]))

	reg := postGraphQL(t, client, srv.URL, registerMutation, creds)
	require.Empty(t, reg.Errors)
	assert.JSONEq(t, `{"errors": null, "user": {"id": 1, "username": "alice"}}`, string(reg.Data["register"]))

	// registering does not sign the client in
	me = postGraphQL(t, client, srv.URL, meQuery, nil)
	assert.JSONEq(t, `null`, string(me.Data["me"]))

	login := postGraphQL(t, client, srv.URL, loginMutation, creds)
	require.Empty(t, login.Errors)
	assert.JSONEq(t, `{"errors": null, "user": {"id": 1, "username": "alice"}}`, string(login.Data["login"]))

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	cookies := client.Jar.Cookies(base)
	require.Len(t, cookies, 1)
	assert.Equal(t, "qid", cookies[0].Name)

	me = postGraphQL(t, client, srv.URL, meQuery, nil)
	assert.JSONEq(t, `{"id": 1, "username": "alice"}`, string(me.Data["me"]))

	// a different client without the cookie stays anonymous
	other := postGraphQL(t, http.DefaultClient, srv.URL, meQuery, nil)
	assert.JSONEq(t, `null`, string(other.Data["me"]))

	logout := postGraphQL(t, client, srv.URL, `mutation { logout }`, nil)
	assert.JSONEq(t, `true`, string(logout.Data["logout"]))

	me = postGraphQL(t, client, srv.URL, meQuery, nil)
	assert.JSONEq(t, `null`, string(me.Data["me"]))
}

func TestLoginWrongPasswordOverHTTP(t *testing.T) {
	srv, client := newTestServer(t)
	postGraphQL(t, client, srv.URL, registerMutation,
		map[string]any{"options": map[string]any{"username": "bob", "password": "correct-horse"}})

	login := postGraphQL(t, client, srv.URL, loginMutation,
		map[string]any{"options": map[string]any{"username": "bob", "password": "wrong-horse"}})
	assert.JSONEq(t,
		`{"errors": [{"field": "password", "message": "incorrect password"}], "user": null}`,
		string(login.Data["login"]))
}

func TestMetricsCountResolverCalls(t *testing.T) {
	srv, client := newTestServer(t)

	me := postGraphQL(t, client, srv.URL, meQuery, nil)
	require.Empty(t, me.Errors)

	resp, err := client.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `graphql_resolver_calls_total{field="me",outcome="ok"}`)
	assert.Contains(t, string(body), `http_requests_total{method="POST",route="/graphql",status="200"}`)
}

func memoryConfig() config.Config {
	return config.Config{
		Env:     "test",
		Store:   "memory",
		Session: config.SessionConfig{Store: "memory", CookieName: "qid", Lifetime: time.Hour},
		MQ:      config.MQConfig{Backend: "none"},
	}
}

func TestNewWithMemoryStore(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(context.Background(), memoryConfig(), log)
	require.NoError(t, err)
	assert.Nil(t, s.db)

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	creds := map[string]any{"options": map[string]any{"username": "carol", "password": "longenough"}}
	reg := postGraphQL(t, client, srv.URL, registerMutation, creds)
	require.Empty(t, reg.Errors)
	login := postGraphQL(t, client, srv.URL, loginMutation, creds)
	require.Empty(t, login.Errors)

	me := postGraphQL(t, client, srv.URL, meQuery, nil)
	assert.JSONEq(t, `{"id": 1, "username": "carol"}`, string(me.Data["me"]))
}

func TestNewRejectsBadStoreConfig(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := memoryConfig()
	cfg.Store = "sqlite"
	_, err := New(context.Background(), cfg, log)
	assert.ErrorContains(t, err, `unknown store "sqlite"`)

	// postgres sessions cannot work without the postgres store
	cfg = memoryConfig()
	cfg.Session.Store = "postgres"
	_, err = New(context.Background(), cfg, log)
	assert.ErrorContains(t, err, "requires a database")
}

type sweepingStore struct {
	scs.Store
	stops int
}

func (s *sweepingStore) StopCleanup() { s.stops++ }

func TestCloseStopsSessionCleanup(t *testing.T) {
	store := &sweepingStore{}
	s := &Server{sessionStore: store}

	s.close()

	assert.Equal(t, 1, store.stops)
}
