package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/postgresstore"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/redis/go-redis/v9"

	"github.com/lireddit/apiserver/config"
)

// UserIDKey holds the signed-in user's ID.
const UserIDKey = "userId"

// Session is the per-request view of the caller's session state. Values
// written with Set are persisted before the response is flushed.
type Session interface {
	Get(key string) (any, bool)
	Set(key string, value any) error
	Destroy() error
}

// UserID returns the signed-in user's ID, if any.
func UserID(s Session) (int, bool) {
	value, ok := s.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := value.(int)
	if !ok || id < 1 {
		return 0, false
	}
	return id, true
}

// Manager binds scs-managed cookie sessions to requests.
type Manager struct {
	sm *scs.SessionManager
}

// NewManager constructs a Manager persisting sessions in store.
func NewManager(cfg config.SessionConfig, store scs.Store, log *slog.Logger) *Manager {
	sm := scs.New()
	sm.Store = store
	sm.Lifetime = cfg.Lifetime
	sm.Cookie.Name = cfg.CookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = cfg.Secure
	sm.Cookie.Persist = true
	sm.ErrorFunc = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Error("session error", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
	return &Manager{sm: sm}
}

// Middleware loads the session for each request and commits it before the
// response is written.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return m.sm.LoadAndSave(next)
}

// For returns the session of the request that ctx belongs to. ctx must come
// from a request that passed through Middleware.
func (m *Manager) For(ctx context.Context) Session {
	return &requestSession{sm: m.sm, ctx: ctx}
}

type requestSession struct {
	sm  *scs.SessionManager
	ctx context.Context
}

func (s *requestSession) Get(key string) (any, bool) {
	if !s.sm.Exists(s.ctx, key) {
		return nil, false
	}
	return s.sm.Get(s.ctx, key), true
}

// Set rotates the session token before storing value, so a token issued
// before sign-in never carries an authenticated session.
func (s *requestSession) Set(key string, value any) error {
	if err := s.sm.RenewToken(s.ctx); err != nil {
		return fmt.Errorf("renew session token: %w", err)
	}
	s.sm.Put(s.ctx, key, value)
	return nil
}

func (s *requestSession) Destroy() error {
	return s.sm.Destroy(s.ctx)
}

// NewStore builds the scs backend named by kind.
func NewStore(kind string, db *sql.DB, rdb *redis.Client) (scs.Store, error) {
	switch kind {
	case "", "memory":
		return memstore.New(), nil
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("session store %q requires a database", kind)
		}
		return postgresstore.New(db), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("session store %q requires a redis client", kind)
		}
		return goredisstore.New(rdb), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", kind)
	}
}

// NewRedisClient connects to redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
