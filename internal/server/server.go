package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/lireddit/apiserver/config"
	"github.com/lireddit/apiserver/internal/auth"
	"github.com/lireddit/apiserver/internal/db"
	"github.com/lireddit/apiserver/internal/graph"
	"github.com/lireddit/apiserver/internal/handlers"
	"github.com/lireddit/apiserver/internal/metrics"
	"github.com/lireddit/apiserver/internal/mq"
	"github.com/lireddit/apiserver/internal/services"
	"github.com/lireddit/apiserver/internal/session"
	"github.com/lireddit/apiserver/internal/store"
	"github.com/lireddit/apiserver/internal/store/memory"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer   *http.Server
	router       *chi.Mux
	db           *sql.DB
	redis        *redis.Client
	sessionStore scs.Store
	events       *mq.EventPublisher
	log          *slog.Logger
}

// cleanupStopper is implemented by session stores that run a background
// expiry sweep.
type cleanupStopper interface {
	StopCleanup()
}

// Dependencies are the collaborators the router is assembled from.
type Dependencies struct {
	Users      *services.UserService
	Posts      *services.PostService
	Sessions   *session.Manager
	Playground bool
}

// New opens the store, applies pending migrations and constructs a Server
// with its middleware and routes. With cfg.Store set to "memory" no database
// is opened and data lives only as long as the process.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*Server, error) {
	s := &Server{log: log}

	var (
		userRepo services.UserRepository
		postRepo services.PostRepository
	)
	switch cfg.Store {
	case "", "postgres":
		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		s.db = dbConn

		version, err := db.Migrate(db.URL(cfg.Database))
		if err != nil {
			s.close()
			return nil, err
		}
		log.Info("database migrated", slog.Uint64("version", uint64(version)))

		userRepo = store.NewUserRepository(dbConn)
		postRepo = store.NewPostRepository(dbConn)
	case "memory":
		log.Warn("using in-memory store, data is lost on exit")
		userRepo = memory.NewUserRepository()
		postRepo = memory.NewPostRepository()
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	var err error
	if cfg.Session.Store == "redis" {
		s.redis, err = session.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			s.close()
			return nil, err
		}
	}

	s.sessionStore, err = session.NewStore(cfg.Session.Store, s.db, s.redis)
	if err != nil {
		s.close()
		return nil, err
	}
	sessions := session.NewManager(cfg.Session, s.sessionStore, log)

	var publisher services.EventPublisher = services.NopPublisher{}
	backend, err := mq.NewBackend(ctx, cfg.MQ)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("connect event backend: %w", err)
	}
	if backend != nil {
		s.events = mq.NewEventPublisher(mq.New(backend), cfg.MQ.Channel)
		publisher = s.events
	}

	hasher := auth.NewHasher(auth.DefaultParams)
	userService := services.NewUserService(userRepo, hasher, publisher, log)
	postService := services.NewPostService(postRepo, publisher, log)

	router, err := NewRouter(Dependencies{
		Users:      userService,
		Posts:      postService,
		Sessions:   sessions,
		Playground: !cfg.IsProduction(),
	})
	if err != nil {
		s.close()
		return nil, err
	}

	port := cfg.ServerPort
	if port == 0 {
		port = 4000
	}

	s.router = router
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// NewRouter builds the chi router serving the GraphQL endpoint.
func NewRouter(deps Dependencies) (*chi.Mux, error) {
	schema, err := graph.NewSchema(graph.NewResolver(deps.Users, deps.Posts, deps.Sessions))
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		metrics.Middleware,
		middleware.Timeout(60*time.Second),
	)
	router.NotFound(handlers.NotFound)
	router.Get("/healthz", handlers.Healthz)
	router.Handle("/metrics", metrics.Handler())
	router.With(deps.Sessions.Middleware).Handle("/graphql", graph.NewHandler(&schema, deps.Playground))

	return router, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("server listening", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the store connections.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.close()
	return err
}

// close stops the session sweep before the database it queries goes away.
func (s *Server) close() {
	if stopper, ok := s.sessionStore.(cleanupStopper); ok {
		stopper.StopCleanup()
	}
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}
