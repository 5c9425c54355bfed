// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It decides:
// - Which store backs the service (SQLite or MongoDB)
// - Which optional infrastructure is live (Redis cache, RabbitMQ events)
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go: config.Load() → server.New(ctx, cfg, logger)
//	New:     store, publisher, redis → newServer
//	newServer: reference snapshot → services → handlers → routes
//
// This is the "composition root" pattern: all dependencies are wired in one
// place, rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/restaurant-guide/internal/auth"
	"github.com/sakif/restaurant-guide/internal/config"
	"github.com/sakif/restaurant-guide/internal/events"
	"github.com/sakif/restaurant-guide/internal/handler"
	"github.com/sakif/restaurant-guide/internal/middleware"
	"github.com/sakif/restaurant-guide/internal/reference"
	"github.com/sakif/restaurant-guide/internal/repository"
	mongoRepo "github.com/sakif/restaurant-guide/internal/repository/mongo"
	sqliteRepo "github.com/sakif/restaurant-guide/internal/repository/sqlite"
	"github.com/sakif/restaurant-guide/internal/service"
)

const cachePrefix = "restaurant-guide"

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the store, the event publisher and the Redis client.
// Start closes all three after the HTTP server has drained.
type Server struct {
	router    *chi.Mux
	config    *config.Config
	logger    *slog.Logger
	store     repository.Store
	publisher events.Publisher
	rdb       redis.UniversalClient // nil when the response cache is disabled
}

// New opens the configured store, connects the optional infrastructure and
// builds the router.
//
// Redis and RabbitMQ are optional: when they are unset or unreachable the
// server logs a warning and runs without the response cache or events. The
// store is not optional; failing to open it fails New.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	publisher := openPublisher(cfg.Events, logger)
	rdb := openRedis(ctx, cfg.Redis, logger)

	s, err := newServer(ctx, cfg, logger, store, publisher, rdb)
	if err != nil {
		s.closeResources()
		return nil, err
	}
	return s, nil
}

// OpenStore opens the backend named by cfg.Driver. cmd/seed shares it.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMongo:
		store, err := mongoRepo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		return store, nil
	default:
		if cfg.DBPath != ":memory:" {
			// os.MkdirAll works like `mkdir -p`.
			if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	}
}

func openPublisher(cfg config.EventsConfig, logger *slog.Logger) events.Publisher {
	if cfg.AMQPURL == "" {
		return events.Nop{}
	}
	p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.Queue)
	if err != nil {
		logger.Warn("event broker unavailable, comment events disabled", slog.String("error", err.Error()))
		return events.Nop{}
	}
	return p
}

func openRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) redis.UniversalClient {
	if cfg.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unavailable, response cache disabled",
			slog.String("addr", cfg.Addr),
			slog.String("error", err.Error()),
		)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

// newServer wires an already opened store and infrastructure. Tests call it
// directly with an in-memory store.
func newServer(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	store repository.Store,
	publisher events.Publisher,
	rdb redis.UniversalClient,
) (*Server, error) {
	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		store:     store,
		publisher: publisher,
		rdb:       rdb,
	}

	if err := s.setupRoutes(ctx); err != nil {
		return s, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET    /                                        → UI entry page
// GET    /static/*                                → Static files
// GET    /health                                  → Store connectivity
// GET    /metrics                                 → Prometheus metrics
// GET    /api/neighborhoods                       → Reference list   [cached]
// GET    /api/cuisines                            → Reference list   [cached]
// GET    /api/restaurants                         → Listing          [cached]
// GET    /api/restaurants/search                  → Name search      [cached]
// GET    /api/restaurants/{id}                    → Detail           [cached]
// GET    /api/restaurants/{id}/comments           → Comment page     [cached]
// POST   /api/auth/register|login|refresh|logout  → Accounts
// POST   /api/restaurants/{id}/comments           → Add comment      [auth]
// PUT    /api/restaurants/{id}/comments/{cid}     → Edit own comment [auth]
// DELETE /api/restaurants/{id}/comments/{cid}     → Delete own       [auth]
// GET    /api/me                                  → Current user     [auth]
// POST   /api/me/favorites/{restaurantID}         → Add favorite     [auth]
// DELETE /api/me/favorites/{restaurantID}         → Remove favorite  [auth]
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns a unique ID to each request (for tracing)
// 2. RealIP: extracts the real client IP from proxy headers
// 3. Logger: logs each request with timing info and the request id
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. Metrics: counts and times each request by route pattern
//
// The response cache only wraps the public GET routes. Anything that
// depends on the caller (/api/me) must never be cached.
func (s *Server) setupRoutes(ctx context.Context) error {
	tokens, err := auth.NewTokenService(
		s.config.Auth.AccessSecret,
		s.config.Auth.RefreshSecret,
		s.config.Auth.AccessTTL,
		s.config.Auth.RefreshTTL,
	)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := middleware.NewMetrics(reg)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(metrics.Middleware)

	// === Reference snapshot ===
	// Loaded once; a failing source degrades to empty lists.
	refs := reference.Load(ctx, s.store, s.logger)

	// === Dependency chain ===
	// store → services → handlers. Handlers never touch the store directly,
	// except the health check, which only pings it.
	restaurantService := service.NewRestaurantService(s.store, s.store, s.logger)
	commentService := service.NewCommentService(s.store, s.publisher, s.logger)
	authService := service.NewAuthService(s.store, tokens, auth.NewPasswordService(s.config.Auth.BcryptCost), s.logger)
	favoritesService := service.NewFavoritesService(s.store, s.store, s.logger)

	restaurantHandler := handler.NewRestaurantHandler(restaurantService, refs, s.store, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)
	authHandler := handler.NewAuthHandler(authService, favoritesService, tokens, s.config.IsProduction(), s.logger)

	cached, invalidate := s.cacheMiddleware()

	// === Static files and UI ===
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(s.config.StaticDir, "index.html"))
	})

	s.router.Get("/health", restaurantHandler.HandleHealth)
	s.router.Handle("/metrics", metrics.Handler())

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))

		r.Group(func(r chi.Router) {
			r.Use(cached)
			r.Get("/neighborhoods", restaurantHandler.HandleNeighborhoods)
			r.Get("/cuisines", restaurantHandler.HandleCuisines)
			r.Get("/restaurants", restaurantHandler.HandleList)
			r.Get("/restaurants/search", restaurantHandler.HandleSearch)
			r.Get("/restaurants/{id}", restaurantHandler.HandleDetail)
			r.Get("/restaurants/{id}/comments", commentHandler.HandleList)
		})

		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/refresh", authHandler.HandleRefresh)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.With(invalidate).Post("/restaurants/{id}/comments", commentHandler.HandleCreate)
			r.With(invalidate).Put("/restaurants/{id}/comments/{commentID}", commentHandler.HandleUpdate)
			r.With(invalidate).Delete("/restaurants/{id}/comments/{commentID}", commentHandler.HandleDelete)

			r.Get("/me", authHandler.HandleMe)
			r.Post("/me/favorites/{restaurantID}", authHandler.HandleAddFavorite)
			r.Delete("/me/favorites/{restaurantID}", authHandler.HandleRemoveFavorite)
		})
	})

	return nil
}

// cacheMiddleware returns the caching and invalidating middleware, or
// pass-throughs when Redis is not configured.
func (s *Server) cacheMiddleware() (cached, invalidate func(http.Handler) http.Handler) {
	if s.rdb == nil {
		passthrough := func(next http.Handler) http.Handler { return next }
		return passthrough, passthrough
	}
	cache := middleware.NewResponseCache(s.rdb, cachePrefix, s.config.Redis.CacheTTL, s.logger)
	return cache.Middleware, cache.InvalidateRestaurant
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store, the event publisher and Redis
func (s *Server) Start() error {
	defer s.closeResources()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.Store.Driver),
			slog.Bool("cache", s.rdb != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func (s *Server) closeResources() {
	if err := s.publisher.Close(); err != nil {
		s.logger.Warn("closing event publisher", slog.String("error", err.Error()))
	}
	if s.rdb != nil {
		if err := s.rdb.Close(); err != nil {
			s.logger.Warn("closing redis", slog.String("error", err.Error()))
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("closing store", slog.String("error", err.Error()))
	}
}
