// Package server wires configuration, storage, services and handlers into a
// chi router, and runs the HTTP server with graceful shutdown.
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

	"github.com/sakif/carbon-tracker/internal/auth"
	"github.com/sakif/carbon-tracker/internal/catalog"
	"github.com/sakif/carbon-tracker/internal/config"
	"github.com/sakif/carbon-tracker/internal/grid"
	"github.com/sakif/carbon-tracker/internal/handler"
	"github.com/sakif/carbon-tracker/internal/middleware"
	"github.com/sakif/carbon-tracker/internal/repository"
	"github.com/sakif/carbon-tracker/internal/repository/postgres"
	sqliteRepo "github.com/sakif/carbon-tracker/internal/repository/sqlite"
	"github.com/sakif/carbon-tracker/internal/rewardmap"
	"github.com/sakif/carbon-tracker/internal/service"
)

// Server owns the storage provider and closes it on shutdown.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	provider repository.Provider
	catalog  *catalog.Catalog
	tokens   *auth.TokenService
	feed     grid.Feed
	now      func() time.Time
}

// Option customises a Server built by New.
type Option func(*Server)

// WithClock overrides the time source used for dates and activity timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithGridFeed replaces the simulated grid feed.
func WithGridFeed(feed grid.Feed) Option {
	return func(s *Server) { s.feed = feed }
}

// New opens storage, loads the catalog and registers every route.
func New(cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	cat, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	provider, err := OpenProvider(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		provider: provider,
		catalog:  cat,
		tokens:   tokens,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.feed == nil {
		s.feed = grid.NewSimulator(nil, s.now)
	}

	s.setupRoutes()
	return s, nil
}

// OpenProvider opens the storage backend selected by cfg.StoreDriver.
func OpenProvider(cfg config.Config) (repository.Provider, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		return db, nil
	case config.DriverSQLite:
		if cfg.DBPath != sqliteRepo.MemoryPath {
			dir := filepath.Dir(cfg.DBPath)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	return cat, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the storage provider.
func (s *Server) Close() error {
	return s.provider.Close()
}

func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.CallbackURL())
	} else {
		s.logger.Info("GitHub sign-in disabled")
	}

	sessions := service.NewSessions(s.logger)
	profiles := service.NewProfiles(s.logger)
	tracker := service.NewTracker(s.logger, s.now)
	rewards := service.NewRewards(s.catalog, s.logger, s.now)

	sessionHandler := handler.NewSessionHandler(sessions, profiles, s.tokens, github, s.logger)
	profileHandler := handler.NewProfileHandler(profiles)
	activityHandler := handler.NewActivityHandler(tracker)
	rewardsHandler := handler.NewRewardsHandler(rewards, rewardmap.Passthrough{}, s.logger)
	catalogHandler := handler.NewCatalogHandler(s.catalog, s.now)
	energyHandler := handler.NewEnergyHandler(s.feed, s.logger)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Reference data needs no storage.
	s.router.Route("/api/catalog", func(r chi.Router) {
		r.Get("/routes", catalogHandler.HandleRoutes)
		r.Get("/stores", catalogHandler.HandleStores)
		r.Get("/tips", catalogHandler.HandleTips)
		r.Get("/recommendations", catalogHandler.HandleRecommendations)
		r.Get("/local-activities", catalogHandler.HandleLocalActivities)
		r.Get("/choices", catalogHandler.HandleChoices)
	})
	s.router.Get("/api/energy/grid", energyHandler.HandleGrid)

	s.router.Group(func(r chi.Router) {
		r.Use(middleware.StoreScope(s.provider, s.logger))

		r.Post("/api/session", sessionHandler.HandleBegin)
		r.Get("/api/leaderboard", rewardsHandler.HandleLeaderboard)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/logout", sessionHandler.HandleLogout)
			r.Get("/github/login", sessionHandler.HandleGitHubLogin)
			r.Get("/github/callback", sessionHandler.HandleGitHubCallback)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(s.tokens))
			r.Use(middleware.RequireSession(sessions, s.logger))

			r.Get("/api/me", profileHandler.HandleGet)
			r.Patch("/api/me", profileHandler.HandleUpdate)

			r.Route("/api/activities", func(r chi.Router) {
				r.Get("/", activityHandler.HandleList)
				r.Post("/transport", activityHandler.HandleTransport)
				r.Post("/food", activityHandler.HandleFood)
				r.Post("/energy", activityHandler.HandleEnergy)
			})
			r.Get("/api/summary", activityHandler.HandleSummary)
			r.Get("/api/trend", activityHandler.HandleTrend)
			r.Get("/api/achievements", rewardsHandler.HandleAchievements)

			r.Get("/api/bus-rides", rewardsHandler.HandleListBusRides)
			r.Post("/api/bus-rides", rewardsHandler.HandleRecordBusRide)
			r.Post("/api/local-activities/{name}/join", rewardsHandler.HandleJoinLocalActivity)

			r.Get("/api/rewards/map", rewardsHandler.HandleMap)
			r.Get("/api/rewards/stores", rewardsHandler.HandleStores)
		})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests and
// closes storage.
func (s *Server) Start() error {
	defer func() {
		if err := s.provider.Close(); err != nil {
			s.logger.Warn("closing storage", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("store", s.config.StoreDriver),
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
