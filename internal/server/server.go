package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	v1 "github.com/mbuy/stores/internal/api/v1"
	"github.com/mbuy/stores/internal/api/ws"
	"github.com/mbuy/stores/internal/auth"
	"github.com/mbuy/stores/internal/config"
	"github.com/mbuy/stores/internal/metrics"
	"github.com/mbuy/stores/internal/onboarding"
	"github.com/mbuy/stores/internal/server/middleware"
	"github.com/mbuy/stores/internal/storefront"
)

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	wsHub      *ws.Hub
	stores     *storefront.Handler
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds the background
// cleanup of the rate limiters.
func New(ctx context.Context, cfg *config.Config, sessions *auth.Sessions, svc *onboarding.Service, renderer *storefront.Renderer, broker ws.Broker) *Server {
	router := chi.NewRouter()

	// Global middleware stack. Host routing runs before route matching so a
	// store subdomain is served from /store/{slug}.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", middleware.SessionHeader},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	router.Use(middleware.HostRouting(cfg.MainDomain))

	hub := ws.NewHub(broker, svc)

	s := &Server{
		router: router,
		wsHub:  hub,
		stores: storefront.NewHandler(renderer, nil),
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Mount the onboarding API with two sub-groups:
	// 1. Unauthenticated group for session bootstrap.
	// 2. Session-authenticated group for the wizard operations.
	router.Route("/api/onboarding", func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst))

		r.Group(func(r chi.Router) {
			sessionConfig := huma.DefaultConfig("mbuy Onboarding Sessions API", "1.0.0")
			sessionConfig.Servers = []*huma.Server{
				{URL: "/api/onboarding"},
			}
			// Docs are served by the wizard API below.
			sessionConfig.OpenAPIPath = ""
			sessionConfig.DocsPath = ""
			sessionConfig.SchemasPath = ""
			sessionAPI := humachi.New(r, sessionConfig)
			v1.RegisterSessionRoutes(sessionAPI, sessions, svc)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.OnboardingSession(sessions))
			r.Use(middleware.RateLimitBySession(ctx, cfg.RateLimit.RPS, cfg.RateLimit.Burst))

			apiConfig := huma.DefaultConfig("mbuy Onboarding API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/onboarding"},
			}
			api := humachi.New(r, apiConfig)
			v1.RegisterOnboardingRoutes(api, svc, hub)
		})
	})

	// WebSocket routes.
	router.Route("/ws", func(r chi.Router) {
		r.Use(middleware.OnboardingSession(sessions))
		registerWSRoutes(r, hub)
	})

	registerPageRoutes(router, s)
	registerStaticRoutes(router)

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	router.Handle("/metrics", metrics.Handler())

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
