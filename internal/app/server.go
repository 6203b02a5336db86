package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/moskvinegor321/Project-analyzer/internal/api/handlers"
	appMiddleware "github.com/moskvinegor321/Project-analyzer/internal/api/middlewares"
	"github.com/moskvinegor321/Project-analyzer/internal/config"
	"github.com/moskvinegor321/Project-analyzer/internal/core"
	"github.com/moskvinegor321/Project-analyzer/internal/services"
)

const rateLimitClients = 10000

// Handlers are the services the HTTP surface exposes.
type Handlers struct {
	Analyze   *services.AnalyzeService
	Reviews   *services.ReviewService
	Docs      services.DocsFetcher
	Publisher *services.NotionPublisher
	Notifier  core.Notifier
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, log *slog.Logger, h Handlers) (*Server, error) {
	router, err := NewRouter(cfg, log, h)
	if err != nil {
		return nil, err
	}
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &Server{httpServer: httpSrv, log: log}, nil
}

func NewRouter(cfg *config.Config, log *slog.Logger, h Handlers) (http.Handler, error) {
	limiter, err := appMiddleware.NewRateLimiter(cfg.RateLimitWindow, rateLimitClients)
	if err != nil {
		return nil, err
	}

	analyzeHandler := handlers.NewAnalyzeHandler(h.Analyze, log)
	docsHandler := handlers.NewDocumentationHandler(h.Docs, log)
	notionHandler := handlers.NewNotionHandler(h.Publisher, log)
	reviewHandler := handlers.NewReviewHandler(h.Reviews, log)
	telegramHandler := handlers.NewTelegramHandler(h.Reviews, h.Notifier, log)
	authHandler := handlers.NewAuthHandler(cfg.APIJWTSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	var origins []string
	if cfg.AppURL != "" {
		origins = []string{cfg.AppURL}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/healthz", handlers.Health)

	// API routes
	r.Route("/api", func(api chi.Router) {
		// bearer-protected when API_JWT_SECRET is set
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware(cfg.APIJWTSecret))

			// long-lived event stream, no request timeout
			protected.With(limiter.Middleware).Post("/analyze", analyzeHandler.Analyze)

			protected.Group(func(short chi.Router) {
				short.Use(middleware.Timeout(60 * time.Second))
				short.Post("/documentation", docsHandler.Fetch)
				short.Post("/notion", notionHandler.CreatePage)
				short.Get("/review/{id}", reviewHandler.Get)
			})
		})

		api.With(appMiddleware.RequireSecret("X-Telegram-Bot-Api-Secret-Token", cfg.TelegramWebhookSecret, http.StatusForbidden)).
			Post("/telegram/webhook", telegramHandler.Webhook)

		api.Group(func(internal chi.Router) {
			internal.Use(appMiddleware.RequireSecret("X-Internal-Secret", cfg.InternalAPISecret, http.StatusUnauthorized))
			internal.Post("/telegram/send", telegramHandler.Send)
			internal.Post("/auth/token", authHandler.IssueToken)
		})
	})

	return r, nil
}

// Start runs the HTTP server until Shutdown.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
