package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/valentine-be/internal/auth"
	"github.com/hongminglow/valentine-be/internal/config"
	"github.com/hongminglow/valentine-be/internal/flow"
	"github.com/hongminglow/valentine-be/internal/http/handlers"
	"github.com/hongminglow/valentine-be/internal/middleware"
	"github.com/hongminglow/valentine-be/internal/session"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg config.Config, authn *auth.Authenticator, engine *flow.Engine, logger *slog.Logger) *Server {
	return &Server{inner: &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           Handler(cfg, authn, engine, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}}
}

// Handler builds the full middleware and route stack.
func Handler(cfg config.Config, authn *auth.Authenticator, engine *flow.Engine, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	health := handlers.NewHealthHandler(time.Now(), authn.Mode())
	health.Register(mux)

	tokenManager := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	sessions := session.NewRegistry()
	authHandler := handlers.NewAuthHandler(authn, engine, sessions, tokenManager, logger)
	authHandler.Register(mux)
	flowHandler := handlers.NewFlowHandler(engine, sessions, tokenManager, logger)
	flowHandler.Register(mux)

	return middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux))
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
