package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/scythe504/trivia-backend/internal/auth"
	"github.com/scythe504/trivia-backend/internal/config"
	"github.com/scythe504/trivia-backend/internal/game"
	"github.com/scythe504/trivia-backend/internal/leaderboard"
)

// HealthChecker reports the state of one backing service.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

type Server struct {
	port int

	coord          *game.Coordinator
	ws             http.Handler
	board          leaderboard.Board
	categories     config.Categories
	verifier       auth.Verifier
	checks         []HealthChecker
	allowedOrigins []string
	logger         *slog.Logger
}

type Options struct {
	Port           int
	Coordinator    *game.Coordinator
	WebSocket      http.Handler
	Leaderboard    leaderboard.Board
	Categories     config.Categories
	Verifier       auth.Verifier
	HealthChecks   []HealthChecker
	AllowedOrigins []string
	Logger         *slog.Logger
}

func New(opts Options) *Server {
	board := opts.Leaderboard
	if board == nil {
		board = leaderboard.Noop{}
	}
	return &Server{
		port:           opts.Port,
		coord:          opts.Coordinator,
		ws:             opts.WebSocket,
		board:          board,
		categories:     opts.Categories,
		verifier:       opts.Verifier,
		checks:         opts.HealthChecks,
		allowedOrigins: opts.AllowedOrigins,
		logger:         opts.Logger,
	}
}

// NewServer builds the HTTP server for s. Write timeout stays off so
// websocket connections are not cut.
func NewServer(s *Server) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}
}
