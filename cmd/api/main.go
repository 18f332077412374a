package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/scythe504/trivia-backend/internal/auth"
	"github.com/scythe504/trivia-backend/internal/config"
	"github.com/scythe504/trivia-backend/internal/database"
	"github.com/scythe504/trivia-backend/internal/game"
	"github.com/scythe504/trivia-backend/internal/leaderboard"
	"github.com/scythe504/trivia-backend/internal/questions"
	"github.com/scythe504/trivia-backend/internal/server"
	"github.com/scythe504/trivia-backend/internal/store"
	"github.com/scythe504/trivia-backend/internal/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{Level: cfg.LogLevel, TimeFormat: time.Kitchen}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		docs   store.Store
		checks []server.HealthChecker
	)
	if cfg.DatabaseURL != "" {
		db, err := database.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.InitSchema(ctx); err != nil {
			return err
		}
		docs = db
		checks = append(checks, db)
	} else {
		logger.Warn("[main] DATABASE_URL not set, using in-memory store")
		docs = store.NewMemory()
	}

	if cfg.QuestionsSeedFile != "" {
		seed, err := utils.ReadQuestionsCsvFile(cfg.QuestionsSeedFile, cfg.DefaultTimeLimit, logger)
		if err != nil {
			return err
		}
		if err := docs.UpsertQuestions(ctx, seed); err != nil {
			return fmt.Errorf("seed questions: %w", err)
		}
		logger.Info("[main] seeded questions", "count", len(seed), "file", cfg.QuestionsSeedFile)
	}

	var board leaderboard.Board = leaderboard.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		redisBoard := leaderboard.NewRedis(rdb)
		board = redisBoard
		checks = append(checks, redisBoard)
	} else {
		logger.Warn("[main] REDIS_ADDR not set, leaderboard disabled")
	}

	var verifier auth.Verifier
	switch cfg.AuthMode {
	case "dev":
		logger.Warn("[main] AUTH_MODE=dev accepts dev:<userId> tokens")
		verifier = auth.DevVerifier{}
	default:
		verifier = auth.NewRemoteVerifier(cfg.IdentityURL, &http.Client{Timeout: 5 * time.Second})
	}

	api := questions.NewOpenTDB(cfg.QuestionAPIURL, &http.Client{Timeout: cfg.QuestionAPITimeout}, cfg.Categories)
	provider := questions.NewProvider(docs, api, cfg.DefaultTimeLimit, logger)

	var deadline game.DeadlineFunc
	if cfg.DeadlineEnabled {
		deadline = game.QuestionDeadline(cfg.DeadlineGrace)
	}

	hub := game.NewHub(logger)
	coord := game.NewCoordinator(
		game.NewRegistry(docs, cfg.Categories, logger),
		game.NewEngine(docs, provider, board, logger),
		hub, deadline, logger,
	)
	defer coord.Close()

	srv := server.NewServer(server.New(server.Options{
		Port:           cfg.Port,
		Coordinator:    coord,
		WebSocket:      game.NewWebSocketHandler(coord, hub, verifier, cfg.AllowedOrigins, logger),
		Leaderboard:    board,
		Categories:     cfg.Categories,
		Verifier:       verifier,
		HealthChecks:   checks,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	}))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("[main] listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("[main] shutting down gracefully, press Ctrl+C again to force")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("[main] graceful shutdown complete")
	return nil
}
