package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mbuy/stores/internal/api/ws"
	"github.com/mbuy/stores/internal/auth"
	"github.com/mbuy/stores/internal/backend"
	"github.com/mbuy/stores/internal/config"
	"github.com/mbuy/stores/internal/onboarding"
	"github.com/mbuy/stores/internal/server"
	"github.com/mbuy/stores/internal/storefront"
	redisstore "github.com/mbuy/stores/internal/store/redis"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	// Initialize structured logging from environment.
	level, parseErr := zerolog.ParseLevel(os.Getenv("MBUY_LOG_LEVEL"))
	if parseErr != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("MBUY_LOG_FORMAT") == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	// Load configuration from environment.
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Drafts and chat fan-out live in Redis when configured, in process otherwise.
	var (
		drafts onboarding.DraftStore
		broker ws.Broker
	)
	if cfg.Redis.Enabled() {
		rdb, redisErr := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if redisErr != nil {
			return redisErr
		}
		defer rdb.Close()

		drafts = rdb.Drafts(cfg.Onboarding.DraftTTL)
		broker = rdb
		log.Info().Str("addr", cfg.Redis.Addr).Msg("onboarding drafts in redis")
	} else {
		mem := onboarding.NewMemoryStore(cfg.Onboarding.DraftTTL)
		go mem.Sweep(ctx, time.Hour)

		drafts = mem
		broker = ws.NewLocalBroker()
		log.Warn().Msg("MBUY_REDIS_ADDR not set; onboarding drafts are kept in memory")
	}

	be := backend.New(cfg.Backend.URL, cfg.Backend.Timeout)
	sessions := auth.NewSessions(cfg.Session.Secret, cfg.Session.TTL)
	svc := onboarding.NewService(drafts, be, cfg.MainDomain, cfg.Onboarding.ChatReplyDelay)

	// Create HTTP server with all routes wired.
	srv := server.New(ctx, cfg, sessions, svc, storefront.NewRenderer(be), broker)

	// Start server in background goroutine.
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("main_domain", cfg.MainDomain).Msg("starting server")
		if startErr := srv.Start(ctx); startErr != nil {
			log.Error().Err(startErr).Msg("server error")
			cancel()
		}
	}()

	// Block until shutdown signal.
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Msg("stopped")
	return nil
}
