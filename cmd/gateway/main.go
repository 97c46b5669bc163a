// Command gateway runs the grading-gateway HTTP service: the session,
// access-control, and job-proxy layer between the grading web front end and
// the grading backend.
//
// @title        Grading Gateway API
// @version      1.0
// @description  Session management, role gating, and asynchronous grading-job proxying.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/gradeflow/grading-gateway/docs"
	"github.com/gradeflow/grading-gateway/internal/api"
	"github.com/gradeflow/grading-gateway/internal/core/ports"
	"github.com/gradeflow/grading-gateway/internal/core/service"
	"github.com/gradeflow/grading-gateway/internal/infrastructure/backend"
	"github.com/gradeflow/grading-gateway/internal/infrastructure/config"
	mongodb "github.com/gradeflow/grading-gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/gradeflow/grading-gateway/internal/infrastructure/db/redis"
	"github.com/gradeflow/grading-gateway/internal/infrastructure/queue"
	"github.com/gradeflow/grading-gateway/internal/infrastructure/tokenstore"
	"github.com/gradeflow/grading-gateway/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, cleanup, err := buildTokenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.TokenStore.Backend).Msg("token store init failed")
	}
	defer cleanup()

	client := backend.New(cfg.Backend.BaseURL, cfg.Backend.RequestTimeout, cfg.Backend.JobTimeout, log)

	sideCalls := queue.NewRunner(0, log)
	sideCalls.Start(ctx)

	sessions := service.NewSessionManager(store, client, sideCalls, log)

	// Startup auth check runs in the background; routes observe the loading
	// state until it settles.
	go func() {
		checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		s := sessions.CheckAuthStatus(checkCtx)
		log.Info().Str("state", string(s.State)).Msg("startup auth check settled")
	}()

	e := api.NewRouter(api.Deps{
		Sessions:  sessions,
		Jobs:      client,
		Store:     store,
		LoginPath: cfg.LoginPath,
		Log:       log,
	})

	// The write timeout must outlast the job forward, or the server kills
	// long grade-posting relays before the backend answers.
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = cfg.Backend.JobTimeout + 30*time.Second
	e.Server.IdleTimeout = 2 * time.Minute

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("backend", cfg.Backend.BaseURL).Msg("gateway listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// buildTokenStore selects the persistence backend for the bearer token.
// The returned cleanup closes any underlying connection.
func buildTokenStore(ctx context.Context, cfg *config.Config) (ports.TokenStore, func(), error) {
	switch cfg.TokenStore.Backend {
	case "file":
		return tokenstore.NewFileStore(cfg.TokenStore.File), func() {}, nil

	case "redis":
		client, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, nil, err
		}
		return tokenstore.NewRedisStore(client, cfg.TokenStore.Key), func() { _ = client.Close() }, nil

	case "mongo":
		client, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(disconnectCtx)
		}
		return tokenstore.NewMongoStore(db), cleanup, nil
	}
	return nil, nil, fmt.Errorf("unknown token store backend %q", cfg.TokenStore.Backend)
}
