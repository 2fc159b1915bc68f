package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/config"
	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/auth"
	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/cache"
	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/moderation"
	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/pipeline"
	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/postgres"
	httpx "github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/transport/http"
	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/internal/transport/ws"
	"github.com/nrashmi06/Intra-Organizational-Mental-Health-Care-sub001/pkg/logger"
)

func main() {
	// --- config ---
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger.Init(logger.Config{
		Env:       logger.Env(cfg.Logging.Env),
		Service:   cfg.Logging.Service,
		Version:   cfg.Logging.Version,
		Backend:   logger.Backend(cfg.Logging.Backend),
		AddSource: cfg.Logging.AddSource,
		Debug:     cfg.Logging.Debug,
	})
	lg := logger.L()
	slog.Info("starting chat-service",
		"env", cfg.Logging.Env, "version", cfg.Logging.Version)

	// --- postgres ---
	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer db.Close()

	// --- repos ---
	roomRepo := postgres.NewRoomRepository(db.Pool)
	userRepo := postgres.NewUserRepository(db.Pool)
	msgRepo := postgres.NewMessageRepository(db.Pool)

	// --- room-scoped lookup cache ---
	sessionCache := cache.NewSessionCache(roomRepo, userRepo)

	// --- moderation gate ---
	blocklist, err := moderation.NewBlocklist(cfg.Chat.Moderation.BlockedWords, lg)
	if err != nil {
		log.Fatalf("moderation blocklist: %v", err)
	}
	gate := moderation.NewGate(blocklist,
		cfg.Chat.Moderation.Timeout, cfg.Chat.Moderation.FailOpen, lg)

	// --- async persistence pipeline ---
	queue := pipeline.NewQueue()
	batcher := pipeline.NewBatcher(queue, msgRepo, cfg.Chat.DepthWarnAbove, lg)
	counter := pipeline.NewCounter(userRepo, lg)

	// --- hub & ws server ---
	hub := ws.NewHub(lg)
	hub.OnEvict(sessionCache.PurgeRoom)

	verifier := auth.NewVerifier(cfg.Auth.JWTSecret)
	wsServer := ws.NewServer(hub, verifier, gate, sessionCache, queue, counter, lg)

	// --- periodic jobs ---
	jobs := pipeline.NewJobs(ctx, lg)
	if err := jobs.Every(cfg.Chat.DrainInterval, "message-batch-drain", batcher.DrainOnce); err != nil {
		log.Fatalf("jobs: %v", err)
	}
	if err := jobs.Every(cfg.Chat.FlushInterval, "counter-flush", counter.FlushOnce); err != nil {
		log.Fatalf("jobs: %v", err)
	}
	jobs.Start()

	// --- HTTP ---
	handler := httpx.NewHandler(hub, verifier)
	router := httpx.NewRouter(handler, wsServer)
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listen", "addr", cfg.HTTP.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal", "sig", sig)
	case err := <-errCh:
		slog.Error("server error", "err", err)
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpSrv.Shutdown(ctxShutdown)
	jobs.Stop()

	// best-effort final drain; durability before a flush is not guaranteed
	batcher.DrainOnce(ctxShutdown)
	counter.FlushOnce(ctxShutdown)

	slog.Info("stopped")
}
