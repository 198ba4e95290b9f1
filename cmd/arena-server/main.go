package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-arena/internal/archive"
	"github.com/park285/chess-arena/internal/arena"
	appcfg "github.com/park285/chess-arena/internal/config"
	"github.com/park285/chess-arena/internal/coord"
	"github.com/park285/chess-arena/internal/msgcat"
	"github.com/park285/chess-arena/internal/obslog"
	"github.com/park285/chess-arena/internal/rules"
	"github.com/park285/chess-arena/internal/ws"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	cat, err := msgcat.New(cfg.MsgTemplateDir)
	if err != nil {
		obslog.L().Fatal("msgcat_init_error", zap.Error(err))
	}

	registry := arena.NewRegistry(nil)
	registry.SetLimit(cfg.MaxConcurrentGames)
	hub := ws.NewHub()

	coordinator := coord.New(registry, rules.NewChessOracle(), hub)
	coordinator.AttachCatalog(cat)

	sink := buildSink(cfg)
	coordinator.AttachSink(sink)
	defer func() { _ = sink.Close() }()

	mux := http.NewServeMux()
	mux.Handle("/ws", ws.NewServer(coordinator, hub, cfg.AllowedOrigins))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		obslog.L().Info("server_start", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			obslog.L().Fatal("server_error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	obslog.L().Info("server_shutdown")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		obslog.L().Warn("server_shutdown_error", zap.Error(err))
	}
}

// buildSink assembles the completed-game archive from whatever stores
// are configured: postgres and/or redis, fanned out; neither means a
// no-op sink and games are kept in memory only.
func buildSink(cfg *appcfg.AppConfig) archive.Sink {
	var sinks []archive.Sink
	if cfg.DatabaseURL != "" {
		pg, err := archive.NewPostgresSink(cfg.DatabaseURL)
		if err != nil {
			obslog.L().Fatal("postgres_init_error", zap.Error(err))
		}
		sinks = append(sinks, pg)
		obslog.L().Info("archive_postgres_enabled")
	}
	if cfg.RedisURL != "" {
		rs, err := archive.NewRedisSink(cfg.RedisURL, cfg.ArchiveTTL)
		if err != nil {
			obslog.L().Fatal("redis_init_error", zap.Error(err))
		}
		sinks = append(sinks, rs)
		obslog.L().Info("archive_redis_enabled", zap.Duration("ttl", cfg.ArchiveTTL))
	}
	switch len(sinks) {
	case 0:
		return archive.NopSink{}
	case 1:
		return sinks[0]
	default:
		return archive.MultiSink(sinks)
	}
}
