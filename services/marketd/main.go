package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"nsmarket/config"
	"nsmarket/core/events"
	"nsmarket/core/state"
	"nsmarket/gateway/middleware"
	nativecommon "nsmarket/native/common"
	"nsmarket/native/market"
	"nsmarket/native/registry"
	"nsmarket/observability/logging"
	"nsmarket/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "config.toml", "path to the marketd configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.Setup("marketd", cfg.Environment, logging.Options{
		Level: cfg.LogLevel,
		Path:  cfg.LogPath,
	})

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("open state database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	var store *SQLiteStore
	if cfg.AuditDatabasePath != "" {
		store, err = NewSQLiteStore(cfg.AuditDatabasePath)
		if err != nil {
			logger.Error("open audit database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer store.Close()
	}

	treasury, err := market.ParseAddress(cfg.TreasuryAddress)
	if err != nil {
		logger.Error("parse treasury address", slog.String("error", err.Error()))
		os.Exit(1)
	}

	manager := state.NewManager(db)
	ledger := registry.NewLedger(manager)

	engine, err := market.NewEngine(cfg.FeeBps, treasury)
	if err != nil {
		logger.Error("construct engine", slog.String("error", err.Error()))
		os.Exit(1)
	}
	engine.SetState(manager)
	engine.SetRegistry(ledger)
	if len(cfg.PausedModules) > 0 {
		engine.SetPauses(nativecommon.NewPauses(cfg.PausedModules...))
		logger.Warn("modules paused at startup", slog.String("modules", strings.Join(cfg.PausedModules, ",")))
	}

	recorder := events.NewRecorder(cfg.EventBufferSize)
	emitters := fanoutEmitter{recorder}
	if store != nil {
		emitters = append(emitters, newSQLiteEmitter(store, logger))
	}
	engine.SetEmitter(emitters)

	auth := middleware.NewAuthenticator(middleware.AuthConfig{HMACSecret: cfg.AuthSecret}, logger)
	if !auth.Enabled() {
		logger.Warn("authentication disabled: no AuthSecret configured")
	}
	limiter := middleware.NewRateLimiter(rateLimits(cfg))
	obs := middleware.NewObservability(middleware.ObservabilityConfig{LogRequests: true}, logger)

	server := NewServer(engine, ledger, recorder, store, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddress,
		Handler:           server.Handler(auth, limiter, obs),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("marketd listening", slog.String("address", cfg.ListenAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down marketd")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

func rateLimits(cfg *config.Config) map[string]middleware.RateLimit {
	if cfg.RateLimitPerMin <= 0 {
		return nil
	}
	perSecond := float64(cfg.RateLimitPerMin) / 60.0
	burst := cfg.RateLimitPerMin / 10
	if burst < 1 {
		burst = 1
	}
	return map[string]middleware.RateLimit{
		"market-read":  {RatePerSecond: perSecond * 4, Burst: burst * 4},
		"market-write": {RatePerSecond: perSecond, Burst: burst},
	}
}
