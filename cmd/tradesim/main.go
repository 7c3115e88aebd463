package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/efreitasn/tradesim/internal/config"
	"github.com/efreitasn/tradesim/internal/domain"
	"github.com/efreitasn/tradesim/internal/engine"
	"github.com/efreitasn/tradesim/internal/handler"
	"github.com/efreitasn/tradesim/internal/service"
	"github.com/efreitasn/tradesim/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		os.Exit(runHealthcheck(port))
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	registry, err := domain.NewRegistry(cfg.Instruments)
	if err != nil {
		logger.Error("invalid instrument universe", slog.String("error", err.Error()))
		os.Exit(1)
	}

	accountStore := store.NewAccountStore()
	orderStore := store.NewOrderStore()
	tradeStore := store.NewTradeStore()
	webhookStore := store.NewWebhookStore()

	executor := engine.NewExecutor(registry, accountStore, orderStore, tradeStore)
	simulator := engine.NewSimulator(cfg.TickInterval, cfg.MaxDeltaPercent, registry, nil, logger)

	webhookSvc := service.NewWebhookService(webhookStore, accountStore, cfg.WebhookTimeout, logger)
	router := handler.NewRouter(handler.Services{
		Accounts: service.NewAccountService(accountStore, orderStore, registry),
		Market:   service.NewMarketService(registry, tradeStore),
		Orders:   service.NewOrderService(executor, orderStore, webhookSvc),
		Webhooks: webhookSvc,
	}, cfg.Currency, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	simulator.Start(ctx)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.Int("instruments", registry.Len()),
			slog.String("currency", cfg.Currency),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Stop accepting orders before the market stops moving.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	simulator.Stop()
	cancel()

	logger.Info("server stopped")
}

// runHealthcheck returns the process exit code for a GET /healthz request.
func runHealthcheck(port string) int {
	resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
	if err != nil {
		return 1
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 1
	}
	return 0
}

func newLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
}
