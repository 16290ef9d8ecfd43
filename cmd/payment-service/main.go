package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	paymentservice "github.com/jcmexdev/airline-sagas/internal/payment-service/app"
	"github.com/jcmexdev/airline-sagas/internal/pkg/cache"
	"github.com/jcmexdev/airline-sagas/internal/pkg/config"
	"github.com/jcmexdev/airline-sagas/internal/pkg/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("payment-service", "8002")
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	telemetry.InitLogger(cfg.ServiceName)

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		slog.Error("failed to initialise tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	var opts []paymentservice.Option
	if cfg.RedisAddr != "" {
		opts = append(opts, paymentservice.WithCache(cache.NewRedisCache(cfg.RedisAddr, "payment")))
		slog.Info("mirroring payments in redis", "addr", cfg.RedisAddr)
	}
	svc := paymentservice.NewService(opts...)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: svc.Router(),
	}

	go func() {
		slog.Info("payment service listening", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}
}
