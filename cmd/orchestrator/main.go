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

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jcmexdev/airline-sagas/internal/coordinator"
	"github.com/jcmexdev/airline-sagas/internal/coordinator/bookinglog"
	"github.com/jcmexdev/airline-sagas/internal/coordinator/bookinglog/sqlite"
	"github.com/jcmexdev/airline-sagas/internal/orchestrator/infra/adapters/rest"
	"github.com/jcmexdev/airline-sagas/internal/orchestrator/infra/httpx"
	"github.com/jcmexdev/airline-sagas/internal/pkg/config"
	"github.com/jcmexdev/airline-sagas/internal/pkg/events"
	"github.com/jcmexdev/airline-sagas/internal/pkg/metrics"
	"github.com/jcmexdev/airline-sagas/internal/pkg/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load("orchestrator", "8000")
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

	var store bookinglog.Store
	if cfg.SQLitePath != "" {
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			slog.Error("failed to open booking log", "path", cfg.SQLitePath, "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = db
		slog.Info("using sqlite booking log", "path", cfg.SQLitePath)
	} else {
		store = bookinglog.NewMemoryStore()
		slog.Info("using in-memory booking log")
	}

	seats := rest.NewSeatClient(cfg.SeatServiceURL, cfg.ClientTimeout)
	payments := rest.NewPaymentClient(cfg.PaymentServiceURL, cfg.ClientTimeout)
	allocations := rest.NewAllocationClient(cfg.AllocationServiceURL, cfg.ClientTimeout)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.KafkaTopic != "" && len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kp.Close()
		publisher = kp
		slog.Info("publishing booking events", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	reg := prometheus.NewRegistry()
	saga := metrics.NewSaga(reg)

	engine := coordinator.NewEngine(store, seats, payments, allocations,
		coordinator.WithPublisher(publisher),
		coordinator.WithMetrics(saga),
	)

	handler := httpx.NewBookingHandler(engine, store)
	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: httpx.NewRouter(handler, reg),
	}

	go func() {
		slog.Info("orchestrator listening", "addr", cfg.Addr())
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
