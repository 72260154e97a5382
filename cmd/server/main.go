package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reclass/internal/platform/config"
	"reclass/internal/platform/httpserver"
	"reclass/internal/platform/logger"
	"reclass/internal/platform/postgres"
	platformredis "reclass/internal/platform/redis"
	"reclass/internal/reclassify"
	"reclass/internal/reclassify/adapters"
	reclassifymetrics "reclass/internal/reclassify/metrics"
	"reclass/internal/reclassify/store"
	"reclass/internal/runlock"
	httptransport "reclass/internal/transport/http"
	"reclass/pkg/platform/audit"
	auditkafka "reclass/pkg/platform/audit/publishers/kafka"
	auditpg "reclass/pkg/platform/audit/store/postgres"
	auditworker "reclass/pkg/platform/audit/worker"
	"reclass/pkg/platform/middleware/auth"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal/reclassify.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresURL)
	if err != nil {
		log.Error("record store unavailable", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	source, err := store.ResolveClassification(ctx, db, cfg.SourceClassification)
	if err != nil {
		log.Error("resolve source classification", "error", err)
		os.Exit(1)
	}
	target, err := store.ResolveClassification(ctx, db, cfg.TargetClassification)
	if err != nil {
		log.Error("resolve target classification", "error", err)
		os.Exit(1)
	}

	// Multi-currency needs both the feature flag and the schema attribute.
	multiCurrency := cfg.MultiCurrency
	if multiCurrency {
		hasCurrency, err := store.HasCurrencyAttribute(ctx, db)
		if err != nil {
			log.Error("probe currency attribute", "error", err)
			os.Exit(1)
		}
		if !hasCurrency {
			log.Warn("multi-currency enabled but store has no currency attribute; disabling")
			multiCurrency = false
		}
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis unavailable", "error", err)
		os.Exit(1)
	}

	var lock reclassify.RunLocker = runlock.NewMemoryLock()
	if redisClient != nil {
		defer redisClient.Close()
		lock = runlock.NewRedisLock(redisClient.Client, runlock.DefaultTTL)
	}

	// Audit trail: durable Postgres store, plus Kafka when configured.
	auditStore, err := auditpg.New(ctx, db)
	if err != nil {
		log.Error("audit store unavailable", "error", err)
		os.Exit(1)
	}
	emitters := audit.FanOut{audit.NewPublisher(auditStore)}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := auditkafka.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka audit publisher unavailable", "error", err)
			os.Exit(1)
		}
		defer kafkaPublisher.Close()
		emitters = append(emitters, kafkaPublisher)
	}

	inbox := auditworker.NewInbox(4096)
	worker := auditworker.NewWorker(emitters, inbox.Chan(), log)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		_ = worker.Run(workerCtx)
	}()

	recordStore := store.NewPostgresStore(db, source)
	pipeline, err := reclassify.NewService(
		recordStore,
		recordStore,
		recordStore,
		adapters.NewLogSink(log),
		lock,
		inbox,
		reclassifymetrics.New(),
		log,
		reclassify.Config{
			BatchSize:     cfg.BatchSize,
			EvalWorkers:   cfg.EvalWorkers,
			MultiCurrency: multiCurrency,
			Target:        target,
		},
	)
	if err != nil {
		log.Error("pipeline wiring failed", "error", err)
		os.Exit(1)
	}

	checks := map[string]httptransport.HealthChecker{
		"postgres": httptransport.HealthCheckFunc(db.PingContext),
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}

	validator := auth.NewValidator(cfg.JWTSigningKey, cfg.AdminTokenHash)
	handler := httptransport.NewHandler(pipeline, log, checks)
	router := httptransport.NewRouter(handler, validator, log)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting reclass",
		"addr", cfg.Addr,
		"source_classification", cfg.SourceClassification,
		"target_classification", cfg.TargetClassification,
		"batch_size", cfg.BatchSize,
		"multi_currency", multiCurrency,
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}

	stopWorker()
	<-workerDone
}
