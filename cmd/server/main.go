package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nxt3d/smart-credentials/internal/credential"
	"github.com/nxt3d/smart-credentials/internal/credential/events"
	"github.com/nxt3d/smart-credentials/internal/credential/metrics"
	"github.com/nxt3d/smart-credentials/internal/credential/storage"
	"github.com/nxt3d/smart-credentials/internal/factory"
	"github.com/nxt3d/smart-credentials/internal/platform/config"
	"github.com/nxt3d/smart-credentials/internal/platform/httpserver"
	"github.com/nxt3d/smart-credentials/internal/platform/logger"
	"github.com/nxt3d/smart-credentials/internal/platform/otel"
	"github.com/nxt3d/smart-credentials/internal/platform/postgres"
	"github.com/nxt3d/smart-credentials/internal/platform/redis"
	"github.com/nxt3d/smart-credentials/internal/registry"
	httptransport "github.com/nxt3d/smart-credentials/internal/transport/http"
	"github.com/nxt3d/smart-credentials/pkg/domain"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()

	shutdownTracing, err := otel.Setup(ctx, "smart-credentials")
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	// Record storage: Postgres when configured, else Redis, else in-memory.
	provider := storage.NewInMemoryProvider()
	if pool, err := postgres.Connect(ctx, cfg.Postgres); err != nil {
		return err
	} else if pool != nil {
		defer pool.Close()
		if err := storage.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		provider = storage.NewPostgresProvider(pool)
		log.Info("using postgres record store")
	} else if client, err := redis.New(ctx, cfg.Redis); err != nil {
		return err
	} else if client != nil {
		defer client.Close()
		provider = storage.NewRedisProvider(client.Client)
		log.Info("using redis record store")
	}

	sinks := events.Multi{events.NewLogSink(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		var opts []events.KafkaOption
		if cfg.Kafka.Topic != "" {
			opts = append(opts, events.WithTopic(cfg.Kafka.Topic))
		}
		kafka, err := events.NewKafkaSink(cfg.Kafka.Brokers, opts...)
		if err != nil {
			return err
		}
		defer kafka.Close()
		sinks = append(sinks, kafka)
		log.Info("publishing notifications to kafka", "brokers", cfg.Kafka.Brokers)
	}

	m := metrics.New()
	resolver := registry.NewResolver(registry.NewInMemory())

	template := credential.NewTemplate(resolver, provider,
		credential.WithEvents(sinks),
		credential.WithMetrics(m),
		credential.WithLogger(log),
	)

	factoryAddr := domain.Address(os.Getenv("SMARTCRED_FACTORY_ADDR"))
	if factoryAddr.IsNull() {
		factoryAddr = "factory/main"
	}
	f := factory.New(factoryAddr, template,
		factory.WithEvents(sinks),
		factory.WithMetrics(m),
		factory.WithLogger(log),
	)

	router := httptransport.NewRouter(httptransport.NewHandler(f, log))
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting smart-credentials server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
