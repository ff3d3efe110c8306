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

	"github.com/rs/zerolog"

	"github.com/ntentasd/roomsense/internal/cache"
	"github.com/ntentasd/roomsense/internal/compliance"
	"github.com/ntentasd/roomsense/internal/config"
	"github.com/ntentasd/roomsense/internal/db"
	"github.com/ntentasd/roomsense/internal/kafka"
	"github.com/ntentasd/roomsense/internal/pipeline"
	"github.com/ntentasd/roomsense/internal/routes"
	"github.com/ntentasd/roomsense/internal/tracing"
	"github.com/ntentasd/roomsense/internal/worker"
)

const kafkaPartitions = 3

// backends holds the optional stores a run publishes to. A backend is
// skipped when it is not configured.
type backends struct {
	store     *db.DB
	cache     cache.Cache
	publisher *kafka.Publisher
	sinks     []pipeline.Sink
	logger    zerolog.Logger
}

func openBackends(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*backends, error) {
	b := &backends{logger: logger}

	if len(cfg.ScyllaNodes) > 0 {
		sess, err := db.Connect(cfg.ScyllaNodes, cfg.ScyllaKeyspace)
		if err != nil {
			return nil, err
		}
		b.store = db.New(sess)
		if err := b.store.EnsureSchema(ctx); err != nil {
			b.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		b.sinks = append(b.sinks, db.NewSink(b.store))
		logger.Info().Strs("nodes", cfg.ScyllaNodes).Str("keyspace", cfg.ScyllaKeyspace).Msg("connected to scylla")
	}

	c, err := cache.New(cfg.ValkeyNodes, cfg.ValkeyService, cfg.MemcachedAddr)
	switch {
	case errors.Is(err, cache.ErrNoCache):
		logger.Info().Msg("no cache configured")
	case err != nil:
		b.Close()
		return nil, err
	default:
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := c.Ping(pingCtx); err != nil {
			logger.Warn().Err(err).Msg("cache not reachable yet")
		}
		cancel()
		b.cache = c
		b.sinks = append(b.sinks, cache.NewSummarySink(c, cfg.CacheTTL))
	}

	if len(cfg.KafkaBrokers) > 0 {
		if err := kafka.EnsureTopics(cfg.KafkaBrokers, kafkaPartitions, logger, cfg.KafkaTopic, cfg.KafkaSummaryTopic); err != nil {
			logger.Warn().Err(err).Msg("failed to ensure kafka topics")
		}
		pub, err := kafka.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaSummaryTopic)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.publisher = pub
		b.sinks = append(b.sinks, pub)
	}

	return b, nil
}

func (b *backends) Close() {
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			b.logger.Warn().Err(err).Msg("failed to close kafka producer")
		}
	}
	if b.cache != nil {
		b.cache.Close()
	}
	if b.store != nil {
		b.store.Close()
	}
}

// runStore avoids handing routes a typed nil.
func (b *backends) runStore() routes.RunStore {
	if b.store == nil {
		return nil
	}
	return b.store
}

func serve(ctx context.Context, cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracer(ctx, cfg.TempoEndpoint, tracing.ServiceName)
	if err != nil {
		logger.Warn().Err(err).Msg("tracing disabled")
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("failed to flush traces")
			}
		}()
	}

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close()

	runner, err := newRunner(cfg, logger, b.sinks...)
	if err != nil {
		return err
	}
	policy, err := compliance.ByName(cfg.Policy)
	if err != nil {
		return err
	}

	app := routes.New(b.cache, b.runStore(), runner, policy, logger)
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           routes.NewMux(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if cfg.RunInterval > 0 {
		sv := worker.NewSupervisor(runner, cfg.RunInterval, logger)
		sv.Start(ctx)
		defer sv.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
