package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"reserveguard/internal/actionlog"
	"reserveguard/internal/actionlog/kafka"
	"reserveguard/internal/compliance"
	"reserveguard/internal/moderation/metrics"
	"reserveguard/internal/platform/config"
	"reserveguard/internal/platform/logger"
	platformmetrics "reserveguard/internal/platform/metrics"
	"reserveguard/internal/platform/postgres"
	platformredis "reserveguard/internal/platform/redis"
	"reserveguard/internal/prover"
	"reserveguard/internal/storage"
	"reserveguard/internal/storage/file"
	pgstore "reserveguard/internal/storage/postgres"
	redisstore "reserveguard/internal/storage/redis"
	s3store "reserveguard/internal/storage/s3"
	dErrors "reserveguard/pkg/domain-errors"
	"reserveguard/pkg/platform/circuit"
)

// app is everything a command needs, built from the environment.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	service  *compliance.Service
	closers  []func()

	// breakPublisher guards the broker with a circuit breaker. Only a
	// long-running server publishes often enough for the breaker to trip.
	breakPublisher bool
}

type appOption func(*app)

// withPublisherBreaker wraps the Kafka publisher in a circuit breaker.
func withPublisherBreaker() appOption {
	return func(a *app) {
		a.breakPublisher = true
	}
}

func newApp(ctx context.Context, errOut io.Writer, opts ...appOption) (*app, error) {
	cfg := config.FromEnv()
	a := &app{
		cfg:      cfg,
		logger:   logger.New(errOut, cfg.LogLevel, cfg.LogFormat),
		registry: platformmetrics.NewRegistry(),
	}
	for _, opt := range opts {
		opt(a)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	svcOpts := []compliance.Option{
		compliance.WithLogger(a.logger),
		compliance.WithMetrics(metrics.New(a.registry)),
		compliance.WithPolicyPath(cfg.PolicyPath),
	}

	p, err := a.buildProver()
	if err != nil {
		a.close()
		return nil, err
	}
	if p != nil {
		svcOpts = append(svcOpts, compliance.WithProver(p))
	}

	publisher, err := a.buildPublisher()
	if err != nil {
		a.close()
		return nil, err
	}
	svcOpts = append(svcOpts, compliance.WithPublisher(publisher))

	a.service, err = compliance.New(store, svcOpts...)
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (storage.DocumentStore, error) {
	switch a.cfg.Backend {
	case config.BackendFile:
		return file.New(a.cfg.StateDir), nil
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, a.cfg.Postgres)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistence, "open postgres")
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		store := pgstore.New(db)
		if err := store.Migrate(ctx); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistence, "migrate postgres")
		}
		return store, nil
	case config.BackendRedis:
		client, err := platformredis.New(ctx, a.cfg.Redis)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistence, "open redis")
		}
		if client == nil {
			return nil, dErrors.New(dErrors.CodeValidation, "RESERVEGUARD_REDIS_URL is required for the redis backend")
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return redisstore.New(client.Client, redisstore.WithKeyPrefix(a.cfg.Redis.KeyPrefix)), nil
	case config.BackendS3:
		store, err := s3store.New(ctx, s3store.Config{
			Endpoint:  a.cfg.S3.Endpoint,
			AccessKey: a.cfg.S3.AccessKey,
			SecretKey: a.cfg.S3.SecretKey,
			Bucket:    a.cfg.S3.Bucket,
			Prefix:    a.cfg.S3.Prefix,
			UseSSL:    a.cfg.S3.UseSSL,
		})
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodePersistence, "open s3")
		}
		return store, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown backend %q", a.cfg.Backend)
	}
}

func (a *app) buildProver() (prover.Prover, error) {
	switch a.cfg.Prover.Mode {
	case "", "none":
		return nil, nil
	case "local":
		return prover.NewLocal(), nil
	case "exec":
		return prover.NewExec(a.cfg.Prover.Command,
			prover.WithLogger(a.logger),
			prover.WithTimeout(a.cfg.Prover.Timeout),
		)
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown prover mode %q", a.cfg.Prover.Mode)
	}
}

func (a *app) buildPublisher() (actionlog.Publisher, error) {
	if len(a.cfg.Kafka.Brokers) == 0 {
		return actionlog.NopPublisher{}, nil
	}
	publisher, err := kafka.New(a.cfg.Kafka.Brokers, a.cfg.Kafka.Topic, kafka.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)
	return a.guardPublisher(publisher), nil
}

func (a *app) guardPublisher(publisher actionlog.Publisher) actionlog.Publisher {
	if !a.breakPublisher {
		return publisher
	}
	breaker := circuit.New("kafka", circuit.WithFailureThreshold(3), circuit.WithCooldown(30*time.Second))
	return actionlog.NewBreakerPublisher(publisher, breaker, a.logger)
}

// finish pushes this run's metrics and releases connections.
func (a *app) finish(ctx context.Context, command string) {
	if err := platformmetrics.Push(ctx, a.cfg.PushgatewayURL, a.registry, command); err != nil {
		a.logger.WarnContext(ctx, "metrics push failed", "error", err)
	}
	a.close()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, context.Canceled) {
		return exitFailure
	}
	switch dErrors.CodeOf(err) {
	case dErrors.CodeValidation, dErrors.CodeBadRequest, dErrors.CodeInvariantViolation:
		return exitValidation
	case dErrors.CodeNotFound:
		return exitNotFound
	case dErrors.CodeConflict:
		return exitConflict
	default:
		return exitFailure
	}
}

func fail(errOut io.Writer, err error) int {
	fmt.Fprintf(errOut, "error: %v\n", err)
	return exitCode(err)
}
