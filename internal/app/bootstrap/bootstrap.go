package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	campaignlifecycle "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service"
	postgresadapter "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/adapters/postgres"
	workerapp "brandreach/contexts/campaign-marketplace/campaign-lifecycle-service/application/workers"
	"brandreach/internal/platform/config"
	"brandreach/internal/platform/db"
	"brandreach/internal/platform/httpserver"
	"brandreach/internal/platform/messaging"
	"brandreach/internal/platform/otel"

	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

const shutdownTimeout = 10 * time.Second

type APIApp struct {
	server        *httpserver.Server
	postgres      *db.Postgres
	shutdownTrace func(context.Context) error
	logger        *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	shutdownTrace func(context.Context) error
	sweeper       workerapp.CampaignSweeper
	outboxRelay   workerapp.OutboxRelay
	delivery      workerapp.NotificationDeliveryConsumer
	sweepInterval time.Duration
	pollInterval  time.Duration
	logger        *slog.Logger
}

type lifecycleRuntime struct {
	cfg           config.Config
	logger        *slog.Logger
	postgres      *db.Postgres
	repo          *postgresadapter.Repository
	module        campaignlifecycle.Module
	shutdownTrace func(context.Context) error
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	rt, err := buildLifecycleRuntime(ctx, "api")
	if err != nil {
		return nil, err
	}
	server := httpserver.New(rt.module, rt.logger, httpserver.Options{
		Addr:           normalizeAddr(rt.cfg.HTTPPort),
		RateLimitRPS:   rt.cfg.RateLimitRPS,
		RateLimitBurst: rt.cfg.RateLimitBurst,
	})
	return &APIApp{
		server:        server,
		postgres:      rt.postgres,
		shutdownTrace: rt.shutdownTrace,
		logger:        rt.logger,
	}, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	rt, err := buildLifecycleRuntime(ctx, "worker")
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(rt.cfg.KafkaBrokers, rt.logger)
	if err != nil {
		_ = rt.close(ctx)
		return nil, err
	}

	clock := postgresadapter.SystemClock{}
	return &WorkerApp{
		postgres:      rt.postgres,
		shutdownTrace: rt.shutdownTrace,
		sweeper: workerapp.CampaignSweeper{
			Campaigns: rt.repo,
			Refresher: rt.module.Refresh,
			Clock:     clock,
			BatchSize: rt.cfg.SweepBatchSize,
			Disabled:  !rt.cfg.EnableCompletionSweep,
			Logger:    rt.logger,
		},
		outboxRelay: workerapp.OutboxRelay{
			Outbox:    rt.repo,
			Publisher: kafka,
			Clock:     clock,
			BatchSize: 100,
			Logger:    rt.logger,
		},
		delivery: workerapp.NotificationDeliveryConsumer{
			Subscriber:    kafka,
			Dedup:         rt.repo,
			Clock:         clock,
			ConsumerGroup: "campaign-lifecycle-notification-delivery-cg",
			DedupTTL:      7 * 24 * time.Hour,
			Disabled:      !rt.cfg.EnableNotificationDelivery,
			Logger:        rt.logger,
		},
		sweepInterval: rt.cfg.SweepInterval,
		pollInterval:  rt.cfg.PollInterval,
		logger:        rt.logger,
	}, nil
}

func buildLifecycleRuntime(ctx context.Context, process string) (*lifecycleRuntime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg).With("service", cfg.ServiceName, "process", process)
	slog.SetDefault(logger)
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	shutdownTrace, err := otel.Setup(ctx, cfg.ServiceName+"-"+process, cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return nil, err
	}

	pg, err := db.Connect(ctx, cfg.PostgresDSN, db.DefaultPoolOptions())
	if err != nil {
		_ = shutdownTrace(ctx)
		return nil, err
	}
	if err := postgresadapter.Migrate(ctx, pg.DB); err != nil {
		_ = pg.Close()
		_ = shutdownTrace(ctx)
		return nil, err
	}

	repo := postgresadapter.NewRepository(pg.DB, logger)
	module := campaignlifecycle.NewModule(campaignlifecycle.Dependencies{
		UnitOfWork:              repo,
		Campaigns:               repo,
		Invitations:             repo,
		Contents:                repo,
		Notifications:           repo,
		Statistics:              repo,
		Clock:                   postgresadapter.SystemClock{},
		IDGenerator:             postgresadapter.UUIDGenerator{},
		TxMaxAttempts:           cfg.TxMaxAttempts,
		CountDirectApplications: cfg.EnableDirectApplicationStats,
		Logger:                  logger,
	})

	return &lifecycleRuntime{
		cfg:           cfg,
		logger:        logger,
		postgres:      pg,
		repo:          repo,
		module:        module,
		shutdownTrace: shutdownTrace,
	}, nil
}

func (rt *lifecycleRuntime) close(ctx context.Context) error {
	return errors.Join(rt.postgres.Close(), rt.shutdownTrace(ctx))
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests.
func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(a.server.Start)
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func (a *APIApp) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var traceErr error
	if a.shutdownTrace != nil {
		traceErr = a.shutdownTrace(ctx)
	}
	if a.postgres != nil {
		return errors.Join(a.postgres.Close(), traceErr)
	}
	return traceErr
}

// Run starts the delivery consumer and runs the sweep and relay loops until
// ctx is cancelled. A failed cycle is logged and retried on the next tick.
func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.delivery.Start(ctx); err != nil {
		return err
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_interval", w.sweepInterval.String(),
		"poll_interval", w.pollInterval.String(),
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return runEvery(groupCtx, w.sweepInterval, "campaign_sweep", w.logger, w.sweeper.RunOnce)
	})
	group.Go(func() error {
		return runEvery(groupCtx, w.pollInterval, "outbox_relay", w.logger, w.outboxRelay.RunOnce)
	})
	return group.Wait()
}

func (w *WorkerApp) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	var traceErr error
	if w.shutdownTrace != nil {
		traceErr = w.shutdownTrace(ctx)
	}
	if w.postgres != nil {
		return errors.Join(w.postgres.Close(), traceErr)
	}
	return traceErr
}

func runEvery(
	ctx context.Context,
	interval time.Duration,
	name string,
	logger *slog.Logger,
	cycle func(context.Context) error,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := cycle(ctx); err != nil && ctx.Err() == nil {
			logger.Error("worker cycle failed",
				"event", "bootstrap_worker_cycle_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"loop", name,
				"error", err.Error(),
			)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	options := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if strings.EqualFold(strings.TrimSpace(cfg.LogFormat), "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
