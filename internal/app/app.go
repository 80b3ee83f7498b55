package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/wavecastlabs/wavecast-cloud/internal/adapter/generation/imagegen"
	"github.com/wavecastlabs/wavecast-cloud/internal/adapter/generation/llm"
	"github.com/wavecastlabs/wavecast-cloud/internal/adapter/repository/postgres"
	"github.com/wavecastlabs/wavecast-cloud/internal/adapter/source/httpprobe"
	"github.com/wavecastlabs/wavecast-cloud/internal/adapter/storage/s3"
	"github.com/wavecastlabs/wavecast-cloud/internal/api"
	"github.com/wavecastlabs/wavecast-cloud/internal/cache"
	"github.com/wavecastlabs/wavecast-cloud/internal/config"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/episode"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/generation"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/podcast"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/source"
	"github.com/wavecastlabs/wavecast-cloud/internal/domain/storage"
	"github.com/wavecastlabs/wavecast-cloud/internal/notify"
	"github.com/wavecastlabs/wavecast-cloud/internal/outbox"
	"github.com/wavecastlabs/wavecast-cloud/internal/reconciler"
	"github.com/wavecastlabs/wavecast-cloud/internal/usecase/lifecycle"
	"github.com/wavecastlabs/wavecast-cloud/internal/usecase/postprocess"
	"github.com/wavecastlabs/wavecast-cloud/internal/usecase/trigger"
	"github.com/wavecastlabs/wavecast-cloud/pkg/db"
	"github.com/wavecastlabs/wavecast-cloud/pkg/genqueue"
	zaplog "github.com/wavecastlabs/wavecast-cloud/pkg/log"
	"github.com/wavecastlabs/wavecast-cloud/pkg/snowflake"
	"github.com/wavecastlabs/wavecast-cloud/sql/migrations"
)

// options is the shared dependency graph for every entrypoint.
func options() fx.Option {
	return fx.Options(
		fx.Provide(
			// Config
			config.Load,

			// Infrastructure (Adapters)
			newAsynqClient,

			// Domain Adapters (Bind Interfaces)
			fx.Annotate(
				postgres.NewEpisodeRepository,
				fx.As(new(episode.Repository)),
			),
			fx.Annotate(
				postgres.NewPodcastRepository,
				fx.As(new(podcast.Repository)),
			),
			fx.Annotate(
				postgres.NewAttemptRepository,
				fx.As(new(episode.AttemptRepository)),
			),
			fx.Annotate(
				s3.NewAdapter,
				fx.As(new(storage.ObjectStore)),
			),
			fx.Annotate(
				llm.NewAdapter,
				fx.As(new(generation.TextGenerator)),
			),
			fx.Annotate(
				imagegen.NewAdapter,
				fx.As(new(generation.ImageGenerator)),
			),
			fx.Annotate(
				httpprobe.NewAdapter,
				fx.As(new(source.ContentProber)),
			),
			fx.Annotate(
				cache.NewInvalidator,
				fx.As(new(outbox.PageInvalidator)),
			),
			fx.Annotate(
				outbox.NewStore,
				fx.As(new(outbox.Enqueuer)),
			),
			fx.Annotate(
				notify.NewSMTPSender,
				fx.As(new(notify.Sender)),
			),
			fx.Annotate(
				notify.NewMailer,
				fx.As(new(outbox.Notifier)),
			),

			// Use Cases
			fx.Annotate(
				postprocess.NewOrchestrator,
				fx.As(new(lifecycle.Orchestrator)),
			),
			lifecycle.NewProcessor,
			lifecycle.NewFinder,
			trigger.NewService,

			// Background workers
			outbox.NewProcessor,
			reconciler.NewEpisodeReconciler,

			// API
			api.NewRouter,
		),
		db.Module,        // Database Module
		snowflake.Module, // Snowflake ID Module
		zaplog.Module,    // Logger Module
	)
}

// RunServer starts the HTTP server and background workers.
func RunServer() {
	app := fx.New(
		options(),
		fx.Invoke(registerHooks),
	)

	app.Run()
}

// RunReconcilePass runs a single reconciliation pass and prints the
// summary. No server or background workers are started.
func RunReconcilePass(ctx context.Context) error {
	var rec *reconciler.EpisodeReconciler
	app := fx.New(
		options(),
		fx.NopLogger,
		fx.Populate(&rec),
	)

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer app.Stop(ctx)

	summary := rec.ReconcileAll(ctx)
	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// RunMigrations executes database migrations (up or down).
func RunMigrations(command string) error {
	if command == "" {
		command = "up"
	}

	cfg := config.Load()
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	logger.Info("Starting database migration...", zap.String("command", command))

	dbURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	d, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("load migration files: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", d, dbURL)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migration up failed: %w", err)
		}
		logger.Info("Migration up applied")
	case "down":
		if err := m.Down(); err != nil && err != migrate.ErrNoChange {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Info("Migration down applied")
	default:
		return fmt.Errorf("unknown migration command: %s", command)
	}

	return nil
}

func newAsynqClient(cfg *config.Config) genqueue.TaskEnqueuer {
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

func registerHooks(lc fx.Lifecycle, router *api.Router, processor *outbox.Processor, episodeReconciler *reconciler.EpisodeReconciler, cfg *config.Config, logger *zap.Logger) {
	var processorCancel context.CancelFunc
	var reconcilerCancel context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Starting HTTP server", zap.String("port", cfg.Port))

			processorCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			processorCancel = cancel
			go processor.Run(processorCtx)

			reconcilerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
			reconcilerCancel = cancel
			go episodeReconciler.Run(reconcilerCtx)

			go func() {
				if err := router.Run(); err != nil && err != http.ErrServerClosed {
					logger.Fatal("Server failed to start", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server gracefully...")

			if processorCancel != nil {
				processorCancel()
			}
			if reconcilerCancel != nil {
				reconcilerCancel()
			}

			shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()

			if err := router.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server forced to shutdown", zap.Error(err))
				return err
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		},
	})
}
