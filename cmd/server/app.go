package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/api"
	"github.com/quizgen-io/quizgen-api/internal/assets"
	"github.com/quizgen-io/quizgen-api/internal/config"
	"github.com/quizgen-io/quizgen-api/internal/platform/gemini"
	"github.com/quizgen-io/quizgen-api/internal/platform/postgres"
	"github.com/quizgen-io/quizgen-api/internal/service"
	"github.com/quizgen-io/quizgen-api/internal/store"
	"github.com/quizgen-io/quizgen-api/internal/task"
)

// application holds the wired components of the server.
type application struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *sql.DB

	processor *task.Processor

	jobHandler   *api.JobHandler
	adminHandler *api.AdminHandler
}

// newApplication wires stores, pipeline components, services, and
// handlers from the configuration and the open database connection.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger, db *sql.DB) (*application, error) {
	jobStore := postgres.NewJobStore(db, log)
	quizStore := postgres.NewQuizStore(db, log)
	assetStore := postgres.NewAssetStore(db, log)
	taxonomyStore := postgres.NewTaxonomyStore(db, log)

	storage, err := assets.NewStorage(cfg.Assets.Root, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize asset storage: %w", err)
	}

	generator, err := gemini.NewGenerator(ctx, log, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	inTx := func(ctx context.Context, fn store.TxFn) error {
		return store.RunInTransaction(ctx, db, fn)
	}

	processor := task.NewProcessor(log, jobStore, quizStore, assetStore,
		taxonomyStore, generator, storage, inTx)
	applier := task.NewApplier(log, jobStore, quizStore, taxonomyStore, inTx)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	orchestrator := task.NewOrchestrator(log, jobStore, taxonomyStore,
		processor, rng, cfg.Generation)
	cleaner := task.NewCleaner(log, jobStore, quizStore, assetStore,
		storage, cfg.Generation.TagPrefix)

	jobService := service.NewJobService(log, jobStore, assetStore, storage,
		cfg.Generation.DailyJobQuota)

	defaultOwnerID, err := uuid.Parse(cfg.Generation.DefaultOwnerID)
	if err != nil {
		return nil, fmt.Errorf("invalid default owner ID: %w", err)
	}

	return &application{
		cfg:          cfg,
		logger:       log,
		db:           db,
		processor:    processor,
		jobHandler:   api.NewJobHandler(jobService, applier, defaultOwnerID),
		adminHandler: api.NewAdminHandler(orchestrator, cleaner),
	}, nil
}

// pollInterval is how often the background worker checks for pending
// jobs created through the API.
const pollInterval = 5 * time.Second

// runWorker polls for pending jobs until the context is cancelled.
// Apply-only jobs are deliberately out of its reach: they rest until an
// explicit apply or an admin-triggered batch run picks them up, so a
// caller reviewing a draft is never raced by the ticker.
func (app *application) runWorker(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			app.logger.Info("worker stopped")
			return
		case <-ticker.C:
			report, err := app.processor.ProcessPending(ctx, app.cfg.Generation.BatchSize)
			if err != nil {
				app.logger.Error("worker pass failed", slog.String("error", err.Error()))
				continue
			}
			if report.Processed > 0 {
				app.logger.Info("worker pass complete",
					slog.Int("processed", report.Processed),
					slog.Int("succeeded", report.Succeeded),
					slog.Int("failed", report.Failed))
			}
		}
	}
}
