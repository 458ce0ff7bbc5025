package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

// AssetFileRemover deletes a job's asset files from disk best-effort and
// reports how many were removed. Satisfied by assets.Storage.
type AssetFileRemover interface {
	RemoveJobFiles(ctx context.Context, jobID uuid.UUID) int
}

// CleanupReport holds per-table delete counts so callers can audit a
// rollback.
type CleanupReport struct {
	Jobs           int64 `json:"jobs"`
	AssetRows      int64 `json:"asset_rows"`
	AssetFiles     int64 `json:"asset_files"`
	Quizzes        int64 `json:"quizzes"`
	Attempts       int64 `json:"attempts"`
	AttemptAnswers int64 `json:"attempt_answers"`
	Favorites      int64 `json:"favorites"`
}

// Cleaner rolls back everything created under a run tag: job rows, asset
// metadata and files, the quizzes those jobs produced, and the quizzes'
// dependents. Deletes run in dependency order but are not one atomic
// transaction; this is an operator rollback tool, not an online path, and
// it must not abort halfway through a large batch.
type Cleaner struct {
	logger    *slog.Logger
	jobs      store.JobStore
	quizzes   store.QuizStore
	assetRows store.AssetStore
	files     AssetFileRemover
	tagPrefix string
}

// NewCleaner creates a Cleaner scoped to the given tag prefix. The logger
// defaults when nil.
func NewCleaner(
	log *slog.Logger,
	jobs store.JobStore,
	quizzes store.QuizStore,
	assetRows store.AssetStore,
	files AssetFileRemover,
	tagPrefix string,
) *Cleaner {
	if log == nil {
		log = slog.Default()
	}

	return &Cleaner{
		logger:    log.With(slog.String("component", "cleaner")),
		jobs:      jobs,
		quizzes:   quizzes,
		assetRows: assetRows,
		files:     files,
		tagPrefix: tagPrefix,
	}
}

// Cleanup deletes every artifact created under the cleaner's tag prefix,
// narrowed to one exact run when runToken is non-empty. Deletion order
// respects dependency direction: attempt answer logs, attempts, favorites,
// quizzes, asset files on disk, asset rows, then the jobs themselves. A
// partially filled report accompanies any error so the completed steps
// remain auditable.
func (c *Cleaner) Cleanup(ctx context.Context, runToken string) (*CleanupReport, error) {
	report := &CleanupReport{}

	tag := c.tagPrefix + ":"
	if runToken != "" {
		tag += runToken
	}

	jobs, err := c.jobs.ListByTagPrefix(ctx, tag)
	if err != nil {
		return report, fmt.Errorf("failed to list jobs by tag: %w", err)
	}
	if runToken != "" {
		jobs = filterExactTag(jobs, tag)
	}
	if len(jobs) == 0 {
		c.logger.Info("nothing to clean up", slog.String("tag", tag))
		return report, nil
	}

	jobIDs := make([]uuid.UUID, 0, len(jobs))
	var quizIDs []uuid.UUID
	for _, job := range jobs {
		jobIDs = append(jobIDs, job.ID)
		if job.ResultRef != nil {
			quizIDs = append(quizIDs, *job.ResultRef)
		}
	}

	if len(quizIDs) > 0 {
		if report.AttemptAnswers, err = c.quizzes.DeleteAttemptAnswers(ctx, quizIDs); err != nil {
			return report, fmt.Errorf("failed to delete attempt answers: %w", err)
		}
		if report.Attempts, err = c.quizzes.DeleteAttempts(ctx, quizIDs); err != nil {
			return report, fmt.Errorf("failed to delete attempts: %w", err)
		}
		if report.Favorites, err = c.quizzes.DeleteFavorites(ctx, quizIDs); err != nil {
			return report, fmt.Errorf("failed to delete favorites: %w", err)
		}
		if report.Quizzes, err = c.quizzes.DeleteByIDs(ctx, quizIDs); err != nil {
			return report, fmt.Errorf("failed to delete quizzes: %w", err)
		}
	}

	// File removal is best-effort; a missing or unreadable file is counted
	// as not-deleted, never an error.
	for _, id := range jobIDs {
		report.AssetFiles += int64(c.files.RemoveJobFiles(ctx, id))
	}

	if report.AssetRows, err = c.assetRows.DeleteByJobIDs(ctx, jobIDs); err != nil {
		return report, fmt.Errorf("failed to delete asset rows: %w", err)
	}

	if report.Jobs, err = c.jobs.DeleteByIDs(ctx, jobIDs); err != nil {
		return report, fmt.Errorf("failed to delete jobs: %w", err)
	}

	c.logger.Info("cleanup complete",
		slog.String("tag", tag),
		slog.Int64("jobs", report.Jobs),
		slog.Int64("quizzes", report.Quizzes),
		slog.Int64("asset_rows", report.AssetRows),
		slog.Int64("asset_files", report.AssetFiles))

	return report, nil
}

// filterExactTag keeps only jobs whose tag matches exactly. ListByTagPrefix
// would also match a longer run token sharing this one as a prefix.
func filterExactTag(jobs []*domain.Job, tag string) []*domain.Job {
	out := jobs[:0]
	for _, job := range jobs {
		if job.Tag == tag {
			out = append(out, job)
		}
	}
	return out
}
