package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/draft"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

// ErrNotReady is returned when apply is requested on a job that has not
// completed generation.
var ErrNotReady = errors.New("job has not completed generation")

// Applier commits a completed job's draft into the catalog. Applying is
// idempotent: a job whose result ref is already set returns it unchanged,
// never creating a second quiz.
type Applier struct {
	logger   *slog.Logger
	jobs     store.JobStore
	quizzes  store.QuizStore
	taxonomy store.TaxonomyStore
	inTx     TxRunner
}

// NewApplier creates an Applier. The logger defaults when nil.
func NewApplier(
	log *slog.Logger,
	jobs store.JobStore,
	quizzes store.QuizStore,
	taxonomy store.TaxonomyStore,
	inTx TxRunner,
) *Applier {
	if log == nil {
		log = slog.Default()
	}

	return &Applier{
		logger:   log.With(slog.String("component", "applier")),
		jobs:     jobs,
		quizzes:  quizzes,
		taxonomy: taxonomy,
		inTx:     inTx,
	}
}

// Apply commits the job's draft into the catalog and returns the quiz ID.
// A non-nil override replaces the stored output as the draft source and is
// persisted back onto the job for audit. A job that was already applied
// returns its existing result ref; a job not in the success state fails
// with ErrNotReady and is left untouched — apply failures never move a
// job's lifecycle state, so a failed apply can simply be retried.
func (a *Applier) Apply(ctx context.Context, jobID uuid.UUID, override json.RawMessage) (uuid.UUID, error) {
	job, err := a.jobs.GetByID(ctx, jobID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load job: %w", err)
	}

	if job.ResultRef != nil {
		a.logger.Debug("job already applied",
			slog.String("job_id", jobID.String()),
			slog.String("result_ref", job.ResultRef.String()))
		return *job.ResultRef, nil
	}

	if !job.ApplyOnly() {
		return uuid.Nil, fmt.Errorf("%w: job %s has status %s", ErrNotReady, jobID, job.Status)
	}

	raw := job.Output
	if override != nil {
		raw = override
	}

	d, err := draft.Parse(raw)
	if err != nil {
		return uuid.Nil, err
	}

	languages, err := a.taxonomy.ListLanguages(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load languages: %w", err)
	}
	categories, err := a.taxonomy.ListActiveCategories(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load categories: %w", err)
	}
	difficulties, err := a.taxonomy.ListActiveDifficulties(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load difficulties: %w", err)
	}

	quiz, err := draft.Build(d, draft.BuildOptions{
		OwnerID:      job.OwnerID,
		CategoryID:   job.Input.CategoryID,
		DifficultyID: job.Input.DifficultyID,
		Visibility:   job.Input.Visibility,
		Languages:    languages,
		Categories:   categories,
		Difficulties: difficulties,
	})
	if err != nil {
		return uuid.Nil, err
	}

	// Quiz and ref commit together; the ref's null guard makes the write
	// exactly-once, and losing the race rolls the quiz back out.
	err = a.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := a.quizzes.WithTx(tx).CreateAggregate(ctx, quiz); err != nil {
			return err
		}
		return a.jobs.WithTx(tx).SetResultRef(ctx, jobID, quiz.ID)
	})
	if err != nil {
		if errors.Is(err, store.ErrUpdateFailed) {
			return a.existingRef(ctx, jobID, err)
		}
		return uuid.Nil, fmt.Errorf("failed to persist quiz aggregate: %w", err)
	}

	if override != nil {
		if err := a.jobs.SetOutput(ctx, jobID, raw); err != nil {
			// The quiz exists and the ref is set; a failed audit write is
			// logged, not surfaced.
			a.logger.Warn("failed to persist edited output",
				slog.String("job_id", jobID.String()),
				slog.String("error", err.Error()))
		}
	}

	a.logger.Info("job applied",
		slog.String("job_id", jobID.String()),
		slog.String("quiz_id", quiz.ID.String()),
		slog.Bool("edited", override != nil))

	return quiz.ID, nil
}

// existingRef resolves a lost commit race: another driver set the ref
// between our read and our write, so re-read the job and answer with the
// quiz that actually exists.
func (a *Applier) existingRef(ctx context.Context, jobID uuid.UUID, raceErr error) (uuid.UUID, error) {
	job, err := a.jobs.GetByID(ctx, jobID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to reload job after lost commit race: %w", err)
	}
	if job.ResultRef == nil {
		return uuid.Nil, fmt.Errorf("failed to set result ref: %w", raceErr)
	}

	a.logger.Debug("job committed by another driver",
		slog.String("job_id", jobID.String()),
		slog.String("result_ref", job.ResultRef.String()))

	return *job.ResultRef, nil
}
