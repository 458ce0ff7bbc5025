package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/draft"
	"github.com/quizgen-io/quizgen-api/internal/generation"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

// TxRunner executes fn within a database transaction. Production wiring
// binds this to store.RunInTransaction; tests substitute a pass-through.
type TxRunner func(ctx context.Context, fn store.TxFn) error

// AssetFileReader loads the bytes of a stored asset. Satisfied by
// assets.Storage.
type AssetFileReader interface {
	Read(ctx context.Context, asset *domain.Asset) ([]byte, error)
}

// ProcessReport summarizes one processor pass over due jobs.
type ProcessReport struct {
	// Processed is the number of jobs whose outcome this pass recorded.
	Processed int

	// Succeeded is the number of jobs that reached success this pass,
	// including review-gated jobs left in the apply-only state.
	Succeeded int

	// Failed is the number of jobs marked failed this pass.
	Failed int
}

// Processor drives individual generation jobs to a terminal state: it
// claims pending jobs, obtains generated content from the AI collaborator,
// validates and builds the quiz aggregate, persists it transactionally,
// and records the outcome on the job row. Jobs are processed
// independently; one job's failure never aborts the batch.
type Processor struct {
	logger    *slog.Logger
	jobs      store.JobStore
	quizzes   store.QuizStore
	assetRows store.AssetStore
	taxonomy  store.TaxonomyStore
	generator generation.Generator
	files     AssetFileReader
	inTx      TxRunner
}

// NewProcessor creates a Processor. All dependencies are required except
// the logger, which defaults when nil.
func NewProcessor(
	log *slog.Logger,
	jobs store.JobStore,
	quizzes store.QuizStore,
	assetRows store.AssetStore,
	taxonomy store.TaxonomyStore,
	generator generation.Generator,
	files AssetFileReader,
	inTx TxRunner,
) *Processor {
	if log == nil {
		log = slog.Default()
	}

	return &Processor{
		logger:    log.With(slog.String("component", "processor")),
		jobs:      jobs,
		quizzes:   quizzes,
		assetRows: assetRows,
		taxonomy:  taxonomy,
		generator: generator,
		files:     files,
		inTx:      inTx,
	}
}

// ProcessDue selects due jobs (pending, or success without a result ref)
// and processes each one to a terminal state. Content failures are
// recorded on the job row, never returned; the returned error covers only
// infrastructure failures such as the due-work query itself.
func (p *Processor) ProcessDue(ctx context.Context, limit int) (ProcessReport, error) {
	due, err := p.jobs.ListDue(ctx, limit)
	if err != nil {
		return ProcessReport{}, fmt.Errorf("failed to list due jobs: %w", err)
	}

	return p.process(ctx, due), nil
}

// ProcessPending is ProcessDue restricted to pending jobs. Apply-only
// jobs are left at rest so a caller can review the draft and apply it
// explicitly, edits included.
func (p *Processor) ProcessPending(ctx context.Context, limit int) (ProcessReport, error) {
	pending, err := p.jobs.ListPending(ctx, limit)
	if err != nil {
		return ProcessReport{}, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	return p.process(ctx, pending), nil
}

// process drives each listed job to a terminal state and tallies the
// outcomes.
func (p *Processor) process(ctx context.Context, jobs []*domain.Job) ProcessReport {
	var report ProcessReport

	for _, job := range jobs {
		log := p.logger.With(slog.String("job_id", job.ID.String()))

		if job.Status == domain.JobStatusPending {
			claimed, err := p.jobs.ClaimPending(ctx, job.ID)
			if err != nil {
				log.Error("failed to claim job", slog.String("error", err.Error()))
				continue
			}
			if !claimed {
				log.Debug("job no longer pending, skipping")
				continue
			}
		}

		succeeded, err := p.processJob(ctx, job)
		if err != nil {
			if errors.Is(err, store.ErrUpdateFailed) {
				// Another driver committed this job between our list and our
				// write; its transaction won and ours rolled back.
				log.Debug("job already committed elsewhere, skipping")
				continue
			}
			// Only job-row writes can fail here; the job may be left in
			// processing and will not be re-selected until repaired.
			log.Error("failed to record job outcome", slog.String("error", err.Error()))
			continue
		}

		report.Processed++
		if succeeded {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	return report
}

// processJob runs one attempt and records the outcome on the job row. The
// returned bool reports whether the job reached success.
func (p *Processor) processJob(ctx context.Context, job *domain.Job) (bool, error) {
	resultRef, output, err := p.attempt(ctx, job)
	if err != nil {
		if errors.Is(err, store.ErrUpdateFailed) {
			return false, err
		}

		code, message := classify(err)

		p.logger.Warn("job attempt failed",
			slog.String("job_id", job.ID.String()),
			slog.String("error_code", string(code)),
			slog.String("error", err.Error()))

		// Parseable output is kept on the row even when the attempt failed,
		// so operators can inspect what the model produced.
		if output != nil {
			if setErr := p.jobs.SetOutput(ctx, job.ID, output); setErr != nil {
				p.logger.Warn("failed to store output of failed attempt",
					slog.String("job_id", job.ID.String()),
					slog.String("error", setErr.Error()))
			}
		}

		if markErr := p.jobs.MarkFailed(ctx, job.ID, code, message); markErr != nil {
			return false, fmt.Errorf("failed to mark job failed: %w", markErr)
		}
		return false, nil
	}

	// Apply-only jobs already carry their status and output; the ref was
	// the only thing missing and attempt set it inside the commit
	// transaction.
	if !job.ApplyOnly() {
		if markErr := p.jobs.MarkSuccess(ctx, job.ID, output); markErr != nil {
			return false, fmt.Errorf("failed to mark job successful: %w", markErr)
		}
	}

	p.logger.Info("job processed",
		slog.String("job_id", job.ID.String()),
		slog.Bool("apply_only", resultRef == nil))

	return true, nil
}

// attempt runs the generation pipeline for one job: obtain raw content
// (generate, or reuse the stored output in apply-only mode), parse,
// validate and build the aggregate, then persist the quiz and the result
// ref in one transaction. It returns the created quiz ID (nil for
// review-gated jobs), the raw output once parseable content exists, and
// the first error encountered.
func (p *Processor) attempt(ctx context.Context, job *domain.Job) (*uuid.UUID, json.RawMessage, error) {
	languages, err := p.taxonomy.ListLanguages(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load languages: %w", err)
	}
	if len(languages) == 0 {
		return nil, nil, draft.ErrNoLanguages
	}

	var raw json.RawMessage
	if job.ApplyOnly() {
		raw = job.Output
	} else {
		raw, err = p.generate(ctx, job, languages)
		if err != nil {
			return nil, nil, err
		}
	}

	d, err := draft.Parse(raw)
	if err != nil {
		return nil, raw, err
	}

	categories, err := p.taxonomy.ListActiveCategories(ctx)
	if err != nil {
		return nil, raw, fmt.Errorf("failed to load categories: %w", err)
	}
	difficulties, err := p.taxonomy.ListActiveDifficulties(ctx)
	if err != nil {
		return nil, raw, fmt.Errorf("failed to load difficulties: %w", err)
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
		return nil, raw, err
	}

	// Review-gated jobs stop here: the validated output rests on the job
	// row until an explicit apply or a later processor pass commits it.
	if job.Input.ReviewRequired && !job.ApplyOnly() {
		return nil, raw, nil
	}

	// The ref write shares the transaction with the catalog write; its
	// null guard makes the commit exactly-once, and a lost race rolls the
	// quiz back out.
	err = p.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := p.quizzes.WithTx(tx).CreateAggregate(ctx, quiz); err != nil {
			return err
		}
		return p.jobs.WithTx(tx).SetResultRef(ctx, job.ID, quiz.ID)
	})
	if err != nil {
		if errors.Is(err, store.ErrUpdateFailed) {
			return nil, raw, err
		}
		return nil, raw, fmt.Errorf("failed to persist quiz aggregate: %w", err)
	}

	return &quiz.ID, raw, nil
}

// generate assembles the model-facing payload (prompt, inline images,
// system instruction) and invokes the collaborator, returning the JSON
// document extracted from its response.
func (p *Processor) generate(ctx context.Context, job *domain.Job, languages []*domain.Language) (json.RawMessage, error) {
	rows, err := p.assetRows.ListByJobIDs(ctx, []uuid.UUID{job.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list job assets: %w", err)
	}

	images := make([]generation.InlineImage, 0, len(rows))
	for _, asset := range rows {
		data, err := p.files.Read(ctx, asset)
		if err != nil {
			return nil, fmt.Errorf("failed to read asset %s: %w", asset.Path, err)
		}
		images = append(images, generation.InlineImage{
			MimeType: asset.MimeType,
			Data:     data,
		})
	}

	text, err := p.generator.GenerateDraft(ctx, generation.Request{
		Prompt:            buildPrompt(job.Input),
		SystemInstruction: buildSystemInstruction(languages),
		Images:            images,
	})
	if err != nil {
		return nil, err
	}

	raw := extractJSON(text)
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: response does not contain a JSON document", generation.ErrInvalidResponse)
	}

	return raw, nil
}

// extractJSON strips code fences and surrounding prose from a model
// response, returning the span from the first '{' to the last '}'.
func extractJSON(text string) json.RawMessage {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return json.RawMessage(text)
	}

	return json.RawMessage(text[start : end+1])
}

// classify maps an attempt error onto the closed job error code taxonomy.
// Unrecognized errors come from storage, stores, and asset reads by
// construction of attempt, so the fallback is the storage failure code.
// Upload failures are marked at enqueue time by the job service, never
// here.
func classify(err error) (domain.JobErrorCode, string) {
	message := err.Error()

	switch {
	case errors.Is(err, draft.ErrDraftInvalid),
		errors.Is(err, domain.ErrUnknownQuestionType):
		return domain.JobErrDraftInvalid, message

	case errors.Is(err, draft.ErrNoActiveCategory),
		errors.Is(err, draft.ErrNoActiveDifficulty),
		errors.Is(err, draft.ErrNoLanguages):
		return domain.JobErrNoActiveCategory, message

	case errors.Is(err, generation.ErrGenerationFailed),
		errors.Is(err, generation.ErrInvalidResponse),
		errors.Is(err, generation.ErrContentBlocked),
		errors.Is(err, generation.ErrTransientFailure):
		return domain.JobErrAiFailed, message

	default:
		return domain.JobErrTestSaveFailed, message
	}
}
