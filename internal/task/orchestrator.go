package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/config"
	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

// Orchestrated jobs carry this medium in their source tag.
const orchestratorMedium = "orchestrator"

// ErrEmptyBatch is returned when a run is requested with a non-positive
// job count.
var ErrEmptyBatch = errors.New("run count must be positive")

// BatchProcessor is the orchestrator's view of the processor. Satisfied by
// *Processor.
type BatchProcessor interface {
	ProcessDue(ctx context.Context, limit int) (ProcessReport, error)
}

// promptStyles are woven together with a random category and difficulty
// into each enqueued job's prompt.
var promptStyles = []string{
	"Write a quiz about %s for players at %s level.",
	"Create a %s themed quiz suitable for %s difficulty.",
	"Compose an engaging quiz on the topic of %s, tuned to %s players.",
	"Put together a %s quiz that challenges %s level knowledge.",
}

// RunParams configures one orchestrated batch run. Zero values fall back
// to the configured defaults.
type RunParams struct {
	// Count is the number of jobs to enqueue. Required.
	Count int

	// OwnerID attributes the run's jobs; zero falls back to the configured
	// default owner.
	OwnerID uuid.UUID

	// RunToken identifies the run; empty generates one from the RNG.
	RunToken string

	// LanguageID is the language hint stamped on each job; empty falls
	// back to the first configured language.
	LanguageID string

	// QuestionCount, when positive, is passed through to each job's input.
	QuestionCount int

	// EnqueueOnly skips the drive loop: jobs are created pending and left
	// for a later processor pass.
	EnqueueOnly bool

	// BatchSize, MaxCycles, and StallCycles override the configured drive
	// loop tuning when positive.
	BatchSize   int
	MaxCycles   int
	StallCycles int
}

// RunReport is the summary of one orchestrated run.
type RunReport struct {
	RunToken string `json:"run_token"`
	Tag      string `json:"tag"`
	Enqueued int    `json:"enqueued"`
	Cycles   int    `json:"cycles"`

	// Terminal-state counts over this run's jobs after the drive loop.
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`

	// Outstanding is the number of this run's jobs still awaiting work
	// (stall, cycle limit, or enqueue-only mode).
	Outstanding int `json:"outstanding"`

	// Stalled reports that the drive loop stopped on stall detection.
	Stalled bool `json:"stalled"`

	// QuizIDs are the catalog items created by this run.
	QuizIDs []uuid.UUID `json:"quiz_ids,omitempty"`

	// CleanupCommand is the exact rollback invocation that undoes this
	// run's tag.
	CleanupCommand string `json:"cleanup_command"`
}

// Orchestrator enqueues a tagged batch of generation jobs and drives them
// to completion through repeated processor cycles, with stall detection
// and a hard cycle limit. The RNG is passed in explicitly so batch runs
// are reproducible under a fixed seed.
type Orchestrator struct {
	logger    *slog.Logger
	jobs      store.JobStore
	taxonomy  store.TaxonomyStore
	processor BatchProcessor
	rng       *rand.Rand
	cfg       config.GenerationConfig
}

// NewOrchestrator creates an Orchestrator. The logger defaults when nil.
func NewOrchestrator(
	log *slog.Logger,
	jobs store.JobStore,
	taxonomy store.TaxonomyStore,
	processor BatchProcessor,
	rng *rand.Rand,
	cfg config.GenerationConfig,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}

	return &Orchestrator{
		logger:    log.With(slog.String("component", "orchestrator")),
		jobs:      jobs,
		taxonomy:  taxonomy,
		processor: processor,
		rng:       rng,
		cfg:       cfg,
	}
}

// Run enqueues params.Count jobs under a shared run tag and, unless in
// enqueue-only mode, drives them to completion. The drive loop stops when
// no outstanding work remains, when the outstanding count has not
// decreased for the configured number of consecutive cycles, when the
// cycle limit is reached, or when a processor invocation fails — in which
// case the partial report is returned alongside the error.
func (o *Orchestrator) Run(ctx context.Context, params RunParams) (*RunReport, error) {
	if params.Count <= 0 {
		return nil, ErrEmptyBatch
	}

	ownerID := params.OwnerID
	if ownerID == uuid.Nil {
		parsed, err := uuid.Parse(o.cfg.DefaultOwnerID)
		if err != nil {
			return nil, fmt.Errorf("invalid default owner ID: %w", err)
		}
		ownerID = parsed
	}

	languages, err := o.taxonomy.ListLanguages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load languages: %w", err)
	}
	if len(languages) == 0 {
		return nil, errors.New("no languages configured")
	}
	categories, err := o.taxonomy.ListActiveCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, errors.New("no active categories available")
	}
	difficulties, err := o.taxonomy.ListActiveDifficulties(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load difficulties: %w", err)
	}
	if len(difficulties) == 0 {
		return nil, errors.New("no active difficulties available")
	}

	languageID := params.LanguageID
	if languageID == "" {
		languageID = languages[0].ID
	}

	token := params.RunToken
	if token == "" {
		token = o.newRunToken()
	}
	tag := fmt.Sprintf("%s:%s", o.cfg.TagPrefix, token)

	report := &RunReport{
		RunToken:       token,
		Tag:            tag,
		CleanupCommand: fmt.Sprintf("POST /api/admin/cleanup {\"run_token\": %q}", token),
	}

	for i := 0; i < params.Count; i++ {
		category := categories[o.rng.Intn(len(categories))]
		difficulty := difficulties[o.rng.Intn(len(difficulties))]
		style := promptStyles[o.rng.Intn(len(promptStyles))]

		input := domain.JobInput{
			Prompt:        fmt.Sprintf(style, category.Name, difficulty.Name),
			QuestionCount: params.QuestionCount,
			CategoryID:    &category.ID,
			DifficultyID:  &difficulty.ID,
			LanguageID:    languageID,
		}

		job, err := domain.NewJob(ownerID, input, languageID, orchestratorMedium, tag)
		if err != nil {
			return report, fmt.Errorf("failed to build job %d: %w", i, err)
		}
		if err := o.jobs.Create(ctx, job); err != nil {
			return report, fmt.Errorf("failed to enqueue job %d: %w", i, err)
		}
		report.Enqueued++
	}

	o.logger.Info("batch enqueued",
		slog.String("tag", tag),
		slog.Int("count", report.Enqueued),
		slog.Bool("enqueue_only", params.EnqueueOnly))

	if !params.EnqueueOnly {
		if err := o.drive(ctx, params, report); err != nil {
			o.tally(ctx, tag, report)
			return report, err
		}
	}

	o.tally(ctx, tag, report)

	o.logger.Info("run finished",
		slog.String("tag", tag),
		slog.Int("cycles", report.Cycles),
		slog.Int("succeeded", report.Succeeded),
		slog.Int("failed", report.Failed),
		slog.Int("outstanding", report.Outstanding),
		slog.Bool("stalled", report.Stalled),
		slog.String("cleanup_command", report.CleanupCommand))

	return report, nil
}

// drive invokes the processor in cycles until the outstanding count
// reaches zero, stalls, or hits the cycle limit. Checked at cycle
// boundaries, context cancellation stops the loop cooperatively.
func (o *Orchestrator) drive(ctx context.Context, params RunParams, report *RunReport) error {
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = o.cfg.BatchSize
	}
	maxCycles := params.MaxCycles
	if maxCycles <= 0 {
		maxCycles = o.cfg.MaxCycles
	}
	stallCycles := params.StallCycles
	if stallCycles <= 0 {
		stallCycles = o.cfg.StallCycles
	}

	previous, err := o.jobs.CountOutstanding(ctx)
	if err != nil {
		return fmt.Errorf("failed to count outstanding jobs: %w", err)
	}

	noProgress := 0
	for cycle := 1; cycle <= maxCycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, err := o.processor.ProcessDue(ctx, batchSize); err != nil {
			// A processor invocation failure is a hard stop; the partial
			// summary surfaces instead of looping forever.
			return fmt.Errorf("processor cycle %d failed: %w", cycle, err)
		}
		report.Cycles = cycle

		outstanding, err := o.jobs.CountOutstanding(ctx)
		if err != nil {
			return fmt.Errorf("failed to count outstanding jobs: %w", err)
		}

		o.logger.Debug("drive cycle complete",
			slog.Int("cycle", cycle),
			slog.Int("outstanding", outstanding))

		if outstanding == 0 {
			return nil
		}

		if outstanding >= previous {
			noProgress++
			if noProgress >= stallCycles {
				report.Stalled = true
				o.logger.Warn("drive loop stalled",
					slog.Int("cycle", cycle),
					slog.Int("outstanding", outstanding))
				return nil
			}
		} else {
			noProgress = 0
		}
		previous = outstanding
	}

	o.logger.Warn("drive loop hit cycle limit",
		slog.Int("max_cycles", maxCycles))
	return nil
}

// tally fills the report's per-state counts and quiz IDs from the run's
// jobs. Best-effort: a tally failure leaves the counts at zero rather
// than discarding the report.
func (o *Orchestrator) tally(ctx context.Context, tag string, report *RunReport) {
	jobs, err := o.jobs.ListByTagPrefix(ctx, tag)
	if err != nil {
		o.logger.Error("failed to tally run jobs",
			slog.String("tag", tag),
			slog.String("error", err.Error()))
		return
	}

	for _, job := range jobs {
		switch {
		case job.Status == domain.JobStatusFailed:
			report.Failed++
		case job.Status == domain.JobStatusSuccess && job.ResultRef != nil:
			report.Succeeded++
			report.QuizIDs = append(report.QuizIDs, *job.ResultRef)
		default:
			report.Outstanding++
		}
	}
}

// newRunToken derives a run token from the orchestrator's RNG, prefixed
// with the UTC date for operator readability.
func (o *Orchestrator) newRunToken() string {
	return fmt.Sprintf("%s-%08x", time.Now().UTC().Format("20060102"), o.rng.Uint32())
}
