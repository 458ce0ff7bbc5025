package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/draft"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

func newTestApplier(jobs *mockJobStore, quizzes *mockQuizStore) *Applier {
	if quizzes == nil {
		quizzes = &mockQuizStore{}
	}
	return NewApplier(nil, jobs, quizzes, &mockTaxonomyStore{}, passTx)
}

func applyOnlyJob(t *testing.T) *domain.Job {
	job := pendingJob(t, domain.JobInput{})
	job.Status = domain.JobStatusSuccess
	job.Output = validDraftJSON(t)
	return job
}

func TestApplyCommitsDraft(t *testing.T) {
	job := applyOnlyJob(t)

	var savedQuiz *domain.Quiz
	var refSet uuid.UUID

	var inTx bool
	runner := func(ctx context.Context, fn store.TxFn) error {
		inTx = true
		defer func() { inTx = false }()
		return fn(ctx, nil)
	}

	jobs := &mockJobStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
			require.Equal(t, job.ID, id)
			return job, nil
		},
		setResultRefFn: func(ctx context.Context, id uuid.UUID, ref uuid.UUID) error {
			assert.True(t, inTx, "the ref write shares the catalog write's transaction")
			refSet = ref
			return nil
		},
		setOutputFn: func(ctx context.Context, id uuid.UUID, output json.RawMessage) error {
			t.Fatal("output is rewritten only when an override was supplied")
			return nil
		},
	}
	quizzes := &mockQuizStore{
		createAggregateFn: func(ctx context.Context, quiz *domain.Quiz) error {
			savedQuiz = quiz
			return nil
		},
	}

	a := NewApplier(nil, jobs, quizzes, &mockTaxonomyStore{}, runner)
	quizID, err := a.Apply(context.Background(), job.ID, nil)
	require.NoError(t, err)

	require.NotNil(t, savedQuiz)
	assert.Equal(t, savedQuiz.ID, quizID)
	assert.Equal(t, quizID, refSet)
	assert.Equal(t, job.OwnerID, savedQuiz.OwnerID)
}

func TestApplyIsIdempotent(t *testing.T) {
	existing := uuid.New()
	job := applyOnlyJob(t)
	job.ResultRef = &existing

	jobs := &mockJobStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
			return job, nil
		},
	}
	quizzes := &mockQuizStore{
		createAggregateFn: func(ctx context.Context, quiz *domain.Quiz) error {
			t.Fatal("a second apply must never create a second quiz")
			return nil
		},
	}

	a := newTestApplier(jobs, quizzes)
	quizID, err := a.Apply(context.Background(), job.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, existing, quizID)
}

func TestApplyNotReady(t *testing.T) {
	for _, status := range []domain.JobStatus{
		domain.JobStatusPending,
		domain.JobStatusProcessing,
		domain.JobStatusFailed,
	} {
		t.Run(string(status), func(t *testing.T) {
			job := pendingJob(t, domain.JobInput{})
			job.Status = status

			jobs := &mockJobStore{
				getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
					return job, nil
				},
				markFailedFn: func(ctx context.Context, id uuid.UUID, code domain.JobErrorCode, message string) error {
					t.Fatal("a failed apply never moves the job's lifecycle state")
					return nil
				},
			}
			quizzes := &mockQuizStore{
				createAggregateFn: func(ctx context.Context, quiz *domain.Quiz) error {
					t.Fatal("not-ready jobs must not reach the catalog")
					return nil
				},
			}

			a := newTestApplier(jobs, quizzes)
			_, err := a.Apply(context.Background(), job.ID, nil)
			assert.ErrorIs(t, err, ErrNotReady)
		})
	}
}

func TestApplyOverrideReplacesOutput(t *testing.T) {
	job := applyOnlyJob(t)

	override := validDraftJSON(t)

	var rewritten json.RawMessage
	jobs := &mockJobStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
			return job, nil
		},
		setOutputFn: func(ctx context.Context, id uuid.UUID, output json.RawMessage) error {
			rewritten = output
			return nil
		},
	}

	a := newTestApplier(jobs, nil)
	_, err := a.Apply(context.Background(), job.ID, override)
	require.NoError(t, err)

	assert.Equal(t, override, rewritten, "edited draft is persisted back for audit")
}

func TestApplyInvalidOverride(t *testing.T) {
	job := applyOnlyJob(t)

	jobs := &mockJobStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
			return job, nil
		},
		markFailedFn: func(ctx context.Context, id uuid.UUID, code domain.JobErrorCode, message string) error {
			t.Fatal("an invalid override leaves the job untouched")
			return nil
		},
	}
	quizzes := &mockQuizStore{
		createAggregateFn: func(ctx context.Context, quiz *domain.Quiz) error {
			t.Fatal("an invalid override must not reach the catalog")
			return nil
		},
	}

	a := newTestApplier(jobs, quizzes)
	_, err := a.Apply(context.Background(), job.ID, json.RawMessage(`{"translations": {}, "questions": []}`))
	assert.ErrorIs(t, err, draft.ErrDraftInvalid)
}

func TestApplyConcurrentCommitReturnsExistingRef(t *testing.T) {
	// A processor pass commits the job between our read and our write.
	// The guarded ref write loses, the transaction rolls our quiz back,
	// and the caller gets the quiz that actually exists.
	job := applyOnlyJob(t)
	winner := uuid.New()

	var reads int
	jobs := &mockJobStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
			reads++
			if reads == 1 {
				return job, nil
			}
			committed := *job
			committed.ResultRef = &winner
			return &committed, nil
		},
		setResultRefFn: func(ctx context.Context, id uuid.UUID, ref uuid.UUID) error {
			return fmt.Errorf("%w: result ref already set or job missing", store.ErrUpdateFailed)
		},
		markFailedFn: func(ctx context.Context, id uuid.UUID, code domain.JobErrorCode, message string) error {
			t.Fatal("losing the commit race never moves the job's lifecycle state")
			return nil
		},
	}

	a := newTestApplier(jobs, nil)
	quizID, err := a.Apply(context.Background(), job.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, winner, quizID)
	assert.Equal(t, 2, reads, "the job is re-read to find the winning ref")
}

func TestApplyPersistenceFailureLeavesJobApplyOnly(t *testing.T) {
	job := applyOnlyJob(t)

	jobs := &mockJobStore{
		getByIDFn: func(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
			return job, nil
		},
		setResultRefFn: func(ctx context.Context, id uuid.UUID, ref uuid.UUID) error {
			t.Fatal("the ref must not be set when the catalog write failed")
			return nil
		},
	}
	quizzes := &mockQuizStore{
		createAggregateFn: func(ctx context.Context, quiz *domain.Quiz) error {
			return errors.New("connection reset")
		},
	}

	a := newTestApplier(jobs, quizzes)
	_, err := a.Apply(context.Background(), job.ID, nil)
	assert.Error(t, err)
}
