package task

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/generation"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

// Struct mocks with function fields. Methods without a configured
// function return zero values.

type mockJobStore struct {
	createFn            func(ctx context.Context, job *domain.Job) error
	getByIDFn           func(ctx context.Context, id uuid.UUID) (*domain.Job, error)
	listDueFn           func(ctx context.Context, limit int) ([]*domain.Job, error)
	listPendingFn       func(ctx context.Context, limit int) ([]*domain.Job, error)
	claimPendingFn      func(ctx context.Context, id uuid.UUID) (bool, error)
	markSuccessFn       func(ctx context.Context, id uuid.UUID, output json.RawMessage) error
	markFailedFn        func(ctx context.Context, id uuid.UUID, code domain.JobErrorCode, message string) error
	setResultRefFn      func(ctx context.Context, id uuid.UUID, ref uuid.UUID) error
	setOutputFn         func(ctx context.Context, id uuid.UUID, output json.RawMessage) error
	listByTagPrefixFn   func(ctx context.Context, prefix string) ([]*domain.Job, error)
	countOutstandingFn  func(ctx context.Context) (int, error)
	countCreatedSinceFn func(ctx context.Context, ownerID uuid.UUID, since time.Time) (int, error)
	deleteByIDsFn       func(ctx context.Context, ids []uuid.UUID) (int64, error)
}

var _ store.JobStore = (*mockJobStore)(nil)

func (m *mockJobStore) Create(ctx context.Context, job *domain.Job) error {
	if m.createFn != nil {
		return m.createFn(ctx, job)
	}
	return nil
}

func (m *mockJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrJobNotFound
}

func (m *mockJobStore) ListDue(ctx context.Context, limit int) ([]*domain.Job, error) {
	if m.listDueFn != nil {
		return m.listDueFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockJobStore) ListPending(ctx context.Context, limit int) ([]*domain.Job, error) {
	if m.listPendingFn != nil {
		return m.listPendingFn(ctx, limit)
	}
	return nil, nil
}

func (m *mockJobStore) ClaimPending(ctx context.Context, id uuid.UUID) (bool, error) {
	if m.claimPendingFn != nil {
		return m.claimPendingFn(ctx, id)
	}
	return true, nil
}

func (m *mockJobStore) MarkSuccess(ctx context.Context, id uuid.UUID, output json.RawMessage) error {
	if m.markSuccessFn != nil {
		return m.markSuccessFn(ctx, id, output)
	}
	return nil
}

func (m *mockJobStore) MarkFailed(ctx context.Context, id uuid.UUID, code domain.JobErrorCode, message string) error {
	if m.markFailedFn != nil {
		return m.markFailedFn(ctx, id, code, message)
	}
	return nil
}

func (m *mockJobStore) SetResultRef(ctx context.Context, id uuid.UUID, ref uuid.UUID) error {
	if m.setResultRefFn != nil {
		return m.setResultRefFn(ctx, id, ref)
	}
	return nil
}

func (m *mockJobStore) SetOutput(ctx context.Context, id uuid.UUID, output json.RawMessage) error {
	if m.setOutputFn != nil {
		return m.setOutputFn(ctx, id, output)
	}
	return nil
}

func (m *mockJobStore) ListByTagPrefix(ctx context.Context, prefix string) ([]*domain.Job, error) {
	if m.listByTagPrefixFn != nil {
		return m.listByTagPrefixFn(ctx, prefix)
	}
	return nil, nil
}

func (m *mockJobStore) CountOutstanding(ctx context.Context) (int, error) {
	if m.countOutstandingFn != nil {
		return m.countOutstandingFn(ctx)
	}
	return 0, nil
}

func (m *mockJobStore) CountCreatedSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (int, error) {
	if m.countCreatedSinceFn != nil {
		return m.countCreatedSinceFn(ctx, ownerID, since)
	}
	return 0, nil
}

func (m *mockJobStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	if m.deleteByIDsFn != nil {
		return m.deleteByIDsFn(ctx, ids)
	}
	return 0, nil
}

func (m *mockJobStore) WithTx(tx *sql.Tx) store.JobStore { return m }

type mockQuizStore struct {
	createAggregateFn      func(ctx context.Context, quiz *domain.Quiz) error
	getByIDFn              func(ctx context.Context, id uuid.UUID) (*domain.Quiz, error)
	deleteAttemptAnswersFn func(ctx context.Context, quizIDs []uuid.UUID) (int64, error)
	deleteAttemptsFn       func(ctx context.Context, quizIDs []uuid.UUID) (int64, error)
	deleteFavoritesFn      func(ctx context.Context, quizIDs []uuid.UUID) (int64, error)
	deleteByIDsFn          func(ctx context.Context, quizIDs []uuid.UUID) (int64, error)
}

var _ store.QuizStore = (*mockQuizStore)(nil)

func (m *mockQuizStore) CreateAggregate(ctx context.Context, quiz *domain.Quiz) error {
	if m.createAggregateFn != nil {
		return m.createAggregateFn(ctx, quiz)
	}
	return nil
}

func (m *mockQuizStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrQuizNotFound
}

func (m *mockQuizStore) DeleteAttemptAnswers(ctx context.Context, quizIDs []uuid.UUID) (int64, error) {
	if m.deleteAttemptAnswersFn != nil {
		return m.deleteAttemptAnswersFn(ctx, quizIDs)
	}
	return 0, nil
}

func (m *mockQuizStore) DeleteAttempts(ctx context.Context, quizIDs []uuid.UUID) (int64, error) {
	if m.deleteAttemptsFn != nil {
		return m.deleteAttemptsFn(ctx, quizIDs)
	}
	return 0, nil
}

func (m *mockQuizStore) DeleteFavorites(ctx context.Context, quizIDs []uuid.UUID) (int64, error) {
	if m.deleteFavoritesFn != nil {
		return m.deleteFavoritesFn(ctx, quizIDs)
	}
	return 0, nil
}

func (m *mockQuizStore) DeleteByIDs(ctx context.Context, quizIDs []uuid.UUID) (int64, error) {
	if m.deleteByIDsFn != nil {
		return m.deleteByIDsFn(ctx, quizIDs)
	}
	return 0, nil
}

func (m *mockQuizStore) WithTx(tx *sql.Tx) store.QuizStore { return m }

type mockAssetStore struct {
	createFn         func(ctx context.Context, asset *domain.Asset) error
	listByJobIDsFn   func(ctx context.Context, jobIDs []uuid.UUID) ([]*domain.Asset, error)
	deleteByJobIDsFn func(ctx context.Context, jobIDs []uuid.UUID) (int64, error)
}

var _ store.AssetStore = (*mockAssetStore)(nil)

func (m *mockAssetStore) Create(ctx context.Context, asset *domain.Asset) error {
	if m.createFn != nil {
		return m.createFn(ctx, asset)
	}
	return nil
}

func (m *mockAssetStore) ListByJobIDs(ctx context.Context, jobIDs []uuid.UUID) ([]*domain.Asset, error) {
	if m.listByJobIDsFn != nil {
		return m.listByJobIDsFn(ctx, jobIDs)
	}
	return nil, nil
}

func (m *mockAssetStore) DeleteByJobIDs(ctx context.Context, jobIDs []uuid.UUID) (int64, error) {
	if m.deleteByJobIDsFn != nil {
		return m.deleteByJobIDsFn(ctx, jobIDs)
	}
	return 0, nil
}

func (m *mockAssetStore) WithTx(tx *sql.Tx) store.AssetStore { return m }

// mockTaxonomyStore defaults to the test fixture pools so most tests need
// no configuration.
type mockTaxonomyStore struct {
	listActiveCategoriesFn   func(ctx context.Context) ([]*domain.Category, error)
	listActiveDifficultiesFn func(ctx context.Context) ([]*domain.Difficulty, error)
	listLanguagesFn          func(ctx context.Context) ([]*domain.Language, error)
}

var _ store.TaxonomyStore = (*mockTaxonomyStore)(nil)

func (m *mockTaxonomyStore) ListActiveCategories(ctx context.Context) ([]*domain.Category, error) {
	if m.listActiveCategoriesFn != nil {
		return m.listActiveCategoriesFn(ctx)
	}
	return testCategories(), nil
}

func (m *mockTaxonomyStore) ListActiveDifficulties(ctx context.Context) ([]*domain.Difficulty, error) {
	if m.listActiveDifficultiesFn != nil {
		return m.listActiveDifficultiesFn(ctx)
	}
	return testDifficulties(), nil
}

func (m *mockTaxonomyStore) ListLanguages(ctx context.Context) ([]*domain.Language, error) {
	if m.listLanguagesFn != nil {
		return m.listLanguagesFn(ctx)
	}
	return testLanguages(), nil
}

type mockGenerator struct {
	generateDraftFn func(ctx context.Context, req generation.Request) (string, error)
}

var _ generation.Generator = (*mockGenerator)(nil)

func (m *mockGenerator) GenerateDraft(ctx context.Context, req generation.Request) (string, error) {
	if m.generateDraftFn != nil {
		return m.generateDraftFn(ctx, req)
	}
	return string(validDraftJSON(nil)), nil
}

// mockFiles satisfies both AssetFileReader and AssetFileRemover.
type mockFiles struct {
	readFn           func(ctx context.Context, asset *domain.Asset) ([]byte, error)
	removeJobFilesFn func(ctx context.Context, jobID uuid.UUID) int
}

func (m *mockFiles) Read(ctx context.Context, asset *domain.Asset) ([]byte, error) {
	if m.readFn != nil {
		return m.readFn(ctx, asset)
	}
	return []byte("bytes"), nil
}

func (m *mockFiles) RemoveJobFiles(ctx context.Context, jobID uuid.UUID) int {
	if m.removeJobFilesFn != nil {
		return m.removeJobFilesFn(ctx, jobID)
	}
	return 0
}

// passTx runs the transaction function with a nil transaction; the mock
// stores ignore WithTx anyway.
func passTx(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

// Fixture taxonomy. IDs are stable across calls within one test binary.

var (
	fixtureCategoryID   = uuid.New()
	fixtureDifficultyID = uuid.New()
)

func testLanguages() []*domain.Language {
	return []*domain.Language{
		{ID: "1", Name: "English", Position: 0},
		{ID: "2", Name: "German", Position: 1},
	}
}

func testCategories() []*domain.Category {
	return []*domain.Category{
		{ID: fixtureCategoryID, Name: "General", Active: true, Position: 0},
		{ID: uuid.New(), Name: "Science", Active: true, Position: 1},
	}
}

func testDifficulties() []*domain.Difficulty {
	return []*domain.Difficulty{
		{ID: fixtureDifficultyID, Name: "Easy", Level: 1, Active: true},
		{ID: uuid.New(), Name: "Hard", Level: 3, Active: true},
	}
}

// validDraftJSON returns a draft document that passes structural
// validation against the fixture languages. t may be nil when called from
// a mock default.
func validDraftJSON(t *testing.T) json.RawMessage {
	draft := &domain.Draft{
		Translations: map[string]domain.LocalizedText{
			"1": {Title: "Rivers", Description: "A quiz about rivers"},
			"2": {Title: "Fluesse", Description: "Ein Quiz ueber Fluesse"},
		},
		Questions: []domain.DraftQuestion{
			{
				Type:         domain.QuestionTypeTrueFalse,
				Translations: map[string]string{"1": "The Nile is in Africa.", "2": "Der Nil liegt in Afrika."},
				Answers: domain.ChoiceAnswers{
					{IsCorrect: true, Translations: map[string]string{"1": "True", "2": "Wahr"}},
					{IsCorrect: false, Translations: map[string]string{"1": "False", "2": "Falsch"}},
				},
			},
			{
				Type:         domain.QuestionTypeText,
				Translations: map[string]string{"1": "Name any river.", "2": "Nenne einen Fluss."},
				Answers:      domain.TextAnswers{"Nile", "Amazon"},
			},
		},
	}

	raw, err := json.Marshal(draft)
	if t != nil {
		require.NoError(t, err)
	}
	return raw
}

// pendingJob returns a pending quiz generation job with the given input.
func pendingJob(t *testing.T, input domain.JobInput) *domain.Job {
	t.Helper()
	if input.Prompt == "" {
		input.Prompt = "Write a quiz about rivers."
	}
	job, err := domain.NewJob(uuid.New(), input, "1", "api", "")
	require.NoError(t, err)
	return job
}
