package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/quizgen-io/quizgen-api/internal/domain"
)

// QuizStore defines the interface for catalog quiz persistence.
type QuizStore interface {
	// CreateAggregate saves a quiz together with its translations,
	// questions, question translations, and answers.
	//
	// IMPORTANT: this method MUST run within a transaction; use WithTx
	// together with store.RunInTransaction. A failure mid-write must
	// leave no partial quiz visible.
	CreateAggregate(ctx context.Context, quiz *domain.Quiz) error

	// GetByID retrieves a quiz aggregate by its unique ID.
	// Returns ErrQuizNotFound if the quiz does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error)

	// DeleteAttemptAnswers removes answer-level attempt logs of the given
	// quizzes and returns the number of rows deleted.
	DeleteAttemptAnswers(ctx context.Context, quizIDs []uuid.UUID) (int64, error)

	// DeleteAttempts removes attempts of the given quizzes and returns
	// the number of rows deleted. Call DeleteAttemptAnswers first.
	DeleteAttempts(ctx context.Context, quizIDs []uuid.UUID) (int64, error)

	// DeleteFavorites removes favorite markers of the given quizzes and
	// returns the number of rows deleted.
	DeleteFavorites(ctx context.Context, quizIDs []uuid.UUID) (int64, error)

	// DeleteByIDs removes the given quizzes and everything they own
	// (answers, question translations, questions, quiz translations) in
	// dependency order. Returns the number of quiz rows deleted.
	DeleteByIDs(ctx context.Context, quizIDs []uuid.UUID) (int64, error)

	// WithTx returns a QuizStore bound to the given transaction.
	WithTx(tx *sql.Tx) QuizStore
}
