package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quizgen-io/quizgen-api/internal/domain"
	"github.com/quizgen-io/quizgen-api/internal/platform/logger"
	"github.com/quizgen-io/quizgen-api/internal/store"
)

// QuizStore implements the store.QuizStore interface using PostgreSQL.
// Translation maps are stored as JSONB alongside their owning rows.
type QuizStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewQuizStore creates a new PostgreSQL implementation of the QuizStore
// interface. If logger is nil, a default logger is used.
func NewQuizStore(db store.DBTX, log *slog.Logger) *QuizStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	return &QuizStore{
		db:     db,
		logger: log.With(slog.String("component", "quiz_store")),
	}
}

// Ensure QuizStore implements store.QuizStore.
var _ store.QuizStore = (*QuizStore)(nil)

// WithTx returns a QuizStore bound to the given transaction.
func (s *QuizStore) WithTx(tx *sql.Tx) store.QuizStore {
	return &QuizStore{db: tx, logger: s.logger}
}

// CreateAggregate implements store.QuizStore.CreateAggregate. It inserts
// the quiz row, then every question and answer. Callers must run it inside
// a transaction via WithTx and store.RunInTransaction.
func (s *QuizStore) CreateAggregate(ctx context.Context, quiz *domain.Quiz) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := quiz.Validate(); err != nil {
		log.Warn("quiz validation failed during create",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quiz.ID.String()))
		return err
	}

	translations, err := json.Marshal(quiz.Translations)
	if err != nil {
		return fmt.Errorf("failed to marshal quiz translations: %w", err)
	}

	quizQuery := `
		INSERT INTO quizzes (id, owner_id, category_id, difficulty_id, visibility,
			translations, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, quizQuery,
		quiz.ID,
		quiz.OwnerID,
		quiz.CategoryID,
		quiz.DifficultyID,
		quiz.Visibility,
		translations,
		quiz.CreatedAt,
		quiz.UpdatedAt,
	)
	if err != nil {
		return MapError(err)
	}

	for i := range quiz.Questions {
		if err := s.insertQuestion(ctx, &quiz.Questions[i]); err != nil {
			return err
		}
	}

	log.Info("quiz aggregate created",
		slog.String("quiz_id", quiz.ID.String()),
		slog.Int("question_count", len(quiz.Questions)))
	return nil
}

func (s *QuizStore) insertQuestion(ctx context.Context, q *domain.QuizQuestion) error {
	translations, err := json.Marshal(q.Translations)
	if err != nil {
		return fmt.Errorf("failed to marshal question translations: %w", err)
	}

	query := `
		INSERT INTO quiz_questions (id, quiz_id, category_id, creator_id, type,
			position, translations)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.db.ExecContext(ctx, query,
		q.ID, q.QuizID, q.CategoryID, q.CreatorID, q.Type, q.Position, translations)
	if err != nil {
		return MapError(err)
	}

	answerQuery := `
		INSERT INTO quiz_answers (id, question_id, position, is_correct,
			translations, accepted_text, match_group, match_side, match_text)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	for _, a := range q.Answers {
		answerTranslations, err := json.Marshal(a.Translations)
		if err != nil {
			return fmt.Errorf("failed to marshal answer translations: %w", err)
		}

		_, err = s.db.ExecContext(ctx, answerQuery,
			a.ID, a.QuestionID, a.Position, a.IsCorrect,
			answerTranslations, a.AcceptedText, a.MatchGroup, string(a.MatchSide), a.MatchText)
		if err != nil {
			return MapError(err)
		}
	}

	return nil
}

// GetByID implements store.QuizStore.GetByID, reassembling the full
// aggregate.
func (s *QuizStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error) {
	quizQuery := `
		SELECT id, owner_id, category_id, difficulty_id, visibility, translations,
			created_at, updated_at
		FROM quizzes
		WHERE id = $1
	`

	var (
		quiz         domain.Quiz
		visibility   string
		translations []byte
	)
	err := s.db.QueryRowContext(ctx, quizQuery, id).Scan(
		&quiz.ID,
		&quiz.OwnerID,
		&quiz.CategoryID,
		&quiz.DifficultyID,
		&visibility,
		&translations,
		&quiz.CreatedAt,
		&quiz.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQuizNotFound
		}
		return nil, MapError(err)
	}

	quiz.Visibility = domain.Visibility(visibility)
	if err := json.Unmarshal(translations, &quiz.Translations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal quiz translations: %w", err)
	}

	if err := s.loadQuestions(ctx, &quiz); err != nil {
		return nil, err
	}

	return &quiz, nil
}

func (s *QuizStore) loadQuestions(ctx context.Context, quiz *domain.Quiz) error {
	questionQuery := `
		SELECT id, quiz_id, category_id, creator_id, type, position, translations
		FROM quiz_questions
		WHERE quiz_id = $1
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, questionQuery, quiz.ID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			q            domain.QuizQuestion
			qType        string
			translations []byte
		)
		if err := rows.Scan(&q.ID, &q.QuizID, &q.CategoryID, &q.CreatorID,
			&qType, &q.Position, &translations); err != nil {
			return fmt.Errorf("failed to scan question row: %w", err)
		}
		q.Type = domain.QuestionType(qType)
		if err := json.Unmarshal(translations, &q.Translations); err != nil {
			return fmt.Errorf("failed to unmarshal question translations: %w", err)
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return MapError(err)
	}

	for i := range quiz.Questions {
		if err := s.loadAnswers(ctx, &quiz.Questions[i]); err != nil {
			return err
		}
	}

	return nil
}

func (s *QuizStore) loadAnswers(ctx context.Context, q *domain.QuizQuestion) error {
	answerQuery := `
		SELECT id, question_id, position, is_correct, translations, accepted_text,
			match_group, match_side, match_text
		FROM quiz_answers
		WHERE question_id = $1
		ORDER BY position ASC
	`
	rows, err := s.db.QueryContext(ctx, answerQuery, q.ID)
	if err != nil {
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			a            domain.QuizAnswer
			translations []byte
			matchSide    string
		)
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Position, &a.IsCorrect,
			&translations, &a.AcceptedText, &a.MatchGroup, &matchSide, &a.MatchText); err != nil {
			return fmt.Errorf("failed to scan answer row: %w", err)
		}
		a.MatchSide = domain.MatchSide(matchSide)
		if len(translations) > 0 {
			if err := json.Unmarshal(translations, &a.Translations); err != nil {
				return fmt.Errorf("failed to unmarshal answer translations: %w", err)
			}
		}
		q.Answers = append(q.Answers, a)
	}

	return rows.Err()
}

// DeleteAttemptAnswers implements store.QuizStore.DeleteAttemptAnswers.
func (s *QuizStore) DeleteAttemptAnswers(ctx context.Context, quizIDs []uuid.UUID) (int64, error) {
	if len(quizIDs) == 0 {
		return 0, nil
	}

	query := `
		DELETE FROM attempt_answers
		WHERE attempt_id IN (SELECT id FROM quiz_attempts WHERE quiz_id = ANY($1::uuid[]))
	`
	return s.execCount(ctx, query, uuidArray(quizIDs))
}

// DeleteAttempts implements store.QuizStore.DeleteAttempts.
func (s *QuizStore) DeleteAttempts(ctx context.Context, quizIDs []uuid.UUID) (int64, error) {
	if len(quizIDs) == 0 {
		return 0, nil
	}

	return s.execCount(ctx,
		`DELETE FROM quiz_attempts WHERE quiz_id = ANY($1::uuid[])`, uuidArray(quizIDs))
}

// DeleteFavorites implements store.QuizStore.DeleteFavorites.
func (s *QuizStore) DeleteFavorites(ctx context.Context, quizIDs []uuid.UUID) (int64, error) {
	if len(quizIDs) == 0 {
		return 0, nil
	}

	return s.execCount(ctx,
		`DELETE FROM quiz_favorites WHERE quiz_id = ANY($1::uuid[])`, uuidArray(quizIDs))
}

// DeleteByIDs implements store.QuizStore.DeleteByIDs, removing answers,
// questions, and finally the quizzes themselves in dependency order.
func (s *QuizStore) DeleteByIDs(ctx context.Context, quizIDs []uuid.UUID) (int64, error) {
	if len(quizIDs) == 0 {
		return 0, nil
	}

	ids := uuidArray(quizIDs)

	answerQuery := `
		DELETE FROM quiz_answers
		WHERE question_id IN (SELECT id FROM quiz_questions WHERE quiz_id = ANY($1::uuid[]))
	`
	if _, err := s.execCount(ctx, answerQuery, ids); err != nil {
		return 0, err
	}

	if _, err := s.execCount(ctx,
		`DELETE FROM quiz_questions WHERE quiz_id = ANY($1::uuid[])`, ids); err != nil {
		return 0, err
	}

	return s.execCount(ctx, `DELETE FROM quizzes WHERE id = ANY($1::uuid[])`, ids)
}

func (s *QuizStore) execCount(ctx context.Context, query string, args ...any) (int64, error) {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, MapError(err)
	}
	return result.RowsAffected()
}
