package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Visibility controls who can see a catalog quiz.
type Visibility string

// Possible visibility values.
const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// MatchSide marks which column of a matching pair an answer row belongs to.
type MatchSide string

// Matching answer sides.
const (
	MatchSideLeft  MatchSide = "left"
	MatchSideRight MatchSide = "right"
)

// Quiz-specific validation errors.
var (
	ErrEmptyQuizID           = errors.New("quiz ID cannot be empty")
	ErrEmptyQuizOwnerID      = errors.New("quiz owner ID cannot be empty")
	ErrEmptyQuizCategoryID   = errors.New("quiz category ID cannot be empty")
	ErrEmptyQuizDifficultyID = errors.New("quiz difficulty ID cannot be empty")
	ErrQuizWithoutQuestions  = errors.New("quiz must have at least one question")
)

// Quiz is the catalog item ultimately created from a validated draft. It
// owns its questions, answers, and per-language translations; the aggregate
// is persisted as a single atomic write.
type Quiz struct {
	ID           uuid.UUID                `json:"id"`
	OwnerID      uuid.UUID                `json:"owner_id"`
	CategoryID   uuid.UUID                `json:"category_id"`
	DifficultyID uuid.UUID                `json:"difficulty_id"`
	Visibility   Visibility               `json:"visibility"`
	Translations map[string]LocalizedText `json:"translations"`
	Questions    []QuizQuestion           `json:"questions"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
}

// QuizQuestion is one persisted question of a quiz. CategoryID and
// CreatorID are propagated down from the quiz so questions stay queryable
// on their own.
type QuizQuestion struct {
	ID           uuid.UUID         `json:"id"`
	QuizID       uuid.UUID         `json:"quiz_id"`
	CategoryID   uuid.UUID         `json:"category_id"`
	CreatorID    uuid.UUID         `json:"creator_id"`
	Type         QuestionType      `json:"type"`
	Position     int               `json:"position"`
	Translations map[string]string `json:"translations"`
	Answers      []QuizAnswer      `json:"answers"`
}

// QuizAnswer is one persisted answer row. The populated fields depend on
// the owning question's type: choice questions use IsCorrect plus
// Translations, text questions use AcceptedText, matching questions use
// MatchGroup, MatchSide, and MatchText.
type QuizAnswer struct {
	ID           uuid.UUID         `json:"id"`
	QuestionID   uuid.UUID         `json:"question_id"`
	Position     int               `json:"position"`
	IsCorrect    bool              `json:"is_correct,omitempty"`
	Translations map[string]string `json:"translations,omitempty"`
	AcceptedText string            `json:"accepted_text,omitempty"`
	MatchGroup   int               `json:"match_group,omitempty"`
	MatchSide    MatchSide         `json:"match_side,omitempty"`
	MatchText    string            `json:"match_text,omitempty"`
}

// Validate checks if the Quiz aggregate has valid identity data.
// Structural rules on questions and answers are the draft builder's
// responsibility; this only guards the persistence boundary.
func (q *Quiz) Validate() error {
	if q.ID == uuid.Nil {
		return ErrEmptyQuizID
	}

	if q.OwnerID == uuid.Nil {
		return ErrEmptyQuizOwnerID
	}

	if q.CategoryID == uuid.Nil {
		return ErrEmptyQuizCategoryID
	}

	if q.DifficultyID == uuid.Nil {
		return ErrEmptyQuizDifficultyID
	}

	if len(q.Questions) == 0 {
		return ErrQuizWithoutQuestions
	}

	if !isValidVisibility(q.Visibility) {
		return ErrInvalidVisibility
	}

	return nil
}

// isValidVisibility checks if the given visibility is a valid Visibility.
func isValidVisibility(v Visibility) bool {
	switch v {
	case VisibilityPrivate, VisibilityPublic:
		return true
	default:
		return false
	}
}
