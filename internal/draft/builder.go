// Package draft validates raw generated quiz content and builds the
// canonical catalog aggregate from it. Everything here is pure: callers
// load the taxonomy and pass it in, and the builder never touches storage.
package draft

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quizgen-io/quizgen-api/internal/domain"
)

// Answer count rules per question type.
const (
	trueFalseAnswerCount      = 2
	multipleChoiceAnswerCount = 4
	minMatchingPairs          = 2
)

// BuildOptions carries the caller-supplied overrides and the taxonomy
// snapshot the builder validates and defaults against.
type BuildOptions struct {
	// OwnerID becomes the quiz owner and the creator propagated into
	// every question.
	OwnerID uuid.UUID

	// CategoryID, when non-nil, overrides the default (first active
	// category).
	CategoryID *uuid.UUID

	// DifficultyID, when non-nil, overrides the default (first active
	// difficulty).
	DifficultyID *uuid.UUID

	// Visibility of the resulting quiz; empty defaults to private.
	Visibility domain.Visibility

	// Languages is the configured language set. Every translations map
	// in the draft must cover every entry.
	Languages []*domain.Language

	// Categories is the active category pool, ordered; first is default.
	Categories []*domain.Category

	// Difficulties is the active difficulty pool, ordered; first is
	// default.
	Difficulties []*domain.Difficulty
}

// Parse decodes raw JSON into a Draft. The input must already be valid
// JSON; non-JSON model output is the processor's concern. Any decode
// failure here (wrong top-level shape, unknown question type, answer shape
// mismatch) is a structural error.
func Parse(raw json.RawMessage) (*domain.Draft, error) {
	var d domain.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDraftInvalid, err)
	}
	return &d, nil
}

// Build validates a draft against the structural rules and the configured
// languages, then assembles the canonical quiz aggregate: normalized
// translations, defaulted category and difficulty, and the owner identity
// propagated into every question.
func Build(d *domain.Draft, opts BuildOptions) (*domain.Quiz, error) {
	if len(opts.Languages) == 0 {
		return nil, ErrNoLanguages
	}

	if err := validate(d, opts.Languages); err != nil {
		return nil, err
	}

	categoryID, err := resolveCategory(opts)
	if err != nil {
		return nil, err
	}

	difficultyID, err := resolveDifficulty(opts)
	if err != nil {
		return nil, err
	}

	visibility := opts.Visibility
	if visibility == "" {
		visibility = domain.VisibilityPrivate
	}

	now := time.Now().UTC()
	quiz := &domain.Quiz{
		ID:           uuid.New(),
		OwnerID:      opts.OwnerID,
		CategoryID:   categoryID,
		DifficultyID: difficultyID,
		Visibility:   visibility,
		Translations: normalizeLocalized(d.Translations, opts.Languages),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	for i, q := range d.Questions {
		question := domain.QuizQuestion{
			ID:           uuid.New(),
			QuizID:       quiz.ID,
			CategoryID:   categoryID,
			CreatorID:    opts.OwnerID,
			Type:         q.Type,
			Position:     i,
			Translations: normalizeTexts(q.Translations, opts.Languages),
		}
		question.Answers = buildAnswers(question.ID, &q, opts.Languages)
		quiz.Questions = append(quiz.Questions, question)
	}

	return quiz, nil
}

// validate applies the structural rules of the draft wire contract.
func validate(d *domain.Draft, languages []*domain.Language) error {
	if err := checkLocalizedCoverage(d.Translations, languages); err != nil {
		return fmt.Errorf("%w: quiz translations: %v", ErrDraftInvalid, err)
	}

	if len(d.Questions) == 0 {
		return fmt.Errorf("%w: draft has no questions", ErrDraftInvalid)
	}

	for i, q := range d.Questions {
		if err := validateQuestion(&q, languages); err != nil {
			return fmt.Errorf("%w: question %d: %v", ErrDraftInvalid, i, err)
		}
	}

	return nil
}

func validateQuestion(q *domain.DraftQuestion, languages []*domain.Language) error {
	if err := checkTextCoverage(q.Translations, languages); err != nil {
		return fmt.Errorf("question translations: %w", err)
	}

	switch q.Type {
	case domain.QuestionTypeTrueFalse:
		answers := q.Choice()
		if len(answers) != trueFalseAnswerCount {
			return fmt.Errorf("true_false must have exactly %d answers, got %d",
				trueFalseAnswerCount, len(answers))
		}
		if n := countCorrect(answers); n != 1 {
			return fmt.Errorf("true_false must have exactly one correct answer, got %d", n)
		}
		return checkChoiceTranslations(answers, languages)

	case domain.QuestionTypeMultipleChoice:
		answers := q.Choice()
		if len(answers) != multipleChoiceAnswerCount {
			return fmt.Errorf("multiple_choice must have exactly %d answers, got %d",
				multipleChoiceAnswerCount, len(answers))
		}
		if countCorrect(answers) == 0 {
			return fmt.Errorf("multiple_choice must have at least one correct answer")
		}
		return checkChoiceTranslations(answers, languages)

	case domain.QuestionTypeText:
		accepted := q.Accepted()
		if len(accepted) == 0 {
			return fmt.Errorf("text question must have at least one accepted answer")
		}
		for i, a := range accepted {
			if strings.TrimSpace(a) == "" {
				return fmt.Errorf("accepted answer %d is empty", i)
			}
		}
		return nil

	case domain.QuestionTypeMatching:
		groups := q.Matching()
		totalPairs := 0
		for gi, g := range groups {
			if len(g.Left) != len(g.Right) {
				return fmt.Errorf("matching group %d has %d left and %d right entries",
					gi, len(g.Left), len(g.Right))
			}
			totalPairs += len(g.Left)
		}
		if totalPairs < minMatchingPairs {
			return fmt.Errorf("matching question must have at least %d pairs, got %d",
				minMatchingPairs, totalPairs)
		}
		return nil

	default:
		return fmt.Errorf("%v: %q", domain.ErrUnknownQuestionType, q.Type)
	}
}

// checkLocalizedCoverage requires a title and a description for every
// configured language. A present title with a missing description is a
// structural error, not a defaultable gap.
func checkLocalizedCoverage(m map[string]domain.LocalizedText, languages []*domain.Language) error {
	for _, lang := range languages {
		entry, ok := m[lang.ID]
		if !ok {
			return fmt.Errorf("missing language %s", lang.ID)
		}
		if strings.TrimSpace(entry.Title) == "" {
			return fmt.Errorf("language %s has an empty title", lang.ID)
		}
		if strings.TrimSpace(entry.Description) == "" {
			return fmt.Errorf("language %s has an empty description", lang.ID)
		}
	}
	return nil
}

func checkTextCoverage(m map[string]string, languages []*domain.Language) error {
	for _, lang := range languages {
		if strings.TrimSpace(m[lang.ID]) == "" {
			return fmt.Errorf("missing language %s", lang.ID)
		}
	}
	return nil
}

func checkChoiceTranslations(answers domain.ChoiceAnswers, languages []*domain.Language) error {
	for i, a := range answers {
		if err := checkTextCoverage(a.Translations, languages); err != nil {
			return fmt.Errorf("answer %d translations: %w", i, err)
		}
	}
	return nil
}

func countCorrect(answers domain.ChoiceAnswers) int {
	n := 0
	for _, a := range answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}

func resolveCategory(opts BuildOptions) (uuid.UUID, error) {
	if opts.CategoryID != nil {
		return *opts.CategoryID, nil
	}
	if len(opts.Categories) == 0 {
		return uuid.Nil, ErrNoActiveCategory
	}
	return opts.Categories[0].ID, nil
}

func resolveDifficulty(opts BuildOptions) (uuid.UUID, error) {
	if opts.DifficultyID != nil {
		return *opts.DifficultyID, nil
	}
	if len(opts.Difficulties) == 0 {
		return uuid.Nil, ErrNoActiveDifficulty
	}
	return opts.Difficulties[0].ID, nil
}

// normalizeLocalized copies the localized entries for the configured
// languages, trimming whitespace. Extra languages the model volunteered
// are dropped.
func normalizeLocalized(m map[string]domain.LocalizedText, languages []*domain.Language) map[string]domain.LocalizedText {
	out := make(map[string]domain.LocalizedText, len(languages))
	for _, lang := range languages {
		entry := m[lang.ID]
		out[lang.ID] = domain.LocalizedText{
			Title:       strings.TrimSpace(entry.Title),
			Description: strings.TrimSpace(entry.Description),
		}
	}
	return out
}

func normalizeTexts(m map[string]string, languages []*domain.Language) map[string]string {
	out := make(map[string]string, len(languages))
	for _, lang := range languages {
		out[lang.ID] = strings.TrimSpace(m[lang.ID])
	}
	return out
}

// buildAnswers converts a draft question's answer payload into persisted
// answer rows. Matching groups are flattened into one row per cell, keyed
// by group index and side.
func buildAnswers(questionID uuid.UUID, q *domain.DraftQuestion, languages []*domain.Language) []domain.QuizAnswer {
	var answers []domain.QuizAnswer

	switch q.Type {
	case domain.QuestionTypeMultipleChoice, domain.QuestionTypeTrueFalse:
		for i, a := range q.Choice() {
			answers = append(answers, domain.QuizAnswer{
				ID:           uuid.New(),
				QuestionID:   questionID,
				Position:     i,
				IsCorrect:    a.IsCorrect,
				Translations: normalizeTexts(a.Translations, languages),
			})
		}

	case domain.QuestionTypeText:
		for i, a := range q.Accepted() {
			answers = append(answers, domain.QuizAnswer{
				ID:           uuid.New(),
				QuestionID:   questionID,
				Position:     i,
				AcceptedText: strings.TrimSpace(a),
			})
		}

	case domain.QuestionTypeMatching:
		pos := 0
		for gi, g := range q.Matching() {
			for i := range g.Left {
				answers = append(answers,
					domain.QuizAnswer{
						ID:         uuid.New(),
						QuestionID: questionID,
						Position:   pos,
						MatchGroup: gi,
						MatchSide:  domain.MatchSideLeft,
						MatchText:  strings.TrimSpace(g.Left[i]),
					},
					domain.QuizAnswer{
						ID:         uuid.New(),
						QuestionID: questionID,
						Position:   pos + 1,
						MatchGroup: gi,
						MatchSide:  domain.MatchSideRight,
						MatchText:  strings.TrimSpace(g.Right[i]),
					},
				)
				pos += 2
			}
		}
	}

	return answers
}
