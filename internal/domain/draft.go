package domain

import (
	"encoding/json"
	"fmt"
)

// QuestionType identifies one of the four recognized question kinds.
type QuestionType string

// Recognized question types.
const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeText           QuestionType = "text"
	QuestionTypeMatching       QuestionType = "matching"
)

// LocalizedText is a per-language title/description pair. Both fields are
// mandatory for every configured language; a missing description with a
// present title is a structural error, not a defaultable gap.
type LocalizedText struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Draft is the structured quiz content produced by the AI collaborator or
// supplied by an apply caller. It is the wire contract of the pipeline:
// top-level translations keyed by language identifier plus a list of typed
// questions.
type Draft struct {
	Translations map[string]LocalizedText `json:"translations"`
	Questions    []DraftQuestion          `json:"questions"`
}

// AnswerSet is the tagged-union payload of a draft question. Exactly one of
// the three concrete shapes backs it, selected by the question type when the
// draft is decoded.
type AnswerSet interface {
	isAnswerSet()
}

// ChoiceAnswer is one selectable answer of a multiple_choice or true_false
// question.
type ChoiceAnswer struct {
	IsCorrect    bool              `json:"is_correct"`
	Translations map[string]string `json:"translations"`
}

// ChoiceAnswers backs multiple_choice and true_false questions.
type ChoiceAnswers []ChoiceAnswer

func (ChoiceAnswers) isAnswerSet() {}

// TextAnswers backs text questions: the accepted answer strings.
type TextAnswers []string

func (TextAnswers) isAnswerSet() {}

// MatchingGroup is one group of left/right pairs of a matching question.
// Left and Right must be the same length within a group.
type MatchingGroup struct {
	Left  []string `json:"left"`
	Right []string `json:"right"`
}

// MatchingAnswers backs matching questions.
type MatchingAnswers []MatchingGroup

func (MatchingAnswers) isAnswerSet() {}

// DraftQuestion is one question of a draft. The Answers field holds the
// variant matching Type; decoding rejects unknown types up front so the
// validator never sees an untyped answer payload.
type DraftQuestion struct {
	Type         QuestionType      `json:"type"`
	Translations map[string]string `json:"translations"`
	Answers      AnswerSet         `json:"answers"`
}

// UnmarshalJSON decodes a draft question, selecting the answer shape from
// the type discriminator.
func (q *DraftQuestion) UnmarshalJSON(data []byte) error {
	var head struct {
		Type         QuestionType      `json:"type"`
		Translations map[string]string `json:"translations"`
		Answers      json.RawMessage   `json:"answers"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}

	q.Type = head.Type
	q.Translations = head.Translations
	q.Answers = nil

	if len(head.Answers) == 0 {
		head.Answers = json.RawMessage("[]")
	}

	switch head.Type {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse:
		var answers ChoiceAnswers
		if err := json.Unmarshal(head.Answers, &answers); err != nil {
			return fmt.Errorf("decoding %s answers: %w", head.Type, err)
		}
		q.Answers = answers
	case QuestionTypeText:
		var answers TextAnswers
		if err := json.Unmarshal(head.Answers, &answers); err != nil {
			return fmt.Errorf("decoding text answers: %w", err)
		}
		q.Answers = answers
	case QuestionTypeMatching:
		var answers MatchingAnswers
		if err := json.Unmarshal(head.Answers, &answers); err != nil {
			return fmt.Errorf("decoding matching answers: %w", err)
		}
		q.Answers = answers
	default:
		return fmt.Errorf("%w: %q", ErrUnknownQuestionType, head.Type)
	}

	return nil
}

// MarshalJSON encodes a draft question back to its wire shape.
func (q DraftQuestion) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type         QuestionType      `json:"type"`
		Translations map[string]string `json:"translations"`
		Answers      AnswerSet         `json:"answers"`
	}{
		Type:         q.Type,
		Translations: q.Translations,
		Answers:      q.Answers,
	})
}

// Choice returns the choice answers of a multiple_choice or true_false
// question, or nil when the question is of another kind.
func (q *DraftQuestion) Choice() ChoiceAnswers {
	answers, _ := q.Answers.(ChoiceAnswers)
	return answers
}

// Accepted returns the accepted answer strings of a text question, or nil
// when the question is of another kind.
func (q *DraftQuestion) Accepted() TextAnswers {
	answers, _ := q.Answers.(TextAnswers)
	return answers
}

// Matching returns the left/right groups of a matching question, or nil
// when the question is of another kind.
func (q *DraftQuestion) Matching() MatchingAnswers {
	answers, _ := q.Answers.(MatchingAnswers)
	return answers
}
