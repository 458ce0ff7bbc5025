package draft

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizgen-io/quizgen-api/internal/domain"
)

func testLanguages() []*domain.Language {
	return []*domain.Language{
		{ID: "1", Name: "English", Position: 0},
		{ID: "2", Name: "German", Position: 1},
	}
}

func testOptions() BuildOptions {
	return BuildOptions{
		OwnerID:   uuid.New(),
		Languages: testLanguages(),
		Categories: []*domain.Category{
			{ID: uuid.New(), Name: "General", Active: true},
			{ID: uuid.New(), Name: "Science", Active: true},
		},
		Difficulties: []*domain.Difficulty{
			{ID: uuid.New(), Name: "Easy", Level: 1, Active: true},
			{ID: uuid.New(), Name: "Hard", Level: 3, Active: true},
		},
	}
}

func localized(title string) map[string]domain.LocalizedText {
	return map[string]domain.LocalizedText{
		"1": {Title: title, Description: title + " description"},
		"2": {Title: title + " (de)", Description: title + " Beschreibung"},
	}
}

func texts(text string) map[string]string {
	return map[string]string{"1": text, "2": text + " (de)"}
}

func choice(correct ...bool) domain.ChoiceAnswers {
	answers := make(domain.ChoiceAnswers, len(correct))
	for i, c := range correct {
		answers[i] = domain.ChoiceAnswer{IsCorrect: c, Translations: texts("answer")}
	}
	return answers
}

func validDraft() *domain.Draft {
	return &domain.Draft{
		Translations: localized("Rivers"),
		Questions: []domain.DraftQuestion{
			{
				Type:         domain.QuestionTypeTrueFalse,
				Translations: texts("The Nile is in Africa."),
				Answers:      choice(true, false),
			},
			{
				Type:         domain.QuestionTypeMultipleChoice,
				Translations: texts("Longest river?"),
				Answers:      choice(true, false, false, false),
			},
			{
				Type:         domain.QuestionTypeText,
				Translations: texts("Name any river."),
				Answers:      domain.TextAnswers{"Nile", "Amazon"},
			},
			{
				Type:         domain.QuestionTypeMatching,
				Translations: texts("Match river to continent."),
				Answers: domain.MatchingAnswers{
					{Left: []string{"Nile", "Amazon"}, Right: []string{"Africa", "South America"}},
				},
			},
		},
	}
}

func TestBuildValidDraft(t *testing.T) {
	opts := testOptions()
	quiz, err := Build(validDraft(), opts)
	require.NoError(t, err)

	assert.Equal(t, opts.OwnerID, quiz.OwnerID)
	assert.Equal(t, opts.Categories[0].ID, quiz.CategoryID)
	assert.Equal(t, opts.Difficulties[0].ID, quiz.DifficultyID)
	assert.Equal(t, domain.VisibilityPrivate, quiz.Visibility)
	require.Len(t, quiz.Questions, 4)

	for i, q := range quiz.Questions {
		assert.Equal(t, i, q.Position)
		assert.Equal(t, quiz.ID, q.QuizID)
		assert.Equal(t, quiz.CategoryID, q.CategoryID, "category propagates into questions")
		assert.Equal(t, opts.OwnerID, q.CreatorID, "creator propagates into questions")
	}

	// true_false: exactly 2 answers, exactly 1 correct.
	tf := quiz.Questions[0]
	require.Len(t, tf.Answers, 2)
	correct := 0
	for _, a := range tf.Answers {
		if a.IsCorrect {
			correct++
		}
	}
	assert.Equal(t, 1, correct)

	// multiple_choice: exactly 4 answers.
	assert.Len(t, quiz.Questions[1].Answers, 4)

	// text: one row per accepted answer.
	text := quiz.Questions[2]
	require.Len(t, text.Answers, 2)
	assert.Equal(t, "Nile", text.Answers[0].AcceptedText)

	// matching: two rows per pair, sides alternating.
	matching := quiz.Questions[3]
	require.Len(t, matching.Answers, 4)
	assert.Equal(t, domain.MatchSideLeft, matching.Answers[0].MatchSide)
	assert.Equal(t, domain.MatchSideRight, matching.Answers[1].MatchSide)
	assert.Equal(t, "Nile", matching.Answers[0].MatchText)
	assert.Equal(t, "Africa", matching.Answers[1].MatchText)
}

func TestBuildCallerOverrides(t *testing.T) {
	opts := testOptions()
	categoryID := uuid.New()
	difficultyID := uuid.New()
	opts.CategoryID = &categoryID
	opts.DifficultyID = &difficultyID
	opts.Visibility = domain.VisibilityPublic

	quiz, err := Build(validDraft(), opts)
	require.NoError(t, err)

	assert.Equal(t, categoryID, quiz.CategoryID)
	assert.Equal(t, difficultyID, quiz.DifficultyID)
	assert.Equal(t, domain.VisibilityPublic, quiz.Visibility)
	assert.Equal(t, categoryID, quiz.Questions[0].CategoryID)
}

func TestBuildRejectsInvalidDrafts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Draft)
	}{
		{
			name:   "no questions",
			mutate: func(d *domain.Draft) { d.Questions = nil },
		},
		{
			name: "missing quiz translation language",
			mutate: func(d *domain.Draft) {
				delete(d.Translations, "2")
			},
		},
		{
			name: "title present but description missing",
			mutate: func(d *domain.Draft) {
				d.Translations["2"] = domain.LocalizedText{Title: "Nur Titel"}
			},
		},
		{
			name: "missing question translation language",
			mutate: func(d *domain.Draft) {
				delete(d.Questions[0].Translations, "2")
			},
		},
		{
			name: "true_false with three answers",
			mutate: func(d *domain.Draft) {
				d.Questions[0].Answers = choice(true, false, false)
			},
		},
		{
			name: "true_false with both answers correct",
			mutate: func(d *domain.Draft) {
				d.Questions[0].Answers = choice(true, true)
			},
		},
		{
			name: "true_false with no correct answer",
			mutate: func(d *domain.Draft) {
				d.Questions[0].Answers = choice(false, false)
			},
		},
		{
			name: "multiple_choice with three answers",
			mutate: func(d *domain.Draft) {
				d.Questions[1].Answers = choice(true, false, false)
			},
		},
		{
			name: "multiple_choice with zero correct answers",
			mutate: func(d *domain.Draft) {
				d.Questions[1].Answers = choice(false, false, false, false)
			},
		},
		{
			name: "text without accepted answers",
			mutate: func(d *domain.Draft) {
				d.Questions[2].Answers = domain.TextAnswers{}
			},
		},
		{
			name: "text with blank accepted answer",
			mutate: func(d *domain.Draft) {
				d.Questions[2].Answers = domain.TextAnswers{"  "}
			},
		},
		{
			name: "matching with one pair",
			mutate: func(d *domain.Draft) {
				d.Questions[3].Answers = domain.MatchingAnswers{
					{Left: []string{"Nile"}, Right: []string{"Africa"}},
				}
			},
		},
		{
			name: "matching with unequal sides",
			mutate: func(d *domain.Draft) {
				d.Questions[3].Answers = domain.MatchingAnswers{
					{Left: []string{"Nile", "Amazon"}, Right: []string{"Africa"}},
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validDraft()
			tc.mutate(d)
			_, err := Build(d, testOptions())
			assert.ErrorIs(t, err, ErrDraftInvalid)
		})
	}
}

func TestBuildTaxonomyDefaultErrors(t *testing.T) {
	opts := testOptions()
	opts.Categories = nil
	_, err := Build(validDraft(), opts)
	assert.ErrorIs(t, err, ErrNoActiveCategory)

	opts = testOptions()
	opts.Difficulties = nil
	_, err = Build(validDraft(), opts)
	assert.ErrorIs(t, err, ErrNoActiveDifficulty)

	opts = testOptions()
	opts.Languages = nil
	_, err = Build(validDraft(), opts)
	assert.ErrorIs(t, err, ErrNoLanguages)
}

func TestParse(t *testing.T) {
	raw := json.RawMessage(`{
		"translations": {"1": {"title": "T", "description": "D"}},
		"questions": [
			{"type": "text", "translations": {"1": "Q"}, "answers": ["A"]}
		]
	}`)

	d, err := Parse(raw)
	require.NoError(t, err)
	assert.Len(t, d.Questions, 1)

	_, err = Parse(json.RawMessage(`{"questions": "not-a-list"}`))
	assert.ErrorIs(t, err, ErrDraftInvalid)

	_, err = Parse(json.RawMessage(`{"questions": [{"type": "essay"}]}`))
	assert.ErrorIs(t, err, ErrDraftInvalid)
}

func TestBuildDropsExtraLanguages(t *testing.T) {
	d := validDraft()
	d.Translations["99"] = domain.LocalizedText{Title: "Extra", Description: "Extra"}

	quiz, err := Build(d, testOptions())
	require.NoError(t, err)

	_, ok := quiz.Translations["99"]
	assert.False(t, ok, "unconfigured languages are dropped")
	assert.Contains(t, quiz.Translations, "1")
	assert.Contains(t, quiz.Translations, "2")
}
