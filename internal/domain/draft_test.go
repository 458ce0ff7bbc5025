package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftQuestionUnmarshalChoice(t *testing.T) {
	raw := `{
		"type": "true_false",
		"translations": {"1": "Water boils at 100C at sea level."},
		"answers": [
			{"is_correct": true, "translations": {"1": "True"}},
			{"is_correct": false, "translations": {"1": "False"}}
		]
	}`

	var q DraftQuestion
	require.NoError(t, json.Unmarshal([]byte(raw), &q))

	assert.Equal(t, QuestionTypeTrueFalse, q.Type)
	answers := q.Choice()
	require.Len(t, answers, 2)
	assert.True(t, answers[0].IsCorrect)
	assert.Equal(t, "True", answers[0].Translations["1"])
	assert.Nil(t, q.Accepted())
	assert.Nil(t, q.Matching())
}

func TestDraftQuestionUnmarshalText(t *testing.T) {
	raw := `{
		"type": "text",
		"translations": {"1": "Capital of France?"},
		"answers": ["Paris", "paris"]
	}`

	var q DraftQuestion
	require.NoError(t, json.Unmarshal([]byte(raw), &q))

	assert.Equal(t, QuestionTypeText, q.Type)
	assert.Equal(t, TextAnswers{"Paris", "paris"}, q.Accepted())
}

func TestDraftQuestionUnmarshalMatching(t *testing.T) {
	raw := `{
		"type": "matching",
		"translations": {"1": "Match countries to capitals"},
		"answers": [
			{"left": ["France", "Spain"], "right": ["Paris", "Madrid"]}
		]
	}`

	var q DraftQuestion
	require.NoError(t, json.Unmarshal([]byte(raw), &q))

	groups := q.Matching()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"France", "Spain"}, groups[0].Left)
	assert.Equal(t, []string{"Paris", "Madrid"}, groups[0].Right)
}

func TestDraftQuestionUnmarshalUnknownType(t *testing.T) {
	raw := `{"type": "essay", "translations": {}, "answers": []}`

	var q DraftQuestion
	err := json.Unmarshal([]byte(raw), &q)
	assert.ErrorIs(t, err, ErrUnknownQuestionType)
}

func TestDraftQuestionUnmarshalMissingAnswers(t *testing.T) {
	// A question without an answers key decodes to an empty variant; the
	// builder rejects it on count rules rather than on shape.
	raw := `{"type": "multiple_choice", "translations": {"1": "Pick one"}}`

	var q DraftQuestion
	require.NoError(t, json.Unmarshal([]byte(raw), &q))
	assert.Empty(t, q.Choice())
}

func TestDraftRoundTrip(t *testing.T) {
	draft := Draft{
		Translations: map[string]LocalizedText{
			"1": {Title: "Rivers", Description: "A quiz about rivers"},
		},
		Questions: []DraftQuestion{
			{
				Type:         QuestionTypeText,
				Translations: map[string]string{"1": "Longest river?"},
				Answers:      TextAnswers{"Nile"},
			},
		},
	}

	data, err := json.Marshal(draft)
	require.NoError(t, err)

	var decoded Draft
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded.Questions, 1)
	assert.Equal(t, TextAnswers{"Nile"}, decoded.Questions[0].Accepted())
	assert.Equal(t, "Rivers", decoded.Translations["1"].Title)
}
