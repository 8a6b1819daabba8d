package grading

import (
	"testing"

	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func mcQuestion(points int) *models.Question {
	return &models.Question{
		ID:     1,
		Type:   models.MultipleChoice,
		Points: points,
		Content: datatypes.JSON(`{
			"options": [
				{"id": "a", "text": "Paris", "is_correct": true},
				{"id": "b", "text": "London", "is_correct": false},
				{"id": "c", "text": "Berlin", "is_correct": false}
			]
		}`),
	}
}

func TestMultipleChoiceStrategy(t *testing.T) {
	question := mcQuestion(10)
	strategy := multipleChoiceStrategy{}

	tests := []struct {
		name        string
		answer      Answer
		wantPoints  float64
		wantCorrect bool
	}{
		{"correct option", Answer{Choice: "a"}, 10, true},
		{"wrong option", Answer{Choice: "b"}, 0, false},
		{"unknown option", Answer{Choice: "z"}, 0, false},
		{"empty choice", Answer{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := strategy.Score(question, tt.answer)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPoints, result.PointsAwarded)
			assert.Equal(t, tt.wantCorrect, result.Correct)
		})
	}
}

func TestMultipleChoiceStrategy_NoCorrectOption(t *testing.T) {
	question := &models.Question{
		ID:     1,
		Type:   models.MultipleChoice,
		Points: 10,
		Content: datatypes.JSON(`{
			"options": [{"id": "a", "text": "Paris", "is_correct": false}]
		}`),
	}

	result, err := multipleChoiceStrategy{}.Score(question, Answer{Choice: "a"})
	require.NoError(t, err)
	assert.Zero(t, result.PointsAwarded)
	assert.False(t, result.Correct)
}

func TestMultiSelectStrategy(t *testing.T) {
	question := &models.Question{
		ID:     2,
		Type:   models.MultiSelect,
		Points: 8,
		Content: datatypes.JSON(`{
			"options": [
				{"id": "a", "text": "2", "is_correct": true},
				{"id": "b", "text": "3", "is_correct": true},
				{"id": "c", "text": "4", "is_correct": false},
				{"id": "d", "text": "5", "is_correct": true}
			]
		}`),
	}
	strategy := multiSelectStrategy{}

	tests := []struct {
		name        string
		choices     []string
		wantPoints  float64
		wantCorrect bool
	}{
		{"exact match", []string{"a", "b", "d"}, 8, true},
		{"exact match different order", []string{"d", "a", "b"}, 8, true},
		{"subset scores zero", []string{"a", "b"}, 0, false},
		{"superset scores zero", []string{"a", "b", "c", "d"}, 0, false},
		{"disjoint scores zero", []string{"c"}, 0, false},
		{"empty scores zero", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := strategy.Score(question, Answer{Choices: tt.choices})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPoints, result.PointsAwarded)
			assert.Equal(t, tt.wantCorrect, result.Correct)
		})
	}
}

func TestTrueFalseStrategy(t *testing.T) {
	question := &models.Question{
		ID:      3,
		Type:    models.TrueFalse,
		Points:  5,
		Content: datatypes.JSON(`{"correct_answer": true}`),
	}
	strategy := trueFalseStrategy{}

	correct, err := strategy.Score(question, Answer{Flag: true})
	require.NoError(t, err)
	assert.Equal(t, 5.0, correct.PointsAwarded)
	assert.True(t, correct.Correct)

	wrong, err := strategy.Score(question, Answer{Flag: false})
	require.NoError(t, err)
	assert.Zero(t, wrong.PointsAwarded)
	assert.False(t, wrong.Correct)
	assert.Contains(t, wrong.Feedback, "True")
}

func TestShortAnswerStrategy(t *testing.T) {
	question := &models.Question{
		ID:      4,
		Type:    models.ShortAnswer,
		Points:  6,
		Content: datatypes.JSON(`{"accepted_answers": ["Paris", "paris, france"], "case_sensitive": false}`),
	}
	strategy := shortAnswerStrategy{}

	tests := []struct {
		name        string
		text        string
		wantCorrect bool
	}{
		{"exact match", "Paris", true},
		{"case insensitive", "PARIS", true},
		{"surrounding whitespace trimmed", "  paris  ", true},
		{"second accepted answer", "Paris, France", true},
		{"no match", "London", false},
		{"substring does not match", "Par", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := strategy.Score(question, Answer{Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCorrect, result.Correct)
			if tt.wantCorrect {
				assert.Equal(t, 6.0, result.PointsAwarded)
			} else {
				assert.Zero(t, result.PointsAwarded)
			}
		})
	}
}

func TestShortAnswerStrategy_CaseSensitive(t *testing.T) {
	question := &models.Question{
		ID:      4,
		Type:    models.ShortAnswer,
		Points:  6,
		Content: datatypes.JSON(`{"accepted_answers": ["pH"], "case_sensitive": true}`),
	}

	match, err := shortAnswerStrategy{}.Score(question, Answer{Text: "pH"})
	require.NoError(t, err)
	assert.True(t, match.Correct)

	miss, err := shortAnswerStrategy{}.Score(question, Answer{Text: "ph"})
	require.NoError(t, err)
	assert.False(t, miss.Correct)
}

func TestNumericRangeStrategy(t *testing.T) {
	question := &models.Question{
		ID:      5,
		Type:    models.NumericRange,
		Points:  5,
		Content: datatypes.JSON(`{"min": 10, "max": 20}`),
	}
	strategy := numericRangeStrategy{}

	tests := []struct {
		name        string
		value       float64
		wantCorrect bool
	}{
		{"inside range", 15, true},
		{"lower bound inclusive", 10, true},
		{"upper bound inclusive", 20, true},
		{"below range", 9.99, false},
		{"above range", 25, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := strategy.Score(question, Answer{Value: tt.value})
			require.NoError(t, err)
			assert.Equal(t, tt.wantCorrect, result.Correct)
			if tt.wantCorrect {
				assert.Equal(t, 5.0, result.PointsAwarded)
			} else {
				assert.Zero(t, result.PointsAwarded)
			}
		})
	}
}

func matchingQuestion(points int) *models.Question {
	return &models.Question{
		ID:     6,
		Type:   models.Matching,
		Points: points,
		Content: datatypes.JSON(`{
			"left_items": [
				{"id": "l1", "text": "France"},
				{"id": "l2", "text": "Germany"},
				{"id": "l3", "text": "Spain"},
				{"id": "l4", "text": "Italy"}
			],
			"right_items": [
				{"id": "r1", "text": "Paris"},
				{"id": "r2", "text": "Berlin"},
				{"id": "r3", "text": "Madrid"},
				{"id": "r4", "text": "Rome"}
			],
			"correct_pairs": [
				{"left_id": "l1", "right_id": "r1"},
				{"left_id": "l2", "right_id": "r2"},
				{"left_id": "l3", "right_id": "r3"},
				{"left_id": "l4", "right_id": "r4"}
			]
		}`),
	}
}

func TestMatchingStrategy_PartialCredit(t *testing.T) {
	question := matchingQuestion(20)
	strategy := matchingStrategy{}

	tests := []struct {
		name        string
		pairs       map[string]string
		wantPoints  float64
		wantCorrect bool
	}{
		{
			"all pairs correct",
			map[string]string{"l1": "r1", "l2": "r2", "l3": "r3", "l4": "r4"},
			20, true,
		},
		{
			"three of four pairs",
			map[string]string{"l1": "r1", "l2": "r2", "l3": "r3", "l4": "r1"},
			15, false,
		},
		{
			"one pair",
			map[string]string{"l1": "r1", "l2": "r4", "l3": "r2", "l4": "r3"},
			5, false,
		},
		{
			"no pairs correct",
			map[string]string{"l1": "r2", "l2": "r1", "l3": "r4", "l4": "r3"},
			0, false,
		},
		{
			"missing pairs score as wrong",
			map[string]string{"l1": "r1"},
			5, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := strategy.Score(question, Answer{Pairs: tt.pairs})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPoints, result.PointsAwarded)
			assert.Equal(t, tt.wantCorrect, result.Correct)
		})
	}
}

func TestMatchingStrategy_RoundsHalfUp(t *testing.T) {
	// 10 points over 3 pairs: one correct pair is 3.333..., two are 6.666...
	question := matchingQuestion(10)
	question.Content = datatypes.JSON(`{
		"correct_pairs": [
			{"left_id": "l1", "right_id": "r1"},
			{"left_id": "l2", "right_id": "r2"},
			{"left_id": "l3", "right_id": "r3"}
		]
	}`)

	one, err := matchingStrategy{}.Score(question, Answer{Pairs: map[string]string{"l1": "r1"}})
	require.NoError(t, err)
	assert.Equal(t, 3.33, one.PointsAwarded)

	two, err := matchingStrategy{}.Score(question, Answer{Pairs: map[string]string{"l1": "r1", "l2": "r2"}})
	require.NoError(t, err)
	assert.Equal(t, 6.67, two.PointsAwarded)
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 6.67, roundHalfUp(6.666666, 2))
	assert.Equal(t, 3.33, roundHalfUp(3.333333, 2))
	assert.Equal(t, 13.0, roundHalfUp(12.5, 0))
	assert.Equal(t, 50.0, roundHalfUp(50.0, 2))
	assert.Equal(t, 0.0, roundHalfUp(0, 2))
}
