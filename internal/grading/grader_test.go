package grading

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func newTestGrader() *Grader {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGrader(NewRegistry(), logger)
}

func twoQuestionAssessment() []*models.Question {
	return []*models.Question{
		{
			ID:     1,
			Type:   models.MultipleChoice,
			Points: 10,
			Content: datatypes.JSON(`{
				"options": [
					{"id": "a", "text": "Option A", "is_correct": true},
					{"id": "b", "text": "Option B", "is_correct": false}
				]
			}`),
		},
		{
			ID:      2,
			Type:    models.NumericRange,
			Points:  5,
			Content: datatypes.JSON(`{"min": 10, "max": 20}`),
		},
	}
}

func TestGradeAttempt_AllCorrect(t *testing.T) {
	grader := newTestGrader()

	score, err := grader.GradeAttempt(twoQuestionAssessment(), map[uint]json.RawMessage{
		1: json.RawMessage(`"a"`),
		2: json.RawMessage(`15`),
	})
	require.NoError(t, err)

	assert.Equal(t, 15.0, score.TotalAwarded)
	assert.Equal(t, 15.0, score.TotalPossible)
	assert.Equal(t, 100.0, score.Percentage)
	require.Len(t, score.Results, 2)
	assert.True(t, score.Results[0].Correct)
	assert.True(t, score.Results[1].Correct)
}

func TestGradeAttempt_AllWrong(t *testing.T) {
	grader := newTestGrader()

	score, err := grader.GradeAttempt(twoQuestionAssessment(), map[uint]json.RawMessage{
		1: json.RawMessage(`"b"`),
		2: json.RawMessage(`25`),
	})
	require.NoError(t, err)

	assert.Zero(t, score.TotalAwarded)
	assert.Equal(t, 15.0, score.TotalPossible)
	assert.Zero(t, score.Percentage)
	for _, result := range score.Results {
		assert.False(t, result.Correct)
		assert.True(t, result.Answered)
	}
}

func TestGradeAttempt_UnansweredQuestionScoresZero(t *testing.T) {
	grader := newTestGrader()

	score, err := grader.GradeAttempt(twoQuestionAssessment(), map[uint]json.RawMessage{
		1: json.RawMessage(`"a"`),
	})
	require.NoError(t, err)

	assert.Equal(t, 10.0, score.TotalAwarded)
	assert.Equal(t, 15.0, score.TotalPossible)
	require.Len(t, score.Results, 2)

	unanswered := score.Results[1]
	assert.Equal(t, uint(2), unanswered.QuestionID)
	assert.False(t, unanswered.Answered)
	assert.False(t, unanswered.Correct)
	assert.Zero(t, unanswered.PointsAwarded)
	assert.Equal(t, 5.0, unanswered.PointsPossible)
}

func TestGradeAttempt_MalformedAnswerScoresZero(t *testing.T) {
	grader := newTestGrader()

	// Numeric question with a non-numeric payload: scored zero, pass continues.
	score, err := grader.GradeAttempt(twoQuestionAssessment(), map[uint]json.RawMessage{
		1: json.RawMessage(`"a"`),
		2: json.RawMessage(`"not a number"`),
	})
	require.NoError(t, err)

	assert.Equal(t, 10.0, score.TotalAwarded)
	require.Len(t, score.Results, 2)

	invalid := score.Results[1]
	assert.True(t, invalid.Answered)
	assert.True(t, invalid.Invalid)
	assert.Zero(t, invalid.PointsAwarded)
}

func TestGradeAttempt_UnsupportedTypeAborts(t *testing.T) {
	grader := newTestGrader()

	questions := []*models.Question{
		{ID: 1, Type: models.QuestionType("essay"), Points: 10, Content: datatypes.JSON(`{}`)},
	}

	score, err := grader.GradeAttempt(questions, map[uint]json.RawMessage{
		1: json.RawMessage(`"some text"`),
	})
	assert.Nil(t, score)
	assert.ErrorIs(t, err, ErrUnsupportedQuestionType)
}

func TestGradeAttempt_EmptyAssessment(t *testing.T) {
	grader := newTestGrader()

	score, err := grader.GradeAttempt(nil, map[uint]json.RawMessage{})
	require.NoError(t, err)

	assert.Zero(t, score.TotalAwarded)
	assert.Zero(t, score.TotalPossible)
	assert.Zero(t, score.Percentage)
	assert.Empty(t, score.Results)
}

func TestGradeAttempt_ResultsFollowQuestionOrder(t *testing.T) {
	grader := newTestGrader()

	questions := []*models.Question{
		{ID: 7, Type: models.TrueFalse, Points: 2, Content: datatypes.JSON(`{"correct_answer": true}`)},
		{ID: 3, Type: models.TrueFalse, Points: 2, Content: datatypes.JSON(`{"correct_answer": false}`)},
		{ID: 9, Type: models.TrueFalse, Points: 2, Content: datatypes.JSON(`{"correct_answer": true}`)},
	}

	// Answer map iteration order must not leak into the results.
	score, err := grader.GradeAttempt(questions, map[uint]json.RawMessage{
		9: json.RawMessage(`true`),
		3: json.RawMessage(`false`),
		7: json.RawMessage(`true`),
	})
	require.NoError(t, err)

	require.Len(t, score.Results, 3)
	assert.Equal(t, uint(7), score.Results[0].QuestionID)
	assert.Equal(t, uint(3), score.Results[1].QuestionID)
	assert.Equal(t, uint(9), score.Results[2].QuestionID)
	assert.Equal(t, 6.0, score.TotalAwarded)
}

func TestGradeAttempt_TotalsMatchPerQuestionSums(t *testing.T) {
	grader := newTestGrader()

	questions := append(twoQuestionAssessment(), &models.Question{
		ID:     3,
		Type:   models.Matching,
		Points: 20,
		Content: datatypes.JSON(`{
			"correct_pairs": [
				{"left_id": "l1", "right_id": "r1"},
				{"left_id": "l2", "right_id": "r2"},
				{"left_id": "l3", "right_id": "r3"},
				{"left_id": "l4", "right_id": "r4"}
			]
		}`),
	})

	score, err := grader.GradeAttempt(questions, map[uint]json.RawMessage{
		1: json.RawMessage(`"a"`),
		2: json.RawMessage(`12`),
		3: json.RawMessage(`{"l1": "r1", "l2": "r2", "l3": "r3", "l4": "r2"}`),
	})
	require.NoError(t, err)

	var awarded, possible float64
	for _, result := range score.Results {
		awarded += result.PointsAwarded
		possible += result.PointsPossible
	}
	assert.Equal(t, awarded, score.TotalAwarded)
	assert.Equal(t, possible, score.TotalPossible)
	assert.Equal(t, 30.0, score.TotalAwarded, "10 + 5 + 15 partial credit")
	assert.Equal(t, 35.0, score.TotalPossible)
	assert.Equal(t, 85.71, score.Percentage)
}
