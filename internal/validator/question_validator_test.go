package validator

import (
	"encoding/json"
	"testing"

	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestValidateContent(t *testing.T) {
	v := NewQuestionValidator()

	tests := []struct {
		name         string
		questionType models.QuestionType
		content      string
		wantErr      string
	}{
		{
			name:         "valid multiple choice",
			questionType: models.MultipleChoice,
			content: `{"options": [
				{"id": "a", "text": "A", "is_correct": true},
				{"id": "b", "text": "B", "is_correct": false}
			]}`,
		},
		{
			name:         "multiple choice with one option",
			questionType: models.MultipleChoice,
			content:      `{"options": [{"id": "a", "text": "A", "is_correct": true}]}`,
			wantErr:      "at least 2 options",
		},
		{
			name:         "multiple choice with two correct options",
			questionType: models.MultipleChoice,
			content: `{"options": [
				{"id": "a", "text": "A", "is_correct": true},
				{"id": "b", "text": "B", "is_correct": true}
			]}`,
			wantErr: "exactly 1 correct option",
		},
		{
			name:         "multiple choice option without id",
			questionType: models.MultipleChoice,
			content: `{"options": [
				{"text": "A", "is_correct": true},
				{"id": "b", "text": "B", "is_correct": false}
			]}`,
			wantErr: "missing an id",
		},
		{
			name:         "valid multi select",
			questionType: models.MultiSelect,
			content: `{"options": [
				{"id": "a", "text": "A", "is_correct": true},
				{"id": "b", "text": "B", "is_correct": true},
				{"id": "c", "text": "C", "is_correct": false}
			]}`,
		},
		{
			name:         "multi select without correct options",
			questionType: models.MultiSelect,
			content: `{"options": [
				{"id": "a", "text": "A", "is_correct": false},
				{"id": "b", "text": "B", "is_correct": false}
			]}`,
			wantErr: "at least 1 correct option",
		},
		{
			name:         "valid true false",
			questionType: models.TrueFalse,
			content:      `{"correct_answer": true}`,
		},
		{
			name:         "valid short answer",
			questionType: models.ShortAnswer,
			content:      `{"accepted_answers": ["Paris", "paris"]}`,
		},
		{
			name:         "short answer without accepted answers",
			questionType: models.ShortAnswer,
			content:      `{"accepted_answers": []}`,
			wantErr:      "at least 1 accepted answer",
		},
		{
			name:         "short answer with empty accepted answer",
			questionType: models.ShortAnswer,
			content:      `{"accepted_answers": ["Paris", ""]}`,
			wantErr:      "cannot be empty",
		},
		{
			name:         "valid numeric range",
			questionType: models.NumericRange,
			content:      `{"min": 1, "max": 10}`,
		},
		{
			name:         "numeric range with min above max",
			questionType: models.NumericRange,
			content:      `{"min": 10, "max": 1}`,
			wantErr:      "cannot exceed max",
		},
		{
			name:         "valid matching",
			questionType: models.Matching,
			content: `{"correct_pairs": [
				{"left_id": "l1", "right_id": "r1"},
				{"left_id": "l2", "right_id": "r2"}
			]}`,
		},
		{
			name:         "matching without pairs",
			questionType: models.Matching,
			content:      `{"correct_pairs": []}`,
			wantErr:      "at least 1 correct pair",
		},
		{
			name:         "matching with duplicate left item",
			questionType: models.Matching,
			content: `{"correct_pairs": [
				{"left_id": "l1", "right_id": "r1"},
				{"left_id": "l1", "right_id": "r2"}
			]}`,
			wantErr: "matched more than once",
		},
		{
			name:         "empty content",
			questionType: models.TrueFalse,
			content:      ``,
			wantErr:      "cannot be empty",
		},
		{
			name:         "unsupported type",
			questionType: models.QuestionType("essay"),
			content:      `{}`,
			wantErr:      "unsupported question type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateContent(tt.questionType, json.RawMessage(tt.content))
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateQuestion(t *testing.T) {
	v := NewQuestionValidator()

	valid := &models.Question{
		Text:    "Is the sky blue?",
		Type:    models.TrueFalse,
		Points:  5,
		Content: datatypes.JSON(`{"correct_answer": true}`),
	}
	assert.NoError(t, v.ValidateQuestion(valid))

	missingText := *valid
	missingText.Text = ""
	assert.ErrorContains(t, v.ValidateQuestion(&missingText), "text is required")

	badPoints := *valid
	badPoints.Points = 101
	assert.ErrorContains(t, v.ValidateQuestion(&badPoints), "between 0 and 100")
}

func TestValidateBatch(t *testing.T) {
	v := NewQuestionValidator()

	assert.ErrorContains(t, v.ValidateBatch(nil), "cannot be empty")

	questions := []*models.Question{
		{
			Text:    "Pick one",
			Type:    models.MultipleChoice,
			Points:  10,
			Content: datatypes.JSON(`{"options": [{"id": "a", "is_correct": true}, {"id": "b", "is_correct": false}]}`),
		},
		{
			Text:    "Broken",
			Type:    models.NumericRange,
			Points:  5,
			Content: datatypes.JSON(`{"min": 9, "max": 1}`),
		},
	}
	assert.ErrorContains(t, v.ValidateBatch(questions), "question 2")
}
