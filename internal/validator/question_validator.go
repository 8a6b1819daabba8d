package validator

import (
	"encoding/json"
	"fmt"

	"github.com/Mont3ll/lms-backend/internal/models"
)

// QuestionValidator handles question-specific validation
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateContent validates question content based on question type
func (v *QuestionValidator) ValidateContent(questionType models.QuestionType, content json.RawMessage) error {
	if len(content) == 0 {
		return fmt.Errorf("content cannot be empty")
	}

	switch questionType {
	case models.MultipleChoice:
		return v.validateMultipleChoiceContent(content)
	case models.MultiSelect:
		return v.validateMultiSelectContent(content)
	case models.TrueFalse:
		return v.validateTrueFalseContent(content)
	case models.ShortAnswer:
		return v.validateShortAnswerContent(content)
	case models.NumericRange:
		return v.validateNumericRangeContent(content)
	case models.Matching:
		return v.validateMatchingContent(content)
	default:
		return fmt.Errorf("unsupported question type: %s", questionType)
	}
}

// ValidateQuestion validates a complete question object
func (v *QuestionValidator) ValidateQuestion(question *models.Question) error {
	if question.Text == "" {
		return fmt.Errorf("question text is required")
	}

	if question.Points < 0 || question.Points > 100 {
		return fmt.Errorf("question points must be between 0 and 100")
	}

	return v.ValidateContent(question.Type, json.RawMessage(question.Content))
}

// ValidateBatch validates multiple questions
func (v *QuestionValidator) ValidateBatch(questions []*models.Question) error {
	if len(questions) == 0 {
		return fmt.Errorf("question batch cannot be empty")
	}

	for i, question := range questions {
		if err := v.ValidateQuestion(question); err != nil {
			return fmt.Errorf("validation failed for question %d: %w", i+1, err)
		}
	}

	return nil
}

// Private validation methods for each question type

func (v *QuestionValidator) validateMultipleChoiceContent(content json.RawMessage) error {
	var parsed models.MultipleChoiceContent
	if err := json.Unmarshal(content, &parsed); err != nil {
		return fmt.Errorf("invalid multiple choice content: %w", err)
	}

	if len(parsed.Options) < 2 {
		return fmt.Errorf("multiple choice questions require at least 2 options")
	}

	correct := 0
	for i, opt := range parsed.Options {
		if opt.ID == "" {
			return fmt.Errorf("option %d is missing an id", i+1)
		}
		if opt.IsCorrect {
			correct++
		}
	}

	if correct != 1 {
		return fmt.Errorf("multiple choice questions require exactly 1 correct option, got %d", correct)
	}

	return nil
}

func (v *QuestionValidator) validateMultiSelectContent(content json.RawMessage) error {
	var parsed models.MultiSelectContent
	if err := json.Unmarshal(content, &parsed); err != nil {
		return fmt.Errorf("invalid multi select content: %w", err)
	}

	if len(parsed.Options) < 2 {
		return fmt.Errorf("multi select questions require at least 2 options")
	}

	correct := 0
	for i, opt := range parsed.Options {
		if opt.ID == "" {
			return fmt.Errorf("option %d is missing an id", i+1)
		}
		if opt.IsCorrect {
			correct++
		}
	}

	if correct == 0 {
		return fmt.Errorf("multi select questions require at least 1 correct option")
	}

	return nil
}

func (v *QuestionValidator) validateTrueFalseContent(content json.RawMessage) error {
	var parsed models.TrueFalseContent
	if err := json.Unmarshal(content, &parsed); err != nil {
		return fmt.Errorf("invalid true/false content: %w", err)
	}
	return nil
}

func (v *QuestionValidator) validateShortAnswerContent(content json.RawMessage) error {
	var parsed models.ShortAnswerContent
	if err := json.Unmarshal(content, &parsed); err != nil {
		return fmt.Errorf("invalid short answer content: %w", err)
	}

	if len(parsed.AcceptedAnswers) == 0 {
		return fmt.Errorf("short answer questions require at least 1 accepted answer")
	}

	for i, accepted := range parsed.AcceptedAnswers {
		if accepted == "" {
			return fmt.Errorf("accepted answer %d cannot be empty", i+1)
		}
	}

	return nil
}

func (v *QuestionValidator) validateNumericRangeContent(content json.RawMessage) error {
	var parsed models.NumericRangeContent
	if err := json.Unmarshal(content, &parsed); err != nil {
		return fmt.Errorf("invalid numeric range content: %w", err)
	}

	if parsed.Min > parsed.Max {
		return fmt.Errorf("numeric range min %v cannot exceed max %v", parsed.Min, parsed.Max)
	}

	return nil
}

func (v *QuestionValidator) validateMatchingContent(content json.RawMessage) error {
	var parsed models.MatchingContent
	if err := json.Unmarshal(content, &parsed); err != nil {
		return fmt.Errorf("invalid matching content: %w", err)
	}

	if len(parsed.CorrectPairs) == 0 {
		return fmt.Errorf("matching questions require at least 1 correct pair")
	}

	left := make(map[string]bool)
	for i, pair := range parsed.CorrectPairs {
		if pair.LeftID == "" || pair.RightID == "" {
			return fmt.Errorf("correct pair %d is missing an item id", i+1)
		}
		if left[pair.LeftID] {
			return fmt.Errorf("left item %s is matched more than once", pair.LeftID)
		}
		left[pair.LeftID] = true
	}

	return nil
}
