package grading

import (
	"errors"
	"fmt"

	"github.com/Mont3ll/lms-backend/internal/models"
)

var (
	// ErrUnsupportedQuestionType is returned when no strategy is
	// registered for a question's declared type. This is a configuration
	// error and aborts the whole grading pass; skipping the question
	// would corrupt the point totals.
	ErrUnsupportedQuestionType = errors.New("unsupported question type")

	// ErrInvalidAnswerFormat is returned when a submitted payload does
	// not match the shape its question type requires. The attempt grader
	// absorbs it per question as a zero score.
	ErrInvalidAnswerFormat = errors.New("invalid answer format")
)

// Strategy scores a single question. The answer has already been normalized
// for the question's type.
type Strategy interface {
	Score(question *models.Question, answer Answer) (Result, error)
}

// Result is one strategy's verdict for one question.
type Result struct {
	PointsAwarded float64
	Correct       bool
	Feedback      string
}

// Registry maps question types to their grading strategies. It is built once
// and never mutated afterwards; adding a type means registering a strategy
// here, not changing the dispatcher.
type Registry struct {
	strategies map[models.QuestionType]Strategy
}

// NewRegistry returns a registry covering every type in
// models.AllQuestionTypes.
func NewRegistry() *Registry {
	return &Registry{
		strategies: map[models.QuestionType]Strategy{
			models.MultipleChoice: multipleChoiceStrategy{},
			models.MultiSelect:    multiSelectStrategy{},
			models.TrueFalse:      trueFalseStrategy{},
			models.ShortAnswer:    shortAnswerStrategy{},
			models.NumericRange:   numericRangeStrategy{},
			models.Matching:       matchingStrategy{},
		},
	}
}

// Strategy resolves the grading strategy for a question type.
func (r *Registry) Strategy(questionType models.QuestionType) (Strategy, error) {
	strategy, ok := r.strategies[questionType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedQuestionType, questionType)
	}
	return strategy, nil
}
