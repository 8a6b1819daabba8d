package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Mont3ll/lms-backend/internal/models"
)

// AttemptScore is the computed outcome of one grading pass, before it is
// persisted as a GradingResult.
type AttemptScore struct {
	TotalAwarded  float64
	TotalPossible float64
	Percentage    float64
	Results       []models.AnswerResult
}

// Grader scores a full attempt: every question in the assessment's defined
// order is normalized and dispatched to its strategy, and the per-question
// outcomes are aggregated. Grader is pure; it never touches storage.
type Grader struct {
	registry *Registry
	logger   *slog.Logger
}

func NewGrader(registry *Registry, logger *slog.Logger) *Grader {
	return &Grader{
		registry: registry,
		logger:   logger,
	}
}

// GradeAttempt scores the submitted answers against the given questions.
// Questions must already be in the assessment's display order; results are
// emitted in that same order regardless of submission order. Questions absent
// from the answer map score zero with Answered=false; malformed payloads
// score zero with Invalid=true. An unregistered question type aborts the
// whole pass.
func (g *Grader) GradeAttempt(questions []*models.Question, answers map[uint]json.RawMessage) (*AttemptScore, error) {
	score := &AttemptScore{
		Results: make([]models.AnswerResult, 0, len(questions)),
	}

	for _, question := range questions {
		strategy, err := g.registry.Strategy(question.Type)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", question.ID, err)
		}

		result := models.AnswerResult{
			QuestionID:     question.ID,
			PointsPossible: float64(question.Points),
		}

		raw, submitted := answers[question.ID]
		if !submitted {
			result.Feedback = "No answer submitted."
			score.appendResult(result)
			continue
		}
		result.Answered = true

		answer, err := Normalize(question.Type, raw)
		if err != nil {
			if !errors.Is(err, ErrInvalidAnswerFormat) {
				return nil, fmt.Errorf("question %d: %w", question.ID, err)
			}
			g.logger.Warn("Malformed answer payload, scoring zero",
				"question_id", question.ID,
				"question_type", question.Type,
				"error", err)
			result.Invalid = true
			result.Feedback = "The submitted answer could not be read."
			score.appendResult(result)
			continue
		}

		outcome, err := strategy.Score(question, answer)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", question.ID, err)
		}

		result.PointsAwarded = outcome.PointsAwarded
		result.Correct = outcome.Correct
		result.Feedback = outcome.Feedback
		score.appendResult(result)
	}

	if score.TotalPossible > 0 {
		score.Percentage = roundHalfUp(score.TotalAwarded/score.TotalPossible*100, 2)
	}

	return score, nil
}

func (s *AttemptScore) appendResult(result models.AnswerResult) {
	s.Results = append(s.Results, result)
	s.TotalAwarded += result.PointsAwarded
	s.TotalPossible += result.PointsPossible
}
