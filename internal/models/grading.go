package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// AnswerResult is the per-question outcome within one grading pass. Results
// are stored as an ordered JSONB array on the owning GradingResult, in the
// assessment's question order.
type AnswerResult struct {
	QuestionID     uint    `json:"question_id"`
	PointsAwarded  float64 `json:"points_awarded"`
	PointsPossible float64 `json:"points_possible"`
	Correct        bool    `json:"correct"`
	// Answered distinguishes a question the learner skipped from one
	// answered incorrectly; both score zero.
	Answered bool `json:"answered"`
	// Invalid marks answers whose payload did not match the question
	// type; they score zero without aborting the grading pass.
	Invalid  bool   `json:"invalid"`
	Feedback string `json:"feedback,omitempty"`
}

// GradingResult is owned by exactly one attempt; a re-grade replaces it
// atomically.
type GradingResult struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	AttemptID uint `json:"attempt_id" gorm:"not null;uniqueIndex"`

	TotalPointsAwarded  float64 `json:"total_points_awarded"`
	TotalPointsPossible float64 `json:"total_points_possible"`
	Percentage          float64 `json:"percentage"`
	Passed              bool    `json:"passed"`

	// Ordered []AnswerResult.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	GradedAt  time.Time `json:"graded_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempt AssessmentAttempt `json:"-" gorm:"foreignKey:AttemptID"`
}

func (GradingResult) TableName() string {
	return "grading_results"
}

// AnswerResults decodes the ordered per-question outcomes.
func (r *GradingResult) AnswerResults() ([]AnswerResult, error) {
	if len(r.Answers) == 0 {
		return nil, nil
	}
	var results []AnswerResult
	if err := json.Unmarshal(r.Answers, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// SetAnswerResults encodes the ordered per-question outcomes.
func (r *GradingResult) SetAnswerResults(results []AnswerResult) error {
	encoded, err := json.Marshal(results)
	if err != nil {
		return err
	}
	r.Answers = encoded
	return nil
}
