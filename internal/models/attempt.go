package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/datatypes"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptSubmitted  AttemptStatus = "submitted"
	AttemptGraded     AttemptStatus = "graded"
	AttemptExpired    AttemptStatus = "expired"
)

type AssessmentAttempt struct {
	ID           uint          `json:"id" gorm:"primaryKey"`
	AssessmentID uint          `json:"assessment_id" gorm:"not null;index"`
	StudentID    string        `json:"student_id" gorm:"not null;index;size:255"`
	Status       AttemptStatus `json:"status" gorm:"default:in_progress;index"`

	// Submitted answers keyed by question id; payload shape varies by
	// question type.
	Answers datatypes.JSON `json:"answers" gorm:"type:jsonb"`

	// Timing
	StartedAt   time.Time  `json:"started_at"`
	SubmittedAt *time.Time `json:"submitted_at"`
	GradedAt    *time.Time `json:"graded_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment Assessment     `json:"assessment" gorm:"foreignKey:AssessmentID"`
	Result     *GradingResult `json:"result" gorm:"foreignKey:AttemptID"`
}

func (AssessmentAttempt) TableName() string {
	return "assessment_attempts"
}

// AnswerMap decodes the JSONB answer payload into a question-id keyed map of
// raw answers. A nil Answers column decodes to an empty map.
func (a *AssessmentAttempt) AnswerMap() (map[uint]json.RawMessage, error) {
	answers := make(map[uint]json.RawMessage)
	if len(a.Answers) == 0 {
		return answers, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(a.Answers, &raw); err != nil {
		return nil, fmt.Errorf("malformed answer map: %w", err)
	}

	for key, value := range raw {
		id, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed answer map key %q: %w", key, err)
		}
		answers[uint(id)] = value
	}
	return answers, nil
}

// SetAnswer stores or replaces a single raw answer in the JSONB map.
func (a *AssessmentAttempt) SetAnswer(questionID uint, answer json.RawMessage) error {
	answers := make(map[string]json.RawMessage)
	if len(a.Answers) > 0 {
		if err := json.Unmarshal(a.Answers, &answers); err != nil {
			return fmt.Errorf("malformed answer map: %w", err)
		}
	}

	answers[strconv.FormatUint(uint64(questionID), 10)] = answer

	encoded, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	a.Answers = encoded
	return nil
}
