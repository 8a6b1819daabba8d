package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	MultiSelect    QuestionType = "multi_select"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	NumericRange   QuestionType = "numeric_range"
	Matching       QuestionType = "matching"
)

// AllQuestionTypes lists every type the grading registry knows about.
func AllQuestionTypes() []QuestionType {
	return []QuestionType{
		MultipleChoice,
		MultiSelect,
		TrueFalse,
		ShortAnswer,
		NumericRange,
		Matching,
	}
}

type Question struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	AssessmentID uint         `json:"assessment_id" gorm:"not null;index"`
	Type         QuestionType `json:"type" gorm:"not null;index" validate:"required,question_type"`
	Text         string       `json:"text" gorm:"not null;type:text" validate:"required,min=1"`
	Points       int          `json:"points" gorm:"not null" validate:"min=0,max=100"`
	DisplayOrder int          `json:"display_order" gorm:"not null;index"`

	// Type-specific definition including the correct-answer key.
	Content datatypes.JSON `json:"content" gorm:"type:jsonb;not null"`

	// Questions graded against are never mutated; edits create a new
	// version row and point the old one at its replacement.
	Version      int   `json:"version" gorm:"default:1"`
	SupersededBy *uint `json:"superseded_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Assessment Assessment `json:"-" gorm:"foreignKey:AssessmentID"`
}

func (Question) TableName() string {
	return "questions"
}

// ===== TYPE-SPECIFIC CONTENT =====

type QuestionOption struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type MultipleChoiceContent struct {
	Options []QuestionOption `json:"options"`
}

// CorrectOptionID returns the id of the single correct option, or "" when
// the content has none.
func (c MultipleChoiceContent) CorrectOptionID() string {
	for _, opt := range c.Options {
		if opt.IsCorrect {
			return opt.ID
		}
	}
	return ""
}

type MultiSelectContent struct {
	Options []QuestionOption `json:"options"`
}

// CorrectOptionIDs returns the set of correct option ids.
func (c MultiSelectContent) CorrectOptionIDs() map[string]bool {
	correct := make(map[string]bool)
	for _, opt := range c.Options {
		if opt.IsCorrect {
			correct[opt.ID] = true
		}
	}
	return correct
}

type TrueFalseContent struct {
	CorrectAnswer bool `json:"correct_answer"`
}

type ShortAnswerContent struct {
	AcceptedAnswers []string `json:"accepted_answers"`
	CaseSensitive   bool     `json:"case_sensitive"`
}

type NumericRangeContent struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type MatchPair struct {
	LeftID  string `json:"left_id"`
	RightID string `json:"right_id"`
}

type MatchItem struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type MatchingContent struct {
	LeftItems    []MatchItem `json:"left_items"`
	RightItems   []MatchItem `json:"right_items"`
	CorrectPairs []MatchPair `json:"correct_pairs"`
}
