package models

import (
	"time"

	"gorm.io/gorm"
)

type AssessmentStatus string

const (
	StatusDraft    AssessmentStatus = "Draft"
	StatusActive   AssessmentStatus = "Active"
	StatusExpired  AssessmentStatus = "Expired"
	StatusArchived AssessmentStatus = "Archived"
)

type Assessment struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	Title       string           `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string          `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Status      AssessmentStatus `json:"status" gorm:"default:Draft;index" validate:"omitempty,oneof=Draft Active Expired Archived"`

	// Minimum percentage score required to pass.
	PassMarkPercentage float64 `json:"pass_mark_percentage" gorm:"not null" validate:"min=0,max=100"`

	// When true, a passing grade on this assessment completes the
	// enclosing course and a course.completed event is emitted for
	// downstream certificate issuance.
	CourseCompleting bool  `json:"course_completing" gorm:"default:false"`
	CourseID         *uint `json:"course_id" gorm:"index"`

	MaxAttempts int        `json:"max_attempts" gorm:"default:1" validate:"min=1,max=10"`
	DueDate     *time.Time `json:"due_date"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;index;size:255"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Questions []Question          `json:"questions" gorm:"foreignKey:AssessmentID"`
	Attempts  []AssessmentAttempt `json:"attempts" gorm:"foreignKey:AssessmentID"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	TotalPoints    int `json:"total_points" gorm:"-"`
}

func (Assessment) TableName() string {
	return "assessments"
}

// TotalPossiblePoints sums the point values of the current (non-superseded)
// questions.
func (a *Assessment) TotalPossiblePoints() int {
	total := 0
	for _, q := range a.Questions {
		if q.SupersededBy == nil {
			total += q.Points
		}
	}
	return total
}
