package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of grading events
type EventType string

const (
	// Attempt events
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventAttemptGraded    EventType = "attempt.graded"

	// Course events
	EventCourseCompleted EventType = "course.completed"
)

// GradingEvent is the base event structure for all grading events
type GradingEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type AttemptSubmittedEvent struct {
	AttemptID       uint      `json:"attempt_id"`
	AssessmentID    uint      `json:"assessment_id"`
	AssessmentTitle string    `json:"assessment_title"`
	StudentID       string    `json:"student_id"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

type AttemptGradedEvent struct {
	AttemptID       uint      `json:"attempt_id"`
	AssessmentID    uint      `json:"assessment_id"`
	AssessmentTitle string    `json:"assessment_title"`
	StudentID       string    `json:"student_id"`
	GradedAt        time.Time `json:"graded_at"`
	TotalAwarded    float64   `json:"total_awarded"`
	TotalPossible   float64   `json:"total_possible"`
	Percentage      float64   `json:"percentage"`
	Passed          bool      `json:"passed"`
	Regrade         bool      `json:"regrade"`
}

// CourseCompletedEvent fires when a passing grade on a course-completing
// assessment finishes a course. Certificate issuance consumes it downstream.
type CourseCompletedEvent struct {
	CourseID     uint      `json:"course_id"`
	AssessmentID uint      `json:"assessment_id"`
	AttemptID    uint      `json:"attempt_id"`
	StudentID    string    `json:"student_id"`
	CompletedAt  time.Time `json:"completed_at"`
	Percentage   float64   `json:"percentage"`
}

// Event factory functions

func NewAttemptSubmittedEvent(attemptID, assessmentID uint, title, studentID string, submittedAt time.Time) *GradingEvent {
	return &GradingEvent{
		ID:        generateEventID(),
		Type:      EventAttemptSubmitted,
		Timestamp: time.Now(),
		Source:    "lms-backend",
		Version:   "1.0",
		Data: AttemptSubmittedEvent{
			AttemptID:       attemptID,
			AssessmentID:    assessmentID,
			AssessmentTitle: title,
			StudentID:       studentID,
			SubmittedAt:     submittedAt,
		},
	}
}

func NewAttemptGradedEvent(attemptID, assessmentID uint, title, studentID string, gradedAt time.Time, totalAwarded, totalPossible, percentage float64, passed, regrade bool) *GradingEvent {
	return &GradingEvent{
		ID:        generateEventID(),
		Type:      EventAttemptGraded,
		Timestamp: time.Now(),
		Source:    "lms-backend",
		Version:   "1.0",
		Data: AttemptGradedEvent{
			AttemptID:       attemptID,
			AssessmentID:    assessmentID,
			AssessmentTitle: title,
			StudentID:       studentID,
			GradedAt:        gradedAt,
			TotalAwarded:    totalAwarded,
			TotalPossible:   totalPossible,
			Percentage:      percentage,
			Passed:          passed,
			Regrade:         regrade,
		},
	}
}

func NewCourseCompletedEvent(courseID, assessmentID, attemptID uint, studentID string, completedAt time.Time, percentage float64) *GradingEvent {
	return &GradingEvent{
		ID:        generateEventID(),
		Type:      EventCourseCompleted,
		Timestamp: time.Now(),
		Source:    "lms-backend",
		Version:   "1.0",
		Data: CourseCompletedEvent{
			CourseID:     courseID,
			AssessmentID: assessmentID,
			AttemptID:    attemptID,
			StudentID:    studentID,
			CompletedAt:  completedAt,
			Percentage:   percentage,
		},
	}
}

func generateEventID() string {
	return uuid.NewString()
}
