package repositories

import (
	"context"
	"time"

	"github.com/Mont3ll/lms-backend/internal/models"
)

// Repository is the main data access entry point. Implementations bundle
// the per-model repositories and expose transactional execution.
type Repository interface {
	Assessment() AssessmentRepository
	Question() QuestionRepository
	Attempt() AttemptRepository
	Result() ResultRepository
	User() UserRepository

	WithTransaction(ctx context.Context, fn func(Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}

// ===== SHARED FILTER STRUCTS =====

type AssessmentFilters struct {
	Status    *models.AssessmentStatus `json:"status"`
	CourseID  *uint                    `json:"course_id"`
	CreatedBy *string                  `json:"created_by"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`    // "created_at", "title", "due_date"
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}

type AttemptFilters struct {
	Status       *models.AttemptStatus `json:"status"`
	AssessmentID *uint                 `json:"assessment_id"`
	StudentID    *string               `json:"student_id"`
	DateFrom     *time.Time            `json:"date_from"`
	DateTo       *time.Time            `json:"date_to"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
	SortBy       string                `json:"sort_by"`
	SortOrder    string                `json:"sort_order"`
}

// ===== SHARED STATISTICS STRUCTS =====

type GradingStats struct {
	TotalAttempts   int     `json:"total_attempts"`
	GradedAttempts  int     `json:"graded_attempts"`
	PendingAttempts int     `json:"pending_attempts"`
	AverageScore    float64 `json:"average_score"`
	PassRate        float64 `json:"pass_rate"`
	HighestScore    float64 `json:"highest_score"`
	LowestScore     float64 `json:"lowest_score"`
}
