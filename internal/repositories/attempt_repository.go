package repositories

import (
	"context"

	"github.com/Mont3ll/lms-backend/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository interface for assessment attempt operations
type AttemptRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, attempt *models.AssessmentAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentAttempt, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.AssessmentAttempt, error) // Include assessment, questions, result
	Update(ctx context.Context, tx *gorm.DB, attempt *models.AssessmentAttempt) error

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AttemptFilters) ([]*models.AssessmentAttempt, int64, error)
	GetByStudentAndAssessment(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) ([]*models.AssessmentAttempt, error)
	GetActiveAttempt(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (*models.AssessmentAttempt, error)

	// Status management
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AttemptStatus) error

	// Validation and checks
	GetAttemptCount(ctx context.Context, tx *gorm.DB, studentID string, assessmentID uint) (int, error)
}

// ResultRepository interface for grading result operations. A result row is
// unique per attempt; regrading replaces the existing row in place.
type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.GradingResult) error
	GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.GradingResult, error)
	Replace(ctx context.Context, tx *gorm.DB, result *models.GradingResult) error
	DeleteByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uint) error

	// Reporting
	GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.GradingResult, error)
	GetGradingStats(ctx context.Context, tx *gorm.DB, assessmentID uint) (*GradingStats, error)
}

// UserRepository interface for user operations. Identity is managed upstream;
// this service keeps a provisioned mirror of users for role checks.
type UserRepository interface {
	Create(ctx context.Context, tx *gorm.DB, user *models.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.User, error)
	ExistsByID(ctx context.Context, tx *gorm.DB, id string) (bool, error)
	HasRole(ctx context.Context, tx *gorm.DB, id string, role models.UserRole) (bool, error)
}
