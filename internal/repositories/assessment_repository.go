package repositories

import (
	"context"

	"github.com/Mont3ll/lms-backend/internal/models"
	"gorm.io/gorm"
)

// AssessmentRepository interface for assessment-specific operations
type AssessmentRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error)
	Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error // Soft delete

	// Query operations
	List(ctx context.Context, tx *gorm.DB, filters AssessmentFilters) ([]*models.Assessment, int64, error)

	// Status management
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AssessmentStatus) error
	GetExpiredAssessments(ctx context.Context, tx *gorm.DB) ([]*models.Assessment, error)

	// Validation helpers
	ExistsByTitle(ctx context.Context, tx *gorm.DB, title string, creatorID string, excludeID *uint) (bool, error)
	HasAttempts(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
	HasGradedAttempts(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}

// QuestionRepository interface for question operations. Questions that have
// already been graded against are never mutated in place; edits create a new
// version and mark the old row superseded.
type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	Update(ctx context.Context, tx *gorm.DB, question *models.Question) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	// GetByAssessment returns the live (non-superseded) questions of an
	// assessment in display order.
	GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error)

	// Supersede creates replacement as a new row and marks the old question
	// as superseded by it, in a single transaction.
	Supersede(ctx context.Context, tx *gorm.DB, oldID uint, replacement *models.Question) error

	CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error)
}
