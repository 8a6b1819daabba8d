package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/Mont3ll/lms-backend/internal/repositories"
	"gorm.io/gorm"
)

type AssessmentPostgreSQL struct {
	db *gorm.DB
}

func NewAssessmentPostgreSQL(db *gorm.DB) repositories.AssessmentRepository {
	return &AssessmentPostgreSQL{db: db}
}

func (a *AssessmentPostgreSQL) Create(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := a.getDB(tx)

	exists, err := a.ExistsByTitle(ctx, tx, assessment.Title, assessment.CreatedBy, nil)
	if err != nil {
		return fmt.Errorf("failed to check title uniqueness: %w", err)
	}
	if exists {
		return fmt.Errorf("assessment with title '%s' already exists for this creator", assessment.Title)
	}

	if assessment.Status == "" {
		assessment.Status = models.StatusDraft
	}
	return db.WithContext(ctx).Create(assessment).Error
}

func (a *AssessmentPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	db := a.getDB(tx)
	var assessment models.Assessment
	if err := db.WithContext(ctx).First(&assessment, id).Error; err != nil {
		return nil, err
	}
	return &assessment, nil
}

// GetByIDWithQuestions retrieves an assessment with its live questions in
// display order.
func (a *AssessmentPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Assessment, error) {
	db := a.getDB(tx)
	var assessment models.Assessment
	err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Where("superseded_by IS NULL").Order("display_order ASC, id ASC")
		}).
		First(&assessment, id).Error
	if err != nil {
		return nil, err
	}

	assessment.QuestionsCount = len(assessment.Questions)
	assessment.TotalPoints = assessment.TotalPossiblePoints()

	return &assessment, nil
}

func (a *AssessmentPostgreSQL) Update(ctx context.Context, tx *gorm.DB, assessment *models.Assessment) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Assessment
		if err := tx.First(&current, assessment.ID).Error; err != nil {
			return fmt.Errorf("assessment not found: %w", err)
		}

		if assessment.Title != current.Title {
			exists, err := a.ExistsByTitle(ctx, tx, assessment.Title, assessment.CreatedBy, &assessment.ID)
			if err != nil {
				return fmt.Errorf("failed to check title uniqueness: %w", err)
			}
			if exists {
				return fmt.Errorf("assessment with title '%s' already exists for this creator", assessment.Title)
			}
		}

		if current.Status == models.StatusActive {
			hasAttempts, err := a.hasAttempts(ctx, tx, assessment.ID)
			if err != nil {
				return fmt.Errorf("failed to check attempts: %w", err)
			}
			if hasAttempts && assessment.MaxAttempts < current.MaxAttempts {
				return fmt.Errorf("cannot decrease max attempts for assessment with existing attempts")
			}
		}

		assessment.UpdatedAt = time.Now()
		return tx.Save(assessment).Error
	})
}

func (a *AssessmentPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx)

	hasAttempts, err := a.HasAttempts(ctx, tx, id)
	if err != nil {
		return fmt.Errorf("failed to check attempts: %w", err)
	}
	if hasAttempts {
		return fmt.Errorf("cannot delete assessment with existing attempts")
	}

	return db.WithContext(ctx).Delete(&models.Assessment{}, id).Error
}

func (a *AssessmentPostgreSQL) List(ctx context.Context, tx *gorm.DB, filters repositories.AssessmentFilters) ([]*models.Assessment, int64, error) {
	db := a.getDB(tx)
	var assessments []*models.Assessment
	var total int64

	query := db.WithContext(ctx).Model(&models.Assessment{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.applyPaginationAndSort(query, filters)
	if err := query.Find(&assessments).Error; err != nil {
		return nil, 0, err
	}

	return assessments, total, nil
}

func (a *AssessmentPostgreSQL) UpdateStatus(ctx context.Context, tx *gorm.DB, id uint, status models.AssessmentStatus) error {
	db := a.getDB(tx)
	result := db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (a *AssessmentPostgreSQL) GetExpiredAssessments(ctx context.Context, tx *gorm.DB) ([]*models.Assessment, error) {
	db := a.getDB(tx)
	var assessments []*models.Assessment
	err := db.WithContext(ctx).
		Where("status = ? AND due_date IS NOT NULL AND due_date < ?", models.StatusActive, time.Now()).
		Find(&assessments).Error
	if err != nil {
		return nil, err
	}
	return assessments, nil
}

func (a *AssessmentPostgreSQL) ExistsByTitle(ctx context.Context, tx *gorm.DB, title string, creatorID string, excludeID *uint) (bool, error) {
	db := a.getDB(tx)
	query := db.WithContext(ctx).
		Model(&models.Assessment{}).
		Where("title = ? AND created_by = ?", title, creatorID)
	if excludeID != nil {
		query = query.Where("id != ?", *excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *AssessmentPostgreSQL) HasAttempts(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	return a.hasAttempts(ctx, a.getDB(tx), id)
}

func (a *AssessmentPostgreSQL) hasAttempts(ctx context.Context, db *gorm.DB, id uint) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Where("assessment_id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasGradedAttempts reports whether any attempt of the assessment has been
// graded. Question edits after this point must go through versioning.
func (a *AssessmentPostgreSQL) HasGradedAttempts(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	db := a.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Where("assessment_id = ? AND status = ?", id, models.AttemptGraded).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (a *AssessmentPostgreSQL) applyFilters(query *gorm.DB, filters repositories.AssessmentFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.CourseID != nil {
		query = query.Where("course_id = ?", *filters.CourseID)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (a *AssessmentPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.AssessmentFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "title", "due_date", "created_at":
	default:
		sortBy = "created_at"
	}
	sortOrder := "desc"
	if filters.SortOrder == "asc" {
		sortOrder = "asc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}

func (a *AssessmentPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}
