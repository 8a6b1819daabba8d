package postgres

import (
	"context"
	"fmt"

	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/Mont3ll/lms-backend/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if question.Version == 0 {
		question.Version = 1
	}
	return db.WithContext(ctx).Create(question).Error
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	var question models.Question
	if err := db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) Update(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Save(question).Error
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Delete(&models.Question{}, id).Error
}

// GetByAssessment returns live questions in display order. Superseded
// versions are excluded; they remain in the table so historical grading
// results keep pointing at the content they were scored against.
func (q *QuestionPostgreSQL) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.Question, error) {
	db := q.getDB(tx)
	var questions []*models.Question
	err := db.WithContext(ctx).
		Where("assessment_id = ? AND superseded_by IS NULL", assessmentID).
		Order("display_order ASC, id ASC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Supersede inserts replacement as a new question version and links the old
// row to it. Runs in a transaction so readers never observe two live
// versions of the same question.
func (q *QuestionPostgreSQL) Supersede(ctx context.Context, tx *gorm.DB, oldID uint, replacement *models.Question) error {
	db := q.getDB(tx)
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var old models.Question
		if err := tx.First(&old, oldID).Error; err != nil {
			return fmt.Errorf("question not found: %w", err)
		}
		if old.SupersededBy != nil {
			return fmt.Errorf("question %d is already superseded", oldID)
		}

		replacement.ID = 0
		replacement.AssessmentID = old.AssessmentID
		replacement.Version = old.Version + 1
		replacement.DisplayOrder = old.DisplayOrder
		replacement.SupersededBy = nil
		if err := tx.Create(replacement).Error; err != nil {
			return fmt.Errorf("failed to create question version: %w", err)
		}

		return tx.Model(&models.Question{}).
			Where("id = ?", oldID).
			Update("superseded_by", replacement.ID).Error
	})
}

func (q *QuestionPostgreSQL) CountByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) (int64, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("assessment_id = ? AND superseded_by IS NULL", assessmentID).
		Count(&count).Error
	return count, err
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}
