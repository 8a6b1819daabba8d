package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Mont3ll/lms-backend/internal/cache"
	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/Mont3ll/lms-backend/internal/repositories"
	"gorm.io/gorm"
)

const resultCacheTTL = 15 * time.Minute

type ResultPostgreSQL struct {
	db    *gorm.DB
	cache cache.CacheService
}

func NewResultPostgreSQL(db *gorm.DB, cacheService cache.CacheService) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db, cache: cacheService}
}

func (r *ResultPostgreSQL) Create(ctx context.Context, tx *gorm.DB, result *models.GradingResult) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Create(result).Error; err != nil {
		return err
	}
	r.invalidate(ctx, result.AttemptID)
	return nil
}

func (r *ResultPostgreSQL) GetByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.GradingResult, error) {
	// Transactional reads bypass the cache to keep a consistent view.
	if tx == nil {
		var cached models.GradingResult
		if err := r.cache.Get(ctx, r.cacheKey(attemptID), &cached); err == nil {
			return &cached, nil
		}
	}

	db := r.getDB(tx)
	var result models.GradingResult
	if err := db.WithContext(ctx).Where("attempt_id = ?", attemptID).First(&result).Error; err != nil {
		return nil, err
	}

	if tx == nil {
		_ = r.cache.Set(ctx, r.cacheKey(attemptID), &result, resultCacheTTL)
	}
	return &result, nil
}

// Replace upserts the result for an attempt. Used by regrading, where the
// previous result row is overwritten rather than accumulated.
func (r *ResultPostgreSQL) Replace(ctx context.Context, tx *gorm.DB, result *models.GradingResult) error {
	db := r.getDB(tx)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.GradingResult
		err := tx.Where("attempt_id = ?", result.AttemptID).First(&existing).Error
		switch {
		case err == nil:
			result.ID = existing.ID
			result.CreatedAt = existing.CreatedAt
			return tx.Save(result).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(result).Error
		default:
			return err
		}
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx, result.AttemptID)
	return nil
}

func (r *ResultPostgreSQL) DeleteByAttemptID(ctx context.Context, tx *gorm.DB, attemptID uint) error {
	db := r.getDB(tx)
	if err := db.WithContext(ctx).Where("attempt_id = ?", attemptID).Delete(&models.GradingResult{}).Error; err != nil {
		return err
	}
	r.invalidate(ctx, attemptID)
	return nil
}

func (r *ResultPostgreSQL) GetByAssessment(ctx context.Context, tx *gorm.DB, assessmentID uint) ([]*models.GradingResult, error) {
	db := r.getDB(tx)
	var results []*models.GradingResult
	err := db.WithContext(ctx).
		Joins("JOIN assessment_attempts ON assessment_attempts.id = grading_results.attempt_id").
		Where("assessment_attempts.assessment_id = ?", assessmentID).
		Preload("Attempt").
		Order("grading_results.graded_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ResultPostgreSQL) GetGradingStats(ctx context.Context, tx *gorm.DB, assessmentID uint) (*repositories.GradingStats, error) {
	db := r.getDB(tx)
	stats := &repositories.GradingStats{}

	var total, graded int64
	if err := db.WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Where("assessment_id = ? AND status IN ?", assessmentID,
			[]models.AttemptStatus{models.AttemptSubmitted, models.AttemptGraded}).
		Count(&total).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).
		Model(&models.AssessmentAttempt{}).
		Where("assessment_id = ? AND status = ?", assessmentID, models.AttemptGraded).
		Count(&graded).Error; err != nil {
		return nil, err
	}
	stats.TotalAttempts = int(total)
	stats.GradedAttempts = int(graded)
	stats.PendingAttempts = int(total - graded)

	if graded == 0 {
		return stats, nil
	}

	var agg struct {
		AvgScore float64
		MaxScore float64
		MinScore float64
		Passed   int64
	}
	err := db.WithContext(ctx).
		Model(&models.GradingResult{}).
		Select("AVG(percentage) as avg_score, MAX(percentage) as max_score, MIN(percentage) as min_score, COUNT(*) FILTER (WHERE passed) as passed").
		Joins("JOIN assessment_attempts ON assessment_attempts.id = grading_results.attempt_id").
		Where("assessment_attempts.assessment_id = ?", assessmentID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	stats.AverageScore = agg.AvgScore
	stats.HighestScore = agg.MaxScore
	stats.LowestScore = agg.MinScore
	stats.PassRate = float64(agg.Passed) / float64(graded) * 100

	return stats, nil
}

func (r *ResultPostgreSQL) cacheKey(attemptID uint) string {
	return fmt.Sprintf("result:attempt:%d", attemptID)
}

func (r *ResultPostgreSQL) invalidate(ctx context.Context, attemptID uint) {
	_ = r.cache.Delete(ctx, r.cacheKey(attemptID))
}

func (r *ResultPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}
