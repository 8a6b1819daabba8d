package postgres

import (
	"context"

	"github.com/Mont3ll/lms-backend/internal/cache"
	"github.com/Mont3ll/lms-backend/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	db         *gorm.DB
	assessment repositories.AssessmentRepository
	question   repositories.QuestionRepository
	attempt    repositories.AttemptRepository
	result     repositories.ResultRepository
	user       repositories.UserRepository
}

// NewRepository creates the PostgreSQL-backed repository aggregate. The cache
// is used for read-side acceleration of grading results; pass a NoopCache to
// disable caching.
func NewRepository(db *gorm.DB, cacheService cache.CacheService) repositories.Repository {
	return &repository{
		db:         db,
		assessment: NewAssessmentPostgreSQL(db),
		question:   NewQuestionPostgreSQL(db),
		attempt:    NewAttemptPostgreSQL(db),
		result:     NewResultPostgreSQL(db, cacheService),
		user:       NewUserPostgreSQL(db),
	}
}

func (r *repository) Assessment() repositories.AssessmentRepository { return r.assessment }
func (r *repository) Question() repositories.QuestionRepository     { return r.question }
func (r *repository) Attempt() repositories.AttemptRepository       { return r.attempt }
func (r *repository) Result() repositories.ResultRepository         { return r.result }
func (r *repository) User() repositories.UserRepository             { return r.user }

// WithTransaction runs fn inside a database transaction. The Repository
// passed to fn routes every call through the transaction handle, so nested
// repository calls inside fn may pass tx == nil.
func (r *repository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &repository{
			db:         tx,
			assessment: NewAssessmentPostgreSQL(tx),
			question:   NewQuestionPostgreSQL(tx),
			attempt:    NewAttemptPostgreSQL(tx),
			result:     NewResultPostgreSQL(tx, cache.NoopCache{}),
			user:       NewUserPostgreSQL(tx),
		}
		return fn(txRepo)
	})
}

func (r *repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
