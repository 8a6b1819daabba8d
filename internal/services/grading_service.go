package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mont3ll/lms-backend/internal/events"
	"github.com/Mont3ll/lms-backend/internal/grading"
	"github.com/Mont3ll/lms-backend/internal/lock"
	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/Mont3ll/lms-backend/internal/repositories"
	"gorm.io/gorm"
)

// claimTTL bounds how long a grading claim can be held. A crashed grader
// frees the attempt for retry after this window.
const claimTTL = 2 * time.Minute

type gradingService struct {
	repo      repositories.Repository
	grader    *grading.Grader
	locker    lock.AttemptLocker
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewGradingService(
	repo repositories.Repository,
	grader *grading.Grader,
	locker lock.AttemptLocker,
	publisher events.EventPublisher,
	logger *slog.Logger,
) GradingService {
	return &gradingService{
		repo:      repo,
		grader:    grader,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
	}
}

// GradeAttempt grades a submitted attempt and persists the outcome
// atomically with the attempt's status transition. The per-attempt claim
// guarantees at most one concurrent grading pass; losers of the race either
// observe the winner's result or get ErrGradingBusy while the pass is still
// running.
func (s *gradingService) GradeAttempt(ctx context.Context, attemptID uint, regrade bool) (*GradingResultResponse, error) {
	acquired, err := s.locker.Acquire(ctx, attemptID, claimTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire grading claim: %w", err)
	}
	if !acquired {
		// Another grader holds the claim. If it already finished, converge
		// on its result instead of failing.
		result, resultErr := s.repo.Result().GetByAttemptID(ctx, nil, attemptID)
		if resultErr == nil {
			resp, convErr := toGradingResultResponse(result)
			if convErr != nil {
				return nil, convErr
			}
			return resp, ErrAlreadyGraded
		}
		return nil, ErrGradingBusy
	}
	defer func() {
		if releaseErr := s.locker.Release(context.WithoutCancel(ctx), attemptID); releaseErr != nil {
			s.logger.Warn("Failed to release grading claim",
				"attempt_id", attemptID, "error", releaseErr)
		}
	}()

	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, nil, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}

	// Preconditions on the attempt state.
	switch attempt.Status {
	case models.AttemptGraded:
		if !regrade {
			result, resultErr := s.repo.Result().GetByAttemptID(ctx, nil, attemptID)
			if resultErr != nil {
				return nil, fmt.Errorf("attempt marked graded but result missing: %w", resultErr)
			}
			resp, convErr := toGradingResultResponse(result)
			if convErr != nil {
				return nil, convErr
			}
			return resp, ErrAlreadyGraded
		}
	case models.AttemptSubmitted:
		// Normal path.
	default:
		return nil, ErrAttemptNotSubmitted
	}

	questions := make([]*models.Question, 0, len(attempt.Assessment.Questions))
	for i := range attempt.Assessment.Questions {
		questions = append(questions, &attempt.Assessment.Questions[i])
	}

	answers, err := attempt.AnswerMap()
	if err != nil {
		return nil, fmt.Errorf("failed to decode attempt answers: %w", err)
	}

	s.logger.Info("Grading attempt",
		"attempt_id", attemptID,
		"assessment_id", attempt.AssessmentID,
		"question_count", len(questions),
		"regrade", regrade)

	score, err := s.grader.GradeAttempt(questions, answers)
	if err != nil {
		return nil, err
	}

	gradedAt := time.Now()
	passed := score.TotalPossible > 0 && score.Percentage >= attempt.Assessment.PassMarkPercentage

	result := &models.GradingResult{
		AttemptID:           attemptID,
		TotalPointsAwarded:  score.TotalAwarded,
		TotalPointsPossible: score.TotalPossible,
		Percentage:          score.Percentage,
		Passed:              passed,
		GradedAt:            gradedAt,
	}
	if err := result.SetAnswerResults(score.Results); err != nil {
		return nil, fmt.Errorf("failed to encode answer results: %w", err)
	}

	// Result row and status transition commit together; a crash between the
	// two cannot leave a graded attempt without a result.
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if regrade {
			if err := txRepo.Result().Replace(ctx, nil, result); err != nil {
				return fmt.Errorf("failed to replace grading result: %w", err)
			}
		} else {
			if err := txRepo.Result().Create(ctx, nil, result); err != nil {
				return fmt.Errorf("failed to store grading result: %w", err)
			}
		}

		attempt.Status = models.AttemptGraded
		attempt.GradedAt = &gradedAt
		if err := txRepo.Attempt().Update(ctx, nil, attempt); err != nil {
			return fmt.Errorf("failed to update attempt status: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Attempt graded",
		"attempt_id", attemptID,
		"awarded", score.TotalAwarded,
		"possible", score.TotalPossible,
		"percentage", score.Percentage,
		"passed", passed)

	s.publishGradingEvents(ctx, attempt, result, regrade)

	return toGradingResultResponse(result)
}

// publishGradingEvents emits attempt.graded, plus course.completed when a
// passing grade on a course-completing assessment finishes the course.
// Publishing failures are logged and do not fail the grading pass.
func (s *gradingService) publishGradingEvents(ctx context.Context, attempt *models.AssessmentAttempt, result *models.GradingResult, regrade bool) {
	assessment := attempt.Assessment

	gradedEvent := events.NewAttemptGradedEvent(
		attempt.ID,
		attempt.AssessmentID,
		assessment.Title,
		attempt.StudentID,
		result.GradedAt,
		result.TotalPointsAwarded,
		result.TotalPointsPossible,
		result.Percentage,
		result.Passed,
		regrade,
	)
	if err := s.publisher.PublishGradingEvent(ctx, gradedEvent); err != nil {
		s.logger.Error("Failed to publish attempt graded event",
			"attempt_id", attempt.ID, "error", err)
	}

	if result.Passed && assessment.CourseCompleting && assessment.CourseID != nil {
		completedEvent := events.NewCourseCompletedEvent(
			*assessment.CourseID,
			attempt.AssessmentID,
			attempt.ID,
			attempt.StudentID,
			result.GradedAt,
			result.Percentage,
		)
		if err := s.publisher.PublishGradingEvent(ctx, completedEvent); err != nil {
			s.logger.Error("Failed to publish course completed event",
				"course_id", *assessment.CourseID,
				"attempt_id", attempt.ID,
				"error", err)
		}
	}
}
