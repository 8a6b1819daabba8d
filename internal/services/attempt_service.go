package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mont3ll/lms-backend/internal/events"
	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/Mont3ll/lms-backend/internal/repositories"
	"github.com/Mont3ll/lms-backend/internal/validator"
	"gorm.io/gorm"
)

// gradingTimeout bounds the background grading pass kicked off on submit.
const gradingTimeout = 30 * time.Second

type attemptService struct {
	repo      repositories.Repository
	grading   GradingService
	publisher events.EventPublisher
	validator *validator.Validator
	logger    *slog.Logger
}

func NewAttemptService(
	repo repositories.Repository,
	grading GradingService,
	publisher events.EventPublisher,
	v *validator.Validator,
	logger *slog.Logger,
) AttemptService {
	return &attemptService{
		repo:      repo,
		grading:   grading,
		publisher: publisher,
		validator: v,
		logger:    logger,
	}
}

func (s *attemptService) Start(ctx context.Context, assessmentID uint, studentID string) (*AttemptResponse, error) {
	isStudent, err := s.repo.User().HasRole(ctx, nil, studentID, models.RoleStudent)
	if err != nil {
		return nil, fmt.Errorf("failed to check user role: %w", err)
	}
	if !isStudent {
		return nil, NewPermissionError(studentID, assessmentID, "assessment", "attempt", "requires the student role")
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}

	if assessment.Status != models.StatusActive {
		return nil, ErrAssessmentNotActive
	}
	if assessment.DueDate != nil && time.Now().After(*assessment.DueDate) {
		return nil, ErrAssessmentExpired
	}

	// Resume an open attempt instead of starting a new one.
	active, err := s.repo.Attempt().GetActiveAttempt(ctx, nil, studentID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active attempt: %w", err)
	}
	if active != nil {
		return toAttemptResponse(active), nil
	}

	count, err := s.repo.Attempt().GetAttemptCount(ctx, nil, studentID, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count attempts: %w", err)
	}
	if count >= assessment.MaxAttempts {
		return nil, ErrAttemptLimitExceeded
	}

	attempt := &models.AssessmentAttempt{
		AssessmentID: assessmentID,
		StudentID:    studentID,
		Status:       models.AttemptInProgress,
		StartedAt:    time.Now(),
	}
	if err := s.repo.Attempt().Create(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.logger.Info("Attempt started",
		"attempt_id", attempt.ID,
		"assessment_id", assessmentID,
		"student_id", studentID)

	return toAttemptResponse(attempt), nil
}

func (s *attemptService) SaveAnswer(ctx context.Context, attemptID uint, req *SaveAnswerRequest, studentID string) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	attempt, err := s.repo.Attempt().GetByID(ctx, nil, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to load attempt: %w", err)
	}

	if attempt.StudentID != studentID {
		return NewPermissionError(studentID, attemptID, "attempt", "answer", "not the attempt owner")
	}
	if attempt.Status != models.AttemptInProgress {
		return ErrAttemptNotActive
	}

	// The question must be a live question of this assessment.
	questions, err := s.repo.Question().GetByAssessment(ctx, nil, attempt.AssessmentID)
	if err != nil {
		return fmt.Errorf("failed to load questions: %w", err)
	}
	found := false
	for _, q := range questions {
		if q.ID == req.QuestionID {
			found = true
			break
		}
	}
	if !found {
		return ErrQuestionNotFound
	}

	if err := attempt.SetAnswer(req.QuestionID, req.Answer); err != nil {
		return fmt.Errorf("failed to record answer: %w", err)
	}
	return s.repo.Attempt().Update(ctx, nil, attempt)
}

// Submit flips the attempt to submitted and kicks off grading in the
// background. The response reflects the submitted state; the result becomes
// available once the grading pass lands.
func (s *attemptService) Submit(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, nil, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}

	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", "submit", "not the attempt owner")
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptNotActive
	}

	now := time.Now()
	attempt.Status = models.AttemptSubmitted
	attempt.SubmittedAt = &now
	if err := s.repo.Attempt().Update(ctx, nil, attempt); err != nil {
		return nil, fmt.Errorf("failed to submit attempt: %w", err)
	}

	s.logger.Info("Attempt submitted",
		"attempt_id", attemptID,
		"assessment_id", attempt.AssessmentID,
		"student_id", studentID)

	event := events.NewAttemptSubmittedEvent(
		attempt.ID, attempt.AssessmentID, attempt.Assessment.Title, studentID, now)
	if err := s.publisher.PublishGradingEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish attempt submitted event",
			"attempt_id", attemptID, "error", err)
	}

	go s.gradeInBackground(attemptID)

	return toAttemptResponse(attempt), nil
}

func (s *attemptService) gradeInBackground(attemptID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), gradingTimeout)
	defer cancel()

	if _, err := s.grading.GradeAttempt(ctx, attemptID, false); err != nil {
		// Benign when a concurrent grader won the race.
		if errors.Is(err, ErrAlreadyGraded) || errors.Is(err, ErrGradingBusy) {
			return
		}
		s.logger.Error("Background grading failed",
			"attempt_id", attemptID, "error", err)
	}
}

func (s *attemptService) GetByID(ctx context.Context, attemptID uint) (*AttemptResponse, error) {
	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, nil, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to load attempt: %w", err)
	}
	return toAttemptResponse(attempt), nil
}

func (s *attemptService) List(ctx context.Context, filters repositories.AttemptFilters) (*AttemptListResponse, error) {
	attempts, total, err := s.repo.Attempt().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	resp := &AttemptListResponse{
		Attempts: make([]*AttemptResponse, 0, len(attempts)),
		Total:    total,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	}
	for _, attempt := range attempts {
		resp.Attempts = append(resp.Attempts, toAttemptResponse(attempt))
	}
	return resp, nil
}

func (s *attemptService) GetResult(ctx context.Context, attemptID uint) (*GradingResultResponse, error) {
	result, err := s.repo.Result().GetByAttemptID(ctx, nil, attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load grading result: %w", err)
	}
	return toGradingResultResponse(result)
}
