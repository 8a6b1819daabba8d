package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/Mont3ll/lms-backend/internal/repositories"
	"github.com/Mont3ll/lms-backend/internal/validator"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type assessmentService struct {
	repo      repositories.Repository
	validator *validator.Validator
	logger    *slog.Logger
}

func NewAssessmentService(repo repositories.Repository, v *validator.Validator, logger *slog.Logger) AssessmentService {
	return &assessmentService{
		repo:      repo,
		validator: v,
		logger:    logger,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *assessmentService) Create(ctx context.Context, req *CreateAssessmentRequest, creatorID string) (*AssessmentResponse, error) {
	s.logger.Info("Creating assessment", "creator_id", creatorID, "title", req.Title)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	for _, q := range req.Questions {
		if err := s.validator.Question().ValidateContent(q.Type, q.Content); err != nil {
			return nil, err
		}
	}

	creator, err := s.repo.User().GetByID(ctx, nil, creatorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewPermissionError(creatorID, 0, "assessment", "create", "unknown user")
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if creator.Role != models.RoleTeacher && creator.Role != models.RoleAdmin {
		return nil, NewPermissionError(creatorID, 0, "assessment", "create", "requires the teacher role")
	}

	assessment := &models.Assessment{
		Title:              req.Title,
		Description:        req.Description,
		Status:             models.StatusDraft,
		PassMarkPercentage: req.PassMarkPercentage,
		CourseCompleting:   req.CourseCompleting,
		CourseID:           req.CourseID,
		MaxAttempts:        req.MaxAttempts,
		DueDate:            req.DueDate,
		CreatedBy:          creatorID,
	}
	if assessment.MaxAttempts == 0 {
		assessment.MaxAttempts = 1
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		if err := txRepo.Assessment().Create(ctx, nil, assessment); err != nil {
			return fmt.Errorf("failed to create assessment: %w", err)
		}
		for i, q := range req.Questions {
			question := s.buildQuestion(assessment.ID, q)
			if question.DisplayOrder == 0 {
				question.DisplayOrder = i + 1
			}
			if err := txRepo.Question().Create(ctx, nil, question); err != nil {
				return fmt.Errorf("failed to create question: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Assessment created", "assessment_id", assessment.ID)
	return s.GetByIDWithQuestions(ctx, assessment.ID)
}

func (s *assessmentService) GetByID(ctx context.Context, id uint) (*AssessmentResponse, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	return toAssessmentResponse(assessment), nil
}

func (s *assessmentService) GetByIDWithQuestions(ctx context.Context, id uint) (*AssessmentResponse, error) {
	assessment, err := s.repo.Assessment().GetByIDWithQuestions(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	return toAssessmentResponse(assessment), nil
}

func (s *assessmentService) List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error) {
	assessments, total, err := s.repo.Assessment().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}

	resp := &AssessmentListResponse{
		Assessments: make([]*AssessmentResponse, 0, len(assessments)),
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}
	for _, a := range assessments {
		resp.Assessments = append(resp.Assessments, toAssessmentResponse(a))
	}
	return resp, nil
}

func (s *assessmentService) Update(ctx context.Context, id uint, req *UpdateAssessmentRequest, userID string) (*AssessmentResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "assessment", "update", "not the assessment owner")
	}
	if assessment.Status == models.StatusArchived {
		return nil, ErrAssessmentNotEditable
	}

	if req.Title != nil {
		assessment.Title = *req.Title
	}
	if req.Description != nil {
		assessment.Description = req.Description
	}
	if req.PassMarkPercentage != nil {
		assessment.PassMarkPercentage = *req.PassMarkPercentage
	}
	if req.CourseCompleting != nil {
		assessment.CourseCompleting = *req.CourseCompleting
	}
	if req.MaxAttempts != nil {
		assessment.MaxAttempts = *req.MaxAttempts
	}
	if req.DueDate != nil {
		assessment.DueDate = req.DueDate
	}

	if err := s.repo.Assessment().Update(ctx, nil, assessment); err != nil {
		return nil, fmt.Errorf("failed to update assessment: %w", err)
	}

	s.logger.Info("Assessment updated", "assessment_id", id, "user_id", userID)
	return s.GetByIDWithQuestions(ctx, id)
}

func (s *assessmentService) Delete(ctx context.Context, id uint, userID string) error {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment.CreatedBy != userID {
		return NewPermissionError(userID, id, "assessment", "delete", "not the assessment owner")
	}

	hasAttempts, err := s.repo.Assessment().HasAttempts(ctx, nil, id)
	if err != nil {
		return fmt.Errorf("failed to check attempts: %w", err)
	}
	if hasAttempts {
		return ErrAssessmentNotDeletable
	}

	if err := s.repo.Assessment().Delete(ctx, nil, id); err != nil {
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	s.logger.Info("Assessment deleted", "assessment_id", id, "user_id", userID)
	return nil
}

func (s *assessmentService) UpdateStatus(ctx context.Context, id uint, status models.AssessmentStatus, userID string) error {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssessmentNotFound
		}
		return fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment.CreatedBy != userID {
		return NewPermissionError(userID, id, "assessment", "update_status", "not the assessment owner")
	}

	// Activation requires at least one question.
	if status == models.StatusActive {
		count, err := s.repo.Question().CountByAssessment(ctx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to count questions: %w", err)
		}
		if count == 0 {
			return NewValidationError("questions", "assessment needs at least one question to activate", nil)
		}
	}

	if err := s.repo.Assessment().UpdateStatus(ctx, nil, id, status); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	s.logger.Info("Assessment status updated",
		"assessment_id", id, "status", status, "user_id", userID)
	return nil
}

// ===== QUESTION MANAGEMENT =====

func (s *assessmentService) AddQuestion(ctx context.Context, assessmentID uint, req *CreateQuestionRequest, userID string) (*QuestionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if err := s.validator.Question().ValidateContent(req.Type, req.Content); err != nil {
		return nil, err
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment.CreatedBy != userID {
		return nil, NewPermissionError(userID, assessmentID, "assessment", "add_question", "not the assessment owner")
	}

	question := s.buildQuestion(assessmentID, req)
	if question.DisplayOrder == 0 {
		count, err := s.repo.Question().CountByAssessment(ctx, nil, assessmentID)
		if err != nil {
			return nil, fmt.Errorf("failed to count questions: %w", err)
		}
		question.DisplayOrder = int(count) + 1
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.logger.Info("Question added",
		"assessment_id", assessmentID, "question_id", question.ID, "type", question.Type)
	return toQuestionResponse(question), nil
}

// UpdateQuestion edits a question in place while no attempt has been graded
// against it. Once grading has happened the stored content is frozen; the
// edit creates a new version and supersedes the old row so existing results
// keep referencing the content they were scored with.
func (s *assessmentService) UpdateQuestion(ctx context.Context, questionID uint, req *UpdateQuestionRequest, userID string) (*QuestionResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if question.SupersededBy != nil {
		return nil, ErrQuestionSuperseded
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, question.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment.CreatedBy != userID {
		return nil, NewPermissionError(userID, questionID, "question", "update", "not the assessment owner")
	}

	updated := *question
	if req.Text != nil {
		updated.Text = *req.Text
	}
	if req.Points != nil {
		updated.Points = *req.Points
	}
	if req.DisplayOrder != nil {
		updated.DisplayOrder = *req.DisplayOrder
	}
	if req.Content != nil {
		if err := s.validator.Question().ValidateContent(question.Type, req.Content); err != nil {
			return nil, err
		}
		updated.Content = datatypes.JSON(req.Content)
	}

	graded, err := s.repo.Assessment().HasGradedAttempts(ctx, nil, question.AssessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to check graded attempts: %w", err)
	}

	if graded {
		replacement := updated
		if err := s.repo.Question().Supersede(ctx, nil, questionID, &replacement); err != nil {
			return nil, fmt.Errorf("failed to version question: %w", err)
		}
		s.logger.Info("Question versioned",
			"question_id", questionID, "new_question_id", replacement.ID, "version", replacement.Version)
		return toQuestionResponse(&replacement), nil
	}

	updated.UpdatedAt = time.Now()
	if err := s.repo.Question().Update(ctx, nil, &updated); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}
	return toQuestionResponse(&updated), nil
}

func (s *assessmentService) DeleteQuestion(ctx context.Context, questionID uint, userID string) error {
	question, err := s.repo.Question().GetByID(ctx, nil, questionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to load question: %w", err)
	}

	assessment, err := s.repo.Assessment().GetByID(ctx, nil, question.AssessmentID)
	if err != nil {
		return fmt.Errorf("failed to load assessment: %w", err)
	}
	if assessment.CreatedBy != userID {
		return NewPermissionError(userID, questionID, "question", "delete", "not the assessment owner")
	}

	graded, err := s.repo.Assessment().HasGradedAttempts(ctx, nil, question.AssessmentID)
	if err != nil {
		return fmt.Errorf("failed to check graded attempts: %w", err)
	}
	if graded {
		return ErrAssessmentNotEditable
	}

	return s.repo.Question().Delete(ctx, nil, questionID)
}

func (s *assessmentService) GetQuestions(ctx context.Context, assessmentID uint) ([]*QuestionResponse, error) {
	questions, err := s.repo.Question().GetByAssessment(ctx, nil, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	responses := make([]*QuestionResponse, 0, len(questions))
	for _, q := range questions {
		responses = append(responses, toQuestionResponse(q))
	}
	return responses, nil
}

// ===== REPORTING =====

func (s *assessmentService) GetGradingStats(ctx context.Context, assessmentID uint) (*repositories.GradingStats, error) {
	if _, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}
	return s.repo.Result().GetGradingStats(ctx, nil, assessmentID)
}

// ExpireOverdue sweeps active assessments whose due date has passed. Each one
// flips to expired together with its in-progress attempts; submitted attempts
// stay untouched so pending grading passes can finish.
func (s *assessmentService) ExpireOverdue(ctx context.Context) (int, error) {
	overdue, err := s.repo.Assessment().GetExpiredAssessments(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to load overdue assessments: %w", err)
	}

	expired := 0
	for _, assessment := range overdue {
		assessmentID := assessment.ID
		err := s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
			if err := txRepo.Assessment().UpdateStatus(ctx, nil, assessmentID, models.StatusExpired); err != nil {
				return err
			}

			inProgress := models.AttemptInProgress
			attempts, _, err := txRepo.Attempt().List(ctx, nil, repositories.AttemptFilters{
				Status:       &inProgress,
				AssessmentID: &assessmentID,
			})
			if err != nil {
				return err
			}
			for _, attempt := range attempts {
				if err := txRepo.Attempt().UpdateStatus(ctx, nil, attempt.ID, models.AttemptExpired); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			s.logger.Error("Failed to expire assessment",
				"assessment_id", assessmentID, "error", err)
			continue
		}
		expired++
		s.logger.Info("Assessment expired", "assessment_id", assessmentID)
	}
	return expired, nil
}

func (s *assessmentService) buildQuestion(assessmentID uint, req *CreateQuestionRequest) *models.Question {
	return &models.Question{
		AssessmentID: assessmentID,
		Type:         req.Type,
		Text:         req.Text,
		Points:       req.Points,
		DisplayOrder: req.DisplayOrder,
		Content:      datatypes.JSON(req.Content),
		Version:      1,
	}
}
