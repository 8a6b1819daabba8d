package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Mont3ll/lms-backend/internal/models"
	"github.com/Mont3ll/lms-backend/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type AssessmentService interface {
	Create(ctx context.Context, req *CreateAssessmentRequest, creatorID string) (*AssessmentResponse, error)
	GetByID(ctx context.Context, id uint) (*AssessmentResponse, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*AssessmentResponse, error)
	List(ctx context.Context, filters repositories.AssessmentFilters) (*AssessmentListResponse, error)
	Update(ctx context.Context, id uint, req *UpdateAssessmentRequest, userID string) (*AssessmentResponse, error)
	Delete(ctx context.Context, id uint, userID string) error
	UpdateStatus(ctx context.Context, id uint, status models.AssessmentStatus, userID string) error

	// Question management
	AddQuestion(ctx context.Context, assessmentID uint, req *CreateQuestionRequest, userID string) (*QuestionResponse, error)
	UpdateQuestion(ctx context.Context, questionID uint, req *UpdateQuestionRequest, userID string) (*QuestionResponse, error)
	DeleteQuestion(ctx context.Context, questionID uint, userID string) error
	GetQuestions(ctx context.Context, assessmentID uint) ([]*QuestionResponse, error)

	// Reporting
	GetGradingStats(ctx context.Context, assessmentID uint) (*repositories.GradingStats, error)

	// ExpireOverdue marks active assessments past their due date as expired
	// and closes their open attempts. Returns the number of assessments
	// expired. Run periodically by the server.
	ExpireOverdue(ctx context.Context) (int, error)
}

type AttemptService interface {
	Start(ctx context.Context, assessmentID uint, studentID string) (*AttemptResponse, error)
	SaveAnswer(ctx context.Context, attemptID uint, req *SaveAnswerRequest, studentID string) error
	Submit(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error)
	GetByID(ctx context.Context, attemptID uint) (*AttemptResponse, error)
	List(ctx context.Context, filters repositories.AttemptFilters) (*AttemptListResponse, error)
	GetResult(ctx context.Context, attemptID uint) (*GradingResultResponse, error)
}

type GradingService interface {
	// GradeAttempt grades a submitted attempt. A second call for an already
	// graded attempt returns the stored result together with ErrAlreadyGraded
	// unless regrade is requested.
	GradeAttempt(ctx context.Context, attemptID uint, regrade bool) (*GradingResultResponse, error)
}

type UserService interface {
	// Register provisions a user record mirrored from the upstream identity
	// provider. Role checks in the attempt and assessment services read it.
	Register(ctx context.Context, req *RegisterUserRequest) (*UserResponse, error)
	GetByID(ctx context.Context, id string) (*UserResponse, error)
}

type ExportService interface {
	// ExportAssessmentResults renders the graded attempts of an assessment
	// as an xlsx workbook.
	ExportAssessmentResults(ctx context.Context, assessmentID uint) ([]byte, error)
}

// ===== REQUEST DTOS =====

type CreateAssessmentRequest struct {
	Title              string             `json:"title" validate:"required,min=1,max=200"`
	Description        *string            `json:"description" validate:"omitempty,max=1000"`
	PassMarkPercentage float64            `json:"pass_mark_percentage" validate:"min=0,max=100"`
	CourseCompleting   bool               `json:"course_completing"`
	CourseID           *uint              `json:"course_id"`
	MaxAttempts        int                `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	DueDate            *time.Time         `json:"due_date"`
	Questions          []*CreateQuestionRequest `json:"questions" validate:"omitempty,dive"`
}

type UpdateAssessmentRequest struct {
	Title              *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description        *string    `json:"description" validate:"omitempty,max=1000"`
	PassMarkPercentage *float64   `json:"pass_mark_percentage" validate:"omitempty,min=0,max=100"`
	CourseCompleting   *bool      `json:"course_completing"`
	MaxAttempts        *int       `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	DueDate            *time.Time `json:"due_date"`
}

type CreateQuestionRequest struct {
	Type         models.QuestionType `json:"type" validate:"required,question_type"`
	Text         string              `json:"text" validate:"required,min=1"`
	Points       int                 `json:"points" validate:"min=0,max=100"`
	DisplayOrder int                 `json:"display_order" validate:"min=0"`
	Content      json.RawMessage     `json:"content" validate:"required"`
}

type UpdateQuestionRequest struct {
	Text         *string         `json:"text" validate:"omitempty,min=1"`
	Points       *int            `json:"points" validate:"omitempty,min=0,max=100"`
	DisplayOrder *int            `json:"display_order" validate:"omitempty,min=0"`
	Content      json.RawMessage `json:"content"`
}

type RegisterUserRequest struct {
	ID       string          `json:"id" validate:"required,max=255"`
	Email    string          `json:"email" validate:"required,email"`
	FullName string          `json:"full_name" validate:"omitempty,max=200"`
	Role     models.UserRole `json:"role" validate:"required,user_role"`
}

type SaveAnswerRequest struct {
	QuestionID uint            `json:"question_id" validate:"required"`
	Answer     json.RawMessage `json:"answer" validate:"required"`
}

// ===== RESPONSE DTOS =====

type AssessmentResponse struct {
	ID                 uint                    `json:"id"`
	Title              string                  `json:"title"`
	Description        *string                 `json:"description"`
	Status             models.AssessmentStatus `json:"status"`
	PassMarkPercentage float64                 `json:"pass_mark_percentage"`
	CourseCompleting   bool                    `json:"course_completing"`
	CourseID           *uint                   `json:"course_id"`
	MaxAttempts        int                     `json:"max_attempts"`
	DueDate            *time.Time              `json:"due_date"`
	CreatedBy          string                  `json:"created_by"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	QuestionsCount     int                     `json:"questions_count"`
	TotalPoints        int                     `json:"total_points"`
	Questions          []*QuestionResponse     `json:"questions,omitempty"`
}

type AssessmentListResponse struct {
	Assessments []*AssessmentResponse `json:"assessments"`
	Total       int64                 `json:"total"`
	Limit       int                   `json:"limit"`
	Offset      int                   `json:"offset"`
}

type QuestionResponse struct {
	ID           uint                `json:"id"`
	AssessmentID uint                `json:"assessment_id"`
	Type         models.QuestionType `json:"type"`
	Text         string              `json:"text"`
	Points       int                 `json:"points"`
	DisplayOrder int                 `json:"display_order"`
	Content      json.RawMessage     `json:"content"`
	Version      int                 `json:"version"`
}

type AttemptResponse struct {
	ID           uint                   `json:"id"`
	AssessmentID uint                   `json:"assessment_id"`
	StudentID    string                 `json:"student_id"`
	Status       models.AttemptStatus   `json:"status"`
	StartedAt    time.Time              `json:"started_at"`
	SubmittedAt  *time.Time             `json:"submitted_at"`
	GradedAt     *time.Time             `json:"graded_at"`
	Result       *GradingResultResponse `json:"result,omitempty"`
}

type AttemptListResponse struct {
	Attempts []*AttemptResponse `json:"attempts"`
	Total    int64              `json:"total"`
	Limit    int                `json:"limit"`
	Offset   int                `json:"offset"`
}

type UserResponse struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	FullName  string          `json:"full_name"`
	Role      models.UserRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

type GradingResultResponse struct {
	AttemptID           uint                  `json:"attempt_id"`
	TotalPointsAwarded  float64               `json:"total_points_awarded"`
	TotalPointsPossible float64               `json:"total_points_possible"`
	Percentage          float64               `json:"percentage"`
	Passed              bool                  `json:"passed"`
	GradedAt            time.Time             `json:"graded_at"`
	Answers             []models.AnswerResult `json:"answers"`
}

// ===== DTO CONVERSION HELPERS =====

func toAssessmentResponse(a *models.Assessment) *AssessmentResponse {
	resp := &AssessmentResponse{
		ID:                 a.ID,
		Title:              a.Title,
		Description:        a.Description,
		Status:             a.Status,
		PassMarkPercentage: a.PassMarkPercentage,
		CourseCompleting:   a.CourseCompleting,
		CourseID:           a.CourseID,
		MaxAttempts:        a.MaxAttempts,
		DueDate:            a.DueDate,
		CreatedBy:          a.CreatedBy,
		CreatedAt:          a.CreatedAt,
		UpdatedAt:          a.UpdatedAt,
		QuestionsCount:     a.QuestionsCount,
		TotalPoints:        a.TotalPoints,
	}
	for i := range a.Questions {
		if a.Questions[i].SupersededBy == nil {
			resp.Questions = append(resp.Questions, toQuestionResponse(&a.Questions[i]))
		}
	}
	return resp
}

func toQuestionResponse(q *models.Question) *QuestionResponse {
	return &QuestionResponse{
		ID:           q.ID,
		AssessmentID: q.AssessmentID,
		Type:         q.Type,
		Text:         q.Text,
		Points:       q.Points,
		DisplayOrder: q.DisplayOrder,
		Content:      json.RawMessage(q.Content),
		Version:      q.Version,
	}
}

func toAttemptResponse(a *models.AssessmentAttempt) *AttemptResponse {
	resp := &AttemptResponse{
		ID:           a.ID,
		AssessmentID: a.AssessmentID,
		StudentID:    a.StudentID,
		Status:       a.Status,
		StartedAt:    a.StartedAt,
		SubmittedAt:  a.SubmittedAt,
		GradedAt:     a.GradedAt,
	}
	if a.Result != nil {
		if result, err := toGradingResultResponse(a.Result); err == nil {
			resp.Result = result
		}
	}
	return resp
}

func toUserResponse(u *models.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

func toGradingResultResponse(r *models.GradingResult) (*GradingResultResponse, error) {
	answers, err := r.AnswerResults()
	if err != nil {
		return nil, err
	}
	return &GradingResultResponse{
		AttemptID:           r.AttemptID,
		TotalPointsAwarded:  r.TotalPointsAwarded,
		TotalPointsPossible: r.TotalPointsPossible,
		Percentage:          r.Percentage,
		Passed:              r.Passed,
		GradedAt:            r.GradedAt,
		Answers:             answers,
	}, nil
}
