package handlers

import (
	"github.com/Mont3ll/lms-backend/internal/services"
	"github.com/Mont3ll/lms-backend/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	assessmentHandler *AssessmentHandler
	attemptHandler    *AttemptHandler
	gradingHandler    *GradingHandler
	userHandler       *UserHandler
}

func NewHandlerManager(
	assessmentService services.AssessmentService,
	attemptService services.AttemptService,
	gradingService services.GradingService,
	exportService services.ExportService,
	userService services.UserService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		assessmentHandler: NewAssessmentHandler(assessmentService, exportService, logger),
		attemptHandler:    NewAttemptHandler(attemptService, logger),
		gradingHandler:    NewGradingHandler(gradingService, logger),
		userHandler:       NewUserHandler(userService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", HealthCheck)

	v1 := router.Group("/api/v1")
	{
		assessments := v1.Group("/assessments")
		{
			assessments.POST("", hm.assessmentHandler.CreateAssessment)
			assessments.GET("", hm.assessmentHandler.ListAssessments)
			assessments.GET("/:id", hm.assessmentHandler.GetAssessment)
			assessments.PUT("/:id", hm.assessmentHandler.UpdateAssessment)
			assessments.DELETE("/:id", hm.assessmentHandler.DeleteAssessment)
			assessments.PUT("/:id/status", hm.assessmentHandler.UpdateAssessmentStatus)
			assessments.GET("/:id/stats", hm.assessmentHandler.GetGradingStats)
			assessments.GET("/:id/results/export", hm.assessmentHandler.ExportResults)

			// Question management
			assessments.POST("/:id/questions", hm.assessmentHandler.AddQuestion)
			assessments.GET("/:id/questions", hm.assessmentHandler.GetQuestions)

			// Attempt lifecycle
			assessments.POST("/:id/attempts", hm.attemptHandler.StartAttempt)
		}

		users := v1.Group("/users")
		{
			users.POST("", hm.userHandler.RegisterUser)
			users.GET("/:id", hm.userHandler.GetUser)
		}

		questions := v1.Group("/questions")
		{
			questions.PUT("/:question_id", hm.assessmentHandler.UpdateQuestion)
			questions.DELETE("/:question_id", hm.assessmentHandler.DeleteQuestion)
		}

		attempts := v1.Group("/attempts")
		{
			attempts.GET("", hm.attemptHandler.ListAttempts)
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.PUT("/:id/answers", hm.attemptHandler.SaveAnswer)
			attempts.POST("/:id/submit", hm.attemptHandler.SubmitAttempt)
			attempts.GET("/:id/result", hm.attemptHandler.GetResult)

			// Synchronous grading, also used for regrades
			attempts.POST("/:id/grade", hm.gradingHandler.GradeAttempt)
		}
	}
}
