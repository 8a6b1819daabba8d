package services

import (
	"errors"
	"fmt"

	apperrors "github.com/Mont3ll/lms-backend/internal/errors"
	"github.com/Mont3ll/lms-backend/internal/grading"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrBadRequest       = errors.New("bad request")
	ErrConflict         = errors.New("resource conflict")

	// Assessment specific errors
	ErrAssessmentNotFound       = errors.New("assessment not found")
	ErrAssessmentNotEditable    = errors.New("assessment cannot be edited in current status")
	ErrAssessmentNotDeletable   = errors.New("assessment cannot be deleted - has existing attempts")
	ErrAssessmentDuplicateTitle = errors.New("assessment title already exists for this user")
	ErrAssessmentExpired        = errors.New("assessment has expired")
	ErrAssessmentNotActive      = errors.New("assessment is not active")

	// Question specific errors
	ErrQuestionNotFound       = errors.New("question not found")
	ErrQuestionInvalidContent = errors.New("invalid question content for type")
	ErrQuestionSuperseded     = errors.New("question version has been superseded")

	// Attempt specific errors
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrAttemptNotActive     = errors.New("attempt is not active")
	ErrAttemptLimitExceeded = errors.New("maximum attempts exceeded")
	ErrAttemptNotSubmitted  = errors.New("attempt is not in submitted state")

	// Grading specific errors
	ErrAlreadyGraded = errors.New("attempt already graded")
	ErrGradingBusy   = errors.New("grading already in progress for this attempt")

	// User/Permission errors
	ErrUserNotFound            = errors.New("user not found")
	ErrUserAlreadyExists       = errors.New("user already exists")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// Grading engine sentinels, re-exported so callers can match them without
// importing the engine package.
var (
	ErrUnsupportedQuestionType = grading.ErrUnsupportedQuestionType
	ErrInvalidAnswerFormat     = grading.ErrInvalidAnswerFormat
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAssessmentNotFound) ||
		errors.Is(err, ErrQuestionNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrInsufficientPermissions) {
		return true
	}
	var pe *PermissionError
	return errors.As(err, &pe)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAssessmentNotDeletable) ||
		errors.Is(err, ErrAssessmentDuplicateTitle) ||
		errors.Is(err, ErrAttemptLimitExceeded) ||
		errors.Is(err, ErrUserAlreadyExists) ||
		errors.Is(err, ErrGradingBusy)
}
