package services

import (
	"errors"
	"fmt"

	apperrors "github.com/formlab/forms-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrConflict         = errors.New("resource conflict")

	// Form specific errors
	ErrFormNotFound      = errors.New("form not found")
	ErrFormAccessDenied  = errors.New("access denied to form")
	ErrFormNotEditable   = errors.New("form cannot be edited in current status")
	ErrFormInvalidStatus = errors.New("invalid form status transition")
	ErrFormNotPublished  = errors.New("form is not accepting responses")
	ErrFormNotArchived   = errors.New("form must be archived before permanent deletion")
	ErrSlugTaken         = errors.New("slug already in use")
	ErrSlugExhausted     = errors.New("could not allocate a unique slug")

	// Submission specific errors
	ErrSubmissionClosed    = errors.New("submission window is closed")
	ErrSubmissionNotOpen   = errors.New("submission window has not opened yet")
	ErrDuplicateSubmission = errors.New("a response from this identity already exists")
	ErrResponseNotFound    = errors.New("response not found")
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
		errors.Is(err, ErrFormNotFound) ||
		errors.Is(err, ErrResponseNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	if errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrFormAccessDenied) {
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
		errors.Is(err, ErrDuplicateSubmission) ||
		errors.Is(err, ErrSlugTaken) ||
		errors.Is(err, ErrFormInvalidStatus) ||
		errors.Is(err, ErrFormNotArchived) ||
		errors.Is(err, ErrFormNotEditable)
}

// IsWindowClosed checks if error represents a closed submission window
func IsWindowClosed(err error) bool {
	return errors.Is(err, ErrSubmissionClosed) ||
		errors.Is(err, ErrSubmissionNotOpen) ||
		errors.Is(err, ErrFormNotPublished)
}
