package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/formlab/forms-service/internal/errors"
	"github.com/formlab/forms-service/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// SubmissionValidator checks a public submission payload against the
// owning form's schema. Only public-visibility fields participate;
// internal fields are never validated against (or accepted from) a public
// submission. All violations are collected.
type SubmissionValidator struct{}

// NewSubmissionValidator creates a new submission validator
func NewSubmissionValidator() *SubmissionValidator {
	return &SubmissionValidator{}
}

// ValidateSubmission validates payload against form.
func (v *SubmissionValidator) ValidateSubmission(form *models.Form, payload *models.SubmissionPayload) ValidationErrors {
	var errs ValidationErrors

	errs = append(errs, v.validateResponder(form, payload.Responder)...)

	answers := payload.AnswerMap()

	// Answers may only reference public fields declared on the form.
	public := make(map[string]bool, len(form.Fields))
	for _, field := range form.Fields {
		if field.IsPublic() {
			public[field.ID] = true
		}
	}
	for _, a := range payload.Answers {
		if !public[a.FieldID] {
			errs = append(errs, *errors.NewValidationErrorWithRule(
				a.FieldID, "answer references a field not accepted on this form", "unknown_field", a.FieldID))
		}
	}

	for _, field := range form.Fields {
		if !field.IsPublic() {
			continue
		}

		value, supplied := answers[field.ID]
		if !supplied || isEmptyValue(value) {
			if field.Required {
				errs = append(errs, *errors.NewValidationErrorWithRule(
					field.ID, fmt.Sprintf("Missing required: %s", field.Label), "required", nil))
			}
			continue
		}

		errs = append(errs, v.validateValue(field, value)...)
	}

	return errs
}

// validateResponder enforces the form's identity requirements.
func (v *SubmissionValidator) validateResponder(form *models.Form, responder *models.ResponderInfo) ValidationErrors {
	var errs ValidationErrors

	s := form.Settings
	if responder == nil {
		if !s.AllowAnonymous || s.RequireName || s.RequireEmail || s.RequireStudentID {
			errs = append(errs, *errors.NewValidationErrorWithRule(
				"responder", "responder identity is required on this form", "required", nil))
		}
		return errs
	}

	if s.RequireName && strings.TrimSpace(responder.Name) == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			"responder.name", "is required", "required", nil))
	}
	if s.RequireEmail && strings.TrimSpace(responder.Email) == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			"responder.email", "is required", "required", nil))
	}
	if responder.Email != "" && !emailPattern.MatchString(responder.Email) {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			"responder.email", "must be a valid email address", "email", responder.Email))
	}
	if s.RequireStudentID && strings.TrimSpace(responder.StudentID) == "" {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			"responder.studentId", "is required", "required", nil))
	}

	return errs
}

// validateValue dispatches on the closed field-kind set.
func (v *SubmissionValidator) validateValue(field models.Field, value any) ValidationErrors {
	switch field.Kind {
	case models.FieldEmail:
		return v.validateEmail(field, value)
	case models.FieldNumber, models.FieldRating, models.FieldScale:
		return v.validateNumeric(field, value)
	case models.FieldRadio:
		return v.validateRadio(field, value)
	case models.FieldCheckbox:
		return v.validateCheckbox(field, value)
	case models.FieldDropdown:
		return v.validateDropdown(field, value)
	case models.FieldShortText, models.FieldLongText, models.FieldDate,
		models.FieldTime, models.FieldSingleSelect, models.FieldMatrix,
		models.FieldFile, models.FieldSection, models.FieldImage,
		models.FieldVideo:
		return v.validatePattern(field, value)
	}
	return nil
}

func (v *SubmissionValidator) validateEmail(field models.Field, value any) ValidationErrors {
	s, ok := value.(string)
	if !ok || !emailPattern.MatchString(s) {
		return ValidationErrors{*errors.NewValidationErrorWithRule(
			field.ID, fmt.Sprintf("%s must be a valid email address", field.Label), "email", value)}
	}
	return nil
}

func (v *SubmissionValidator) validateNumeric(field models.Field, value any) ValidationErrors {
	var errs ValidationErrors

	n, ok := toNumber(value)
	if !ok {
		return ValidationErrors{*errors.NewValidationErrorWithRule(
			field.ID, fmt.Sprintf("%s must be a number", field.Label), "numeric", value)}
	}

	if field.Rules != nil {
		if field.Rules.Min != nil && n < *field.Rules.Min {
			errs = append(errs, *errors.NewValidationErrorWithRule(
				field.ID, fmt.Sprintf("%s must be at least %v", field.Label, *field.Rules.Min), "min", n))
		}
		if field.Rules.Max != nil && n > *field.Rules.Max {
			errs = append(errs, *errors.NewValidationErrorWithRule(
				field.ID, fmt.Sprintf("%s must be at most %v", field.Label, *field.Rules.Max), "max", n))
		}
	}

	return errs
}

func (v *SubmissionValidator) validateRadio(field models.Field, value any) ValidationErrors {
	if _, isArray := value.([]any); isArray {
		return ValidationErrors{*errors.NewValidationErrorWithRule(
			field.ID, fmt.Sprintf("%s accepts a single selection", field.Label), "single_value", value)}
	}
	return v.validateOptionMembership(field, []any{value})
}

func (v *SubmissionValidator) validateCheckbox(field models.Field, value any) ValidationErrors {
	values, isArray := value.([]any)
	if !isArray {
		return ValidationErrors{*errors.NewValidationErrorWithRule(
			field.ID, fmt.Sprintf("%s requires a list of selections", field.Label), "array_value", value)}
	}

	errs := v.validateOptionMembership(field, values)
	errs = append(errs, v.validateSelectionCount(field, values)...)
	return errs
}

func (v *SubmissionValidator) validateDropdown(field models.Field, value any) ValidationErrors {
	values, isArray := value.([]any)
	if field.Multiple {
		if !isArray {
			return ValidationErrors{*errors.NewValidationErrorWithRule(
				field.ID, fmt.Sprintf("%s requires a list of selections", field.Label), "array_value", value)}
		}
		errs := v.validateOptionMembership(field, values)
		errs = append(errs, v.validateSelectionCount(field, values)...)
		return errs
	}

	if !isArray {
		values = []any{value}
	}
	return v.validateOptionMembership(field, values)
}

func (v *SubmissionValidator) validateOptionMembership(field models.Field, values []any) ValidationErrors {
	var errs ValidationErrors
	for _, val := range values {
		if !optionMatches(field.Options, val) {
			errs = append(errs, *errors.NewValidationErrorWithRule(
				field.ID, fmt.Sprintf("%v is not an option of %s", val, field.Label), "option_membership", val))
		}
	}
	return errs
}

func (v *SubmissionValidator) validateSelectionCount(field models.Field, values []any) ValidationErrors {
	if field.Rules == nil {
		return nil
	}

	var errs ValidationErrors
	if field.Rules.MinSelections != nil && len(values) < *field.Rules.MinSelections {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			field.ID, fmt.Sprintf("%s requires at least %d selections", field.Label, *field.Rules.MinSelections),
			"min_selections", len(values)))
	}
	if field.Rules.MaxSelections != nil && len(values) > *field.Rules.MaxSelections {
		errs = append(errs, *errors.NewValidationErrorWithRule(
			field.ID, fmt.Sprintf("%s allows at most %d selections", field.Label, *field.Rules.MaxSelections),
			"max_selections", len(values)))
	}
	return errs
}

func (v *SubmissionValidator) validatePattern(field models.Field, value any) ValidationErrors {
	if field.Rules == nil || field.Rules.Pattern == "" {
		return nil
	}

	s, ok := value.(string)
	if !ok {
		return nil
	}

	re, err := regexp.Compile(field.Rules.Pattern)
	if err != nil {
		// A broken owner-authored pattern never blocks submitters.
		return nil
	}
	if !re.MatchString(s) {
		return ValidationErrors{*errors.NewValidationErrorWithRule(
			field.ID, fmt.Sprintf("%s does not match the expected format", field.Label), "pattern", value)}
	}
	return nil
}

// isEmptyValue implements the required-field emptiness rule: nil, empty
// string, and empty array are missing; boolean false and numeric zero are
// present.
func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	}
	return false
}

// optionMatches accepts either the literal option string or a numeric
// index into the declared options list.
func optionMatches(options []string, value any) bool {
	if s, ok := value.(string); ok {
		for _, opt := range options {
			if opt == s {
				return true
			}
		}
		return false
	}

	if n, ok := toNumber(value); ok {
		idx := int(n)
		return float64(idx) == n && idx >= 0 && idx < len(options)
	}

	return false
}

func toNumber(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
