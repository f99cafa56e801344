package validator

import (
	"testing"

	"github.com/formlab/forms-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func surveyForm() *models.Form {
	min := float64(1)
	max := float64(5)
	return &models.Form{
		Title: "Workshop Survey",
		Type:  models.FormTypeSurvey,
		Settings: models.FormSettings{
			AllowAnonymous: true,
		},
		Fields: []models.Field{
			{ID: "name", Label: "Name", Kind: models.FieldShortText, Required: true},
			{ID: "email", Label: "Email", Kind: models.FieldEmail},
			{ID: "rating", Label: "Rating", Kind: models.FieldRating,
				Rules: &models.FieldConstraints{Min: &min, Max: &max}},
			{ID: "track", Label: "Track", Kind: models.FieldRadio,
				Options: []string{"Backend", "Frontend"}},
			{ID: "topics", Label: "Topics", Kind: models.FieldCheckbox,
				Options: []string{"Go", "SQL", "Docker"}},
			{ID: "note", Label: "Reviewer note", Kind: models.FieldLongText,
				Visibility: models.VisibilityInternal},
		},
	}
}

func payload(answers ...models.Answer) *models.SubmissionPayload {
	return &models.SubmissionPayload{Answers: answers}
}

func TestValidateSubmission_Valid(t *testing.T) {
	errs := NewSubmissionValidator().ValidateSubmission(surveyForm(), payload(
		models.Answer{FieldID: "name", Value: "Ada"},
		models.Answer{FieldID: "email", Value: "ada@example.com"},
		models.Answer{FieldID: "rating", Value: float64(4)},
		models.Answer{FieldID: "track", Value: "Backend"},
		models.Answer{FieldID: "topics", Value: []any{"Go", "SQL"}},
	))
	assert.Empty(t, errs)
}

func TestValidateSubmission_MissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		omit    bool
		missing bool
	}{
		{name: "omitted", omit: true, missing: true},
		{name: "nil", value: nil, missing: true},
		{name: "empty string", value: "", missing: true},
		{name: "empty array", value: []any{}, missing: true},
		{name: "boolean false is present", value: false, missing: false},
		{name: "numeric zero is present", value: float64(0), missing: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := surveyForm()
			// A required field with no shape rules so any present value passes.
			form.Fields = []models.Field{
				{ID: "consent", Label: "Consent", Kind: models.FieldShortText, Required: true},
			}

			var p *models.SubmissionPayload
			if tt.omit {
				p = payload()
			} else {
				p = payload(models.Answer{FieldID: "consent", Value: tt.value})
			}

			errs := NewSubmissionValidator().ValidateSubmission(form, p)
			if tt.missing {
				require.Len(t, errs, 1)
				assert.Equal(t, "required", errs[0].Rule)
				assert.Equal(t, "Missing required: Consent", errs[0].Message)
			} else {
				assert.Empty(t, errs)
			}
		})
	}
}

func TestValidateSubmission_UnknownField(t *testing.T) {
	errs := NewSubmissionValidator().ValidateSubmission(surveyForm(), payload(
		models.Answer{FieldID: "name", Value: "Ada"},
		models.Answer{FieldID: "bogus", Value: "x"},
	))
	require.Len(t, errs, 1)
	assert.Equal(t, "unknown_field", errs[0].Rule)
	assert.Equal(t, "bogus", errs[0].Field)
}

func TestValidateSubmission_InternalFieldRejected(t *testing.T) {
	// Internal-visibility fields are not accepted from public submissions.
	errs := NewSubmissionValidator().ValidateSubmission(surveyForm(), payload(
		models.Answer{FieldID: "name", Value: "Ada"},
		models.Answer{FieldID: "note", Value: "seen it"},
	))
	require.Len(t, errs, 1)
	assert.Equal(t, "unknown_field", errs[0].Rule)
	assert.Equal(t, "note", errs[0].Field)
}

func TestValidateSubmission_EmailFormat(t *testing.T) {
	tests := []struct {
		name  string
		value any
		valid bool
	}{
		{name: "plain address", value: "ada@example.com", valid: true},
		{name: "missing at", value: "ada.example.com", valid: false},
		{name: "missing domain dot", value: "ada@example", valid: false},
		{name: "whitespace", value: "ada @example.com", valid: false},
		{name: "non-string", value: float64(7), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := NewSubmissionValidator().ValidateSubmission(surveyForm(), payload(
				models.Answer{FieldID: "name", Value: "Ada"},
				models.Answer{FieldID: "email", Value: tt.value},
			))
			if tt.valid {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Equal(t, "email", errs[0].Rule)
			}
		})
	}
}

func TestValidateSubmission_NumericBounds(t *testing.T) {
	tests := []struct {
		name  string
		value any
		rule  string
	}{
		{name: "in range", value: float64(3)},
		{name: "numeric string in range", value: "4"},
		{name: "below min", value: float64(0), rule: "min"},
		{name: "above max", value: float64(9), rule: "max"},
		{name: "not a number", value: "lots", rule: "numeric"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := NewSubmissionValidator().ValidateSubmission(surveyForm(), payload(
				models.Answer{FieldID: "name", Value: "Ada"},
				models.Answer{FieldID: "rating", Value: tt.value},
			))
			if tt.rule == "" {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Equal(t, tt.rule, errs[0].Rule)
			}
		})
	}
}

func TestValidateSubmission_RadioShape(t *testing.T) {
	tests := []struct {
		name  string
		value any
		rule  string
	}{
		{name: "option string", value: "Backend"},
		{name: "numeric index", value: float64(1)},
		{name: "integer index", value: 0},
		{name: "array rejected", value: []any{"Backend"}, rule: "single_value"},
		{name: "unknown option", value: "Mobile", rule: "option_membership"},
		{name: "index out of range", value: float64(2), rule: "option_membership"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := NewSubmissionValidator().ValidateSubmission(surveyForm(), payload(
				models.Answer{FieldID: "name", Value: "Ada"},
				models.Answer{FieldID: "track", Value: tt.value},
			))
			if tt.rule == "" {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Equal(t, tt.rule, errs[0].Rule)
			}
		})
	}
}

func TestValidateSubmission_CheckboxShape(t *testing.T) {
	tests := []struct {
		name  string
		value any
		rules []string
	}{
		{name: "option strings", value: []any{"Go", "Docker"}},
		{name: "mixed strings and indexes", value: []any{"Go", float64(1)}},
		{name: "scalar rejected", value: "Go", rules: []string{"array_value"}},
		{name: "unknown member", value: []any{"Go", "Rust"}, rules: []string{"option_membership"}},
		{name: "two unknown members", value: []any{"Rust", "Zig"},
			rules: []string{"option_membership", "option_membership"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := NewSubmissionValidator().ValidateSubmission(surveyForm(), payload(
				models.Answer{FieldID: "name", Value: "Ada"},
				models.Answer{FieldID: "topics", Value: tt.value},
			))
			require.Len(t, errs, len(tt.rules))
			for i, rule := range tt.rules {
				assert.Equal(t, rule, errs[i].Rule)
			}
		})
	}
}

func TestValidateSubmission_CheckboxSelectionCounts(t *testing.T) {
	minSel, maxSel := 1, 2
	form := surveyForm()
	form.Fields[4].Rules = &models.FieldConstraints{MinSelections: &minSel, MaxSelections: &maxSel}

	tests := []struct {
		name  string
		value []any
		rule  string
	}{
		{name: "within bounds", value: []any{"Go"}},
		{name: "too many", value: []any{"Go", "SQL", "Docker"}, rule: "max_selections"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := NewSubmissionValidator().ValidateSubmission(form, payload(
				models.Answer{FieldID: "name", Value: "Ada"},
				models.Answer{FieldID: "topics", Value: tt.value},
			))
			if tt.rule == "" {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Equal(t, tt.rule, errs[0].Rule)
			}
		})
	}
}

func TestValidateSubmission_DropdownMultiple(t *testing.T) {
	form := surveyForm()
	form.Fields = append(form.Fields, models.Field{
		ID: "days", Label: "Days", Kind: models.FieldDropdown,
		Options: []string{"Mon", "Tue", "Wed"}, Multiple: true,
	})

	tests := []struct {
		name  string
		value any
		rule  string
	}{
		{name: "array accepted", value: []any{"Mon", "Wed"}},
		{name: "scalar rejected", value: "Mon", rule: "array_value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := NewSubmissionValidator().ValidateSubmission(form, payload(
				models.Answer{FieldID: "name", Value: "Ada"},
				models.Answer{FieldID: "days", Value: tt.value},
			))
			if tt.rule == "" {
				assert.Empty(t, errs)
			} else {
				require.Len(t, errs, 1)
				assert.Equal(t, tt.rule, errs[0].Rule)
			}
		})
	}
}

func TestValidateSubmission_ResponderIdentity(t *testing.T) {
	tests := []struct {
		name      string
		settings  models.FormSettings
		responder *models.ResponderInfo
		fields    []string
	}{
		{
			name:     "anonymous allowed",
			settings: models.FormSettings{AllowAnonymous: true},
		},
		{
			name:     "anonymous forbidden",
			settings: models.FormSettings{},
			fields:   []string{"responder"},
		},
		{
			name:      "name and email required",
			settings:  models.FormSettings{AllowAnonymous: true, RequireName: true, RequireEmail: true},
			responder: &models.ResponderInfo{},
			fields:    []string{"responder.name", "responder.email"},
		},
		{
			name:      "student id required",
			settings:  models.FormSettings{AllowAnonymous: true, RequireStudentID: true},
			responder: &models.ResponderInfo{StudentID: "s-114"},
		},
		{
			name:      "malformed email",
			settings:  models.FormSettings{AllowAnonymous: true},
			responder: &models.ResponderInfo{Email: "not-an-email"},
			fields:    []string{"responder.email"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := surveyForm()
			form.Settings = tt.settings
			form.Fields = nil

			errs := NewSubmissionValidator().ValidateSubmission(form, &models.SubmissionPayload{
				Responder: tt.responder,
			})

			var got []string
			for _, e := range errs {
				got = append(got, e.Field)
			}
			assert.Equal(t, tt.fields, got)
		})
	}
}
