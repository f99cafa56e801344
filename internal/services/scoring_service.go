package services

import (
	"log/slog"

	"github.com/formlab/forms-service/internal/models"
)

// ScoringService grades a quiz submission against the form's answer key.
// Grading is deterministic and storage-free; the submission pipeline calls
// it before persisting.
type ScoringService interface {
	ScoreSubmission(form *models.Form, answers map[string]any) *ScoreResult
}

type ScoreResult struct {
	Score       float64             `json:"score"`
	MaxScore    float64             `json:"max_score"`
	Percentage  float64             `json:"percentage"`
	Passed      *bool               `json:"passed,omitempty"`
	PerQuestion []models.FieldScore `json:"per_question"`
}

type scoringService struct {
	logger *slog.Logger
}

func NewScoringService(logger *slog.Logger) ScoringService {
	return &scoringService{logger: logger}
}

// ScoreSubmission computes the earned and possible score. Every scorable
// field contributes its points to MaxScore whether or not it was answered.
// Multi-select fields are all-or-nothing: the selected set must equal the
// correct set exactly, with no partial credit.
func (s *scoringService) ScoreSubmission(form *models.Form, answers map[string]any) *ScoreResult {
	result := &ScoreResult{PerQuestion: []models.FieldScore{}}

	for _, field := range form.Fields {
		if !field.Scorable() {
			continue
		}

		result.MaxScore += field.Quiz.Points

		earned := float64(0)
		if value, ok := answers[field.ID]; ok {
			if s.isCorrect(field, value) {
				earned = field.Quiz.Points
			}
		}
		result.Score += earned

		result.PerQuestion = append(result.PerQuestion, models.FieldScore{
			FieldID:  field.ID,
			Earned:   earned,
			Possible: field.Quiz.Points,
		})
	}

	if result.MaxScore > 0 {
		result.Percentage = result.Score / result.MaxScore * 100
	}
	if form.Settings.PassingScore != nil {
		passed := result.Percentage >= *form.Settings.PassingScore
		result.Passed = &passed
	}

	return result
}

func (s *scoringService) isCorrect(field models.Field, value any) bool {
	if multiSelect(field) {
		values, ok := value.([]any)
		if !ok {
			return false
		}
		return s.exactMatch(field, values)
	}

	idx, ok := resolveOptionIndex(field.Options, value)
	if !ok {
		return false
	}
	for _, correct := range field.Quiz.CorrectOptions {
		if idx == correct {
			return true
		}
	}
	return false
}

// exactMatch requires the selected index set to equal the correct set.
func (s *scoringService) exactMatch(field models.Field, values []any) bool {
	selected := make(map[int]bool, len(values))
	for _, v := range values {
		idx, ok := resolveOptionIndex(field.Options, v)
		if !ok {
			return false
		}
		selected[idx] = true
	}

	correct := make(map[int]bool, len(field.Quiz.CorrectOptions))
	for _, idx := range field.Quiz.CorrectOptions {
		correct[idx] = true
	}

	if len(selected) != len(correct) {
		return false
	}
	for idx := range selected {
		if !correct[idx] {
			return false
		}
	}
	return true
}

func multiSelect(field models.Field) bool {
	return field.Kind == models.FieldCheckbox ||
		(field.Kind == models.FieldDropdown && field.Multiple)
}

// resolveOptionIndex maps an answer value to an option index. A numeric
// value is taken as the index itself; a string is matched against the
// option labels.
func resolveOptionIndex(options []string, value any) (int, bool) {
	if s, ok := value.(string); ok {
		for i, opt := range options {
			if opt == s {
				return i, true
			}
		}
		return 0, false
	}

	if n, ok := toNumericIndex(value); ok && n >= 0 && n < len(options) {
		return n, true
	}
	return 0, false
}

func toNumericIndex(value any) (int, bool) {
	switch n := value.(type) {
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
	case float32:
		if n == float32(int(n)) {
			return int(n), true
		}
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}
