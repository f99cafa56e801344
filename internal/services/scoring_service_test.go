package services

import (
	"testing"

	"github.com/formlab/forms-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quizForm() *models.Form {
	return &models.Form{
		Title: "Go Basics Quiz",
		Type:  models.FormTypeQuiz,
		Settings: models.FormSettings{
			QuizScoring: true,
		},
		Fields: []models.Field{
			{
				ID: "q1", Label: "Keyword for constants", Kind: models.FieldRadio,
				Options: []string{"var", "const", "let"},
				Quiz:    &models.QuizMeta{CorrectOptions: []int{1}, Points: 5},
			},
			{
				ID: "q2", Label: "Built-in types", Kind: models.FieldCheckbox,
				Options: []string{"int", "string", "decimal", "rune"},
				Quiz:    &models.QuizMeta{CorrectOptions: []int{0, 1, 3}, Points: 3},
			},
			{
				ID: "q3", Label: "Comment", Kind: models.FieldLongText,
			},
		},
	}
}

func TestScoreSubmission_SingleSelect(t *testing.T) {
	svc := NewScoringService(testLogger())

	tests := []struct {
		name   string
		answer any
		earned float64
	}{
		{name: "correct by label", answer: "const", earned: 5},
		{name: "correct by numeric index", answer: float64(1), earned: 5},
		{name: "wrong option", answer: "var", earned: 0},
		{name: "unknown option", answer: "def", earned: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.ScoreSubmission(quizForm(), map[string]any{"q1": tt.answer})
			assert.Equal(t, tt.earned, result.Score)
			assert.Equal(t, float64(8), result.MaxScore)
		})
	}
}

func TestScoreSubmission_MultiSelectAllOrNothing(t *testing.T) {
	svc := NewScoringService(testLogger())

	tests := []struct {
		name   string
		answer any
		earned float64
	}{
		{name: "exact set", answer: []any{"int", "string", "rune"}, earned: 3},
		{name: "exact set by index", answer: []any{float64(0), float64(1), float64(3)}, earned: 3},
		{name: "subset gets nothing", answer: []any{"int", "string"}, earned: 0},
		{name: "superset gets nothing", answer: []any{"int", "string", "rune", "decimal"}, earned: 0},
		{name: "scalar shape gets nothing", answer: "int", earned: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := svc.ScoreSubmission(quizForm(), map[string]any{"q2": tt.answer})
			assert.Equal(t, tt.earned, result.Score)
		})
	}
}

func TestScoreSubmission_UnansweredCountsTowardMax(t *testing.T) {
	svc := NewScoringService(testLogger())

	result := svc.ScoreSubmission(quizForm(), map[string]any{})

	assert.Equal(t, float64(0), result.Score)
	assert.Equal(t, float64(8), result.MaxScore)
	require.Len(t, result.PerQuestion, 2)
	assert.Equal(t, "q1", result.PerQuestion[0].FieldID)
	assert.Equal(t, float64(5), result.PerQuestion[0].Possible)
	assert.Equal(t, float64(0), result.PerQuestion[0].Earned)
}

func TestScoreSubmission_PassingScore(t *testing.T) {
	svc := NewScoringService(testLogger())

	passing := float64(60)
	form := quizForm()
	form.Settings.PassingScore = &passing

	result := svc.ScoreSubmission(form, map[string]any{
		"q1": "const",
		"q2": []any{"int"},
	})

	// 5 of 8 points is 62.5%.
	assert.Equal(t, float64(5), result.Score)
	assert.InDelta(t, 62.5, result.Percentage, 0.001)
	require.NotNil(t, result.Passed)
	assert.True(t, *result.Passed)
}

func TestScoreSubmission_NoScorableFields(t *testing.T) {
	svc := NewScoringService(testLogger())

	form := quizForm()
	form.Fields = []models.Field{{ID: "q1", Label: "Comment", Kind: models.FieldLongText}}

	result := svc.ScoreSubmission(form, map[string]any{"q1": "hi"})

	assert.Equal(t, float64(0), result.MaxScore)
	assert.Equal(t, float64(0), result.Percentage)
	assert.Nil(t, result.Passed)
	assert.Empty(t, result.PerQuestion)
}
