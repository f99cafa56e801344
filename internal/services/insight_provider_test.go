package services

import (
	"context"
	"testing"

	"github.com/formlab/forms-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleInsightProvider_EmptyForm(t *testing.T) {
	provider := NewRuleInsightProvider()

	summary, err := provider.Summarize(context.Background(), &FormAnalytics{
		Title: "Town Hall Signup",
	})

	require.NoError(t, err)
	assert.Equal(t, `"Town Hall Signup" has not received any responses yet.`, summary)
}

func TestRuleInsightProvider_Summary(t *testing.T) {
	provider := NewRuleInsightProvider()
	avg := 4.2
	passRate := 75.0

	summary, err := provider.Summarize(context.Background(), &FormAnalytics{
		Title:          "Course Feedback",
		TotalResponses: 40,
		SampleSize:     40,
		Distributions: []FieldDistribution{
			{Label: "Track", Kind: models.FieldRadio, Counts: map[string]int{"Backend": 25, "Frontend": 15}},
			{Label: "Rating", Kind: models.FieldRating, Average: &avg},
		},
		Quiz: &QuizStats{
			AverageScore:    6.4,
			AveragePercent:  80,
			HighestScore:    8,
			LowestScore:     3,
			PassRate:        &passRate,
			ScoredResponses: 40,
		},
	})

	require.NoError(t, err)
	assert.Contains(t, summary, `"Course Feedback" collected 40 responses.`)
	assert.Contains(t, summary, `"Backend" led on "Track" with 62% of answers.`)
	assert.Contains(t, summary, `"Rating" averaged 4.2.`)
	assert.Contains(t, summary, "Quiz scores averaged 6.4 (80%), ranging from 3.0 to 8.0.")
	assert.Contains(t, summary, "75% of scored responses passed.")
}

func TestRuleInsightProvider_SampleCapMentioned(t *testing.T) {
	provider := NewRuleInsightProvider()

	summary, err := provider.Summarize(context.Background(), &FormAnalytics{
		Title:          "Big Survey",
		TotalResponses: 500,
		SampleSize:     200,
	})

	require.NoError(t, err)
	assert.Contains(t, summary, "statistics below cover the most recent 200")
}
