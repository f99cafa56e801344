package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/formlab/forms-service/internal/models"
)

// ruleInsightProvider derives a prose summary from the computed analytics
// with fixed rules. It is the default provider; an external one (e.g. an
// LLM-backed service) can be swapped in through the same interface.
type ruleInsightProvider struct{}

func NewRuleInsightProvider() InsightProvider {
	return &ruleInsightProvider{}
}

func (p *ruleInsightProvider) Summarize(_ context.Context, a *FormAnalytics) (string, error) {
	if a == nil {
		return "", fmt.Errorf("%w: nil analytics", ErrInternalError)
	}

	if a.TotalResponses == 0 {
		return fmt.Sprintf("%q has not received any responses yet.", a.Title), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%q collected %d responses", a.Title, a.TotalResponses)
	if a.SampleSize > 0 && int64(a.SampleSize) < a.TotalResponses {
		fmt.Fprintf(&b, " (statistics below cover the most recent %d)", a.SampleSize)
	}
	b.WriteString(".")

	if a.AverageDuration > 0 {
		fmt.Fprintf(&b, " Respondents took %.0f seconds on average.", a.AverageDuration)
	}

	for _, dist := range a.Distributions {
		if sentence := describeDistribution(dist); sentence != "" {
			b.WriteString(" ")
			b.WriteString(sentence)
		}
	}

	if a.Quiz != nil && a.Quiz.ScoredResponses > 0 {
		fmt.Fprintf(&b, " Quiz scores averaged %.1f (%.0f%%), ranging from %.1f to %.1f.",
			a.Quiz.AverageScore, a.Quiz.AveragePercent, a.Quiz.LowestScore, a.Quiz.HighestScore)
		if a.Quiz.PassRate != nil {
			fmt.Fprintf(&b, " %.0f%% of scored responses passed.", *a.Quiz.PassRate)
		}
	}

	return b.String(), nil
}

// describeDistribution picks the single most useful fact per field: the
// leading option for choice fields, the average for numeric ones.
func describeDistribution(dist FieldDistribution) string {
	if dist.Average != nil {
		return fmt.Sprintf("%q averaged %.1f.", dist.Label, *dist.Average)
	}

	if len(dist.Counts) == 0 {
		return ""
	}

	options := make([]string, 0, len(dist.Counts))
	total := 0
	for option, count := range dist.Counts {
		options = append(options, option)
		total += count
	}
	if total == 0 {
		return ""
	}

	// Deterministic tie-break on option name.
	sort.Slice(options, func(i, j int) bool {
		if dist.Counts[options[i]] != dist.Counts[options[j]] {
			return dist.Counts[options[i]] > dist.Counts[options[j]]
		}
		return options[i] < options[j]
	})

	top := options[0]
	share := float64(dist.Counts[top]) / float64(total) * 100
	if dist.Kind == models.FieldCheckbox {
		return fmt.Sprintf("%q was picked most under %q (%.0f%% of selections).", top, dist.Label, share)
	}
	return fmt.Sprintf("%q led on %q with %.0f%% of answers.", top, dist.Label, share)
}
