package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/repositories"
)

const (
	// analyticsSampleCap bounds how many responses feed the per-field
	// distributions. Totals and time series always use exact counts.
	analyticsSampleCap = 200

	defaultTimeSeriesDays = 30
	attendanceWindowDays  = 14
)

// AnalyticsService aggregates a form's responses into owner-facing
// statistics.
type AnalyticsService interface {
	GetFormAnalytics(ctx context.Context, formID uint, ownerID string) (*FormAnalytics, error)
	GetSubmissionTimeSeries(ctx context.Context, formID uint, ownerID string, days int) ([]TimeSeriesPoint, error)
	GetAttendanceStats(ctx context.Context, formID uint, ownerID string) (*AttendanceStats, error)
	GetInsightSummary(ctx context.Context, formID uint, ownerID string) (string, error)
}

// InsightProvider turns computed analytics into a prose summary. The
// engine stays agnostic of how the summary is produced.
type InsightProvider interface {
	Summarize(ctx context.Context, analytics *FormAnalytics) (string, error)
}

// ===== DATA STRUCTURES =====

type FormAnalytics struct {
	FormID          uint                `json:"form_id"`
	Title           string              `json:"title"`
	Type            models.FormType     `json:"type"`
	TotalResponses  int64               `json:"total_responses"`
	SampleSize      int                 `json:"sample_size"`
	AverageDuration float64             `json:"average_duration_seconds"`
	Distributions   []FieldDistribution `json:"distributions"`
	Quiz            *QuizStats          `json:"quiz,omitempty"`
	GeneratedAt     time.Time           `json:"generated_at"`
}

// FieldDistribution is the per-field answer breakdown. Choice fields get
// per-option counts; numeric fields get an average.
type FieldDistribution struct {
	FieldID string           `json:"field_id"`
	Label   string           `json:"label"`
	Kind    models.FieldKind `json:"kind"`
	Counts  map[string]int   `json:"counts,omitempty"`
	Average *float64         `json:"average,omitempty"`
}

type QuizStats struct {
	AverageScore    float64  `json:"average_score"`
	AveragePercent  float64  `json:"average_percent"`
	HighestScore    float64  `json:"highest_score"`
	LowestScore     float64  `json:"lowest_score"`
	PassRate        *float64 `json:"pass_rate,omitempty"`
	ScoredResponses int      `json:"scored_responses"`
}

type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type AttendanceStats struct {
	FormID         uint              `json:"form_id"`
	TotalResponses int64             `json:"total_responses"`
	Last14Days     []TimeSeriesPoint `json:"last_14_days"`
}

type analyticsService struct {
	repo     repositories.Repository
	logger   *slog.Logger
	insights InsightProvider
	now      func() time.Time
}

func NewAnalyticsService(repo repositories.Repository, logger *slog.Logger, insights InsightProvider) AnalyticsService {
	return &analyticsService{
		repo:     repo,
		logger:   logger,
		insights: insights,
		now:      time.Now,
	}
}

// ===== ANALYTICS OPERATIONS =====

func (s *analyticsService) GetFormAnalytics(ctx context.Context, formID uint, ownerID string) (*FormAnalytics, error) {
	form, err := s.loadOwnedForm(ctx, formID, ownerID)
	if err != nil {
		return nil, err
	}

	total, err := s.repo.Response().CountByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}

	sample, err := s.repo.Response().Sample(ctx, formID, analyticsSampleCap)
	if err != nil {
		return nil, fmt.Errorf("failed to sample responses: %w", err)
	}

	analytics := &FormAnalytics{
		FormID:         form.ID,
		Title:          form.Title,
		Type:           form.Type,
		TotalResponses: total,
		SampleSize:     len(sample),
		Distributions:  s.aggregateDistributions(form, sample),
		GeneratedAt:    s.now().UTC(),
	}

	var totalDuration int
	var timed int
	for _, r := range sample {
		if r.DurationSeconds > 0 {
			totalDuration += r.DurationSeconds
			timed++
		}
	}
	if timed > 0 {
		analytics.AverageDuration = float64(totalDuration) / float64(timed)
	}

	if form.Type == models.FormTypeQuiz {
		analytics.Quiz = s.aggregateQuizStats(form, sample)
	}

	return analytics, nil
}

// aggregateDistributions builds the per-field breakdown from the sample.
// Checkbox answers contribute one count per selected value.
func (s *analyticsService) aggregateDistributions(form *models.Form, sample []*models.Response) []FieldDistribution {
	distributions := make([]FieldDistribution, 0, len(form.Fields))

	for _, field := range form.Fields {
		switch {
		case field.Kind.IsChoice():
			distributions = append(distributions, s.choiceDistribution(field, sample))
		case field.Kind == models.FieldRating || field.Kind == models.FieldScale || field.Kind == models.FieldNumber:
			distributions = append(distributions, s.numericDistribution(field, sample))
		}
	}
	return distributions
}

func (s *analyticsService) choiceDistribution(field models.Field, sample []*models.Response) FieldDistribution {
	counts := make(map[string]int, len(field.Options))
	for _, opt := range field.Options {
		counts[opt] = 0
	}

	for _, response := range sample {
		value, ok := answerFor(response, field.ID)
		if !ok {
			continue
		}

		values, isArray := value.([]any)
		if !isArray {
			values = []any{value}
		}
		for _, v := range values {
			if label, ok := optionLabel(field.Options, v); ok {
				counts[label]++
			}
		}
	}

	return FieldDistribution{
		FieldID: field.ID,
		Label:   field.Label,
		Kind:    field.Kind,
		Counts:  counts,
	}
}

func (s *analyticsService) numericDistribution(field models.Field, sample []*models.Response) FieldDistribution {
	counts := make(map[string]int)
	var sum float64
	var n int

	for _, response := range sample {
		value, ok := answerFor(response, field.ID)
		if !ok {
			continue
		}
		f, ok := toNumber(value)
		if !ok {
			continue
		}
		sum += f
		n++
		counts[strconv.FormatFloat(f, 'f', -1, 64)]++
	}

	dist := FieldDistribution{
		FieldID: field.ID,
		Label:   field.Label,
		Kind:    field.Kind,
		Counts:  counts,
	}
	if n > 0 {
		avg := sum / float64(n)
		dist.Average = &avg
	}
	return dist
}

func (s *analyticsService) aggregateQuizStats(form *models.Form, sample []*models.Response) *QuizStats {
	stats := &QuizStats{}
	var sumScore, sumPercent float64
	var passed int
	first := true

	for _, response := range sample {
		if response.Score == nil || response.MaxScore == nil {
			continue
		}
		score := *response.Score
		stats.ScoredResponses++
		sumScore += score

		if *response.MaxScore > 0 {
			percent := score / *response.MaxScore * 100
			sumPercent += percent
			if form.Settings.PassingScore != nil && percent >= *form.Settings.PassingScore {
				passed++
			}
		}

		if first || score > stats.HighestScore {
			stats.HighestScore = score
		}
		if first || score < stats.LowestScore {
			stats.LowestScore = score
		}
		first = false
	}

	if stats.ScoredResponses > 0 {
		stats.AverageScore = sumScore / float64(stats.ScoredResponses)
		stats.AveragePercent = sumPercent / float64(stats.ScoredResponses)
		if form.Settings.PassingScore != nil {
			rate := float64(passed) / float64(stats.ScoredResponses) * 100
			stats.PassRate = &rate
		}
	}
	return stats
}

// GetSubmissionTimeSeries returns one point per calendar day over an
// inclusive trailing window ending today. Days with no submissions appear
// with a zero count; the series is sorted ascending.
func (s *analyticsService) GetSubmissionTimeSeries(ctx context.Context, formID uint, ownerID string, days int) ([]TimeSeriesPoint, error) {
	if _, err := s.loadOwnedForm(ctx, formID, ownerID); err != nil {
		return nil, err
	}
	if days <= 0 {
		days = defaultTimeSeriesDays
	}
	return s.timeSeries(ctx, formID, days)
}

func (s *analyticsService) timeSeries(ctx context.Context, formID uint, days int) ([]TimeSeriesPoint, error) {
	today := startOfDay(s.now().UTC())
	since := today.AddDate(0, 0, -(days - 1))

	counts, err := s.repo.Response().CountsByDay(ctx, formID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily counts: %w", err)
	}

	byDay := make(map[string]int64, len(counts))
	for _, dc := range counts {
		byDay[dc.Date.UTC().Format("2006-01-02")] = dc.Count
	}

	series := make([]TimeSeriesPoint, 0, days)
	for day := since; !day.After(today); day = day.AddDate(0, 0, 1) {
		date := day.Format("2006-01-02")
		series = append(series, TimeSeriesPoint{Date: date, Count: byDay[date]})
	}
	return series, nil
}

// GetAttendanceStats reports the total headcount plus a 14-day series.
func (s *analyticsService) GetAttendanceStats(ctx context.Context, formID uint, ownerID string) (*AttendanceStats, error) {
	if _, err := s.loadOwnedForm(ctx, formID, ownerID); err != nil {
		return nil, err
	}

	total, err := s.repo.Response().CountByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}

	series, err := s.timeSeries(ctx, formID, attendanceWindowDays)
	if err != nil {
		return nil, err
	}

	return &AttendanceStats{
		FormID:         formID,
		TotalResponses: total,
		Last14Days:     series,
	}, nil
}

func (s *analyticsService) GetInsightSummary(ctx context.Context, formID uint, ownerID string) (string, error) {
	if s.insights == nil {
		return "", fmt.Errorf("%w: no insight provider configured", ErrInternalError)
	}

	analytics, err := s.GetFormAnalytics(ctx, formID, ownerID)
	if err != nil {
		return "", err
	}

	summary, err := s.insights.Summarize(ctx, analytics)
	if err != nil {
		return "", fmt.Errorf("failed to summarize analytics: %w", err)
	}
	return summary, nil
}

// ===== HELPERS =====

func (s *analyticsService) loadOwnedForm(ctx context.Context, formID uint, ownerID string) (*models.Form, error) {
	form, err := s.repo.Form().GetByID(ctx, formID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFormNotFound
		}
		return nil, fmt.Errorf("failed to load form: %w", err)
	}
	if form.OwnerID != ownerID {
		return nil, NewPermissionError(ownerID, formID, "form", "read analytics", "not the owner")
	}
	return form, nil
}

func answerFor(response *models.Response, fieldID string) (any, bool) {
	for _, a := range response.Answers {
		if a.FieldID == fieldID {
			return a.Value, true
		}
	}
	return nil, false
}

// optionLabel maps an answer value back to its option label, accepting
// either the literal string or a numeric index.
func optionLabel(options []string, value any) (string, bool) {
	if s, ok := value.(string); ok {
		for _, opt := range options {
			if opt == s {
				return opt, true
			}
		}
		return "", false
	}
	if idx, ok := toNumericIndex(value); ok && idx >= 0 && idx < len(options) {
		return options[idx], true
	}
	return "", false
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
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
