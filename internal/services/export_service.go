package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"

	"github.com/formlab/forms-service/internal/models"
	"github.com/formlab/forms-service/internal/repositories"
	"github.com/xuri/excelize/v2"
)

// exportBatchSize pages responses out of storage during an export.
const exportBatchSize = 500

// ExportService renders a form's responses as CSV or Excel. Columns
// follow the field order declared on the form; internal fields are
// included since exports are owner-facing.
type ExportService interface {
	ExportResponsesCSV(ctx context.Context, formID uint, ownerID string) ([]byte, error)
	ExportResponsesExcel(ctx context.Context, formID uint, ownerID string) ([]byte, error)
}

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{
		repo:   repo,
		logger: logger,
	}
}

// ===== EXPORT OPERATIONS =====

func (s *exportService) ExportResponsesCSV(ctx context.Context, formID uint, ownerID string) ([]byte, error) {
	form, responses, err := s.loadExportData(ctx, formID, ownerID)
	if err != nil {
		return nil, err
	}

	var buf strings.Builder
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeaders(form)); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, response := range responses {
		if err := writer.Write(s.responseToRow(form, response)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	s.logger.Info("Exported responses to CSV", "form_id", formID, "rows", len(responses))
	return []byte(buf.String()), nil
}

func (s *exportService) ExportResponsesExcel(ctx context.Context, formID uint, ownerID string) ([]byte, error) {
	form, responses, err := s.loadExportData(ctx, formID, ownerID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Responses"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	for i, header := range exportHeaders(form) {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to compute Excel cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, response := range responses {
		for colIndex, value := range s.responseToRow(form, response) {
			cell, err := excelize.CoordinatesToCellName(colIndex+1, rowIndex+2)
			if err != nil {
				return nil, fmt.Errorf("failed to compute Excel cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported responses to Excel", "form_id", formID, "rows", len(responses))
	return buf.Bytes(), nil
}

// ===== HELPERS =====

func (s *exportService) loadExportData(ctx context.Context, formID uint, ownerID string) (*models.Form, []*models.Response, error) {
	form, err := s.repo.Form().GetByID(ctx, formID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrFormNotFound
		}
		return nil, nil, fmt.Errorf("failed to load form: %w", err)
	}
	if form.OwnerID != ownerID {
		return nil, nil, NewPermissionError(ownerID, formID, "form", "export", "not the owner")
	}

	var all []*models.Response
	filters := repositories.ResponseFilters{
		Limit:     exportBatchSize,
		SortBy:    "submitted_at",
		SortOrder: "asc",
	}
	for {
		page, _, err := s.repo.Response().ListByForm(ctx, formID, filters)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load responses: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportBatchSize {
			break
		}
		filters.Offset += exportBatchSize
	}

	return form, all, nil
}

func exportHeaders(form *models.Form) []string {
	headers := []string{"Response ID", "Submitted At", "Name", "Email", "Student ID", "Duration (s)"}
	for _, field := range form.Fields {
		headers = append(headers, field.Label)
	}
	if form.Type == models.FormTypeQuiz {
		headers = append(headers, "Score", "Max Score")
	}
	return headers
}

func (s *exportService) responseToRow(form *models.Form, response *models.Response) []string {
	row := []string{
		fmt.Sprintf("%d", response.ID),
		response.SubmittedAt.UTC().Format("2006-01-02 15:04:05"),
		stringOrEmpty(response.ResponderName),
		stringOrEmpty(response.ResponderEmail),
		stringOrEmpty(response.ResponderStudentID),
		fmt.Sprintf("%d", response.DurationSeconds),
	}

	answers := make(map[string]any, len(response.Answers))
	for _, a := range response.Answers {
		answers[a.FieldID] = a.Value
	}

	for _, field := range form.Fields {
		row = append(row, formatAnswer(field, answers[field.ID]))
	}

	if form.Type == models.FormTypeQuiz {
		row = append(row, formatScore(response.Score), formatScore(response.MaxScore))
	}
	return row
}

// formatAnswer renders one answer value for a flat cell. Choice answers
// given as indexes are mapped back to their option labels.
func formatAnswer(field models.Field, value any) string {
	if value == nil {
		return ""
	}

	if values, ok := value.([]any); ok {
		parts := make([]string, 0, len(values))
		for _, v := range values {
			parts = append(parts, formatScalar(field, v))
		}
		return strings.Join(parts, "; ")
	}
	return formatScalar(field, value)
}

func formatScalar(field models.Field, value any) string {
	if field.Kind.IsChoice() || (field.Kind == models.FieldDropdown && field.Multiple) {
		if label, ok := optionLabel(field.Options, value); ok {
			return label
		}
	}
	return fmt.Sprintf("%v", value)
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return fmt.Sprintf("%g", *score)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
