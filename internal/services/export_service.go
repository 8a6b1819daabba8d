package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Mont3ll/lms-backend/internal/repositories"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

type exportService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewExportService(repo repositories.Repository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportAssessmentResults renders one row per graded attempt, ordered by
// grading time.
func (s *exportService) ExportAssessmentResults(ctx context.Context, assessmentID uint) ([]byte, error) {
	assessment, err := s.repo.Assessment().GetByID(ctx, nil, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to load assessment: %w", err)
	}

	results, err := s.repo.Result().GetByAssessment(ctx, nil, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grading results: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Attempt ID", "Student ID", "Status", "Started At", "Submitted At",
		"Graded At", "Points Awarded", "Points Possible", "Percentage", "Outcome",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, result := range results {
		attempt := result.Attempt

		row := []interface{}{
			result.AttemptID,
			attempt.StudentID,
			string(attempt.Status),
			attempt.StartedAt.Format("2006-01-02 15:04:05"),
		}

		if attempt.SubmittedAt != nil {
			row = append(row, attempt.SubmittedAt.Format("2006-01-02 15:04:05"))
		} else {
			row = append(row, "")
		}

		row = append(row,
			result.GradedAt.Format("2006-01-02 15:04:05"),
			result.TotalPointsAwarded,
			result.TotalPointsPossible,
			result.Percentage,
		)

		if result.Passed {
			row = append(row, "Pass")
		} else {
			row = append(row, "Fail")
		}

		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported assessment results",
		"assessment_id", assessmentID,
		"title", assessment.Title,
		"rows", len(results))

	return buf.Bytes(), nil
}
