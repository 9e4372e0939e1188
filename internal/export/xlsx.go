// Package export writes quiz results and assignment grades to xlsx
// spreadsheets for the admin reporting flow.
package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"scholarpath-service/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// WriteResults writes one row per quiz result, best score first (the
// caller passes them pre-sorted by the store).
func WriteResults(path string, results []domain.QuizResult) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Results"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"User ID", "Quiz", "Score (%)", "Discount (%)", "Time Taken (s)", "Completed At"}
	for i, head := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, head); err != nil {
			return err
		}
	}

	for row, result := range results {
		values := []any{
			result.UserID,
			result.QuizTitle,
			result.Score,
			result.Discount,
			result.TimeTaken,
			result.CompletedAt.Format(timeLayout),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save results workbook: %w", err)
	}
	return nil
}

// WriteGrades writes one row per assignment submission.
func WriteGrades(path string, subs []domain.Submission) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Grades"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Student ID", "Course", "Week", "Assignment", "Status", "Score", "Feedback", "Graded By", "Submitted At"}
	for i, head := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, head); err != nil {
			return err
		}
	}

	for row, sub := range subs {
		score := any("")
		if sub.Score != nil {
			score = *sub.Score
		}
		values := []any{
			sub.StudentID,
			sub.CourseID,
			sub.Week,
			sub.AssignmentID,
			string(sub.Status),
			score,
			sub.Feedback,
			sub.GradedBy,
			sub.SubmittedAt.Format(timeLayout),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save grades workbook: %w", err)
	}
	return nil
}
