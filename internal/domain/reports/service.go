package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

type PeriodSummary struct {
	PendingApprovals  int `json:"pendingApprovals"`
	OpenRevisions     int `json:"openRevisions"`
	ApprovedSteps     int `json:"approvedSteps"`
	EmployeesInPeriod int `json:"employeesInPeriod"`
}

func (s *Service) PeriodSummary(ctx context.Context, periodID string) (PeriodSummary, error) {
	var out PeriodSummary
	var err error
	if out.PendingApprovals, err = s.Store.PendingApprovals(ctx, periodID); err != nil {
		return out, err
	}
	if out.OpenRevisions, err = s.Store.OpenRevisions(ctx, periodID); err != nil {
		return out, err
	}
	if out.ApprovedSteps, err = s.Store.ApprovedSteps(ctx, periodID); err != nil {
		return out, err
	}
	if out.EmployeesInPeriod, err = s.Store.EmployeesInPeriod(ctx, periodID); err != nil {
		return out, err
	}
	return out, nil
}

// GenerateEvaluationSheetPDF renders the employee's approval sheet for a
// period and returns the path of the written file.
func (s *Service) GenerateEvaluationSheetPDF(ctx context.Context, periodID, employeeID string) (string, error) {
	var firstName, lastName, email, periodName string
	var startDate, endDate time.Time
	err := s.Store.DB.QueryRow(ctx, `
    SELECT e.first_name, e.last_name, e.email, p.name, p.start_date, p.end_date
    FROM employees e, evaluation_periods p
    WHERE e.id = $1 AND p.id = $2
  `, employeeID, periodID).Scan(&firstName, &lastName, &email, &periodName, &startDate, &endDate)
	if err != nil {
		return "", err
	}

	steps, err := s.Store.stepRows(ctx, periodID, employeeID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll("storage/sheets", 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join("storage/sheets", periodID+"-"+employeeID+".pdf")

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Evaluation Sheet")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Employee: %s %s", firstName, lastName))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", email))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Period: %s (%s to %s)", periodName,
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02")))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(50, 8, "Stage", "1", 0, "", false, 0, "")
	pdf.CellFormat(60, 8, "Status", "1", 0, "", false, 0, "")
	pdf.CellFormat(40, 8, "Updated", "1", 1, "", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, step := range steps {
		pdf.CellFormat(50, 8, step.Stage, "1", 0, "", false, 0, "")
		pdf.CellFormat(60, 8, step.Status, "1", 0, "", false, 0, "")
		pdf.CellFormat(40, 8, step.UpdatedAt, "1", 1, "", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", err
	}
	return filePath, nil
}
