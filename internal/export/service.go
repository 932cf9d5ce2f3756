package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/loan-intake/internal/entity"
	"github.com/joseph-ayodele/loan-intake/internal/repository"
)

const sheet = "Applications"

var headers = []string{
	"Submitted",
	"Applicant",
	"Employer",
	"Loan Amount",
	"Primary Purpose",
	"Bank",
	"Status",
	"Application ID",
}

// Service produces XLSX bytes for the admin review list.
type Service struct {
	apps   repository.ApplicationRepository
	logger *slog.Logger
}

func NewService(apps repository.ApplicationRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{apps: apps, logger: logger}
}

// ExportApplicationsXLSX returns a workbook with one row per application
// created in the date window, newest first.
// If only from is provided -> from..today (inclusive).
// If only to is provided   -> beginning..to (inclusive).
// If neither is provided   -> all applications.
func (s *Service) ExportApplicationsXLSX(ctx context.Context, from, to *time.Time) ([]byte, error) {
	start := time.Now()

	var fromTS, toTS time.Time
	if from != nil {
		fromTS = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	}
	if to != nil {
		toTS = endOfDay(*to)
	} else if from != nil {
		toTS = endOfDay(time.Now().UTC())
	}

	apps, err := s.apps.List(ctx, fromTS, toTS)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("failed to close workbook", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, style)
	}
	moneyStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}

	for i, app := range apps {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		write(1, app.CreatedAt.UTC().Format("2006-01-02"))
		write(2, applicant(app))
		write(3, employer(app))
		if app.Financial != nil {
			write(4, app.Financial.LoanAmount.InexactFloat64())
			cell, _ := excelize.CoordinatesToCellName(4, row)
			_ = f.SetCellStyle(sheet, cell, cell, moneyStyle)
		}
		write(5, primaryPurpose(app))
		write(6, bank(app))
		write(7, string(app.Status))
		write(8, app.ID.String())
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "C", 30) // names
	_ = f.SetColWidth(sheet, "D", "D", 14) // amount
	_ = f.SetColWidth(sheet, "E", "G", 16)
	_ = f.SetColWidth(sheet, "H", "H", 38) // uuid
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(apps),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

func applicant(app *entity.LoanApplication) string {
	if app.Personal == nil {
		return ""
	}
	return strings.TrimSpace(app.Personal.GivenName + " " + app.Personal.Surname)
}

func employer(app *entity.LoanApplication) string {
	if app.Employment == nil {
		return ""
	}
	return app.Employment.CompanyDepartment
}

func primaryPurpose(app *entity.LoanApplication) string {
	if app.Product == nil || app.Product.PrimaryPurpose == "" {
		return ""
	}
	return app.Product.PrimaryPurpose.Label()
}

func bank(app *entity.LoanApplication) string {
	if app.Funding == nil {
		return ""
	}
	return app.Funding.Bank
}
